package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"moddeploy/pkg/cmdutil"
)

// Deployment variant tags.
const (
	TypeWeb  = "web"
	TypeGame = "game"
)

// Config is the root configuration structure.
type Config struct {
	// Environment names the environment this instance serves, e.g.
	// "production" or "testing". Deployment events for other
	// environments are skipped.
	Environment string `yaml:"environment"`

	// WebhookSecret is the shared secret webhook signatures are computed
	// with. Empty disables signature verification.
	WebhookSecret string `yaml:"webhook_secret"`

	GitHub GitHubConfig `yaml:"github"`
	Chat   ChatConfig   `yaml:"chat"`

	// GitExecutable is the path of the git binary; empty resolves "git"
	// via PATH.
	GitExecutable string `yaml:"git_executable"`

	Deployments []DeploymentConfig `yaml:"deployments"`
}

// GitHubConfig holds credentials for the deployment-status host API.
type GitHubConfig struct {
	Token string `yaml:"token"`
	Owner string `yaml:"owner"`
}

// ChatConfig holds the chat notification webhook settings.
type ChatConfig struct {
	WebhookURL string `yaml:"webhook_url"`
	Username   string `yaml:"username"`
}

// RepositoryConfig identifies a deployable repository.
type RepositoryConfig struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// DeploymentConfig is one tagged deployment entry. Web entries use the
// restart fields, game entries the featured-mod fields.
type DeploymentConfig struct {
	Type       string           `yaml:"type"`
	Repository RepositoryConfig `yaml:"repository"`
	Branch     string           `yaml:"branch"`
	Autodeploy bool             `yaml:"autodeploy"`

	// Web variant.
	RestartFile     string   `yaml:"restart_file"`
	RestartCommands []string `yaml:"restart_commands"`

	// Game variant.
	FeaturedMod      string         `yaml:"featured_mod"`
	DeployPath       string         `yaml:"deploy_path"`
	BaseExecutable   string         `yaml:"base_executable"`
	ExecutableFileID int            `yaml:"executable_file_id"`
	Extension        string         `yaml:"extension"`
	AllowOverride    bool           `yaml:"allow_override"`
	Files            map[string]int `yaml:"files"`

	// ParsedRestartCommands is RestartCommands split into argv form,
	// populated during Load.
	ParsedRestartCommands [][]string `yaml:"-"`
}

// Load reads and validates the configuration at configPath.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if errs := cfg.validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration:\n%s", strings.Join(errs, "\n"))
	}

	// Defaults and derived fields.
	if cfg.Chat.Username == "" {
		cfg.Chat.Username = "moddeploy"
	}
	for i := range cfg.Deployments {
		d := &cfg.Deployments[i]
		if d.Branch == "" {
			d.Branch = "main"
		}
		for _, raw := range d.RestartCommands {
			argv, err := cmdutil.Split(raw)
			if err != nil {
				return nil, fmt.Errorf("deployment %d: restart command %q: %w", i, raw, err)
			}
			d.ParsedRestartCommands = append(d.ParsedRestartCommands, argv)
		}
	}

	return &cfg, nil
}
