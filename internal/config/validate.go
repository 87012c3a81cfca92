package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

const minSecretLength = 32

// Obvious placeholder secrets that must never reach production.
var forbiddenSecrets = map[string]bool{
	"replace-with-secret": true,
	"topsecret":           true,
	"secret":              true,
	"password":            true,
	"changeme":            true,
}

var (
	// Branch names end up as git subprocess arguments.
	branchPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._/-]*$`)

	// Featured mod names end up in filenames and chat messages.
	modPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
)

// validate collects every configuration problem instead of stopping at
// the first, so operators can fix a config file in one pass.
func (c *Config) validate() []string {
	var errs []string

	if c.Environment == "" {
		errs = append(errs, "  - missing required 'environment' field")
	}

	if c.WebhookSecret != "" {
		if len(c.WebhookSecret) < minSecretLength {
			errs = append(errs, fmt.Sprintf("  - webhook_secret too short (minimum %d characters)", minSecretLength))
		}
		if forbiddenSecrets[strings.ToLower(c.WebhookSecret)] {
			errs = append(errs, "  - webhook_secret appears to be a placeholder value, replace with a real secret")
		}
	}

	if c.GitHub.Owner == "" {
		errs = append(errs, "  - missing required 'github.owner' field")
	}

	seen := make(map[string]int)
	for i, d := range c.Deployments {
		errs = append(errs, d.validate(i)...)

		// Two entries bound to the same (repository, branch) would make
		// every event for that branch ambiguous at runtime.
		key := d.Repository.URL + "\x00" + d.Repository.Name + "\x00" + d.branchOrDefault()
		if prev, dup := seen[key]; dup {
			errs = append(errs, fmt.Sprintf("  - deployment %d: duplicates repository/branch of deployment %d (%s@%s)",
				i, prev, d.Repository.Name, d.branchOrDefault()))
		} else {
			seen[key] = i
		}
	}

	return errs
}

func (d *DeploymentConfig) branchOrDefault() string {
	if d.Branch == "" {
		return "main"
	}
	return d.Branch
}

func (d *DeploymentConfig) validate(i int) []string {
	var errs []string

	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf("  - deployment %d: ", i)+fmt.Sprintf(format, args...))
	}

	if d.Repository.URL == "" {
		fail("missing required 'repository.url' field")
	}
	if d.Repository.Name == "" {
		fail("missing required 'repository.name' field")
	}
	if d.Repository.Path == "" {
		fail("missing required 'repository.path' field")
	} else if !filepath.IsAbs(d.Repository.Path) {
		fail("repository.path must be absolute, got %q", d.Repository.Path)
	}

	if branch := d.branchOrDefault(); !branchPattern.MatchString(branch) {
		fail("invalid branch name %q", branch)
	}

	switch d.Type {
	case TypeWeb:
		if d.RestartFile == "" {
			fail("missing required 'restart_file' field")
		} else if !filepath.IsAbs(d.RestartFile) {
			fail("restart_file must be absolute, got %q", d.RestartFile)
		}
	case TypeGame:
		if d.FeaturedMod == "" {
			fail("missing required 'featured_mod' field")
		} else if !modPattern.MatchString(d.FeaturedMod) {
			fail("invalid featured_mod name %q", d.FeaturedMod)
		}
		if d.DeployPath == "" {
			fail("missing required 'deploy_path' field")
		} else if !filepath.IsAbs(d.DeployPath) {
			fail("deploy_path must be absolute, got %q", d.DeployPath)
		}
		if d.BaseExecutable == "" {
			fail("missing required 'base_executable' field")
		}
		if d.Extension == "" {
			fail("missing required 'extension' field")
		}
		if len(d.Files) == 0 {
			fail("missing required 'files' mapping (source directory -> file id)")
		}
		for dir := range d.Files {
			if dir == "" || strings.ContainsAny(dir, `/\`) {
				fail("invalid source directory name %q in 'files'", dir)
			}
		}
	case "":
		fail("missing required 'type' field (web or game)")
	default:
		fail("unknown deployment type %q (must be web or game)", d.Type)
	}

	return errs
}
