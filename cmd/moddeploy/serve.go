package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"moddeploy/internal/artifact"
	"moddeploy/internal/config"
	"moddeploy/internal/deploy"
	"moddeploy/internal/gitsync"
	"moddeploy/internal/notify"
	"moddeploy/internal/server"
	"moddeploy/internal/versions"

	"github.com/spf13/cobra"
)

var (
	configFile string
	logFile    string
	dbPath     string
	host       string
	port       int
	testMode   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server",
	Long: `Start the HTTP server that receives GitHub webhook events.

Push events register deployments with GitHub; the deployment events GitHub
sends back trigger the actual web restarts and featured-mod builds.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&configFile, "config", "c", getEnvOrDefault("MODDEPLOY_CONFIG_FILE", "./moddeploy.yaml"), "Path to configuration file")
	serveCmd.Flags().StringVar(&logFile, "log", getEnvOrDefault("MODDEPLOY_LOG_FILE", "./moddeploy.log"), "Path to log file")
	serveCmd.Flags().StringVar(&dbPath, "db", getEnvOrDefault("MODDEPLOY_DB_PATH", "./moddeploy.db"), "Path to SQLite version database")
	serveCmd.Flags().StringVar(&host, "host", getEnvOrDefault("MODDEPLOY_HOST", "127.0.0.1"), "Host to bind to")
	serveCmd.Flags().IntVarP(&port, "port", "p", getEnvOrDefaultInt("MODDEPLOY_PORT", 5000), "Port to listen on")
	serveCmd.Flags().BoolVar(&testMode, "test-mode", os.Getenv("MODDEPLOY_TEST_MODE") == "1", "Enable test mode (no rate limits, no version database)")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, logFileHandle, err := setupLogging(logFile)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer logFileHandle.Close()

	logger.Info("starting moddeploy", "config", configFile)

	cfg, err := config.Load(configFile)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if len(cfg.Deployments) == 0 {
		logger.Warn("no deployments configured; the server will ignore every event", "config", configFile)
	}

	var store *versions.Store
	if !testMode {
		logger.Info("opening version database", "db", dbPath)
		store, err = versions.NewStore(dbPath)
		if err != nil {
			logger.Error("failed to open version database", "error", err)
			return fmt.Errorf("failed to open version database: %w", err)
		}
		defer store.Close()
	}

	// Avoid handing typed-nil interfaces around in test mode.
	var versionStore deploy.VersionStore
	var versionLister server.VersionLister
	if store != nil {
		versionStore = store
		versionLister = store
	}

	syncer := gitsync.NewSyncer(cfg.GitExecutable, logger)
	reporter := notify.NewGitHubReporter(cfg.GitHub.Token, cfg.GitHub.Owner)
	chat := notify.NewChatNotifier(cfg.Chat.WebhookURL, cfg.Chat.Username)
	modLocks := deploy.NewLockManager()

	configurations := make([]deploy.Configuration, 0, len(cfg.Deployments))
	for _, d := range cfg.Deployments {
		repo := gitsync.Repository{
			URL:       d.Repository.URL,
			Name:      d.Repository.Name,
			LocalPath: d.Repository.Path,
		}

		switch d.Type {
		case config.TypeWeb:
			configurations = append(configurations, deploy.NewWebConfiguration(
				repo, d.Branch, d.Autodeploy,
				d.RestartFile, d.ParsedRestartCommands,
				syncer, logger))
		case config.TypeGame:
			configurations = append(configurations, deploy.NewGameConfiguration(
				repo, d.Branch, d.Autodeploy,
				deploy.GameOptions{
					FeaturedMod:      d.FeaturedMod,
					DeployPath:       d.DeployPath,
					BaseExecutable:   d.BaseExecutable,
					ExecutableFileID: d.ExecutableFileID,
					Extension:        d.Extension,
					AllowOverride:    d.AllowOverride,
				},
				syncer, artifact.NewZipBuilder(d.Files), versionStore, chat, modLocks, logger))
		}
	}

	logger.Info("configurations registered",
		"environment", cfg.Environment, "count", len(configurations))

	manager := deploy.NewManager(cfg.Environment, configurations, reporter, chat, logger)
	srv := server.NewServer(manager, versionLister, cfg.WebhookSecret, logger, testMode)

	logger.Info("starting HTTP server", "host", host, "port", port)
	if err := srv.Start(host, port); err != nil {
		logger.Error("server failed", "error", err)
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// setupLogging configures slog for file logging.
// Returns both the logger and the file handle (caller must close the file).
func setupLogging(logPath string) (*slog.Logger, *os.File, error) {
	logDir := filepath.Dir(logPath)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	handler := slog.NewJSONHandler(multiWriter, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})

	return slog.New(handler), file, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}
