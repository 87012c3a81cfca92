package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"moddeploy/internal/gitsync"
	"moddeploy/pkg/cmdutil"
	"moddeploy/pkg/fileutil"
)

const restartCommandTimeout = 60 * time.Second

// WebConfiguration deploys a web service: sync the working copy to the
// pushed commit and touch the sentinel restart file the process
// supervisor watches. Fast enough to run synchronously on the request.
type WebConfiguration struct {
	target

	// RestartFile is the sentinel whose mtime signals the supervisor.
	RestartFile string

	// RestartCommands are optional operator hooks run after the sentinel
	// write, already parsed into argv form.
	RestartCommands [][]string

	syncer Syncer
	logger *slog.Logger
}

// NewWebConfiguration creates a web deployment bound to repo and branch.
func NewWebConfiguration(repo gitsync.Repository, branch string, autodeploy bool, restartFile string, restartCommands [][]string, syncer Syncer, logger *slog.Logger) *WebConfiguration {
	return &WebConfiguration{
		target:          target{repo: repo, branch: branch, autodeploy: autodeploy},
		RestartFile:     restartFile,
		RestartCommands: restartCommands,
		syncer:          syncer,
		logger:          logger,
	}
}

func (c *WebConfiguration) Name() string {
	return fmt.Sprintf("web:%s@%s", c.repo.Name, c.branch)
}

// Deploy runs synchronously. A sync or sentinel failure is returned
// directly and onFinished never fires.
func (c *WebConfiguration) Deploy(ctx context.Context, deployID int64, sha string, onFinished FinishedFunc) (*Handle, error) {
	if err := c.syncer.Sync(ctx, c.repo, c.branch, sha); err != nil {
		return nil, err
	}

	if err := fileutil.Touch(c.RestartFile); err != nil {
		return nil, fmt.Errorf("failed to touch restart file: %w", err)
	}

	for _, argv := range c.RestartCommands {
		result, err := cmdutil.Run(ctx, cmdutil.Options{
			Dir:     c.repo.LocalPath,
			Timeout: restartCommandTimeout,
		}, argv)
		if err != nil {
			return nil, fmt.Errorf("restart command %s failed: %w", cmdutil.Format(argv), err)
		}
		c.logger.Info("restart command finished",
			"configuration", c.Name(),
			"command", cmdutil.Format(argv),
			"duration_ms", result.Duration.Milliseconds())
	}

	c.logger.Info("web service deployed", "configuration", c.Name(), "commit", sha)
	onFinished(deployID, fmt.Sprintf("%s (%s) restarted at %s", c.repo.Name, c.branch, sha), c)

	return completedHandle(nil), nil
}
