package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"moddeploy/internal/artifact"
	"moddeploy/internal/gitsync"
	"moddeploy/internal/versions"
	"moddeploy/pkg/fileutil"
)

// GameConfiguration deploys a featured mod: sync the content repository,
// build versioned archives, stamp the base executable and publish the
// files plus their database records. Builds can take minutes, so Deploy
// hands the work to a background goroutine immediately.
type GameConfiguration struct {
	target

	// FeaturedMod names the content variant this configuration publishes.
	FeaturedMod string

	// DeployPath is the permanent directory published files move into.
	DeployPath string

	// BaseExecutable is the template executable stamped per version.
	BaseExecutable string

	// ExecutableFileID keys the stamped executable's version record.
	ExecutableFileID int

	// Extension is the filename extension built archives are published with.
	Extension string

	// AllowOverride permits replacing an already-deployed version.
	AllowOverride bool

	syncer  Syncer
	builder artifact.Builder
	store   VersionStore
	chat    ChatSender
	locks   *LockManager
	logger  *slog.Logger
}

// GameOptions carries the variant-specific fields of a game deployment.
type GameOptions struct {
	FeaturedMod      string
	DeployPath       string
	BaseExecutable   string
	ExecutableFileID int
	Extension        string
	AllowOverride    bool
}

// NewGameConfiguration creates a game deployment bound to repo and branch.
// locks must be shared across all game configurations so two builds of
// the same featured mod never overlap.
func NewGameConfiguration(repo gitsync.Repository, branch string, autodeploy bool, opts GameOptions, syncer Syncer, builder artifact.Builder, store VersionStore, chat ChatSender, locks *LockManager, logger *slog.Logger) *GameConfiguration {
	return &GameConfiguration{
		target:           target{repo: repo, branch: branch, autodeploy: autodeploy},
		FeaturedMod:      opts.FeaturedMod,
		DeployPath:       opts.DeployPath,
		BaseExecutable:   opts.BaseExecutable,
		ExecutableFileID: opts.ExecutableFileID,
		Extension:        opts.Extension,
		AllowOverride:    opts.AllowOverride,
		syncer:           syncer,
		builder:          builder,
		store:            store,
		chat:             chat,
		locks:            locks,
		logger:           logger,
	}
}

func (c *GameConfiguration) Name() string {
	return fmt.Sprintf("game:%s@%s", c.FeaturedMod, c.branch)
}

// Deploy schedules the build and returns immediately so the webhook
// response is not delayed by a multi-minute build. Failures surface on
// the handle, never as a direct return.
func (c *GameConfiguration) Deploy(ctx context.Context, deployID int64, sha string, onFinished FinishedFunc) (*Handle, error) {
	handle := newHandle()

	go func() {
		// The triggering request is long gone by the time the build ends.
		handle.complete(c.run(context.Background(), deployID, sha, onFinished))
	}()

	return handle, nil
}

func (c *GameConfiguration) run(ctx context.Context, deployID int64, sha string, onFinished FinishedFunc) error {
	c.locks.Lock(c.FeaturedMod)
	defer c.locks.Unlock(c.FeaturedMod)

	if err := c.syncer.Sync(ctx, c.repo, c.branch, sha); err != nil {
		return fmt.Errorf("sync of %s (%s): %w", c.repo.Name, c.branch, err)
	}

	info, err := artifact.ReadModInfo(c.repo.LocalPath)
	if err != nil {
		return fmt.Errorf("build metadata for %s (%s): %w", c.repo.Name, c.branch, err)
	}

	existing, err := c.store.FilesForVersion(ctx, c.FeaturedMod, info.Version)
	if err != nil {
		return fmt.Errorf("version lookup for %s v%d: %w", c.FeaturedMod, info.Version, err)
	}
	if len(existing) > 0 && !c.AllowOverride {
		// Benign no-op: the version is already out there. Surfaced to
		// operators so a skip is distinguishable from a success, but no
		// error is raised and onFinished never fires.
		c.logger.Warn("version already deployed, override disallowed",
			"mod", c.FeaturedMod, "version", info.Version, "deploy_id", deployID)
		c.notifySkipped(ctx, info.Version)
		return nil
	}

	staging, err := os.MkdirTemp("", "moddeploy-"+c.FeaturedMod+"-")
	if err != nil {
		return fmt.Errorf("staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	files, err := c.builder.Build(ctx, c.repo.LocalPath, staging, info.Version)
	if err != nil {
		return fmt.Errorf("build of %s v%d: %w", c.FeaturedMod, info.Version, err)
	}

	staged := make([]versions.StagedFile, 0, len(files)+1)
	for _, f := range files {
		staged = append(staged, versions.StagedFile{
			FileID: f.ID,
			Path:   f.Path,
			Name:   f.Name,
			MD5:    f.MD5,
		})
	}

	exe, err := c.stampExecutable(staging)
	if err != nil {
		return fmt.Errorf("executable stamping for %s v%d: %w", c.FeaturedMod, info.Version, err)
	}
	staged = append(staged, exe)

	override := c.AllowOverride && len(existing) > 0
	finalName := func(f versions.StagedFile) string {
		return c.finalName(f, info.Version)
	}
	move := func(src, name string) error {
		return fileutil.MoveFile(src, filepath.Join(c.DeployPath, name))
	}

	if err := c.store.Publish(ctx, c.FeaturedMod, info.Version, staged, finalName, override, move); err != nil {
		return fmt.Errorf("publish of %s v%d: %w", c.FeaturedMod, info.Version, err)
	}

	c.logger.Info("featured mod deployed",
		"mod", c.FeaturedMod, "version", info.Version, "files", len(staged), "deploy_id", deployID)
	onFinished(deployID, fmt.Sprintf("Deployed %s version %d (%d files)", c.FeaturedMod, info.Version, len(staged)), c)
	return nil
}

// stampExecutable copies the base executable template into staging so it
// is published alongside the archives.
func (c *GameConfiguration) stampExecutable(staging string) (versions.StagedFile, error) {
	name := filepath.Base(c.BaseExecutable)
	staged := filepath.Join(staging, name)

	if err := fileutil.CopyFile(c.BaseExecutable, staged); err != nil {
		return versions.StagedFile{}, err
	}

	sum, err := artifact.Checksum(staged)
	if err != nil {
		return versions.StagedFile{}, err
	}

	return versions.StagedFile{
		FileID: c.ExecutableFileID,
		Path:   staged,
		Name:   name,
		MD5:    sum,
	}, nil
}

// finalName derives the published filename from the original name, the
// version and the configured extension. The stamped executable keeps its
// own extension.
func (c *GameConfiguration) finalName(f versions.StagedFile, version int) string {
	ext := c.Extension
	if f.FileID == c.ExecutableFileID {
		ext = strings.TrimPrefix(filepath.Ext(f.Name), ".")
	}
	stem := strings.TrimSuffix(f.Name, filepath.Ext(f.Name))
	return fmt.Sprintf("%s.v%d.%s", stem, version, ext)
}

func (c *GameConfiguration) notifySkipped(ctx context.Context, version int) {
	if c.chat == nil {
		return
	}
	msg := fmt.Sprintf("Skipped deployment of %s version %d: already deployed and override is disallowed", c.FeaturedMod, version)
	if err := c.chat.Send(ctx, msg); err != nil {
		c.logger.Error("failed to send skip notification", "mod", c.FeaturedMod, "error", err)
	}
}
