package deploy

import (
	"context"

	"moddeploy/internal/gitsync"
	"moddeploy/internal/versions"
)

// FinishedFunc observes the completion of a deployment. It is called
// exactly once per successful deployment and never after a failure,
// since a failed deployment leaves no known-good artifact to report.
type FinishedFunc func(deployID int64, message string, cfg Configuration)

// Configuration is one registered unit of deployment behavior bound to a
// (repository, branch) pair. The set of implementations is closed:
// WebConfiguration and GameConfiguration.
type Configuration interface {
	// Name identifies the configuration in logs and error messages.
	Name() string

	// Repository returns the bound repository identity.
	Repository() gitsync.Repository

	// Branch returns the bound branch name.
	Branch() string

	// Matches reports whether an inbound event for the given repository
	// and branch should trigger this configuration. Pure predicate.
	Matches(repoURL, repoName, branch string, force bool) bool

	// Deploy executes the deployment behavior for sha. onFinished fires
	// exactly once on success. The returned handle observes the terminal
	// state of the work, which may complete after Deploy returns.
	Deploy(ctx context.Context, deployID int64, sha string, onFinished FinishedFunc) (*Handle, error)
}

// Syncer is the git synchronization dependency of a configuration.
type Syncer interface {
	Sync(ctx context.Context, repo gitsync.Repository, ref, expectedSHA string) error
}

// VersionStore is the deployed-version bookkeeping dependency of game
// configurations.
type VersionStore interface {
	FilesForVersion(ctx context.Context, mod string, version int) ([]versions.FileRecord, error)
	Publish(ctx context.Context, mod string, version int, files []versions.StagedFile,
		finalName func(versions.StagedFile) string, override bool, move versions.MoveFunc) error
}

// ChatSender posts human-readable notifications to the community chat.
type ChatSender interface {
	Send(ctx context.Context, text string) error
}

// StatusReporter is the deployment-status host API consumed by the manager.
type StatusReporter interface {
	CreateDeployment(ctx context.Context, repo, ref, environment, description string) (int64, error)
	CreateDeploymentStatus(ctx context.Context, repo string, deploymentID int64, state, description string) error
}

// target binds a configuration to its repository and branch.
type target struct {
	repo       gitsync.Repository
	branch     string
	autodeploy bool
}

// Matches is true iff the repository url and name equal the configured
// ones, the branch equals the configured branch, and either autodeploy is
// enabled or the event is forced.
func (t target) Matches(repoURL, repoName, branch string, force bool) bool {
	return t.repo.URL == repoURL &&
		t.repo.Name == repoName &&
		t.branch == branch &&
		(t.autodeploy || force)
}

func (t target) Repository() gitsync.Repository { return t.repo }

func (t target) Branch() string { return t.branch }
