package gitsync

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"moddeploy/pkg/cmdutil"
	"moddeploy/pkg/fileutil"
)

const (
	// DefaultGitTimeout bounds each individual git subprocess call.
	DefaultGitTimeout = 5 * time.Minute
)

// runFunc executes a git subprocess in dir and returns its combined output.
type runFunc func(ctx context.Context, dir string, argv []string) (*cmdutil.Result, error)

// Syncer makes local working copies reflect specific remote commits.
// It is safe for concurrent use; operations on the same local path are
// serialized internally.
type Syncer struct {
	gitPath string
	timeout time.Duration
	logger  *slog.Logger
	locks   *pathLocks
	run     runFunc
}

// NewSyncer creates a syncer invoking the git executable at gitPath
// ("git" resolves via PATH).
func NewSyncer(gitPath string, logger *slog.Logger) *Syncer {
	if gitPath == "" {
		gitPath = "git"
	}
	s := &Syncer{
		gitPath: gitPath,
		timeout: DefaultGitTimeout,
		logger:  logger,
		locks:   newPathLocks(),
	}
	s.run = s.runGit
	return s
}

func (s *Syncer) runGit(ctx context.Context, dir string, argv []string) (*cmdutil.Result, error) {
	return cmdutil.Run(ctx, cmdutil.Options{Dir: dir, Timeout: s.timeout}, argv)
}

// Sync brings repo's working copy to the head of ref, cloning first when
// no working copy exists. Local modifications are discarded. When
// expectedSHA is non-empty the resulting HEAD must equal it; a moved
// remote ref or a tampered fetch therefore fails instead of deploying an
// unintended commit.
//
// On success HEAD equals expectedSHA (when given). Failures are reported
// as *CloneError, *FetchError or *CheckoutError depending on the stage.
func (s *Syncer) Sync(ctx context.Context, repo Repository, ref, expectedSHA string) error {
	lock := s.locks.acquire(repo.LocalPath)
	defer lock.Unlock()

	if !fileutil.DirExists(repo.LocalPath) {
		s.logger.Info("cloning repository", "repo", repo.Name, "url", repo.URL, "path", repo.LocalPath)
		result, err := s.run(ctx, "", []string{s.gitPath, "clone", repo.URL, repo.LocalPath})
		if err != nil || !result.OK() {
			return &CloneError{Repo: repo.Name, Output: string(result.Output), Err: err}
		}
	}

	s.logger.Info("fetching ref", "repo", repo.Name, "ref", ref)
	result, err := s.run(ctx, repo.LocalPath, []string{s.gitPath, "fetch", "origin", ref})
	if err != nil || !result.OK() {
		return &FetchError{Repo: repo.Name, Ref: ref, Output: string(result.Output), Err: err}
	}

	// Destructive reset to the fetched head.
	result, err = s.run(ctx, repo.LocalPath, []string{s.gitPath, "checkout", "--force", "FETCH_HEAD"})
	if err != nil || !result.OK() {
		return &CheckoutError{Repo: repo.Name, Ref: ref, Output: string(result.Output), Err: err}
	}

	head, err := s.head(ctx, repo)
	if err != nil {
		return &CheckoutError{Repo: repo.Name, Ref: ref, Err: err}
	}

	if expectedSHA != "" && head != expectedSHA {
		return &CheckoutError{Repo: repo.Name, Ref: ref, Expected: expectedSHA, Actual: head}
	}

	s.logger.Info("repository synced", "repo", repo.Name, "ref", ref, "commit", head)
	return nil
}

// head returns the commit hash the working copy currently points at.
func (s *Syncer) head(ctx context.Context, repo Repository) (string, error) {
	result, err := s.run(ctx, repo.LocalPath, []string{s.gitPath, "rev-parse", "HEAD"})
	if err != nil || !result.OK() {
		return "", fmt.Errorf("git rev-parse failed: %w", err)
	}
	return strings.TrimSpace(string(result.Output)), nil
}
