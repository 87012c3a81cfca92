package deploy

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"moddeploy/internal/gitsync"
	"moddeploy/internal/versions"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func testRepo(name string) gitsync.Repository {
	return gitsync.Repository{
		URL:       "https://example.com/community/" + name + ".git",
		Name:      name,
		LocalPath: "/repos/" + name,
	}
}

type syncCall struct {
	Repo gitsync.Repository
	Ref  string
	SHA  string
}

type fakeSyncer struct {
	mu    sync.Mutex
	err   error
	calls []syncCall
}

func (f *fakeSyncer) Sync(ctx context.Context, repo gitsync.Repository, ref, sha string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, syncCall{Repo: repo, Ref: ref, SHA: sha})
	return f.err
}

func (f *fakeSyncer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type chatCall struct {
	Text string
}

type fakeChat struct {
	mu    sync.Mutex
	err   error
	calls []chatCall
}

func (f *fakeChat) Send(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, chatCall{Text: text})
	return f.err
}

func (f *fakeChat) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Text
	}
	return out
}

type createCall struct {
	Repo        string
	Ref         string
	Environment string
	Description string
}

type statusCall struct {
	Repo         string
	DeploymentID int64
	State        string
	Description  string
}

type fakeStatus struct {
	mu        sync.Mutex
	createErr error
	nextID    int64
	creates   []createCall
	statuses  []statusCall
}

func (f *fakeStatus) CreateDeployment(ctx context.Context, repo, ref, environment, description string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.creates = append(f.creates, createCall{Repo: repo, Ref: ref, Environment: environment, Description: description})
	f.nextID++
	return f.nextID, nil
}

func (f *fakeStatus) CreateDeploymentStatus(ctx context.Context, repo string, deploymentID int64, state, description string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, statusCall{Repo: repo, DeploymentID: deploymentID, State: state, Description: description})
	return nil
}

type publishCall struct {
	Mod      string
	Version  int
	Files    []versions.StagedFile
	Override bool
	Names    []string
}

type fakeStore struct {
	mu        sync.Mutex
	existing  map[int][]versions.FileRecord
	publishes []publishCall
	moveErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{existing: make(map[int][]versions.FileRecord)}
}

func (f *fakeStore) FilesForVersion(ctx context.Context, mod string, version int) ([]versions.FileRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.existing[version], nil
}

func (f *fakeStore) Publish(ctx context.Context, mod string, version int, files []versions.StagedFile,
	finalName func(versions.StagedFile) string, override bool, move versions.MoveFunc) error {
	call := publishCall{Mod: mod, Version: version, Files: files, Override: override}
	for _, file := range files {
		name := finalName(file)
		call.Names = append(call.Names, name)
		if err := move(file.Path, name); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.publishes = append(f.publishes, call)
	return nil
}

func (f *fakeStore) publishCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.publishes)
}
