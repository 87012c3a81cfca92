package deploy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"moddeploy/internal/gitsync"
)

func TestWebDeploy_Success(t *testing.T) {
	repo := testRepo("api")
	sentinel := filepath.Join(t.TempDir(), "api.restart")
	syncer := &fakeSyncer{}

	cfg := NewWebConfiguration(repo, "master", true, sentinel, nil, syncer, testLogger())

	var finishedID int64
	var finishedMsg string
	finishedCount := 0
	onFinished := func(deployID int64, message string, c Configuration) {
		finishedCount++
		finishedID = deployID
		finishedMsg = message
	}

	handle, err := cfg.Deploy(context.Background(), 42, "abc123", onFinished)
	if err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}
	if err := handle.Wait(); err != nil {
		t.Fatalf("Handle reported error: %v", err)
	}

	if len(syncer.calls) != 1 {
		t.Fatalf("Expected 1 sync call, got %d", len(syncer.calls))
	}
	if syncer.calls[0].Ref != "master" || syncer.calls[0].SHA != "abc123" {
		t.Errorf("Unexpected sync call: %+v", syncer.calls[0])
	}

	if _, err := os.Stat(sentinel); err != nil {
		t.Errorf("Sentinel file not touched: %v", err)
	}

	if finishedCount != 1 {
		t.Fatalf("Expected onFinished exactly once, got %d", finishedCount)
	}
	if finishedID != 42 {
		t.Errorf("Expected deploy id 42, got %d", finishedID)
	}
	if finishedMsg == "" {
		t.Error("Expected a human-readable finish message")
	}
}

func TestWebDeploy_SyncFailureSkipsSentinelAndCallback(t *testing.T) {
	repo := testRepo("api")
	sentinel := filepath.Join(t.TempDir(), "api.restart")
	syncer := &fakeSyncer{err: &gitsync.FetchError{Repo: "api", Ref: "master", Err: errors.New("exit status 128")}}

	cfg := NewWebConfiguration(repo, "master", true, sentinel, nil, syncer, testLogger())

	called := false
	_, err := cfg.Deploy(context.Background(), 42, "abc123", func(int64, string, Configuration) {
		called = true
	})

	var fetchErr *gitsync.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected fetch error to propagate, got %v", err)
	}
	if called {
		t.Error("onFinished must not be called after a failed sync")
	}
	if _, err := os.Stat(sentinel); !os.IsNotExist(err) {
		t.Error("Sentinel must not be touched after a failed sync")
	}
}

func TestWebDeploy_RunsRestartCommands(t *testing.T) {
	repo := testRepo("api")
	repo.LocalPath = t.TempDir()
	sentinel := filepath.Join(t.TempDir(), "api.restart")
	marker := filepath.Join(t.TempDir(), "ran")

	cfg := NewWebConfiguration(repo, "master", true, sentinel,
		[][]string{{"touch", marker}}, &fakeSyncer{}, testLogger())

	if _, err := cfg.Deploy(context.Background(), 1, "abc", func(int64, string, Configuration) {}); err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}

	if _, err := os.Stat(marker); err != nil {
		t.Errorf("Restart command did not run: %v", err)
	}
}
