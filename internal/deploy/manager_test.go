package deploy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func pushBody(repoName, repoURL, ref, message string, distinct bool) []byte {
	return []byte(fmt.Sprintf(`{
		"ref": %q,
		"repository": {"name": %q, "url": %q},
		"head_commit": {"id": "abc123", "message": %q, "distinct": %v}
	}`, ref, repoName, repoURL, message, distinct))
}

func deploymentBody(repoName, repoURL string, id int64, ref, sha, environment string) []byte {
	return []byte(fmt.Sprintf(`{
		"repository": {"name": %q, "url": %q},
		"deployment": {"id": %d, "ref": %q, "sha": %q, "environment": %q}
	}`, repoName, repoURL, id, ref, sha, environment))
}

func newTestManager(t *testing.T, configs []Configuration) (*Manager, *fakeStatus, *fakeChat) {
	t.Helper()
	status := &fakeStatus{}
	chat := &fakeChat{}
	return NewManager("testing", configs, status, chat, testLogger()), status, chat
}

func webConfig(t *testing.T, name, branch string, autodeploy bool) (*WebConfiguration, *fakeSyncer, string) {
	t.Helper()
	repo := testRepo(name)
	sentinel := filepath.Join(t.TempDir(), name+".restart")
	syncer := &fakeSyncer{}
	return NewWebConfiguration(repo, branch, autodeploy, sentinel, nil, syncer, testLogger()), syncer, sentinel
}

func TestHandleEvent_IgnoresUnknownEventType(t *testing.T) {
	m, status, _ := newTestManager(t, nil)

	outcome, err := m.HandleEvent(context.Background(), "issues", []byte(`{}`))
	if err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}
	if outcome.Invoked {
		t.Error("Ignored event must not be invoked")
	}
	if !strings.Contains(outcome.Status, "issues") {
		t.Errorf("Status should name the ignored event, got %q", outcome.Status)
	}
	if len(status.creates) != 0 {
		t.Error("No deployment record may be created for an ignored event")
	}
}

func TestHandlePush_NonDistinctCommitIgnored(t *testing.T) {
	cfg, _, _ := webConfig(t, "api", "master", true)
	m, status, _ := newTestManager(t, []Configuration{cfg})

	body := pushBody("api", cfg.Repository().URL, "refs/heads/master", "fix things", false)
	outcome, err := m.HandleEvent(context.Background(), EventPush, body)
	if err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}
	if outcome.Invoked {
		t.Error("Duplicate commit must be a no-op")
	}
	if !strings.Contains(outcome.Status, "already known") {
		t.Errorf("Expected 'already known' status, got %q", outcome.Status)
	}
	if len(status.creates) != 0 {
		t.Error("No deployment record may be created for a duplicate commit")
	}
}

func TestHandlePush_NoMatchingConfiguration(t *testing.T) {
	cfg, _, _ := webConfig(t, "api", "master", true)
	m, status, _ := newTestManager(t, []Configuration{cfg})

	body := pushBody("other", "https://example.com/other.git", "refs/heads/master", "msg", true)
	outcome, err := m.HandleEvent(context.Background(), EventPush, body)
	if err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}
	if outcome.Invoked {
		t.Error("Unmatched push must be a no-op")
	}
	if !strings.Contains(outcome.Status, "no matching configuration") {
		t.Errorf("Expected no-match status, got %q", outcome.Status)
	}
	if len(status.creates) != 0 {
		t.Error("No external call may happen without a matching configuration")
	}
}

func TestHandlePush_AmbiguousConfiguration(t *testing.T) {
	a, syncerA, _ := webConfig(t, "api", "master", true)
	b := NewWebConfiguration(a.Repository(), "master", false, "/tmp/other.restart", nil, &fakeSyncer{}, testLogger())
	m, status, _ := newTestManager(t, []Configuration{a, b})

	// Forced, so both the autodeploy and the gated configuration match.
	body := pushBody("api", a.Repository().URL, "refs/heads/master", "Deploy: testing", true)
	_, err := m.HandleEvent(context.Background(), EventPush, body)

	var ambiguous *AmbiguousConfigurationError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("Expected ambiguous configuration error, got %v", err)
	}
	if ambiguous.RepoName != "api" || ambiguous.Branch != "master" {
		t.Errorf("Error should name the conflict, got %+v", ambiguous)
	}
	if len(status.creates) != 0 {
		t.Error("No deployment record may be created for an ambiguous match")
	}
	if syncerA.callCount() != 0 {
		t.Error("No configuration may execute for an ambiguous match")
	}
}

// Scenario: push with a manual override marker registers a deployment for
// the named environment; the local execution waits for the callback.
func TestHandlePush_ManualOverrideCreatesDeployment(t *testing.T) {
	cfg, syncer, _ := webConfig(t, "api", "master", false)
	m, status, _ := newTestManager(t, []Configuration{cfg})

	body := pushBody("api", cfg.Repository().URL, "refs/heads/master", "Deploy: testing", true)
	outcome, err := m.HandleEvent(context.Background(), EventPush, body)
	if err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	if !outcome.Invoked || outcome.Status != "deployment invoked" {
		t.Errorf("Expected invoked 'deployment invoked', got %+v", outcome)
	}
	if len(status.creates) != 1 {
		t.Fatalf("Expected 1 deployment record, got %d", len(status.creates))
	}
	create := status.creates[0]
	if create.Environment != "testing" {
		t.Errorf("Expected environment testing, got %q", create.Environment)
	}
	if create.Repo != "api" || create.Ref != "refs/heads/master" {
		t.Errorf("Unexpected create call: %+v", create)
	}

	// Phase one only: no sync yet.
	if syncer.callCount() != 0 {
		t.Error("Push handling must not execute the deployment")
	}
}

func TestHandlePush_AutodeployUsesDefaultEnvironment(t *testing.T) {
	cfg, _, _ := webConfig(t, "api", "master", true)
	m, status, _ := newTestManager(t, []Configuration{cfg})

	body := pushBody("api", cfg.Repository().URL, "refs/heads/master", "regular commit", true)
	if _, err := m.HandleEvent(context.Background(), EventPush, body); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	if len(status.creates) != 1 {
		t.Fatalf("Expected 1 deployment record, got %d", len(status.creates))
	}
	if status.creates[0].Environment != "testing" {
		t.Errorf("Expected manager's own environment, got %q", status.creates[0].Environment)
	}
}

func TestHandlePush_CreateFailurePropagates(t *testing.T) {
	cfg, _, _ := webConfig(t, "api", "master", true)
	m, status, _ := newTestManager(t, []Configuration{cfg})
	status.createErr = errors.New("host said no")

	body := pushBody("api", cfg.Repository().URL, "refs/heads/master", "msg", true)
	if _, err := m.HandleEvent(context.Background(), EventPush, body); err == nil {
		t.Fatal("Expected create failure to propagate")
	}
}

// Scenario: the host's deployment callback for this environment triggers
// the actual execution, the chat notification and the success status.
func TestHandleDeployment_ExecutesAndReports(t *testing.T) {
	cfg, syncer, sentinel := webConfig(t, "api", "master", false)
	m, status, chat := newTestManager(t, []Configuration{cfg})

	body := deploymentBody("api", cfg.Repository().URL, 42, "master", "abc123", "testing")
	outcome, err := m.HandleEvent(context.Background(), EventDeployment, body)
	if err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}
	if !outcome.Invoked || outcome.Status != "deployment started" {
		t.Errorf("Expected invoked 'deployment started', got %+v", outcome)
	}

	m.WaitForDeployments()

	if syncer.callCount() != 1 {
		t.Fatalf("Expected 1 sync, got %d", syncer.callCount())
	}
	if syncer.calls[0].SHA != "abc123" {
		t.Errorf("Expected sync to abc123, got %q", syncer.calls[0].SHA)
	}
	if _, err := os.Stat(sentinel); err != nil {
		t.Errorf("Sentinel not touched: %v", err)
	}

	msgs := chat.messages()
	if len(msgs) != 1 || !strings.HasPrefix(msgs[0], "[testing]") {
		t.Errorf("Expected environment-tagged chat message, got %v", msgs)
	}

	if len(status.statuses) != 1 {
		t.Fatalf("Expected 1 status report, got %d", len(status.statuses))
	}
	report := status.statuses[0]
	if report.DeploymentID != 42 || report.State != "success" || report.Repo != "api" {
		t.Errorf("Unexpected status report: %+v", report)
	}
}

// Scenario: a deployment event for another environment is skipped
// without any local effect.
func TestHandleDeployment_WrongEnvironmentSkipped(t *testing.T) {
	cfg, syncer, _ := webConfig(t, "api", "master", false)
	m, status, _ := newTestManager(t, []Configuration{cfg})

	body := deploymentBody("api", cfg.Repository().URL, 42, "master", "abc123", "production")
	outcome, err := m.HandleEvent(context.Background(), EventDeployment, body)
	if err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	if outcome.Invoked {
		t.Error("Wrong-environment deployment must be a no-op")
	}
	if !strings.Contains(outcome.Status, "wrong environment") {
		t.Errorf("Expected wrong-environment status, got %q", outcome.Status)
	}
	if syncer.callCount() != 0 {
		t.Error("No sync may happen for another environment")
	}
	if len(status.statuses) != 0 {
		t.Error("No status may be reported for a skipped deployment")
	}
}

func TestHandleDeployment_StripsRefsHeadsPrefix(t *testing.T) {
	cfg, _, _ := webConfig(t, "api", "master", false)
	m, _, _ := newTestManager(t, []Configuration{cfg})

	body := deploymentBody("api", cfg.Repository().URL, 42, "refs/heads/master", "abc123", "testing")
	outcome, err := m.HandleEvent(context.Background(), EventDeployment, body)
	if err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}
	if !outcome.Invoked {
		t.Errorf("Full ref must still match the configured branch, got %+v", outcome)
	}
	m.WaitForDeployments()
}

func TestHandleEvent_BadPayload(t *testing.T) {
	m, _, _ := newTestManager(t, nil)

	_, err := m.HandleEvent(context.Background(), EventPush, []byte(`not json`))
	if !errors.Is(err, ErrBadPayload) {
		t.Fatalf("Expected ErrBadPayload, got %v", err)
	}
}
