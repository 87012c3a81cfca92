package deploy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
)

// deployOverride matches a manual deployment marker in a commit message,
// e.g. "Deploy: testing". Such a push is forced into the named
// environment, bypassing the autodeploy gate.
var deployOverride = regexp.MustCompile(`Deploy:\s*(\w+)`)

// Outcome is the manager's answer to one inbound webhook event.
type Outcome struct {
	// Invoked is true when an action was taken (HTTP 201); false for
	// benign no-ops (HTTP 200).
	Invoked bool

	// Status is the human-readable status string returned to the sender.
	Status string
}

func noop(format string, args ...any) (*Outcome, error) {
	return &Outcome{Status: fmt.Sprintf(format, args...)}, nil
}

// Manager routes inbound webhook events to registered deployment
// configurations and reports outcomes to the status host and chat. The
// configuration list is fixed at construction; after startup the manager
// is read-only except for in-flight deployment tracking.
type Manager struct {
	environment string
	configs     []Configuration
	status      StatusReporter
	chat        ChatSender
	logger      *slog.Logger
	deployWg    sync.WaitGroup
}

// NewManager creates a manager for environment with an immutable
// configuration list.
func NewManager(environment string, configs []Configuration, status StatusReporter, chat ChatSender, logger *slog.Logger) *Manager {
	return &Manager{
		environment: environment,
		configs:     configs,
		status:      status,
		chat:        chat,
		logger:      logger,
	}
}

// Environment returns the environment this manager instance serves.
func (m *Manager) Environment() string { return m.environment }

// ConfigurationCount returns the number of registered configurations.
func (m *Manager) ConfigurationCount() int { return len(m.configs) }

// WaitForDeployments blocks until all in-flight deployments terminated.
// Used by graceful shutdown and tests.
func (m *Manager) WaitForDeployments() {
	m.deployWg.Wait()
}

// HandleEvent classifies a verified webhook event, selects the matching
// configuration and either registers a deployment with the status host
// (push) or executes it (deployment event for this environment).
func (m *Manager) HandleEvent(ctx context.Context, eventType string, body []byte) (*Outcome, error) {
	switch eventType {
	case EventPush:
		return m.handlePush(ctx, body)
	case EventDeployment:
		return m.handleDeployment(ctx, body)
	default:
		return noop("ignoring %s event", eventType)
	}
}

func (m *Manager) handlePush(ctx context.Context, body []byte) (*Outcome, error) {
	var ev pushEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("%w: push: %v", ErrBadPayload, err)
	}

	// A non-distinct head commit was already delivered by an earlier
	// webhook; deploying it again would be a duplicate.
	if !ev.HeadCommit.Distinct {
		return noop("commit %s already known", ev.HeadCommit.ID)
	}

	branch := branchFromRef(ev.Ref)

	environment := m.environment
	forced := false
	if match := deployOverride.FindStringSubmatch(ev.HeadCommit.Message); match != nil {
		environment = match[1]
		forced = true
	}

	cfg, outcome, err := m.match(ev.Repository.URL, ev.Repository.Name, branch, forced)
	if err != nil || outcome != nil {
		return outcome, err
	}

	// Phase one of the two-phase protocol: only register the deployment
	// with the host. Execution happens when the host calls back with the
	// corresponding deployment event.
	id, err := m.status.CreateDeployment(ctx, ev.Repository.Name, ev.Ref, environment, ev.HeadCommit.Message)
	if err != nil {
		return nil, err
	}

	m.logger.Info("deployment record created",
		"configuration", cfg.Name(),
		"deploy_id", id,
		"environment", environment,
		"forced", forced)

	return &Outcome{Invoked: true, Status: "deployment invoked"}, nil
}

func (m *Manager) handleDeployment(ctx context.Context, body []byte) (*Outcome, error) {
	var ev deploymentEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("%w: deployment: %v", ErrBadPayload, err)
	}

	branch := branchFromRef(ev.Deployment.Ref)

	// Explicit deployment requests bypass the autodeploy gate.
	cfg, outcome, err := m.match(ev.Repository.URL, ev.Repository.Name, branch, true)
	if err != nil || outcome != nil {
		return outcome, err
	}

	// Another manager instance serves that environment.
	if ev.Deployment.Environment != m.environment {
		return noop("skipped due to wrong environment %s", ev.Deployment.Environment)
	}

	handle, err := cfg.Deploy(ctx, ev.Deployment.ID, ev.Deployment.SHA, m.onDeploymentFinished)
	if err != nil {
		return nil, fmt.Errorf("deployment of %s: %w", cfg.Name(), err)
	}

	m.deployWg.Add(1)
	go func() {
		defer m.deployWg.Done()
		if err := handle.Wait(); err != nil {
			m.logger.Error("deployment failed",
				"configuration", cfg.Name(),
				"deploy_id", ev.Deployment.ID,
				"error", err)
		}
	}()

	return &Outcome{Invoked: true, Status: "deployment started"}, nil
}

// match filters the registered configurations. Zero matches is a benign
// no-op; more than one is a configuration error.
func (m *Manager) match(repoURL, repoName, branch string, force bool) (Configuration, *Outcome, error) {
	var matched []Configuration
	for _, cfg := range m.configs {
		if cfg.Matches(repoURL, repoName, branch, force) {
			matched = append(matched, cfg)
		}
	}

	switch len(matched) {
	case 0:
		outcome, _ := noop("no matching configuration for %s branch %s", repoName, branch)
		return nil, outcome, nil
	case 1:
		return matched[0], nil, nil
	default:
		return nil, nil, &AmbiguousConfigurationError{RepoName: repoName, Branch: branch, Count: len(matched)}
	}
}

// onDeploymentFinished fires once per completed deployment, possibly
// long after the triggering request returned. It notifies chat and
// reports success back to the status host.
func (m *Manager) onDeploymentFinished(deployID int64, message string, cfg Configuration) {
	ctx := context.Background()

	if err := m.chat.Send(ctx, fmt.Sprintf("[%s] %s", m.environment, message)); err != nil {
		m.logger.Error("failed to send chat notification",
			"configuration", cfg.Name(), "deploy_id", deployID, "error", err)
	}

	if err := m.status.CreateDeploymentStatus(ctx, cfg.Repository().Name, deployID, "success", message); err != nil {
		m.logger.Error("failed to report deployment status",
			"configuration", cfg.Name(), "deploy_id", deployID, "error", err)
	}
}
