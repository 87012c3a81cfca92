package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// DeploymentCreateError reports that the deployment-status host rejected
// the creation of a deployment record. It carries the host's response
// body for diagnostics.
type DeploymentCreateError struct {
	Repo       string
	StatusCode int
	Body       string
}

func (e *DeploymentCreateError) Error() string {
	return fmt.Sprintf("deployment record for %s not created (status %d): %s",
		e.Repo, e.StatusCode, e.Body)
}

// GitHubReporter drives the GitHub Deployments API for one repository owner.
type GitHubReporter struct {
	client *github.Client
	owner  string
}

// NewGitHubReporter creates a reporter authenticated with token for
// repositories owned by owner.
func NewGitHubReporter(token, owner string) *GitHubReporter {
	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)

	return &GitHubReporter{
		client: github.NewClient(tc),
		owner:  owner,
	}
}

// CreateDeployment asks the host to create a deployment record for ref in
// environment. The host later delivers a corresponding deployment event;
// the actual local execution happens then, not here. Anything but a
// "created" response is an error.
func (g *GitHubReporter) CreateDeployment(ctx context.Context, repo, ref, environment, description string) (int64, error) {
	autoMerge := false
	req := &github.DeploymentRequest{
		Ref:              &ref,
		Environment:      &environment,
		Description:      &description,
		AutoMerge:        &autoMerge,
		RequiredContexts: &[]string{},
	}

	deployment, resp, err := g.client.Repositories.CreateDeployment(ctx, g.owner, repo, req)
	if err != nil {
		createErr := &DeploymentCreateError{Repo: repo, Body: err.Error()}
		if resp != nil {
			createErr.StatusCode = resp.StatusCode
		}
		return 0, createErr
	}
	if resp.StatusCode != http.StatusCreated {
		return 0, &DeploymentCreateError{Repo: repo, StatusCode: resp.StatusCode, Body: resp.Status}
	}
	if deployment.ID == nil {
		return 0, &DeploymentCreateError{Repo: repo, StatusCode: resp.StatusCode, Body: "response carried no deployment id"}
	}

	return *deployment.ID, nil
}

// CreateDeploymentStatus reports the state of a deployment back to the
// host. Fire-and-forget beyond the error return.
func (g *GitHubReporter) CreateDeploymentStatus(ctx context.Context, repo string, deploymentID int64, state, description string) error {
	req := &github.DeploymentStatusRequest{
		State:       &state,
		Description: &description,
	}

	_, _, err := g.client.Repositories.CreateDeploymentStatus(ctx, g.owner, repo, deploymentID, req)
	if err != nil {
		return fmt.Errorf("creating deployment status: %w", err)
	}
	return nil
}

// ListDeployments returns the host's deployment records for repo.
func (g *GitHubReporter) ListDeployments(ctx context.Context, repo string) ([]*github.Deployment, error) {
	deployments, _, err := g.client.Repositories.ListDeployments(ctx, g.owner, repo, nil)
	if err != nil {
		return nil, fmt.Errorf("listing deployments: %w", err)
	}
	return deployments, nil
}
