package deploy

import "strings"

// Webhook event names this manager understands.
const (
	EventPush       = "push"
	EventDeployment = "deployment"
)

type repositoryInfo struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// pushEvent is the subset of a push webhook payload the manager consumes.
type pushEvent struct {
	Ref        string         `json:"ref"`
	Repository repositoryInfo `json:"repository"`
	HeadCommit struct {
		ID       string `json:"id"`
		Message  string `json:"message"`
		Distinct bool   `json:"distinct"`
	} `json:"head_commit"`
}

// deploymentEvent is the host's deployment-record callback payload.
type deploymentEvent struct {
	Repository repositoryInfo `json:"repository"`
	Deployment struct {
		ID          int64  `json:"id"`
		Ref         string `json:"ref"`
		SHA         string `json:"sha"`
		Environment string `json:"environment"`
		Description string `json:"description"`
	} `json:"deployment"`
}

// branchFromRef strips the refs/heads/ prefix from a git ref. Deployment
// events usually carry a bare branch name already.
func branchFromRef(ref string) string {
	return strings.TrimPrefix(ref, "refs/heads/")
}
