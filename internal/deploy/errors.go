package deploy

import (
	"errors"
	"fmt"
)

// ErrBadPayload marks an event body that could not be decoded.
var ErrBadPayload = errors.New("bad event payload")

// AmbiguousConfigurationError reports that more than one registered
// configuration matched an inbound event. This is operator error: the
// manager never silently picks one, because that would risk a
// nondeterministic or double deployment.
type AmbiguousConfigurationError struct {
	RepoName string
	Branch   string
	Count    int
}

func (e *AmbiguousConfigurationError) Error() string {
	return fmt.Sprintf("%d configurations match %s branch %s; deployment routing must be unambiguous",
		e.Count, e.RepoName, e.Branch)
}
