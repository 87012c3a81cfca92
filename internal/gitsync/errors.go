package gitsync

import "fmt"

// CloneError reports a failed clone of a repository that had no local
// working copy yet.
type CloneError struct {
	Repo   string
	Output string
	Err    error
}

func (e *CloneError) Error() string {
	return fmt.Sprintf("git clone of %s failed: %v", e.Repo, e.Err)
}

func (e *CloneError) Unwrap() error { return e.Err }

// FetchError reports a failed fetch of a ref into an existing working copy.
type FetchError struct {
	Repo   string
	Ref    string
	Output string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("git fetch of %s (ref %s) failed: %v", e.Repo, e.Ref, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// CheckoutError reports either a failed force-checkout or an integrity
// mismatch between the checked-out commit and the commit the caller
// expected to deploy.
type CheckoutError struct {
	Repo     string
	Ref      string
	Expected string
	Actual   string
	Output   string
	Err      error
}

func (e *CheckoutError) Error() string {
	if e.Expected != "" && e.Actual != "" {
		return fmt.Sprintf("git checkout of %s (ref %s) produced commit %s, expected %s",
			e.Repo, e.Ref, e.Actual, e.Expected)
	}
	return fmt.Sprintf("git checkout of %s (ref %s) failed: %v", e.Repo, e.Ref, e.Err)
}

func (e *CheckoutError) Unwrap() error { return e.Err }
