package gitsync

// Repository identifies a syncable remote repository and its local
// working copy. Instances are immutable after construction; several
// deployment configurations may share one repository.
type Repository struct {
	// URL is the remote clone URL.
	URL string

	// Name is the logical repository name as reported by webhook payloads.
	Name string

	// LocalPath is the absolute path of the local working copy.
	LocalPath string
}
