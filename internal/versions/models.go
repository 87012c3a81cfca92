package versions

import "time"

// FileRecord is one published file of a featured-mod version.
type FileRecord struct {
	ID          int64     `json:"id"`
	Mod         string    `json:"mod"`
	FileID      int       `json:"file_id"`
	Version     int       `json:"version"`
	MD5         string    `json:"md5"`
	Name        string    `json:"name"`
	PublishedAt time.Time `json:"published_at"`
}

// StagedFile is a built file waiting to be moved into the permanent
// deploy path and recorded.
type StagedFile struct {
	// FileID is the stable identifier the record is keyed by.
	FileID int

	// Path is the staged location of the file.
	Path string

	// Name is the original filename; the final name is derived from it
	// plus the version and configured extension.
	Name string

	// MD5 is the hex-encoded checksum of the staged file.
	MD5 string
}
