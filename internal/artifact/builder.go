package artifact

import (
	"archive/zip"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"moddeploy/pkg/fileutil"
)

// File is one built output staged for publication.
type File struct {
	// ID is the stable file identifier the version records are keyed by.
	ID int

	// Name is the original output filename (before version stamping).
	Name string

	// Path is the staged location of the built file.
	Path string

	// MD5 is the hex-encoded checksum of the built file.
	MD5 string
}

// Builder turns a checked-out repository tree into a set of versioned
// output files in a staging directory.
type Builder interface {
	Build(ctx context.Context, checkoutDir, stagingDir string, version int) ([]File, error)
}

// ZipBuilder packages configured source directories of a checkout into
// one zip archive each.
type ZipBuilder struct {
	// FileIDs maps a source directory name inside the checkout to the
	// file identifier its archive is recorded under.
	FileIDs map[string]int
}

// NewZipBuilder creates a builder for the given directory-to-file-id mapping.
func NewZipBuilder(fileIDs map[string]int) *ZipBuilder {
	return &ZipBuilder{FileIDs: fileIDs}
}

// Build zips every mapped directory from checkoutDir into stagingDir.
// A mapped directory missing from the checkout aborts the build; no
// partial output set is returned.
func (b *ZipBuilder) Build(ctx context.Context, checkoutDir, stagingDir string, version int) ([]File, error) {
	// Deterministic build order.
	dirs := make([]string, 0, len(b.FileIDs))
	for dir := range b.FileIDs {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	files := make([]File, 0, len(dirs))
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		srcDir := filepath.Join(checkoutDir, dir)
		if !fileutil.DirExists(srcDir) {
			return nil, fmt.Errorf("source directory %q not found in checkout", dir)
		}

		name := dir + ".zip"
		staged := filepath.Join(stagingDir, name)
		if err := zipDirectory(srcDir, staged); err != nil {
			return nil, fmt.Errorf("failed to package %q: %w", dir, err)
		}

		sum, err := checksum(staged)
		if err != nil {
			return nil, err
		}

		files = append(files, File{
			ID:   b.FileIDs[dir],
			Name: name,
			Path: staged,
			MD5:  sum,
		})
	}

	return files, nil
}

// zipDirectory writes every regular file under srcDir into a zip archive
// at dst, with paths relative to srcDir.
func zipDirectory(srcDir, dst string) error {
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	err = filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}

		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}

		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()

		_, err = io.Copy(w, in)
		return err
	})
	if err != nil {
		zw.Close()
		return err
	}

	if err := zw.Close(); err != nil {
		return err
	}
	return out.Close()
}

// Checksum returns the hex-encoded md5 of the file at path.
func Checksum(path string) (string, error) {
	return checksum(path)
}

func checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s for checksum: %w", path, err)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to checksum %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
