package versions

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// MoveFunc places a staged file under its final name in the permanent
// deploy path. It runs inside the publish transaction so a failed move
// rolls back the records.
type MoveFunc func(src, finalName string) error

// Store persists featured-mod version records in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (and if needed initializes) the version database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS mod_files (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			mod TEXT NOT NULL,
			file_id INTEGER NOT NULL,
			version INTEGER NOT NULL,
			md5 TEXT NOT NULL,
			name TEXT NOT NULL,
			published_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	_, err = s.db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_mod_file_version
		ON mod_files(mod, file_id, version)
	`)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// FilesForVersion returns the records published for one version of a
// featured mod. An empty slice means the version has not been deployed.
func (s *Store) FilesForVersion(ctx context.Context, mod string, version int) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mod, file_id, version, md5, name, published_at
		FROM mod_files
		WHERE mod = ? AND version = ?
		ORDER BY file_id
	`, mod, version)
	if err != nil {
		return nil, fmt.Errorf("failed to query version files: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// RecentFiles returns the most recently published records for a featured mod.
func (s *Store) RecentFiles(ctx context.Context, mod string, limit int) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mod, file_id, version, md5, name, published_at
		FROM mod_files
		WHERE mod = ?
		ORDER BY id DESC
		LIMIT ?
	`, mod, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent files: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// Publish records one built version of a featured mod. Within a single
// transaction it deletes prior records for the version when override is
// set, moves every staged file to its final name via move, and inserts
// one record per file. Readers never observe the version half-replaced.
func (s *Store) Publish(ctx context.Context, mod string, version int, files []StagedFile, finalName func(StagedFile) string, override bool, move MoveFunc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if override {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM mod_files WHERE mod = ? AND version = ?
		`, mod, version); err != nil {
			return fmt.Errorf("failed to delete prior records: %w", err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, file := range files {
		name := finalName(file)
		if err := move(file.Path, name); err != nil {
			return fmt.Errorf("failed to move %s into deploy path: %w", file.Name, err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO mod_files (mod, file_id, version, md5, name, published_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, mod, file.FileID, version, file.MD5, name, now); err != nil {
			return fmt.Errorf("failed to insert record for %s: %w", file.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit publish transaction: %w", err)
	}
	return nil
}

func collectRecords(rows *sql.Rows) ([]FileRecord, error) {
	var records []FileRecord
	for rows.Next() {
		var record FileRecord
		var publishedAt string

		if err := rows.Scan(
			&record.ID,
			&record.Mod,
			&record.FileID,
			&record.Version,
			&record.MD5,
			&record.Name,
			&publishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		ts, err := time.Parse(time.RFC3339, publishedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse published_at timestamp: %w", err)
		}
		record.PublishedAt = ts

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return records, nil
}
