// Package state persists completed run summaries to sqlite so clients
// can fetch results after the event stream has ended.
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a run ID has no stored summary.
var ErrNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	summary    BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
`

// RunRecord is one stored run listing entry.
type RunRecord struct {
	// ID is the run identifier.
	ID string `json:"id"`
	// CreatedAt is when the run completed.
	CreatedAt time.Time `json:"createdAt"`
}

// Store persists run summaries in sqlite.
type Store struct {
	db *sql.DB
}

// Open creates or opens the store at path. Parent directories are
// created as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Put stores the JSON summary blob for a completed run.
func (s *Store) Put(ctx context.Context, runID string, summary []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO runs (id, created_at, summary) VALUES (?, ?, ?)",
		runID, time.Now().UTC().Format(time.RFC3339Nano), summary)
	if err != nil {
		return fmt.Errorf("store run %s: %w", runID, err)
	}
	return nil
}

// Get returns the stored summary blob for a run.
func (s *Store) Get(ctx context.Context, runID string) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, "SELECT summary FROM runs WHERE id = ?", runID).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	return blob, nil
}

// List returns the most recent run records, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, created_at FROM runs ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var created string
		if err := rows.Scan(&rec.ID, &created); err != nil {
			return nil, fmt.Errorf("scan run record: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			rec.CreatedAt = t
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
