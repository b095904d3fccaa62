// Package dedupe provides an optional local idempotency log for feedback
// submissions, keyed by (rater, response message). The feedback channel scan
// remains the authority when the log is absent; when present the log answers
// first and avoids re-reading channel history for repeat clicks.
package dedupe

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// retention is how long a feedback key blocks repeat submissions.
const retention = 30 * 24 * time.Hour

// Store is an append-only feedback idempotency log backed by SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the log at the given path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening feedback log: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging feedback log: %w", err)
	}

	s := &Store{db: sqlDB, now: time.Now}
	if err := s.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// OpenMemory creates an in-memory log (useful for testing).
func OpenMemory() (*Store, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory feedback log: %w", err)
	}
	s := &Store{db: sqlDB, now: time.Now}
	if err := s.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS feedback_keys (
			rater_id     TEXT NOT NULL,
			response_ref TEXT NOT NULL,
			created_at   INTEGER NOT NULL,
			expires_at   INTEGER NOT NULL,
			PRIMARY KEY (rater_id, response_ref)
		);
		CREATE INDEX IF NOT EXISTS idx_feedback_keys_expires ON feedback_keys(expires_at);
	`)
	return err
}

// Seen reports whether the rater already recorded feedback for the response.
func (s *Store) Seen(ctx context.Context, raterID, responseRef string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM feedback_keys WHERE rater_id = ? AND response_ref = ? AND expires_at > ?`,
		raterID, responseRef, s.now().Unix(),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("querying feedback log: %w", err)
	}
	return count > 0, nil
}

// Mark records that the rater submitted feedback for the response. Marking
// the same pair twice is a no-op.
func (s *Store) Mark(ctx context.Context, raterID, responseRef string) error {
	now := s.now()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO feedback_keys (rater_id, response_ref, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		raterID, responseRef, now.Unix(), now.Add(retention).Unix(),
	)
	if err != nil {
		return fmt.Errorf("writing feedback log: %w", err)
	}
	return nil
}

// Sweep deletes expired keys.
func (s *Store) Sweep(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM feedback_keys WHERE expires_at <= ?`, s.now().Unix())
	if err != nil {
		return fmt.Errorf("sweeping feedback log: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
