// Package handoff passes a generate result set from the interactive
// program to the QR gallery command. Entries live in a small SQLite file,
// expire after a TTL and can be taken exactly once.
package handoff

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"svlink/internal/link"
	"svlink/internal/logging"
)

// ErrNotFound is returned for unknown, expired or already taken ids.
var ErrNotFound = errors.New("handoff not found or expired")

// Store is a TTL-bounded, single-use result store.
type Store struct {
	db  *sql.DB
	mu  sync.Mutex
	ttl time.Duration
	now func() time.Time
}

// Open creates or opens the store at path.
func Open(path string, ttl time.Duration) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	s := &Store{db: db, ttl: ttl, now: time.Now}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS handoff (
		id TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_handoff_expires ON handoff(expires_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create handoff table: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores results under a fresh id.
func (s *Store) Put(ctx context.Context, results []link.BatchResult) (string, error) {
	if len(results) == 0 {
		return "", link.ErrNothingToExport
	}
	payload, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("failed to encode results: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	now := s.now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO handoff (id, payload, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		id, string(payload), now.UnixNano(), now.Add(s.ttl).UnixNano())
	if err != nil {
		return "", fmt.Errorf("failed to store handoff: %w", err)
	}
	logging.Handoff("stored %d results as %s (ttl %v)", len(results), id, s.ttl)
	return id, nil
}

// Take returns and deletes the results stored under id.
func (s *Store) Take(ctx context.Context, id string) ([]link.BatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var payload string
	var expires int64
	err = tx.QueryRowContext(ctx, `SELECT payload, expires_at FROM handoff WHERE id = ?`, id).Scan(&payload, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read handoff: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM handoff WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("failed to delete handoff: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	if s.now().UnixNano() >= expires {
		logging.HandoffWarn("handoff %s expired", id)
		return nil, ErrNotFound
	}

	var results []link.BatchResult
	if err := json.Unmarshal([]byte(payload), &results); err != nil {
		return nil, fmt.Errorf("failed to decode handoff: %w", err)
	}
	return results, nil
}

// Sweep deletes expired entries and returns how many were removed.
func (s *Store) Sweep(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM handoff WHERE expires_at <= ?`, s.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep handoffs: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		logging.Handoff("swept %d expired handoffs", n)
	}
	return n, nil
}
