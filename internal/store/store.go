// Package store is gemsieve's embedded persistent store (§4.1 Store &
// schema). It wraps a single modernc.org/sqlite-backed *sql.DB, applies an
// additive migration registry on open, and enforces the single-writer /
// concurrent-reader discipline spec §4.1 and §5 require.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps the embedded database connection.
type Store struct {
	db *sql.DB
}

// Open creates (if needed) and opens the sqlite file at path, enables
// foreign keys and WAL journaling, and runs the migration registry.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// Single writer contract (§4.1): serialize writers at the connection-pool
	// level so concurrent stage jobs don't produce SQLITE_BUSY storms beyond
	// what the busy_timeout pragma already smooths over.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	s := &Store{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// OpenMemory opens an in-process, throwaway database — used by tests that
// want real SQL semantics without a fixture file.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", "file::memory:?cache=shared&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open memory store: %w", err)
	}
	db.SetMaxOpenConns(1)
	s := &Store{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// DB exposes the underlying handle for packages (tests, CLI db-stats) that
// need raw access beyond the typed repository methods.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the underlying connection.
func (s *Store) Close() error { return s.db.Close() }

// withRetry runs fn, retrying on a transient SQLITE_BUSY/locked error with
// short backoff, per §4.1 "bounded wait" and §5 "tolerate transient lock
// contention with bounded retry".
func withRetry(ctx context.Context, fn func() error) error {
	const maxAttempts = 5
	backoff := 20 * time.Millisecond
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isBusyErr(lastErr) {
			return lastErr
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return lastErr
}

func isBusyErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "locked") || strings.Contains(msg, "busy")
}

// WithTx runs fn inside a transaction, retrying the whole transaction on
// transient lock contention, and rolling back on any other error so a
// batch never partially commits (§5 "Invariant violation ... roll back").
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return withRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				log.Printf("[store] rollback after error also failed: %v", rbErr)
			}
			return err
		}
		return tx.Commit()
	})
}

// ErrNotFound is returned by single-row lookups that match no row.
var ErrNotFound = errors.New("store: not found")
