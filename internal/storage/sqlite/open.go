// Package sqlite implements storage.Backend on top of SQLite via the
// pure-Go ncruces/go-sqlite3 driver (no cgo), the same driver and
// registration idiom used throughout the teacher codebase.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gofrs/flock"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/aeonmind/mcore/internal/mcerrors"
	"github.com/aeonmind/mcore/internal/retention"
)

// DB wraps a *sql.DB with the schema and migrations applied, implementing
// the operations storage.Backend needs; *DB itself satisfies
// storage.Backend.
type DB struct {
	conn          *sql.DB
	path          string
	retentionDays retention.Days
}

// Option configures a DB at Open time.
type Option func(*DB)

// WithRetentionDays sets the per-layer TTL configuration (spec §6
// layer_retention_{layer}_days) that AppendEvent/AppendInferenceEvent pass
// to retention.Derive. Callers that omit this option get the zero value,
// meaning every layer is treated as non-expiring.
func WithRetentionDays(d retention.Days) Option {
	return func(db *DB) { db.retentionDays = d }
}

// Open connects to the SQLite database at path (":memory:" for an
// in-process, non-persistent instance), applies PRAGMAs for single-writer
// WAL behavior, runs migrations, and returns the ready handle.
func Open(ctx context.Context, path string, opts ...Option) (*DB, error) {
	connStr := path
	if path != ":memory:" {
		connStr = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	}

	conn, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", mcerrors.ErrStoreUnavailable, path, err)
	}
	// SQLite tolerates exactly one writer; a single pooled connection avoids
	// SQLITE_BUSY under the Go connection pool's default concurrency.
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := conn.ExecContext(ctx, p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("%w: %s: %v", mcerrors.ErrStoreUnavailable, p, err)
		}
	}

	if _, err := conn.ExecContext(ctx, schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: apply schema: %v", mcerrors.ErrMigration, err)
	}

	db := &DB{conn: conn, path: path}
	for _, opt := range opts {
		opt(db)
	}
	if err := db.migrateLocked(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// migrateLocked serializes runMigrations across processes sharing the same
// on-disk database via an advisory gofrs/flock file lock (spec §9
// "single-writer safety"). In-memory databases never share a path across
// processes, so locking is skipped for them.
func (db *DB) migrateLocked(ctx context.Context) error {
	if db.path == ":memory:" {
		return db.runMigrations(ctx)
	}

	lock := flock.New(db.path + ".migrate.lock")
	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil || !locked {
		return fmt.Errorf("%w: acquire migration lock: %v", mcerrors.ErrMigration, err)
	}
	defer lock.Unlock()

	return db.runMigrations(ctx)
}

// HealthCheck confirms the connection can still round-trip a query.
func (db *DB) HealthCheck(ctx context.Context) error {
	deadline, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := db.conn.PingContext(deadline); err != nil {
		return fmt.Errorf("%w: %v", mcerrors.ErrStoreUnavailable, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}
