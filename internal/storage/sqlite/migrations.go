package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aeonmind/mcore/internal/mcerrors"
	"github.com/aeonmind/mcore/internal/storage/sqlite/migrations"
)

// migration is a single forward-only, idempotent schema step applied after
// the baseline schema. Adapted from the teacher's ordered migrationsList +
// EXCLUSIVE-transaction runner (internal/storage/sqlite/migrations.go),
// simplified: this schema is young enough that "migrations" only need to
// run for changes introduced after the baseline, gated by
// memory_schema_version instead of per-column existence probing.
type migration struct {
	name string
	fn   func(*sql.Tx) error
}

var migrationsList = []migration{
	{"retrieval_docs_reliability_backfill", migrations.BackfillReliabilityDefault},
}

// runMigrations applies every migration in migrationsList not yet recorded
// in memory_schema_version, inside a single transaction opened with default
// sql.TxOptions (cross-process safety comes from migrateLocked's file
// lock), adapted from the teacher's migration pattern (GH#720 in the
// teacher's history).
func (db *DB) runMigrations(ctx context.Context) error {
	applied, err := db.appliedMigrationCount(ctx)
	if err != nil {
		return fmt.Errorf("%w: read schema version: %v", mcerrors.ErrMigration, err)
	}
	if applied >= len(migrationsList) {
		return nil
	}

	if _, err := db.conn.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("%w: disable foreign_keys: %v", mcerrors.ErrMigration, err)
	}
	defer func() { _, _ = db.conn.ExecContext(ctx, "PRAGMA foreign_keys = ON") }()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin migration tx: %v", mcerrors.ErrMigration, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	for i := applied; i < len(migrationsList); i++ {
		m := migrationsList[i]
		if err := m.fn(tx); err != nil {
			return fmt.Errorf("%w: migration %s: %v", mcerrors.ErrMigration, m.name, err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM memory_schema_version"); err != nil {
		return fmt.Errorf("%w: clear schema version: %v", mcerrors.ErrMigration, err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO memory_schema_version(version) VALUES (?)", len(migrationsList)); err != nil {
		return fmt.Errorf("%w: write schema version: %v", mcerrors.ErrMigration, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit migrations: %v", mcerrors.ErrMigration, err)
	}
	committed = true
	return nil
}

func (db *DB) appliedMigrationCount(ctx context.Context) (int, error) {
	var version int
	err := db.conn.QueryRowContext(ctx, "SELECT version FROM memory_schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}
