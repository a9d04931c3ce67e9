// Package migrations holds individual forward-only migration functions run
// by the sqlite backend's migration gate, one file per concern, following
// the teacher's internal/storage/sqlite/migrations layout.
package migrations

import "database/sql"

// BackfillReliabilityDefault sets reliability to match importance for any
// pre-existing retrieval_docs rows written before reliability was a
// distinct tracked field, so older rows don't rank as if wholly
// unreliable (reliability=0) once the ranker starts consuming the column.
// Runs against the caller's migration transaction, not a fresh connection,
// since the pool's single connection is already checked out by it.
func BackfillReliabilityDefault(tx *sql.Tx) error {
	_, err := tx.Exec(`UPDATE retrieval_docs SET reliability = importance WHERE reliability = 0 AND importance > 0`)
	return err
}
