package sqlite

import "github.com/aeonmind/mcore/internal/storage"

// Name identifies this backend variant (spec §6 backend: {sqlite, markdown}).
func (db *DB) Name() string { return "sqlite" }

var _ storage.Backend = (*DB)(nil)
