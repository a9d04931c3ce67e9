package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/aeonmind/mcore/internal/mcerrors"
	"github.com/aeonmind/mcore/internal/types"
)

// expiredSlotRefs returns (entity_id, slot_key) pairs whose retrieval_docs
// row has a non-null retention_expires_at older than cutoff. onlyRejected
// selects already-archived rows (promotion_status = 'rejected', the purge
// pass's input) versus still-live rows (the archive pass's input), so a
// repeated sweep never reprocesses a row it already handled.
func (db *DB) expiredSlotRefs(ctx context.Context, cutoff time.Time, onlyRejected bool) ([]slotRef, error) {
	cmp := "!="
	if onlyRejected {
		cmp = "="
	}
	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT entity_id, slot_key FROM retrieval_docs
		WHERE retention_expires_at IS NOT NULL
		  AND retention_expires_at < ?
		  AND promotion_status %s ?`, cmp),
		cutoff.UTC(), string(types.PromotionRejected))
	if err != nil {
		return nil, fmt.Errorf("%w: query expired slots: %v", mcerrors.ErrQuery, err)
	}
	defer rows.Close()

	var refs []slotRef
	for rows.Next() {
		var r slotRef
		if err := rows.Scan(&r.entityID, &r.slotKey); err != nil {
			return nil, fmt.Errorf("%w: scan expired slot: %v", mcerrors.ErrQuery, err)
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

type slotRef struct {
	entityID string
	slotKey  string
}

// ArchiveExpired soft-deletes every still-live slot whose retention window
// (relative to cutoff) has elapsed, implementing the hygiene daemon's
// archive_after_days tick (spec §6 archive_after_days).
func (db *DB) ArchiveExpired(ctx context.Context, cutoff time.Time) (int, error) {
	refs, err := db.expiredSlotRefs(ctx, cutoff, false)
	if err != nil {
		return 0, err
	}
	archived := 0
	for _, ref := range refs {
		if _, err := db.ForgetSlot(ctx, ref.entityID, ref.slotKey, types.ForgetSoft, "hygiene: archive_after_days expired", "hygiene-daemon"); err != nil {
			return archived, fmt.Errorf("archive %s/%s: %w", ref.entityID, ref.slotKey, err)
		}
		archived++
	}
	return archived, nil
}

// PurgeExpired hard-deletes every already-archived slot whose retention
// window (relative to the longer purge_after_days cutoff) has elapsed,
// implementing the hygiene daemon's purge tick (spec §6 purge_after_days).
func (db *DB) PurgeExpired(ctx context.Context, cutoff time.Time) (int, error) {
	refs, err := db.expiredSlotRefs(ctx, cutoff, true)
	if err != nil {
		return 0, err
	}
	purged := 0
	for _, ref := range refs {
		if _, err := db.ForgetSlot(ctx, ref.entityID, ref.slotKey, types.ForgetHard, "hygiene: purge_after_days expired", "hygiene-daemon"); err != nil {
			return purged, fmt.Errorf("purge %s/%s: %w", ref.entityID, ref.slotKey, err)
		}
		purged++
	}
	return purged, nil
}
