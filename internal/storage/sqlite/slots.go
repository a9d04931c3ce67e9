package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aeonmind/mcore/internal/mcerrors"
	"github.com/aeonmind/mcore/internal/types"
)

// ResolveSlot returns the current projected BeliefSlot for (entityID,
// slotKey), or nil if none exists, it is tombstoned, or the pair is
// blocked by the deletion ledger's replay gate (spec §4.5 "the gate also
// applies inside the context-builder").
func (db *DB) ResolveSlot(ctx context.Context, entityID, slotKey string) (*types.BeliefSlot, error) {
	denied, err := db.isDenylisted(ctx, entityID, slotKey)
	if err != nil {
		return nil, err
	}
	if denied {
		return nil, nil
	}

	row := db.conn.QueryRowContext(ctx, `
		SELECT entity_id, slot_key, value, status, winner_event_id, source, confidence, importance, privacy_level, updated_at
		FROM belief_slots WHERE entity_id = ? AND slot_key = ?`, entityID, slotKey)

	var slot types.BeliefSlot
	var status, source, privacy string
	err = row.Scan(&slot.EntityID, &slot.SlotKey, &slot.Value, &status, &slot.WinnerEventID, &source, &slot.Confidence, &slot.Importance, &privacy, &slot.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: resolve slot %s/%s: %v", mcerrors.ErrQuery, entityID, slotKey, err)
	}
	slot.Status = types.SlotStatus(status)
	slot.Source = types.SourceClass(source)
	slot.PrivacyLevel = types.PrivacyLevel(privacy)
	slot.UpdatedAt = slot.UpdatedAt.UTC()

	if slot.Status == types.SlotTombstoned {
		return nil, nil
	}
	return &slot, nil
}

// isDenylisted reports whether (entityID, slotKey) carries a hard or
// tombstone deletion_ledger entry, which permanently blocks re-surfacing
// per spec §4.5 ("Hard: ... the ledger also records a denylist entry";
// "Tombstone: ... blocks any future re-emergence ... via the denylist").
// Soft deletes are excluded via slot/doc status instead, so a later
// legitimate re-append is not permanently shadowed.
func (db *DB) isDenylisted(ctx context.Context, entityID, slotKey string) (bool, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM deletion_ledger WHERE entity_id = ? AND target_slot_key = ? AND phase IN (?, ?)`,
		entityID, slotKey, string(types.ForgetHard), string(types.ForgetTombstone)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("%w: denylist lookup %s/%s: %v", mcerrors.ErrQuery, entityID, slotKey, err)
	}
	return count > 0, nil
}

// CountEvents returns the number of events for entityID, or the total
// across all entities if entityID is empty.
func (db *DB) CountEvents(ctx context.Context, entityID string) (int64, error) {
	var count int64
	var err error
	if entityID == "" {
		err = db.conn.QueryRowContext(ctx, `SELECT COUNT(1) FROM memory_events`).Scan(&count)
	} else {
		err = db.conn.QueryRowContext(ctx, `SELECT COUNT(1) FROM memory_events WHERE entity_id = ?`, entityID).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: count events: %v", mcerrors.ErrQuery, err)
	}
	return count, nil
}

// UpdateDocEmbedding stores a backfilled embedding for docID and marks it
// ready (spec §4.3: "Embeddings are computed off the write path via a
// bounded backfill queue").
func (db *DB) UpdateDocEmbedding(ctx context.Context, docID string, embedding []float32) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE retrieval_docs SET embedding = ?, embedding_status = 'ready', updated_at = ? WHERE doc_id = ?`,
		vecToBytes(embedding), sqlNow(), docID)
	if err != nil {
		return fmt.Errorf("%w: update embedding %s: %v", mcerrors.ErrIntegrity, docID, err)
	}
	return nil
}
