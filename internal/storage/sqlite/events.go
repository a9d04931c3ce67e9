package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aeonmind/mcore/internal/idgen"
	"github.com/aeonmind/mcore/internal/mcerrors"
	"github.com/aeonmind/mcore/internal/projection"
	"github.com/aeonmind/mcore/internal/retention"
	"github.com/aeonmind/mcore/internal/types"
)

// reliabilityOf maps a SourceClass's deterministic rank (0-5)
// onto [0,1] so it can be blended with confidence into RetrievalDoc
// reliability. The ranker formula (spec §4.4) names "reliability" as an
// input without defining its derivation; this composite of source
// trustworthiness and stated confidence is the chosen resolution,
// recorded in the grounding ledger.
func reliabilityOf(source types.SourceClass, confidence float64) float64 {
	rankNorm := float64(source.Rank()) / 5.0
	r := (rankNorm + confidence) / 2.0
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// AppendEvent implements storage.Backend.AppendEvent (spec §4.1): assigns
// event_id/ingested_at/retention_tier, writes the event row, re-folds the
// (entity_id, slot_key) projection, and upserts the belief slot and
// retrieval doc, all inside one transaction so the triple never lands
// partially.
func (db *DB) AppendEvent(ctx context.Context, input types.EventInput) (*types.MemoryEvent, error) {
	return db.appendEvent(ctx, input, db.retentionDays)
}

// AppendInferenceEvent is the inference-path variant (spec §4.7): Core runs
// it through the same policy.Validate gate as AppendEvent, and the storage
// write itself shares the same atomic append+project+index sequence.
func (db *DB) AppendInferenceEvent(ctx context.Context, input types.EventInput) (*types.MemoryEvent, error) {
	return db.appendEvent(ctx, input, db.retentionDays)
}

func (db *DB) appendEvent(ctx context.Context, input types.EventInput, days retention.Days) (*types.MemoryEvent, error) {
	if input.OccurredAt.IsZero() {
		input.OccurredAt = time.Now().UTC()
	}
	tier, expiresAt := retention.Derive(input.Layer, input.OccurredAt, days)

	event := types.MemoryEvent{
		EventID:           idgen.Event(),
		EntityID:          input.EntityID,
		SlotKey:           input.SlotKey,
		Layer:             input.Layer,
		EventType:         input.EventType,
		Value:             input.Value,
		Source:            input.Source,
		Confidence:        input.Confidence,
		Importance:        input.Importance,
		PrivacyLevel:      input.PrivacyLevel,
		Provenance:        input.Provenance,
		SignalTier:        input.SignalTier,
		SourceKind:        input.SourceKind,
		SourceRef:         input.SourceRef,
		OccurredAt:        input.OccurredAt,
		IngestedAt:        time.Now().UTC(),
		SupersedesEventID: input.SupersedesEventID,
		RetentionTier:     tier,
		RetentionExpiresAt: expiresAt,
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin append tx: %v", mcerrors.ErrStoreUnavailable, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := insertEvent(ctx, tx, event); err != nil {
		return nil, err
	}

	events, err := loadEvents(ctx, tx, event.EntityID, event.SlotKey)
	if err != nil {
		return nil, fmt.Errorf("%w: reload events for projection: %v", mcerrors.ErrQuery, err)
	}

	result := projection.Fold(events)
	if result.Winner != nil {
		if err := upsertBeliefSlot(ctx, tx, *result.Winner); err != nil {
			return nil, err
		}
		if err := upsertRetrievalDoc(ctx, tx, *result.Winner, result.ContradictionPenalty, tier, expiresAt); err != nil {
			return nil, err
		}
	} else if result.ContradictionPenalty > 0 {
		if err := bumpContradictionPenalty(ctx, tx, event.EntityID, event.SlotKey, result.ContradictionPenalty); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit append: %v", mcerrors.ErrStoreUnavailable, err)
	}
	committed = true
	return &event, nil
}

func insertEvent(ctx context.Context, tx *sql.Tx, e types.MemoryEvent) error {
	var supersedes any
	if e.SupersedesEventID != "" {
		supersedes = e.SupersedesEventID
	}
	var expiresAt any
	if e.RetentionExpiresAt != nil {
		expiresAt = e.RetentionExpiresAt.UTC()
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO memory_events (
			event_id, entity_id, slot_key, layer, event_type, value, source,
			confidence, importance, privacy_level,
			provenance_source_class, provenance_reference, provenance_evidence_uri,
			signal_tier, source_kind, source_ref,
			occurred_at, ingested_at, supersedes_event_id,
			retention_tier, retention_expires_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.EventID, e.EntityID, e.SlotKey, string(e.Layer), string(e.EventType), e.Value, string(e.Source),
		e.Confidence, e.Importance, string(e.PrivacyLevel),
		string(e.Provenance.SourceClass), e.Provenance.Reference, e.Provenance.EvidenceURI,
		string(e.SignalTier), string(e.SourceKind), e.SourceRef,
		e.OccurredAt.UTC(), e.IngestedAt.UTC(), supersedes,
		string(e.RetentionTier), expiresAt,
	)
	if err != nil {
		return fmt.Errorf("%w: insert event %s: %v", mcerrors.ErrIntegrity, e.EventID, err)
	}
	return nil
}

func loadEvents(ctx context.Context, tx *sql.Tx, entityID, slotKey string) ([]types.MemoryEvent, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT event_id, entity_id, slot_key, layer, event_type, value, source,
			confidence, importance, privacy_level,
			provenance_source_class, provenance_reference, provenance_evidence_uri,
			signal_tier, source_kind, source_ref,
			occurred_at, ingested_at, supersedes_event_id,
			retention_tier, retention_expires_at
		FROM memory_events WHERE entity_id = ? AND slot_key = ?`, entityID, slotKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.MemoryEvent
	for rows.Next() {
		var e types.MemoryEvent
		var layer, eventType, source, privacy, provSource, signalTier, sourceKind, retTier string
		var supersedes sql.NullString
		var expiresAt sql.NullTime

		if err := rows.Scan(
			&e.EventID, &e.EntityID, &e.SlotKey, &layer, &eventType, &e.Value, &source,
			&e.Confidence, &e.Importance, &privacy,
			&provSource, &e.Provenance.Reference, &e.Provenance.EvidenceURI,
			&signalTier, &sourceKind, &e.SourceRef,
			&e.OccurredAt, &e.IngestedAt, &supersedes,
			&retTier, &expiresAt,
		); err != nil {
			return nil, err
		}
		e.Layer = types.Layer(layer)
		e.EventType = types.EventType(eventType)
		e.Source = types.SourceClass(source)
		e.PrivacyLevel = types.PrivacyLevel(privacy)
		e.Provenance.SourceClass = types.SourceClass(provSource)
		e.SignalTier = types.SignalTier(signalTier)
		e.SourceKind = types.SourceKind(sourceKind)
		e.RetentionTier = types.RetentionTier(retTier)
		e.OccurredAt = e.OccurredAt.UTC()
		e.IngestedAt = e.IngestedAt.UTC()
		if supersedes.Valid {
			e.SupersedesEventID = supersedes.String
		}
		if expiresAt.Valid {
			t := expiresAt.Time.UTC()
			e.RetentionExpiresAt = &t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func upsertBeliefSlot(ctx context.Context, tx *sql.Tx, winner types.MemoryEvent) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO belief_slots (entity_id, slot_key, value, status, winner_event_id, source, confidence, importance, privacy_level, updated_at)
		VALUES (?, ?, ?, 'active', ?, ?, ?, ?, ?, ?)
		ON CONFLICT(entity_id, slot_key) DO UPDATE SET
			value = excluded.value,
			status = 'active',
			winner_event_id = excluded.winner_event_id,
			source = excluded.source,
			confidence = excluded.confidence,
			importance = excluded.importance,
			privacy_level = excluded.privacy_level,
			updated_at = excluded.updated_at`,
		winner.EntityID, winner.SlotKey, winner.Value, winner.EventID, string(winner.Source),
		winner.Confidence, winner.Importance, string(winner.PrivacyLevel), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("%w: upsert belief_slot %s/%s: %v", mcerrors.ErrIntegrity, winner.EntityID, winner.SlotKey, err)
	}
	return nil
}

func upsertRetrievalDoc(ctx context.Context, tx *sql.Tx, winner types.MemoryEvent, penalty float64, tier types.RetentionTier, expiresAt *time.Time) error {
	docID := winner.EntityID + ":" + winner.SlotKey
	visibility := string(types.VisibilityPrivate)
	if winner.PrivacyLevel == types.PrivacySecret {
		visibility = string(types.VisibilitySecret)
	} else if winner.PrivacyLevel == types.PrivacyPublic {
		visibility = string(types.VisibilityPublic)
	}
	reliability := reliabilityOf(winner.Source, winner.Confidence)

	var expiresVal any
	if expiresAt != nil {
		expiresVal = expiresAt.UTC()
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO retrieval_docs (
			doc_id, entity_id, slot_key, text_body, layer,
			provenance_source_class, provenance_reference, provenance_evidence_uri,
			retention_tier, retention_expires_at,
			recency_score, importance, reliability, contradiction_penalty,
			visibility, promotion_status, embedding_status, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1.0, ?, ?, ?, ?, 'candidate', 'pending', ?)
		ON CONFLICT(doc_id) DO UPDATE SET
			text_body = excluded.text_body,
			layer = excluded.layer,
			provenance_source_class = excluded.provenance_source_class,
			provenance_reference = excluded.provenance_reference,
			provenance_evidence_uri = excluded.provenance_evidence_uri,
			retention_tier = excluded.retention_tier,
			retention_expires_at = excluded.retention_expires_at,
			importance = excluded.importance,
			reliability = excluded.reliability,
			contradiction_penalty = excluded.contradiction_penalty,
			visibility = excluded.visibility,
			embedding_status = CASE WHEN retrieval_docs.embedding IS NULL THEN 'pending' ELSE retrieval_docs.embedding_status END,
			updated_at = excluded.updated_at`,
		docID, winner.EntityID, winner.SlotKey, winner.Value, string(winner.Layer),
		string(winner.Provenance.SourceClass), winner.Provenance.Reference, winner.Provenance.EvidenceURI,
		string(tier), expiresVal,
		winner.Importance, reliability, penalty,
		visibility, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("%w: upsert retrieval_doc %s: %v", mcerrors.ErrIntegrity, docID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM retrieval_fts WHERE doc_id = ?`, docID); err != nil {
		return fmt.Errorf("%w: clear fts row %s: %v", mcerrors.ErrIntegrity, docID, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO retrieval_fts (doc_id, entity_id, text_body) VALUES (?, ?, ?)`, docID, winner.EntityID, winner.Value); err != nil {
		return fmt.Errorf("%w: index fts row %s: %v", mcerrors.ErrIntegrity, docID, err)
	}
	return nil
}

func bumpContradictionPenalty(ctx context.Context, tx *sql.Tx, entityID, slotKey string, penalty float64) error {
	docID := entityID + ":" + slotKey
	_, err := tx.ExecContext(ctx, `UPDATE retrieval_docs SET contradiction_penalty = ?, updated_at = ? WHERE doc_id = ?`,
		penalty, time.Now().UTC(), docID)
	if err != nil {
		return fmt.Errorf("%w: bump contradiction penalty %s: %v", mcerrors.ErrIntegrity, docID, err)
	}
	return nil
}
