package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aeonmind/mcore/internal/idgen"
	"github.com/aeonmind/mcore/internal/mcerrors"
	"github.com/aeonmind/mcore/internal/types"
)

// ForgetSlot implements storage.Backend.ForgetSlot (spec §4.5): applies
// the requested delete protocol, records a ledger entry (always, so the
// replay gate sees it even for soft deletes that aren't denylisted), and
// runs the fixed completeness checks against {Slot, RetrievalDocs,
// Projection}.
func (db *DB) ForgetSlot(ctx context.Context, entityID, slotKey string, mode types.ForgetMode, reason, requestedBy string) (*types.ForgetOutcome, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin forget tx: %v", mcerrors.ErrStoreUnavailable, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	docID := entityID + ":" + slotKey

	switch mode {
	case types.ForgetSoft:
		if _, err := tx.ExecContext(ctx, `UPDATE belief_slots SET status = 'tombstoned' WHERE entity_id = ? AND slot_key = ?`, entityID, slotKey); err != nil {
			return nil, fmt.Errorf("%w: soft-tombstone slot: %v", mcerrors.ErrIntegrity, err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE retrieval_docs SET promotion_status = 'rejected' WHERE doc_id = ?`, docID); err != nil {
			return nil, fmt.Errorf("%w: exclude retrieval doc: %v", mcerrors.ErrIntegrity, err)
		}

	case types.ForgetHard, types.ForgetTombstone:
		if _, err := tx.ExecContext(ctx, `DELETE FROM belief_slots WHERE entity_id = ? AND slot_key = ?`, entityID, slotKey); err != nil {
			return nil, fmt.Errorf("%w: delete slot: %v", mcerrors.ErrIntegrity, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM retrieval_docs WHERE doc_id = ?`, docID); err != nil {
			return nil, fmt.Errorf("%w: delete retrieval doc: %v", mcerrors.ErrIntegrity, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM retrieval_fts WHERE doc_id = ?`, docID); err != nil {
			return nil, fmt.Errorf("%w: delete fts row: %v", mcerrors.ErrIntegrity, err)
		}

	default:
		return nil, fmt.Errorf("%w: unknown forget mode %q", mcerrors.ErrPolicyDenied, mode)
	}

	ledgerID := idgen.Ledger()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO deletion_ledger (ledger_id, entity_id, target_slot_key, phase, reason, requested_by, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ledgerID, entityID, slotKey, string(mode), reason, requestedBy, sqlNow()); err != nil {
		return nil, fmt.Errorf("%w: write ledger entry: %v", mcerrors.ErrIntegrity, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit forget: %v", mcerrors.ErrStoreUnavailable, err)
	}
	committed = true

	checks, err := db.completenessChecks(ctx, entityID, slotKey, mode)
	if err != nil {
		return nil, err
	}
	return outcomeFromChecks(checks), nil
}

// completenessChecks re-reads post-commit state to verify the fixed
// artifact set {Slot, RetrievalDocs, Projection} meets its requirement
// (spec §4.5). This backend can always physically delete/tombstone, so
// every check is expected to be satisfied; the structure exists so a
// degraded backend (e.g. markdown) can report DegradedNonComplete the
// same way.
func (db *DB) completenessChecks(ctx context.Context, entityID, slotKey string, mode types.ForgetMode) ([]types.ArtifactCheck, error) {
	docID := entityID + ":" + slotKey

	slotSatisfied, err := db.slotCheckSatisfied(ctx, entityID, slotKey, mode)
	if err != nil {
		return nil, err
	}
	docsSatisfied, err := db.retrievalDocCheckSatisfied(ctx, docID, mode)
	if err != nil {
		return nil, err
	}

	checks := []types.ArtifactCheck{
		{Artifact: types.ArtifactSlot, Requirement: requirementFor(mode), Satisfied: slotSatisfied},
		{Artifact: types.ArtifactRetrievalDocs, Requirement: types.RequireNonRetrievable, Satisfied: docsSatisfied},
		{Artifact: types.ArtifactProjection, Requirement: requirementFor(mode), Satisfied: slotSatisfied},
	}
	return checks, nil
}

func requirementFor(mode types.ForgetMode) types.Requirement {
	if mode == types.ForgetSoft {
		return types.RequireNonRetrievable
	}
	return types.RequireDeleted
}

func (db *DB) slotCheckSatisfied(ctx context.Context, entityID, slotKey string, mode types.ForgetMode) (bool, error) {
	var status string
	err := db.conn.QueryRowContext(ctx, `SELECT status FROM belief_slots WHERE entity_id = ? AND slot_key = ?`, entityID, slotKey).Scan(&status)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: slot completeness check: %v", mcerrors.ErrQuery, err)
	}
	if mode == types.ForgetSoft {
		return status == string(types.SlotTombstoned), nil
	}
	return false, nil
}

func (db *DB) retrievalDocCheckSatisfied(ctx context.Context, docID string, mode types.ForgetMode) (bool, error) {
	var promotionStatus string
	err := db.conn.QueryRowContext(ctx, `SELECT promotion_status FROM retrieval_docs WHERE doc_id = ?`, docID).Scan(&promotionStatus)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: retrieval doc completeness check: %v", mcerrors.ErrQuery, err)
	}
	if mode == types.ForgetSoft {
		return promotionStatus == string(types.PromotionRejected), nil
	}
	return false, nil
}

func outcomeFromChecks(checks []types.ArtifactCheck) *types.ForgetOutcome {
	allSatisfied := true
	for _, c := range checks {
		if !c.Satisfied {
			allSatisfied = false
			break
		}
	}
	status := types.StatusComplete
	if !allSatisfied {
		status = types.StatusIncomplete
	}
	return &types.ForgetOutcome{
		Applied:        true,
		Complete:       allSatisfied,
		Degraded:       false,
		Status:         status,
		ArtifactChecks: checks,
	}
}
