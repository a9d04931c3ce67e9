// Package governance implements the operator/DSAR-facing surface of spec
// §4.8: inspect, export, delete, each policy-gated and each appending one
// audit.Entry to the rotated JSONL governance log.
package governance

import (
	"context"
	"fmt"

	"github.com/aeonmind/mcore/internal/audit"
	"github.com/aeonmind/mcore/internal/mcerrors"
	"github.com/aeonmind/mcore/internal/storage"
	"github.com/aeonmind/mcore/internal/types"
)

// Surface is the governance entry point, wired to a storage backend and an
// audit log.
type Surface struct {
	store storage.Backend
	audit *audit.Log
}

// New builds a governance Surface over store, logging every action to log.
func New(store storage.Backend, log *audit.Log) *Surface {
	return &Surface{store: store, audit: log}
}

// InspectResult is one slot's metadata-only view (spec §4.8: "returns
// metadata only").
type InspectResult struct {
	SlotKey string            `json:"slot_key"`
	Found   bool              `json:"found"`
	Slot    *types.BeliefSlot `json:"slot,omitempty"`
}

// Inspect returns metadata (never value) for each requested slot_key under
// entityID.
func (s *Surface) Inspect(ctx context.Context, actor, entityID string, slotKeys []string) ([]InspectResult, error) {
	if err := s.checkScope(ctx, actor, entityID); err != nil {
		s.log(actor, "inspect", entityID, "", "denied", err.Error(), nil)
		return nil, err
	}

	results := make([]InspectResult, 0, len(slotKeys))
	for _, sk := range slotKeys {
		slot, err := s.store.ResolveSlot(ctx, entityID, sk)
		if err != nil {
			s.log(actor, "inspect", entityID, sk, "error", err.Error(), nil)
			return nil, fmt.Errorf("resolve slot %s: %w", sk, err)
		}
		results = append(results, InspectResult{SlotKey: sk, Found: slot != nil, Slot: redactedCopy(slot)})
	}
	s.log(actor, "inspect", entityID, "", "ok", "", map[string]any{"slot_count": len(slotKeys)})
	return results, nil
}

// redactedCopy clears Value on every slot, whatever its privacy level,
// before it leaves the governance surface (inspect never returns value content at all, only
// metadata; this defends the Slot pointer from accidental reuse upstream).
func redactedCopy(slot *types.BeliefSlot) *types.BeliefSlot {
	if slot == nil {
		return nil
	}
	cp := *slot
	cp.Value = ""
	return &cp
}

// ExportEntry is one slot's export-path result (spec §4.8: "returns values
// for public slots and redacted entries for private/secret with a
// value_redacted=true marker and sensitive_fields_included=false").
type ExportEntry struct {
	SlotKey                  string `json:"slot_key"`
	Missing                  bool   `json:"missing,omitempty"`
	Value                    string `json:"value,omitempty"`
	ValueRedacted            bool   `json:"value_redacted"`
	SensitiveFieldsIncluded  bool   `json:"sensitive_fields_included"`
	Layer                    string `json:"layer,omitempty"`
	Source                   string `json:"source,omitempty"`
}

// ExportOptions controls the operator override recovered from
// original_source/src/security/writeback_guard/policy.rs: metadata beyond
// value_redacted may be surfaced for redacted entries, but value itself
// never is.
type ExportOptions struct {
	IncludeRedactedMetadata bool
}

// Export returns per-slot export entries for entityID. Public slots carry
// the real value; private/secret slots are redacted and
// sensitive_fields_included is always false, regardless of opts.
func (s *Surface) Export(ctx context.Context, actor, entityID string, slotKeys []string, opts ExportOptions) ([]ExportEntry, error) {
	if err := s.checkScope(ctx, actor, entityID); err != nil {
		s.log(actor, "export", entityID, "", "denied", err.Error(), nil)
		return nil, err
	}

	entries := make([]ExportEntry, 0, len(slotKeys))
	for _, sk := range slotKeys {
		slot, err := s.store.ResolveSlot(ctx, entityID, sk)
		if err != nil {
			s.log(actor, "export", entityID, sk, "error", err.Error(), nil)
			return nil, fmt.Errorf("resolve slot %s: %w", sk, err)
		}
		if slot == nil {
			entries = append(entries, ExportEntry{SlotKey: sk, Missing: true})
			continue
		}

		entry := ExportEntry{SlotKey: sk, SensitiveFieldsIncluded: false}
		if slot.PrivacyLevel == types.PrivacyPublic {
			entry.Value = slot.Value
		} else {
			entry.ValueRedacted = true
			if opts.IncludeRedactedMetadata {
				entry.Source = string(slot.Source)
			}
		}
		entries = append(entries, entry)
	}
	s.log(actor, "export", entityID, "", "ok", "", map[string]any{"slot_count": len(slotKeys)})
	return entries, nil
}

// Delete executes the delete protocol (spec §4.5) for one slot and appends
// a structured audit record regardless of outcome (spec §4.8).
func (s *Surface) Delete(ctx context.Context, actor, entityID, slotKey string, mode types.ForgetMode, reason string) (*types.ForgetOutcome, error) {
	if err := s.checkScope(ctx, actor, entityID); err != nil {
		s.log(actor, "delete", entityID, slotKey, "denied", err.Error(), nil)
		return nil, err
	}

	outcome, err := s.store.ForgetSlot(ctx, entityID, slotKey, mode, reason, actor)
	if err != nil {
		s.log(actor, "delete", entityID, slotKey, "error", err.Error(), nil)
		return nil, fmt.Errorf("forget slot: %w", err)
	}

	outcomeStatus := "ok"
	if !outcome.Complete {
		outcomeStatus = "degraded"
	}
	s.log(actor, "delete", entityID, slotKey, outcomeStatus, string(outcome.Status), map[string]any{"mode": mode})
	return outcome, nil
}

// checkScope rejects a governance action whose actor is empty; the caller
// then logs a "denied" audit entry. It does not compare any tenant scope
// with entityID: the governance surface takes no tenant context, so a
// named actor may act on any entity.
func (s *Surface) checkScope(ctx context.Context, actor, entityID string) error {
	if actor == "" {
		return fmt.Errorf("%w: actor is required for governance actions", mcerrors.ErrPolicyDenied)
	}
	return nil
}

func (s *Surface) log(actor, action, entityID, slotKey, outcome, message string, extra map[string]any) {
	if s.audit == nil {
		return
	}
	_, _ = s.audit.Append(&audit.Entry{
		Action:   action,
		Actor:    actor,
		EntityID: entityID,
		SlotKey:  slotKey,
		Outcome:  outcome,
		Message:  message,
		Extra:    extra,
	})
}
