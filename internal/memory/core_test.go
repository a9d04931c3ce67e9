package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aeonmind/mcore/internal/mcerrors"
	"github.com/aeonmind/mcore/internal/storage/sqlite"
	"github.com/aeonmind/mcore/internal/types"
)

func newTestCore(t *testing.T) *Core {
	t.Helper()
	db, err := sqlite.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db)
}

func ingestionInput(entityID, slotKey, value string) types.EventInput {
	return types.EventInput{
		EntityID: entityID, SlotKey: slotKey,
		Layer: types.LayerSemantic, EventType: types.EventFactAdded,
		Value: value, Source: types.SourceExternalPrimary, Confidence: 0.8, Importance: 0.6,
		PrivacyLevel: types.PrivacyPublic, SourceRef: "doc-1",
		Provenance: types.Provenance{SourceClass: types.SourceExternalPrimary},
		OccurredAt:  time.Now().UTC(),
	}
}

func TestCoreAppendEventRejectsPolicyViolation(t *testing.T) {
	c := newTestCore(t)
	in := ingestionInput("default", "external.news.headline", "v")
	in.SourceRef = ""

	if _, err := c.AppendEvent(context.Background(), in); !errors.Is(err, mcerrors.ErrPolicyDenied) {
		t.Fatalf("expected ErrPolicyDenied for missing source_ref, got %v", err)
	}
}

func TestCoreAppendAndResolve(t *testing.T) {
	c := newTestCore(t)
	in := ingestionInput("default", "external.news.headline", "Launch announced")

	event, err := c.AppendEvent(context.Background(), in)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if event.EventID == "" {
		t.Fatalf("expected generated event_id")
	}

	slot, err := c.ResolveSlot(context.Background(), "default", "external.news.headline")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if slot == nil || slot.Value != "Launch announced" {
		t.Fatalf("expected resolved slot with appended value, got %+v", slot)
	}
}

func TestCoreRecallScopedRejectsTenantMismatch(t *testing.T) {
	c := newTestCore(t)
	_, err := c.RecallScoped(context.Background(), types.RecallQuery{
		EntityID:      "default",
		Query:         "launch",
		Limit:         10,
		PolicyContext: &types.PolicyContext{Actor: "op", TenantEntityID: "other-tenant"},
	})
	if !errors.Is(err, mcerrors.ErrPolicyDenied) {
		t.Fatalf("expected tenant scope mismatch to be denied, got %v", err)
	}
}

func TestCoreForgetSlotRejectsInvalidMode(t *testing.T) {
	c := newTestCore(t)
	if _, err := c.ForgetSlot(context.Background(), "default", "x", types.ForgetMode("bogus"), "reason", "operator"); !errors.Is(err, mcerrors.ErrPolicyDenied) {
		t.Fatalf("expected invalid mode to be denied, got %v", err)
	}
}

func TestCoreCountEvents(t *testing.T) {
	c := newTestCore(t)
	in := ingestionInput("default", "external.news.headline", "v1")
	if _, err := c.AppendEvent(context.Background(), in); err != nil {
		t.Fatalf("append: %v", err)
	}
	count, err := c.CountEvents(context.Background(), "default")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 event, got %d", count)
	}
}
