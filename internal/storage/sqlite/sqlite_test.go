package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/aeonmind/mcore/internal/types"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestAppendEventCreatesSlotAndDoc(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	event, err := db.AppendEvent(ctx, types.EventInput{
		EntityID: "default", SlotKey: "profile.preference.language",
		Layer: types.LayerSemantic, EventType: types.EventFactAdded,
		Value: "Rust", Source: types.SourceExplicitUser, Confidence: 0.9, Importance: 0.8,
		PrivacyLevel: types.PrivacyPrivate, OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if event.EventID == "" {
		t.Fatalf("expected a generated event_id")
	}

	slot, err := db.ResolveSlot(ctx, "default", "profile.preference.language")
	if err != nil {
		t.Fatalf("resolve slot: %v", err)
	}
	if slot == nil || slot.Value != "Rust" {
		t.Fatalf("expected resolved slot with value Rust, got %+v", slot)
	}
}

func TestAppendEventExplicitOutranksInferred(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.AppendEvent(ctx, types.EventInput{
		EntityID: "default", SlotKey: "profile.preference.language",
		Layer: types.LayerSemantic, EventType: types.EventFactAdded,
		Value: "Rust", Source: types.SourceExplicitUser, Confidence: 0.96,
		OccurredAt: time.Date(2026, 1, 15, 20, 0, 0, 0, time.FixedZone("JST", 9*3600)),
	})
	if err != nil {
		t.Fatalf("append 1: %v", err)
	}
	_, err = db.AppendEvent(ctx, types.EventInput{
		EntityID: "default", SlotKey: "profile.preference.language",
		Layer: types.LayerSemantic, EventType: types.EventInferredClaim,
		Value: "UTC", Source: types.SourceInferred, Confidence: 1.0,
		OccurredAt: time.Date(2026, 1, 16, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("append 2: %v", err)
	}

	slot, err := db.ResolveSlot(ctx, "default", "profile.preference.language")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if slot == nil || slot.Value != "Rust" {
		t.Fatalf("expected explicit_user Rust to remain winner, got %+v", slot)
	}
}

func TestRecallScopedKeywordSearch(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.AppendEvent(ctx, types.EventInput{
		EntityID: "default", SlotKey: "profile.favorite_language",
		Layer: types.LayerSemantic, EventType: types.EventFactAdded,
		Value: "I really enjoy writing Rust programs", Source: types.SourceExplicitUser,
		Confidence: 0.9, Importance: 0.7, OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	items, err := db.RecallScoped(ctx, types.RecallQuery{EntityID: "default", Query: "Rust", Limit: 5})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 match, got %d: %+v", len(items), items)
	}
}

func TestRecallScopedExcludesSecretByDefault(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.AppendEvent(ctx, types.EventInput{
		EntityID: "default", SlotKey: "profile.secret_note",
		Layer: types.LayerSemantic, EventType: types.EventFactAdded,
		Value: "a secret nobody should see", Source: types.SourceExplicitUser,
		Confidence: 0.9, Importance: 0.5, PrivacyLevel: types.PrivacySecret, OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	items, err := db.RecallScoped(ctx, types.RecallQuery{EntityID: "default", Query: "secret", Limit: 5})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected secret doc to be excluded, got %+v", items)
	}
}

func TestForgetSlotTombstoneBlocksReplay(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.AppendEvent(ctx, types.EventInput{
		EntityID: "default", SlotKey: "profile.old_address",
		Layer: types.LayerSemantic, EventType: types.EventFactAdded,
		Value: "123 Main St", Source: types.SourceExplicitUser, Confidence: 0.9,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	outcome, err := db.ForgetSlot(ctx, "default", "profile.old_address", types.ForgetTombstone, "user requested", "user:1")
	if err != nil {
		t.Fatalf("forget: %v", err)
	}
	if !outcome.Complete || outcome.Status != types.StatusComplete {
		t.Fatalf("expected complete forget outcome, got %+v", outcome)
	}

	slot, err := db.ResolveSlot(ctx, "default", "profile.old_address")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if slot != nil {
		t.Fatalf("expected nil slot after tombstone, got %+v", slot)
	}

	// Replay: re-appending the same fact must still not resurrect it via recall.
	_, err = db.AppendEvent(ctx, types.EventInput{
		EntityID: "default", SlotKey: "profile.old_address",
		Layer: types.LayerSemantic, EventType: types.EventFactAdded,
		Value: "123 Main St", Source: types.SourceExplicitUser, Confidence: 0.9,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("replay append: %v", err)
	}
	items, err := db.RecallScoped(ctx, types.RecallQuery{EntityID: "default", Query: "Main St", Limit: 5})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected denylist to suppress replayed content, got %+v", items)
	}
}

func TestCountEvents(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := db.AppendEvent(ctx, types.EventInput{
			EntityID: "default", SlotKey: "counter.slot",
			Layer: types.LayerWorking, EventType: types.EventFactAdded,
			Value: "v", Source: types.SourceSystem, OccurredAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	count, err := db.CountEvents(ctx, "default")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3, got %d", count)
	}
}

func TestOpenOnDiskAppliesMigrationsUnderLock(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/brain.db"

	db, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	version, err := db.appliedMigrationCount(context.Background())
	if err != nil {
		t.Fatalf("applied migration count: %v", err)
	}
	if version != len(migrationsList) {
		t.Fatalf("expected all %d migrations applied, got %d", len(migrationsList), version)
	}
}
