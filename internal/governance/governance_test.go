package governance

import (
	"context"
	"os"
	"testing"

	"github.com/aeonmind/mcore/internal/audit"
	"github.com/aeonmind/mcore/internal/types"
)

type fakeBackend struct {
	slots  map[string]*types.BeliefSlot
	forgot *types.ForgetOutcome
}

func (f *fakeBackend) Name() string                                    { return "fake" }
func (f *fakeBackend) HealthCheck(ctx context.Context) error           { return nil }
func (f *fakeBackend) CountEvents(ctx context.Context, e string) (int64, error) { return 0, nil }
func (f *fakeBackend) UpdateDocEmbedding(ctx context.Context, docID string, embedding []float32) error {
	return nil
}
func (f *fakeBackend) Close() error { return nil }

func (f *fakeBackend) AppendEvent(ctx context.Context, in types.EventInput) (*types.MemoryEvent, error) {
	return nil, nil
}
func (f *fakeBackend) AppendInferenceEvent(ctx context.Context, in types.EventInput) (*types.MemoryEvent, error) {
	return nil, nil
}
func (f *fakeBackend) RecallScoped(ctx context.Context, q types.RecallQuery) ([]types.RecallItem, error) {
	return nil, nil
}

func (f *fakeBackend) ResolveSlot(ctx context.Context, entityID, slotKey string) (*types.BeliefSlot, error) {
	return f.slots[entityID+":"+slotKey], nil
}

func (f *fakeBackend) ForgetSlot(ctx context.Context, entityID, slotKey string, mode types.ForgetMode, reason, requestedBy string) (*types.ForgetOutcome, error) {
	return f.forgot, nil
}

func newTestSurface(t *testing.T) (*Surface, *fakeBackend, string) {
	dir := t.TempDir()
	log, err := audit.Open(dir)
	if err != nil {
		t.Fatalf("audit.Open: %v", err)
	}
	t.Cleanup(func() { log.Close() })

	fb := &fakeBackend{slots: map[string]*types.BeliefSlot{}}
	return New(fb, log), fb, dir
}

func TestInspectReturnsNoValue(t *testing.T) {
	s, fb, _ := newTestSurface(t)
	fb.slots["alice:favorite_color"] = &types.BeliefSlot{
		EntityID: "alice", SlotKey: "favorite_color", Value: "teal", PrivacyLevel: types.PrivacyPublic,
	}

	results, err := s.Inspect(context.Background(), "operator-1", "alice", []string{"favorite_color"})
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if len(results) != 1 || !results[0].Found {
		t.Fatalf("expected one found result, got %+v", results)
	}
	if results[0].Slot.Value != "" {
		t.Fatalf("expected inspect to never surface value, got %q", results[0].Slot.Value)
	}
}

func TestExportRedactsPrivateSlots(t *testing.T) {
	s, fb, _ := newTestSurface(t)
	fb.slots["alice:ssn"] = &types.BeliefSlot{
		EntityID: "alice", SlotKey: "ssn", Value: "secret-value", PrivacyLevel: types.PrivacySecret, Source: types.SourceExplicitUser,
	}

	entries, err := s.Export(context.Background(), "operator-1", "alice", []string{"ssn"}, ExportOptions{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	e := entries[0]
	if !e.ValueRedacted || e.Value != "" {
		t.Fatalf("expected secret slot redacted with no value, got %+v", e)
	}
	if e.SensitiveFieldsIncluded {
		t.Fatalf("sensitive_fields_included must always be false, got true")
	}
}

func TestExportIncludeRedactedMetadataNeverLeaksValue(t *testing.T) {
	s, fb, _ := newTestSurface(t)
	fb.slots["alice:ssn"] = &types.BeliefSlot{
		EntityID: "alice", SlotKey: "ssn", Value: "secret-value", PrivacyLevel: types.PrivacySecret, Source: types.SourceExplicitUser,
	}

	entries, err := s.Export(context.Background(), "operator-1", "alice", []string{"ssn"}, ExportOptions{IncludeRedactedMetadata: true})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if entries[0].Value != "" {
		t.Fatalf("operator override must never surface value, got %q", entries[0].Value)
	}
	if entries[0].Source == "" {
		t.Fatalf("expected metadata override to surface non-sensitive source field")
	}
}

func TestDeleteAppendsAuditEntry(t *testing.T) {
	s, fb, dir := newTestSurface(t)
	fb.forgot = &types.ForgetOutcome{Applied: true, Complete: true, Status: types.StatusComplete}

	_, err := s.Delete(context.Background(), "operator-1", "alice", "favorite_color", types.ForgetHard, "user request")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}

	data, err := os.ReadFile(dir + "/audit/" + audit.FileName)
	if err != nil {
		t.Fatalf("read audit log: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected audit log to contain at least one entry")
	}
}

func TestInspectDeniesEmptyActor(t *testing.T) {
	s, _, _ := newTestSurface(t)
	if _, err := s.Inspect(context.Background(), "", "alice", []string{"x"}); err == nil {
		t.Fatalf("expected empty actor to be denied")
	}
}
