package ingestion

import (
	"context"
	"testing"
	"time"

	"github.com/aeonmind/mcore/internal/types"
)

func TestClassifyDetectsRiskAndTopic(t *testing.T) {
	c := Classify("I heard there's a critical security vulnerability in the release.")
	if len(c.RiskFlags) == 0 {
		t.Fatalf("expected at least one risk flag, got none")
	}
	found := false
	for _, f := range c.RiskFlags {
		if f == "rumor" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected rumor risk flag, got %v", c.RiskFlags)
	}
	if len(c.Topics) == 0 {
		t.Fatalf("expected at least one topic")
	}
}

func TestProvenanceReferenceOmitsSuffixWhenEmpty(t *testing.T) {
	ref := ProvenanceReference("https://example.com/msg/1", Classification{})
	if ref != "https://example.com/msg/1" {
		t.Fatalf("expected base reference unchanged, got %q", ref)
	}
}

func TestProvenanceReferenceAppendsSuffix(t *testing.T) {
	ref := ProvenanceReference("src-1", Classification{Topics: []string{"security"}, RiskFlags: []string{"rumor"}})
	if ref != "src-1 classifier:security,rumor" {
		t.Fatalf("unexpected reference: %q", ref)
	}
}

func TestParseOccurredAtFallsBackToBase(t *testing.T) {
	base := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	got := ParseOccurredAt("", base)
	if !got.Equal(base) {
		t.Fatalf("expected base returned unchanged for empty text")
	}
}

func TestParseOccurredAtRFC3339(t *testing.T) {
	base := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	got := ParseOccurredAt("2026-01-01T00:00:00Z", base)
	want := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseOccurredAtRelative(t *testing.T) {
	base := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	got := ParseOccurredAt("yesterday", base)
	if !got.Before(base) {
		t.Fatalf("expected 'yesterday' to resolve before base, got %v", got)
	}
}

func TestPipelineProcessBuildsEventInput(t *testing.T) {
	p := NewPipeline(16)
	env := &types.SignalEnvelope{
		SourceKind:   types.SourceKindManual,
		SourceRef:    "note-1",
		Content:      "User prefers dark mode in the dashboard.",
		EntityID:     "user-42",
		SignalTier:   types.TierNormalized,
		PrivacyLevel: types.PrivacyPrivate,
		IngestedAt:   time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC),
	}

	res, err := p.Process(context.Background(), env, nil)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.Duplicate {
		t.Fatalf("expected first occurrence to not be a duplicate")
	}
	if res.Input.EntityID != "user-42" {
		t.Fatalf("unexpected entity_id: %s", res.Input.EntityID)
	}
	if res.Input.Source != types.SourceExplicitUser {
		t.Fatalf("expected manual source to map to explicit_user, got %s", res.Input.Source)
	}
}

func TestPipelineProcessDetectsExactDuplicate(t *testing.T) {
	p := NewPipeline(16)
	env := &types.SignalEnvelope{
		SourceKind: types.SourceKindManual,
		SourceRef:  "note-1",
		Content:    "Same content twice.",
		EntityID:   "user-1",
		SignalTier: types.TierRaw,
		IngestedAt: time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC),
	}

	first, err := p.Process(context.Background(), env, nil)
	if err != nil {
		t.Fatalf("first process: %v", err)
	}
	if first.Duplicate {
		t.Fatalf("first occurrence should not be flagged duplicate")
	}

	env2 := &types.SignalEnvelope{
		SourceKind: types.SourceKindManual,
		SourceRef:  "note-1",
		Content:    "Same content twice.",
		EntityID:   "user-1",
		SignalTier: types.TierRaw,
		IngestedAt: time.Date(2026, 7, 30, 0, 0, 1, 0, time.UTC),
	}
	second, err := p.Process(context.Background(), env2, nil)
	if err != nil {
		t.Fatalf("second process: %v", err)
	}
	if !second.Duplicate {
		t.Fatalf("expected exact dedup to flag the repeated content")
	}
}

func TestSourceClassForMapsAllKinds(t *testing.T) {
	cases := map[types.SourceKind]types.SourceClass{
		types.SourceKindManual:       types.SourceExplicitUser,
		types.SourceKindConversation: types.SourceExplicitUser,
		types.SourceKindDiscord:      types.SourceExternalPrimary,
		types.SourceKindTelegram:     types.SourceExternalPrimary,
		types.SourceKindSlack:        types.SourceExternalPrimary,
		types.SourceKindAPI:          types.SourceExternalSecondary,
		types.SourceKindNews:         types.SourceExternalSecondary,
		types.SourceKindDocument:     types.SourceExternalSecondary,
	}
	for kind, want := range cases {
		if got := sourceClassFor(kind); got != want {
			t.Errorf("sourceClassFor(%s) = %s, want %s", kind, got, want)
		}
	}
}

func TestSlotKeyForFallsBackToExternalPrefix(t *testing.T) {
	env := &types.SignalEnvelope{
		SourceKind: types.SourceKindDiscord,
		SourceRef:  "channel-9/msg-3",
	}
	got := slotKeyFor(env)
	want := "external.discord.channel-9/msg-3"
	if got != want {
		t.Fatalf("slotKeyFor = %q, want %q", got, want)
	}
}

func TestPipelineProcessRejectsInvalidEnvelope(t *testing.T) {
	p := NewPipeline(16)
	env := &types.SignalEnvelope{
		SourceKind: types.SourceKindManual,
		Content:    "   ",
		EntityID:   "user-1",
	}
	if _, err := p.Process(context.Background(), env, nil); err == nil {
		t.Fatalf("expected error for blank content")
	}
}
