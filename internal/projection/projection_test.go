package projection

import (
	"testing"
	"time"

	"github.com/aeonmind/mcore/internal/types"
)

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return tm
}

func TestFoldExplicitOutranksInferredRegardlessOfRecency(t *testing.T) {
	events := []types.MemoryEvent{
		{
			EventID: "evt-1", EntityID: "default", SlotKey: "profile.preference.language",
			Value: "Rust", Source: types.SourceExplicitUser, Confidence: 0.96,
			OccurredAt: mustParse(t, "2026-01-15T20:00:00+09:00"),
			IngestedAt: mustParse(t, "2026-01-15T11:00:01Z"),
		},
		{
			EventID: "evt-2", EntityID: "default", SlotKey: "profile.preference.language",
			Value: "UTC", Source: types.SourceInferred, Confidence: 1.0,
			OccurredAt: mustParse(t, "2026-01-16T12:00:00Z"),
			IngestedAt: mustParse(t, "2026-01-16T12:00:01Z"),
		},
	}

	result := Fold(events)
	if result.Winner == nil {
		t.Fatalf("expected a winner")
	}
	if result.Winner.Value != "Rust" {
		t.Fatalf("expected Rust to win, got %q", result.Winner.Value)
	}
	if result.Winner.Source != types.SourceExplicitUser {
		t.Fatalf("expected explicit_user source, got %q", result.Winner.Source)
	}
}

func TestFoldTimezoneNormalization(t *testing.T) {
	// Same source/confidence; occurred_at differs only by timezone
	// representation of the same instant vs a genuinely earlier instant.
	events := []types.MemoryEvent{
		{
			EventID: "evt-a", Source: types.SourceSystem, Confidence: 0.5,
			OccurredAt: mustParse(t, "2026-01-01T00:00:00+00:00"),
			IngestedAt: mustParse(t, "2026-01-01T00:00:01Z"),
			Value:      "earlier",
		},
		{
			EventID: "evt-b", Source: types.SourceSystem, Confidence: 0.5,
			OccurredAt: mustParse(t, "2026-01-02T09:00:00+09:00"), // = 2026-01-02T00:00:00Z
			IngestedAt: mustParse(t, "2026-01-02T00:00:01Z"),
			Value:      "later-same-instant-as-utc-midnight",
		},
	}
	result := Fold(events)
	if result.Winner.Value != "later-same-instant-as-utc-midnight" {
		t.Fatalf("expected later UTC instant to win, got %q", result.Winner.Value)
	}
}

func TestFoldDeterministicTieBreak(t *testing.T) {
	base := mustParse(t, "2026-01-01T00:00:00Z")
	events := []types.MemoryEvent{
		{EventID: "evt-zzz", Source: types.SourceSystem, Confidence: 0.5, OccurredAt: base, IngestedAt: base, Value: "z"},
		{EventID: "evt-aaa", Source: types.SourceSystem, Confidence: 0.5, OccurredAt: base, IngestedAt: base, Value: "a"},
	}
	result := Fold(events)
	if result.Winner.EventID != "evt-aaa" {
		t.Fatalf("expected lexicographically smaller event_id to win tie, got %q", result.Winner.EventID)
	}

	// Replaying with the same input must reproduce the same winner.
	result2 := Fold(events)
	if result2.Winner.EventID != result.Winner.EventID {
		t.Fatalf("non-deterministic replay: %q vs %q", result.Winner.EventID, result2.Winner.EventID)
	}
}

func TestFoldContradictionNeverWins(t *testing.T) {
	base := mustParse(t, "2026-01-01T00:00:00Z")
	later := mustParse(t, "2026-01-02T00:00:00Z")
	events := []types.MemoryEvent{
		{EventID: "evt-1", Source: types.SourceExplicitUser, Confidence: 0.9, OccurredAt: base, IngestedAt: base, Value: "fact"},
		{
			EventID: "evt-2", Source: types.SourceInferred, Confidence: 1.0, OccurredAt: later, IngestedAt: later,
			EventType: types.EventContradictionMarked, Value: "contradiction",
		},
	}
	result := Fold(events)
	if result.Winner == nil || result.Winner.EventID != "evt-1" {
		t.Fatalf("expected original fact to remain the winner, got %+v", result.Winner)
	}
	if result.ContradictionPenalty <= 0 {
		t.Fatalf("expected nonzero contradiction penalty")
	}
}

func TestFoldAllContradictionsNoWinner(t *testing.T) {
	base := mustParse(t, "2026-01-01T00:00:00Z")
	events := []types.MemoryEvent{
		{EventID: "evt-1", EventType: types.EventContradictionMarked, Source: types.SourceInferred, OccurredAt: base, IngestedAt: base},
	}
	result := Fold(events)
	if result.Winner != nil {
		t.Fatalf("expected no winner, got %+v", result.Winner)
	}
	if result.ContradictionPenalty <= 0 {
		t.Fatalf("expected penalty to accumulate even with no winner")
	}
}

func TestFoldEmpty(t *testing.T) {
	result := Fold(nil)
	if result.Winner != nil {
		t.Fatalf("expected nil winner for empty input")
	}
	if result.ContradictionPenalty != 0 {
		t.Fatalf("expected zero penalty for empty input")
	}
}
