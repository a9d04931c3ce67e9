// Package projection folds the append-only event log into BeliefSlot
// projections using the deterministic conflict-resolution ordering of
// spec §4.2. Replaying the full event log through this package must
// reproduce the current slot state bit-for-bit (spec §8).
package projection

import (
	"sort"

	"github.com/aeonmind/mcore/internal/types"
)

// ContradictionPenaltyStep is the amount each contradiction_marked event
// adds to a RetrievalDoc's contradiction_penalty (spec §4.2 step 5, §4.4
// R2). It is not itself spec-mandated as a constant, but the ordering
// requirement that contradiction events "raise the slot's contradiction
// penalty" needs a concrete increment; 0.25 keeps four contradictions
// enough to fully cancel a perfect-score match without letting a single
// mark dominate the ranker.
const ContradictionPenaltyStep = 0.25

// Result is the outcome of folding one (entity_id, slot_key) event set.
type Result struct {
	// Winner is nil if every candidate event was a contradiction_marked
	// event (no fact ever won the slot).
	Winner              *types.MemoryEvent
	ContradictionPenalty float64
	// SupersedesEventID is set only when a contradiction_marked event links
	// to the event it contradicts; Fold does not set it when Winner replaces
	// a different prior winner.
	SupersedesEventID string
}

// Fold computes the projected winner for a set of events belonging to the
// same (entity_id, slot_key), applying the spec §4.2 ordering:
//  1. sort by (source_rank, confidence, occurred_at instant) descending
//  2. ties broken by ingested_at then event_id lexicographic
//  3. contradiction_marked events never win; they accumulate penalty and
//     link to the event they contradict (the event immediately preceding
//     them in the sorted order at the time they were appended — modeled
//     here as the current top-ranked non-contradiction event before them).
//
// occurred_at is compared as its UTC instant so timezone offsets never
// affect ordering (spec §4.2 step 6).
func Fold(events []types.MemoryEvent) Result {
	if len(events) == 0 {
		return Result{}
	}

	candidates := make([]types.MemoryEvent, len(events))
	copy(candidates, events)
	sort.SliceStable(candidates, func(i, j int) bool {
		return less(candidates[j], candidates[i]) // descending: j before i means i "less" in reverse
	})

	var winner *types.MemoryEvent
	var penalty float64
	var supersedes string
	var priorWinnerID string

	for idx := range candidates {
		e := candidates[idx]
		if e.EventType == types.EventContradictionMarked {
			penalty += ContradictionPenaltyStep
			if priorWinnerID != "" && supersedes == "" {
				supersedes = priorWinnerID
			}
			continue
		}
		if winner == nil {
			w := e
			winner = &w
			priorWinnerID = e.EventID
		}
	}

	// Fold only derives the contradiction-originated supersede link, since
	// it operates on a full candidate set without "previous" context. No
	// link is derived when a new winner replaces a prior one: the event log
	// stores only the SupersedesEventID that the caller put in EventInput.
	return Result{
		Winner:               winner,
		ContradictionPenalty: penalty,
		SupersedesEventID:    supersedes,
	}
}

// less reports whether a sorts before b in ascending order of the ranking
// key (source_rank, confidence, occurred_at instant), so that reversing it
// (as Fold does) yields the spec's descending winner order, falling back
// to (ingested_at, event_id) for full determinism. The event_id comparison
// is inverted so that, after the reversal, the lexicographically smaller
// event_id wins a full tie.
func less(a, b types.MemoryEvent) bool {
	ra, rb := a.Source.Rank(), b.Source.Rank()
	if ra != rb {
		return ra < rb
	}
	if a.Confidence != b.Confidence {
		return a.Confidence < b.Confidence
	}
	ua, ub := a.OccurredAt.UTC(), b.OccurredAt.UTC()
	if !ua.Equal(ub) {
		return ua.Before(ub)
	}
	ia, ib := a.IngestedAt.UTC(), b.IngestedAt.UTC()
	if !ia.Equal(ib) {
		return ia.Before(ib)
	}
	return a.EventID > b.EventID
}
