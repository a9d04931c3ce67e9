// Package storage defines the capability-set interface implemented by
// every Memory Core storage backend (spec design notes §9: "trait-object-
// backed polymorphism over storage backends"). Implementations that cannot
// fulfill a method physically (e.g. a markdown backend cannot hard-delete
// atomically) must return mcerrors.ErrBackendUnavailable or a degraded
// ForgetOutcome rather than silently succeeding.
package storage

import (
	"context"

	"github.com/aeonmind/mcore/internal/types"
)

// Backend is the storage capability set every variant (embedded-SQL,
// markdown-file, vector-only) must implement.
type Backend interface {
	// Name identifies the backend variant, e.g. "sqlite" or "markdown".
	Name() string

	// HealthCheck reports whether the backend can currently serve requests.
	HealthCheck(ctx context.Context) error

	// AppendEvent commits a new MemoryEvent and its derived projection
	// (BeliefSlot) and retrieval doc atomically (spec §4.1).
	AppendEvent(ctx context.Context, input types.EventInput) (*types.MemoryEvent, error)

	// AppendInferenceEvent is the inference-path variant of AppendEvent (spec
	// §4.7 "inference"). memory.Core runs both through the same
	// policy.Validate; the distinct method lets a backend store inferred
	// events differently.
	AppendInferenceEvent(ctx context.Context, input types.EventInput) (*types.MemoryEvent, error)

	// RecallScoped performs the entity-scoped hybrid search, ranking, and
	// replay-gate filtering described in spec §4.3-§4.5 and returns ranked
	// results. query.QueryEmbedding, if set, is used for vector search.
	RecallScoped(ctx context.Context, query types.RecallQuery) ([]types.RecallItem, error)

	// ResolveSlot returns the current BeliefSlot for (entityID, slotKey),
	// or nil if none exists or it has been tombstoned (spec B3).
	ResolveSlot(ctx context.Context, entityID, slotKey string) (*types.BeliefSlot, error)

	// ForgetSlot executes the delete protocol for mode and returns the
	// completeness-check outcome (spec §4.5).
	ForgetSlot(ctx context.Context, entityID, slotKey string, mode types.ForgetMode, reason, requestedBy string) (*types.ForgetOutcome, error)

	// CountEvents returns the number of events for entityID, or across all
	// entities if entityID is empty.
	CountEvents(ctx context.Context, entityID string) (int64, error)

	// UpdateDocEmbedding is called by the embedding backfill worker once an
	// embedding becomes available for a doc that was written without one.
	UpdateDocEmbedding(ctx context.Context, docID string, embedding []float32) error

	// Close releases any resources (connections, file handles) held by the
	// backend.
	Close() error
}
