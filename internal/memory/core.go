// Package memory implements Core, the facade exposing the five external
// contracts of spec §6 (append_event, append_inference_event,
// recall_scoped, resolve_slot, forget_slot, count_events), wiring together
// the storage backend, per-entity locking, policy validation, the
// ingestion pipeline, and the embedding backfill queue.
package memory

import (
	"context"
	"fmt"

	"github.com/aeonmind/mcore/internal/embedding"
	"github.com/aeonmind/mcore/internal/entitylock"
	"github.com/aeonmind/mcore/internal/ingestion"
	"github.com/aeonmind/mcore/internal/mcerrors"
	"github.com/aeonmind/mcore/internal/policy"
	"github.com/aeonmind/mcore/internal/storage"
	"github.com/aeonmind/mcore/internal/types"
)

// defaultDedupCacheCapacity mirrors config's dedup_cache_capacity default,
// used only when a Core is built without an explicit ingestion pipeline.
const defaultDedupCacheCapacity = 2048

// Core is the application-facing entry point over one storage backend.
type Core struct {
	store    storage.Backend
	locks    entitylock.Map
	backfill *embedding.BackfillQueue
	embedder embedding.Embedder
	pipeline *ingestion.Pipeline
}

// Option configures a Core.
type Option func(*Core)

// WithBackfillQueue wires the off-write-path embedding backfill queue
// (spec §4.3/§9); AppendEvent enqueues a job for every new retrieval doc.
func WithBackfillQueue(q *embedding.BackfillQueue) Option {
	return func(c *Core) { c.backfill = q }
}

// WithEmbedder wires a query-time embedder used to compute
// RecallQuery.QueryEmbedding when a caller supplies raw query text only.
func WithEmbedder(e embedding.Embedder) Option {
	return func(c *Core) { c.embedder = e }
}

// WithIngestionPipeline overrides the ingestion pipeline Ingest runs
// SignalEnvelopes through (spec §4.6). Callers that want semantic dedup
// wired in (ingestion.WithSemanticDedup) must build their own Pipeline and
// pass it here; otherwise Core builds one with exact-dedup only.
func WithIngestionPipeline(p *ingestion.Pipeline) Option {
	return func(c *Core) { c.pipeline = p }
}

// New builds a Core over store.
func New(store storage.Backend, opts ...Option) *Core {
	c := &Core{store: store}
	for _, o := range opts {
		o(c)
	}
	if c.pipeline == nil {
		c.pipeline = ingestion.NewPipeline(defaultDedupCacheCapacity)
	}
	return c
}

// AppendEvent validates input against the write policy gate, serializes on
// (entity_id) via the per-entity lock, and commits the event (spec §4.1,
// §4.7, §6 ordering guarantee: "Events for the same (entity_id, slot_key)
// are serialized").
func (c *Core) AppendEvent(ctx context.Context, input types.EventInput) (*types.MemoryEvent, error) {
	if err := policy.Validate(input); err != nil {
		return nil, err
	}

	unlock := c.locks.Lock(input.EntityID)
	defer unlock()

	event, err := c.store.AppendEvent(ctx, input)
	if err != nil {
		return nil, err
	}

	c.enqueueBackfill(event)
	return event, nil
}

// AppendInferenceEvent is the inference-path append (spec §4.7
// "inference"): same policy gate, distinct storage method since backends
// may apply different durability/consolidation rules to inferred events.
func (c *Core) AppendInferenceEvent(ctx context.Context, input types.EventInput) (*types.MemoryEvent, error) {
	if err := policy.Validate(input); err != nil {
		return nil, err
	}

	unlock := c.locks.Lock(input.EntityID)
	defer unlock()

	event, err := c.store.AppendInferenceEvent(ctx, input)
	if err != nil {
		return nil, err
	}

	c.enqueueBackfill(event)
	return event, nil
}

func (c *Core) enqueueBackfill(event *types.MemoryEvent) {
	if c.backfill == nil || event == nil {
		return
	}
	docID := event.EntityID + ":" + event.SlotKey
	c.backfill.Enqueue(docID, event.Value)
}

// Ingest runs env through the ingestion pipeline (spec §4.6: normalize,
// classify, dedup) and, if it isn't a duplicate, appends the resulting
// event through the same policy gate and per-entity lock as AppendEvent.
// The bool result reports whether env was dropped as a duplicate, in
// which case the returned event is nil and no error is raised — matching
// original_source's "duplicate ingestion is not an error" behavior.
func (c *Core) Ingest(ctx context.Context, env *types.SignalEnvelope, embedding []float32) (*types.MemoryEvent, bool, error) {
	result, err := c.pipeline.Process(ctx, env, embedding)
	if err != nil {
		return nil, false, err
	}
	if result.Duplicate {
		return nil, true, nil
	}

	event, err := c.AppendEvent(ctx, result.Input)
	if err != nil {
		return nil, false, err
	}
	return event, false, nil
}

// RecallScoped performs the hybrid-search recall described in spec
// §4.3-§4.5. If query.QueryEmbedding is nil and an embedder is wired, the
// query text is embedded first so the vector leg of ranking is exercised
// even when the caller only supplies raw text.
func (c *Core) RecallScoped(ctx context.Context, query types.RecallQuery) ([]types.RecallItem, error) {
	if query.EntityID == "" {
		return nil, fmt.Errorf("%w: entity_id is required", mcerrors.ErrQuery)
	}
	if query.PolicyContext != nil && query.PolicyContext.TenantEntityID != "" && query.PolicyContext.TenantEntityID != query.EntityID {
		return nil, fmt.Errorf("%w: tenant scope mismatch", mcerrors.ErrPolicyDenied)
	}

	if query.QueryEmbedding == nil && c.embedder != nil && query.Query != "" {
		vec, err := c.embedder.Embed(ctx, query.Query)
		if err == nil {
			query.QueryEmbedding = vec
		}
	}

	return c.store.RecallScoped(ctx, query)
}

// ResolveSlot returns the current projected value for (entityID, slotKey).
func (c *Core) ResolveSlot(ctx context.Context, entityID, slotKey string) (*types.BeliefSlot, error) {
	return c.store.ResolveSlot(ctx, entityID, slotKey)
}

// ForgetSlot executes the delete protocol, serialized per-entity alongside
// appends so a concurrent append cannot race a delete for the same slot.
func (c *Core) ForgetSlot(ctx context.Context, entityID, slotKey string, mode types.ForgetMode, reason, requestedBy string) (*types.ForgetOutcome, error) {
	if !mode.IsValid() {
		return nil, fmt.Errorf("%w: unrecognized forget mode %q", mcerrors.ErrPolicyDenied, mode)
	}

	unlock := c.locks.Lock(entityID)
	defer unlock()

	return c.store.ForgetSlot(ctx, entityID, slotKey, mode, reason, requestedBy)
}

// CountEvents returns the event count for entityID, or across all entities
// if entityID is empty.
func (c *Core) CountEvents(ctx context.Context, entityID string) (int64, error) {
	return c.store.CountEvents(ctx, entityID)
}

// HealthCheck reports whether the underlying storage backend is reachable.
func (c *Core) HealthCheck(ctx context.Context) error {
	return c.store.HealthCheck(ctx)
}

// Close releases resources held by the underlying storage backend.
func (c *Core) Close() error {
	return c.store.Close()
}
