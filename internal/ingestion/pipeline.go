// Package ingestion implements the signal-to-event pipeline of spec §4.6:
// normalize, classify, dedup (exact and semantic), then hand off a
// MemoryEvent-shaped EventInput to the storage backend's append path.
package ingestion

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aeonmind/mcore/internal/mcerrors"
	"github.com/aeonmind/mcore/internal/types"
)

// ExactDedupStore is a narrow event-count capability. Pipeline holds no
// ExactDedupStore and does not consult the event log or the target slot:
// its exact dedup is the in-memory DedupCache keyed on (entity_id,
// source_kind, content), so a repeat that is no longer in the cache (for
// example after a restart) is not detected.
type ExactDedupStore interface {
	CountEvents(ctx context.Context, entityID string) (int64, error)
}

// SemanticDedupStore checks near-duplicate content by vector similarity
// against already-promoted docs (spec §4.6 step 4). Implementations that
// skip semantic dedup (no embedder configured) may return (false, nil)
// unconditionally.
type SemanticDedupStore interface {
	HasNearDuplicate(ctx context.Context, entityID string, embedding []float32) (bool, error)
}

// noopSemanticDedup always reports no near-duplicate, used when the
// pipeline is built without an embedder/vector store wired in.
type noopSemanticDedup struct{}

func (noopSemanticDedup) HasNearDuplicate(ctx context.Context, entityID string, embedding []float32) (bool, error) {
	return false, nil
}

// Pipeline turns SignalEnvelopes into EventInputs, applying the bounds,
// classification, and the two dedup checks (exact cache, semantic) of spec
// §4.6.
type Pipeline struct {
	exactCache *DedupCache
	semantic   SemanticDedupStore
	now        func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSemanticDedup wires a near-duplicate checker (spec §4.6 step 4).
func WithSemanticDedup(s SemanticDedupStore) Option {
	return func(p *Pipeline) { p.semantic = s }
}

// NewPipeline builds a Pipeline with an in-memory exact-dedup cache of the
// given capacity (spec §6 dedup_cache_capacity).
func NewPipeline(dedupCacheCapacity int, opts ...Option) *Pipeline {
	p := &Pipeline{
		exactCache: NewDedupCache(dedupCacheCapacity),
		semantic:   noopSemanticDedup{},
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Result is the outcome of running one envelope through the pipeline.
type Result struct {
	Input      types.EventInput
	Duplicate  bool
	Classified Classification
}

// Process runs spec §4.6 steps 1-6 against env: normalize bounds, classify
// risk/topic, check the exact-dedup cache, then check semantic
// near-duplicates (in an errgroup goroutine, only when an embedding is
// supplied), and build the resulting EventInput. Duplicate signals return Result{Duplicate:
// true} with a zero-value Input rather than an error — the caller drops the
// signal silently, matching original_source's "duplicate ingestion is not an
// error" behavior.
func (p *Pipeline) Process(ctx context.Context, env *types.SignalEnvelope, embedding []float32) (*Result, error) {
	if err := Normalize(env); err != nil {
		return nil, fmt.Errorf("%w: %v", mcerrors.ErrIntegrity, err)
	}

	classification := Classify(env.Content)

	exactKey := Key(env.EntityID, string(env.SourceKind), env.Content)

	var semanticDup bool
	g, gctx := errgroup.WithContext(ctx)
	exactDup := p.exactCache.Seen(exactKey)
	if len(embedding) > 0 {
		g.Go(func() error {
			dup, err := p.semantic.HasNearDuplicate(gctx, env.EntityID, embedding)
			if err != nil {
				return fmt.Errorf("semantic dedup: %w", err)
			}
			semanticDup = dup
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if exactDup || semanticDup {
		return &Result{Duplicate: true, Classified: classification}, nil
	}

	if meta, err := setClassification(env.Metadata, classification); err == nil {
		env.Metadata = meta
	}

	occurredAt := env.IngestedAt
	if text, ok := occurredAtText(env); ok {
		occurredAt = ParseOccurredAt(text, p.now())
	}

	input := types.EventInput{
		EntityID:     InferEntityHint(env),
		SlotKey:      slotKeyFor(env),
		Layer:        layerFor(env),
		EventType:    types.EventFactAdded,
		Value:        env.Content,
		Source:       sourceClassFor(env.SourceKind),
		Confidence:   confidenceFor(env.SignalTier),
		Importance:   0.5,
		PrivacyLevel: env.PrivacyLevel,
		Provenance: types.Provenance{
			SourceClass: sourceClassFor(env.SourceKind),
			Reference:   ProvenanceReference(env.SourceRef, classification),
		},
		SignalTier: env.SignalTier,
		SourceKind: env.SourceKind,
		SourceRef:  env.SourceRef,
		OccurredAt: occurredAt,
	}

	return &Result{Input: input, Classified: classification}, nil
}

// occurredAtText looks for a free-text timestamp hint in metadata (spec
// §5.6: chat-sourced signals may carry "occurred_at_text" instead of a
// structured timestamp).
func occurredAtText(env *types.SignalEnvelope) (string, bool) {
	return metadataString(env.Metadata, "occurred_at_text")
}

// slotKeyFor derives a default slot_key for signals that don't carry one
// via metadata; callers with a structured slot should set
// metadata["slot_key"] explicitly. The external.<kind>.<source_ref> shape
// matches original_source and is required for policy.isIngestion's
// "external." prefix check and the semantic-dedup pattern match over
// external.{kind}.* (spec §4.6 step 4).
func slotKeyFor(env *types.SignalEnvelope) string {
	if v, ok := metadataString(env.Metadata, "slot_key"); ok {
		return v
	}
	return fmt.Sprintf("external.%s.%s", env.SourceKind, env.SourceRef)
}

// layerFor defaults new raw signals into working memory; promotion into
// episodic/semantic/procedural/identity happens through explicit
// fact_updated events downstream, not at ingestion time.
func layerFor(env *types.SignalEnvelope) types.Layer {
	if env.SignalTier == types.TierBelief {
		return types.LayerSemantic
	}
	return types.LayerWorking
}

// sourceClassFor maps ingestion origin to provenance source class (spec
// §4.6 step 2 / §3 Provenance): explicit_user for conversation/manual,
// external_primary for chat-like origins, external_secondary for
// news/api/doc.
func sourceClassFor(k types.SourceKind) types.SourceClass {
	switch k {
	case types.SourceKindManual, types.SourceKindConversation:
		return types.SourceExplicitUser
	case types.SourceKindDiscord, types.SourceKindTelegram, types.SourceKindSlack:
		return types.SourceExternalPrimary
	case types.SourceKindNews, types.SourceKindAPI, types.SourceKindDocument:
		return types.SourceExternalSecondary
	default:
		return types.SourceSystem
	}
}

// confidenceFor gives raw/unreviewed signals a lower starting confidence
// than pre-summarized or belief-grade ones (spec §4.6 step 2).
func confidenceFor(tier types.SignalTier) float64 {
	switch tier {
	case types.TierBelief:
		return 0.9
	case types.TierSummary:
		return 0.7
	case types.TierNormalized:
		return 0.6
	default:
		return 0.4
	}
}
