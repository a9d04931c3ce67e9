// Package types defines the Memory Core's data model: MemoryEvent,
// BeliefSlot, RetrievalDoc, DeletionLedger, and SignalEnvelope, plus the
// enumerations and small value types that compose them.
package types

import "time"

// Layer is the retention/intent category of a memory, from short-lived
// working memory to durable identity facts.
type Layer string

const (
	LayerWorking    Layer = "working"
	LayerEpisodic   Layer = "episodic"
	LayerSemantic   Layer = "semantic"
	LayerProcedural Layer = "procedural"
	LayerIdentity   Layer = "identity"
)

// IsValid reports whether l is one of the enumerated layers.
func (l Layer) IsValid() bool {
	switch l {
	case LayerWorking, LayerEpisodic, LayerSemantic, LayerProcedural, LayerIdentity:
		return true
	}
	return false
}

// EventType enumerates the kinds of MemoryEvent.
type EventType string

const (
	EventFactAdded          EventType = "fact_added"
	EventFactUpdated        EventType = "fact_updated"
	EventPreferenceSet      EventType = "preference_set"
	EventInferredClaim      EventType = "inferred_claim"
	EventContradictionMarked EventType = "contradiction_marked"
	EventSummaryCompacted   EventType = "summary_compacted"
)

// SourceClass is the provenance class of a value.
type SourceClass string

const (
	SourceExplicitUser     SourceClass = "explicit_user"
	SourceToolVerified     SourceClass = "tool_verified"
	SourceExternalPrimary  SourceClass = "external_primary"
	SourceExternalSecondary SourceClass = "external_secondary"
	SourceSystem           SourceClass = "system"
	SourceInferred         SourceClass = "inferred"
)

// IsValid reports whether s is one of the enumerated source classes.
func (s SourceClass) IsValid() bool {
	switch s {
	case SourceExplicitUser, SourceToolVerified, SourceExternalPrimary, SourceExternalSecondary, SourceSystem, SourceInferred:
		return true
	}
	return false
}

// sourceRank gives each SourceClass a deterministic rank used by the
// projection engine's ordering (spec §4.2 step 1-2). Higher sorts first.
var sourceRank = map[SourceClass]int{
	SourceExplicitUser:      5,
	SourceToolVerified:      5,
	SourceExternalPrimary:   4,
	SourceSystem:            3,
	SourceExternalSecondary: 2,
	SourceInferred:          1,
}

// Rank returns the deterministic source rank used for winner ordering.
// Unknown source classes rank lowest.
func (s SourceClass) Rank() int {
	if r, ok := sourceRank[s]; ok {
		return r
	}
	return 0
}

// PrivacyLevel controls whether a value may surface through non-governance
// recall paths.
type PrivacyLevel string

const (
	PrivacyPublic  PrivacyLevel = "public"
	PrivacyPrivate PrivacyLevel = "private"
	PrivacySecret  PrivacyLevel = "secret"
)

// IsValid reports whether p is one of the enumerated privacy levels.
func (p PrivacyLevel) IsValid() bool {
	switch p {
	case PrivacyPublic, PrivacyPrivate, PrivacySecret:
		return true
	}
	return false
}

// SignalTier is the ingestion maturity of a value, from raw input through
// belief-grade summary.
type SignalTier string

const (
	TierRaw        SignalTier = "raw"
	TierNormalized SignalTier = "normalized"
	TierSummary    SignalTier = "summary"
	TierBelief     SignalTier = "belief"
)

// SourceKind is the discrete set of ingestion origins.
type SourceKind string

const (
	SourceKindConversation SourceKind = "conversation"
	SourceKindManual       SourceKind = "manual"
	SourceKindDiscord      SourceKind = "discord"
	SourceKindTelegram     SourceKind = "telegram"
	SourceKindSlack        SourceKind = "slack"
	SourceKindAPI          SourceKind = "api"
	SourceKindNews         SourceKind = "news"
	SourceKindDocument     SourceKind = "document"
)

// IsValid reports whether k is one of the enumerated source kinds.
func (k SourceKind) IsValid() bool {
	switch k {
	case SourceKindConversation, SourceKindManual, SourceKindDiscord, SourceKindTelegram,
		SourceKindSlack, SourceKindAPI, SourceKindNews, SourceKindDocument:
		return true
	}
	return false
}

// RetentionTier is derived deterministically from Layer (spec I5) and is
// never manually overwritten.
type RetentionTier string

const (
	RetentionShort  RetentionTier = "short"
	RetentionMedium RetentionTier = "medium"
	RetentionLong   RetentionTier = "long"
	RetentionNone   RetentionTier = "none"
)

// Provenance names the origin of a value.
type Provenance struct {
	SourceClass SourceClass `json:"source_class"`
	Reference   string      `json:"reference"`
	EvidenceURI string      `json:"evidence_uri,omitempty"`
}

// MemoryEvent is the immutable, append-only unit of the event log.
// See spec §3 invariants I1-I4.
type MemoryEvent struct {
	EventID      string      `json:"event_id"`
	EntityID     string      `json:"entity_id"`
	SlotKey      string      `json:"slot_key"`
	Layer        Layer       `json:"layer"`
	EventType    EventType   `json:"event_type"`
	Value        string      `json:"value"`
	Source       SourceClass `json:"source"`
	Confidence   float64     `json:"confidence"`
	Importance   float64     `json:"importance"`
	PrivacyLevel PrivacyLevel `json:"privacy_level"`
	Provenance   Provenance  `json:"provenance"`
	SignalTier   SignalTier  `json:"signal_tier"`
	SourceKind   SourceKind  `json:"source_kind"`
	SourceRef    string      `json:"source_ref"`

	OccurredAt  time.Time `json:"occurred_at"`
	IngestedAt  time.Time `json:"ingested_at"`

	SupersedesEventID string `json:"supersedes_event_id,omitempty"`

	RetentionTier        RetentionTier `json:"retention_tier"`
	RetentionExpiresAt    *time.Time    `json:"retention_expires_at,omitempty"`
}

// EventInput is the caller-supplied payload for append_event /
// append_inference_event; fields the core owns (EventID, IngestedAt,
// RetentionTier, RetentionExpiresAt) are filled in by the event log.
type EventInput struct {
	EntityID     string
	SlotKey      string
	Layer        Layer
	EventType    EventType
	Value        string
	Source       SourceClass
	Confidence   float64
	Importance   float64
	PrivacyLevel PrivacyLevel
	Provenance   Provenance
	SignalTier   SignalTier
	SourceKind   SourceKind
	SourceRef    string
	OccurredAt   time.Time
	SupersedesEventID string
}

// SlotStatus is the lifecycle state of a BeliefSlot.
type SlotStatus string

const (
	SlotActive     SlotStatus = "active"
	SlotTombstoned SlotStatus = "tombstoned"
)

// BeliefSlot is the mutable, conflict-resolved projection of the event log
// for one (entity_id, slot_key). See spec §3 invariants B1-B3.
type BeliefSlot struct {
	EntityID      string       `json:"entity_id"`
	SlotKey       string       `json:"slot_key"`
	Value         string       `json:"value"`
	Status        SlotStatus   `json:"status"`
	WinnerEventID string       `json:"winner_event_id"`
	Source        SourceClass  `json:"source"`
	Confidence    float64      `json:"confidence"`
	Importance    float64      `json:"importance"`
	PrivacyLevel  PrivacyLevel `json:"privacy_level"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Visibility controls whether a RetrievalDoc may surface through search.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
	VisibilitySecret  Visibility = "secret"
)

// PromotionStatus gates whether a doc is eligible for search at all,
// independent of Visibility (spec §4.3: "secret or non-promoted rows").
type PromotionStatus string

const (
	PromotionPromoted  PromotionStatus = "promoted"
	PromotionCandidate PromotionStatus = "candidate"
	PromotionRejected  PromotionStatus = "rejected"
)

// EmbeddingStatus tracks the off-write-path backfill of a doc's vector.
type EmbeddingStatus string

const (
	EmbeddingReady   EmbeddingStatus = "ready"
	EmbeddingPending EmbeddingStatus = "pending"
	EmbeddingNone    EmbeddingStatus = "none"
)

// RetrievalDoc is the mutable, search-facing projection of a BeliefSlot.
// See spec §3 invariants R1-R3.
type RetrievalDoc struct {
	DocID      string `json:"doc_id"` // entity_id:slot_key
	EntityID   string `json:"entity_id"`
	SlotKey    string `json:"slot_key"`
	TextBody   string `json:"text_body"`
	Layer      Layer  `json:"layer"`
	Provenance Provenance `json:"provenance"`

	RetentionTier      RetentionTier `json:"retention_tier"`
	RetentionExpiresAt *time.Time    `json:"retention_expires_at,omitempty"`

	RecencyScore        float64 `json:"recency_score"`
	Importance           float64 `json:"importance"`
	Reliability          float64 `json:"reliability"`
	ContradictionPenalty float64 `json:"contradiction_penalty"`

	Visibility      Visibility      `json:"visibility"`
	PromotionStatus PromotionStatus `json:"promotion_status"`
	EmbeddingStatus EmbeddingStatus `json:"embedding_status"`

	Embedding []float32 `json:"embedding,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// ForgetMode selects the delete protocol applied to a slot (spec §4.5).
type ForgetMode string

const (
	ForgetSoft      ForgetMode = "soft"
	ForgetHard      ForgetMode = "hard"
	ForgetTombstone ForgetMode = "tombstone"
)

// IsValid reports whether m is one of the enumerated forget modes.
func (m ForgetMode) IsValid() bool {
	switch m {
	case ForgetSoft, ForgetHard, ForgetTombstone:
		return true
	}
	return false
}

// DeletionLedger is an append-only audit + denylist entry. See spec §3
// invariant D1.
type DeletionLedger struct {
	LedgerID    string     `json:"ledger_id"`
	EntityID    string     `json:"entity_id"`
	SlotKey     string     `json:"target_slot_key"`
	Phase       ForgetMode `json:"phase"`
	Reason      string     `json:"reason"`
	RequestedBy string     `json:"requested_by"`
	ExecutedAt  time.Time  `json:"executed_at"`
}

// SignalEnvelope is the transient input to the ingestion pipeline. It is
// never persisted in raw form (spec §3).
type SignalEnvelope struct {
	SourceKind   SourceKind     `json:"source_kind"`
	SourceRef    string         `json:"source_ref"`
	Content      string         `json:"content"`
	EntityID     string         `json:"entity_id"`
	SignalTier   SignalTier     `json:"signal_tier"`
	PrivacyLevel PrivacyLevel   `json:"privacy_level"`
	Language     string         `json:"language"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	IngestedAt   time.Time      `json:"ingested_at"`
}

// RecallItem is one ranked result of recall_scoped.
type RecallItem struct {
	EntityID     string       `json:"entity_id"`
	SlotKey      string       `json:"slot_key"`
	Value        string       `json:"value"`
	Redacted     bool         `json:"redacted"`
	Source       SourceClass  `json:"source"`
	Confidence   float64      `json:"confidence"`
	Importance   float64      `json:"importance"`
	PrivacyLevel PrivacyLevel `json:"privacy_level"`
	Score        float64      `json:"score"`
	OccurredAt   time.Time    `json:"occurred_at"`
}

// ForgetStatus is the overall outcome classification of a forget_slot call.
type ForgetStatus string

const (
	StatusComplete            ForgetStatus = "Complete"
	StatusDegradedNonComplete ForgetStatus = "DegradedNonComplete"
	StatusIncomplete          ForgetStatus = "Incomplete"
)

// Requirement is what a completeness-check artifact must satisfy.
type Requirement string

const (
	RequireNonRetrievable Requirement = "MustBeNonRetrievable"
	RequireDeleted        Requirement = "MustBeDeleted"
)

// Artifact names one of the fixed set of forget completeness-check targets.
type Artifact string

const (
	ArtifactSlot          Artifact = "Slot"
	ArtifactRetrievalDocs Artifact = "RetrievalDocs"
	ArtifactProjection    Artifact = "Projection"
)

// ArtifactCheck is the per-artifact outcome of a forget_slot completeness
// check (spec §4.5).
type ArtifactCheck struct {
	Artifact    Artifact    `json:"artifact"`
	Requirement Requirement `json:"requirement"`
	Satisfied   bool        `json:"satisfied"`
	Detail      string      `json:"detail,omitempty"`
}

// ForgetOutcome is the result of forget_slot.
type ForgetOutcome struct {
	Applied        bool            `json:"applied"`
	Complete       bool            `json:"complete"`
	Degraded       bool            `json:"degraded"`
	Status         ForgetStatus    `json:"status"`
	ArtifactChecks []ArtifactCheck `json:"artifact_checks"`
}

// RecallQuery is the scoped query parameter of recall_scoped.
type RecallQuery struct {
	EntityID string
	Query    string
	Limit    int
	// QueryEmbedding is the caller-computed embedding of Query, used for the
	// vector leg of hybrid search (spec §4.4). Nil falls back to keyword-only
	// scoring (vector_score treated as 0 for every candidate).
	QueryEmbedding []float32
	// PolicyContext carries the caller identity/scope for governance paths;
	// nil for ordinary agent recall.
	PolicyContext *PolicyContext
}

// PolicyContext identifies the actor and intended tenant scope of a
// governance-surfaced operation, used to catch tenant scope mismatches.
type PolicyContext struct {
	Actor          string
	TenantEntityID string
	AllowSecret    bool
}
