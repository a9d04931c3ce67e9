package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/aeonmind/mcore/internal/mcerrors"
	"github.com/aeonmind/mcore/internal/ranker"
	"github.com/aeonmind/mcore/internal/types"
	"github.com/aeonmind/mcore/internal/vectorops"
)

// recencyHalfLife governs the exponential decay applied to a doc's age
// since updated_at (spec §4.4: "Recency is an exponential or hyperbolic
// decay of age since the doc's updated_at"). 30 days is the chosen
// concrete half-life; the spec leaves the constant unspecified.
const recencyHalfLife = 30 * 24 * time.Hour

// RecallScoped implements storage.Backend.RecallScoped (spec §4.3-§4.4):
// gathers keyword (bm25) and, if a query embedding is supplied, vector
// (cosine) candidates scoped to entityID, fuses them via the weighted
// default ranker, and filters the result through the deletion ledger's
// replay gate before returning.
func (db *DB) RecallScoped(ctx context.Context, query types.RecallQuery) ([]types.RecallItem, error) {
	docs, err := db.candidateDocs(ctx, query.EntityID)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}

	keywordScores, err := db.keywordScores(ctx, query.EntityID, query.Query)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	candidates := make([]ranker.Candidate, 0, len(docs))
	byID := make(map[string]docRow, len(docs))
	for _, d := range docs {
		byID[d.docID] = d
		vectorScore := 0.0
		if len(query.QueryEmbedding) > 0 && len(d.embedding) > 0 {
			vectorScore = vectorops.CosineSimilarity(query.QueryEmbedding, d.embedding)
		}
		candidates = append(candidates, ranker.Candidate{
			DocID:                d.docID,
			VectorScore:          vectorScore,
			KeywordScore:         keywordScores[d.docID],
			Recency:              ranker.RecencyDecay(now.Sub(d.updatedAt), recencyHalfLife),
			Importance:           d.importance,
			Reliability:          d.reliability,
			ContradictionPenalty: d.contradictionPenalty,
		})
	}

	limit := query.Limit
	ranked := ranker.Rank(candidates, ranker.FusionWeighted, 0)

	denylist, err := db.denylistedSlots(ctx, query.EntityID)
	if err != nil {
		return nil, err
	}

	allowSecret := query.PolicyContext != nil && query.PolicyContext.AllowSecret

	out := make([]types.RecallItem, 0, len(ranked))
	for _, r := range ranked {
		d, ok := byID[r.DocID]
		if !ok {
			continue
		}
		if denylist[d.slotKey] {
			continue
		}
		if d.visibility == string(types.VisibilitySecret) && !allowSecret {
			continue
		}
		if d.promotionStatus == string(types.PromotionRejected) {
			continue
		}
		out = append(out, types.RecallItem{
			EntityID:     d.entityID,
			SlotKey:      d.slotKey,
			Value:        d.textBody,
			Source:       types.SourceClass(d.provenanceSourceClass),
			Confidence:   d.reliability,
			Importance:   d.importance,
			PrivacyLevel: types.PrivacyLevel(visibilityToPrivacy(d.visibility)),
			Score:        r.Score,
			OccurredAt:   d.updatedAt,
		})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func visibilityToPrivacy(v string) string {
	switch v {
	case string(types.VisibilitySecret):
		return string(types.PrivacySecret)
	case string(types.VisibilityPublic):
		return string(types.PrivacyPublic)
	default:
		return string(types.PrivacyPrivate)
	}
}

type docRow struct {
	docID                 string
	entityID              string
	slotKey               string
	textBody              string
	provenanceSourceClass string
	importance            float64
	reliability           float64
	contradictionPenalty  float64
	visibility            string
	promotionStatus       string
	embedding             []float32
	updatedAt             time.Time
}

// candidateDocs loads every non-rejected retrieval doc for entityID; secret
// visibility is filtered later in RecallScoped (spec R1: "secret or non-promoted rows never
// surface to recall" — promotion_status=candidate still surfaces per
// spec §4.3's definition of the excluded set being promotion_status NOT
// IN {promoted, candidate}).
func (db *DB) candidateDocs(ctx context.Context, entityID string) ([]docRow, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT doc_id, entity_id, slot_key, text_body, provenance_source_class,
			importance, reliability, contradiction_penalty, visibility, promotion_status,
			embedding, updated_at
		FROM retrieval_docs
		WHERE entity_id = ? AND promotion_status IN ('promoted', 'candidate')`, entityID)
	if err != nil {
		return nil, fmt.Errorf("%w: load retrieval docs: %v", mcerrors.ErrQuery, err)
	}
	defer rows.Close()

	var out []docRow
	for rows.Next() {
		var d docRow
		var embedding []byte
		var updatedAt time.Time
		if err := rows.Scan(&d.docID, &d.entityID, &d.slotKey, &d.textBody, &d.provenanceSourceClass,
			&d.importance, &d.reliability, &d.contradictionPenalty, &d.visibility, &d.promotionStatus,
			&embedding, &updatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan retrieval doc: %v", mcerrors.ErrQuery, err)
		}
		if len(embedding) > 0 {
			d.embedding = vectorops.BytesToVec(embedding)
		}
		d.updatedAt = updatedAt.UTC()
		out = append(out, d)
	}
	return out, rows.Err()
}

// keywordScores runs the FTS5 bm25 query scoped to entityID (spec §4.3:
// "Query terms are OR-combined as quoted phrases; empty queries yield
// empty results"). bm25() returns lower-is-better; it is negated so
// higher is better like every other score in the ranker.
func (db *DB) keywordScores(ctx context.Context, entityID, query string) (map[string]float64, error) {
	scores := map[string]float64{}
	if query == "" {
		return scores, nil
	}

	match := ftsOrQuery(query)
	if match == "" {
		return scores, nil
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT doc_id, bm25(retrieval_fts) FROM retrieval_fts
		WHERE entity_id = ? AND retrieval_fts MATCH ?
		ORDER BY bm25(retrieval_fts)`, entityID, match)
	if err != nil {
		// FTS5 raises on malformed MATCH syntax for adversarial query text;
		// treat it as "no keyword matches" rather than failing recall.
		return scores, nil
	}
	defer rows.Close()

	for rows.Next() {
		var docID string
		var bm25 float64
		if err := rows.Scan(&docID, &bm25); err != nil {
			return nil, fmt.Errorf("%w: scan bm25 row: %v", mcerrors.ErrQuery, err)
		}
		scores[docID] = -bm25
	}
	return scores, rows.Err()
}

// ftsOrQuery builds an FTS5 MATCH expression that OR-combines each
// whitespace-delimited term as a quoted phrase, so punctuation inside a
// term cannot be interpreted as FTS5 query syntax.
func ftsOrQuery(query string) string {
	var terms []string
	start := -1
	for i, r := range query {
		if r == ' ' || r == '\t' || r == '\n' {
			if start >= 0 {
				terms = append(terms, query[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		terms = append(terms, query[start:])
	}
	if len(terms) == 0 {
		return ""
	}

	out := ""
	for i, t := range terms {
		if i > 0 {
			out += " OR "
		}
		out += `"` + escapeFTSQuote(t) + `"`
	}
	return out
}

func escapeFTSQuote(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '"' {
			out = append(out, '"', '"')
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

// denylistedSlots returns the set of slot_keys permanently blocked for
// entityID by a hard or tombstone deletion_ledger entry (spec §4.5 replay
// gate). Soft-deleted docs are already excluded via promotion_status in
// candidateDocs, so they don't need to appear here.
func (db *DB) denylistedSlots(ctx context.Context, entityID string) (map[string]bool, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT DISTINCT target_slot_key FROM deletion_ledger WHERE entity_id = ? AND phase IN ('hard', 'tombstone')`, entityID)
	if err != nil {
		return nil, fmt.Errorf("%w: load denylist: %v", mcerrors.ErrQuery, err)
	}
	defer rows.Close()

	out := map[string]bool{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		out[key] = true
	}
	return out, rows.Err()
}
