// Package ranker computes the final salience score for retrieval
// candidates, combining vector similarity, keyword relevance, recency
// decay, importance, reliability, and a contradiction penalty (spec §4.4).
package ranker

import (
	"math"
	"sort"
	"time"

	"github.com/aeonmind/mcore/internal/vectorops"
)

// FusionMode selects how keyword and vector result sets are combined
// before the final weighted sum (spec §4.4).
type FusionMode string

const (
	// FusionWeighted normalizes keyword scores by the observed max, then
	// combines vector+keyword with the formula's fixed weights. Default.
	FusionWeighted FusionMode = "weighted"
	// FusionRRF combines vector-rank and keyword-rank lists via
	// reciprocal rank fusion, for when the two scores are not on a
	// directly comparable scale.
	FusionRRF FusionMode = "rrf"
)

// Weights are the fixed coefficients of the final salience formula (spec
// §4.4). They are not configurable per the spec text (the formula is
// stated with literal constants); Weights exists so tests and the
// RRF path can reuse the same combination logic without repeating magic
// numbers.
type Weights struct {
	Vector       float64
	Keyword      float64
	Recency      float64
	Importance   float64
	Reliability  float64
}

// DefaultWeights returns the spec §4.4 formula's fixed coefficients:
// final = 0.35·vector + 0.25·bm25 + 0.20·recency + 0.10·importance + 0.10·reliability − penalty.
func DefaultWeights() Weights {
	return Weights{Vector: 0.35, Keyword: 0.25, Recency: 0.20, Importance: 0.10, Reliability: 0.10}
}

// RRFConstant is the k in score = Σ 1/(k + rank_i) (spec §4.4).
const RRFConstant = 60.0

// Candidate is one retrieval candidate row fed into Rank (spec §4.4:
// "candidate (doc_id, vector_score, keyword_score) rows").
type Candidate struct {
	DocID                string
	VectorScore          float64 // raw cosine similarity, already in [0,1]
	KeywordScore         float64 // raw bm25 score, unbounded, higher is better
	Recency              float64 // precomputed decay in [0,1]
	Importance           float64 // in [0,1]
	Reliability          float64 // in [0,1]
	ContradictionPenalty float64 // >= 0, unbounded above
}

// Scored is one ranked output row.
type Scored struct {
	DocID string
	Score float64
}

// RecencyDecay returns an exponential decay of age against halfLife:
// score = 2^(-age/halfLife), in (0,1]. age<=0 yields 1. A zero or negative
// halfLife disables decay (returns 1), matching "no layer retention"
// configured as infinite freshness.
func RecencyDecay(age, halfLife time.Duration) float64 {
	if halfLife <= 0 {
		return 1
	}
	if age <= 0 {
		return 1
	}
	ratio := float64(age) / float64(halfLife)
	return math.Exp(-math.Ln2 * ratio)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Rank scores and sorts candidates according to mode, truncating to limit
// (limit<=0 means unlimited). Output is deterministically ordered:
// descending score, ties broken by doc_id ascending (spec §4.4).
func Rank(candidates []Candidate, mode FusionMode, limit int) []Scored {
	if len(candidates) == 0 {
		return nil
	}

	var scores map[string]float64
	switch mode {
	case FusionRRF:
		scores = rankRRF(candidates)
	default:
		scores = rankWeighted(candidates)
	}

	out := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, Scored{DocID: c.DocID, Score: scores[c.DocID]})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].DocID < out[j].DocID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func rankWeighted(candidates []Candidate) map[string]float64 {
	w := DefaultWeights()

	keywordRaw := make(map[string]float64, len(candidates))
	for _, c := range candidates {
		keywordRaw[c.DocID] = c.KeywordScore
	}
	vectorops.NormalizeByMax(keywordRaw)

	scores := make(map[string]float64, len(candidates))
	for _, c := range candidates {
		vector := clamp01(c.VectorScore)
		keyword := clamp01(keywordRaw[c.DocID])
		recency := clamp01(c.Recency)
		importance := clamp01(c.Importance)
		reliability := clamp01(c.Reliability)
		penalty := c.ContradictionPenalty
		if penalty < 0 {
			penalty = 0
		}

		scores[c.DocID] = w.Vector*vector + w.Keyword*keyword + w.Recency*recency +
			w.Importance*importance + w.Reliability*reliability - penalty
	}
	return scores
}

// rankRRF combines the vector-ranked and keyword-ranked orderings via
// reciprocal rank fusion, then folds in recency/importance/reliability and
// the contradiction penalty at their usual weights, with the fused
// retrieval term normalized to occupy the (Vector+Keyword) weight budget.
func rankRRF(candidates []Candidate) map[string]float64 {
	w := DefaultWeights()

	byVector := make([]string, len(candidates))
	copy(byVector, idsSortedBy(candidates, func(c Candidate) float64 { return c.VectorScore }))
	byKeyword := idsSortedBy(candidates, func(c Candidate) float64 { return c.KeywordScore })

	fused := vectorops.ReciprocalRankFusion(RRFConstant, byVector, byKeyword)
	vectorops.NormalizeByMax(fused)

	retrievalBudget := w.Vector + w.Keyword

	scores := make(map[string]float64, len(candidates))
	for _, c := range candidates {
		recency := clamp01(c.Recency)
		importance := clamp01(c.Importance)
		reliability := clamp01(c.Reliability)
		penalty := c.ContradictionPenalty
		if penalty < 0 {
			penalty = 0
		}

		scores[c.DocID] = retrievalBudget*fused[c.DocID] + w.Recency*recency +
			w.Importance*importance + w.Reliability*reliability - penalty
	}
	return scores
}

func idsSortedBy(candidates []Candidate, key func(Candidate) float64) []string {
	type pair struct {
		id    string
		score float64
	}
	pairs := make([]pair, len(candidates))
	for i, c := range candidates {
		pairs[i] = pair{c.DocID, key(c)}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].score != pairs[j].score {
			return pairs[i].score > pairs[j].score
		}
		return pairs[i].id < pairs[j].id
	})
	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = p.id
	}
	return out
}
