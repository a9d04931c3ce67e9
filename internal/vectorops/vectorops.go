// Package vectorops implements the small numeric building blocks shared by
// the retrieval index and the ranker: cosine similarity, embedding byte
// (de)serialization, and reciprocal-rank-fusion list merging. It is
// deliberately dependency-free arithmetic, kept separate from storage and
// ranking policy so it can be unit tested in isolation.
package vectorops

import (
	"encoding/binary"
	"math"
)

// CosineSimilarity returns the cosine similarity between a and b, clamped
// to [0,1]. Mismatched dimensions, zero vectors, and non-finite inputs all
// yield 0 rather than panicking (spec §4.3, §8).
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		av := float64(a[i])
		bv := float64(b[i])
		if !isFinite(av) || !isFinite(bv) {
			return 0
		}
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if !isFinite(sim) {
		return 0
	}
	return clamp01(sim)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
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

// VecToBytes encodes a float32 embedding as a little-endian byte sequence
// for storage in the retrieval_docs BLOB column.
func VecToBytes(v []float32) []byte {
	out := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

// BytesToVec decodes a byte sequence produced by VecToBytes back into a
// float32 embedding. VecToBytes ∘ BytesToVec is the identity over
// finite-length float sequences (spec §8); a truncated/misaligned byte
// slice yields a shorter vector rather than an error.
func BytesToVec(b []byte) []float32 {
	n := len(b) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

// RankedID is one member of a ranked list fed into ReciprocalRankFusion.
type RankedID struct {
	ID    string
	Score float64
}

// ReciprocalRankFusion merges multiple ranked lists of doc IDs into a
// single fused score per ID, using score = Σ 1/(k + rank_i) over list
// memberships (spec §4.4). k is typically 60. Lists need not overlap;
// an ID present in only one list is still scored from that list alone.
func ReciprocalRankFusion(k float64, lists ...[]string) map[string]float64 {
	fused := make(map[string]float64)
	for _, list := range lists {
		for rank, id := range list {
			fused[id] += 1.0 / (k + float64(rank+1))
		}
	}
	return fused
}

// NormalizeByMax rescales scores in place so the maximum observed value
// maps to 1.0, used by weighted fusion to put BM25 scores on the same
// [0,1] footing as cosine similarity before combining (spec §4.4). A list
// whose max is 0 is left unchanged.
func NormalizeByMax(scores map[string]float64) {
	max := 0.0
	for _, s := range scores {
		if s > max {
			max = s
		}
	}
	if max == 0 {
		return
	}
	for id, s := range scores {
		scores[id] = s / max
	}
}
