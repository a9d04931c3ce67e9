package vectorops

import (
	"math"
	"testing"
)

func TestCosineSimilaritySymmetricAndBounded(t *testing.T) {
	cases := [][2][]float32{
		{{1, 0, 0}, {0, 1, 0}},
		{{1, 2, 3}, {1, 2, 3}},
		{{1, 2, 3}, {-1, -2, -3}},
		{{0.5, 0.5}, {0.5, 0.5}},
	}

	for _, c := range cases {
		ab := CosineSimilarity(c[0], c[1])
		ba := CosineSimilarity(c[1], c[0])
		if ab != ba {
			t.Fatalf("not symmetric: %v vs %v", ab, ba)
		}
		if ab < 0 || ab > 1 {
			t.Fatalf("out of [0,1]: %v", ab)
		}
	}
}

func TestCosineSimilarityZeroVector(t *testing.T) {
	if got := CosineSimilarity([]float32{0, 0, 0}, []float32{1, 2, 3}); got != 0 {
		t.Fatalf("expected 0 for zero vector, got %v", got)
	}
}

func TestCosineSimilarityWrongDimension(t *testing.T) {
	if got := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}); got != 0 {
		t.Fatalf("expected 0 for mismatched dims, got %v", got)
	}
}

func TestCosineSimilarityNonFinite(t *testing.T) {
	if got := CosineSimilarity([]float32{float32(math.NaN())}, []float32{1}); got != 0 {
		t.Fatalf("expected 0 for NaN input, got %v", got)
	}
	if got := CosineSimilarity([]float32{float32(math.Inf(1))}, []float32{1}); got != 0 {
		t.Fatalf("expected 0 for +Inf input, got %v", got)
	}
}

func TestVecBytesRoundTrip(t *testing.T) {
	orig := []float32{0.1, -2.5, 3.75, 0, 1e10, -1e-10}
	got := BytesToVec(VecToBytes(orig))
	if len(got) != len(orig) {
		t.Fatalf("length mismatch: got %d want %d", len(got), len(orig))
	}
	for i := range orig {
		if got[i] != orig[i] {
			t.Fatalf("value mismatch at %d: got %v want %v", i, got[i], orig[i])
		}
	}
}

func TestVecBytesRoundTripEmpty(t *testing.T) {
	got := BytesToVec(VecToBytes(nil))
	if len(got) != 0 {
		t.Fatalf("expected empty, got %v", got)
	}
}

func TestReciprocalRankFusion(t *testing.T) {
	fused := ReciprocalRankFusion(60, []string{"b", "a", "c"}, []string{"b", "a"})

	if fused["a"] <= fused["c"] {
		t.Fatalf("expected a to outrank c: a=%v c=%v", fused["a"], fused["c"])
	}
	if fused["b"] <= fused["a"] {
		t.Fatalf("expected b (rank 1 in both lists) to outrank a: a=%v b=%v", fused["a"], fused["b"])
	}
}

func TestNormalizeByMax(t *testing.T) {
	scores := map[string]float64{"a": 2, "b": 4, "c": 0}
	NormalizeByMax(scores)
	if scores["b"] != 1 {
		t.Fatalf("expected max to normalize to 1, got %v", scores["b"])
	}
	if scores["a"] != 0.5 {
		t.Fatalf("expected a to normalize to 0.5, got %v", scores["a"])
	}
}

func TestNormalizeByMaxAllZero(t *testing.T) {
	scores := map[string]float64{"a": 0, "b": 0}
	NormalizeByMax(scores)
	if scores["a"] != 0 || scores["b"] != 0 {
		t.Fatalf("expected unchanged zeros, got %v", scores)
	}
}
