package keyword

import (
	"math"
	"testing"
)

func TestComputeIDF(t *testing.T) {
	// Rare term: standard BM25 idf.
	got := ComputeIDF(1, 100)
	want := math.Log((100 - 1 + 0.5) / (1 + 0.5))
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("ComputeIDF(1, 100) = %v, want %v", got, want)
	}
}

func TestComputeIDF_Floor(t *testing.T) {
	// A term appearing in every document would get a negative idf; it must
	// be floored, never negative or zero.
	for _, n := range []int{2, 3, 10, 1000} {
		got := ComputeIDF(n, n)
		if got != MinIDF {
			t.Errorf("ComputeIDF(%d, %d) = %v, want floor %v", n, n, got, MinIDF)
		}
	}
	// Over half the corpus is already negative territory.
	if got := ComputeIDF(60, 100); got != MinIDF {
		t.Errorf("ComputeIDF(60, 100) = %v, want floor %v", got, MinIDF)
	}
}

func TestTermScore(t *testing.T) {
	// Higher tf scores higher, all else equal.
	low := TermScore(1.0, 1, DefaultK1, DefaultB, 10, 10)
	high := TermScore(1.0, 4, DefaultK1, DefaultB, 10, 10)
	if high <= low {
		t.Errorf("tf=4 (%v) should outscore tf=1 (%v)", high, low)
	}
	// Longer documents are penalized.
	long := TermScore(1.0, 1, DefaultK1, DefaultB, 100, 10)
	if long >= low {
		t.Errorf("long doc (%v) should score below average doc (%v)", long, low)
	}
	// Zero average length must not divide by zero.
	if got := TermScore(1.0, 1, DefaultK1, DefaultB, 1, 0); math.IsNaN(got) || math.IsInf(got, 0) {
		t.Errorf("TermScore with zero average = %v", got)
	}
}
