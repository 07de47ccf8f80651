package search

import (
	"fmt"
	"testing"
)

func TestScoreCache_GetSet(t *testing.T) {
	cache := NewScoreCache(2)

	if _, ok := cache.Get("missing"); ok {
		t.Error("hit on empty cache")
	}
	ranked := []RankedDoc{{ID: "a", Score: 2.0}, {ID: "b", Score: 1.0}}
	cache.Set("q1", ranked)
	got, ok := cache.Get("q1")
	if !ok || len(got) != 2 || got[0].ID != "a" {
		t.Errorf("got %v, %v", got, ok)
	}
}

func TestScoreCache_Eviction(t *testing.T) {
	cache := NewScoreCache(2)
	cache.Set("q1", nil)
	cache.Set("q2", nil)

	// Touch q1 so q2 is the least recently used.
	cache.Get("q1")
	cache.Set("q3", nil)

	if _, ok := cache.Get("q2"); ok {
		t.Error("least-recently-used entry survived eviction")
	}
	if _, ok := cache.Get("q1"); !ok {
		t.Error("recently used entry was evicted")
	}
	if cache.Len() != 2 {
		t.Errorf("len = %d, want 2", cache.Len())
	}
}

func TestScoreCache_CapacityBound(t *testing.T) {
	cache := NewScoreCache(100)
	for i := 0; i < 250; i++ {
		cache.Set(fmt.Sprintf("q%d", i), nil)
	}
	if cache.Len() != 100 {
		t.Errorf("len = %d, want 100", cache.Len())
	}
}

func TestScoreCache_InvalidateAll(t *testing.T) {
	cache := NewScoreCache(10)
	cache.Set("q1", []RankedDoc{{ID: "a", Score: 1}})
	cache.InvalidateAll()
	if _, ok := cache.Get("q1"); ok {
		t.Error("entry survived InvalidateAll")
	}
	if cache.Len() != 0 {
		t.Errorf("len = %d after invalidation", cache.Len())
	}
}
