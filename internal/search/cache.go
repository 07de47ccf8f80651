package search

import (
	"container/list"
	"sync"
)

// DefaultCacheCapacity bounds the number of distinct cached queries.
const DefaultCacheCapacity = 100

// RankedDoc is one entry of a cached ranked list.
type RankedDoc struct {
	ID    string
	Score float64
}

// ScoreCache is a bounded LRU cache from a canonical query signature to its
// ranked result list. Any document mutation or index rebuild invalidates it
// wholesale; the coarseness is deliberate.
type ScoreCache struct {
	capacity int
	cache    map[string]*list.Element
	lru      *list.List
	mu       sync.RWMutex
}

type cacheEntry struct {
	key    string
	ranked []RankedDoc
}

// NewScoreCache creates a cache with the given capacity.
// Non-positive capacities fall back to DefaultCacheCapacity.
func NewScoreCache(capacity int) *ScoreCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &ScoreCache{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Get returns the cached ranked list for key if present. It takes the
// write lock: a hit reorders the LRU list.
func (c *ScoreCache) Get(key string) ([]RankedDoc, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		return elem.Value.(*cacheEntry).ranked, true
	}
	return nil, false
}

// Set stores the ranked list for key, evicting the least-recently-used
// entry past capacity.
func (c *ScoreCache) Set(key string, ranked []RankedDoc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).ranked = ranked
		return
	}

	elem := c.lru.PushFront(&cacheEntry{key: key, ranked: ranked})
	c.cache[key] = elem

	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.lru.Remove(oldest)
			delete(c.cache, oldest.Value.(*cacheEntry).key)
		}
	}
}

// InvalidateAll drops every cached ranking.
func (c *ScoreCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*list.Element)
	c.lru = list.New()
}

// Len returns the number of cached queries.
func (c *ScoreCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lru.Len()
}
