// Package indexer rebuilds per-document keyword frequencies and the
// per-collection BM25 statistics caches.
package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BillStark001/quizzy/internal/keyword"
	"github.com/BillStark001/quizzy/internal/storage"
)

// Weights applied in the tag space. Categories are curated, higher-signal
// labels and must dominate tag-space ranking.
const (
	tagWeight      = 1
	categoryWeight = 4
)

// Fields never fed to the tokenizer: the key, relational references, and
// the derived fields themselves.
var excludedFields = map[string]struct{}{
	"id":                  {},
	"deleted":             {},
	"lastUpdate":          {},
	"questions":           {},
	"answers":             {},
	"paperId":             {},
	"keywords":            {},
	"keywordsFrequency":   {},
	"tagsFrequency":       {},
	"keywordsUpdatedTime": {},
}

// indexedCollections are the collections that carry search indices.
var indexedCollections = []string{storage.Questions, storage.Papers}

// CacheInvalidator is notified after a rebuild; cached rankings are stale
// once the statistics change.
type CacheInvalidator interface {
	InvalidateAll()
}

// Indexer scans collections, recomputes stale per-document keyword fields,
// and rebuilds the BM25 statistics caches.
type Indexer struct {
	storage   storage.Storage
	tokenizer *keyword.Tokenizer
	cache     CacheInvalidator // optional
	logger    *zap.Logger      // optional
	now       func() int64     // unix ms
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output (per-collection rebuild stats).
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithCache sets the score cache to invalidate after a rebuild.
func WithCache(c CacheInvalidator) IndexerOption {
	return func(idx *Indexer) { idx.cache = c }
}

// NewIndexer creates an indexer over the given storage and tokenizer.
func NewIndexer(st storage.Storage, tok *keyword.Tokenizer, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		storage:   st,
		tokenizer: tok,
		now:       func() int64 { return time.Now().UnixMilli() },
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// RefreshSearchIndices rebuilds the search indices of every collection and
// returns the number of documents that were actually re-indexed. A document
// is re-indexed when force is set, or when it is live and its derived
// keyword fields are missing or older than its last update. Safe to call
// repeatedly: with unchanged data and force false it re-indexes nothing.
func (idx *Indexer) RefreshSearchIndices(ctx context.Context, force bool) (int, error) {
	total := 0
	for _, collection := range indexedCollections {
		n, err := idx.refreshCollection(ctx, collection, force)
		if err != nil {
			return total, fmt.Errorf("failed to refresh %s indices: %w", collection, err)
		}
		total += n
	}
	if idx.cache != nil {
		idx.cache.InvalidateAll()
	}
	return total, nil
}

// refreshCollection scans one collection and rebuilds its whole stats cache
// inside a single transaction, so readers never observe a partial cache.
func (idx *Indexer) refreshCollection(ctx context.Context, collection string, force bool) (int, error) {
	tx, err := idx.storage.Begin(ctx, true)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var records []*storage.Record
	err = tx.Scan(collection, func(rec *storage.Record) error {
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return 0, err
	}

	stats := &keyword.Stats{
		WordAppeared: make(map[string]int),
		TagAppeared:  make(map[string]int),
		IDF:          make(map[string]float64),
		IDFTag:       make(map[string]float64),
	}
	var docLenSum, tagLenSum float64
	reindexed := 0

	for _, rec := range records {
		var doc map[string]interface{}
		if err := json.Unmarshal(rec.Body, &doc); err != nil {
			return 0, fmt.Errorf("failed to decode %s/%s: %w", collection, rec.ID, err)
		}

		if force || (!rec.Deleted && stale(doc, rec.LastUpdate)) {
			idx.reindex(doc)
			body, err := json.Marshal(doc)
			if err != nil {
				return 0, err
			}
			rec.Body = body
			if err := tx.Put(collection, rec); err != nil {
				return 0, err
			}
			reindexed++
		}
		if rec.Deleted {
			continue
		}

		keywords := stringList(doc["keywords"])
		for _, term := range keywords {
			stats.WordAppeared[term]++
		}
		for term := range floatMap(doc["tagsFrequency"]) {
			stats.TagAppeared[term]++
		}
		docLenSum += float64(len(keywords))
		tagLenSum += float64(len(stringList(doc["tags"])) + len(stringList(doc["categories"])))
		stats.TotalDocs++
	}

	if stats.TotalDocs > 0 {
		stats.AverageDocLength = docLenSum / float64(stats.TotalDocs)
		stats.AverageDocLengthTag = tagLenSum / float64(stats.TotalDocs)
	}
	for term, n := range stats.WordAppeared {
		stats.IDF[term] = keyword.ComputeIDF(n, stats.TotalDocs)
	}
	for term, n := range stats.TagAppeared {
		stats.IDFTag[term] = keyword.ComputeIDF(n, stats.TotalDocs)
	}

	wordTrie := keyword.BuildTrie(mapKeys(stats.WordAppeared))
	tagTrie := keyword.BuildTrie(mapKeys(stats.TagAppeared))
	stats.KeywordTrie = wordTrie.Serialize()
	stats.KeywordTrieSize = wordTrie.Size()
	stats.TagTrie = tagTrie.Serialize()
	stats.TagTrieSize = tagTrie.Size()

	payload, err := json.Marshal(stats)
	if err != nil {
		return 0, err
	}
	if err := tx.KVPut(keyword.StatsKey(collection), payload); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	if idx.logger != nil {
		idx.logger.Debug("search indices refreshed",
			zap.String("collection", collection),
			zap.Int("reindexed", reindexed),
			zap.Int("total_docs", stats.TotalDocs),
			zap.Int("vocabulary", len(stats.WordAppeared)),
			zap.Int("tag_vocabulary", len(stats.TagAppeared)))
	}
	return reindexed, nil
}

// reindex recomputes the derived keyword fields of one document in place.
// lastUpdate is left untouched: rebuilding indices is not an edit.
func (idx *Indexer) reindex(doc map[string]interface{}) {
	keywords, freq := idx.tokenizer.Tokenize(doc, excludedFields)
	doc["keywords"] = keywords
	doc["keywordsFrequency"] = freq

	tagsFreq := make(map[string]float64)
	for _, tag := range stringList(doc["tags"]) {
		tagsFreq[tag] += tagWeight
	}
	for _, cat := range stringList(doc["categories"]) {
		tagsFreq[cat] += categoryWeight
	}
	doc["tagsFrequency"] = tagsFreq
	doc["keywordsUpdatedTime"] = idx.now()
}

// stale reports whether the derived fields are missing or older than the
// document's last modification.
func stale(doc map[string]interface{}, lastUpdate int64) bool {
	if _, ok := doc["keywords"]; !ok {
		return true
	}
	updated, ok := doc["keywordsUpdatedTime"].(float64)
	if !ok {
		return true
	}
	return int64(updated) < lastUpdate
}

func mapKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func stringList(value interface{}) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func floatMap(value interface{}) map[string]float64 {
	switch v := value.(type) {
	case map[string]float64:
		return v
	case map[string]interface{}:
		out := make(map[string]float64, len(v))
		for k, item := range v {
			if f, ok := item.(float64); ok {
				out[k] = f
			}
		}
		return out
	}
	return nil
}
