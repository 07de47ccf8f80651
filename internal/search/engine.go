// Package search provides the BM25 query engine with trie-based query
// expansion, a bounded score cache, and pagination.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/BillStark001/quizzy/internal/config"
	"github.com/BillStark001/quizzy/internal/keyword"
	"github.com/BillStark001/quizzy/internal/models"
	"github.com/BillStark001/quizzy/internal/storage"
)

// Engine answers ranked searches against the BM25 statistics caches. It
// only reads the collections and the stats; its sole writable state is the
// score cache.
type Engine struct {
	storage   storage.Storage
	tokenizer *keyword.Tokenizer
	cache     *ScoreCache
	config    *config.SearchConfig
}

// NewEngine creates a search engine with the given dependencies.
func NewEngine(st storage.Storage, tok *keyword.Tokenizer, cache *ScoreCache, cfg *config.SearchConfig) *Engine {
	return &Engine{
		storage:   st,
		tokenizer: tok,
		cache:     cache,
		config:    cfg,
	}
}

// Cache returns the score cache, so mutating components can invalidate it.
func (e *Engine) Cache() *ScoreCache {
	return e.cache
}

// cacheKey is the canonical signature of one scored query. Page parameters
// are excluded so every page of a query shares one ranked list.
type cacheKey struct {
	Collection string   `json:"collection"`
	Terms      []string `json:"terms"`
	TagSpace   bool     `json:"tagSpace"`
	K1         float64  `json:"k1"`
	B          float64  `json:"b"`
	Threshold  float64  `json:"threshold"`
}

// scoredFields is the slice of a document the scorer needs.
type scoredFields struct {
	Keywords          []string           `json:"keywords"`
	KeywordsFrequency map[string]float64 `json:"keywordsFrequency"`
	TagsFrequency     map[string]float64 `json:"tagsFrequency"`
	Tags              []string           `json:"tags"`
	Categories        []string           `json:"categories"`
}

// FindQuestions runs a free-text (keyword space) search over questions.
func (e *Engine) FindQuestions(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	return e.findKeyword(ctx, storage.Questions, query)
}

// FindPapers runs a free-text (keyword space) search over quiz papers.
func (e *Engine) FindPapers(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	return e.findKeyword(ctx, storage.Papers, query)
}

// FindQuestionsByTags runs a tag-space search over questions.
func (e *Engine) FindQuestionsByTags(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	return e.findByTags(ctx, storage.Questions, query)
}

// FindPapersByTags runs a tag-space search over quiz papers.
func (e *Engine) FindPapersByTags(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	return e.findByTags(ctx, storage.Papers, query)
}

func (e *Engine) findKeyword(ctx context.Context, collection string, query *models.SearchQuery) (*models.SearchResponse, error) {
	if query.PageSize == 0 {
		query.PageSize = e.config.DefaultPageSize
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}
	terms := e.tokenizer.TokenizeQuery(query.Query)
	return e.Search(ctx, collection, query.Query, terms, false, query.PageSize, query.PageIndex)
}

// findByTags splits the query on whitespace and additionally keeps the
// whole raw query as a term when it differs from the first token, so both
// "multi-word tag phrase" and "space-separated tag list" styles work.
func (e *Engine) findByTags(ctx context.Context, collection string, query *models.SearchQuery) (*models.SearchResponse, error) {
	if query.PageSize == 0 {
		query.PageSize = e.config.DefaultPageSize
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}
	terms := strings.Fields(query.Query)
	if len(terms) > 0 && query.Query != terms[0] {
		terms = append(terms, query.Query)
	}
	return e.Search(ctx, collection, query.Query, terms, true, query.PageSize, query.PageIndex)
}

// Search scores every live document of the collection against the query
// terms (expanded through the vocabulary trie) and returns one page of the
// ranked results, with derived index fields stripped.
func (e *Engine) Search(ctx context.Context, collection, rawQuery string, terms []string, useTagSpace bool, pageSize, pageIndex int) (*models.SearchResponse, error) {
	startTime := time.Now()
	if pageSize < 1 {
		pageSize = 1
	}
	if e.config.MaxPageSize > 0 && pageSize > e.config.MaxPageSize {
		pageSize = e.config.MaxPageSize
	}
	if pageIndex < 0 {
		pageIndex = 0
	}

	tx, err := e.storage.Begin(ctx, false)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stats, err := loadStats(tx, collection)
	if err != nil {
		return nil, err
	}
	response := &models.SearchResponse{Query: rawQuery, Results: []map[string]interface{}{}}
	if stats == nil {
		// Indices never built: degrade to an empty result set.
		response.QueryTime = time.Since(startTime).Milliseconds()
		return response, nil
	}

	key, err := e.signature(collection, terms, useTagSpace)
	if err != nil {
		return nil, err
	}
	expanded := e.expandTerms(stats, terms, useTagSpace)
	response.ExpandedTerms = expanded

	ranked, ok := e.cache.Get(key)
	if !ok {
		ranked, err = e.score(tx, collection, stats, expanded, useTagSpace)
		if err != nil {
			return nil, err
		}
		e.cache.Set(key, ranked)
	}

	start := pageIndex * pageSize
	end := start + pageSize
	if start > len(ranked) {
		start = len(ranked)
	}
	if end > len(ranked) {
		end = len(ranked)
	}
	for _, entry := range ranked[start:end] {
		rec, err := tx.Get(collection, entry.ID)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			continue
		}
		var doc map[string]interface{}
		if err := json.Unmarshal(rec.Body, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode %s/%s: %w", collection, entry.ID, err)
		}
		models.StripDerived(doc)
		response.Results = append(response.Results, doc)
	}
	response.TotalPages = int(math.Ceil(float64(len(ranked)) / float64(pageSize)))
	response.QueryTime = time.Since(startTime).Milliseconds()
	return response, nil
}

// signature builds the canonical cache key: the sorted distinct term set
// plus every scoring parameter, but no paging.
func (e *Engine) signature(collection string, terms []string, useTagSpace bool) (string, error) {
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[t] = struct{}{}
	}
	sorted := make([]string, 0, len(set))
	for t := range set {
		sorted = append(sorted, t)
	}
	sort.Strings(sorted)

	data, err := json.Marshal(cacheKey{
		Collection: collection,
		Terms:      sorted,
		TagSpace:   useTagSpace,
		K1:         e.config.K1,
		B:          e.config.B,
		Threshold:  e.config.ScoreThreshold,
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// expandTerms adds, for every query term, every vocabulary term sharing it
// as a prefix, deduplicated and sorted.
func (e *Engine) expandTerms(stats *keyword.Stats, terms []string, useTagSpace bool) []string {
	flat := stats.KeywordTrie
	if useTagSpace {
		flat = stats.TagTrie
	}
	trie := keyword.LoadTrie(flat)

	set := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		set[term] = struct{}{}
		for _, match := range trie.Search(term) {
			set[match] = struct{}{}
		}
	}
	expanded := make([]string, 0, len(set))
	for term := range set {
		expanded = append(expanded, term)
	}
	sort.Strings(expanded)
	return expanded
}

// score scans every live document and accumulates the BM25 contribution of
// each expanded term. Documents at or below the threshold are dropped; ties
// keep scan order.
func (e *Engine) score(tx storage.Tx, collection string, stats *keyword.Stats, terms []string, useTagSpace bool) ([]RankedDoc, error) {
	idf := stats.IDF
	avgLen := stats.AverageDocLength
	if useTagSpace {
		idf = stats.IDFTag
		avgLen = stats.AverageDocLengthTag
	}

	var ranked []RankedDoc
	err := tx.Scan(collection, func(rec *storage.Record) error {
		if rec.Deleted {
			return nil
		}
		var doc scoredFields
		if err := json.Unmarshal(rec.Body, &doc); err != nil {
			return fmt.Errorf("failed to decode %s/%s: %w", collection, rec.ID, err)
		}

		var docLen float64
		var freq map[string]float64
		if useTagSpace {
			docLen = float64(len(doc.Tags) + len(doc.Categories))
			freq = doc.TagsFrequency
		} else {
			docLen = float64(len(doc.Keywords))
			freq = doc.KeywordsFrequency
		}
		if docLen == 0 {
			docLen = 1
		}

		var score float64
		for _, term := range terms {
			tf := freq[term]
			if tf == 0 {
				continue
			}
			score += keyword.TermScore(idf[term], tf, e.config.K1, e.config.B, docLen, avgLen)
		}
		if score > e.config.ScoreThreshold {
			ranked = append(ranked, RankedDoc{ID: rec.ID, Score: score})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked, nil
}

// FindTags returns autocomplete matches for a prefix across both term
// spaces of both collections. Missing stats yield empty lists.
func (e *Engine) FindTags(ctx context.Context, prefix string) (*models.TagSuggestions, error) {
	tx, err := e.storage.Begin(ctx, false)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	out := &models.TagSuggestions{
		QuestionKeywords: []string{},
		QuestionTags:     []string{},
		PaperKeywords:    []string{},
		PaperTags:        []string{},
	}
	if stats, err := loadStats(tx, storage.Questions); err != nil {
		return nil, err
	} else if stats != nil {
		out.QuestionKeywords = searchFlat(stats.KeywordTrie, prefix)
		out.QuestionTags = searchFlat(stats.TagTrie, prefix)
	}
	if stats, err := loadStats(tx, storage.Papers); err != nil {
		return nil, err
	} else if stats != nil {
		out.PaperKeywords = searchFlat(stats.KeywordTrie, prefix)
		out.PaperTags = searchFlat(stats.TagTrie, prefix)
	}
	return out, nil
}

func searchFlat(flat []keyword.FlatNode, prefix string) []string {
	matches := keyword.LoadTrie(flat).Search(prefix)
	if matches == nil {
		return []string{}
	}
	return matches
}

// loadStats reads the persisted stats cache for a collection, or nil when
// the indices have never been built.
func loadStats(tx storage.Tx, collection string) (*keyword.Stats, error) {
	payload, err := tx.KVGet(keyword.StatsKey(collection))
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, nil
	}
	var stats keyword.Stats
	if err := json.Unmarshal(payload, &stats); err != nil {
		return nil, fmt.Errorf("failed to decode stats cache: %w", err)
	}
	return &stats, nil
}
