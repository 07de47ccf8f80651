// Package keyword implements the scoring core: tokenization, the prefix
// trie, and BM25 statistics.
package keyword

import (
	"sort"
	"strings"
	"unicode"
)

// Splitter breaks a field value into raw terms. Pluggable so callers can
// swap in language-specific segmentation (e.g. CJK).
type Splitter func(s string) []string

// DefaultSplitter lower-cases and splits on any rune that is not a letter
// or digit.
func DefaultSplitter(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Tokenizer extracts frequency-weighted terms from document fields.
// Tokenize is pure and deterministic for a given field set; the indexer
// relies on that to decide staleness safely.
type Tokenizer struct {
	split Splitter
}

// TokenizerOption configures a Tokenizer.
type TokenizerOption func(*Tokenizer)

// WithSplitter replaces the default term splitter.
func WithSplitter(split Splitter) TokenizerOption {
	return func(t *Tokenizer) { t.split = split }
}

// NewTokenizer creates a tokenizer with the default splitter unless overridden.
func NewTokenizer(opts ...TokenizerOption) *Tokenizer {
	t := &Tokenizer{split: DefaultSplitter}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Tokenize walks every field value of doc except those named in exclude and
// returns the sorted distinct terms plus a term -> occurrence count map.
func (t *Tokenizer) Tokenize(doc map[string]interface{}, exclude map[string]struct{}) ([]string, map[string]float64) {
	freq := make(map[string]float64)

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, skip := exclude[k]; skip {
			continue
		}
		t.collect(doc[k], freq)
	}

	terms := make([]string, 0, len(freq))
	for term := range freq {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms, freq
}

// TokenizeQuery splits a raw query string the same way document fields are split.
func (t *Tokenizer) TokenizeQuery(query string) []string {
	return t.split(query)
}

func (t *Tokenizer) collect(value interface{}, freq map[string]float64) {
	switch v := value.(type) {
	case string:
		for _, term := range t.split(v) {
			freq[term]++
		}
	case []interface{}:
		for _, item := range v {
			t.collect(item, freq)
		}
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			t.collect(v[k], freq)
		}
	}
}
