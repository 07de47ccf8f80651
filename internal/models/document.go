// Package models defines core data structures for quiz content, queries, and search results.
package models

import "encoding/json"

// IndexMeta holds the lifecycle and derived-index fields shared by every
// searchable document. The derived fields (Keywords, KeywordsFrequency,
// TagsFrequency, KeywordsUpdatedTime) are owned by the indexer: they are
// either all absent (never indexed) or consistent with the document as of
// KeywordsUpdatedTime.
type IndexMeta struct {
	Deleted             bool               `json:"deleted,omitempty"`
	LastUpdate          int64              `json:"lastUpdate"`
	Keywords            []string           `json:"keywords,omitempty"`
	KeywordsFrequency   map[string]float64 `json:"keywordsFrequency,omitempty"`
	TagsFrequency       map[string]float64 `json:"tagsFrequency,omitempty"`
	KeywordsUpdatedTime int64              `json:"keywordsUpdatedTime,omitempty"`
}

// Stale reports whether the derived keyword fields need recomputing.
func (m *IndexMeta) Stale() bool {
	if m.KeywordsUpdatedTime == 0 || m.Keywords == nil {
		return true
	}
	return m.KeywordsUpdatedTime < m.LastUpdate
}

// ClearDerived removes the derived keyword fields so the indexer recomputes them.
func (m *IndexMeta) ClearDerived() {
	m.Keywords = nil
	m.KeywordsFrequency = nil
	m.TagsFrequency = nil
	m.KeywordsUpdatedTime = 0
}

// Question is a single quiz question.
type Question struct {
	ID           string   `json:"id"`
	Title        string   `json:"title,omitempty"`
	Content      string   `json:"content"`
	Solution     string   `json:"solution,omitempty"`
	Alternatives []string `json:"alternatives,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Categories   []string `json:"categories,omitempty"`
	IndexMeta
}

// QuizPaper is an ordered set of questions presented as one quiz.
type QuizPaper struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Desc       string   `json:"desc,omitempty"`
	Questions  []string `json:"questions,omitempty"`
	Duration   int64    `json:"duration,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Categories []string `json:"categories,omitempty"`
	IndexMeta
}

// QuizRecord is one quiz attempt. Records are not searchable; they exist so
// orphan cleanup can tell which questions are still referenced by history.
type QuizRecord struct {
	ID        string            `json:"id"`
	PaperID   string            `json:"paperId"`
	StartTime int64             `json:"startTime,omitempty"`
	Answers   map[string]string `json:"answers,omitempty"`
	Score     float64           `json:"score,omitempty"`
}

// DerivedFields names the index-owned document fields that are stripped from
// search results and excluded from keyword extraction.
var DerivedFields = []string{"keywords", "keywordsFrequency", "tagsFrequency", "keywordsUpdatedTime"}

// ToMap converts a document struct to its JSON object form.
func ToMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// FromMap converts a JSON object form back into the document struct v.
func FromMap(m map[string]interface{}, v interface{}) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// StripDerived removes the derived index fields from a document map, so
// callers never observe internal indexing state.
func StripDerived(doc map[string]interface{}) {
	for _, f := range DerivedFields {
		delete(doc, f)
	}
}
