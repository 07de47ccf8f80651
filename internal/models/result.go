package models

// SearchResponse is the response for a ranked search request.
// Results hold full documents with the derived index fields stripped.
type SearchResponse struct {
	Query         string                   `json:"query"`
	ExpandedTerms []string                 `json:"expanded_terms,omitempty"`
	Results       []map[string]interface{} `json:"results"`
	TotalPages    int                      `json:"total_pages"`
	QueryTime     int64                    `json:"query_time_ms"`
}

// TagSuggestions holds autocomplete matches for a prefix, split by
// collection and by term space.
type TagSuggestions struct {
	QuestionKeywords []string `json:"question_keywords"`
	QuestionTags     []string `json:"question_tags"`
	PaperKeywords    []string `json:"paper_keywords"`
	PaperTags        []string `json:"paper_tags"`
}
