package models

import "fmt"

// SearchQuery represents a ranked search request against one collection.
type SearchQuery struct {
	Query     string `json:"query"`
	PageSize  int    `json:"page_size,omitempty"`
	PageIndex int    `json:"page_index,omitempty"` // 0-based
}

// Validate ensures the query has valid fields and normalizes paging.
// Returns an error if the query is empty.
func (q *SearchQuery) Validate() error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.PageSize < 1 {
		q.PageSize = 1
	}
	if q.PageIndex < 0 {
		q.PageIndex = 0
	}
	return nil
}
