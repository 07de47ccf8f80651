package models

import "testing"

func TestSearchQuery_Validate(t *testing.T) {
	q := &SearchQuery{Query: "math", PageSize: 20, PageIndex: 2}
	if err := q.Validate(); err != nil {
		t.Fatal(err)
	}
	if q.PageSize != 20 || q.PageIndex != 2 {
		t.Errorf("valid paging mutated: %d/%d", q.PageSize, q.PageIndex)
	}
}

func TestSearchQuery_ValidateEmpty(t *testing.T) {
	q := &SearchQuery{}
	if err := q.Validate(); err == nil {
		t.Error("expected error for empty query")
	}
}

func TestSearchQuery_ValidateClampsPaging(t *testing.T) {
	q := &SearchQuery{Query: "math", PageSize: -5, PageIndex: -1}
	if err := q.Validate(); err != nil {
		t.Fatal(err)
	}
	if q.PageSize != 1 {
		t.Errorf("pageSize = %d, want 1", q.PageSize)
	}
	if q.PageIndex != 0 {
		t.Errorf("pageIndex = %d, want 0", q.PageIndex)
	}
}
