package models

import "testing"

func TestIndexMeta_Stale(t *testing.T) {
	m := &IndexMeta{LastUpdate: 100}
	if !m.Stale() {
		t.Error("never-indexed meta should be stale")
	}
	m.Keywords = []string{"math"}
	m.KeywordsUpdatedTime = 100
	if m.Stale() {
		t.Error("freshly indexed meta should not be stale")
	}
	m.LastUpdate = 200
	if !m.Stale() {
		t.Error("meta updated after indexing should be stale")
	}
}

func TestIndexMeta_ClearDerived(t *testing.T) {
	m := &IndexMeta{
		LastUpdate:          100,
		Keywords:            []string{"math"},
		KeywordsFrequency:   map[string]float64{"math": 1},
		TagsFrequency:       map[string]float64{"algebra": 1},
		KeywordsUpdatedTime: 100,
	}
	m.ClearDerived()
	if m.Keywords != nil || m.KeywordsFrequency != nil || m.TagsFrequency != nil || m.KeywordsUpdatedTime != 0 {
		t.Errorf("derived fields survive clear: %+v", m)
	}
	if !m.Stale() {
		t.Error("cleared meta should be stale")
	}
	if m.LastUpdate != 100 {
		t.Error("lastUpdate must survive clear")
	}
}

func TestToMapFromMap(t *testing.T) {
	q := &Question{
		ID:      "q1",
		Content: "What is 2+2?",
		Tags:    []string{"math"},
	}
	m, err := ToMap(q)
	if err != nil {
		t.Fatal(err)
	}
	if m["id"] != "q1" || m["content"] != "What is 2+2?" {
		t.Errorf("map form = %v", m)
	}
	if _, ok := m["keywords"]; ok {
		t.Error("empty derived fields must be omitted from the map form")
	}

	var back Question
	if err := FromMap(m, &back); err != nil {
		t.Fatal(err)
	}
	if back.ID != q.ID || back.Content != q.Content || len(back.Tags) != 1 {
		t.Errorf("round trip = %+v", back)
	}
}

func TestStripDerived(t *testing.T) {
	doc := map[string]interface{}{
		"id":                  "q1",
		"content":             "text",
		"keywords":            []string{"text"},
		"keywordsFrequency":   map[string]float64{"text": 1},
		"tagsFrequency":       map[string]float64{},
		"keywordsUpdatedTime": int64(5),
	}
	StripDerived(doc)
	for _, f := range DerivedFields {
		if _, ok := doc[f]; ok {
			t.Errorf("field %s not stripped", f)
		}
	}
	if doc["id"] != "q1" || doc["content"] != "text" {
		t.Errorf("non-derived fields lost: %v", doc)
	}
}
