package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/BillStark001/quizzy/internal/config"
	"github.com/BillStark001/quizzy/internal/docstore"
	"github.com/BillStark001/quizzy/internal/indexer"
	"github.com/BillStark001/quizzy/internal/keyword"
	"github.com/BillStark001/quizzy/internal/search"
	"github.com/BillStark001/quizzy/internal/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	tokenizer := keyword.NewTokenizer()
	cache := search.NewScoreCache(cfg.Search.CacheCapacity)
	engine := search.NewEngine(st, tokenizer, cache, &cfg.Search)
	store := docstore.NewStore(st, docstore.WithCache(cache))
	idx := indexer.NewIndexer(st, tokenizer, indexer.WithCache(cache))

	srv := NewServer(engine, store, idx, &cfg.Server, zap.NewNop())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var payload map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("%s %s: decoding response: %v", method, url, err)
	}
	return resp, payload
}

func TestServer_QuestionLifecycle(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/v1"

	resp, payload := doJSON(t, http.MethodPost, base+"/questions/import",
		`[{"id": "q1", "content": "What is 2+2?", "tags": ["math"]}]`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("import status = %d", resp.StatusCode)
	}
	if ids, _ := payload["ids"].([]interface{}); len(ids) != 1 || ids[0] != "q1" {
		t.Errorf("import ids = %v", payload["ids"])
	}

	resp, payload = doJSON(t, http.MethodGet, base+"/questions/q1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	if payload["content"] != "What is 2+2?" {
		t.Errorf("content = %v", payload["content"])
	}

	resp, _ = doJSON(t, http.MethodPatch, base+"/questions/q1", `{"content": "What is 3+3?"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch status = %d", resp.StatusCode)
	}
	_, payload = doJSON(t, http.MethodGet, base+"/questions/q1", "")
	if payload["content"] != "What is 3+3?" {
		t.Errorf("content after patch = %v", payload["content"])
	}
	if tags, _ := payload["tags"].([]interface{}); len(tags) != 1 || tags[0] != "math" {
		t.Errorf("unpatched field lost: tags = %v", payload["tags"])
	}

	resp, _ = doJSON(t, http.MethodDelete, base+"/questions/q1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	// Soft delete: the document is still readable with the flag set, but
	// drops out of the id listing.
	resp, payload = doJSON(t, http.MethodGet, base+"/questions/q1", "")
	if resp.StatusCode != http.StatusOK || payload["deleted"] != true {
		t.Errorf("soft-deleted doc: status %d, deleted = %v", resp.StatusCode, payload["deleted"])
	}
	_, payload = doJSON(t, http.MethodGet, base+"/questions", "")
	if ids, _ := payload["ids"].([]interface{}); len(ids) != 0 {
		t.Errorf("listing after soft delete = %v", ids)
	}

	resp, _ = doJSON(t, http.MethodDelete, base+"/questions/q1?hard=true", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("hard delete status = %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodGet, base+"/questions/q1", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after hard delete = %d", resp.StatusCode)
	}
}

func TestServer_DuplicateImportConflicts(t *testing.T) {
	ts := newTestServer(t)
	url := ts.URL + "/api/v1/questions/import"

	resp, _ := doJSON(t, http.MethodPost, url, `[{"id": "q1", "content": "one"}]`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first import status = %d", resp.StatusCode)
	}
	resp, payload := doJSON(t, http.MethodPost, url, `[{"id": "q1", "content": "again"}]`)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate import status = %d, want 409", resp.StatusCode)
	}
	if msg, _ := payload["error"].(string); !strings.Contains(msg, "q1") {
		t.Errorf("conflict error %q does not name the id", msg)
	}
}

func TestServer_BadRequestBody(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/v1"

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/questions/import"},
		{http.MethodPost, "/papers/import"},
		{http.MethodPost, "/records/import"},
		{http.MethodPatch, "/questions/q1"},
		{http.MethodPost, "/search/questions"},
	} {
		resp, _ := doJSON(t, tc.method, base+tc.path, `{not json`)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s %s with bad body = %d, want 400", tc.method, tc.path, resp.StatusCode)
		}
	}
}

func TestServer_SearchFlow(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/v1"

	resp, _ := doJSON(t, http.MethodPost, base+"/questions/import",
		`[{"id": "a", "content": "one", "tags": ["math"]},
		  {"id": "b", "content": "two", "tags": ["science"]}]`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("import status = %d", resp.StatusCode)
	}
	resp, payload := doJSON(t, http.MethodPost, base+"/index/refresh?force=true", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refresh status = %d", resp.StatusCode)
	}
	if reindexed, _ := payload["reindexed"].(float64); reindexed != 2 {
		t.Errorf("reindexed = %v, want 2", payload["reindexed"])
	}

	resp, payload = doJSON(t, http.MethodPost, base+"/search/questions/tags", `{"query": "math"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search status = %d", resp.StatusCode)
	}
	results, _ := payload["results"].([]interface{})
	if len(results) != 1 {
		t.Fatalf("results = %v", payload["results"])
	}
	if doc, _ := results[0].(map[string]interface{}); doc["id"] != "a" {
		t.Errorf("result id = %v, want a", results[0])
	}

	resp, payload = doJSON(t, http.MethodGet, base+"/tags?q=mat", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("tags status = %d", resp.StatusCode)
	}
	tags, _ := payload["question_tags"].([]interface{})
	found := false
	for _, tag := range tags {
		if tag == "math" {
			found = true
		}
	}
	if !found {
		t.Errorf("question_tags = %v, want math included", payload["question_tags"])
	}
}

func TestServer_DeleteUnlinked(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/v1"

	doJSON(t, http.MethodPost, base+"/questions/import",
		`[{"id": "kept", "content": "one"}, {"id": "orphan", "content": "two"}]`)
	doJSON(t, http.MethodPost, base+"/papers/import",
		`[{"id": "p1", "name": "exam", "questions": ["kept"]}]`)

	resp, payload := doJSON(t, http.MethodPost, base+"/maintenance/unlinked", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unlinked status = %d", resp.StatusCode)
	}
	if removed, _ := payload["removed"].(float64); removed != 1 {
		t.Errorf("removed = %v, want 1", payload["removed"])
	}
	resp, _ = doJSON(t, http.MethodGet, base+"/questions/orphan", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("orphan still present: %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodGet, base+"/questions/kept", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("linked question gone: %d", resp.StatusCode)
	}
}

func TestServer_StatusAndHealth(t *testing.T) {
	ts := newTestServer(t)

	doJSON(t, http.MethodPost, ts.URL+"/api/v1/questions/import",
		`[{"id": "a", "content": "one"}]`)

	resp, payload := doJSON(t, http.MethodGet, ts.URL+"/api/v1/status", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if n, _ := payload["questions"].(float64); n != 1 {
		t.Errorf("questions = %v, want 1", payload["questions"])
	}

	resp, payload = doJSON(t, http.MethodGet, ts.URL+"/health", "")
	if resp.StatusCode != http.StatusOK || payload["status"] != "ok" {
		t.Errorf("health = %d %v", resp.StatusCode, payload)
	}
}

func TestServer_RecordImportAndGet(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/v1"

	body := `[{"id": "r1", "paperId": "p1", "answers": {"q1": "4"}, "score": 80}]`
	resp, _ := doJSON(t, http.MethodPost, base+"/records/import", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("record import status = %d", resp.StatusCode)
	}
	resp, payload := doJSON(t, http.MethodGet, base+"/records/r1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("record get status = %d", resp.StatusCode)
	}
	if payload["paperId"] != "p1" {
		t.Errorf("paperId = %v", payload["paperId"])
	}
}

func TestServer_ImportWithoutIdsAssignsIds(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/v1"

	resp, payload := doJSON(t, http.MethodPost, base+"/questions/import",
		`[{"content": "one"}, {"content": "two"}]`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("import status = %d", resp.StatusCode)
	}
	ids, _ := payload["ids"].([]interface{})
	if len(ids) != 2 {
		t.Fatalf("ids = %v", payload["ids"])
	}
	for _, id := range ids {
		s, _ := id.(string)
		if s == "" {
			t.Fatalf("empty generated id in %v", ids)
		}
		resp, _ := doJSON(t, http.MethodGet, fmt.Sprintf("%s/questions/%s", base, s), "")
		if resp.StatusCode != http.StatusOK {
			t.Errorf("generated id %s not retrievable: %d", s, resp.StatusCode)
		}
	}
}
