package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hermes-labs/keeper/internal/config"
	"github.com/hermes-labs/keeper/internal/engine"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	eng, err := engine.New(config.Default(), nil)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return New(eng, nil, "test")
}

// do runs one request against the server and decodes the JSON response body
// into out (skipped when out is nil).
func do(t *testing.T, s *Server, method, path string, body any, out any) int {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("unmarshal response %q: %v", rec.Body.String(), err)
		}
	}
	return rec.Code
}

func storeChunk(t *testing.T, s *Server, content, typ, priority string) string {
	t.Helper()
	var resp struct {
		ID string `json:"id"`
	}
	code := do(t, s, "POST", "/api/context", map[string]any{
		"content": content, "type": typ, "priority": priority,
	}, &resp)
	if code != http.StatusCreated {
		t.Fatalf("store chunk: status %d", code)
	}
	return resp.ID
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	var resp struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
	if code := do(t, s, "GET", "/api/health", nil, &resp); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if resp.Status != "ok" || resp.Version != "test" {
		t.Errorf("health = %+v", resp)
	}
}

func TestStoreAndGetChunk(t *testing.T) {
	s := newTestServer(t)

	id := storeChunk(t, s, "the index rebuild degraded query latency", "insight", "high")

	var chunk struct {
		ID       string `json:"id"`
		Content  string `json:"content"`
		Priority string `json:"priority"`
	}
	if code := do(t, s, "GET", "/api/context/"+id, nil, &chunk); code != http.StatusOK {
		t.Fatalf("get chunk: status %d", code)
	}
	if chunk.ID != id || chunk.Content != "the index rebuild degraded query latency" {
		t.Errorf("chunk = %+v", chunk)
	}
}

func TestStoreDefaultsPriority(t *testing.T) {
	s := newTestServer(t)

	var resp struct {
		ID string `json:"id"`
	}
	code := do(t, s, "POST", "/api/context", map[string]any{
		"content": "no priority given", "type": "conversation",
	}, &resp)
	if code != http.StatusCreated {
		t.Fatalf("status %d", code)
	}

	var chunk struct {
		Priority string `json:"priority"`
	}
	do(t, s, "GET", "/api/context/"+resp.ID, nil, &chunk)
	if chunk.Priority != "medium" {
		t.Errorf("priority = %q, want medium", chunk.Priority)
	}
}

func TestStoreRejectsInvalidDomain(t *testing.T) {
	s := newTestServer(t)

	code := do(t, s, "POST", "/api/context", map[string]any{
		"content": "c", "type": "telepathy", "priority": "high",
	}, nil)
	if code != http.StatusBadRequest {
		t.Errorf("invalid type: status %d, want 400", code)
	}

	code = do(t, s, "POST", "/api/context", map[string]any{
		"content": "c", "type": "insight", "priority": "urgent",
	}, nil)
	if code != http.StatusBadRequest {
		t.Errorf("invalid priority: status %d, want 400", code)
	}
}

func TestSearch(t *testing.T) {
	s := newTestServer(t)

	match := storeChunk(t, s, "database performance issue in production", "insight", "high")
	storeChunk(t, s, "frontend styling cleanup for the settings page", "conversation", "low")

	var resp struct {
		Count  int `json:"count"`
		Chunks []struct {
			ID string `json:"id"`
		} `json:"chunks"`
	}
	code := do(t, s, "GET", "/api/context/search?q=database+performance", nil, &resp)
	if code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if resp.Count != 1 || resp.Chunks[0].ID != match {
		t.Errorf("search = %+v, want only %s", resp, match)
	}

	// Unrelated query returns an empty list, not null.
	code = do(t, s, "GET", "/api/context/search?q=zeppelin", nil, &resp)
	if code != http.StatusOK || resp.Count != 0 || resp.Chunks == nil {
		t.Errorf("empty search: status %d, resp %+v", code, resp)
	}

	if code := do(t, s, "GET", "/api/context/search?q=x&type=telepathy", nil, nil); code != http.StatusBadRequest {
		t.Errorf("invalid type filter: status %d, want 400", code)
	}
	if code := do(t, s, "GET", "/api/context/search?q=x&limit=abc", nil, nil); code != http.StatusBadRequest {
		t.Errorf("invalid limit: status %d, want 400", code)
	}
}

func TestCompressAndDelete(t *testing.T) {
	s := newTestServer(t)

	long := storeChunk(t, s, strings.Repeat("long compressible content. ", 20), "insight", "high")
	short := storeChunk(t, s, "too short", "insight", "high")

	var resp struct {
		Compressed bool `json:"compressed"`
	}
	do(t, s, "POST", "/api/context/"+long+"/compress", nil, &resp)
	if !resp.Compressed {
		t.Error("long chunk should compress")
	}
	do(t, s, "POST", "/api/context/"+short+"/compress", nil, &resp)
	if resp.Compressed {
		t.Error("short chunk should not compress")
	}

	if code := do(t, s, "DELETE", "/api/context/"+long, nil, nil); code != http.StatusOK {
		t.Errorf("delete: status %d", code)
	}
	if code := do(t, s, "DELETE", "/api/context/"+long, nil, nil); code != http.StatusNotFound {
		t.Errorf("second delete: status %d, want 404", code)
	}
	if code := do(t, s, "GET", "/api/context/"+long, nil, nil); code != http.StatusNotFound {
		t.Errorf("get after delete: status %d, want 404", code)
	}
}

func TestSummarizeEndpoint(t *testing.T) {
	s := newTestServer(t)

	a := storeChunk(t, s, "The cache was misconfigured. Requests bypassed it.", "insight", "high")
	b := storeChunk(t, s, "Latency doubled. This was caused by cache misses.", "conversation", "medium")

	var summary struct {
		ID           string   `json:"id"`
		SourceChunks []string `json:"source_chunks"`
		Text         string   `json:"text"`
	}
	code := do(t, s, "POST", "/api/context/summarize", map[string]any{
		"chunk_ids": []string{a, b},
	}, &summary)
	if code != http.StatusCreated {
		t.Fatalf("status %d", code)
	}
	if len(summary.SourceChunks) != 2 || summary.Text == "" {
		t.Errorf("summary = %+v", summary)
	}

	code = do(t, s, "POST", "/api/context/summarize", map[string]any{
		"chunk_ids": []string{"missing"},
	}, nil)
	if code != http.StatusNotFound {
		t.Errorf("unknown chunk: status %d, want 404", code)
	}

	code = do(t, s, "POST", "/api/context/summarize", map[string]any{
		"chunk_ids": []string{},
	}, nil)
	if code != http.StatusBadRequest {
		t.Errorf("no chunks: status %d, want 400", code)
	}

	var list struct {
		Count int `json:"count"`
	}
	do(t, s, "GET", "/api/context/summaries", nil, &list)
	if list.Count != 1 {
		t.Errorf("summaries count = %d, want 1", list.Count)
	}
}

func TestStatsEndpoint(t *testing.T) {
	s := newTestServer(t)
	storeChunk(t, s, "one stored chunk", "conversation", "low")

	var stats struct {
		TotalChunks    int `json:"total_chunks"`
		TotalSummaries int `json:"total_summaries"`
	}
	if code := do(t, s, "GET", "/api/context/stats", nil, &stats); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if stats.TotalChunks != 1 || stats.TotalSummaries != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestSweepEndpoint(t *testing.T) {
	s := newTestServer(t)
	storeChunk(t, s, "fresh chunk", "conversation", "low")

	var resp struct {
		Acted int `json:"acted"`
	}
	if code := do(t, s, "POST", "/api/maintenance/sweep", nil, &resp); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if resp.Acted != 0 {
		t.Errorf("acted = %d, want 0 for fresh chunks", resp.Acted)
	}
}

func TestConversationFlow(t *testing.T) {
	s := newTestServer(t)

	var created struct {
		ID string `json:"id"`
	}
	if code := do(t, s, "POST", "/api/conversations", nil, &created); code != http.StatusCreated {
		t.Fatalf("create conversation: status %d", code)
	}
	convID := created.ID

	var lastAppend struct {
		Message struct {
			ID     string `json:"id"`
			Sender string `json:"sender"`
		} `json:"message"`
		Curated *struct {
			Summary struct {
				ArchivedThrough int `json:"archived_through"`
			} `json:"summary"`
		} `json:"curated"`
	}
	for i := 0; i < 51; i++ {
		lastAppend.Curated = nil
		code := do(t, s, "POST", fmt.Sprintf("/api/conversations/%s/messages", convID), map[string]string{
			"sender": "user", "text": fmt.Sprintf("status update number %d on the rollout", i),
		}, &lastAppend)
		if code != http.StatusCreated {
			t.Fatalf("append %d: status %d", i, code)
		}
	}

	// The 51st message crossed the budget, so the final append reports the
	// curation it triggered.
	if lastAppend.Curated == nil {
		t.Fatal("final append did not report curation")
	}
	if lastAppend.Curated.Summary.ArchivedThrough != 30 {
		t.Errorf("archived through = %d, want 30", lastAppend.Curated.Summary.ArchivedThrough)
	}

	var msgs struct {
		Count int `json:"count"`
	}
	do(t, s, "GET", fmt.Sprintf("/api/conversations/%s/messages", convID), nil, &msgs)
	if msgs.Count != 51 {
		t.Errorf("messages = %d, want 51 (curation keeps the full log)", msgs.Count)
	}

	var summaries struct {
		Count int `json:"count"`
	}
	do(t, s, "GET", fmt.Sprintf("/api/conversations/%s/summaries", convID), nil, &summaries)
	if summaries.Count != 1 {
		t.Errorf("summaries = %d, want 1", summaries.Count)
	}

	// The archived prefix stays archived: an explicit curate finds nothing new.
	var curate struct {
		Summarized bool `json:"summarized"`
	}
	if code := do(t, s, "POST", fmt.Sprintf("/api/conversations/%s/curate", convID), nil, &curate); code != http.StatusOK {
		t.Fatalf("curate: status %d", code)
	}
	if curate.Summarized {
		t.Error("curate re-archived an already archived prefix")
	}
}

func TestAppendRejectsInvalidSender(t *testing.T) {
	s := newTestServer(t)

	var created struct {
		ID string `json:"id"`
	}
	do(t, s, "POST", "/api/conversations", nil, &created)

	code := do(t, s, "POST", "/api/conversations/"+created.ID+"/messages", map[string]string{
		"sender": "robot", "text": "beep",
	}, nil)
	if code != http.StatusBadRequest {
		t.Errorf("status %d, want 400", code)
	}
}
