package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-index/internal/export"
	"github.com/pdiddy/research-index/internal/generator"
	"github.com/pdiddy/research-index/internal/lifecycle"
	"github.com/pdiddy/research-index/internal/state"
	"github.com/pdiddy/research-index/pkg/types"
)

const outline = "1. المقدمة\n1.1 خلفية البحث\n2. منهجية البحث\n3. الخاتمة"

// --- test helpers ---

type backend struct {
	calls int32

	mu      sync.Mutex
	status  int
	payload string
}

func (b *backend) respond(status int, payload string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status, b.payload = status, payload
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&b.calls, 1)
	b.mu.Lock()
	status, payload := b.status, b.payload
	b.mu.Unlock()
	if status != 0 {
		w.WriteHeader(status)
	}
	w.Write([]byte(payload))
}

func okPayload(text string) string {
	data, _ := json.Marshal(map[string]any{"index": map[string]any{"index": text}})
	return string(data)
}

// flakyStore fails document writes while failSaves is set.
type flakyStore struct {
	*state.Store
	failSaves atomic.Bool
}

func (f *flakyStore) SaveDocument(ctx context.Context, doc types.IndexDocument) error {
	if f.failSaves.Load() {
		return errors.New("disk I/O error")
	}
	return f.Store.SaveDocument(ctx, doc)
}

func testServer(t *testing.T, apiKey string) (*httptest.Server, *backend) {
	ts, be, _ := testServerWithStore(t, apiKey)
	return ts, be
}

func testServerWithStore(t *testing.T, apiKey string) (*httptest.Server, *backend, *flakyStore) {
	t.Helper()
	be := &backend{payload: okPayload(outline)}
	bts := httptest.NewServer(be)
	t.Cleanup(bts.Close)

	db, err := state.Open(types.StateConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store := &flakyStore{Store: db}

	gen := generator.New(types.GeneratorConfig{BaseURL: bts.URL}, nil)
	ctrl := lifecycle.New(gen, store, nil)

	ts := httptest.NewServer(NewServer(ctrl, nil, apiKey))
	t.Cleanup(ts.Close)
	return ts, be, store
}

func do(t *testing.T, ts *httptest.Server, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(data)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, ts.URL+path, rdr)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func generate(t *testing.T, ts *httptest.Server) {
	t.Helper()
	resp, out := do(t, ts, http.MethodPost, "/api/index/generate", map[string]any{"title": "عنوان البحث"})
	require.Equal(t, http.StatusOK, resp.StatusCode, "%v", out)
}

// --- tests ---

func TestHealth(t *testing.T) {
	ts, _ := testServer(t, "")
	resp, out := do(t, ts, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", out["status"])
}

func TestGetIndex_Unloaded(t *testing.T) {
	ts, _ := testServer(t, "")
	resp, out := do(t, ts, http.MethodGet, "/api/index", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "unloaded", out["state"])
	assert.NotContains(t, out, "document")

	resp, _ = do(t, ts, http.MethodPost, "/api/index/load", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGenerate_EmptyTitle(t *testing.T) {
	ts, be := testServer(t, "")
	resp, out := do(t, ts, http.MethodPost, "/api/index/generate", map[string]any{"title": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, out["error"], "title")
	assert.Zero(t, atomic.LoadInt32(&be.calls))
}

func TestGenerate_InvalidModel(t *testing.T) {
	ts, _ := testServer(t, "")
	resp, _ := do(t, ts, http.MethodPost, "/api/index/generate", map[string]any{"title": "x", "model": "gpt"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerate_ScoresDocument(t *testing.T) {
	ts, _ := testServer(t, "")
	resp, out := do(t, ts, http.MethodPost, "/api/index/generate", map[string]any{"title": "عنوان", "pages": 15})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "viewing", out["state"])
	scores := out["scores"].(map[string]any)
	assert.EqualValues(t, 100, scores["structural_conformance"])
	assert.EqualValues(t, 20, scores["academic_completeness"])
	grades := scores["grades"].(map[string]any)
	assert.Equal(t, "weak", grades["academic_completeness"])
}

func TestGenerate_UpstreamFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{"transport", http.StatusInternalServerError, `{"detail":"boom"}`},
		{"upstream sentinel", 0, `{"index":"خطأ في الاتصال بـ Ollama"}`},
		{"malformed", 0, `{"index":{"estimated_pages":{}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, be := testServer(t, "")
			generate(t, ts)

			be.respond(tt.status, tt.payload)
			resp, out := do(t, ts, http.MethodPost, "/api/index/regenerate", nil)
			assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
			assert.NotEmpty(t, out["error"])

			_, view := do(t, ts, http.MethodGet, "/api/index", nil)
			assert.Equal(t, "viewing", view["state"])
			assert.Equal(t, outline, view["document"].(map[string]any)["index"])
		})
	}
}

func TestEditFlow(t *testing.T) {
	ts, _ := testServer(t, "")
	generate(t, ts)

	resp, out := do(t, ts, http.MethodPost, "/api/index/edit", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "editing", out["state"])
	assert.Equal(t, outline, out["draft"])

	edited := outline + "\n4. تحليل ونتائج"
	resp, _ = do(t, ts, http.MethodPut, "/api/index/draft", map[string]string{"text": edited})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Export and regeneration need the committed document.
	resp, _ = do(t, ts, http.MethodGet, "/api/index/export", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp, _ = do(t, ts, http.MethodPost, "/api/index/regenerate", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, out = do(t, ts, http.MethodPost, "/api/index/save", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "viewing", out["state"])
	assert.NotContains(t, out, "draft")
	assert.EqualValues(t, 60, out["scores"].(map[string]any)["academic_completeness"])

	// Reload from storage reflects the save.
	resp, out = do(t, ts, http.MethodPost, "/api/index/load", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, edited, out["document"].(map[string]any)["index"])
}

func TestCancelFlow(t *testing.T) {
	ts, _ := testServer(t, "")
	generate(t, ts)

	do(t, ts, http.MethodPost, "/api/index/edit", nil)
	do(t, ts, http.MethodPut, "/api/index/draft", map[string]string{"text": "1. x"})
	resp, out := do(t, ts, http.MethodPost, "/api/index/cancel", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, outline, out["document"].(map[string]any)["index"])

	resp, _ = do(t, ts, http.MethodPost, "/api/index/cancel", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSave_PersistFailureAnswersWithWarning(t *testing.T) {
	ts, _, store := testServerWithStore(t, "")
	generate(t, ts)
	store.failSaves.Store(true)

	edited := "1. المقدمة\n2. الخاتمة"
	do(t, ts, http.MethodPost, "/api/index/edit", nil)
	do(t, ts, http.MethodPut, "/api/index/draft", map[string]string{"text": edited})
	resp, out := do(t, ts, http.MethodPost, "/api/index/save", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "viewing", out["state"])
	assert.Contains(t, out["warning"], "disk I/O error")
	assert.Equal(t, edited, out["document"].(map[string]any)["index"])

	// Reloading would drop the unsaved edit.
	resp, _ = do(t, ts, http.MethodPost, "/api/index/load", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	_, view := do(t, ts, http.MethodGet, "/api/index", nil)
	assert.Equal(t, edited, view["document"].(map[string]any)["index"])
}

func TestSave_EmptyDraft(t *testing.T) {
	ts, _ := testServer(t, "")
	generate(t, ts)

	do(t, ts, http.MethodPost, "/api/index/edit", nil)
	do(t, ts, http.MethodPut, "/api/index/draft", map[string]string{"text": " "})
	resp, _ := do(t, ts, http.MethodPost, "/api/index/save", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExport(t *testing.T) {
	ts, _ := testServer(t, "")
	generate(t, ts)

	resp, err := ts.Client().Get(ts.URL + "/api/index/export")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, export.MarkdownMIME, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	assert.Equal(t, export.Header+"\n\n"+outline, buf.String())

	resp2, err := ts.Client().Get(ts.URL + "/api/index/export?format=html")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, export.HTMLMIME, resp2.Header.Get("Content-Type"))

	resp3, _ := do(t, ts, http.MethodGet, "/api/index/export?format=docx", nil)
	assert.Equal(t, http.StatusBadRequest, resp3.StatusCode)
}

func TestDiscard(t *testing.T) {
	ts, _ := testServer(t, "")
	generate(t, ts)

	resp, out := do(t, ts, http.MethodDelete, "/api/index", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "unloaded", out["state"])

	resp, _ = do(t, ts, http.MethodPost, "/api/index/load", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDiscard_Purge(t *testing.T) {
	ts, _ := testServer(t, "")
	generate(t, ts)

	resp, out := do(t, ts, http.MethodDelete, "/api/index?purge=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "unloaded", out["state"])

	resp, _ = do(t, ts, http.MethodPost, "/api/index/load", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = do(t, ts, http.MethodPost, "/api/index/regenerate", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestScore(t *testing.T) {
	ts, _ := testServer(t, "")
	resp, out := do(t, ts, http.MethodPost, "/api/score", map[string]string{"text": "one two three four five"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 0, out["language_purity"])
	assert.EqualValues(t, 75, out["structural_conformance"])
	assert.EqualValues(t, 0, out["academic_completeness"])

	resp, _ = do(t, ts, http.MethodPost, "/api/score", map[string]string{"body": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuth(t *testing.T) {
	ts, _ := testServer(t, "secret")

	resp, _ := do(t, ts, http.MethodGet, "/api/index", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/index", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret")
	resp2, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)

	resp, _ = do(t, ts, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
