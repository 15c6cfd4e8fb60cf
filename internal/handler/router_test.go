package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"skipgram-go/internal/controller"
	"skipgram-go/internal/service"
	"skipgram-go/internal/service/tokenizer"
	"skipgram-go/pkg/mcp"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	registry := tokenizer.NewTokenizerRegistry()
	registry.Register("word", tokenizer.NewWordTokenizer(true), []string{".txt"})
	registry.Register("char", tokenizer.NewCharTokenizer(), nil)

	logger := zap.NewNop()
	svc := service.NewNGramService(nil, registry, logger)
	return SetupRouter(controller.NewNGramController(svc, logger), mcp.NewNGramServer(svc, logger), logger)
}

func do(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)

	w := do(router, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequestIDPropagated(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestCorpusLifecycle(t *testing.T) {
	router := newTestRouter(t)

	w := do(router, http.MethodPost, "/api/v1/corpora/docs/files", `{"path":"a.txt","content":"the cat sat on the mat"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, float64(6), decode(t, w)["total_tokens"])

	w = do(router, http.MethodPost, "/api/v1/corpora/docs/files", `{"path":"b","tokens":["the","dog"],"language":"word"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(router, http.MethodGet, "/api/v1/corpora", "")
	assert.Equal(t, []any{"docs"}, decode(t, w)["corpora"])

	w = do(router, http.MethodGet, "/api/v1/corpora/docs/count?tokens=the", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(3), body["count"])
	assert.Equal(t, true, body["contains"])

	w = do(router, http.MethodGet, "/api/v1/corpora/docs/count?text=The+Cat", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	w = do(router, http.MethodGet, "/api/v1/corpora/docs/top?order=1&k=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	entries := decode(t, w)["entries"].([]any)
	require.Len(t, entries, 1)
	assert.Equal(t, []any{"the"}, entries[0].(map[string]any)["tokens"])

	w = do(router, http.MethodPost, "/api/v1/corpora/docs/ngrams", `{"orders":[2],"prefix":["the"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, "only(2)", body["orders"])
	assert.Equal(t, "all", body["skips"])
	assert.Len(t, body["entries"], 3)

	w = do(router, http.MethodGet, "/api/v1/corpora/docs/files", "")
	assert.Len(t, decode(t, w)["files"], 2)

	w = do(router, http.MethodDelete, "/api/v1/corpora/docs/files?path=b", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(router, http.MethodGet, "/api/v1/corpora/docs/count?tokens=the", "")
	assert.Equal(t, float64(2), decode(t, w)["count"])

	w = do(router, http.MethodGet, "/api/v1/corpora/docs/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["total_files"])
}

func TestErrorMapping(t *testing.T) {
	router := newTestRouter(t)
	require.Equal(t, http.StatusCreated, do(router, http.MethodPut, "/api/v1/corpora/docs", "").Code)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
	}{
		{"missing corpus", http.MethodGet, "/api/v1/corpora/nope/stats", "", http.StatusNotFound},
		{"duplicate corpus", http.MethodPut, "/api/v1/corpora/docs", "", http.StatusConflict},
		{"missing file", http.MethodDelete, "/api/v1/corpora/docs/files?path=x", "", http.StatusNotFound},
		{"skip out of range", http.MethodGet, "/api/v1/corpora/docs/count?tokens=a&skip=4", "", http.StatusBadRequest},
		{"bad skip", http.MethodGet, "/api/v1/corpora/docs/count?tokens=a&skip=x", "", http.StatusBadRequest},
		{"empty query", http.MethodGet, "/api/v1/corpora/docs/count", "", http.StatusBadRequest},
		{"order out of range", http.MethodPost, "/api/v1/corpora/docs/ngrams", `{"orders":[7]}`, http.StatusBadRequest},
		{"unknown language", http.MethodPost, "/api/v1/corpora/docs/files", `{"path":"x.rs","content":"fn"}`, http.StatusBadRequest},
		{"missing path", http.MethodPost, "/api/v1/corpora/docs/files", `{"content":"x"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestProcessDirectoryRoute(t *testing.T) {
	router := newTestRouter(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("one two"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "skip.bin"), []byte("zz"), 0o644))

	body, err := json.Marshal(map[string]string{"path": root})
	require.NoError(t, err)

	w := do(router, http.MethodPost, "/api/v1/corpora/tree/process", string(body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode(t, w)
	assert.Equal(t, float64(1), result["files"])
	assert.Equal(t, true, result["completed"])
	assert.NotEmpty(t, result["run_id"])
}

func TestRecovery(t *testing.T) {
	router := gin.New()
	router.Use(CustomRecoveryMiddleware(zap.NewNop()))
	router.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := do(router, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
