package analysis

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// geminiReply wraps text the way generateContent returns a model turn.
func geminiReply(text string) []byte {
	body, _ := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": text}},
				},
				"finishReason": "STOP",
			},
		},
	})
	return body
}

func newGeminiTestServer(t *testing.T, status int, text string, requests *atomic.Int32, lastBody *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if !strings.Contains(r.URL.Path, ":generateContent") {
			http.NotFound(w, r)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		if lastBody != nil {
			*lastBody = string(raw)
		}
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			w.Write([]byte(`{"error": {"code": 400, "message": "image could not be processed", "status": "INVALID_ARGUMENT"}}`))
			return
		}
		w.Write(geminiReply(text))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGeminiAnalyzer_Success(t *testing.T) {
	var requests atomic.Int32
	var body string
	srv := newGeminiTestServer(t, http.StatusOK,
		`{"isSensitive": false, "description": "um gato", "identifiedObjects": ["gato"], "keyInsights": []}`,
		&requests, &body)

	g, err := NewGeminiAnalyzer(context.Background(), GeminiConfig{APIKey: "test", Model: "gemini-2.5-flash", BaseURL: srv.URL})
	require.NoError(t, err)

	r, err := g.AnalyzeImage(context.Background(), []byte{0x89, 'P', 'N', 'G'}, "image/png")
	require.NoError(t, err)

	assert.Equal(t, "um gato", r.Description())
	assert.Equal(t, []string{"gato"}, r.IdentifiedObjects())
	assert.Equal(t, int32(1), requests.Load())

	assert.Contains(t, body, `"mimeType":"image/png"`)
	assert.Contains(t, body, `"responseMimeType":"application/json"`)
	assert.Contains(t, body, "identifiedObjects")
	assert.Contains(t, body, "Execute uma an")
}

func TestGeminiAnalyzer_ErrorStatus(t *testing.T) {
	var requests atomic.Int32
	srv := newGeminiTestServer(t, http.StatusBadRequest, "", &requests, nil)

	g, err := NewGeminiAnalyzer(context.Background(), GeminiConfig{APIKey: "test", Model: "gemini-2.5-flash", BaseURL: srv.URL})
	require.NoError(t, err)

	r, err := g.AnalyzeImage(context.Background(), []byte{1}, "image/png")
	assert.Error(t, err)
	assert.Nil(t, r)
	assert.Equal(t, int32(1), requests.Load(), "no retry")
}

func TestGeminiAnalyzer_MalformedText(t *testing.T) {
	var requests atomic.Int32
	srv := newGeminiTestServer(t, http.StatusOK, "not json at all", &requests, nil)

	g, err := NewGeminiAnalyzer(context.Background(), GeminiConfig{APIKey: "test", Model: "gemini-2.5-flash", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = g.AnalyzeImage(context.Background(), []byte{1}, "image/png")
	assert.Error(t, err)
}

func TestNewGeminiAnalyzer_RequiresKey(t *testing.T) {
	_, err := NewGeminiAnalyzer(context.Background(), GeminiConfig{Model: "m"})
	assert.Error(t, err)
}
