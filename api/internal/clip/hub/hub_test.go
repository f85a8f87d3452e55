package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T, handler http.HandlerFunc) *Engine {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "test-token", "Arabic-Clip/araclip")
}

func TestLogitsPerImage(t *testing.T) {
	var gotBody map[string]any
	eng := newTestHub(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.True(t, strings.HasSuffix(r.URL.Path, "/logits_per_image"), r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"logits_per_image": [][]float64{{2.5, 1.0, -0.3}},
		})
	})

	logits, err := eng.LogitsPerImage(context.Background(), []byte{0x89, 0x50}, []string{"أ", "خربشة", "فارغ"})
	require.NoError(t, err)
	assert.Equal(t, []float64{2.5, 1.0, -0.3}, logits)

	assert.NotEmpty(t, gotBody["image_b64"])
	texts, ok := gotBody["texts"].([]any)
	require.True(t, ok)
	assert.Len(t, texts, 3)
	assert.Equal(t, "أ", texts[0])
}

func TestLogitsPerImage_HostError(t *testing.T) {
	eng := newTestHub(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	})

	_, err := eng.LogitsPerImage(context.Background(), []byte{1}, []string{"أ"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestLogitsPerImage_WrongRowCount(t *testing.T) {
	eng := newTestHub(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"logits_per_image": [][]float64{{1}, {2}},
		})
	})

	_, err := eng.LogitsPerImage(context.Background(), []byte{1}, []string{"أ"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 1 image row")
}

func TestEmbeddings(t *testing.T) {
	eng := newTestHub(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/embeddings"), r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"image_embeds": [][]float64{{1, 0}},
			"text_embeds":  [][]float64{{0.6, 0.8}},
		})
	})

	img, txt, err := eng.Embeddings(context.Background(), []byte{1}, "أ")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, img)
	assert.Equal(t, []float64{0.6, 0.8}, txt)
}

func TestReady(t *testing.T) {
	calls := 0
	eng := newTestHub(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.Equal(t, "GET", r.Method)
		require.True(t, strings.HasSuffix(r.URL.Path, "/ready"), r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, eng.Ready(context.Background()))
	assert.Equal(t, 1, calls)
}

func TestReady_ModelMissing(t *testing.T) {
	eng := newTestHub(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	})

	err := eng.Ready(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestModelIDEscaping(t *testing.T) {
	eng := New("http://hub.local", "", "Arabic-Clip/araclip")
	assert.Equal(t, "http://hub.local/v1/models/Arabic-Clip%2Faraclip/ready", eng.modelURL("ready"))
}
