package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubOllamaServer serves /api/tags with a single installed model and
// /api/embed with a fixed-width vector, enough to exercise model
// resolution, dimension auto-detection, and the embed path without a real
// Ollama instance.
func stubOllamaServer(t *testing.T, dims int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(OllamaModelListResponse{
			Models: []OllamaModelInfo{{Name: DefaultOllamaModel}},
		})
	})

	mux.HandleFunc("/api/embed", func(w http.ResponseWriter, r *http.Request) {
		var req OllamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		count := 1
		if texts, ok := req.Input.([]any); ok {
			count = len(texts)
		}

		embeddings := make([][]float64, count)
		for i := range embeddings {
			vec := make([]float64, dims)
			for j := range vec {
				vec[j] = 0.1
			}
			embeddings[i] = vec
		}

		_ = json.NewEncoder(w).Encode(OllamaEmbedResponse{Model: DefaultOllamaModel, Embeddings: embeddings})
	})

	return httptest.NewServer(mux)
}

func newTestOllamaEmbedder(t *testing.T, dims int) (*OllamaEmbedder, *httptest.Server) {
	t.Helper()
	srv := stubOllamaServer(t, dims)

	cfg := DefaultOllamaConfig()
	cfg.Host = srv.URL
	cfg.MaxRetries = 1

	e, err := NewOllamaEmbedder(context.Background(), cfg)
	require.NoError(t, err)
	return e, srv
}

func TestOllamaEmbedder_DetectsDimensionsOnConnect(t *testing.T) {
	e, srv := newTestOllamaEmbedder(t, 768)
	defer srv.Close()
	defer e.Close()

	assert.Equal(t, 768, e.Dimensions())
	assert.Equal(t, DefaultOllamaModel, e.ModelName())
}

func TestOllamaEmbedder_Embed_ReturnsNormalizedVector(t *testing.T) {
	e, srv := newTestOllamaEmbedder(t, 8)
	defer srv.Close()
	defer e.Close()

	vec, err := e.Embed(context.Background(), "func main() {}")
	require.NoError(t, err)
	assert.Len(t, vec, 8)
	assert.InDelta(t, 1.0, vectorMagnitude(vec), 0.001)
}

func TestOllamaEmbedder_Embed_EmptyInput_ReturnsZeroVector(t *testing.T) {
	e, srv := newTestOllamaEmbedder(t, 8)
	defer srv.Close()
	defer e.Close()

	vec, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)
	for _, v := range vec {
		assert.Equal(t, float32(0), v)
	}
}

func TestOllamaEmbedder_EmbedBatch_ReturnsOneVectorPerText(t *testing.T) {
	e, srv := newTestOllamaEmbedder(t, 8)
	defer srv.Close()
	defer e.Close()

	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, vecs, 3)
}

func TestOllamaEmbedder_Available_TrueWhenModelListed(t *testing.T) {
	e, srv := newTestOllamaEmbedder(t, 8)
	defer srv.Close()
	defer e.Close()

	assert.True(t, e.Available(context.Background()))
}

func TestOllamaEmbedder_Close_RejectsFurtherEmbeds(t *testing.T) {
	e, srv := newTestOllamaEmbedder(t, 8)
	defer srv.Close()

	require.NoError(t, e.Close())
	_, err := e.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
}

func TestOllamaEmbedder_SetBatchIndexAndFinalBatch(t *testing.T) {
	e, srv := newTestOllamaEmbedder(t, 8)
	defer srv.Close()
	defer e.Close()

	e.SetBatchIndex(40)
	e.SetFinalBatch(true)

	// Progressive timeout should exceed the base warm timeout once batch
	// progression and the final-batch boost are both in effect.
	assert.Greater(t, e.getProgressiveTimeout(0), DefaultWarmTimeout)
}

func TestNewOllamaEmbedder_NoModelAvailable_ReturnsError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(OllamaModelListResponse{Models: nil})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := DefaultOllamaConfig()
	cfg.Host = srv.URL

	_, err := NewOllamaEmbedder(context.Background(), cfg)
	require.Error(t, err)
}
