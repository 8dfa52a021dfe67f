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

func embedServer(t *testing.T, handler func(req ollamaEmbedRequest) ollamaEmbedResponse) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/embed":
			var req ollamaEmbedRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			_ = json.NewEncoder(w).Encode(handler(req))
		case "/api/tags":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestOllamaEmbedder_Embed(t *testing.T) {
	server := embedServer(t, func(req ollamaEmbedRequest) ollamaEmbedResponse {
		assert.Equal(t, "nomic-embed-text", req.Model)
		vectors := make([][]float32, len(req.Input))
		for i := range req.Input {
			vectors[i] = []float32{float32(i), 1}
		}
		return ollamaEmbedResponse{Embeddings: vectors}
	})
	defer server.Close()

	embedder, err := NewOllamaEmbedder(OllamaConfig{BaseURL: server.URL, Model: "nomic-embed-text"})
	require.NoError(t, err)

	assert.True(t, embedder.Available(context.Background()))

	vectors, err := embedder.Embed(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0, 1}, vectors[0])
	assert.Equal(t, []float32{1, 1}, vectors[1])
}

func TestOllamaEmbedder_CountMismatch(t *testing.T) {
	server := embedServer(t, func(ollamaEmbedRequest) ollamaEmbedResponse {
		return ollamaEmbedResponse{Embeddings: [][]float32{{1}}}
	})
	defer server.Close()

	embedder, err := NewOllamaEmbedder(OllamaConfig{BaseURL: server.URL, Model: "m"})
	require.NoError(t, err)

	_, err = embedder.Embed(context.Background(), []string{"one", "two"})
	assert.ErrorIs(t, err, ErrVectorCountMismatch)
}

func TestOllamaEmbedder_BackendError(t *testing.T) {
	server := embedServer(t, func(ollamaEmbedRequest) ollamaEmbedResponse {
		return ollamaEmbedResponse{Error: "model not found"}
	})
	defer server.Close()

	embedder, err := NewOllamaEmbedder(OllamaConfig{BaseURL: server.URL, Model: "m"})
	require.NoError(t, err)

	_, err = embedder.Embed(context.Background(), []string{"one"})
	assert.ErrorContains(t, err, "model not found")
}

func TestOllamaEmbedder_EmptyInput(t *testing.T) {
	embedder, err := NewOllamaEmbedder(OllamaConfig{Model: "m"})
	require.NoError(t, err)

	_, err = embedder.Embed(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestOllamaEmbedder_RequiresModel(t *testing.T) {
	_, err := NewOllamaEmbedder(OllamaConfig{})
	assert.Error(t, err)
}

func TestDisabled(t *testing.T) {
	var d Disabled

	assert.False(t, d.Available(context.Background()))
	_, err := d.Embed(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, ErrDisabled)
}
