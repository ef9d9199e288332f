package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldt-labs/bookrag/internal/core/domain"
)

func TestEmbedBatch(t *testing.T) {
	var gotReq embedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		resp := embedResponse{Embeddings: [][]float32{{1, 0, 0}, {0, 1, 0}}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	svc := NewEmbeddingService(Config{BaseURL: server.URL, Dimension: 3})

	vecs, err := svc.EmbedBatch(context.Background(), []string{"first", "second"})

	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", gotReq.Model)
	assert.Equal(t, []string{"first", "second"}, gotReq.Input)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float32{1, 0, 0}, vecs[0].Values)
	assert.Equal(t, domain.Dimension(3), vecs[0].Dim)
}

func TestEmbedBatch_EmptyInput(t *testing.T) {
	svc := NewEmbeddingService(Config{})

	vecs, err := svc.EmbedBatch(context.Background(), nil)

	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestEmbedBatch_DimensionMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := embedResponse{Embeddings: [][]float32{{1, 0}}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	svc := NewEmbeddingService(Config{BaseURL: server.URL, Dimension: 3})

	_, err := svc.EmbedBatch(context.Background(), []string{"text"})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEmbedBatch_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := embedResponse{Embeddings: [][]float32{{1, 0, 0}}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	svc := NewEmbeddingService(Config{BaseURL: server.URL, Dimension: 3})

	_, err := svc.EmbedBatch(context.Background(), []string{"one", "two"})

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestEmbedBatch_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewEmbeddingService(Config{BaseURL: server.URL})

	_, err := svc.EmbedBatch(context.Background(), []string{"text"})

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestDefaults(t *testing.T) {
	svc := NewEmbeddingService(Config{})

	assert.Equal(t, domain.Dimension(DefaultDimension), svc.Dimension())
	assert.Equal(t, DefaultModel, svc.ModelName())
}
