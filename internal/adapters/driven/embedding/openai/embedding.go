// Package openai provides an embedding service adapter using the
// OpenAI API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/veldt-labs/bookrag/internal/core/domain"
	"github.com/veldt-labs/bookrag/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 60 * time.Second
)

// Model dimensions for OpenAI embedding models.
var modelDimensions = map[string]domain.Dimension{
	"text-embedding-3-small": domain.DimensionSmall,
	"text-embedding-3-large": domain.DimensionLarge,
	"text-embedding-ada-002": domain.DimensionSmall,
}

// Config holds configuration for the OpenAI embedding service.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL overrides the API base URL. Useful for Azure OpenAI or
	// compatible APIs.
	BaseURL string

	// Model is the embedding model to use (default: text-embedding-3-small).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration
}

// EmbeddingService generates embeddings using the OpenAI API.
type EmbeddingService struct {
	client    *goopenai.Client
	model     string
	dimension domain.Dimension
}

// NewEmbeddingService creates a new OpenAI embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	dim, ok := modelDimensions[cfg.Model]
	if !ok {
		return nil, fmt.Errorf("openai: unknown embedding model %q", cfg.Model)
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &EmbeddingService{
		client:    goopenai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		dimension: dim,
	}, nil
}

// EmbedBatch generates embeddings for multiple texts in one request.
// The result preserves input order and every vector is validated
// against the model dimension.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([]domain.EmbeddingVector, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := s.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Model: goopenai.EmbeddingModel(s.model),
		Input: texts,
	})
	if err != nil {
		return nil, wrapAPIError(err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai: got %d embeddings for %d texts", len(resp.Data), len(texts))
	}

	// Order by the index field rather than trusting response order.
	vectors := make([]domain.EmbeddingVector, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(texts) {
			return nil, fmt.Errorf("openai: embedding index %d out of range", data.Index)
		}
		vec, err := domain.NewEmbeddingVector(data.Embedding, s.dimension)
		if err != nil {
			return nil, fmt.Errorf("embedding %d: %w", data.Index, err)
		}
		vectors[data.Index] = vec
	}
	return vectors, nil
}

// Dimension returns the vector size produced by the model.
func (s *EmbeddingService) Dimension() domain.Dimension {
	return s.dimension
}

// ModelName returns the embedding model name.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// wrapAPIError maps HTTP 429 onto the domain rate limit sentinel so
// callers can back off and retry.
func wrapAPIError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: openai: %v", domain.ErrRateLimited, err)
	}
	return fmt.Errorf("%w: openai: %v", domain.ErrEmbeddingUnavailable, err)
}
