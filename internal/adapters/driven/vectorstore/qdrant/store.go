// Package qdrant provides a VectorStore adapter for the Qdrant
// point-scroll REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/veldt-labs/bookrag/internal/core/domain"
	"github.com/veldt-labs/bookrag/internal/core/ports/driven"
	"github.com/veldt-labs/bookrag/internal/logger"
)

// Default configuration values.
const (
	DefaultTimeout = 30 * time.Second
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Config holds configuration for the Qdrant adapter.
type Config struct {
	// URL is the Qdrant base URL (required), e.g. http://localhost:6333.
	URL string

	// APIKey is sent as the api-key header when non-empty.
	APIKey string

	// Collection is the collection operated on (required).
	Collection string

	// Dimension is the embedding dimension used when creating the
	// collection.
	Dimension domain.Dimension

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration
}

// Store talks to one Qdrant collection. Scrolling uses Qdrant's
// point offset; an empty page is the backend's end-of-results signal
// and is normalised into an absent page token.
type Store struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	collection string
	dimension  domain.Dimension
}

// NewStore creates a Qdrant-backed vector store.
func NewStore(cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant: URL is required")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("qdrant: collection is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Store{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
	}, nil
}

// EnsureCollection creates the collection if it does not exist.
func (s *Store) EnsureCollection(ctx context.Context, name string) error {
	var exists struct {
		Result struct {
			Exists bool `json:"exists"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodGet, "/collections/"+name+"/exists", nil, &exists); err != nil {
		return err
	}
	if exists.Result.Exists {
		logger.Debug("qdrant collection %s already exists", name)
		return nil
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     int(s.dimension),
			"distance": "Cosine",
		},
	}
	if err := s.do(ctx, http.MethodPut, "/collections/"+name, body, nil); err != nil {
		return err
	}
	logger.Info("qdrant: created collection %s (dim %d)", name, s.dimension)
	return nil
}

// DeleteCollection removes the collection; deleting a missing
// collection is not an error.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	return s.do(ctx, http.MethodDelete, "/collections/"+name, nil, nil)
}

// Upsert writes points, overwriting by point id.
func (s *Store) Upsert(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	points := make([]pointRecord, 0, len(chunks))
	for i := range chunks {
		p, err := chunkToPoint(&chunks[i])
		if err != nil {
			return err
		}
		points = append(points, p)
	}
	body := map[string]any{"points": points}
	return s.do(ctx, http.MethodPut, "/collections/"+s.collection+"/points?wait=true", body, nil)
}

// DeleteBooks deletes all points whose book_id payload matches.
func (s *Store) DeleteBooks(ctx context.Context, bookIDs []int) error {
	if len(bookIDs) == 0 {
		return nil
	}
	body := map[string]any{"filter": bookFilter(bookIDs)}
	return s.do(ctx, http.MethodPost, "/collections/"+s.collection+"/points/delete?wait=true", body, nil)
}

// SearchByEmbedding runs cosine similarity search.
func (s *Store) SearchByEmbedding(
	ctx context.Context, vec domain.EmbeddingVector, k int, filter driven.Filter,
) ([]domain.SearchHit, error) {
	body := map[string]any{
		"vector":       vec.Values,
		"limit":        k,
		"with_payload": true,
	}
	if !filter.IsZero() {
		body["filter"] = bookFilter(filter.BookIDs)
	}

	var resp struct {
		Result []scoredPoint `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, "/collections/"+s.collection+"/points/search", body, &resp); err != nil {
		return nil, err
	}

	hits := make([]domain.SearchHit, 0, len(resp.Result))
	for i := range resp.Result {
		hits = append(hits, pointToHit(&resp.Result[i], domain.ScoreOriginVector))
	}
	return hits, nil
}

// ScanByFilter pages points with Qdrant's scroll API. The backend has
// no explicit terminator: the final call returns an empty page, which
// this adapter normalises into NextPageToken == "".
func (s *Store) ScanByFilter(
	ctx context.Context, filter driven.Filter, pageSize int, pageToken string,
) (domain.SearchPage, error) {
	if pageSize <= 0 {
		pageSize = 50
	}
	body := map[string]any{
		"limit":        pageSize,
		"with_payload": true,
	}
	if !filter.IsZero() {
		body["filter"] = bookFilter(filter.BookIDs)
	}
	if pageToken != "" {
		body["offset"] = pageToken
	}

	var resp struct {
		Result struct {
			Points         []scoredPoint `json:"points"`
			NextPageOffset *string       `json:"next_page_offset"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, "/collections/"+s.collection+"/points/scroll", body, &resp); err != nil {
		return domain.SearchPage{}, err
	}

	page := domain.SearchPage{}
	for i := range resp.Result.Points {
		page.Hits = append(page.Hits, pointToHit(&resp.Result.Points[i], domain.ScoreOriginScan))
	}
	// Empty page is the stop signal regardless of what the offset
	// field says.
	if len(resp.Result.Points) > 0 && resp.Result.NextPageOffset != nil {
		page.NextPageToken = *resp.Result.NextPageOffset
	}
	return page, nil
}

// do sends one JSON request and decodes the response into out when
// non-nil. Transport failures and 5xx responses are wrapped as
// domain.ErrStoreUnavailable.
func (s *Store) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("qdrant: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("qdrant: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: qdrant: %v", domain.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("qdrant: read response: %w", err)
	}

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: qdrant status %d: %s", domain.ErrStoreUnavailable, resp.StatusCode, data)
	}
	if resp.StatusCode == http.StatusNotFound && method == http.MethodDelete {
		// Deleting a missing collection is idempotent.
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("qdrant: status %d: %s", resp.StatusCode, data)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("qdrant: decode response: %w", err)
		}
	}
	return nil
}
