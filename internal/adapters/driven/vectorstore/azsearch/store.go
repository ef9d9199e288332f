// Package azsearch provides a VectorStore adapter for the Azure AI
// Search document-index REST API.
//
// Unlike a point store, the service pages with an explicit
// continuation: a truncated response carries next-page parameters,
// and their absence is the end-of-results signal. This adapter wraps
// them in an opaque base64 token so callers drive the same token loop
// as against any other backend.
package azsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/veldt-labs/bookrag/internal/core/domain"
	"github.com/veldt-labs/bookrag/internal/core/ports/driven"
	"github.com/veldt-labs/bookrag/internal/logger"
)

// Default configuration values.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultAPIVersion = "2024-07-01"
)

// deleteScanPageSize bounds the per-page key fetch when deleting by
// book id.
const deleteScanPageSize = 1000

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Config holds configuration for the Azure AI Search adapter.
type Config struct {
	// Endpoint is the service URL (required),
	// e.g. https://myservice.search.windows.net.
	Endpoint string

	// APIKey is the admin or query key (required).
	APIKey string

	// Index is the search index operated on (required).
	Index string

	// Dimension is the embedding dimension used when creating the
	// index.
	Dimension domain.Dimension

	// APIVersion overrides the REST API version (default: 2024-07-01).
	APIVersion string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration
}

// Store talks to one Azure AI Search index.
type Store struct {
	client     *http.Client
	endpoint   string
	apiKey     string
	index      string
	dimension  domain.Dimension
	apiVersion string
}

// NewStore creates an Azure AI Search backed vector store.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("azsearch: endpoint is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("azsearch: API key is required")
	}
	if cfg.Index == "" {
		return nil, fmt.Errorf("azsearch: index is required")
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Store{
		client:     &http.Client{Timeout: cfg.Timeout},
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		index:      cfg.Index,
		dimension:  cfg.Dimension,
		apiVersion: cfg.APIVersion,
	}, nil
}

// EnsureCollection creates the index if it does not exist.
func (s *Store) EnsureCollection(ctx context.Context, name string) error {
	status, _, err := s.do(ctx, http.MethodGet, "/indexes/"+name, nil)
	if err != nil {
		return err
	}
	if status == http.StatusOK {
		logger.Debug("azsearch index %s already exists", name)
		return nil
	}
	if status != http.StatusNotFound {
		return fmt.Errorf("azsearch: check index %s: status %d", name, status)
	}

	status, data, err := s.do(ctx, http.MethodPut, "/indexes/"+name, indexSchema(name, s.dimension))
	if err != nil {
		return err
	}
	if status != http.StatusCreated && status != http.StatusNoContent {
		return fmt.Errorf("azsearch: create index %s: status %d: %s", name, status, data)
	}
	logger.Info("azsearch: created index %s (dim %d)", name, s.dimension)
	return nil
}

// DeleteCollection removes the index; a missing index is not an
// error.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	status, data, err := s.do(ctx, http.MethodDelete, "/indexes/"+name, nil)
	if err != nil {
		return err
	}
	if status != http.StatusNoContent && status != http.StatusNotFound {
		return fmt.Errorf("azsearch: delete index %s: status %d: %s", name, status, data)
	}
	return nil
}

// Upsert merge-or-uploads documents keyed by chunk id.
func (s *Store) Upsert(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	docs := make([]map[string]any, 0, len(chunks))
	for i := range chunks {
		doc, err := chunkToDocument(&chunks[i])
		if err != nil {
			return err
		}
		doc["@search.action"] = "mergeOrUpload"
		docs = append(docs, doc)
	}
	return s.indexDocuments(ctx, docs)
}

// DeleteBooks scans keys for the given book ids and deletes them in
// one indexing batch per page. The service has no delete-by-filter.
func (s *Store) DeleteBooks(ctx context.Context, bookIDs []int) error {
	if len(bookIDs) == 0 {
		return nil
	}
	filter := driven.Filter{BookIDs: bookIDs}
	token := ""
	for {
		page, err := s.ScanByFilter(ctx, filter, deleteScanPageSize, token)
		if err != nil {
			return err
		}
		if len(page.Hits) > 0 {
			docs := make([]map[string]any, 0, len(page.Hits))
			for _, h := range page.Hits {
				docs = append(docs, map[string]any{
					"@search.action": "delete",
					fieldID:          h.Chunk.ID,
				})
			}
			if err := s.indexDocuments(ctx, docs); err != nil {
				return err
			}
		}
		if page.NextPageToken == "" {
			return nil
		}
		token = page.NextPageToken
	}
}

// SearchByEmbedding runs vector similarity search.
func (s *Store) SearchByEmbedding(
	ctx context.Context, vec domain.EmbeddingVector, k int, filter driven.Filter,
) ([]domain.SearchHit, error) {
	body := map[string]any{
		"vectorQueries": []map[string]any{
			{
				"kind":   "vector",
				"vector": vec.Values,
				"fields": fieldEmbedding,
				"k":      k,
			},
		},
		"select": selectFields,
	}
	if expr := filterExpression(filter); expr != "" {
		body["filter"] = expr
	}

	var resp searchResponse
	if err := s.search(ctx, body, &resp); err != nil {
		return nil, err
	}

	hits := make([]domain.SearchHit, 0, len(resp.Value))
	for i := range resp.Value {
		hits = append(hits, documentToHit(&resp.Value[i], domain.ScoreOriginVector))
	}
	return hits, nil
}

// ScanByFilter pages all matching documents. The continuation the
// service returns is wrapped in an opaque token; no token in the
// response means the scan is complete.
func (s *Store) ScanByFilter(
	ctx context.Context, filter driven.Filter, pageSize int, pageToken string,
) (domain.SearchPage, error) {
	if pageSize <= 0 {
		pageSize = 50
	}

	cursor, err := DecodeCursor(pageToken)
	if err != nil {
		return domain.SearchPage{}, err
	}

	var body map[string]any
	if cursor.NextPageParameters != nil {
		// Continuation: replay the service's own next-page request.
		if err := json.Unmarshal(cursor.NextPageParameters, &body); err != nil {
			return domain.SearchPage{}, fmt.Errorf("%w: parse page token: %v", domain.ErrInvalidInput, err)
		}
	} else {
		body = map[string]any{
			"search":  "*",
			"top":     pageSize,
			"count":   true,
			"select":  selectFields,
			"orderby": fieldID,
		}
		if expr := filterExpression(filter); expr != "" {
			body["filter"] = expr
		}
	}

	var resp searchResponse
	if err := s.search(ctx, body, &resp); err != nil {
		return domain.SearchPage{}, err
	}

	page := domain.SearchPage{}
	for i := range resp.Value {
		page.Hits = append(page.Hits, documentToHit(&resp.Value[i], domain.ScoreOriginScan))
	}
	if resp.Count != nil {
		page.TotalCount = resp.Count
	}
	if len(resp.NextPageParameters) > 0 {
		c := Cursor{NextPageParameters: resp.NextPageParameters}
		page.NextPageToken = c.Encode()
	}
	return page, nil
}

func (s *Store) search(ctx context.Context, body map[string]any, out *searchResponse) error {
	status, data, err := s.do(ctx, http.MethodPost, "/indexes/"+s.index+"/docs/search", body)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("azsearch: search: status %d: %s", status, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("azsearch: decode search response: %w", err)
	}
	return nil
}

func (s *Store) indexDocuments(ctx context.Context, docs []map[string]any) error {
	body := map[string]any{"value": docs}
	status, data, err := s.do(ctx, http.MethodPost, "/indexes/"+s.index+"/docs/index", body)
	if err != nil {
		return err
	}
	// 207 means per-document failures; surface them.
	if status != http.StatusOK {
		return fmt.Errorf("azsearch: index documents: status %d: %s", status, data)
	}
	return nil
}

// do sends one JSON request and returns status and raw body.
// Transport failures and 5xx responses are wrapped as
// domain.ErrStoreUnavailable; status handling beyond that is left to
// the caller because the indexes API uses several success codes.
func (s *Store) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("azsearch: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	url := s.endpoint + path + "?api-version=" + s.apiVersion
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("azsearch: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: azsearch: %v", domain.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("azsearch: read response: %w", err)
	}
	if resp.StatusCode >= 500 {
		return 0, nil, fmt.Errorf("%w: azsearch status %d: %s", domain.ErrStoreUnavailable, resp.StatusCode, data)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return 0, nil, fmt.Errorf("%w: azsearch throttled", domain.ErrRateLimited)
	}
	return resp.StatusCode, data, nil
}
