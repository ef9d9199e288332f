// Package memory provides an in-process VectorStore used by tests and
// local smoke runs.
package memory

import (
	"context"
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/veldt-labs/bookrag/internal/core/domain"
	"github.com/veldt-labs/bookrag/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store keeps chunks in a map keyed by chunk id. Scans page in
// sorted-id order with a numeric continuation token, exercising the
// same token loop callers use against the network backends.
type Store struct {
	mu         sync.RWMutex
	chunks     map[string]domain.Chunk
	collection string
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{chunks: make(map[string]domain.Chunk)}
}

// EnsureCollection records the collection name. Idempotent.
func (s *Store) EnsureCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collection = name
	return nil
}

// DeleteCollection drops everything. Idempotent.
func (s *Store) DeleteCollection(_ context.Context, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = make(map[string]domain.Chunk)
	s.collection = ""
	return nil
}

// Upsert writes chunks, overwriting by id.
func (s *Store) Upsert(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		s.chunks[c.ID] = c
	}
	return nil
}

// DeleteBooks removes all chunks for the given book ids.
func (s *Store) DeleteBooks(_ context.Context, bookIDs []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	drop := make(map[int]struct{}, len(bookIDs))
	for _, id := range bookIDs {
		drop[id] = struct{}{}
	}
	for id, c := range s.chunks {
		if _, ok := drop[c.BookID]; ok {
			delete(s.chunks, id)
		}
	}
	return nil
}

// SearchByEmbedding ranks stored chunks by cosine similarity.
func (s *Store) SearchByEmbedding(
	_ context.Context, vec domain.EmbeddingVector, k int, filter driven.Filter,
) ([]domain.SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]domain.SearchHit, 0, len(s.chunks))
	for _, c := range s.chunks {
		if !matches(c, filter) || c.Embedding == nil {
			continue
		}
		hits = append(hits, domain.SearchHit{
			Chunk:  c,
			Score:  cosine(vec.Values, c.Embedding.Values),
			Origin: domain.ScoreOriginVector,
		})
	}

	// Deterministic order: score descending, chunk id as tie-break.
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Chunk.ID < hits[j].Chunk.ID
	})
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// ScanByFilter pages matching chunks in sorted-id order.
func (s *Store) ScanByFilter(
	_ context.Context, filter driven.Filter, pageSize int, pageToken string,
) (domain.SearchPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.chunks))
	for id, c := range s.chunks {
		if matches(c, filter) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	offset := 0
	if pageToken != "" {
		n, err := strconv.Atoi(pageToken)
		if err != nil || n < 0 {
			return domain.SearchPage{}, domain.ErrInvalidInput
		}
		offset = n
	}
	if pageSize <= 0 {
		pageSize = 50
	}

	end := offset + pageSize
	if end > len(ids) {
		end = len(ids)
	}
	if offset > end {
		offset = end
	}

	page := domain.SearchPage{}
	for _, id := range ids[offset:end] {
		page.Hits = append(page.Hits, domain.SearchHit{
			Chunk:  s.chunks[id],
			Score:  domain.ScanScore,
			Origin: domain.ScoreOriginScan,
		})
	}
	total := int64(len(ids))
	page.TotalCount = &total
	if end < len(ids) {
		page.NextPageToken = strconv.Itoa(end)
	}
	return page, nil
}

// Len reports the number of stored chunks. Test helper.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

func matches(c domain.Chunk, f driven.Filter) bool {
	if f.IsZero() {
		return true
	}
	for _, id := range f.BookIDs {
		if c.BookID == id {
			return true
		}
	}
	return false
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
