package driven

import (
	"context"

	"github.com/veldt-labs/bookrag/internal/core/domain"
)

// Filter is an exact-match predicate over chunk metadata fields.
// A zero Filter matches everything.
type Filter struct {
	// BookIDs restricts to chunks whose book id is in the set.
	BookIDs []int
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return len(f.BookIDs) == 0
}

// VectorStore is the capability set every backend variant implements.
// All operations are request/response; no streaming.
//
// The two network backends paginate differently (offset scroll vs
// continuation token); both normalise end-of-results into
// SearchPage.NextPageToken == "" so callers only ever loop on the
// token.
type VectorStore interface {
	// EnsureCollection creates the collection if missing. Idempotent.
	EnsureCollection(ctx context.Context, name string) error

	// DeleteCollection removes the collection. Idempotent.
	DeleteCollection(ctx context.Context, name string) error

	// Upsert writes chunks, idempotent by chunk id; re-upserting the
	// same id overwrites.
	Upsert(ctx context.Context, chunks []domain.Chunk) error

	// DeleteBooks removes all chunks belonging to the given book ids.
	DeleteBooks(ctx context.Context, bookIDs []int) error

	// SearchByEmbedding runs similarity search and returns up to k hits
	// with cosine-similarity scores.
	SearchByEmbedding(ctx context.Context, vec domain.EmbeddingVector, k int, filter Filter) ([]domain.SearchHit, error)

	// ScanByFilter enumerates matching chunks exhaustively, one page
	// per call, order unspecified. Hit scores are the scan sentinel.
	// Pass pageToken == "" for the first page.
	ScanByFilter(ctx context.Context, filter Filter, pageSize int, pageToken string) (domain.SearchPage, error)
}
