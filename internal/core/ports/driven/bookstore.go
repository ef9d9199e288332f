package driven

import (
	"context"

	"github.com/veldt-labs/bookrag/internal/core/domain"
)

// BookMetadataStore persists bibliographic metadata and per-book chunk
// statistics relationally, keyed by the content source's book id.
type BookMetadataStore interface {
	// InsertIfMissing inserts the book and its stats unless a row with
	// the same id already exists. Returns whether a row was inserted
	// and a human-readable message for the ingestion report.
	InsertIfMissing(ctx context.Context, book domain.Book, stats domain.BookChunkStats) (bool, string, error)

	// Get returns the stored book, or domain.ErrNotFound.
	Get(ctx context.Context, id int) (*domain.Book, error)

	// ListStats returns all stored chunk stats, optionally filtered to
	// one config id (0 means all).
	ListStats(ctx context.Context, configID int) ([]domain.BookChunkStats, error)
}
