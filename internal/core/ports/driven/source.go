package driven

import (
	"context"

	"github.com/veldt-labs/bookrag/internal/core/domain"
)

// ContentSource resolves book metadata and fetches raw text from the
// external catalogue. Caching is the ingestion service's concern, not
// the source's.
type ContentSource interface {
	// ResolveBook fetches bibliographic metadata for a book id,
	// including the plain-text content URL.
	ResolveBook(ctx context.Context, id int) (domain.Book, error)

	// FetchContent downloads the raw text for a resolved book.
	FetchContent(ctx context.Context, book domain.Book) (string, error)
}
