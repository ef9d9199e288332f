package driven

import "github.com/veldt-labs/bookrag/internal/core/domain"

// Chunker splits cleaned book text into chunks. The strategy (fixed
// size, semantic boundary, ...) is a pluggable policy; the ingestion
// service only requires that chunk ids are fresh and Sequence numbers
// follow input order.
type Chunker interface {
	Chunk(bookID int, text string) []domain.Chunk
}
