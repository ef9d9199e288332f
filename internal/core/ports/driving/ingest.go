package driving

import (
	"context"

	"github.com/veldt-labs/bookrag/internal/core/domain"
)

// IngestReport is the partial-success result of one ingestion request.
// Uploaded may be a subset of the requested ids; Message enumerates
// skips and cache activity in human-readable form.
type IngestReport struct {
	Uploaded []domain.Book
	Message  string
	Stats    []domain.BookChunkStats
}

// Ingestor reconciles a set of requested book ids against the vector
// store and ingests the missing ones.
type Ingestor interface {
	// Ingest processes the requested ids. A failure on one book is
	// reported in the message and never aborts the batch.
	Ingest(ctx context.Context, bookIDs []int) (IngestReport, error)

	// MissingBookIDs reports which requested ids are absent from the
	// vector store. Exposed for introspection and ops tooling.
	MissingBookIDs(ctx context.Context, bookIDs []int) ([]int, error)
}
