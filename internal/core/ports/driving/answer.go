package driving

import (
	"context"

	"github.com/veldt-labs/bookrag/internal/core/domain"
)

// QueryResponse is the answer to a natural-language query with the
// chunks it was grounded on.
type QueryResponse struct {
	Answer    string
	Citations []domain.Chunk
}

// Answerer runs the retrieval pipeline: embed, search, re-rank,
// compose. It degrades to fixed sentinel answers instead of failing
// when the index has nothing (relevant) to offer.
type Answerer interface {
	// Answer responds to the query using at most topK re-ranked
	// context chunks. topK <= 0 uses the configured default.
	Answer(ctx context.Context, query string, topK int) (QueryResponse, error)
}
