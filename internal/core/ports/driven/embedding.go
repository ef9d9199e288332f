package driven

import (
	"context"

	"github.com/veldt-labs/bookrag/internal/core/domain"
)

// EmbeddingService generates vector embeddings from text.
//
// EmbedBatch is the only embed entry point; callers are expected to
// have packed texts under the model's request token ceiling and to
// have acquired budget before calling.
//
// Implementations surface rate limiting as an error matching
// domain.ErrRateLimited so callers can back off and retry; other
// failures are not retried.
type EmbeddingService interface {
	// EmbedBatch returns one vector per input text, same length and
	// same order as the input.
	EmbedBatch(ctx context.Context, texts []string) ([]domain.EmbeddingVector, error)

	// Dimension returns the vector size produced by the model.
	Dimension() domain.Dimension

	// ModelName returns the embedding model deployment name.
	ModelName() string
}
