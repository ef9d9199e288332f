package domain

import "fmt"

// Dimension is the embedding vector size, fixed by the embedding model.
type Dimension int

// Supported embedding dimensions.
const (
	// DimensionSmall matches text-embedding-3-small.
	DimensionSmall Dimension = 1536

	// DimensionLarge matches text-embedding-3-large.
	DimensionLarge Dimension = 3072
)

// ParseDimension maps a configured size to a Dimension.
func ParseDimension(n int) (Dimension, error) {
	switch Dimension(n) {
	case DimensionSmall, DimensionLarge:
		return Dimension(n), nil
	default:
		return 0, fmt.Errorf("%w: unsupported embedding dimension %d", ErrInvalidInput, n)
	}
}

// EmbeddingVector is a dimension-checked embedding.
// Construct with NewEmbeddingVector; a length/dimension mismatch is a
// validation failure, never a silent truncation.
type EmbeddingVector struct {
	Values []float32
	Dim    Dimension
}

// NewEmbeddingVector validates that the vector length matches the
// declared dimension.
func NewEmbeddingVector(values []float32, dim Dimension) (EmbeddingVector, error) {
	if len(values) != int(dim) {
		return EmbeddingVector{}, fmt.Errorf(
			"%w: vector length %d does not match dimension %d", ErrInvalidInput, len(values), dim)
	}
	return EmbeddingVector{Values: values, Dim: dim}, nil
}

// Chunk is the atomic unit of embedding and retrieval: a contiguous
// slice of a book's text. Chunks are created by the chunker, enriched
// with an embedding before upload, and immutable thereafter.
// Re-ingesting a book creates new chunk ids.
type Chunk struct {
	// ID is a globally unique identifier assigned at creation time.
	ID string

	// BookID links to the parent Book.
	BookID int

	// Sequence is the ordinal position within the book (0-based).
	Sequence int

	// Content is the chunk text.
	Content string

	// TokenCount is the tokenizer's count for Content.
	TokenCount int

	// Embedding is nil until the embedding stage attaches it.
	Embedding *EmbeddingVector
}

// ValidateForUpload checks the invariants that must hold before a
// book's chunks are written to the vector store: ids unique, one
// book id throughout, every chunk embedded.
func ValidateForUpload(chunks []Chunk) error {
	if len(chunks) == 0 {
		return fmt.Errorf("%w: no chunks to upload", ErrInvalidInput)
	}

	seen := make(map[string]struct{}, len(chunks))
	bookID := chunks[0].BookID
	for i := range chunks {
		c := &chunks[i]
		if c.ID == "" {
			return fmt.Errorf("%w: chunk %d has empty id", ErrInvalidInput, i)
		}
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("%w: duplicate chunk id %s", ErrInvalidInput, c.ID)
		}
		seen[c.ID] = struct{}{}
		if c.BookID != bookID {
			return fmt.Errorf("%w: mixed book ids %d and %d in one upload", ErrInvalidInput, bookID, c.BookID)
		}
		if c.Embedding == nil {
			return fmt.Errorf("%w: chunk %s missing embedding", ErrInvalidInput, c.ID)
		}
	}
	return nil
}
