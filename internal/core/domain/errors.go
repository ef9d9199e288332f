package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input, including
	// embedding dimension mismatches.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimited indicates an external facade rejected a call for
	// rate limiting. Recoverable with backoff, unlike other facade errors.
	ErrRateLimited = errors.New("rate limited")

	// ErrEmptyContent indicates a book had no usable text after header
	// cleanup. Fatal for that single book only.
	ErrEmptyContent = errors.New("empty content after cleanup")

	// ErrStoreUnavailable indicates the vector store backend cannot be
	// reached. Fatal for the whole request; not retried here.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)
