// Package domain defines the core business entities for bookrag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Book: bibliographic metadata for a source document
//   - Chunk: the atomic unit of embedding and retrieval
//   - EmbeddingVector: a dimension-checked embedding
//   - SearchHit / SearchPage: search and pagination results
//   - BookChunkStats: per-book chunk statistics
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
