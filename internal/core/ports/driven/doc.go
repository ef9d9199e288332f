// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - VectorStore: vector persistence, similarity search and scanning
//   - EmbeddingService: generates embeddings (the only embed boundary)
//   - LLMService: re-rank scoring and answer generation
//   - ContentSource: resolves book metadata and fetches raw text
//   - BookMetadataStore: relational persistence of books + chunk stats
//   - Tokenizer: deterministic token counting shared by the batch
//     packer and the budget cost estimate
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
