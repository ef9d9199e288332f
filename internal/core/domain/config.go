package domain

// Config is the full run configuration, constructed once at process
// start and passed into each component constructor. There is no
// ambient global lookup.
type Config struct {
	// ConfigID identifies the hyperparameter set; it is written into
	// chunk stats and the run's statistics artifact so corpora built
	// under different settings can be told apart.
	ConfigID int `toml:"config_id"`

	Ingestion  IngestionConfig  `toml:"ingestion"`
	Retrieval  RetrievalConfig  `toml:"retrieval"`
	Rerank     RerankConfig     `toml:"rerank"`
	Generation GenerationConfig `toml:"generation"`
}

// IngestionConfig controls chunking, embedding and the API budgets.
type IngestionConfig struct {
	// ChunkSize is the chunk length in tokens.
	ChunkSize int `toml:"chunk_size"`

	// ChunkOverlap is the overlap between consecutive chunks in tokens.
	ChunkOverlap int `toml:"chunk_overlap"`

	// ChunkStrategy selects the chunking policy ("fixed" today).
	ChunkStrategy string `toml:"chunk_strategy"`

	// EmbedModel is the embedding model deployment name.
	EmbedModel string `toml:"embed_model"`

	// EmbedDim is the embedding dimension (1536 or 3072).
	EmbedDim int `toml:"embed_dim"`

	// RequestsPerMin caps embedding/generation requests per minute.
	RequestsPerMin int `toml:"requests_per_min"`

	// TokensPerMin caps embedding tokens per minute.
	TokensPerMin int `toml:"tokens_per_min"`

	// MaxTokensPerRequest bounds one embedding batch.
	MaxTokensPerRequest int `toml:"max_tokens_per_request"`
}

// RetrievalConfig controls the raw vector search stage.
type RetrievalConfig struct {
	// TopKRaw is how many hits vector search returns into re-rank;
	// configurably larger than the number of chunks ultimately used.
	TopKRaw int `toml:"top_k_raw"`

	// Backend selects the vector store variant ("qdrant" or "azsearch").
	Backend string `toml:"backend"`

	// Collection is the collection/index name.
	Collection string `toml:"collection"`
}

// RerankConfig controls the LLM re-rank stage.
type RerankConfig struct {
	Enabled bool `toml:"enabled"`

	// BatchSize is the number of hits scored per LLM call.
	BatchSize int `toml:"batch_size"`

	// Model is the scoring model deployment name.
	Model string `toml:"model"`
}

// GenerationConfig controls answer composition.
type GenerationConfig struct {
	// Model is the generation model deployment name.
	Model string `toml:"model"`

	// NumContextChunks is how many re-ranked chunks survive into the
	// answer context.
	NumContextChunks int `toml:"num_context_chunks"`
}

// DefaultConfig returns the settings used when no config file exists.
func DefaultConfig() Config {
	return Config{
		ConfigID: 1,
		Ingestion: IngestionConfig{
			ChunkSize:           400,
			ChunkOverlap:        40,
			ChunkStrategy:       "fixed",
			EmbedModel:          "text-embedding-3-small",
			EmbedDim:            int(DimensionSmall),
			RequestsPerMin:      3000,
			TokensPerMin:        501_000,
			MaxTokensPerRequest: 8000,
		},
		Retrieval: RetrievalConfig{
			TopKRaw:    20,
			Backend:    "qdrant",
			Collection: "books-v1",
		},
		Rerank: RerankConfig{
			Enabled:   true,
			BatchSize: 5,
			Model:     "gpt-5-mini",
		},
		Generation: GenerationConfig{
			Model:            "gpt-5-mini",
			NumContextChunks: 6,
		},
	}
}

// DefaultBookIDs is the known-good default corpus (Gutenberg ids).
var DefaultBookIDs = []int{
	84,   // Frankenstein
	42,   // Dr. Jekyll and Mr. Hyde
	2701, // Moby Dick
	1661, // The Adventures of Sherlock Holmes
	1404, // The Federalist Papers
	2680, // Meditations
}
