package domain

// BookChunkStats is the per-book aggregate computed once per ingestion
// run and persisted alongside the relational metadata. It feeds corpus
// fingerprinting; retrieval never reads it.
type BookChunkStats struct {
	BookID   int    `json:"book_id"`
	ConfigID int    `json:"config_id_used"`
	Title    string `json:"title"`

	CharCount  int `json:"char_count"`
	ChunkCount int `json:"chunk_count"`

	TokenMean   float64 `json:"token_mean"`
	TokenMedian float64 `json:"token_median"`
	TokenMin    int     `json:"token_min"`
	TokenMax    int     `json:"token_max"`

	// TokenStd is the sample standard deviation; 0 for a single chunk.
	TokenStd float64 `json:"token_std"`

	// TokenCounts is the raw per-chunk token count series, kept so
	// pooled percentiles can be computed across books.
	TokenCounts []int `json:"token_counts"`
}
