package domain

// ScoreOrigin says how a SearchHit's score was produced. Scores from
// different origins are not comparable with each other.
type ScoreOrigin int

const (
	// ScoreOriginVector is a cosine similarity from vector search.
	ScoreOriginVector ScoreOrigin = iota

	// ScoreOriginScan is the sentinel score attached by listing/scroll
	// operations. It carries no relevance meaning.
	ScoreOriginScan

	// ScoreOriginRerank is an LLM-assigned 0-10 integer relevance score.
	ScoreOriginRerank
)

// ScanScore is the arbitrary sentinel attached to hits returned by
// ScanByFilter. Callers must not rank by it.
const ScanScore = -1.0

// SearchHit is one result from a vector store operation.
type SearchHit struct {
	Chunk Chunk

	// Score semantics depend on Origin; see ScoreOrigin.
	Score float64

	Origin ScoreOrigin
}

// SearchPage is one page of an exhaustive scan.
// NextPageToken == "" is the sole, authoritative "no more pages"
// signal; adapters normalise their backend's end-of-results condition
// into it.
type SearchPage struct {
	Hits []SearchHit

	// NextPageToken requests the next page when non-empty.
	NextPageToken string

	// TotalCount is the backend-reported total, when available.
	TotalCount *int64
}
