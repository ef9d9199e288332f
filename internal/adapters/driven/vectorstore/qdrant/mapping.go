package qdrant

import (
	"fmt"

	"github.com/veldt-labs/bookrag/internal/core/domain"
)

// Payload field names used in the collection.
const (
	fieldBookID     = "book_id"
	fieldSequence   = "chunk_nr"
	fieldContent    = "content"
	fieldTokenCount = "token_count"
)

// pointRecord is the wire shape for upserts.
type pointRecord struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// scoredPoint is the wire shape returned by search and scroll. Scroll
// responses carry no score field, so Score stays zero there.
type scoredPoint struct {
	ID      string         `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// chunkToPoint maps a chunk onto a Qdrant point. The embedding is
// required because the point vector is not optional.
func chunkToPoint(c *domain.Chunk) (pointRecord, error) {
	if c.Embedding == nil {
		return pointRecord{}, fmt.Errorf("%w: chunk %s has no embedding", domain.ErrInvalidInput, c.ID)
	}
	return pointRecord{
		ID:     c.ID,
		Vector: c.Embedding.Values,
		Payload: map[string]any{
			fieldBookID:     c.BookID,
			fieldSequence:   c.Sequence,
			fieldContent:    c.Content,
			fieldTokenCount: c.TokenCount,
		},
	}, nil
}

// pointToHit maps a returned point onto a SearchHit. Vectors are not
// requested back, so the chunk carries no embedding. Scan hits get the
// sentinel scan score.
func pointToHit(p *scoredPoint, origin domain.ScoreOrigin) domain.SearchHit {
	c := domain.Chunk{
		ID:         p.ID,
		BookID:     payloadInt(p.Payload, fieldBookID),
		Sequence:   payloadInt(p.Payload, fieldSequence),
		TokenCount: payloadInt(p.Payload, fieldTokenCount),
	}
	if v, ok := p.Payload[fieldContent].(string); ok {
		c.Content = v
	}

	score := p.Score
	if origin == domain.ScoreOriginScan {
		score = domain.ScanScore
	}
	return domain.SearchHit{Chunk: c, Score: score, Origin: origin}
}

// bookFilter builds the match-any payload filter for book ids.
func bookFilter(bookIDs []int) map[string]any {
	return map[string]any{
		"must": []map[string]any{
			{
				"key":   fieldBookID,
				"match": map[string]any{"any": bookIDs},
			},
		},
	}
}

// payloadInt reads a numeric payload field. JSON numbers decode as
// float64.
func payloadInt(payload map[string]any, key string) int {
	if v, ok := payload[key].(float64); ok {
		return int(v)
	}
	return 0
}
