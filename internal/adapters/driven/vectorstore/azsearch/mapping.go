package azsearch

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/veldt-labs/bookrag/internal/core/domain"
	"github.com/veldt-labs/bookrag/internal/core/ports/driven"
)

// Index field names.
const (
	fieldID         = "id"
	fieldBookID     = "book_id"
	fieldSequence   = "chunk_nr"
	fieldContent    = "content"
	fieldTokenCount = "token_count"
	fieldEmbedding  = "embedding"
)

// selectFields lists what searches retrieve. Embeddings are not read
// back.
const selectFields = fieldID + "," + fieldBookID + "," + fieldSequence + "," + fieldContent + "," + fieldTokenCount

// searchDocument is the wire shape of one returned document.
type searchDocument struct {
	Score      float64 `json:"@search.score"`
	ID         string  `json:"id"`
	BookID     int     `json:"book_id"`
	Sequence   int     `json:"chunk_nr"`
	Content    string  `json:"content"`
	TokenCount int     `json:"token_count"`
}

// searchResponse is the wire shape of a search result page. A
// truncated page carries the parameters for the next request.
type searchResponse struct {
	Count              *int64           `json:"@odata.count"`
	Value              []searchDocument `json:"value"`
	NextPageParameters json.RawMessage  `json:"@search.nextPageParameters"`
}

// chunkToDocument maps a chunk onto an index document.
func chunkToDocument(c *domain.Chunk) (map[string]any, error) {
	if c.Embedding == nil {
		return nil, fmt.Errorf("%w: chunk %s has no embedding", domain.ErrInvalidInput, c.ID)
	}
	return map[string]any{
		fieldID:         c.ID,
		fieldBookID:     c.BookID,
		fieldSequence:   c.Sequence,
		fieldContent:    c.Content,
		fieldTokenCount: c.TokenCount,
		fieldEmbedding:  c.Embedding.Values,
	}, nil
}

// documentToHit maps a returned document onto a SearchHit. Scan hits
// get the sentinel scan score.
func documentToHit(d *searchDocument, origin domain.ScoreOrigin) domain.SearchHit {
	score := d.Score
	if origin == domain.ScoreOriginScan {
		score = domain.ScanScore
	}
	return domain.SearchHit{
		Chunk: domain.Chunk{
			ID:         d.ID,
			BookID:     d.BookID,
			Sequence:   d.Sequence,
			Content:    d.Content,
			TokenCount: d.TokenCount,
		},
		Score:  score,
		Origin: origin,
	}
}

// filterExpression builds the OData filter for book ids. Empty when
// the filter is zero.
func filterExpression(f driven.Filter) string {
	if f.IsZero() {
		return ""
	}
	terms := make([]string, 0, len(f.BookIDs))
	for _, id := range f.BookIDs {
		terms = append(terms, fmt.Sprintf("%s eq %d", fieldBookID, id))
	}
	return strings.Join(terms, " or ")
}

// indexSchema is the index definition used by EnsureCollection.
func indexSchema(name string, dim domain.Dimension) map[string]any {
	return map[string]any{
		"name": name,
		"fields": []map[string]any{
			{"name": fieldID, "type": "Edm.String", "key": true, "filterable": true},
			{"name": fieldBookID, "type": "Edm.Int32", "filterable": true},
			{"name": fieldSequence, "type": "Edm.Int32", "filterable": true, "sortable": true},
			{"name": fieldContent, "type": "Edm.String", "searchable": true},
			{"name": fieldTokenCount, "type": "Edm.Int32", "filterable": true},
			{
				"name":                "embedding",
				"type":                "Collection(Edm.Single)",
				"searchable":          true,
				"retrievable":         false,
				"dimensions":          int(dim),
				"vectorSearchProfile": "default-profile",
			},
		},
		"vectorSearch": map[string]any{
			"algorithms": []map[string]any{
				{"name": "default-hnsw", "kind": "hnsw"},
			},
			"profiles": []map[string]any{
				{"name": "default-profile", "algorithm": "default-hnsw"},
			},
		},
	}
}
