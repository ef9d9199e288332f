package services

import (
	"context"
	"fmt"

	"github.com/veldt-labs/bookrag/internal/core/ports/driven"
)

// missingScanPageSize bounds each reconciliation scan page.
const missingScanPageSize = 200

// MissingBookIDs reports which of the requested ids have no chunks in
// the store. It drives the store's scan through the page-token loop,
// so the same code serves every backend regardless of how the backend
// signals end-of-results. The result preserves request order with
// duplicates removed.
func MissingBookIDs(ctx context.Context, store driven.VectorStore, bookIDs []int) ([]int, error) {
	if len(bookIDs) == 0 {
		return nil, nil
	}

	present := make(map[int]struct{})
	filter := driven.Filter{BookIDs: bookIDs}
	token := ""
	for {
		page, err := store.ScanByFilter(ctx, filter, missingScanPageSize, token)
		if err != nil {
			return nil, fmt.Errorf("scan for book ids: %w", err)
		}
		for _, hit := range page.Hits {
			present[hit.Chunk.BookID] = struct{}{}
		}
		if page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}

	seen := make(map[int]struct{}, len(bookIDs))
	var missing []int
	for _, id := range bookIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
