package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldt-labs/bookrag/internal/core/domain"
	"github.com/veldt-labs/bookrag/internal/core/ports/driven"
)

func chunk(id string, bookID int, embedding []float32) domain.Chunk {
	c := domain.Chunk{ID: id, BookID: bookID, Content: "text " + id}
	if embedding != nil {
		c.Embedding = &domain.EmbeddingVector{Values: embedding, Dim: domain.Dimension(len(embedding))}
	}
	return c
}

func TestUpsert_IdempotentByID(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []domain.Chunk{chunk("a", 84, nil)}))
	require.NoError(t, s.Upsert(ctx, []domain.Chunk{chunk("a", 84, nil)}))

	assert.Equal(t, 1, s.Len())
}

func TestDeleteBooks(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, []domain.Chunk{
		chunk("a", 84, nil), chunk("b", 84, nil), chunk("c", 42, nil),
	}))

	require.NoError(t, s.DeleteBooks(ctx, []int{84}))

	assert.Equal(t, 1, s.Len())
}

func TestSearchByEmbedding_RanksByCosine(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, []domain.Chunk{
		chunk("aligned", 1, []float32{1, 0}),
		chunk("orthogonal", 1, []float32{0, 1}),
		chunk("opposite", 1, []float32{-1, 0}),
	}))

	hits, err := s.SearchByEmbedding(ctx, domain.EmbeddingVector{Values: []float32{1, 0}, Dim: 2}, 2, driven.Filter{})

	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "aligned", hits[0].Chunk.ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.Equal(t, domain.ScoreOriginVector, hits[0].Origin)
}

func TestSearchByEmbedding_Filter(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, []domain.Chunk{
		chunk("a", 84, []float32{1, 0}),
		chunk("b", 42, []float32{1, 0}),
	}))

	hits, err := s.SearchByEmbedding(ctx, domain.EmbeddingVector{Values: []float32{1, 0}, Dim: 2}, 10,
		driven.Filter{BookIDs: []int{42}})

	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].Chunk.ID)
}

func TestScanByFilter_PagesWithToken(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, []domain.Chunk{
		chunk("a", 1, nil), chunk("b", 1, nil), chunk("c", 1, nil),
		chunk("d", 2, nil), chunk("e", 2, nil),
	}))

	var seen []string
	token := ""
	pages := 0
	for {
		page, err := s.ScanByFilter(ctx, driven.Filter{}, 2, token)
		require.NoError(t, err)
		pages++
		for _, h := range page.Hits {
			assert.Equal(t, domain.ScanScore, h.Score)
			assert.Equal(t, domain.ScoreOriginScan, h.Origin)
			seen = append(seen, h.Chunk.ID)
		}
		if page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}

	assert.Equal(t, 3, pages)
	assert.ElementsMatch(t, []string{"a", "b", "c", "d", "e"}, seen)
}

func TestScanByFilter_FilterAndTotal(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, []domain.Chunk{
		chunk("a", 1, nil), chunk("b", 2, nil), chunk("c", 2, nil),
	}))

	page, err := s.ScanByFilter(ctx, driven.Filter{BookIDs: []int{2}}, 10, "")

	require.NoError(t, err)
	assert.Len(t, page.Hits, 2)
	require.NotNil(t, page.TotalCount)
	assert.EqualValues(t, 2, *page.TotalCount)
	assert.Empty(t, page.NextPageToken)
}

func TestScanByFilter_BadToken(t *testing.T) {
	s := NewStore()

	_, err := s.ScanByFilter(context.Background(), driven.Filter{}, 10, "not-a-number")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
