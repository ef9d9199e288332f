package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldt-labs/bookrag/internal/adapters/driven/vectorstore/memory"
	"github.com/veldt-labs/bookrag/internal/core/domain"
	"github.com/veldt-labs/bookrag/internal/core/ports/driven"
)

func seedStore(t *testing.T, store *memory.Store, bookIDs ...int) {
	t.Helper()
	var chunks []domain.Chunk
	for i, id := range bookIDs {
		chunks = append(chunks, domain.Chunk{
			ID:      string(rune('a' + i)),
			BookID:  id,
			Content: "text",
		})
	}
	require.NoError(t, store.Upsert(context.Background(), chunks))
}

func TestMissingBookIDs_EmptyRequest(t *testing.T) {
	missing, err := MissingBookIDs(context.Background(), memory.NewStore(), nil)

	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMissingBookIDs(t *testing.T) {
	store := memory.NewStore()
	seedStore(t, store, 84, 42)

	missing, err := MissingBookIDs(context.Background(), store, []int{84, 2701, 42, 1661, 2701})

	require.NoError(t, err)
	assert.Equal(t, []int{2701, 1661}, missing)
}

func TestMissingBookIDs_AllPresent(t *testing.T) {
	store := memory.NewStore()
	seedStore(t, store, 84)

	missing, err := MissingBookIDs(context.Background(), store, []int{84})

	require.NoError(t, err)
	assert.Empty(t, missing)
}

type failingStore struct {
	*memory.Store
}

func (f *failingStore) ScanByFilter(context.Context, driven.Filter, int, string) (domain.SearchPage, error) {
	return domain.SearchPage{}, errors.New("scan blew up")
}

func TestMissingBookIDs_ScanError(t *testing.T) {
	store := &failingStore{Store: memory.NewStore()}

	_, err := MissingBookIDs(context.Background(), store, []int{84})

	assert.ErrorContains(t, err, "scan blew up")
}
