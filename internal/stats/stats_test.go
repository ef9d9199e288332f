package stats

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldt-labs/bookrag/internal/core/domain"
)

func chunksWithTokens(bookID int, tokenCounts ...int) []domain.Chunk {
	chunks := make([]domain.Chunk, len(tokenCounts))
	for i, tc := range tokenCounts {
		chunks[i] = domain.Chunk{
			ID:         "c" + string(rune('a'+i)),
			BookID:     bookID,
			Sequence:   i,
			Content:    "x",
			TokenCount: tc,
		}
	}
	return chunks
}

func TestForBook(t *testing.T) {
	chunks := chunksWithTokens(84, 10, 20, 30)

	s, err := ForBook(chunks, "Frankenstein", 1)

	require.NoError(t, err)
	assert.Equal(t, 84, s.BookID)
	assert.Equal(t, "Frankenstein", s.Title)
	assert.Equal(t, 1, s.ConfigID)
	assert.Equal(t, 3, s.ChunkCount)
	assert.Equal(t, 3, s.CharCount) // "x" per chunk
	assert.InDelta(t, 20.0, s.TokenMean, 1e-9)
	assert.InDelta(t, 20.0, s.TokenMedian, 1e-9)
	assert.Equal(t, 10, s.TokenMin)
	assert.Equal(t, 30, s.TokenMax)
	assert.InDelta(t, 10.0, s.TokenStd, 1e-9)
	assert.Equal(t, []int{10, 20, 30}, s.TokenCounts)
}

func TestForBook_SingleChunkStdZero(t *testing.T) {
	s, err := ForBook(chunksWithTokens(84, 42), "t", 1)

	require.NoError(t, err)
	assert.Zero(t, s.TokenStd)
}

func TestForBook_Errors(t *testing.T) {
	_, err := ForBook(nil, "t", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	mixed := append(chunksWithTokens(84, 10), chunksWithTokens(42, 10)...)
	_, err = ForBook(mixed, "t", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPercentile(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}

	assert.InDelta(t, 3.0, percentile(values, 50), 1e-9)
	assert.InDelta(t, 1.0, percentile(values, 0), 1e-9)
	assert.InDelta(t, 5.0, percentile(values, 100), 1e-9)
	// linear interpolation between ranks
	assert.InDelta(t, 4.6, percentile(values, 90), 1e-9)
}

func TestMakeFingerprint(t *testing.T) {
	rows := []domain.BookChunkStats{
		{BookID: 1, ConfigID: 1, ChunkCount: 2, TokenMean: 10, TokenStd: 1, TokenMax: 11, TokenCounts: []int{9, 11}},
		{BookID: 2, ConfigID: 1, ChunkCount: 4, TokenMean: 20, TokenStd: 2, TokenMax: 22, TokenCounts: []int{18, 19, 21, 22}},
	}

	fp, err := MakeFingerprint(rows, 1)

	require.NoError(t, err)
	assert.Equal(t, 2, fp.BookCount)
	assert.Equal(t, 6, fp.TotalChunks)
	assert.InDelta(t, 3.0, fp.BookChunkCountMedian, 1e-9)
	// pooled [9 11 18 19 21 22], rank 2.5 -> 18.5
	assert.InDelta(t, 18.5, fp.ChunkTokenP50, 1e-9)
}

func TestMakeFingerprint_FiltersByConfig(t *testing.T) {
	rows := []domain.BookChunkStats{
		{BookID: 1, ConfigID: 1, ChunkCount: 1, TokenCounts: []int{10}},
		{BookID: 2, ConfigID: 2, ChunkCount: 1, TokenCounts: []int{99}},
	}

	fp, err := MakeFingerprint(rows, 2)

	require.NoError(t, err)
	assert.Equal(t, 1, fp.BookCount)
	assert.InDelta(t, 99.0, fp.ChunkTokenP50, 1e-9)

	_, err = MakeFingerprint(rows, 3)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestWriteRunArtifact(t *testing.T) {
	dir := t.TempDir()
	started := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	path, err := WriteRunArtifact(dir, RunArtifact{
		ConfigID:  7,
		StartedAt: started,
		BookStats: []domain.BookChunkStats{{BookID: 84, ChunkCount: 1, TokenCounts: []int{5}}},
	})

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ingest_cfg7_2026-03-14_093000.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got RunArtifact
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 7, got.ConfigID)
	require.Len(t, got.BookStats, 1)
	assert.Equal(t, 84, got.BookStats[0].BookID)
}
