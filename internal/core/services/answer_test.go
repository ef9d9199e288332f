package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldt-labs/bookrag/internal/adapters/driven/vectorstore/memory"
	"github.com/veldt-labs/bookrag/internal/budget"
	"github.com/veldt-labs/bookrag/internal/core/domain"
)

func embeddedChunk(id string, bookID int, content string, vals []float32) domain.Chunk {
	return domain.Chunk{
		ID:        id,
		BookID:    bookID,
		Content:   content,
		Embedding: &domain.EmbeddingVector{Values: vals, Dim: domain.Dimension(len(vals))},
	}
}

func newAnswerService(cfg domain.Config, store *memory.Store, llm *scriptedLLM) *AnswerService {
	tracker := budget.NewTracker(cfg.Ingestion.TokensPerMin, cfg.Ingestion.RequestsPerMin)
	return NewAnswerService(cfg, &fakeEmbedder{}, store, llm, llm, fakePrompts{}, wordTokenizer{}, tracker)
}

func answerConfig() domain.Config {
	cfg := domain.DefaultConfig()
	cfg.Rerank.BatchSize = 10 // single rerank call for small fixtures
	return cfg
}

func TestAnswer_EmptyIndex(t *testing.T) {
	svc := newAnswerService(answerConfig(), memory.NewStore(), &scriptedLLM{})

	resp, err := svc.Answer(context.Background(), "who made the monster?", 0)

	require.NoError(t, err)
	assert.Equal(t, AnswerNoIndexData, resp.Answer)
	assert.Empty(t, resp.Citations)
}

func TestAnswer_EmptyQuery(t *testing.T) {
	svc := newAnswerService(answerConfig(), memory.NewStore(), &scriptedLLM{})

	_, err := svc.Answer(context.Background(), "   ", 0)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAnswer_NoneRelevant(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.Upsert(context.Background(), []domain.Chunk{
		embeddedChunk("c1", 84, "ice and snow", []float32{1, 0}),
		embeddedChunk("c2", 84, "fog and rain", []float32{1, 0}),
	}))
	llm := &scriptedLLM{responses: []string{`{"scores": [0, 0]}`}}
	svc := newAnswerService(answerConfig(), store, llm)

	resp, err := svc.Answer(context.Background(), "what about whales?", 0)

	require.NoError(t, err)
	assert.Equal(t, AnswerNotRelevant, resp.Answer)
	// everything found is surfaced for inspection
	assert.Len(t, resp.Citations, 2)
	assert.Equal(t, 1, llm.calls)
}

func TestAnswer_RerankOrdersAndTruncatesContext(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.Upsert(context.Background(), []domain.Chunk{
		embeddedChunk("c1", 84, "chapter about ice", []float32{1, 0}),
		embeddedChunk("c2", 84, "chapter about the monster", []float32{1, 0}),
		embeddedChunk("c3", 84, "chapter about letters", []float32{1, 0}),
	}))
	llm := &scriptedLLM{responses: []string{
		`{"scores": [3, 9, 5]}`,
		`{"answer": "The monster was made by Frankenstein.", "cited_chunk_ids": ["c2"]}`,
	}}
	cfg := answerConfig()
	cfg.Generation.NumContextChunks = 2
	svc := newAnswerService(cfg, store, llm)

	resp, err := svc.Answer(context.Background(), "who made the monster?", 0)

	require.NoError(t, err)
	assert.Equal(t, "The monster was made by Frankenstein.", resp.Answer)
	require.Len(t, resp.Citations, 1)
	assert.Equal(t, "c2", resp.Citations[0].ID)

	// the composer saw only the two best-scored chunks
	composerPrompt := llm.prompts[1]
	assert.Contains(t, composerPrompt, "chunk_id c2")
	assert.Contains(t, composerPrompt, "chunk_id c3")
	assert.NotContains(t, composerPrompt, "chunk_id c1")
	// highest score first
	assert.Less(t, strings.Index(composerPrompt, "chunk_id c2"), strings.Index(composerPrompt, "chunk_id c3"))
}

func TestAnswer_RerankDisabledUsesCosineFloor(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.Upsert(context.Background(), []domain.Chunk{
		embeddedChunk("aligned", 84, "relevant text", []float32{1, 0}),
		embeddedChunk("orthogonal", 84, "unrelated text", []float32{0, 1}),
	}))
	llm := &scriptedLLM{responses: []string{
		`{"answer": "It is in the relevant text.", "cited_chunk_ids": ["aligned"]}`,
	}}
	cfg := answerConfig()
	cfg.Rerank.Enabled = false
	svc := newAnswerService(cfg, store, llm)

	resp, err := svc.Answer(context.Background(), "where is it?", 0)

	require.NoError(t, err)
	assert.Equal(t, "It is in the relevant text.", resp.Answer)
	// single LLM call: no rerank happened
	assert.Equal(t, 1, llm.calls)
	assert.NotContains(t, llm.prompts[0], "unrelated text")
}

func TestAnswer_MalformedAnswerFallsBackToRawOutput(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.Upsert(context.Background(), []domain.Chunk{
		embeddedChunk("c1", 84, "some text", []float32{1, 0}),
	}))
	llm := &scriptedLLM{responses: []string{
		`{"scores": [8]}`,
		`The answer, not as JSON.`,
	}}
	svc := newAnswerService(answerConfig(), store, llm)

	resp, err := svc.Answer(context.Background(), "question?", 0)

	require.NoError(t, err)
	assert.Equal(t, "The answer, not as JSON.", resp.Answer)
	require.Len(t, resp.Citations, 1)
	assert.Equal(t, "c1", resp.Citations[0].ID)
}

func TestAnswer_RerankScoreCountMismatch(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.Upsert(context.Background(), []domain.Chunk{
		embeddedChunk("c1", 84, "some text", []float32{1, 0}),
		embeddedChunk("c2", 84, "more text", []float32{1, 0}),
	}))
	llm := &scriptedLLM{responses: []string{`{"scores": [8]}`}}
	svc := newAnswerService(answerConfig(), store, llm)

	_, err := svc.Answer(context.Background(), "question?", 0)

	assert.ErrorContains(t, err, "rerank returned 1 scores for 2 passages")
}

func TestAnswer_RerankBatchesByCount(t *testing.T) {
	store := memory.NewStore()
	var chunks []domain.Chunk
	for i := 0; i < 5; i++ {
		chunks = append(chunks, embeddedChunk(
			string(rune('a'+i)), 84, "text", []float32{1, 0}))
	}
	require.NoError(t, store.Upsert(context.Background(), chunks))

	llm := &scriptedLLM{responses: []string{
		`{"scores": [5, 5]}`,
		`{"scores": [5, 5]}`,
		`{"scores": [5]}`,
		`{"answer": "ok", "cited_chunk_ids": ["a"]}`,
	}}
	cfg := answerConfig()
	cfg.Rerank.BatchSize = 2
	svc := newAnswerService(cfg, store, llm)

	_, err := svc.Answer(context.Background(), "question?", 0)

	require.NoError(t, err)
	assert.Equal(t, 4, llm.calls)
}
