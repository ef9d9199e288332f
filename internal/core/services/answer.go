package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/veldt-labs/bookrag/internal/batch"
	"github.com/veldt-labs/bookrag/internal/budget"
	"github.com/veldt-labs/bookrag/internal/core/domain"
	"github.com/veldt-labs/bookrag/internal/core/ports/driven"
	"github.com/veldt-labs/bookrag/internal/core/ports/driving"
	"github.com/veldt-labs/bookrag/internal/logger"
)

// Sentinel answers for the two empty outcomes. These are returned as
// data, not errors: an empty index and an all-irrelevant result set
// are ordinary query outcomes.
const (
	AnswerNoIndexData = "No matches found with query. Ensure that book index is populated."
	AnswerNotRelevant = "Matches found, but none were relevant."
)

// minRerankScore is the lowest re-rank score still counted relevant.
const minRerankScore = 1

// minSearchScore is the relevance floor applied to raw cosine scores
// when re-ranking is disabled.
const minSearchScore = 0.01

// Ensure AnswerService implements the interface.
var _ driving.Answerer = (*AnswerService)(nil)

// AnswerService runs the retrieval pipeline: embed the query, vector
// search, batched LLM re-rank, and budget-tracked answer generation
// with citations.
type AnswerService struct {
	cfg      domain.Config
	embedder driven.EmbeddingService
	store    driven.VectorStore
	reranker driven.LLMService
	composer driven.LLMService
	prompts  driven.PromptStore
	tok      driven.Tokenizer
	budget   *budget.Tracker
}

// NewAnswerService creates the retrieval pipeline service. reranker
// and composer may be the same LLM.
func NewAnswerService(
	cfg domain.Config,
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	reranker driven.LLMService,
	composer driven.LLMService,
	prompts driven.PromptStore,
	tok driven.Tokenizer,
	tracker *budget.Tracker,
) *AnswerService {
	return &AnswerService{
		cfg:      cfg,
		embedder: embedder,
		store:    store,
		reranker: reranker,
		composer: composer,
		prompts:  prompts,
		tok:      tok,
		budget:   tracker,
	}
}

// answerPayload is the JSON shape requested from the composer.
type answerPayload struct {
	Answer        string   `json:"answer"`
	CitedChunkIDs []string `json:"cited_chunk_ids"`
}

// rerankPayload is the JSON shape requested from the re-ranker.
type rerankPayload struct {
	Scores []int `json:"scores"`
}

// Answer responds to the query using at most topK re-ranked context
// chunks. topK <= 0 uses the configured default.
func (s *AnswerService) Answer(ctx context.Context, query string, topK int) (driving.QueryResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return driving.QueryResponse{}, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if topK <= 0 {
		topK = s.cfg.Generation.NumContextChunks
	}

	vec, err := s.embedQuery(ctx, query)
	if err != nil {
		return driving.QueryResponse{}, err
	}

	hits, err := s.store.SearchByEmbedding(ctx, vec, s.cfg.Retrieval.TopKRaw, driven.Filter{})
	if err != nil {
		return driving.QueryResponse{}, fmt.Errorf("vector search: %w", err)
	}
	if len(hits) == 0 {
		return driving.QueryResponse{Answer: AnswerNoIndexData}, nil
	}

	relevant, err := s.selectRelevant(ctx, query, hits)
	if err != nil {
		return driving.QueryResponse{}, err
	}
	if len(relevant) == 0 {
		// Surface what was found so the caller can judge for itself.
		return driving.QueryResponse{Answer: AnswerNotRelevant, Citations: hitChunks(hits)}, nil
	}
	if len(relevant) > topK {
		relevant = relevant[:topK]
	}

	return s.compose(ctx, query, relevant)
}

// embedQuery embeds the query as a batch of one under budget.
func (s *AnswerService) embedQuery(ctx context.Context, query string) (domain.EmbeddingVector, error) {
	cost := s.tok.CountTokens(query)
	if err := s.budget.Acquire(ctx, cost, 1); err != nil {
		return domain.EmbeddingVector{}, err
	}

	var vecs []domain.EmbeddingVector
	err := withRateLimitRetry(ctx, func() error {
		var embedErr error
		vecs, embedErr = s.embedder.EmbedBatch(ctx, []string{query})
		return embedErr
	})
	if err != nil {
		return domain.EmbeddingVector{}, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return domain.EmbeddingVector{}, fmt.Errorf("embed query: got %d vectors", len(vecs))
	}
	return vecs[0], nil
}

// selectRelevant filters hits down to the relevant ones, ordered by
// descending score. With re-ranking enabled, relevance comes from LLM
// scores; otherwise from the raw cosine score floor. The sort is
// stable, so vector-search order breaks ties.
func (s *AnswerService) selectRelevant(ctx context.Context, query string, hits []domain.SearchHit) ([]domain.SearchHit, error) {
	var relevant []domain.SearchHit
	if s.cfg.Rerank.Enabled {
		scored, err := s.rerank(ctx, query, hits)
		if err != nil {
			return nil, err
		}
		for _, h := range scored {
			if h.Score >= minRerankScore {
				relevant = append(relevant, h)
			}
		}
	} else {
		for _, h := range hits {
			if h.Score >= minSearchScore {
				relevant = append(relevant, h)
			}
		}
	}

	sort.SliceStable(relevant, func(i, j int) bool { return relevant[i].Score > relevant[j].Score })
	return relevant, nil
}

// rerank scores hits against the query in fixed-size batches. Every
// returned hit carries an integer score 0-10 with the re-rank origin.
func (s *AnswerService) rerank(ctx context.Context, query string, hits []domain.SearchHit) ([]domain.SearchHit, error) {
	system, err := s.prompts.Load(driven.PromptRerankSystem)
	if err != nil {
		return nil, fmt.Errorf("load rerank prompt: %w", err)
	}

	scored := make([]domain.SearchHit, 0, len(hits))
	for _, group := range batch.GroupByCount(hits, s.cfg.Rerank.BatchSize) {
		if err := s.budget.Acquire(ctx, 0, 1); err != nil {
			return nil, err
		}

		prompt := rerankPrompt(query, group)
		var raw string
		err := withRateLimitRetry(ctx, func() error {
			var genErr error
			raw, genErr = s.reranker.Generate(ctx, prompt, driven.GenerateOptions{
				SystemPrompt: system,
				JSONOnly:     true,
			})
			return genErr
		})
		if err != nil {
			return nil, fmt.Errorf("rerank batch of %d: %w", len(group), err)
		}

		var payload rerankPayload
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return nil, fmt.Errorf("parse rerank scores: %w", err)
		}
		if len(payload.Scores) != len(group) {
			return nil, fmt.Errorf("rerank returned %d scores for %d passages", len(payload.Scores), len(group))
		}

		for i, h := range group {
			score := payload.Scores[i]
			if score < 0 {
				score = 0
			}
			if score > 10 {
				score = 10
			}
			h.Score = float64(score)
			h.Origin = domain.ScoreOriginRerank
			scored = append(scored, h)
		}
	}
	return scored, nil
}

// compose generates the final grounded answer with citations.
func (s *AnswerService) compose(ctx context.Context, query string, contextHits []domain.SearchHit) (driving.QueryResponse, error) {
	system, err := s.prompts.Load(driven.PromptAnswerSystem)
	if err != nil {
		return driving.QueryResponse{}, fmt.Errorf("load answer prompt: %w", err)
	}

	blocks := make([]string, 0, len(contextHits))
	for _, h := range contextHits {
		blocks = append(blocks, fmt.Sprintf("[ book %d ; chunk_id %s ; search score %g] || %s ||",
			h.Chunk.BookID, h.Chunk.ID, h.Score, h.Chunk.Content))
	}
	prompt := fmt.Sprintf("Question: %s\nContext:\n%s", query, strings.Join(blocks, ">>"))

	if err := s.budget.Acquire(ctx, 0, 1); err != nil {
		return driving.QueryResponse{}, err
	}
	var raw string
	err = withRateLimitRetry(ctx, func() error {
		var genErr error
		raw, genErr = s.composer.Generate(ctx, prompt, driven.GenerateOptions{
			SystemPrompt: system,
			JSONOnly:     true,
		})
		return genErr
	})
	if err != nil {
		return driving.QueryResponse{}, fmt.Errorf("generate answer: %w", err)
	}

	var payload answerPayload
	if jsonErr := json.Unmarshal([]byte(raw), &payload); jsonErr != nil || payload.Answer == "" {
		// Model ignored the format: treat the whole output as the
		// answer and cite everything it saw.
		logger.Warn("answer not in expected JSON format, using raw output")
		return driving.QueryResponse{Answer: raw, Citations: hitChunks(contextHits)}, nil
	}

	citations := resolveCitations(payload.CitedChunkIDs, contextHits)
	if len(citations) == 0 {
		citations = hitChunks(contextHits)
	}
	return driving.QueryResponse{Answer: payload.Answer, Citations: citations}, nil
}

// rerankPrompt lists the passages numbered for scoring.
func rerankPrompt(query string, group []domain.SearchHit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\nPassages:\n", query)
	for i, h := range group {
		fmt.Fprintf(&b, "%d. %s\n", i+1, h.Chunk.Content)
	}
	return b.String()
}

// resolveCitations maps cited chunk ids back to the context chunks,
// dropping ids the model invented.
func resolveCitations(ids []string, contextHits []domain.SearchHit) []domain.Chunk {
	byID := make(map[string]domain.Chunk, len(contextHits))
	for _, h := range contextHits {
		byID[h.Chunk.ID] = h.Chunk
	}

	var out []domain.Chunk
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

func hitChunks(hits []domain.SearchHit) []domain.Chunk {
	chunks := make([]domain.Chunk, 0, len(hits))
	for _, h := range hits {
		chunks = append(chunks, h.Chunk)
	}
	return chunks
}
