package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/veldt-labs/bookrag/internal/batch"
	"github.com/veldt-labs/bookrag/internal/budget"
	"github.com/veldt-labs/bookrag/internal/core/domain"
	"github.com/veldt-labs/bookrag/internal/core/ports/driven"
	"github.com/veldt-labs/bookrag/internal/core/ports/driving"
	"github.com/veldt-labs/bookrag/internal/logger"
	"github.com/veldt-labs/bookrag/internal/stats"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// IngestService reconciles requested book ids against the vector store
// and ingests the missing ones: fetch, chunk, embed under budget,
// upsert, and record per-book statistics.
type IngestService struct {
	cfg      domain.Config
	source   driven.ContentSource
	chunker  driven.Chunker
	embedder driven.EmbeddingService
	store    driven.VectorStore
	books    driven.BookMetadataStore
	packer   *batch.Packer
	budget   *budget.Tracker

	// statsDir receives the per-run JSON statistics artifact; empty
	// disables artifact writing.
	statsDir string
}

// NewIngestService creates the ingestion pipeline service.
func NewIngestService(
	cfg domain.Config,
	source driven.ContentSource,
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	books driven.BookMetadataStore,
	packer *batch.Packer,
	tracker *budget.Tracker,
	statsDir string,
) *IngestService {
	return &IngestService{
		cfg:      cfg,
		source:   source,
		chunker:  chunker,
		embedder: embedder,
		store:    store,
		books:    books,
		packer:   packer,
		budget:   tracker,
		statsDir: statsDir,
	}
}

// MissingBookIDs reports which requested ids are absent from the
// vector store.
func (s *IngestService) MissingBookIDs(ctx context.Context, bookIDs []int) ([]int, error) {
	return MissingBookIDs(ctx, s.store, bookIDs)
}

// Ingest processes the requested ids. Books already in the index are
// skipped; a failure on one book is reported in the message and never
// aborts the batch.
func (s *IngestService) Ingest(ctx context.Context, bookIDs []int) (driving.IngestReport, error) {
	report := driving.IngestReport{}
	if len(bookIDs) == 0 {
		return report, fmt.Errorf("%w: no book ids given", domain.ErrInvalidInput)
	}

	if err := s.store.EnsureCollection(ctx, s.cfg.Retrieval.Collection); err != nil {
		return report, fmt.Errorf("ensure collection %s: %w", s.cfg.Retrieval.Collection, err)
	}

	missing, err := MissingBookIDs(ctx, s.store, bookIDs)
	if err != nil {
		return report, err
	}
	alreadyPresent := presentBookIDs(bookIDs, missing)

	startedAt := time.Now().UTC()
	var messages []string

	for _, id := range missing {
		bookStats, book, err := s.ingestOne(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			logger.Error("ingest book %d: %v", id, err)
			messages = append(messages, fmt.Sprintf("Book %d failed: %v.", id, err))
			continue
		}
		report.Uploaded = append(report.Uploaded, book)
		report.Stats = append(report.Stats, bookStats)

		inserted, msg, err := s.books.InsertIfMissing(ctx, book, bookStats)
		if err != nil {
			logger.Error("record book %d: %v", id, err)
			messages = append(messages, fmt.Sprintf("Book %d uploaded but not recorded: %v.", id, err))
			continue
		}
		if !inserted {
			logger.Debug("book %d metadata already recorded", id)
		}
		messages = append(messages, msg)
	}

	if len(alreadyPresent) > 0 {
		messages = append(messages, fmt.Sprintf("Book ids %v already in index %s", alreadyPresent, s.cfg.Retrieval.Collection))
	}

	if s.statsDir != "" && len(report.Stats) > 0 {
		if err := s.writeArtifact(ctx, startedAt, report.Stats); err != nil {
			logger.Error("write stats artifact: %v", err)
			messages = append(messages, fmt.Sprintf("Stats artifact not written: %v.", err))
		}
	}

	report.Message = strings.Join(messages, "\n")
	return report, nil
}

// presentBookIDs returns the requested ids that are not missing, in
// request order, deduplicated.
func presentBookIDs(requested, missing []int) []int {
	absent := make(map[int]bool, len(missing))
	for _, id := range missing {
		absent[id] = true
	}
	var present []int
	seen := make(map[int]bool, len(requested))
	for _, id := range requested {
		if absent[id] || seen[id] {
			continue
		}
		seen[id] = true
		present = append(present, id)
	}
	return present
}

// ingestOne runs the pipeline for a single book: resolve, fetch,
// chunk, embed under budget, upsert.
func (s *IngestService) ingestOne(ctx context.Context, id int) (domain.BookChunkStats, domain.Book, error) {
	book, err := s.source.ResolveBook(ctx, id)
	if err != nil {
		return domain.BookChunkStats{}, domain.Book{}, err
	}

	text, err := s.source.FetchContent(ctx, book)
	if err != nil {
		return domain.BookChunkStats{}, domain.Book{}, err
	}

	chunks := s.chunker.Chunk(book.ID, text)
	if len(chunks) == 0 {
		return domain.BookChunkStats{}, domain.Book{}, fmt.Errorf("%w: book %d produced no chunks", domain.ErrEmptyContent, id)
	}
	logger.Info("book %d (%s): %d chunks", book.ID, book.Title, len(chunks))

	if err := s.embedChunks(ctx, chunks); err != nil {
		return domain.BookChunkStats{}, domain.Book{}, err
	}
	if err := domain.ValidateForUpload(chunks); err != nil {
		return domain.BookChunkStats{}, domain.Book{}, err
	}
	if err := s.store.Upsert(ctx, chunks); err != nil {
		return domain.BookChunkStats{}, domain.Book{}, fmt.Errorf("upsert book %d: %w", id, err)
	}

	bookStats, err := stats.ForBook(chunks, book.Title, s.cfg.ConfigID)
	if err != nil {
		return domain.BookChunkStats{}, domain.Book{}, err
	}
	bookStats.CharCount = len(text)

	book.IngestedAt = time.Now().UTC()
	return bookStats, book, nil
}

// embedChunks packs chunk contents under the per-request token
// ceiling, acquires budget per batch, and zips the returned vectors
// back onto the chunks positionally.
func (s *IngestService) embedChunks(ctx context.Context, chunks []domain.Chunk) error {
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}

	batches := s.packer.PackByTokens(texts, s.cfg.Ingestion.MaxTokensPerRequest)
	next := 0
	for _, b := range batches {
		cost := s.packer.CountTokens(b)
		if err := s.budget.Acquire(ctx, cost, 1); err != nil {
			return err
		}

		var vectors []domain.EmbeddingVector
		err := withRateLimitRetry(ctx, func() error {
			var embedErr error
			vectors, embedErr = s.embedder.EmbedBatch(ctx, b)
			return embedErr
		})
		if err != nil {
			return fmt.Errorf("embed batch of %d: %w", len(b), err)
		}
		if len(vectors) != len(b) {
			return fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(b))
		}

		for i := range vectors {
			v := vectors[i]
			chunks[next+i].Embedding = &v
		}
		next += len(b)
	}
	return nil
}

// writeArtifact records the run's statistics with a pooled corpus
// fingerprint across everything stored under this config id.
func (s *IngestService) writeArtifact(ctx context.Context, startedAt time.Time, runStats []domain.BookChunkStats) error {
	artifact := stats.RunArtifact{
		ConfigID:  s.cfg.ConfigID,
		StartedAt: startedAt,
		BookStats: runStats,
	}

	allStats, err := s.books.ListStats(ctx, s.cfg.ConfigID)
	if err != nil {
		logger.Warn("list stats for fingerprint: %v", err)
		allStats = runStats
	}
	if fp, err := stats.MakeFingerprint(allStats, s.cfg.ConfigID); err == nil {
		artifact.Fingerprint = &fp
	}

	path, err := stats.WriteRunArtifact(s.statsDir, artifact)
	if err != nil {
		return err
	}
	logger.Info("wrote stats artifact %s", path)
	return nil
}
