package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/veldt-labs/bookrag/internal/core/domain"
	"github.com/veldt-labs/bookrag/internal/core/ports/driven"
)

// wordTokenizer counts whitespace-separated words.
type wordTokenizer struct{}

func (wordTokenizer) CountTokens(text string) int {
	return len(strings.Fields(text))
}

// fakeSource serves canned books and content, with optional per-id
// failures.
type fakeSource struct {
	books    map[int]domain.Book
	contents map[int]string
	failIDs  map[int]error
	fetches  int
}

func (f *fakeSource) ResolveBook(_ context.Context, id int) (domain.Book, error) {
	if err, ok := f.failIDs[id]; ok {
		return domain.Book{}, err
	}
	book, ok := f.books[id]
	if !ok {
		return domain.Book{}, fmt.Errorf("%w: book %d", domain.ErrNotFound, id)
	}
	return book, nil
}

func (f *fakeSource) FetchContent(_ context.Context, book domain.Book) (string, error) {
	f.fetches++
	return f.contents[book.ID], nil
}

// pairChunker cuts text into two-word chunks with deterministic ids.
type pairChunker struct{}

func (pairChunker) Chunk(bookID int, text string) []domain.Chunk {
	words := strings.Fields(text)
	var chunks []domain.Chunk
	for i := 0; i < len(words); i += 2 {
		end := i + 2
		if end > len(words) {
			end = len(words)
		}
		content := strings.Join(words[i:end], " ")
		chunks = append(chunks, domain.Chunk{
			ID:         fmt.Sprintf("b%d-%d", bookID, len(chunks)),
			BookID:     bookID,
			Sequence:   len(chunks),
			Content:    content,
			TokenCount: end - i,
		})
	}
	return chunks
}

// fakeEmbedder returns fixed two-dimensional vectors. Errors can be
// scripted to fire on specific call numbers (1-based).
type fakeEmbedder struct {
	calls      int
	batchSizes []int
	errOnCall  map[int]error
	vec        []float32
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([]domain.EmbeddingVector, error) {
	f.calls++
	f.batchSizes = append(f.batchSizes, len(texts))
	if err, ok := f.errOnCall[f.calls]; ok {
		return nil, err
	}

	vec := f.vec
	if vec == nil {
		vec = []float32{1, 0}
	}
	out := make([]domain.EmbeddingVector, len(texts))
	for i := range texts {
		vals := make([]float32, len(vec))
		copy(vals, vec)
		out[i] = domain.EmbeddingVector{Values: vals, Dim: domain.Dimension(len(vals))}
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() domain.Dimension { return 2 }
func (f *fakeEmbedder) ModelName() string           { return "fake-embed" }

// fakeBookStore records metadata inserts in memory.
type fakeBookStore struct {
	books map[int]domain.Book
	stats []domain.BookChunkStats
}

func newFakeBookStore() *fakeBookStore {
	return &fakeBookStore{books: make(map[int]domain.Book)}
}

func (f *fakeBookStore) InsertIfMissing(_ context.Context, book domain.Book, stats domain.BookChunkStats) (bool, string, error) {
	if _, ok := f.books[book.ID]; ok {
		return false, fmt.Sprintf("Book %d already in database.", book.ID), nil
	}
	f.books[book.ID] = book
	f.stats = append(f.stats, stats)
	return true, fmt.Sprintf("Inserted book %d (%s).", book.ID, book.Title), nil
}

func (f *fakeBookStore) Get(_ context.Context, id int) (*domain.Book, error) {
	book, ok := f.books[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &book, nil
}

func (f *fakeBookStore) ListStats(_ context.Context, configID int) ([]domain.BookChunkStats, error) {
	if configID == 0 {
		return f.stats, nil
	}
	var out []domain.BookChunkStats
	for _, s := range f.stats {
		if s.ConfigID == configID {
			out = append(out, s)
		}
	}
	return out, nil
}

// scriptedLLM replays canned responses in order.
type scriptedLLM struct {
	responses []string
	calls     int
	prompts   []string
	systems   []string
	errOnCall map[int]error
}

func (f *scriptedLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	f.systems = append(f.systems, opts.SystemPrompt)
	if err, ok := f.errOnCall[f.calls]; ok {
		return "", err
	}
	if len(f.responses) == 0 {
		return "", fmt.Errorf("scriptedLLM: no response for call %d", f.calls)
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func (f *scriptedLLM) ModelName() string { return "fake-llm" }

// fakePrompts returns fixed prompt templates.
type fakePrompts struct{}

func (fakePrompts) Load(name string) (string, error) {
	return "system prompt for " + name, nil
}

func (fakePrompts) Reload() {}
