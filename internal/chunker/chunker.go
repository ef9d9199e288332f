// Package chunker provides the fixed-size text chunking strategy.
package chunker

import (
	"strings"

	"github.com/google/uuid"

	"github.com/veldt-labs/bookrag/internal/core/domain"
	"github.com/veldt-labs/bookrag/internal/core/ports/driven"
)

// DefaultChunkSize is the default chunk size in tokens.
const DefaultChunkSize = 400

// DefaultOverlap is the default overlap between chunks in tokens.
const DefaultOverlap = 40

// Ensure FixedSize implements the port.
var _ driven.Chunker = (*FixedSize)(nil)

// FixedSize splits text into chunks of roughly chunkSize tokens with
// a token overlap between consecutive chunks. Words are never split;
// a chunk closes when the next word would push it past the size.
type FixedSize struct {
	tok       driven.Tokenizer
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*FixedSize)

// WithChunkSize sets the chunk size in tokens.
func WithChunkSize(size int) Option {
	return func(c *FixedSize) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in tokens.
func WithOverlap(overlap int) Option {
	return func(c *FixedSize) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// NewFixedSize creates a fixed-size chunker counting with tok.
func NewFixedSize(tok driven.Tokenizer, opts ...Option) *FixedSize {
	c := &FixedSize{
		tok:       tok,
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}
	return c
}

// Chunk splits text into chunks for bookID. Empty input produces no
// chunks. Sequence numbers follow text order; every chunk gets a
// fresh id, so re-chunking a book never reuses ids.
func (c *FixedSize) Chunk(bookID int, text string) []domain.Chunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []domain.Chunk
	start := 0
	seq := 0

	for start < len(words) {
		end := start
		tokens := 0
		for end < len(words) {
			n := c.tok.CountTokens(words[end]) + 1 // separator
			if tokens > 0 && tokens+n > c.chunkSize {
				break
			}
			tokens += n
			end++
		}

		content := strings.Join(words[start:end], " ")
		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			BookID:     bookID,
			Sequence:   seq,
			Content:    content,
			TokenCount: c.tok.CountTokens(content),
		})
		seq++

		if end >= len(words) {
			break
		}
		next := c.backUpOverlap(words, end)
		if next <= start {
			// Overlap would re-cover the whole chunk; step forward
			// without overlap instead of looping.
			next = end
		}
		start = next
	}

	return chunks
}

// backUpOverlap walks back from end until roughly overlap tokens of
// trailing context are included in the next chunk's start.
func (c *FixedSize) backUpOverlap(words []string, end int) int {
	if c.overlap <= 0 {
		return end
	}
	tokens := 0
	start := end
	for start > 0 && tokens < c.overlap {
		tokens += c.tok.CountTokens(words[start-1]) + 1
		start--
	}
	return start
}
