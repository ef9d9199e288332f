// Package filecache wraps a ContentSource with an on-disk content
// cache so repeated ingestion runs do not re-download books.
package filecache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/veldt-labs/bookrag/internal/core/domain"
	"github.com/veldt-labs/bookrag/internal/core/ports/driven"
	"github.com/veldt-labs/bookrag/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.ContentSource = (*Source)(nil)

// Source caches fetched content under a directory. Each book gets a
// text file keyed by its cache key plus a JSON metadata sidecar, so a
// cached book can be identified without hitting the catalogue.
type Source struct {
	inner driven.ContentSource
	dir   string
}

// New creates a caching wrapper around inner, storing files under dir.
func New(inner driven.ContentSource, dir string) *Source {
	return &Source{inner: inner, dir: dir}
}

// ResolveBook delegates to the wrapped source.
func (s *Source) ResolveBook(ctx context.Context, id int) (domain.Book, error) {
	return s.inner.ResolveBook(ctx, id)
}

// FetchContent returns cached content when present, otherwise fetches
// through the wrapped source and caches the result. Cache write
// failures are logged, not fatal; the content is still returned.
func (s *Source) FetchContent(ctx context.Context, book domain.Book) (string, error) {
	path := s.contentPath(book)
	if data, err := os.ReadFile(path); err == nil {
		logger.Debug("cache hit for book %d: %s", book.ID, path)
		return string(data), nil
	}

	text, err := s.inner.FetchContent(ctx, book)
	if err != nil {
		return "", err
	}

	if err := s.store(book, text); err != nil {
		logger.Error("cache book %d: %v", book.ID, err)
	}
	return text, nil
}

func (s *Source) store(book domain.Book, text string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(s.contentPath(book), []byte(text), 0o644); err != nil {
		return fmt.Errorf("write content: %w", err)
	}

	meta, err := json.MarshalIndent(book, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(s.metaPath(book), meta, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

func (s *Source) contentPath(book domain.Book) string {
	return filepath.Join(s.dir, book.CacheKey()+".txt")
}

func (s *Source) metaPath(book domain.Book) string {
	return filepath.Join(s.dir, book.CacheKey()+".json")
}
