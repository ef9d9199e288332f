// Package gutendex provides a ContentSource adapter for the Gutendex
// catalogue and Project Gutenberg plain-text downloads.
package gutendex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/veldt-labs/bookrag/internal/core/domain"
	"github.com/veldt-labs/bookrag/internal/core/ports/driven"
	"github.com/veldt-labs/bookrag/internal/logger"
)

// Default configuration values.
const (
	DefaultBaseURL = "https://gutendex.com"
	DefaultTimeout = 60 * time.Second
)

// Ensure Source implements the interface.
var _ driven.ContentSource = (*Source)(nil)

// Config holds configuration for the Gutendex source.
type Config struct {
	// BaseURL is the catalogue URL (default: https://gutendex.com).
	BaseURL string

	// Timeout is the per-request timeout (default: 60s).
	Timeout time.Duration
}

// Source resolves book metadata through the Gutendex catalogue and
// downloads plain-text content from the mirror URLs it lists.
type Source struct {
	client  *http.Client
	baseURL string
}

// bookRecord is the catalogue metadata shape. Formats maps MIME type
// to download URL.
type bookRecord struct {
	ID      int               `json:"id"`
	Title   string            `json:"title"`
	Authors []authorRecord    `json:"authors"`
	Formats map[string]string `json:"formats"`
	Detail  string            `json:"detail"`
}

type authorRecord struct {
	Name string `json:"name"`
}

// NewSource creates a Gutendex-backed content source.
func NewSource(cfg Config) *Source {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Source{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// ResolveBook looks up catalogue metadata for one book id.
func (s *Source) ResolveBook(ctx context.Context, id int) (domain.Book, error) {
	url := fmt.Sprintf("%s/books/%d", s.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return domain.Book{}, fmt.Errorf("gutendex: create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.Book{}, fmt.Errorf("gutendex: fetch metadata for book %d: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.Book{}, fmt.Errorf("%w: book %d not in catalogue", domain.ErrNotFound, id)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Book{}, fmt.Errorf("gutendex: metadata for book %d: status %d", id, resp.StatusCode)
	}

	var record bookRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return domain.Book{}, fmt.Errorf("gutendex: decode metadata for book %d: %w", id, err)
	}

	contentURL := plainTextURL(record.Formats)
	if contentURL == "" {
		return domain.Book{}, fmt.Errorf("%w: book %d has no plain-text format", domain.ErrNotFound, id)
	}

	authors := make([]string, 0, len(record.Authors))
	for _, a := range record.Authors {
		authors = append(authors, a.Name)
	}

	return domain.Book{
		ID:         record.ID,
		Title:      record.Title,
		Authors:    authors,
		ContentURL: contentURL,
	}, nil
}

// FetchContent downloads the book text and strips the Project
// Gutenberg boilerplate. Content that is empty after stripping is an
// error.
func (s *Source) FetchContent(ctx context.Context, book domain.Book) (string, error) {
	if book.ContentURL == "" {
		return "", fmt.Errorf("%w: book %d has no content URL", domain.ErrInvalidInput, book.ID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, book.ContentURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("gutendex: create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gutendex: download book %d: %w", book.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gutendex: download book %d: status %d", book.ID, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gutendex: read book %d: %w", book.ID, err)
	}
	logger.Debug("downloaded book %d: %d bytes", book.ID, len(raw))

	text := StripBoilerplate(string(raw))
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: book %d", domain.ErrEmptyContent, book.ID)
	}
	return text, nil
}

// plainTextURL picks the first plain-text download URL from the
// formats map.
func plainTextURL(formats map[string]string) string {
	for format, url := range formats {
		if strings.Contains(format, "text/plain") {
			return url
		}
	}
	return ""
}
