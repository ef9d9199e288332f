// Package sqlite provides the relational metadata store backed by
// SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/veldt-labs/bookrag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/veldt-labs/bookrag/internal/core/domain"
	"github.com/veldt-labs/bookrag/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.BookMetadataStore = (*Store)(nil)

// Store persists book metadata and per-book chunk statistics.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a SQLite store under dataDir. If dataDir is empty
// it defaults to ~/.bookrag/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".bookrag", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// InsertIfMissing inserts the book and its stats in one transaction
// unless the book id is already present.
func (s *Store) InsertIfMissing(ctx context.Context, book domain.Book, stats domain.BookChunkStats) (bool, string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM books WHERE id = ?", book.ID).Scan(&exists)
	switch {
	case err == nil:
		return false, fmt.Sprintf("Book %d already in database.", book.ID), nil
	case !errors.Is(err, sql.ErrNoRows):
		return false, "", fmt.Errorf("check book %d: %w", book.ID, err)
	}

	if book.IngestedAt.IsZero() {
		book.IngestedAt = time.Now().UTC()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO books (id, title, authors, content_url, ingested_at)
		VALUES (?, ?, ?, ?, ?)
	`, book.ID, book.Title, book.AuthorsAsString(), book.ContentURL, book.IngestedAt)
	if err != nil {
		return false, "", fmt.Errorf("insert book %d: %w", book.ID, err)
	}

	counts, err := json.Marshal(stats.TokenCounts)
	if err != nil {
		return false, "", fmt.Errorf("marshal token counts: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO chunk_stats (book_id, config_id, title, char_count, chunk_count,
			token_mean, token_median, token_min, token_max, token_std, token_counts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, stats.BookID, stats.ConfigID, stats.Title, stats.CharCount, stats.ChunkCount,
		stats.TokenMean, stats.TokenMedian, stats.TokenMin, stats.TokenMax, stats.TokenStd, string(counts))
	if err != nil {
		return false, "", fmt.Errorf("insert stats for book %d: %w", book.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return false, "", fmt.Errorf("commit book %d: %w", book.ID, err)
	}
	return true, fmt.Sprintf("Inserted book %d (%s).", book.ID, book.Title), nil
}

// Get returns the stored book, or domain.ErrNotFound.
func (s *Store) Get(ctx context.Context, id int) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, authors, content_url, ingested_at FROM books WHERE id = ?
	`, id)

	var book domain.Book
	var authors string
	err := row.Scan(&book.ID, &book.Title, &authors, &book.ContentURL, &book.IngestedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: book %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get book %d: %w", id, err)
	}
	if authors != "" {
		book.Authors = strings.Split(authors, "; ")
	}
	return &book, nil
}

// ListStats returns stored chunk stats, optionally filtered to one
// config id (0 means all).
func (s *Store) ListStats(ctx context.Context, configID int) ([]domain.BookChunkStats, error) {
	query := `
		SELECT book_id, config_id, title, char_count, chunk_count,
			token_mean, token_median, token_min, token_max, token_std, token_counts
		FROM chunk_stats
	`
	args := []any{}
	if configID != 0 {
		query += " WHERE config_id = ?"
		args = append(args, configID)
	}
	query += " ORDER BY book_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stats: %w", err)
	}
	defer rows.Close()

	var out []domain.BookChunkStats
	for rows.Next() {
		var st domain.BookChunkStats
		var counts string
		if err := rows.Scan(&st.BookID, &st.ConfigID, &st.Title, &st.CharCount, &st.ChunkCount,
			&st.TokenMean, &st.TokenMedian, &st.TokenMin, &st.TokenMax, &st.TokenStd, &counts); err != nil {
			return nil, fmt.Errorf("scan stats row: %w", err)
		}
		if err := json.Unmarshal([]byte(counts), &st.TokenCounts); err != nil {
			return nil, fmt.Errorf("parse token counts for book %d: %w", st.BookID, err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
