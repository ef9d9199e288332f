package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Book holds bibliographic metadata for a source document.
// The ID is the content source's stable identifier (Gutenberg id).
type Book struct {
	// ID is the content source identifier.
	ID int

	// Title is the human-readable title.
	Title string

	// Authors lists the author names, "Last, First" form.
	Authors []string

	// ContentURL is where the plain-text content was fetched from.
	ContentURL string

	// IngestedAt is when the book was first ingested.
	IngestedAt time.Time
}

// AuthorsAsString joins the author names for display and slugging.
func (b Book) AuthorsAsString() string {
	return strings.Join(b.Authors, "; ")
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// CacheKey returns the stable content key used to name cache files,
// e.g. "frankenstein_shelley-mary_84". The id suffix is what cache
// lookups match on, so title or author drift never misses the cache.
func (b Book) CacheKey() string {
	slug := func(s string) string {
		s = strings.ToLower(s)
		s = slugUnsafe.ReplaceAllString(s, "-")
		return strings.Trim(s, "-")
	}
	return fmt.Sprintf("%s_%s_%d", slug(b.Title), slug(b.AuthorsAsString()), b.ID)
}
