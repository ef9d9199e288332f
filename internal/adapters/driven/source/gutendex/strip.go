package gutendex

import "regexp"

// Project Gutenberg wraps every text in licence boilerplate between
// START and END marker lines. The start marker varies between "THIS"
// and "THE"; the end marker is matched case-insensitively.
var (
	startMarker = regexp.MustCompile(`\*\*\*\s?START OF TH(IS|E) PROJECT GUTENBERG EBOOK.`)
	endMarker   = regexp.MustCompile(`(?i)\*\*\* end of the project gutenberg ebook`)
)

// StripBoilerplate returns the text between the Project Gutenberg
// START and END markers. When either marker is missing the whole text
// is considered boilerplate and the result is empty.
func StripBoilerplate(raw string) string {
	start := startMarker.FindStringIndex(raw)
	if start == nil {
		return ""
	}
	end := endMarker.FindStringIndex(raw)
	if end == nil || end[0] < start[1] {
		return ""
	}
	return raw[start[1]:end[0]]
}
