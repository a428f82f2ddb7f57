package ingest

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// cleanText collapses runs of whitespace into single spaces and trims.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// sanitizeText strips any markup that leaked into an extracted text
// field, decodes entities, and normalizes whitespace. Upstream pages
// occasionally nest tags inside paragraph text.
func sanitizeText(s string) string {
	s = strictPolicy.Sanitize(s)
	s = html.UnescapeString(s)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	return cleanText(s)
}

// containsAnyFold reports whether the lower-cased haystack contains at
// least one of the given words.
func containsAnyFold(haystack string, words []string) bool {
	lower := strings.ToLower(haystack)
	for _, w := range words {
		if strings.Contains(lower, strings.ToLower(w)) {
			return true
		}
	}
	return false
}
