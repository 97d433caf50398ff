// Package tabular parses spreadsheet payloads into header-keyed rows.
package tabular

import (
	"regexp"
	"strings"
)

var (
	whitespacePattern = regexp.MustCompile(`\s+`)
	nonWordPattern    = regexp.MustCompile(`[^\w]`)
)

// KeyFunc derives a row key from a header cell.
type KeyFunc func(header string) string

// HeaderKey lower-cases header and strips whitespace and non-word characters,
// so "Image URL" and "image-url" both become "imageurl".
func HeaderKey(header string) string {
	key := strings.ToLower(header)
	key = whitespacePattern.ReplaceAllString(key, "")

	return nonWordPattern.ReplaceAllString(key, "")
}

// UnderscoreKey lower-cases header and joins whitespace runs with "_".
func UnderscoreKey(header string) string {
	return whitespacePattern.ReplaceAllString(strings.ToLower(header), "_")
}
