package security

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var htmlPolicy = bluemonday.StrictPolicy()

const maxCleanPasses = 8

// Length limits for user-supplied text.
const (
	MaxTitleLength = 255
	MaxTextLength  = 1000
)

// SanitizeString trims, drops null bytes and caps the rune count
func SanitizeString(input string, maxRunes int) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")

	if maxRunes > 0 && utf8.RuneCountInString(input) > maxRunes {
		input = string([]rune(input)[:maxRunes])
	}

	return input
}

// SanitizeHTML removes all HTML tags
func SanitizeHTML(input string) string {
	return htmlPolicy.Sanitize(input)
}

// CleanText strips markup from user text and applies SanitizeString. Output
// is JSON, so entities are decoded; stripping repeats until decoding yields
// no new markup.
func CleanText(input string, maxRunes int) string {
	current := input
	for i := 0; i < maxCleanPasses; i++ {
		next := html.UnescapeString(SanitizeHTML(current))
		if next == current {
			return SanitizeString(next, maxRunes)
		}
		current = next
	}
	// Still unwrapping nested entities; keep the escaped form.
	return SanitizeString(SanitizeHTML(current), maxRunes)
}
