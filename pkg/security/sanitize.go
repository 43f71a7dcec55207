package security

import (
	"html"
	"regexp"
	"strings"
)

var (
	scriptBlockPattern = regexp.MustCompile(`(?is)<(script|style)\b[^>]*>.*?</(script|style)>`)
	tagPattern         = regexp.MustCompile(`(?s)<[^>]*>`)
	whitespacePattern  = regexp.MustCompile(`[ \t]+`)
)

// SanitizeString trims whitespace and removes null bytes and control
// characters (newlines and tabs are preserved)
func SanitizeString(input string) string {
	var b strings.Builder
	b.Grow(len(input))

	for _, r := range input {
		if r == '\n' || r == '\t' || r == '\r' || r >= 0x20 {
			b.WriteRune(r)
		}
	}

	return strings.TrimSpace(b.String())
}

// StripHTML removes all markup from user-submitted text, leaving only
// the visible content. Script and style bodies are dropped entirely,
// remaining tags are stripped, and entities are decoded. The result is
// what the analyzer scores.
func StripHTML(input string) string {
	out := scriptBlockPattern.ReplaceAllString(input, "")
	out = tagPattern.ReplaceAllString(out, "")
	out = html.UnescapeString(out)
	out = whitespacePattern.ReplaceAllString(out, " ")
	return SanitizeString(out)
}

// SanitizeEmail normalizes an email address for storage and lookup
func SanitizeEmail(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}
