package coordination

import "strings"

// minKeywordLen drops short filler tokens ("a", "to", "is")
const minKeywordLen = 3

// ExtractKeywords lowercases text, strips non-alphanumeric characters,
// splits on whitespace and keeps tokens longer than two characters.
func ExtractKeywords(text string) map[string]struct{} {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ', r == '\t', r == '\n', r == '\r':
			return r
		default:
			return -1
		}
	}, text)

	keywords := make(map[string]struct{})
	for _, token := range strings.Fields(cleaned) {
		if len(token) >= minKeywordLen {
			keywords[token] = struct{}{}
		}
	}
	return keywords
}
