package respec

import (
	"strings"
	"unicode"
)

// Marker is the sigil the serializer puts in front of corrupted forms
const Marker = '$'

// fieldSeparator splits a corrupted line into raw tokens
const fieldSeparator = ":"

// CleanToken strips commas, whitespace, a trailing line comment and a trailing
// run of parentheses from a raw token. Cleaning is idempotent.
func CleanToken(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r == ',' || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	tok := b.String()

	if i := strings.IndexByte(tok, '#'); i >= 0 {
		tok = tok[:i]
	}

	return strings.TrimRight(tok, "()")
}

// CleanTokens cleans every token and drops the ones left empty
func CleanTokens(raw []string) []string {
	tokens := make([]string, 0, len(raw))
	for _, r := range raw {
		if tok := CleanToken(r); tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// hasMarker reports whether a token still carries the corruption marker
func hasMarker(tok string) bool {
	return strings.ContainsRune(tok, Marker)
}
