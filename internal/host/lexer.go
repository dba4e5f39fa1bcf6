package host

import (
	"fmt"
	"strings"
	"unicode"
)

// tokenKind classifies a lexical token
type tokenKind int

const (
	tokIdent tokenKind = iota
	tokInt
	tokFloat
	tokString
	tokPunct
)

// token is one lexical unit of a statement
type token struct {
	kind tokenKind
	text string
}

// lexStatement splits one statement into tokens
func lexStatement(src string) ([]token, error) {
	var tokens []token
	runes := []rune(src)

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++

		case r == '_' || unicode.IsLetter(r):
			start := i
			for i < len(runes) && (runes[i] == '_' || unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i])) {
				i++
			}
			tokens = append(tokens, token{kind: tokIdent, text: string(runes[start:i])})

		case unicode.IsDigit(r):
			start := i
			kind := tokInt
			for i < len(runes) && unicode.IsDigit(runes[i]) {
				i++
			}
			if i+1 < len(runes) && runes[i] == '.' && unicode.IsDigit(runes[i+1]) {
				kind = tokFloat
				i++
				for i < len(runes) && unicode.IsDigit(runes[i]) {
					i++
				}
			}
			tokens = append(tokens, token{kind: kind, text: string(runes[start:i])})

		case r == '"':
			end, err := scanString(runes, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokString, text: string(runes[i:end])})
			i = end

		case r == ':' && i+1 < len(runes) && runes[i+1] == ':':
			tokens = append(tokens, token{kind: tokPunct, text: "::"})
			i += 2

		case strings.ContainsRune("(),.=-", r):
			tokens = append(tokens, token{kind: tokPunct, text: string(r)})
			i++

		default:
			return nil, fmt.Errorf("unexpected character %q", r)
		}
	}

	return tokens, nil
}

// scanString returns the index just past the string literal starting at start
func scanString(runes []rune, start int) (int, error) {
	for i := start + 1; i < len(runes); i++ {
		switch runes[i] {
		case '\\':
			i++
		case '"':
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("unterminated string literal")
}

// splitStatements splits a source line on ';' and strips its trailing comment.
// Both are ignored inside string literals.
func splitStatements(line string) []string {
	var (
		parts    []string
		current  strings.Builder
		inString bool
		escaped  bool
	)

	for _, r := range line {
		if inString {
			current.WriteRune(r)
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}

		switch r {
		case '"':
			inString = true
			current.WriteRune(r)
		case '#':
			parts = append(parts, current.String())
			return trimParts(parts)
		case ';':
			parts = append(parts, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}

	parts = append(parts, current.String())
	return trimParts(parts)
}

func trimParts(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
