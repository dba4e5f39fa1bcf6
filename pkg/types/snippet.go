package types

import "strings"

// Snippet is the re-rendered text of one code block, delimiters included
type Snippet struct {
	Text string
}

// NewSnippet creates a Snippet from its literal text
func NewSnippet(text string) Snippet {
	return Snippet{Text: text}
}

// Lines splits the snippet on line breaks
func (s Snippet) Lines() []string {
	text := strings.ReplaceAll(s.Text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// SpecialFormEntry is a corrupted line broken into its form name and raw tokens.
// RawTokens holds the untransformed segments that follow the form name.
type SpecialFormEntry struct {
	FormName  string
	RawTokens []string
}

// UnitDefinition is a corrected block ready to be wrapped as a reloadable unit
type UnitDefinition struct {
	Name      string
	BodyLines []string
}
