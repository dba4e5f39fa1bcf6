// Package unit wraps corrected body lines in a named unit declaration.
package unit

import (
	"strings"
	"unicode"

	"github.com/dshills/redefine-mcp/pkg/types"
)

// Default declaration keywords
const (
	DefaultKeyword = "module"
	ClosingKeyword = "end"
)

// Wrap pairs a unit name with its body lines
func Wrap(name string, lines []string) types.UnitDefinition {
	body := make([]string, len(lines))
	copy(body, lines)
	return types.UnitDefinition{Name: name, BodyLines: body}
}

// Source renders the unit as complete source text. The body is not validated;
// syntax errors surface when the text is loaded.
func Source(def types.UnitDefinition, keyword string) string {
	if keyword == "" {
		keyword = DefaultKeyword
	}
	parts := make([]string, 0, len(def.BodyLines)+2)
	parts = append(parts, keyword+" "+def.Name)
	parts = append(parts, def.BodyLines...)
	parts = append(parts, ClosingKeyword)
	return strings.Join(parts, "\n")
}

// ValidName reports whether name is usable both as a unit identifier and as
// an artifact file name
func ValidName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}
