package respec

import (
	"strings"

	"github.com/dshills/redefine-mcp/pkg/types"
)

// Built-in form names
const (
	FormImport   = "import"
	FormExport   = "export"
	FormToplevel = "toplevel"
)

// toplevelNoise is the number of leading tokens in a toplevel run that carry
// no form data: the line-number node and the marker opening the first group.
const toplevelNoise = 2

// importForm rebuilds a qualified import from its path fragments
func importForm() Form {
	return joinForm(FormImport, "import", ".")
}

// exportForm rebuilds a comma-separated export list
func exportForm() Form {
	return joinForm(FormExport, "export", ",")
}

func joinForm(name, keyword, sep string) Form {
	return Form{
		Name:  name,
		Parse: cleanParse,
		Format: func(tokens []string) (string, error) {
			return keyword + " " + strings.Join(tokens, sep), nil
		},
	}
}

func cleanParse(raw []string) ([]string, error) {
	return CleanTokens(raw), nil
}

// toplevelForm splits a merged run into nested forms and dispatches each one
// through r. Groups open at every token that still carries the marker.
func toplevelForm(r *Registry) Form {
	return Form{
		Name: FormToplevel,
		Parse: func(raw []string) ([]string, error) {
			tokens := make([]string, 0, len(raw))
			for _, tok := range raw {
				tokens = append(tokens, CleanToken(tok))
			}
			if len(tokens) <= toplevelNoise {
				return nil, nil
			}
			return tokens[toplevelNoise:], nil
		},
		Format: func(tokens []string) (string, error) {
			var (
				out   []string
				group []string
			)

			flush := func() error {
				defer func() { group = group[:0] }()
				if len(group) == 0 {
					return nil
				}
				text, err := r.Reconstruct(types.SpecialFormEntry{
					FormName:  group[0],
					RawTokens: append([]string(nil), group[1:]...),
				})
				if err != nil {
					return err
				}
				out = append(out, text)
				return nil
			}

			for _, tok := range tokens {
				if hasMarker(tok) {
					if err := flush(); err != nil {
						return "", err
					}
					continue
				}
				if tok == "" {
					continue
				}
				group = append(group, tok)
			}
			if err := flush(); err != nil {
				return "", err
			}

			return strings.Join(out, "\n"), nil
		},
	}
}
