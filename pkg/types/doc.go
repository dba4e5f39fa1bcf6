// Package types provides shared type definitions for redefine-mcp.
//
// This package defines the data model passed between the respecialization
// engine, the unit wrapper, the reload driver and the session layer.
//
// # Core Types
//
// Snippet is the re-rendered text of one user-authored block, including the
// header and footer lines the extractor discards:
//
//	snippet := types.NewSnippet("quote\n    $(:export, :A)\n    A = 1\nend")
//	lines := snippet.Lines()
//
// SpecialFormEntry is what the line classifier produces for a corrupted line:
//
//	entry := types.SpecialFormEntry{
//	    FormName:  "import",
//	    RawTokens: []string{"os, ", "path, ", "join)"},
//	}
//
// UnitDefinition pairs a unit name with its corrected body lines. Manifest is
// the list of publishing assignments computed from a unit's exports:
//
//	manifest := types.Manifest{{Unit: "m1", LocalName: "A"}}
//	manifest.Lines() // ["A = m1.A"]
//
// # Errors
//
// The pipeline surfaces three error kinds, all fatal:
//
//	var unknown *types.UnknownFormError // no registry entry for a form
//	var load *types.LoadError           // unit or artifact failed to load
//	var fileErr *types.FileIOError      // artifact write/append/read failed
//
//	if errors.As(err, &unknown) {
//	    fmt.Println("unsupported form:", unknown.FormName)
//	}
//
// Every typed error unwraps to its cause, and UnknownFormError matches the
// ErrUnknownForm sentinel through errors.Is.
package types
