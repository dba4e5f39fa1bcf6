// Package respec repairs special forms that are corrupted when a parsed code
// block is serialized back to text.
//
// The upstream serializer renders declarative forms such as imports and export
// lists as interpolation artifacts:
//
//	$(:import, :geom, :Point)
//	$(:export, :A, :b)
//
// Those lines cannot be loaded as-is. The respecialization pass finds them and
// rebuilds the original statements:
//
//	import geom.Point
//	export A,b
//
// # Components
//
// Registry maps a form name to a Form, a (parser, formatter) pair. Registries
// are plain values: every pipeline owns its own, so tests and independent
// sessions never share state.
//
//	reg := respec.DefaultRegistry()       // import, export, toplevel
//	_ = reg.RegisterJoin("using", "using", ".")
//
// Classifier inspects one line. Lines that do not start with the corruption
// marker (after leading whitespace) are returned untouched; marked lines are
// split on ':' into raw tokens and dispatched to the registry by their first
// clean token. An unregistered form is a hard failure:
//
//	c, err := respec.NewClassifier(reg, respec.WithCache(256))
//	line, err := c.Classify("    $(:export, :A, :b)")
//	// line == "export A,b"
//
// Extractor applies the classifier to every line of a snippet, minus the
// enclosing header and footer:
//
//	x := respec.NewExtractor(c)
//	lines, err := x.Extract(snippet)
//
// # The toplevel form
//
// When several special forms share one source line the serializer merges them
// into a single toplevel run. Its handler splits the run every time a token
// still carries the marker and dispatches each group recursively. The split
// rule is a heuristic matched against the bundled serializer's output.
package respec
