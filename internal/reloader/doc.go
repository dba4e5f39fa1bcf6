// Package reloader drives one redefinition of a unit: it turns a corrupted
// snippet into loadable source, persists it as an artifact, loads it as an
// isolated unit and publishes the unit's exports into the shared namespace.
//
// # State machine
//
// Redefine runs its phases strictly in order and stops at the first error:
//
//  1. GENERATE   repair the snippet and wrap the lines in a unit declaration
//  2. PERSIST    write <dir>/<name><ext>, truncating any previous artifact
//  3. LOAD       load the bytes read back from the artifact
//  4. INTROSPECT list the names the loaded unit exports
//  5. APPEND     append one "x = name.x" line per non-blacklisted export
//  6. RELOAD     (ModeReload) re-execute the whole artifact in the shared namespace
//     PUBLISH    (ModeManifest) apply the manifest as one atomic batch
//
// Nothing is rolled back. A failed run leaves the artifact on disk, and the
// shared namespace is only touched by the final phase.
//
// # Collaborators
//
// The host language is injected through small interfaces, so tests can run
// the pipeline against in-memory fakes:
//
//	r, err := reloader.New(extractor, interp, &reloader.Config{
//	    Dir:  "/var/lib/redefine/units",
//	    Mode: types.ModeManifest,
//	})
//	res, err := r.Redefine(ctx, "m1", snippet)
//	fmt.Println(res.Published.Lines()) // [A = m1.A b = m1.b]
//
// # Concurrency
//
// One Reloader runs one redefinition at a time. A call made while another is
// in flight fails immediately with types.ErrReloadInProgress.
package reloader
