// Package session assembles a live redefinition session: one host
// interpreter, its own form registry, the reload driver and, optionally, a
// reload history database.
//
//	s, err := session.New(&session.Config{ArtifactDir: "units", DBPath: "history.db"})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	res, err := s.Redefine(ctx, "m1", "export A, b\nstruct A\n    x::Int\nend\nb = A(1)")
//	out, err := s.Eval(ctx, "b.x") // "1"
//
// Every session owns its registry, so forms registered through Registry()
// never leak into another session.
package session
