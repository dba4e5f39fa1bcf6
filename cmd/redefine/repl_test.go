package main

import (
	"bytes"
	"context"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/redefine-mcp/internal/session"
)

func newTestREPL(t *testing.T, input string) (*repl, *bytes.Buffer) {
	t.Helper()
	sess, err := session.New(&session.Config{ArtifactDir: t.TempDir()},
		session.WithLogger(log.New(io.Discard, "", 0)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })

	var out bytes.Buffer
	return &repl{sess: sess, in: strings.NewReader(input), out: &out}, &out
}

func TestREPL_UnitBlockAndEval(t *testing.T) {
	input := `@unit m1
export A, b
struct A
    x::Int
end
b = A(1)
@end
b.x
`
	r, out := newTestREPL(t, input)
	require.NoError(t, r.run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "m1: generation 1")
	assert.Contains(t, text, "  A = m1.A\n  b = m1.b\n")
	assert.Contains(t, text, "  skipped: eval\n")
	assert.True(t, strings.HasSuffix(text, "1\n"), text)
}

func TestREPL_RedefineReplacesUnit(t *testing.T) {
	input := `@unit m1
export A
struct A
    x::Int
end
@end
@unit m1
export A
struct A
    x::Int
    y::Int
end
@end
A(1, 2)
`
	r, out := newTestREPL(t, input)
	require.NoError(t, r.run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "m1: generation 2")
	assert.True(t, strings.HasSuffix(text, "A(1, 2)\n"), text)
}

func TestREPL_ErrorsDoNotStop(t *testing.T) {
	input := "undefined_name\n@unit\n@unit 1bad\nx = 1\n@end\n1 + \nx = 5\nx\n"
	r, out := newTestREPL(t, input)
	require.NoError(t, r.run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "error: ")
	assert.Contains(t, text, "@unit needs a unit name")
	assert.Contains(t, text, "invalid unit name")
	assert.True(t, strings.HasSuffix(text, "5\n"), text)
}

func TestREPL_Quit(t *testing.T) {
	r, out := newTestREPL(t, "x = 1\n@quit\nx\n")
	require.NoError(t, r.run(context.Background()))
	assert.Equal(t, "1\n", out.String())
}

func TestREPL_UnterminatedBlock(t *testing.T) {
	r, out := newTestREPL(t, "@unit m1\nexport b\nb = 1\n")
	require.NoError(t, r.run(context.Background()))
	assert.Contains(t, out.String(), "unit m1 is missing @end")
}

func TestREPL_Prompt(t *testing.T) {
	r, out := newTestREPL(t, "@unit m1\nb = 1\n@end\n")
	r.prompt = true
	require.NoError(t, r.run(context.Background()))
	assert.True(t, strings.HasPrefix(out.String(), replPrompt+replContinue+replContinue), out.String())
}
