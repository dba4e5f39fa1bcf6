package respec

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/redefine-mcp/pkg/types"
)

func reconstruct(t *testing.T, r *Registry, name string, tokens ...string) string {
	t.Helper()
	text, err := r.Reconstruct(types.SpecialFormEntry{FormName: name, RawTokens: tokens})
	require.NoError(t, err)
	return text
}

func TestDefaultRegistry_Builtins(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{"export", "import", "toplevel"}, r.Names())
	assert.Equal(t, 3, r.Len())
}

func TestImportForm(t *testing.T) {
	r := DefaultRegistry()

	assert.Equal(t, "import os.path.join", reconstruct(t, r, "import", "os", "path", "join"))
	assert.Equal(t, "import os.path.join", reconstruct(t, r, "import", "os, ", "path, ", "join)"))
	assert.Equal(t, "import geom", reconstruct(t, r, "import", "geom)"))
}

func TestExportForm(t *testing.T) {
	r := DefaultRegistry()

	assert.Equal(t, "export Foo,Bar,baz", reconstruct(t, r, "export", "Foo", "Bar", "baz"))
	assert.Equal(t, "export Foo,Bar,baz", reconstruct(t, r, "export", "Foo, ", "Bar, ", ", ", "baz)  # api"))
}

func TestToplevelForm_SplitsOnMarker(t *testing.T) {
	r := DefaultRegistry()

	raw := []string{
		"(#= line 3 =#), ",
		"($(", "import, ", "geom, ", "Point)), ",
		"($(", "export, ", "A, ", "b)))",
	}
	text := reconstruct(t, r, "toplevel", raw...)

	parts := strings.Split(text, "\n")
	require.Len(t, parts, 2)
	assert.Equal(t, "import geom.Point", parts[0])
	assert.Equal(t, "export A,b", parts[1])

	// Each part matches its own handler
	assert.Equal(t, reconstruct(t, r, "import", "geom", "Point"), parts[0])
	assert.Equal(t, reconstruct(t, r, "export", "A", "b"), parts[1])
}

func TestToplevelForm_FlushesFinalGroup(t *testing.T) {
	r := DefaultRegistry()

	text := reconstruct(t, r, "toplevel", "(#= line 1 =#), ", "($(", "export, ", "A)))")
	assert.Equal(t, "export A", text)
}

func TestToplevelForm_UnknownNestedForm(t *testing.T) {
	r := DefaultRegistry()

	_, err := r.Reconstruct(types.SpecialFormEntry{
		FormName:  "toplevel",
		RawTokens: []string{"(#= line 1 =#), ", "($(", "using, ", "geom)))"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrUnknownForm))

	var unknown *types.UnknownFormError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "using", unknown.FormName)
}

func TestRegistry_UnknownForm(t *testing.T) {
	r := NewRegistry()

	_, err := r.Reconstruct(types.SpecialFormEntry{FormName: "import", RawTokens: []string{"os"}})
	assert.ErrorIs(t, err, types.ErrUnknownForm)
}

func TestRegistry_Register(t *testing.T) {
	t.Run("rejects empty name", func(t *testing.T) {
		err := NewRegistry().Register(Form{Parse: cleanParse, Format: func([]string) (string, error) { return "", nil }})
		assert.ErrorIs(t, err, ErrEmptyFormName)
	})

	t.Run("rejects nil funcs", func(t *testing.T) {
		err := NewRegistry().Register(Form{Name: "x"})
		assert.ErrorIs(t, err, ErrNilFormFunc)
		assert.ErrorIs(t, NewRegistry().RegisterFunc("x", nil), ErrNilFormFunc)
	})

	t.Run("bumps version", func(t *testing.T) {
		r := NewRegistry()
		before := r.Version()
		require.NoError(t, r.RegisterJoin("using", "using", "."))
		assert.Greater(t, r.Version(), before)
	})

	t.Run("handler receives raw tokens", func(t *testing.T) {
		r := NewRegistry()
		var got []string
		require.NoError(t, r.RegisterFunc("raw", func(tokens ...string) (string, error) {
			got = tokens
			return "ok", nil
		}))

		assert.Equal(t, "ok", reconstruct(t, r, "raw", "a, ", "b)"))
		assert.Equal(t, []string{"a, ", "b)"}, got)
	})

	t.Run("join form", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.RegisterJoin("using", "using", "."))
		assert.Equal(t, "using geom", reconstruct(t, r, "using", "geom)"))
	})
}

func TestRegistry_CloneIsIndependent(t *testing.T) {
	r := DefaultRegistry()
	c := r.Clone()

	require.NoError(t, c.RegisterJoin("using", "using", "."))
	_, ok := r.Lookup("using")
	assert.False(t, ok, "original must not see forms added to the clone")

	// toplevel in the clone dispatches through the clone
	text := reconstruct(t, c, "toplevel", "(#= line 1 =#), ", "($(", "using, ", "geom)))")
	assert.Equal(t, "using geom", text)

	_, err := r.Reconstruct(types.SpecialFormEntry{
		FormName:  "toplevel",
		RawTokens: []string{"(#= line 1 =#), ", "($(", "using, ", "geom)))"},
	})
	assert.ErrorIs(t, err, types.ErrUnknownForm)
}
