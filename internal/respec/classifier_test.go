package respec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/redefine-mcp/pkg/types"
)

func newTestClassifier(t *testing.T, r *Registry, opts ...ClassifierOption) *Classifier {
	t.Helper()
	c, err := NewClassifier(r, opts...)
	require.NoError(t, err)
	return c
}

func TestParseEntry(t *testing.T) {
	t.Run("unmarked line", func(t *testing.T) {
		_, ok := ParseEntry("    b = A(1)")
		assert.False(t, ok)
	})

	t.Run("marked line", func(t *testing.T) {
		entry, ok := ParseEntry("    $(:import, :os, :path, :join)")
		require.True(t, ok)
		assert.Equal(t, "import", entry.FormName)
		assert.Equal(t, []string{"os, ", "path, ", "join)"}, entry.RawTokens)
	})

	t.Run("marker only", func(t *testing.T) {
		entry, ok := ParseEntry("$()")
		require.True(t, ok)
		assert.Empty(t, entry.FormName)
	})
}

func TestClassify_PassThrough(t *testing.T) {
	c := newTestClassifier(t, NewRegistry())

	for _, line := range []string{"", "    struct A", "        x::Int", "b = \"$notmarked\"", "end"} {
		got, err := c.Classify(line)
		require.NoError(t, err)
		assert.Equal(t, line, got)
	}
}

func TestClassify_Reconstructs(t *testing.T) {
	c := newTestClassifier(t, DefaultRegistry())

	tests := []struct {
		line string
		want string
	}{
		{"$(:import, :os, :path, :join)", "import os.path.join"},
		{"    $(:export, :Foo, :Bar, :baz)", "export Foo,Bar,baz"},
		{"\t$(:export, :A)  # only A", "export A"},
		{
			"$(:toplevel, :(#= line 2 =#), :($(:import, :geom, :Point)), :($(:export, :A, :b)))",
			"import geom.Point\nexport A,b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, err := c.Classify(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_UnknownFormIsFatal(t *testing.T) {
	c := newTestClassifier(t, DefaultRegistry())

	line := "    $(:using, :geom)"
	_, err := c.Classify(line)
	require.Error(t, err)

	var unknown *types.UnknownFormError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "using", unknown.FormName)
	assert.Equal(t, line, unknown.Line)
}

func TestClassify_EmptyFormName(t *testing.T) {
	c := newTestClassifier(t, DefaultRegistry())

	_, err := c.Classify("$()")
	assert.ErrorIs(t, err, types.ErrUnknownForm)
}

func TestClassify_Idempotent(t *testing.T) {
	c := newTestClassifier(t, DefaultRegistry())

	line := "$(:export, :A, :b)"
	first, err := c.Classify(line)
	require.NoError(t, err)
	second, err := c.Classify(line)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestClassify_CachePurgedOnRegister(t *testing.T) {
	r := DefaultRegistry()
	c := newTestClassifier(t, r, WithCache(16))

	line := "$(:export, :A, :b)"
	got, err := c.Classify(line)
	require.NoError(t, err)
	assert.Equal(t, "export A,b", got)

	// Override export; the cached result must not survive
	require.NoError(t, r.RegisterJoin("export", "export", ", "))
	got, err = c.Classify(line)
	require.NoError(t, err)
	assert.Equal(t, "export A, b", got)
}
