package respec

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/redefine-mcp/pkg/types"
)

func newTestExtractor(t *testing.T, r *Registry) *Extractor {
	t.Helper()
	return NewExtractor(newTestClassifier(t, r))
}

func snippetOf(lines ...string) types.Snippet {
	return types.NewSnippet(strings.Join(lines, "\n"))
}

func TestExtract_DropsDelimiters(t *testing.T) {
	x := newTestExtractor(t, DefaultRegistry())

	lines, err := x.Extract(snippetOf(
		"quote",
		"    $(:export, :A, :b)",
		"    struct A",
		"        x::Int",
		"    end",
		"    b = A(1)",
		"end",
	))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"export A,b",
		"    struct A",
		"        x::Int",
		"    end",
		"    b = A(1)",
	}, lines)
}

func TestExtract_EmptyBody(t *testing.T) {
	x := newTestExtractor(t, DefaultRegistry())

	lines, err := x.Extract(snippetOf("quote", "end"))
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestExtract_Malformed(t *testing.T) {
	x := newTestExtractor(t, DefaultRegistry())

	_, err := x.Extract(types.NewSnippet("quote"))
	assert.ErrorIs(t, err, types.ErrMalformedSnippet)

	_, err = x.Extract(types.NewSnippet(""))
	assert.ErrorIs(t, err, types.ErrMalformedSnippet)
}

func TestExtract_UnknownFormAborts(t *testing.T) {
	x := newTestExtractor(t, DefaultRegistry())

	lines, err := x.Extract(snippetOf("quote", "    A = 1", "    $(:using, :geom)", "end"))
	assert.ErrorIs(t, err, types.ErrUnknownForm)
	assert.Nil(t, lines)
	assert.Contains(t, err.Error(), "line 3")
}

func TestExtract_OrdinaryTextNeverClassified(t *testing.T) {
	// An empty registry would fail on any marked line
	x := newTestExtractor(t, NewRegistry())

	lines, err := x.Extract(snippetOf("quote", "    A = 1", "    b = A", "end"))
	require.NoError(t, err)
	assert.Equal(t, []string{"    A = 1", "    b = A"}, lines)
}

func TestExtractAll_PreservesOrder(t *testing.T) {
	x := newTestExtractor(t, DefaultRegistry())
	x.SetWorkers(2)

	snippets := make([]types.Snippet, 0, 8)
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		snippets = append(snippets, snippetOf("quote", "    $(:export, :"+name+")", "end"))
	}

	results, err := x.ExtractAll(context.Background(), snippets)
	require.NoError(t, err)
	require.Len(t, results, 8)
	assert.Equal(t, []string{"export a"}, results[0])
	assert.Equal(t, []string{"export h"}, results[7])
}

func TestExtractAll_FirstErrorWins(t *testing.T) {
	x := newTestExtractor(t, DefaultRegistry())

	_, err := x.ExtractAll(context.Background(), []types.Snippet{
		snippetOf("quote", "    $(:export, :a)", "end"),
		snippetOf("quote", "    $(:using, :geom)", "end"),
	})
	assert.ErrorIs(t, err, types.ErrUnknownForm)
}
