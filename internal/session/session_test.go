package session

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/redefine-mcp/internal/storage"
	"github.com/dshills/redefine-mcp/pkg/types"
)

const m1Code = `export A, b
struct A
    x::Int
end
b = A(1)`

const m1CodeV2 = `export A, b
struct A
    x::Int
    y::Int
end
b = A(1, 2)`

func newTestSession(t *testing.T, cfg *Config) *Session {
	t.Helper()
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.ArtifactDir == "" {
		cfg.ArtifactDir = t.TempDir()
	}
	if cfg.DBPath == "" {
		cfg.DBPath = ":memory:"
	}
	var buf bytes.Buffer
	s, err := New(cfg, WithLogger(log.New(&buf, "", 0)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRedefine_EndToEnd(t *testing.T) {
	s := newTestSession(t, nil)
	ctx := context.Background()

	res, err := s.Redefine(ctx, "m1", m1Code)
	require.NoError(t, err)
	assert.Equal(t, []string{"A = m1.A", "b = m1.b"}, res.Published.Lines())
	assert.Equal(t, []string{"eval"}, res.Skipped)

	data, err := os.ReadFile(res.ArtifactPath)
	require.NoError(t, err)
	assert.Equal(t, `module m1
export A,b
    struct A
        x::Int
    end
    b = A(1)
end
A = m1.A
b = m1.b`, string(data))

	b, ok := s.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, "A(1)", b)

	a, ok := s.Lookup("A")
	require.True(t, ok)
	assert.Equal(t, "m1.A", a)

	_, ok = s.Lookup("eval")
	assert.False(t, ok, "the loader sentinel is never published")

	out, err := s.Eval(ctx, "b.x")
	require.NoError(t, err)
	assert.Equal(t, "1", out)
}

func TestRedefine_ReplacesStruct(t *testing.T) {
	s := newTestSession(t, nil)
	ctx := context.Background()

	_, err := s.Redefine(ctx, "m1", m1Code)
	require.NoError(t, err)

	res, err := s.Redefine(ctx, "m1", m1CodeV2)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Generation)

	b, ok := s.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, "A(1, 2)", b)

	out, err := s.Eval(ctx, "A(3, 4)")
	require.NoError(t, err)
	assert.Equal(t, "A(3, 4)", out)
}

func TestEval_StructRedefinitionInMainFails(t *testing.T) {
	s := newTestSession(t, nil)
	ctx := context.Background()

	_, err := s.Eval(ctx, "struct P\n    x::Int\nend")
	require.NoError(t, err)

	_, err = s.Eval(ctx, "struct P\n    x::Int\n    y::Int\nend")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid redefinition of constant P")
}

func TestRedefine_CustomBlacklist(t *testing.T) {
	s := newTestSession(t, &Config{Blacklist: []string{"eval", "b"}})

	res, err := s.Redefine(context.Background(), "m1", m1Code)
	require.NoError(t, err)
	assert.Equal(t, []string{"A = m1.A"}, res.Published.Lines())

	_, ok := s.Lookup("b")
	assert.False(t, ok)
	assert.True(t, s.Blacklist().Contains("b"))
}

func TestRedefine_ReloadMode(t *testing.T) {
	s := newTestSession(t, &Config{Mode: types.ModeReload})

	res, err := s.Redefine(context.Background(), "m1", m1Code)
	require.NoError(t, err)
	assert.Equal(t, types.PhaseReload, res.Phase)

	b, ok := s.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, "A(1)", b)
}

func TestRedefine_ParseError(t *testing.T) {
	s := newTestSession(t, nil)

	_, err := s.Redefine(context.Background(), "m1", "struct A\n    x::Int")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse m1")
	assert.Empty(t, s.Units())
}

func TestRedefine_LoadErrorKeepsBindings(t *testing.T) {
	s := newTestSession(t, nil)
	ctx := context.Background()

	_, err := s.Redefine(ctx, "m1", m1Code)
	require.NoError(t, err)

	_, err = s.Redefine(ctx, "m1", "export b\nb = missing")
	var loadErr *types.LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, types.PhaseLoad, loadErr.Phase)

	b, ok := s.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, "A(1)", b)
}

func TestRedefineSnippet_Forms(t *testing.T) {
	dir := t.TempDir()
	s := newTestSession(t, &Config{ArtifactDir: dir, CacheSize: 16})
	ctx := context.Background()
	snippet := types.NewSnippet("quote\n    $(:share, :a)\n    a = 1\nend")

	res, err := s.RedefineSnippet(ctx, "m7", snippet)
	require.ErrorIs(t, err, types.ErrUnknownForm)
	assert.Equal(t, types.PhaseGenerate, res.Phase)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no artifact is written for an unknown form")

	require.NoError(t, s.Registry().RegisterJoin("share", "export", ","))

	res, err = s.RedefineSnippet(ctx, "m7", snippet)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "m7.ul"), res.ArtifactPath)

	a, ok := s.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "1", a)
}

func TestRedefineBatch(t *testing.T) {
	s := newTestSession(t, nil)
	ctx := context.Background()

	results, err := s.RedefineBatch(ctx, []Definition{
		{Name: "m1", Code: m1Code},
		{Name: "m2", Code: "import m1.A; export B, c\nstruct B\n    a::A\nend\nc = B(A(5))"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "m1", results[0].Unit)
	assert.Equal(t, "m2", results[1].Unit)

	c, ok := s.Lookup("c")
	require.True(t, ok)
	assert.Equal(t, "B(A(5))", c)
	assert.Equal(t, []string{"m1", "m2"}, s.Units())
}

func TestRedefineBatch_ParseErrorWritesNothing(t *testing.T) {
	dir := t.TempDir()
	s := newTestSession(t, &Config{ArtifactDir: dir})

	_, err := s.RedefineBatch(context.Background(), []Definition{
		{Name: "m1", Code: m1Code},
		{Name: "m2", Code: "x = ("},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "m2")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRedefineBatch_StopsAtFirstFailure(t *testing.T) {
	s := newTestSession(t, nil)

	results, err := s.RedefineBatch(context.Background(), []Definition{
		{Name: "m1", Code: m1Code},
		{Name: "m2", Code: "y = missing"},
		{Name: "m3", Code: "export z\nz = 1"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unit m2")
	assert.Len(t, results, 2)
	assert.Equal(t, []string{"m1"}, s.Units())
}

func TestHistory(t *testing.T) {
	s := newTestSession(t, nil)
	ctx := context.Background()

	_, err := s.Redefine(ctx, "m1", m1Code)
	require.NoError(t, err)
	_, err = s.Redefine(ctx, "m1", "export b\nb = missing")
	require.Error(t, err)

	reloads, err := s.History(ctx, "m1", 10)
	require.NoError(t, err)
	require.Len(t, reloads, 2)
	assert.Equal(t, storage.StatusFailed, reloads[0].Status)
	assert.Equal(t, "load", reloads[0].Phase)
	assert.Equal(t, storage.StatusOK, reloads[1].Status)
	assert.Equal(t, 2, reloads[1].PublishedCount)

	bindings, err := s.Bindings(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, bindings, 2)
	assert.Equal(t, "m1.A", bindings[0].QualifiedSource)

	status, err := s.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.UnitsCount)
	assert.Equal(t, 1, status.FailedReloads)

	_, err = s.History(ctx, "nope", 10)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestHistory_Disabled(t *testing.T) {
	s, err := New(&Config{ArtifactDir: t.TempDir()})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.History(context.Background(), "m1", 1)
	assert.ErrorIs(t, err, ErrHistoryDisabled)
	_, err = s.Bindings(context.Background(), "m1")
	assert.ErrorIs(t, err, ErrHistoryDisabled)
	_, err = s.Status(context.Background())
	assert.ErrorIs(t, err, ErrHistoryDisabled)
}

func TestSessions_AreIndependent(t *testing.T) {
	a := newTestSession(t, nil)
	b := newTestSession(t, nil)

	require.NoError(t, a.Registry().RegisterJoin("share", "export", ","))
	_, ok := b.Registry().Lookup("share")
	assert.False(t, ok)

	_, err := a.Redefine(context.Background(), "m1", m1Code)
	require.NoError(t, err)
	_, ok = b.Lookup("b")
	assert.False(t, ok)
}
