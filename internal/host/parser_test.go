package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Unit(t *testing.T) {
	src := `module m1
    export A, b
    struct A
        x::Int
    end
    b = A(1)
end`

	block, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, block.Stmts, 1)

	m, ok := block.Stmts[0].(*ModuleStmt)
	require.True(t, ok)
	assert.Equal(t, "m1", m.Name)
	require.Len(t, m.Body, 3)

	exp, ok := m.Body[0].(*ExportStmt)
	require.True(t, ok)
	assert.Equal(t, []string{"A", "b"}, exp.Names)
	assert.Equal(t, 2, exp.Line())

	st, ok := m.Body[1].(*StructStmt)
	require.True(t, ok)
	assert.Equal(t, "A", st.Name)
	assert.False(t, st.Mutable)
	assert.Equal(t, []Field{{Name: "x", Type: "Int"}}, st.Fields)

	as, ok := m.Body[2].(*AssignStmt)
	require.True(t, ok)
	assert.Equal(t, "b", as.Name)
	assert.Equal(t, Call{Callee: Ref{Path: []string{"A"}}, Args: []Expr{Literal{Value: Int(1)}}}, as.Value)
}

func TestParse_Statements(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want Stmt
	}{
		{"import", "import geom.Point", &ImportStmt{pos: pos{1}, Path: []string{"geom", "Point"}}},
		{"using", "using geom", &UsingStmt{pos: pos{1}, Path: []string{"geom"}}},
		{"const", "const n = -3", &AssignStmt{pos: pos{1}, Name: "n", Const: true, Value: Literal{Value: Int(-3)}}},
		{"float", "f = 2.5", &AssignStmt{pos: pos{1}, Name: "f", Value: Literal{Value: Float(2.5)}}},
		{"string", `s = "a;b#c"`, &AssignStmt{pos: pos{1}, Name: "s", Value: Literal{Value: String("a;b#c")}}},
		{"bool", "ok = true", &AssignStmt{pos: pos{1}, Name: "ok", Value: Literal{Value: Bool(true)}}},
		{"nothing", "nothing", &ExprStmt{pos: pos{1}, X: Literal{Value: Nothing{}}}},
		{"qualified ref", "m1.b.x", &ExprStmt{pos: pos{1}, X: Ref{Path: []string{"m1", "b", "x"}}}},
		{"comment", "x = 1 # trailing", &AssignStmt{pos: pos{1}, Name: "x", Value: Literal{Value: Int(1)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, err := Parse(tt.src)
			require.NoError(t, err)
			require.Len(t, block.Stmts, 1)
			assert.Equal(t, tt.want, block.Stmts[0])
		})
	}
}

func TestParse_Semicolons(t *testing.T) {
	block, err := Parse("import a.b; export A")
	require.NoError(t, err)
	require.Len(t, block.Stmts, 2)
	assert.Equal(t, 1, block.Stmts[0].Line())
	assert.Equal(t, 1, block.Stmts[1].Line())
}

func TestParse_MutableStruct(t *testing.T) {
	block, err := Parse("mutable struct Counter\n    n\nend")
	require.NoError(t, err)
	require.Len(t, block.Stmts, 1)

	st := block.Stmts[0].(*StructStmt)
	assert.True(t, st.Mutable)
	assert.Equal(t, []Field{{Name: "n"}}, st.Fields)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
	}{
		{"missing end", "module m1\nx = 1", 1},
		{"stray end", "end", 1},
		{"nested module", "module a\nmodule b\nend\nend", 2},
		{"marker", "$(:export, :A)", 1},
		{"duplicate field", "struct A\n    x\n    x\nend", 3},
		{"reserved name", "const end = 1", 1},
		{"unterminated string", `s = "abc`, 1},
		{"trailing tokens", "x = 1 2", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			require.Error(t, err)
			var syn *SyntaxError
			require.ErrorAs(t, err, &syn)
			assert.Equal(t, tt.line, syn.Line)
		})
	}
}
