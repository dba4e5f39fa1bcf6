package host

import (
	"fmt"
	"strings"

	"github.com/dshills/redefine-mcp/pkg/types"
)

// Snippet delimiters produced by Render
const (
	SnippetHeader = "quote"
	SnippetFooter = "end"
)

const indentUnit = "    "

// Render re-renders a parsed block as a quoted snippet. Import, using and
// export statements come out as interpolation artifacts; several of them on
// one source line are merged into a single toplevel run.
func Render(b *Block) types.Snippet {
	lines := []string{SnippetHeader}
	lines = append(lines, renderStmts(b.Stmts, 1)...)
	lines = append(lines, SnippetFooter)
	return types.NewSnippet(strings.Join(lines, "\n"))
}

// FormatStmts renders statements as plain, loadable source lines
func FormatStmts(stmts []Stmt) []string {
	var lines []string
	for _, s := range stmts {
		lines = append(lines, formatStmt(s, 0, false)...)
	}
	return lines
}

func renderStmts(stmts []Stmt, depth int) []string {
	var lines []string
	for i := 0; i < len(stmts); {
		j := i + 1
		for j < len(stmts) && stmts[j].Line() == stmts[i].Line() {
			j++
		}
		group := stmts[i:j]
		if len(group) > 1 && allSpecial(group) {
			lines = append(lines, indent(depth)+renderToplevel(group))
		} else {
			for _, s := range group {
				lines = append(lines, formatStmt(s, depth, true)...)
			}
		}
		i = j
	}
	return lines
}

func allSpecial(stmts []Stmt) bool {
	for _, s := range stmts {
		if !isSpecial(s) {
			return false
		}
	}
	return true
}

func renderToplevel(stmts []Stmt) string {
	parts := []string{":toplevel", fmt.Sprintf(":(#= line %d =#)", stmts[0].Line())}
	for _, s := range stmts {
		parts = append(parts, ":("+renderSpecial(s)+")")
	}
	return "$(" + strings.Join(parts, ", ") + ")"
}

func renderSpecial(s Stmt) string {
	var head string
	var args []string
	switch st := s.(type) {
	case *ImportStmt:
		head, args = "import", st.Path
	case *UsingStmt:
		head, args = "using", st.Path
	case *ExportStmt:
		head, args = "export", st.Names
	}
	parts := []string{":" + head}
	for _, a := range args {
		parts = append(parts, ":"+a)
	}
	return "$(" + strings.Join(parts, ", ") + ")"
}

func formatStmt(s Stmt, depth int, corrupt bool) []string {
	pad := indent(depth)
	if corrupt && isSpecial(s) {
		return []string{pad + renderSpecial(s)}
	}

	switch st := s.(type) {
	case *ImportStmt:
		return []string{pad + "import " + strings.Join(st.Path, ".")}
	case *UsingStmt:
		return []string{pad + "using " + strings.Join(st.Path, ".")}
	case *ExportStmt:
		return []string{pad + "export " + strings.Join(st.Names, ", ")}

	case *StructStmt:
		head := "struct " + st.Name
		if st.Mutable {
			head = "mutable " + head
		}
		lines := []string{pad + head}
		for _, f := range st.Fields {
			field := f.Name
			if f.Type != "" {
				field += "::" + f.Type
			}
			lines = append(lines, indent(depth+1)+field)
		}
		return append(lines, pad+"end")

	case *ModuleStmt:
		lines := []string{pad + "module " + st.Name}
		if corrupt {
			lines = append(lines, renderStmts(st.Body, depth+1)...)
		} else {
			for _, inner := range st.Body {
				lines = append(lines, formatStmt(inner, depth+1, false)...)
			}
		}
		return append(lines, pad+"end")

	case *AssignStmt:
		prefix := ""
		if st.Const {
			prefix = "const "
		}
		return []string{pad + prefix + st.Name + " = " + FormatExpr(st.Value)}

	case *ExprStmt:
		return []string{pad + FormatExpr(st.X)}
	}
	return nil
}

// FormatExpr renders an expression as source text
func FormatExpr(x Expr) string {
	switch e := x.(type) {
	case Literal:
		return e.Value.String()
	case Ref:
		return strings.Join(e.Path, ".")
	case Call:
		args := make([]string, 0, len(e.Args))
		for _, a := range e.Args {
			args = append(args, FormatExpr(a))
		}
		return FormatExpr(e.Callee) + "(" + strings.Join(args, ", ") + ")"
	}
	return ""
}

func indent(depth int) string {
	return strings.Repeat(indentUnit, depth)
}
