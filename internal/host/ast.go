package host

// Block is a parsed sequence of statements
type Block struct {
	Stmts []Stmt
}

// Stmt is a statement of the unit language
type Stmt interface {
	// Line is the 1-based source line the statement started on
	Line() int
}

type pos struct{ line int }

func (p pos) Line() int { return p.line }

// ModuleStmt declares a unit
type ModuleStmt struct {
	pos
	Name string
	Body []Stmt
}

// ImportStmt binds the last element of a qualified path
type ImportStmt struct {
	pos
	Path []string
}

// UsingStmt binds every export of a unit
type UsingStmt struct {
	pos
	Path []string
}

// ExportStmt marks names public
type ExportStmt struct {
	pos
	Names []string
}

// Field is one declared field of a struct
type Field struct {
	Name string
	Type string // Empty means Any
}

// StructStmt declares a composite type
type StructStmt struct {
	pos
	Name    string
	Mutable bool
	Fields  []Field
}

// AssignStmt binds a name to the value of an expression
type AssignStmt struct {
	pos
	Name  string
	Const bool
	Value Expr
}

// ExprStmt evaluates an expression for its value
type ExprStmt struct {
	pos
	X Expr
}

// Expr is an expression of the unit language
type Expr interface {
	expr()
}

// Literal is a constant value
type Literal struct {
	Value Value
}

// Ref is a possibly qualified name such as b or m1.A
type Ref struct {
	Path []string
}

// Call applies a callee to arguments
type Call struct {
	Callee Ref
	Args   []Expr
}

func (Literal) expr() {}
func (Ref) expr()     {}
func (Call) expr()    {}

// isSpecial reports whether a statement is rendered as a corrupted form
func isSpecial(s Stmt) bool {
	switch s.(type) {
	case *ImportStmt, *UsingStmt, *ExportStmt:
		return true
	}
	return false
}
