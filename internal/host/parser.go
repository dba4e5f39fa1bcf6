package host

import (
	"fmt"
	"strconv"
	"strings"
)

// SyntaxError reports a statement the parser could not understand
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error on line %d: %s", e.Line, e.Msg)
}

// Parse parses unit-language source into a Block
func Parse(src string) (*Block, error) {
	p := &parser{}
	root := &frame{}
	p.stack = []*frame{root}

	lines := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lineNo := i + 1
		for _, stmt := range splitStatements(line) {
			if err := p.statement(stmt, lineNo); err != nil {
				return nil, err
			}
		}
	}

	if len(p.stack) > 1 {
		open := p.stack[len(p.stack)-1]
		return nil, &SyntaxError{Line: open.line, Msg: fmt.Sprintf("%s is missing its end", open.kind)}
	}
	return &Block{Stmts: root.stmts}, nil
}

// frame is an open module or struct waiting for its end
type frame struct {
	kind   string
	line   int
	module *ModuleStmt
	strct  *StructStmt
	stmts  []Stmt
}

type parser struct {
	stack []*frame
}

func (p *parser) top() *frame {
	return p.stack[len(p.stack)-1]
}

func (p *parser) emit(s Stmt) {
	f := p.top()
	f.stmts = append(f.stmts, s)
}

func (p *parser) statement(text string, line int) error {
	toks, err := lexStatement(text)
	if err != nil {
		return &SyntaxError{Line: line, Msg: err.Error()}
	}
	if len(toks) == 0 {
		return nil
	}

	if isKeyword(toks[0], "end") {
		if len(toks) != 1 {
			return &SyntaxError{Line: line, Msg: "unexpected tokens after end"}
		}
		return p.closeFrame(line)
	}

	if p.top().kind == "struct" {
		return p.field(toks, line)
	}

	ts := &tokenStream{toks: toks, line: line}
	switch {
	case isKeyword(toks[0], "module"):
		if len(p.stack) > 1 {
			return &SyntaxError{Line: line, Msg: "module declarations are only allowed at top level"}
		}
		ts.next()
		name, err := ts.ident()
		if err != nil {
			return err
		}
		if err := ts.done(); err != nil {
			return err
		}
		m := &ModuleStmt{pos: pos{line}, Name: name}
		p.stack = append(p.stack, &frame{kind: "module", line: line, module: m})
		return nil

	case isKeyword(toks[0], "struct"), isKeyword(toks[0], "mutable"):
		mutable := isKeyword(toks[0], "mutable")
		ts.next()
		if mutable {
			if !ts.keyword("struct") {
				return ts.errorf("expected struct after mutable")
			}
		}
		name, err := ts.ident()
		if err != nil {
			return err
		}
		if err := ts.done(); err != nil {
			return err
		}
		s := &StructStmt{pos: pos{line}, Name: name, Mutable: mutable}
		p.stack = append(p.stack, &frame{kind: "struct", line: line, strct: s})
		return nil

	case isKeyword(toks[0], "import"), isKeyword(toks[0], "using"):
		ts.next()
		path, err := ts.path()
		if err != nil {
			return err
		}
		if err := ts.done(); err != nil {
			return err
		}
		if isKeyword(toks[0], "import") {
			p.emit(&ImportStmt{pos: pos{line}, Path: path})
		} else {
			p.emit(&UsingStmt{pos: pos{line}, Path: path})
		}
		return nil

	case isKeyword(toks[0], "export"):
		ts.next()
		names, err := ts.identList()
		if err != nil {
			return err
		}
		p.emit(&ExportStmt{pos: pos{line}, Names: names})
		return nil

	case isKeyword(toks[0], "const"):
		ts.next()
		return p.assignment(ts, line, true)
	}

	if len(toks) > 1 && toks[0].kind == tokIdent && toks[1].text == "=" {
		return p.assignment(ts, line, false)
	}

	x, err := ts.expr()
	if err != nil {
		return err
	}
	if err := ts.done(); err != nil {
		return err
	}
	p.emit(&ExprStmt{pos: pos{line}, X: x})
	return nil
}

func (p *parser) assignment(ts *tokenStream, line int, isConst bool) error {
	name, err := ts.ident()
	if err != nil {
		return err
	}
	if !ts.punct("=") {
		return ts.errorf("expected = after %s", name)
	}
	value, err := ts.expr()
	if err != nil {
		return err
	}
	if err := ts.done(); err != nil {
		return err
	}
	p.emit(&AssignStmt{pos: pos{line}, Name: name, Const: isConst, Value: value})
	return nil
}

func (p *parser) field(toks []token, line int) error {
	ts := &tokenStream{toks: toks, line: line}
	name, err := ts.ident()
	if err != nil {
		return err
	}
	f := Field{Name: name}
	if ts.punct("::") {
		if f.Type, err = ts.ident(); err != nil {
			return err
		}
	}
	if err := ts.done(); err != nil {
		return err
	}
	s := p.top().strct
	for _, existing := range s.Fields {
		if existing.Name == f.Name {
			return &SyntaxError{Line: line, Msg: fmt.Sprintf("duplicate field %s in struct %s", f.Name, s.Name)}
		}
	}
	s.Fields = append(s.Fields, f)
	return nil
}

func (p *parser) closeFrame(line int) error {
	if len(p.stack) == 1 {
		return &SyntaxError{Line: line, Msg: "end without matching module or struct"}
	}
	f := p.top()
	p.stack = p.stack[:len(p.stack)-1]

	switch f.kind {
	case "module":
		f.module.Body = f.stmts
		p.emit(f.module)
	case "struct":
		p.emit(f.strct)
	}
	return nil
}

// tokenStream walks the tokens of one statement
type tokenStream struct {
	toks []token
	i    int
	line int
}

func (ts *tokenStream) peek() (token, bool) {
	if ts.i >= len(ts.toks) {
		return token{}, false
	}
	return ts.toks[ts.i], true
}

func (ts *tokenStream) next() token {
	t := ts.toks[ts.i]
	ts.i++
	return t
}

func (ts *tokenStream) errorf(format string, args ...interface{}) error {
	return &SyntaxError{Line: ts.line, Msg: fmt.Sprintf(format, args...)}
}

func (ts *tokenStream) done() error {
	if t, ok := ts.peek(); ok {
		return ts.errorf("unexpected %q", t.text)
	}
	return nil
}

func (ts *tokenStream) punct(text string) bool {
	if t, ok := ts.peek(); ok && t.kind == tokPunct && t.text == text {
		ts.i++
		return true
	}
	return false
}

func (ts *tokenStream) keyword(text string) bool {
	if t, ok := ts.peek(); ok && isKeyword(t, text) {
		ts.i++
		return true
	}
	return false
}

func (ts *tokenStream) ident() (string, error) {
	t, ok := ts.peek()
	if !ok {
		return "", ts.errorf("expected identifier at end of statement")
	}
	if t.kind != tokIdent || reserved[t.text] {
		return "", ts.errorf("expected identifier, got %q", t.text)
	}
	ts.i++
	return t.text, nil
}

func (ts *tokenStream) path() ([]string, error) {
	first, err := ts.ident()
	if err != nil {
		return nil, err
	}
	path := []string{first}
	for ts.punct(".") {
		seg, err := ts.ident()
		if err != nil {
			return nil, err
		}
		path = append(path, seg)
	}
	return path, nil
}

func (ts *tokenStream) identList() ([]string, error) {
	first, err := ts.ident()
	if err != nil {
		return nil, err
	}
	names := []string{first}
	for ts.punct(",") {
		name, err := ts.ident()
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, ts.done()
}

func (ts *tokenStream) expr() (Expr, error) {
	t, ok := ts.peek()
	if !ok {
		return nil, ts.errorf("expected expression")
	}

	negative := false
	if t.kind == tokPunct && t.text == "-" {
		ts.i++
		negative = true
		if t, ok = ts.peek(); !ok || (t.kind != tokInt && t.kind != tokFloat) {
			return nil, ts.errorf("expected number after -")
		}
	}

	switch t.kind {
	case tokInt:
		ts.i++
		n, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return nil, ts.errorf("invalid integer %s", t.text)
		}
		if negative {
			n = -n
		}
		return Literal{Value: Int(n)}, nil

	case tokFloat:
		ts.i++
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, ts.errorf("invalid float %s", t.text)
		}
		if negative {
			f = -f
		}
		return Literal{Value: Float(f)}, nil

	case tokString:
		ts.i++
		s, err := strconv.Unquote(t.text)
		if err != nil {
			return nil, ts.errorf("invalid string literal %s", t.text)
		}
		return Literal{Value: String(s)}, nil

	case tokIdent:
		switch t.text {
		case "true", "false":
			ts.i++
			return Literal{Value: Bool(t.text == "true")}, nil
		case "nothing":
			ts.i++
			return Literal{Value: Nothing{}}, nil
		}
		path, err := ts.path()
		if err != nil {
			return nil, err
		}
		ref := Ref{Path: path}
		if !ts.punct("(") {
			return ref, nil
		}
		args, err := ts.args()
		if err != nil {
			return nil, err
		}
		return Call{Callee: ref, Args: args}, nil
	}

	return nil, ts.errorf("unexpected %q", t.text)
}

func (ts *tokenStream) args() ([]Expr, error) {
	var args []Expr
	if ts.punct(")") {
		return args, nil
	}
	for {
		arg, err := ts.expr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if ts.punct(")") {
			return args, nil
		}
		if !ts.punct(",") {
			return nil, ts.errorf("expected , or ) in argument list")
		}
	}
}

var reserved = map[string]bool{
	"module": true, "end": true, "struct": true, "mutable": true,
	"import": true, "using": true, "export": true, "const": true,
	"true": true, "false": true, "nothing": true,
}

func isKeyword(t token, word string) bool {
	return t.kind == tokIdent && t.text == word
}
