package host

import (
	"context"
	"fmt"
	"strings"
)

// builtinTypes are the field types understood without a struct definition
var builtinTypes = map[string]bool{
	"Any":     true,
	"Int":     true,
	"Float64": true,
	"String":  true,
	"Bool":    true,
	"Nothing": true,
}

// execBlock runs statements in ns; owner is nil for Main. Caller holds ip.mu.
func (ip *Interpreter) execBlock(ctx context.Context, ns *Namespace, owner *Unit, stmts []Stmt) (Value, error) {
	var last Value = Nothing{}
	for _, s := range stmts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := ip.execStmt(ctx, ns, owner, s)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", s.Line(), err)
		}
		last = v
	}
	return last, nil
}

func (ip *Interpreter) execStmt(ctx context.Context, ns *Namespace, owner *Unit, s Stmt) (Value, error) {
	switch st := s.(type) {
	case *ModuleStmt:
		if owner != nil {
			return nil, fmt.Errorf("nested unit %s is not supported", st.Name)
		}
		u, err := ip.defineUnit(ctx, st)
		if err != nil {
			return nil, err
		}
		return &UnitValue{Unit: u}, nil

	case *ImportStmt:
		v, err := ip.resolvePath(ns, st.Path)
		if err != nil {
			return nil, fmt.Errorf("import %s: %w", strings.Join(st.Path, "."), err)
		}
		if err := ns.Assign(st.Path[len(st.Path)-1], v); err != nil {
			return nil, err
		}
		return Nothing{}, nil

	case *UsingStmt:
		v, err := ip.resolvePath(ns, st.Path)
		if err != nil {
			return nil, fmt.Errorf("using %s: %w", strings.Join(st.Path, "."), err)
		}
		uv, ok := v.(*UnitValue)
		if !ok {
			return nil, fmt.Errorf("using %s: not a unit", strings.Join(st.Path, "."))
		}
		for _, name := range uv.Unit.Exports() {
			if _, taken := ns.Get(name); taken {
				continue
			}
			if val, ok := uv.Unit.NS.Get(name); ok {
				ns.set(name, val, false)
			}
		}
		return Nothing{}, nil

	case *ExportStmt:
		if owner != nil {
			for _, name := range st.Names {
				owner.exports[name] = struct{}{}
			}
		}
		return Nothing{}, nil

	case *StructStmt:
		t, err := ip.defineStruct(ns, st)
		if err != nil {
			return nil, err
		}
		return t, nil

	case *AssignStmt:
		v, err := ip.evalExpr(ctx, ns, st.Value)
		if err != nil {
			return nil, err
		}
		if st.Const {
			err = ns.DefineConst(st.Name, v, func(old Value) bool { return old == v })
		} else {
			err = ns.Assign(st.Name, v)
		}
		if err != nil {
			return nil, err
		}
		return v, nil

	case *ExprStmt:
		return ip.evalExpr(ctx, ns, st.X)
	}

	return nil, fmt.Errorf("unsupported statement %T", s)
}

func (ip *Interpreter) defineStruct(ns *Namespace, st *StructStmt) (*TypeValue, error) {
	t := &TypeValue{
		Name:    st.Name,
		Unit:    ns.Name,
		Mutable: st.Mutable,
		Fields:  make([]string, 0, len(st.Fields)),
		Types:   make([]FieldType, 0, len(st.Fields)),
	}

	for _, f := range st.Fields {
		ft := FieldType{Name: f.Type}
		switch {
		case f.Type == "":
			ft.Name = "Any"
		case builtinTypes[f.Type]:
		case f.Type == st.Name:
			ft.Struct = t
		default:
			v, ok := ip.resolveName(ns, f.Type)
			if !ok {
				return nil, fmt.Errorf("UndefVarError: %s not defined", f.Type)
			}
			ref, ok := v.(*TypeValue)
			if !ok {
				return nil, fmt.Errorf("field %s: %s is not a type", f.Name, f.Type)
			}
			ft.Struct = ref
		}
		t.Fields = append(t.Fields, f.Name)
		t.Types = append(t.Types, ft)
	}

	var existing *TypeValue
	err := ns.DefineConst(st.Name, t, func(old Value) bool {
		prev, ok := old.(*TypeValue)
		if ok && prev.sameShape(t) {
			existing = prev
			return true
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	t.Generation = ip.nextTypeGeneration()
	return t, nil
}

func (ip *Interpreter) evalExpr(ctx context.Context, ns *Namespace, x Expr) (Value, error) {
	switch e := x.(type) {
	case Literal:
		return e.Value, nil

	case Ref:
		return ip.resolvePath(ns, e.Path)

	case Call:
		callee, err := ip.resolvePath(ns, e.Callee.Path)
		if err != nil {
			return nil, err
		}
		args := make([]Value, 0, len(e.Args))
		for _, a := range e.Args {
			v, err := ip.evalExpr(ctx, ns, a)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		}
		switch fn := callee.(type) {
		case *TypeValue:
			return construct(fn, args)
		case *Builtin:
			return fn.Fn(ctx, args)
		}
		return nil, fmt.Errorf("objects of type %s are not callable", typeName(callee))
	}

	return nil, fmt.Errorf("unsupported expression %T", x)
}

// resolveName looks a bare name up in ns, then among loaded units
func (ip *Interpreter) resolveName(ns *Namespace, name string) (Value, bool) {
	if v, ok := ns.Get(name); ok {
		return v, true
	}
	if u, ok := ip.units[name]; ok {
		return &UnitValue{Unit: u}, true
	}
	return nil, false
}

func (ip *Interpreter) resolvePath(ns *Namespace, path []string) (Value, error) {
	v, ok := ip.resolveName(ns, path[0])
	if !ok {
		return nil, fmt.Errorf("UndefVarError: %s not defined", path[0])
	}

	for i, seg := range path[1:] {
		switch cur := v.(type) {
		case *UnitValue:
			next, ok := cur.Unit.NS.Get(seg)
			if !ok {
				return nil, fmt.Errorf("UndefVarError: %s not defined", strings.Join(path[:i+2], "."))
			}
			v = next
		case *Instance:
			next, ok := cur.Field(seg)
			if !ok {
				return nil, fmt.Errorf("type %s has no field %s", cur.Type.Name, seg)
			}
			v = next
		default:
			return nil, fmt.Errorf("cannot access %s on %s", seg, typeName(v))
		}
	}
	return v, nil
}

func construct(t *TypeValue, args []Value) (Value, error) {
	if len(args) != len(t.Fields) {
		return nil, fmt.Errorf("%s expects %d arguments, got %d", t.Name, len(t.Fields), len(args))
	}

	values := make([]Value, len(args))
	for i, arg := range args {
		v, err := convertField(t.Types[i], arg)
		if err != nil {
			return nil, fmt.Errorf("TypeError in %s.%s: %w", t.Name, t.Fields[i], err)
		}
		values[i] = v
	}
	return &Instance{Type: t, Values: values}, nil
}

func convertField(ft FieldType, v Value) (Value, error) {
	if ft.Struct != nil {
		inst, ok := v.(*Instance)
		if !ok || inst.Type != ft.Struct {
			return nil, fmt.Errorf("expected %s (generation %d), got %s", ft.Struct.String(), ft.Struct.Generation, typeName(v))
		}
		return v, nil
	}

	switch ft.Name {
	case "Any":
		return v, nil
	case "Float64":
		if n, ok := v.(Int); ok {
			return Float(n), nil
		}
	}
	if string(v.Kind()) != ft.Name {
		return nil, fmt.Errorf("expected %s, got %s", ft.Name, typeName(v))
	}
	return v, nil
}
