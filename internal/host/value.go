package host

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Kind names the runtime type of a Value
type Kind string

const (
	KindInt      Kind = "Int"
	KindFloat    Kind = "Float64"
	KindString   Kind = "String"
	KindBool     Kind = "Bool"
	KindNothing  Kind = "Nothing"
	KindType     Kind = "DataType"
	KindInstance Kind = "Instance"
	KindUnit     Kind = "Module"
	KindBuiltin  Kind = "Function"
)

// Value is a runtime value of the unit language
type Value interface {
	Kind() Kind
	String() string
}

// Int is a 64-bit integer
type Int int64

// Float is a 64-bit float
type Float float64

// String is a text value
type String string

// Bool is a boolean
type Bool bool

// Nothing is the empty value
type Nothing struct{}

func (Int) Kind() Kind     { return KindInt }
func (Float) Kind() Kind   { return KindFloat }
func (String) Kind() Kind  { return KindString }
func (Bool) Kind() Kind    { return KindBool }
func (Nothing) Kind() Kind { return KindNothing }

func (v Int) String() string { return strconv.FormatInt(int64(v), 10) }

func (v Float) String() string {
	s := strconv.FormatFloat(float64(v), 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

func (v String) String() string  { return strconv.Quote(string(v)) }
func (v Bool) String() string    { return strconv.FormatBool(bool(v)) }
func (Nothing) String() string   { return "nothing" }

// FieldType is the resolved declared type of a struct field
type FieldType struct {
	Name   string
	Struct *TypeValue // Set when the field holds instances of a struct
}

// TypeValue is a composite type definition
type TypeValue struct {
	Name       string
	Unit       string // Owning namespace
	Generation uint64 // Distinguishes successive definitions of the same name
	Mutable    bool
	Fields     []string
	Types      []FieldType
}

func (t *TypeValue) Kind() Kind { return KindType }

func (t *TypeValue) String() string {
	if t.Unit == "" || t.Unit == MainName {
		return t.Name
	}
	return t.Unit + "." + t.Name
}

// sameShape reports whether two definitions would be indistinguishable
func (t *TypeValue) sameShape(o *TypeValue) bool {
	if t.Name != o.Name || t.Mutable != o.Mutable || len(t.Fields) != len(o.Fields) {
		return false
	}
	for i := range t.Fields {
		if t.Fields[i] != o.Fields[i] || t.Types[i].Name != o.Types[i].Name {
			return false
		}
		if t.Types[i].Struct != o.Types[i].Struct {
			return false
		}
	}
	return true
}

// Instance is a value of a composite type
type Instance struct {
	Type   *TypeValue
	Values []Value
}

func (v *Instance) Kind() Kind { return KindInstance }

func (v *Instance) String() string {
	parts := make([]string, 0, len(v.Values))
	for _, f := range v.Values {
		parts = append(parts, f.String())
	}
	return v.Type.Name + "(" + strings.Join(parts, ", ") + ")"
}

// Field returns the value of a named field
func (v *Instance) Field(name string) (Value, bool) {
	for i, f := range v.Type.Fields {
		if f == name {
			return v.Values[i], true
		}
	}
	return nil, false
}

// UnitValue is a loaded unit used as a value
type UnitValue struct {
	Unit *Unit
}

func (v *UnitValue) Kind() Kind     { return KindUnit }
func (v *UnitValue) String() string { return v.Unit.Name }

// BuiltinFunc implements a builtin function
type BuiltinFunc func(ctx context.Context, args []Value) (Value, error)

// Builtin is a function provided by the interpreter
type Builtin struct {
	Name string
	Fn   BuiltinFunc
}

func (b *Builtin) Kind() Kind     { return KindBuiltin }
func (b *Builtin) String() string { return b.Name }

// typeName describes a value for error messages
func typeName(v Value) string {
	switch x := v.(type) {
	case *Instance:
		return fmt.Sprintf("%s (generation %d)", x.Type.String(), x.Type.Generation)
	default:
		return string(v.Kind())
	}
}
