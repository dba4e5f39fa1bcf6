package host

import (
	"fmt"
	"sort"
)

// MainName is the name of the shared session namespace
const MainName = "Main"

// Binding is a named slot in a namespace
type Binding struct {
	Value Value
	Const bool
}

// Namespace holds the bindings of one unit or of the shared session
type Namespace struct {
	Name     string
	bindings map[string]*Binding
}

// NewNamespace creates an empty namespace
func NewNamespace(name string) *Namespace {
	return &Namespace{Name: name, bindings: make(map[string]*Binding)}
}

// Get returns the value bound to name
func (ns *Namespace) Get(name string) (Value, bool) {
	b, ok := ns.bindings[name]
	if !ok {
		return nil, false
	}
	return b.Value, true
}

// Binding returns the slot bound to name
func (ns *Namespace) Binding(name string) (*Binding, bool) {
	b, ok := ns.bindings[name]
	return b, ok
}

// Names returns the bound names sorted
func (ns *Namespace) Names() []string {
	names := make([]string, 0, len(ns.bindings))
	for name := range ns.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Assign binds name to v unless name is a constant
func (ns *Namespace) Assign(name string, v Value) error {
	if b, ok := ns.bindings[name]; ok && b.Const {
		return fmt.Errorf("cannot assign a value to constant %s", name)
	}
	ns.bindings[name] = &Binding{Value: v}
	return nil
}

// DefineConst binds name to v as a constant. Rebinding an existing constant
// fails unless keep reports the two values as equivalent.
func (ns *Namespace) DefineConst(name string, v Value, keep func(old Value) bool) error {
	if b, ok := ns.bindings[name]; ok {
		if b.Const && keep != nil && keep(b.Value) {
			return nil
		}
		return fmt.Errorf("invalid redefinition of constant %s", name)
	}
	ns.bindings[name] = &Binding{Value: v, Const: true}
	return nil
}

// set binds name without any constant checks
func (ns *Namespace) set(name string, v Value, isConst bool) {
	ns.bindings[name] = &Binding{Value: v, Const: isConst}
}
