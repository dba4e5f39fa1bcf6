package host

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/dshills/redefine-mcp/internal/reloader"
	"github.com/dshills/redefine-mcp/pkg/types"
)

// EvalBuiltinName is the builtin every unit receives from the loader.
// ListExports reports it as exported.
const EvalBuiltinName = types.DefaultBlacklistName

// Interpreter errors
var (
	ErrForeignHandle = errors.New("unit handle was not produced by this interpreter")
	ErrUnitNotFound  = errors.New("unit not found")
)

// Unit is a loaded, isolated namespace
type Unit struct {
	Name       string
	Generation int
	NS         *Namespace
	exports    map[string]struct{}
}

// UnitName implements reloader.UnitHandle
func (u *Unit) UnitName() string { return u.Name }

// UnitGeneration counts how many times the unit has been defined
func (u *Unit) UnitGeneration() int { return u.Generation }

// Exports returns the names the unit declared with export, sorted
func (u *Unit) Exports() []string {
	names := make([]string, 0, len(u.exports))
	for name := range u.exports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Interpreter evaluates unit-language source against a shared Main namespace
// and a registry of loaded units. All methods are safe for concurrent use.
type Interpreter struct {
	mu      sync.Mutex
	main    *Namespace
	units   map[string]*Unit
	typeGen uint64
	logger  *log.Logger
}

// Option configures an Interpreter
type Option func(*Interpreter)

// WithLogger sets the logger used for warnings
func WithLogger(l *log.Logger) Option {
	return func(ip *Interpreter) {
		if l != nil {
			ip.logger = l
		}
	}
}

// New creates an Interpreter with an empty Main namespace
func New(opts ...Option) *Interpreter {
	ip := &Interpreter{
		main:   NewNamespace(MainName),
		units:  make(map[string]*Unit),
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(ip)
	}
	return ip
}

var (
	_ reloader.Loader    = (*Interpreter)(nil)
	_ reloader.Executor  = (*Interpreter)(nil)
	_ reloader.Publisher = (*Interpreter)(nil)
)

// LoadUnit loads source declaring exactly one unit called name. The unit is
// evaluated in a fresh namespace and replaces any unit of the same name only
// once evaluation succeeds.
func (ip *Interpreter) LoadUnit(ctx context.Context, source, name string) (reloader.UnitHandle, error) {
	block, err := Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", name, err)
	}

	var decl *ModuleStmt
	for _, s := range block.Stmts {
		m, ok := s.(*ModuleStmt)
		if !ok {
			return nil, fmt.Errorf("line %d: unexpected statement outside unit %s", s.Line(), name)
		}
		if decl != nil {
			return nil, fmt.Errorf("line %d: source declares more than one unit", m.Line())
		}
		decl = m
	}
	if decl == nil {
		return nil, fmt.Errorf("source does not declare unit %s", name)
	}
	if decl.Name != name {
		return nil, fmt.Errorf("source declares unit %s, expected %s", decl.Name, name)
	}

	ip.mu.Lock()
	defer ip.mu.Unlock()
	return ip.defineUnit(ctx, decl)
}

// ListExports returns the exported names of a unit loaded by this interpreter
func (ip *Interpreter) ListExports(ctx context.Context, h reloader.UnitHandle) ([]string, error) {
	u, ok := h.(*Unit)
	if !ok {
		return nil, ErrForeignHandle
	}

	ip.mu.Lock()
	defer ip.mu.Unlock()

	names := u.Exports()
	if _, declared := u.exports[EvalBuiltinName]; !declared {
		names = append(names, EvalBuiltinName)
		sort.Strings(names)
	}
	return names, nil
}

// Exec runs top-level source in Main, statement by statement. Effects of the
// statements before a failing one are kept.
func (ip *Interpreter) Exec(ctx context.Context, source string) error {
	_, err := ip.Eval(ctx, source)
	return err
}

// Eval runs top-level source in Main and returns the value of the last statement
func (ip *Interpreter) Eval(ctx context.Context, source string) (Value, error) {
	block, err := Parse(source)
	if err != nil {
		return nil, err
	}

	ip.mu.Lock()
	defer ip.mu.Unlock()
	return ip.execBlock(ctx, ip.main, nil, block.Stmts)
}

// Publish binds every manifest entry into Main, or none of them. All sources
// are resolved and all targets checked before the first binding changes.
func (ip *Interpreter) Publish(ctx context.Context, manifest types.Manifest) error {
	ip.mu.Lock()
	defer ip.mu.Unlock()

	values := make([]Value, len(manifest))
	for i, entry := range manifest {
		if err := ctx.Err(); err != nil {
			return err
		}
		u, ok := ip.units[entry.Unit]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnitNotFound, entry.Unit)
		}
		v, ok := u.NS.Get(entry.LocalName)
		if !ok {
			return fmt.Errorf("UndefVarError: %s not defined", entry.QualifiedSource())
		}
		if b, ok := ip.main.Binding(entry.LocalName); ok && b.Const {
			return fmt.Errorf("cannot assign a value to constant %s", entry.LocalName)
		}
		values[i] = v
	}

	for i, entry := range manifest {
		ip.main.set(entry.LocalName, values[i], false)
	}
	return nil
}

// Lookup resolves a name in Main
func (ip *Interpreter) Lookup(name string) (Value, bool) {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	return ip.resolveName(ip.main, name)
}

// Unit returns a loaded unit by name
func (ip *Interpreter) Unit(name string) (*Unit, bool) {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	u, ok := ip.units[name]
	return u, ok
}

// Units returns the names of all loaded units sorted
func (ip *Interpreter) Units() []string {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	names := make([]string, 0, len(ip.units))
	for name := range ip.units {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MainNames returns the names bound in Main sorted
func (ip *Interpreter) MainNames() []string {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	return ip.main.Names()
}

// defineUnit evaluates a unit declaration and installs it. Caller holds ip.mu.
func (ip *Interpreter) defineUnit(ctx context.Context, decl *ModuleStmt) (*Unit, error) {
	if b, ok := ip.main.Binding(decl.Name); ok {
		if _, isUnit := b.Value.(*UnitValue); !isUnit && b.Const {
			return nil, fmt.Errorf("invalid redefinition of constant %s", decl.Name)
		}
	}

	u := &Unit{
		Name:    decl.Name,
		NS:      NewNamespace(decl.Name),
		exports: make(map[string]struct{}),
	}
	u.NS.set(EvalBuiltinName, ip.evalBuiltin(u), true)

	if _, err := ip.execBlock(ctx, u.NS, u, decl.Body); err != nil {
		return nil, fmt.Errorf("error in unit %s: %w", decl.Name, err)
	}

	if prev, ok := ip.units[decl.Name]; ok {
		u.Generation = prev.Generation + 1
		ip.logger.Printf("WARNING: replacing unit %s", decl.Name)
	} else {
		u.Generation = 1
	}
	ip.units[decl.Name] = u
	ip.main.set(decl.Name, &UnitValue{Unit: u}, false)
	return u, nil
}

// evalBuiltin returns the eval function bound into every unit
func (ip *Interpreter) evalBuiltin(u *Unit) *Builtin {
	return &Builtin{
		Name: EvalBuiltinName,
		Fn: func(ctx context.Context, args []Value) (Value, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("eval expects 1 argument, got %d", len(args))
			}
			code, ok := args[0].(String)
			if !ok {
				return nil, fmt.Errorf("eval expects a String, got %s", typeName(args[0]))
			}
			block, err := Parse(string(code))
			if err != nil {
				return nil, err
			}
			return ip.execBlock(ctx, u.NS, u, block.Stmts)
		},
	}
}

func (ip *Interpreter) nextTypeGeneration() uint64 {
	ip.typeGen++
	return ip.typeGen
}
