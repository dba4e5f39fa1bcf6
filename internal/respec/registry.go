package respec

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dshills/redefine-mcp/pkg/types"
)

// Registry validation errors
var (
	ErrEmptyFormName = errors.New("form name is required")
	ErrNilFormFunc   = errors.New("form parser and formatter are required")
)

// ParseFunc turns the raw tokens that follow a form name into form tokens
type ParseFunc func(raw []string) ([]string, error)

// FormatFunc rebuilds the statement text from form tokens
type FormatFunc func(tokens []string) (string, error)

// HandlerFunc is a single-step reconstruction function over raw tokens
type HandlerFunc func(tokens ...string) (string, error)

// Form is one registry entry: a tokenizer and a formatter for a special form
type Form struct {
	Name   string
	Parse  ParseFunc
	Format FormatFunc
}

// Reconstruct parses raw tokens and formats the result
func (f Form) Reconstruct(raw []string) (string, error) {
	tokens, err := f.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s form: %w", f.Name, err)
	}
	return f.Format(tokens)
}

// Registry maps special-form names to their reconstruction forms.
// It is safe for concurrent use; mutations bump Version.
type Registry struct {
	mu      sync.RWMutex
	forms   map[string]Form
	version atomic.Uint64
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{forms: make(map[string]Form)}
}

// DefaultRegistry creates a registry holding the built-in forms:
// import, export and toplevel.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.mustRegister(importForm())
	r.mustRegister(exportForm())
	r.mustRegister(toplevelForm(r))
	return r
}

// Register adds or replaces a form
func (r *Registry) Register(f Form) error {
	if strings.TrimSpace(f.Name) == "" {
		return ErrEmptyFormName
	}
	if f.Parse == nil || f.Format == nil {
		return fmt.Errorf("%w: %s", ErrNilFormFunc, f.Name)
	}

	r.mu.Lock()
	r.forms[f.Name] = f
	r.mu.Unlock()
	r.version.Add(1)
	return nil
}

// RegisterFunc adds a form backed by a single handler function. The handler
// receives the raw tokens untouched.
func (r *Registry) RegisterFunc(name string, h HandlerFunc) error {
	if h == nil {
		return fmt.Errorf("%w: %s", ErrNilFormFunc, name)
	}
	return r.Register(Form{
		Name:   name,
		Parse:  passTokens,
		Format: func(tokens []string) (string, error) { return h(tokens...) },
	})
}

// RegisterJoin adds a form rebuilt as keyword + " " + the clean tokens joined by sep
func (r *Registry) RegisterJoin(name, keyword, sep string) error {
	return r.Register(joinForm(name, keyword, sep))
}

// Lookup returns the form registered under name
func (r *Registry) Lookup(name string) (Form, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.forms[name]
	return f, ok
}

// Names returns the registered form names sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.forms))
	for name := range r.forms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered forms
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.forms)
}

// Version increases on every mutation; caches key their validity on it
func (r *Registry) Version() uint64 {
	return r.version.Load()
}

// Clone returns an independent copy. The built-in toplevel form is rebound
// to the copy so recursive dispatch never reaches back into r.
func (r *Registry) Clone() *Registry {
	c := NewRegistry()
	r.mu.RLock()
	for name, f := range r.forms {
		c.forms[name] = f
	}
	_, hasToplevel := r.forms[FormToplevel]
	r.mu.RUnlock()

	if hasToplevel {
		c.forms[FormToplevel] = toplevelForm(c)
	}
	return c
}

// Reconstruct dispatches entry to its form
func (r *Registry) Reconstruct(entry types.SpecialFormEntry) (string, error) {
	f, ok := r.Lookup(entry.FormName)
	if !ok {
		return "", &types.UnknownFormError{FormName: entry.FormName}
	}
	return f.Reconstruct(entry.RawTokens)
}

func (r *Registry) mustRegister(f Form) {
	if err := r.Register(f); err != nil {
		panic(err)
	}
}

func passTokens(raw []string) ([]string, error) {
	return raw, nil
}
