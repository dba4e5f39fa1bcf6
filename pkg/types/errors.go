package types

import (
	"errors"
	"fmt"
)

// Pipeline sentinel errors
var (
	ErrUnknownForm      = errors.New("unknown special form")
	ErrMalformedSnippet = errors.New("snippet must contain a header and a footer line")
	ErrInvalidUnitName  = errors.New("invalid unit name")
	ErrReloadInProgress = errors.New("another reload is already running")
	ErrInvalidMode      = errors.New("invalid publish mode")
)

// UnknownFormError reports a corrupted line whose form name has no registry entry
type UnknownFormError struct {
	FormName string
	Line     string
}

func (e *UnknownFormError) Error() string {
	if e.FormName == "" {
		return fmt.Sprintf("%v: empty form name in %q", ErrUnknownForm, e.Line)
	}
	return fmt.Sprintf("%v %q in %q", ErrUnknownForm, e.FormName, e.Line)
}

// Is reports whether target is ErrUnknownForm
func (e *UnknownFormError) Is(target error) bool {
	return target == ErrUnknownForm
}

// LoadError wraps a failure raised by the host while loading or executing a unit
type LoadError struct {
	Unit  string
	Phase Phase
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Phase, e.Unit, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// FileIOError wraps an artifact file operation failure
type FileIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileIOError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileIOError) Unwrap() error {
	return e.Err
}
