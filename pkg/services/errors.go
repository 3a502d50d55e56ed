package services

import (
	"errors"
	"fmt"
)

var (
	ErrAccessDenied    = errors.New("access denied: path outside content directory")
	ErrUnsupportedType = errors.New("only markdown files are supported")
	ErrNotFound        = errors.New("file not found")
	ErrIO              = errors.New("i/o error")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrSyncFailed      = errors.New("git sync failed")
)

// PathError records a failed operation on a caller supplied path.
// It matches its Kind with errors.Is and unwraps to the underlying cause.
type PathError struct {
	Op   string
	Path string
	Kind error
	Err  error
}

func (e *PathError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Kind)
	}
	return fmt.Sprintf("%s %q: %v: %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *PathError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func pathErr(op, path string, kind, err error) error {
	return &PathError{Op: op, Path: path, Kind: kind, Err: err}
}
