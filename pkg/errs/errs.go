// Package errs attaches an operation name and an error kind to errors.
//
// Kinds are plain sentinel errors owned by the package that defines them
// (model.ErrNotFound, api.ErrBadRequest, ...). An *Error unwraps to both its
// kind and its cause, so callers can match either with errors.Is.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Error is an operation-scoped error carrying a kind and an optional cause.
type Error struct {
	Op   string
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	parts := make([]string, 0, 4)
	if e.Op != "" {
		parts = append(parts, e.Op)
	}
	if e.Kind != nil {
		parts = append(parts, e.Kind.Error())
	}
	if e.Msg != "" {
		parts = append(parts, e.Msg)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of the given kind without a cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// Newf returns an error of the given kind with a formatted message.
func Newf(op string, kind error, format string, args ...any) error {
	return &Error{Op: op, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WrapKind tags err with kind. A nil err yields a nil error.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// Wrap annotates err with op, keeping whatever kind it already carries.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// KindOf returns the first kind in candidates that err matches, or nil.
func KindOf(err error, candidates ...error) error {
	for _, k := range candidates {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
