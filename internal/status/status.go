// Package status defines the typed failure taxonomy shared by the runtime.
//
// Every fallible operation returns a *Error; nothing in the core aborts the
// process. Callers match failure classes with errors.Is against the exported
// sentinels and read the full description from Error().
package status

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindKernelNotFound          // no kernel registered for (device, op)
	KindShapeMismatch           // dims or byte size disagree with the declared role
	KindUnsupportedDType        // operation declares the dtype unsupported
	KindMissingUpstreamGradient // backward invoked before the output gradient exists
	KindNullResource            // required param or resource object absent
	KindInvalidState            // lifecycle misuse (e.g. Forward before Reshape)
)

func (k Kind) String() string {
	switch k {
	case KindKernelNotFound:
		return "kernel not found"
	case KindShapeMismatch:
		return "shape mismatch"
	case KindUnsupportedDType:
		return "unsupported dtype"
	case KindMissingUpstreamGradient:
		return "missing upstream gradient"
	case KindNullResource:
		return "null resource"
	case KindInvalidState:
		return "invalid state"
	default:
		return "unknown error"
	}
}

// Sentinels for errors.Is matching.
var (
	ErrKernelNotFound          = &Error{Kind: KindKernelNotFound}
	ErrShapeMismatch           = &Error{Kind: KindShapeMismatch}
	ErrUnsupportedDType        = &Error{Kind: KindUnsupportedDType}
	ErrMissingUpstreamGradient = &Error{Kind: KindMissingUpstreamGradient}
	ErrNullResource            = &Error{Kind: KindNullResource}
	ErrInvalidState            = &Error{Kind: KindInvalidState}
)

// Error is a typed runtime failure: a kind for programmatic matching plus a
// human-readable description.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Message
}

// Is reports kind equality, so errors.Is(err, ErrShapeMismatch) matches any
// shape-mismatch failure regardless of its description.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Errorf builds a typed failure with a formatted description.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrapf prefixes a failure's description with formatted context, keeping its
// kind so errors.Is matching still sees the original class. Errors from
// outside the taxonomy come back as KindUnknown.
func Wrapf(err error, format string, args ...any) *Error {
	prefix := fmt.Sprintf(format, args...)
	var e *Error
	if errors.As(err, &e) {
		if e.Message == "" {
			return &Error{Kind: e.Kind, Message: prefix}
		}
		return &Error{Kind: e.Kind, Message: prefix + ": " + e.Message}
	}
	return &Error{Kind: KindUnknown, Message: prefix + ": " + err.Error()}
}
