// Package apperr provides the structured error type shared by the tree,
// layout, and HTTP layers.
//
// Every error that reaches a caller carries a stable Kind so clients can
// branch on it without parsing messages:
//
//	VALIDATION       bad input (empty name, malformed id)
//	NOT_FOUND        category absent or owned by another user
//	LIMIT_EXCEEDED   category cap reached on create
//	CYCLE_DETECTED   a parent chain does not terminate
//	PARTIAL_FAILURE  a cascade delete stopped midway; retry is safe
//	INTERNAL         anything else, usually a storage failure
//
// Usage:
//
//	err := apperr.New(apperr.NotFound, "load tree", "category %s not found", id)
//	if apperr.Is(err, apperr.NotFound) {
//	    // ...
//	}
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a machine-readable error category.
type Kind string

const (
	Validation     Kind = "VALIDATION"
	NotFound       Kind = "NOT_FOUND"
	LimitExceeded  Kind = "LIMIT_EXCEEDED"
	CycleDetected  Kind = "CYCLE_DETECTED"
	PartialFailure Kind = "PARTIAL_FAILURE"
	Internal       Kind = "INTERNAL"
)

// Error is a structured error with a kind, the operation that failed,
// and an optional cause.
type Error struct {
	Kind    Kind   // Machine-readable category
	Op      string // Operation name, e.g. "delete subtree"
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error with the given kind and formatted message.
func New(kind Kind, op, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates an Error around an existing error.
func Wrap(kind Kind, cause error, op, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// NotFoundID reports a missing or foreign-owned resource. The message
// never distinguishes the two.
func NotFoundID(op string, id any) *Error {
	return New(NotFound, op, "%v not found", id)
}

// Is reports whether any *Error in err's chain has the given kind. A
// PARTIAL_FAILURE wrapping a CYCLE_DETECTED matches both.
func Is(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}

// KindOf returns the kind of the outermost *Error in err's chain, or
// Internal when err carries no kind. Returns "" for a nil error.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Message returns the user-facing message for err. Internal errors are
// masked so storage details never leak to clients.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != Internal {
		return e.Message
	}
	return "internal error"
}

// HTTPStatus maps a kind to the response status used by the API.
func HTTPStatus(kind Kind) int {
	switch kind {
	case Validation:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case LimitExceeded:
		return http.StatusUnprocessableEntity
	case CycleDetected:
		return http.StatusConflict
	case PartialFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
