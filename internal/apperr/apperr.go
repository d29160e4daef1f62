// Package apperr defines the error taxonomy shared by the services and the
// HTTP layer. Each error carries a sentinel kind so callers can branch with
// errors.Is without inspecting messages.
package apperr

import (
	"errors"
	"net/http"
)

// Error kinds.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
	ErrCapacity   = errors.New("capacity exceeded")
	ErrNoOp       = errors.New("no change")
	ErrInternal   = errors.New("internal error")
)

// Error is a user-facing failure. Message is safe to return to clients; Err,
// when set, is the underlying cause and is only surfaced for internal errors.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func Validation(msg string) *Error { return &Error{Kind: ErrValidation, Message: msg} }
func NotFound(msg string) *Error   { return &Error{Kind: ErrNotFound, Message: msg} }
func Forbidden(msg string) *Error  { return &Error{Kind: ErrForbidden, Message: msg} }
func Conflict(msg string) *Error   { return &Error{Kind: ErrConflict, Message: msg} }
func Capacity(msg string) *Error   { return &Error{Kind: ErrCapacity, Message: msg} }
func NoOp(msg string) *Error       { return &Error{Kind: ErrNoOp, Message: msg} }

// Internal wraps an unexpected failure.
func Internal(msg string, err error) *Error {
	return &Error{Kind: ErrInternal, Message: msg, Err: err}
}

// From returns the *Error in err's chain, or nil.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// HTTPStatus maps an error to its response status. Errors outside the
// taxonomy are 500.
func HTTPStatus(err error) int {
	e := From(err)
	if e == nil {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case ErrValidation, ErrConflict, ErrCapacity, ErrNoOp:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

var kindCodes = map[error]string{
	ErrValidation: "validation",
	ErrNotFound:   "not_found",
	ErrForbidden:  "forbidden",
	ErrConflict:   "conflict",
	ErrCapacity:   "capacity",
	ErrNoOp:       "no_op",
}

// Code returns a short label for err's kind. Errors outside the taxonomy
// are "internal".
func Code(err error) string {
	if e := From(err); e != nil {
		if c, ok := kindCodes[e.Kind]; ok {
			return c
		}
	}
	return "internal"
}
