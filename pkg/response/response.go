package response

import (
	"errors"
	"net/http"
)

// Error is a domain error carrying the HTTP status it maps to. Cause, when
// set, is the underlying driver or transport error.
type Error struct {
	Code  int
	Err   error
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Err.Error() + ": " + e.Cause.Error()
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Err.Error() == t.Err.Error()
}

// Message is the client-facing text without the cause.
func (e *Error) Message() string {
	return e.Err.Error()
}

func NewError(code int, err string) error {
	return &Error{Code: code, Err: errors.New(err)}
}

// Wrap attaches cause to a sentinel created by NewError while keeping
// errors.Is(result, sentinel) true.
func Wrap(sentinel error, cause error) error {
	var s *Error
	if !errors.As(sentinel, &s) {
		return &Error{Code: http.StatusInternalServerError, Err: sentinel, Cause: cause}
	}
	return &Error{Code: s.Code, Err: s.Err, Cause: cause}
}
