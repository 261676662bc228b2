package apperr

import (
	"errors"
	"net/http"
)

// Error is a status-coded failure surfaced to API callers. Services return
// these; handlers translate them to HTTP responses without inspecting the
// failure further.
type Error struct {
	Status  int
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// WithCause attaches the underlying error for logging while keeping the
// caller-visible status and message unchanged.
func (e *Error) WithCause(err error) *Error {
	clone := *e
	clone.cause = err
	return &clone
}

func New(status int, code string, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, "bad_request", message)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, "unauthorized", message)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, "forbidden", message)
}

func Conflict(message string) *Error {
	return New(http.StatusConflict, "conflict", message)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, "not_found", message)
}

// RoleNotRegistered tells the caller to register the role first, a distinct
// status from a plain 401 so clients can disambiguate "wrong password" from
// "no such role yet".
func RoleNotRegistered(message string) *Error {
	return New(http.StatusTooEarly, "role_not_registered", message)
}

// RoleInactive marks a registered but suspended role.
func RoleInactive(message string) *Error {
	return New(http.StatusLocked, "role_inactive", message)
}

func TooManyAttempts(message string) *Error {
	return New(http.StatusTooManyRequests, "too_many_attempts", message)
}

func Internal(message string) *Error {
	return New(http.StatusInternalServerError, "internal", message)
}

// StatusOf resolves the HTTP status for any error, falling back to 500 for
// errors outside the taxonomy.
func StatusOf(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// CodeOf resolves the machine-readable code for any error.
func CodeOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "internal"
}
