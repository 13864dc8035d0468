// Package apierror defines the error taxonomy shared by the router,
// middleware, and handlers.
//
// Every failure surfaced to a client is reduced to a single Error value
// carrying an HTTP status, a machine-readable code, and a human-readable
// message, so the response envelope never needs to branch on error kind.
package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
)

// Machine-readable error codes. Clients dispatch on these, never on messages.
const (
	CodeValidationFailed  = "VALIDATION_FAILED"
	CodeTokenMissing      = "AUTH_TOKEN_MISSING"
	CodeTokenInvalid      = "AUTH_TOKEN_INVALID"
	CodeUserRequired      = "AUTH_USER_REQUIRED"
	CodeInsufficientRole  = "AUTH_INSUFFICIENT_ROLE"
	CodeAuthorization     = "AUTHORIZATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	CodeInternal          = "INTERNAL_ERROR"
	CodeUnknown           = "UNKNOWN_ERROR"
)

// statusByCode maps every known code to its HTTP status.
var statusByCode = map[string]int{
	CodeValidationFailed:  http.StatusBadRequest,
	CodeTokenMissing:      http.StatusUnauthorized,
	CodeTokenInvalid:      http.StatusUnauthorized,
	CodeUserRequired:      http.StatusUnauthorized,
	CodeInsufficientRole:  http.StatusForbidden,
	CodeAuthorization:     http.StatusForbidden,
	CodeNotFound:          http.StatusNotFound,
	CodeConflict:          http.StatusConflict,
	CodeRateLimitExceeded: http.StatusTooManyRequests,
	CodeInternal:          http.StatusInternalServerError,
	CodeUnknown:           http.StatusInternalServerError,
}

// Error is the single error shape used across the API.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// WithDetails returns a copy of e carrying the given details object.
func (e *Error) WithDetails(details any) *Error {
	c := *e
	c.Details = details
	return &c
}

// New builds an Error for a known code. Unknown codes get status 500.
func New(code, message string) *Error {
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &Error{Status: status, Code: code, Message: message}
}

// ValidationFailed returns a 400 error carrying the aggregated violations.
func ValidationFailed(violations any) *Error {
	return New(CodeValidationFailed, "Request validation failed").WithDetails(violations)
}

// TokenMissing returns a 401 error for requests lacking a bearer token.
func TokenMissing() *Error {
	return New(CodeTokenMissing, "Authentication token is required")
}

// TokenInvalid returns a 401 error for malformed, expired, or otherwise
// unusable tokens.
func TokenInvalid(msg string) *Error {
	return New(CodeTokenInvalid, msg)
}

// UserRequired returns a 401 error for routes that need an authenticated
// principal when none is attached.
func UserRequired() *Error {
	return New(CodeUserRequired, "Authentication required")
}

// InsufficientRole returns a 403 error when the principal's role is not in
// the allowed set.
func InsufficientRole(role string) *Error {
	return New(CodeInsufficientRole, fmt.Sprintf("Role %q is not permitted to access this resource", role))
}

// NotFound returns a 404 error for an unmatched method/path pair.
func NotFound(method, path string) *Error {
	return New(CodeNotFound, fmt.Sprintf("Route %s %s not found", method, path))
}

// Conflict returns a 409 error for resource conflicts.
func Conflict(msg string) *Error {
	return New(CodeConflict, msg)
}

// RateLimited returns a 429 error carrying limit/remaining/reset details.
func RateLimited(details any) *Error {
	return New(CodeRateLimitExceeded, "Rate limit exceeded. Please retry later.").WithDetails(details)
}

// Internal returns a 500 error for unexpected failures.
func Internal(msg string) *Error {
	return New(CodeInternal, msg)
}

// From maps an arbitrary error to an *Error. A value that already is an
// *Error passes through unchanged; everything else becomes a 500
// INTERNAL_ERROR carrying the error's message. When includeStack is true
// (development mode) the current stack is attached to converted errors.
func From(err error, includeStack bool) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return New(CodeValidationFailed, "Request body is not valid JSON")
	}

	e := Internal(err.Error())
	if includeStack {
		e.Stack = string(debug.Stack())
	}
	return e
}

// FromPanic maps a recovered panic value to an *Error. Non-error values
// (strings, ints) are reported as UNKNOWN_ERROR since nothing classified them.
func FromPanic(v any, includeStack bool) *Error {
	if err, ok := v.(error); ok {
		return From(err, includeStack)
	}
	e := New(CodeUnknown, fmt.Sprintf("%v", v))
	if includeStack {
		e.Stack = string(debug.Stack())
	}
	return e
}
