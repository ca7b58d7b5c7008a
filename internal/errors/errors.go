// Package errors provides standardized domain errors with codes for the catalog.
//
// Usage:
//
//	// In services - return typed errors
//	if instances > 0 {
//	    return errors.Referenced("book still has copies")
//	}
//
//	// In handlers - check with errors.Is
//	if errors.Is(err, errors.ErrNotFound) {
//	    http.NotFound(w, r)
//	    return
//	}
//
//	// Field level problems travel in Details as FieldErrors
//	if fields := errors.FieldsOf(err); fields != nil {
//	    form.Errors = fields
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound           Code = "NOT_FOUND"
	CodeAlreadyExists      Code = "ALREADY_EXISTS"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeValidation         Code = "VALIDATION"
	CodeOutOfRange         Code = "OUT_OF_RANGE"
	CodeInvalidState       Code = "INVALID_STATE"
	CodeReferenced         Code = "REFERENCED"
	CodeConflict           Code = "CONFLICT"
	CodeInternal           Code = "INTERNAL"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeRateLimited        Code = "RATE_LIMITED"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeConflict, CodeReferenced:
		return http.StatusConflict
	case CodeUnauthorized, CodeInvalidCredentials:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeValidation, CodeOutOfRange, CodeInvalidState:
		return http.StatusUnprocessableEntity
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// FieldErrors maps a form field name to a human readable problem.
// The empty key holds errors that belong to the whole form.
type FieldErrors map[string]string

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error  // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyExists      = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrUnauthorized       = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrForbidden          = &Error{Code: CodeForbidden, Message: "forbidden"}
	ErrValidation         = &Error{Code: CodeValidation, Message: "validation error"}
	ErrOutOfRange         = &Error{Code: CodeOutOfRange, Message: "out of range"}
	ErrInvalidState       = &Error{Code: CodeInvalidState, Message: "invalid state"}
	ErrReferenced         = &Error{Code: CodeReferenced, Message: "still referenced"}
	ErrConflict           = &Error{Code: CodeConflict, Message: "conflict"}
	ErrInternal           = &Error{Code: CodeInternal, Message: "internal error"}
	ErrInvalidCredentials = &Error{Code: CodeInvalidCredentials, Message: "invalid credentials"}
	ErrRateLimited        = &Error{Code: CodeRateLimited, Message: "too many requests"}
)

// Constructor functions for creating errors with custom messages.

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Message: msg}
}

// Forbidden creates a forbidden error.
func Forbidden(msg string) *Error {
	return &Error{Code: CodeForbidden, Message: msg}
}

// Forbiddenf creates a forbidden error with formatted message.
func Forbiddenf(format string, args ...any) *Error {
	return &Error{Code: CodeForbidden, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// FieldInvalid creates a validation error for a single form field.
func FieldInvalid(field, msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: FieldErrors{field: msg}}
}

// OutOfRange creates an out of range error for field. The reason is a short
// machine tag such as "past" and is kept under the "reason" detail.
func OutOfRange(field, reason, msg string) *Error {
	return &Error{
		Code:    CodeOutOfRange,
		Message: msg,
		Details: map[string]string{"field": field, "reason": reason},
	}
}

// InvalidState creates an invalid state error.
func InvalidState(msg string) *Error {
	return &Error{Code: CodeInvalidState, Message: msg}
}

// Referencedf creates a referential integrity error with formatted message.
func Referencedf(format string, args ...any) *Error {
	return &Error{Code: CodeReferenced, Message: fmt.Sprintf(format, args...)}
}

// InvalidCredentials creates an invalid credentials error.
func InvalidCredentials(msg string) *Error {
	return &Error{Code: CodeInvalidCredentials, Message: msg}
}

// RateLimited creates a rate limited error.
func RateLimited(msg string) *Error {
	return &Error{Code: CodeRateLimited, Message: msg}
}

// CodeOf returns the code of the first domain error in err's chain,
// or CodeInternal when there is none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Reason returns the "reason" detail of an out of range error, if any.
func Reason(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	if d, ok := e.Details.(map[string]string); ok {
		return d["reason"]
	}
	return ""
}

// FieldsOf converts a user-facing domain error into per-field messages.
// Returns nil when err is not something a form can display.
func FieldsOf(err error) FieldErrors {
	var e *Error
	if !errors.As(err, &e) {
		return nil
	}

	switch e.Code {
	case CodeValidation:
		if fields, ok := e.Details.(FieldErrors); ok && len(fields) > 0 {
			return fields
		}
		return FieldErrors{"": e.Message}
	case CodeOutOfRange:
		field := ""
		if d, ok := e.Details.(map[string]string); ok {
			field = d["field"]
		}
		return FieldErrors{field: e.Message}
	case CodeInvalidState, CodeReferenced, CodeAlreadyExists:
		return FieldErrors{"": e.Message}
	default:
		return nil
	}
}
