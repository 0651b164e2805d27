// Package errors provides structured error handling with machine-readable codes.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Auth errors
	CodeAuthInvalidToken   Code = "AUTH_INVALID_TOKEN"
	CodeAuthInvalidSession Code = "AUTH_INVALID_SESSION"

	// Request validation errors
	CodeInvalidRequest     Code = "INVALID_REQUEST"
	CodeTodoTitleEmpty     Code = "TODO_TITLE_EMPTY"
	CodeTodoInvalidWeekday Code = "TODO_INVALID_WEEKDAY"
	CodeTodoIDMismatch     Code = "TODO_ID_MISMATCH"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
	CodeConflict Code = "CONFLICT"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - validation failures, rejected credentials
	case CodeAuthInvalidToken,
		CodeInvalidRequest,
		CodeTodoTitleEmpty,
		CodeTodoInvalidWeekday,
		CodeTodoIDMismatch:
		return http.StatusBadRequest

	// Unauthorized - missing or unusable session
	case CodeAuthInvalidSession:
		return http.StatusUnauthorized

	// NotFound - resource doesn't exist
	case CodeNotFound:
		return http.StatusNotFound

	// Conflict - uniqueness violations, lost concurrent updates
	case CodeConflict:
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}
