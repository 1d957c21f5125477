// Package apperror provides structured error handling following RFC 7807 Problem Details.
// Errors crossing a package boundary should be AppError so the HTTP layer can render them.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeTimeout  = "TIMEOUT_ERROR"

	// Remote site errors (Frappe RPC)
	CodeRemote            = "REMOTE_ERROR"
	CodeRemoteUnavailable = "REMOTE_UNAVAILABLE"

	// Validation errors (400)
	CodeValidation    = "VALIDATION_ERROR"
	CodeMissingFilter = "MISSING_REQUIRED_FILTER"
	CodeUnknownField  = "UNKNOWN_FIELD"

	// Authorization errors (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeDuplicate = "DUPLICATE_ENTRY"
)

// AppError is the standard error type of the service.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field names, remote exception type, ...)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewMissingFilters reports required report filters left empty (400).
func NewMissingFilters(report string, fields []string) *AppError {
	return &AppError{
		Code:       CodeMissingFilter,
		Message:    fmt.Sprintf("%s: required filters are missing", report),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"report": report, "fields": fields},
	}
}

// NewUnknownField is returned when a document or row is given a field
// its doctype does not declare (400).
func NewUnknownField(doctype, field string) *AppError {
	return &AppError{
		Code:       CodeUnknownField,
		Message:    fmt.Sprintf("%s has no field %q", doctype, field),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"doctype": doctype, "field": field},
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewDuplicate creates a duplicate entry error (409)
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// NewRemote wraps an error reported by the Frappe site (502).
// status is the HTTP status the site answered with.
func NewRemote(method string, status int, excType, message string) *AppError {
	return &AppError{
		Code:       CodeRemote,
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
		Details: map[string]any{
			"method":        method,
			"remote_status": status,
			"exc_type":      excType,
		},
	}
}

// NewRemoteUnavailable wraps a transport failure talking to the site (503).
func NewRemoteUnavailable(method string, err error) *AppError {
	return &AppError{
		Code:       CodeRemoteUnavailable,
		Message:    "Remote site unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Details:    map[string]any{"method": method},
		Err:        err,
	}
}

// NewTimeout creates a timeout error (504)
func NewTimeout(operation string, err error) *AppError {
	return &AppError{
		Code:       CodeTimeout,
		Message:    fmt.Sprintf("%s timed out", operation),
		HTTPStatus: http.StatusGatewayTimeout,
		Err:        err,
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401)
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403)
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

// IsRemote reports whether err came from the remote site or the transport to it.
func IsRemote(err error) bool {
	return hasCode(err, CodeRemote) || hasCode(err, CodeRemoteUnavailable)
}

func hasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}
