// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

/*
Package apperr defines the centralized error handling framework for Dripside.

It provides a rich error type that bridges the gap between low-level domain and
storage errors and high-level HTTP responses.

Architecture:

  - AppError: A struct containing a machine-readable code and a client-safe message.
  - Mapping: Every constructor fixes the HTTP status code of its error class.

Every error that leaves the service layer should be an [AppError] (or wrap one)
so that API responses stay consistent.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the canonical error type for the Dripside API.
//
// It carries an HTTP status code, a machine-readable code, a client-safe
// message, and an optional slice of field-level validation errors.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients.
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "NOT_FOUND", "OTP_EXPIRED").
	Code string `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"message"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR responses.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause returns a copy of e that records cause for logging.
func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

// # Client Errors (4xx)

// InvalidRequest creates a 400 [AppError] for missing or malformed input.
func InvalidRequest(msg string) *AppError {
	return &AppError{
		Code:       "INVALID_REQUEST",
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
	}
}

// ValidationError creates a 400 [AppError] with optional per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// SamePassword creates a 400 [AppError] raised when a new password equals the current one.
func SamePassword(msg string) *AppError {
	return &AppError{
		Code:       "SAME_PASSWORD",
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("User") // Returns "User not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// Unauthorized creates a 401 [AppError].
func Unauthorized(msg string) *AppError {
	return &AppError{
		Code:       "UNAUTHENTICATED",
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// InvalidCredentials creates a 401 [AppError] for a failed identifier or password check.
func InvalidCredentials(msg string) *AppError {
	return &AppError{
		Code:       "INVALID_CREDENTIALS",
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// ConflictingCredentials creates a 401 [AppError] raised when a refresh is
// attempted while an access session is still held.
func ConflictingCredentials(msg string) *AppError {
	return &AppError{
		Code:       "CONFLICTING_CREDENTIALS",
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// AccountBlocked creates a 401 [AppError] for principals in the Blocked state.
func AccountBlocked(msg string) *AppError {
	return &AppError{
		Code:       "ACCOUNT_BLOCKED",
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// OtpExpired creates a 401 [AppError]. A fresh code has already been issued.
func OtpExpired(msg string) *AppError {
	return &AppError{
		Code:       "OTP_EXPIRED",
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// OtpLockedOut creates a 401 [AppError] for principals over the failed-attempt threshold.
func OtpLockedOut(msg string) *AppError {
	return &AppError{
		Code:       "OTP_LOCKED_OUT",
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// PermissionDenied creates a 401 [AppError] for flows gated by a one-time grant
// (e.g. password reset without a pending forgot-password request).
func PermissionDenied(msg string) *AppError {
	return &AppError{
		Code:       "PERMISSION_DENIED",
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Forbidden creates a 403 [AppError].
func Forbidden(msg string) *AppError {
	return &AppError{
		Code:       "FORBIDDEN",
		Message:    msg,
		HTTPStatus: http.StatusForbidden,
	}
}

// Conflict creates a 409 [AppError] for duplicate or unique-constraint violations.
func Conflict(msg string) *AppError {
	return &AppError{
		Code:       "CONFLICT",
		Message:    msg,
		HTTPStatus: http.StatusConflict,
	}
}

// RateLimited creates a 429 [AppError].
func RateLimited(retryAfterSeconds int) *AppError {
	return &AppError{
		Code:       "RATE_LIMITED",
		Message:    fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds),
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// # Server Errors (5xx)

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never sent to the client.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// ServiceUnavailable creates a 503 [AppError] for disabled integrations.
func ServiceUnavailable(msg string) *AppError {
	return &AppError{
		Code:       "SERVICE_UNAVAILABLE",
		Message:    msg,
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// # Helpers

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// HasCode reports whether err carries an [*AppError] with the given code.
func HasCode(err error, code string) bool {
	ae := As(err)
	return ae != nil && ae.Code == code
}
