// Package errors provides application-level error types and utilities.
// It separates client-side validation failures, transport failures and
// failures reported by the ticket server.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation_error"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeNetwork    ErrorType = "network_error"
	ErrorTypeServer     ErrorType = "server_error"
)

// AppError represents an application error with additional context
type AppError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Details string    `json:"details,omitempty"`

	cause error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithCause attaches the underlying error so errors.Is and errors.As see it.
func (e *AppError) WithCause(cause error) *AppError {
	e.cause = cause
	return e
}

func firstDetail(details []string) string {
	if len(details) > 0 {
		return details[0]
	}
	return ""
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details ...string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
		Code:    http.StatusBadRequest,
		Details: firstDetail(details),
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, details ...string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
		Code:    http.StatusNotFound,
		Details: firstDetail(details),
	}
}

// NewNetworkError creates an error for a request that never got a response.
func NewNetworkError(message string, cause error) *AppError {
	detail := ""
	if cause != nil {
		detail = cause.Error()
	}
	return &AppError{
		Type:    ErrorTypeNetwork,
		Message: message,
		Code:    0,
		Details: detail,
		cause:   cause,
	}
}

// NewServerError creates an error for a non-2xx response. Code carries the
// HTTP status returned by the server.
func NewServerError(status int, message string, details ...string) *AppError {
	return &AppError{
		Type:    ErrorTypeServer,
		Message: message,
		Code:    status,
		Details: firstDetail(details),
	}
}

// GetAppError extracts AppError from error
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsNotFoundError checks if the error is a not found error, either raised
// locally or reported by the server with a 404.
func IsNotFoundError(err error) bool {
	appErr := GetAppError(err)
	if appErr == nil {
		return false
	}
	return appErr.Type == ErrorTypeNotFound ||
		(appErr.Type == ErrorTypeServer && appErr.Code == http.StatusNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == ErrorTypeValidation
}

// IsNetworkError checks if the request failed before a response arrived
func IsNetworkError(err error) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == ErrorTypeNetwork
}

// IsServerError checks if the server answered with a non-2xx status
func IsServerError(err error) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == ErrorTypeServer
}
