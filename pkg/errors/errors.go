package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType defines different categories of errors
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "VALIDATION"
	ErrorTypeNotFound       ErrorType = "NOT_FOUND"
	ErrorTypeExternalQuery  ErrorType = "EXTERNAL_QUERY"
	ErrorTypeMalformedInput ErrorType = "MALFORMED_INPUT"
	ErrorTypeInternal       ErrorType = "INTERNAL"
)

// AppError is the custom error type for the application
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error type onto a response status.
func (e *AppError) HTTPStatus() int {
	switch e.Type {
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeValidation, ErrorTypeMalformedInput:
		return http.StatusBadRequest
	case ErrorTypeExternalQuery:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Constructor functions for different error types

// NewValidation creates a validation error
func NewValidation(message string) error {
	return &AppError{Type: ErrorTypeValidation, Message: message}
}

// NewNotFound creates a not found error
func NewNotFound(message string) error {
	return &AppError{Type: ErrorTypeNotFound, Message: message}
}

// NewNodeNotFound creates the not found error for an unresolvable node id.
func NewNodeNotFound(nodeID string) error {
	return &AppError{Type: ErrorTypeNotFound, Message: fmt.Sprintf("node %q not found", nodeID)}
}

// NewExternalQuery wraps a failure of the graph executor or schema source.
func NewExternalQuery(message string, err error) error {
	return &AppError{Type: ErrorTypeExternalQuery, Message: message, Err: err}
}

// NewMalformedInput reports a parameter that could not be extracted from user input.
func NewMalformedInput(message string) error {
	return &AppError{Type: ErrorTypeMalformedInput, Message: message}
}

// NewInternal creates an internal error
func NewInternal(message string, err error) error {
	return &AppError{Type: ErrorTypeInternal, Message: message, Err: err}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	// If it's already an AppError, preserve the type
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{
			Type:    appErr.Type,
			Message: fmt.Sprintf("%s: %s", message, appErr.Message),
			Err:     appErr.Err,
		}
	}

	return &AppError{Type: ErrorTypeInternal, Message: message, Err: err}
}

// Type checking functions

func isType(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool { return isType(err, ErrorTypeValidation) }

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool { return isType(err, ErrorTypeNotFound) }

// IsExternalQuery checks if an error came from an external query
func IsExternalQuery(err error) bool { return isType(err, ErrorTypeExternalQuery) }

// IsMalformedInput checks if an error is a malformed input error
func IsMalformedInput(err error) bool { return isType(err, ErrorTypeMalformedInput) }

// IsInternal checks if an error is an internal error
func IsInternal(err error) bool { return isType(err, ErrorTypeInternal) }

// Message returns the user-facing message of err without internal causes.
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal error"
}

// StatusCode returns the HTTP status for err, 500 for foreign errors.
func StatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}
