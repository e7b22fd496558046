// Package errors defines the error taxonomy of the validation pipeline
// and the error rendering used by the report server.
package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// DataIntegrityError reports source data that failed consistency or
// structural checks beyond what the pipeline is expected to recover
// from. It carries the number of affected records so callers can log
// meaningful counts. It is never retried.
type DataIntegrityError struct {
	Stage           string // pipeline stage that detected the problem
	Message         string
	AffectedRecords int
	Err             error
}

// Error implements the error interface.
func (e *DataIntegrityError) Error() string {
	msg := fmt.Sprintf("data integrity error in %s: %s", e.Stage, e.Message)
	if e.AffectedRecords > 0 {
		msg = fmt.Sprintf("%s (%d records affected)", msg, e.AffectedRecords)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the wrapped cause, if any.
func (e *DataIntegrityError) Unwrap() error {
	return e.Err
}

// NewDataIntegrity creates a DataIntegrityError for the given stage.
func NewDataIntegrity(stage, message string, affected int) *DataIntegrityError {
	return &DataIntegrityError{Stage: stage, Message: message, AffectedRecords: affected}
}

// ConfigurationError reports invalid parameters handed to the pipeline,
// such as a non-total activity mapping or incompatible validation sets.
// It fails fast, before any aggregation or comparison work starts.
type ConfigurationError struct {
	Parameter string
	Message   string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Parameter == "" {
		return fmt.Sprintf("configuration error: %s", e.Message)
	}
	return fmt.Sprintf("configuration error in %q: %s", e.Parameter, e.Message)
}

// NewConfiguration creates a ConfigurationError for the given parameter.
func NewConfiguration(parameter, message string) *ConfigurationError {
	return &ConfigurationError{Parameter: parameter, Message: message}
}

// NewConfigurationf creates a ConfigurationError with a formatted message.
func NewConfigurationf(parameter, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Parameter: parameter, Message: fmt.Sprintf(format, args...)}
}

// APIError represents a structured API error response of the report
// server.
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// New creates a new APIError with the given parameters.
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details.
func NewWithDetails(statusCode int, errorCode, message string, details any) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Predefined error types for common report server scenarios
var (
	ErrInvalidRequest = New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	ErrNotFound       = New(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrNoResults      = New(http.StatusNotFound, "NO_RESULTS", "No comparison results available")
	ErrInternalServer = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
)

// NotFoundError creates a not found error with details.
func NotFoundError(resource string) *APIError {
	return NewWithDetails(http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("%s not found", resource), resource)
}

// InvalidRequestWithError creates an invalid request error with details.
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format", err.Error())
}
