// Package errors provides the structured error type shared by all layers of
// the gateway. Every failure a handler can observe is an *AppError carrying
// the HTTP status the transport should answer with.
package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType classifies an application error.
type ErrorType string

const (
	// ErrTypeValidation represents malformed or missing request fields
	ErrTypeValidation ErrorType = "validation"
	// ErrTypeBadRequest represents requests that are well-formed but not servable
	ErrTypeBadRequest ErrorType = "bad_request"
	// ErrTypeNotFound represents resource not found errors
	ErrTypeNotFound ErrorType = "not_found"
	// ErrTypeAuth represents authentication errors
	ErrTypeAuth ErrorType = "authentication"
	// ErrTypeUpstream represents failures reported by or while reaching the upstream API
	ErrTypeUpstream ErrorType = "upstream"
	// ErrTypeInternal represents internal system errors
	ErrTypeInternal ErrorType = "internal"
)

// AppError represents a structured application error. Status carries the HTTP
// status code for the transport layer; for upstream errors it is the upstream
// status (or a synthetic 502/503/504 for network-level failures). Payload holds
// the parsed upstream error body when one exists.
type AppError struct {
	Type    ErrorType              `json:"type"`
	Message string                 `json:"message"`
	Status  int                    `json:"status,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	parts := []string{string(e.Type), e.Message}

	if e.Status != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.Status))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%v", e.Cause))
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the status code the transport should respond with.
// An explicit Status always wins; otherwise the type decides.
func (e *AppError) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}

	switch e.Type {
	case ErrTypeValidation, ErrTypeBadRequest:
		return http.StatusBadRequest
	case ErrTypeNotFound:
		return http.StatusNotFound
	case ErrTypeAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// ValidationError creates a new validation error
func ValidationError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeValidation,
		Message: msg,
	}
}

// BadRequestError creates a new bad request error
func BadRequestError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeBadRequest,
		Message: msg,
	}
}

// NotFoundError creates a new not found error
func NotFoundError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeNotFound,
		Message: msg,
	}
}

// AuthError creates a new authentication error
func AuthError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeAuth,
		Message: msg,
	}
}

// UpstreamError creates an error for an upstream API failure. The message is
// the compact JSON form of the payload so callers see the upstream detail
// (e.g. {"error":"invalid_token"}) without digging into the struct.
func UpstreamError(status int, payload map[string]interface{}) *AppError {
	msg := fmt.Sprintf("threads API request failed with status %d", status)
	if len(payload) > 0 {
		if data, err := json.Marshal(payload); err == nil {
			msg = string(data)
		}
	}

	return &AppError{
		Type:    ErrTypeUpstream,
		Message: msg,
		Status:  status,
		Payload: payload,
	}
}

// InternalError creates a new internal error
func InternalError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeInternal,
		Message: msg,
		Cause:   cause,
	}
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	if err == nil {
		return false
	}

	appErr, ok := err.(*AppError)
	if !ok {
		return false
	}

	return appErr.Type == errType
}

// GetType returns the error type if it's an AppError, otherwise returns ErrTypeInternal
func GetType(err error) ErrorType {
	if err == nil {
		return ""
	}

	appErr, ok := err.(*AppError)
	if !ok {
		return ErrTypeInternal
	}

	return appErr.Type
}
