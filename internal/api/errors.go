package api

import "fmt"

// ErrorCode is a machine-readable error identifier returned in API responses.
type ErrorCode string

const (
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrCodeNotFound       ErrorCode = "NOT_FOUND"
	ErrCodeConflict       ErrorCode = "CONFLICT"
	ErrCodeInternal       ErrorCode = "INTERNAL_ERROR"
	ErrCodeUnavailable    ErrorCode = "SERVICE_UNAVAILABLE"
)

// APIError carries an error code, HTTP status and a human-readable message.
type APIError struct {
	Code       ErrorCode `json:"code"`
	StatusCode int       `json:"-"`
	Message    string    `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAPIError(code ErrorCode, statusCode int, message string) *APIError {
	return &APIError{Code: code, StatusCode: statusCode, Message: message}
}

func NewInvalidRequestError(format string, args ...interface{}) *APIError {
	return &APIError{Code: ErrCodeInvalidRequest, StatusCode: 400, Message: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(format string, args ...interface{}) *APIError {
	return &APIError{Code: ErrCodeNotFound, StatusCode: 404, Message: fmt.Sprintf(format, args...)}
}

func NewInternalError(format string, args ...interface{}) *APIError {
	return &APIError{Code: ErrCodeInternal, StatusCode: 500, Message: fmt.Sprintf(format, args...)}
}

// ValidationError describes a rejected request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
