package model

import "fmt"

// ErrorCode classifies a callback API error.
type ErrorCode string

const (
	ErrValidation ErrorCode = "VALIDATION_ERROR"
	ErrNotFound   ErrorCode = "NOT_FOUND"
	ErrConflict   ErrorCode = "CONFLICT"
	ErrTooLarge   ErrorCode = "PAYLOAD_TOO_LARGE"
	ErrInternal   ErrorCode = "INTERNAL_ERROR"
)

// APIError is the error member of the response envelope.
type APIError struct {
	Code    ErrorCode    `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FieldError points at the payload field that failed validation.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func NewValidationError(msg string, details ...FieldError) *APIError {
	return &APIError{Code: ErrValidation, Message: msg, Details: details}
}

func NewNotFoundError(resource, id string) *APIError {
	return &APIError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s '%s' not found", resource, id),
	}
}

func NewConflictError(msg string) *APIError {
	return &APIError{Code: ErrConflict, Message: msg}
}

func NewTooLargeError(limit int64) *APIError {
	return &APIError{Code: ErrTooLarge, Message: fmt.Sprintf("Callback body exceeds %d bytes", limit)}
}

// NewInternalError reports an unexpected store or handler failure.
func NewInternalError(err error) *APIError {
	return &APIError{Code: ErrInternal, Message: err.Error()}
}

// InvalidTransitionError is returned when a build, droplet or task is
// asked to move to a state its current state does not allow.
type InvalidTransitionError struct {
	Entity string
	ID     string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s state transition: %s → %s (entity %s)", e.Entity, e.From, e.To, e.ID)
}
