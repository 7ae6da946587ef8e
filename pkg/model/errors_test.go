package model

import "testing"

func TestAPIError_Error(t *testing.T) {
	err := &APIError{Code: ErrNotFound, Message: "Build 'b-123' not found"}
	want := "NOT_FOUND: Build 'b-123' not found"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("Task", "t-abc")
	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Message != "Task 't-abc' not found" {
		t.Errorf("Message = %q, want %q", err.Message, "Task 't-abc' not found")
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("Malformed message from Diego stager",
		FieldError{Field: "result.execution_metadata", Message: "required"},
		FieldError{Field: "result.process_types", Message: "expected object of strings"},
	)
	if err.Code != ErrValidation {
		t.Errorf("Code = %q, want %q", err.Code, ErrValidation)
	}
	if len(err.Details) != 2 {
		t.Errorf("Details length = %d, want 2", len(err.Details))
	}
}

func TestNewConflictError(t *testing.T) {
	err := NewConflictError("build already staged")
	if err.Code != ErrConflict {
		t.Errorf("Code = %q, want %q", err.Code, ErrConflict)
	}
}

func TestInvalidTransitionError(t *testing.T) {
	err := &InvalidTransitionError{
		Entity: "Build",
		ID:     "b-123",
		From:   "STAGED",
		To:     "STAGING",
	}
	want := "invalid Build state transition: STAGED → STAGING (entity b-123)"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestNewTooLargeError(t *testing.T) {
	err := NewTooLargeError(1 << 20)
	if err.Code != ErrTooLarge {
		t.Errorf("Code = %q, want %q", err.Code, ErrTooLarge)
	}
	if err.Message != "Callback body exceeds 1048576 bytes" {
		t.Errorf("Message = %q", err.Message)
	}
}
