package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_ImplementsError(t *testing.T) {
	var err error = ValidationFailed("title", "title is required")
	if err.Error() != "title is required" {
		t.Errorf("Error() = %q, want %q", err.Error(), "title is required")
	}
}

func TestAppError_UnwrapsToSentinel(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"validation", ValidationFailed("code", "code is required"), ErrValidation},
		{"unauthorized", Unauthorized("authentication failed"), ErrUnauthorized},
		{"not found", NotFound("snippet"), ErrNotFound},
		{"not found or forbidden", NotFoundOrForbidden("group"), ErrNotFound},
		{"conflict", Conflict("user already exists"), ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false, want true", tt.err, tt.sentinel)
			}
		})
	}
}

func TestAppError_SurvivesWrapping(t *testing.T) {
	// Services wrap repository errors with fmt.Errorf("...: %w", err).
	// The sentinel must still be detectable through the chain.
	inner := NotFoundOrForbidden("snippet")
	wrapped := fmt.Errorf("updating snippet: %w", inner)

	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("wrapped error lost its ErrNotFound classification")
	}

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("errors.As failed to extract *AppError from wrapped chain")
	}
	if appErr.Message != "snippet not found or does not belong to you" {
		t.Errorf("Message = %q", appErr.Message)
	}
}

func TestNotFoundOrForbidden_ConflatesExistence(t *testing.T) {
	// The message must be identical whether the resource is absent or owned
	// by another user — both cases go through this one constructor.
	a := NotFoundOrForbidden("group")
	b := NotFoundOrForbidden("group")
	if a.Message != b.Message {
		t.Errorf("messages differ: %q vs %q", a.Message, b.Message)
	}
}
