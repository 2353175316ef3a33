package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Account state errors
	ErrAccountDisabled   = errors.New("account is disabled")
	ErrAccountSuspended  = errors.New("account is suspended")
	ErrRateLimitExceeded = errors.New("too many failed attempts")
	ErrInvalidSession    = errors.New("session is invalid or expired")
)

// RateLimitError is returned while an identifier is blocked.
type RateLimitError struct {
	BlockedUntil time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many failed attempts, blocked until %s", e.BlockedUntil.UTC().Format(time.RFC3339))
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimitExceeded
}

// ValidationError carries per-field messages back to the caller.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// NewValidationErrorFor builds a ValidationError with a single field
func NewValidationErrorFor(field string, messages ...string) *ValidationError {
	e := NewValidationError()
	e.Add(field, messages...)
	return e
}

func (e *ValidationError) Add(field string, messages ...string) {
	e.Fields[field] = append(e.Fields[field], messages...)
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msgs := range e.Fields {
		parts = append(parts, field+": "+strings.Join(msgs, ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrBadRequest
}
