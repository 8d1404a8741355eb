package service

import (
	"errors"
	"fmt"

	"tasklog/internal/repository"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

var (
	ErrTaskNotFound   = fmt.Errorf("task %w", ErrNotFound)
	ErrEntryNotFound  = fmt.Errorf("time entry %w", ErrNotFound)
	ErrUserNotFound   = fmt.Errorf("user %w", ErrNotFound)
	ErrEmailTaken     = fmt.Errorf("email already registered: %w", ErrConflict)
	ErrTaskContention = fmt.Errorf("task modified concurrently: %w", ErrConflict)
)

// ValidationError reports malformed or out-of-range input. Message is safe
// to show to the caller.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// taskErr maps repository sentinels to service errors.
func taskErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrTaskNotFound
	case errors.Is(err, repository.ErrConflict):
		return ErrTaskContention
	default:
		return err
	}
}
