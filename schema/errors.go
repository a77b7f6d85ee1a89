package schema

import (
	"errors"
	"fmt"
)

// ErrValidation is the sentinel wrapped by every validation failure.
var ErrValidation = errors.New("corral: validation failed")

// ValidationError reports a single field violation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// MissingFieldError reports a mandatory field absent from a create payload.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing mandatory field %q", e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrValidation }

func failf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
