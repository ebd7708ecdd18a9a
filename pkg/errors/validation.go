package errors

import (
	"errors"
	"fmt"
)

// ValidationError reports an option that failed validation before any
// storage was touched. It is not a load failure and carries no Category.
type ValidationError struct {
	Value any    `json:"value"` // The offending value.
	Field string `json:"field"` // Option name, as spelled in the config file.
	Err   error  `json:"error"` // What is wrong with it.
}

// NewValidationError creates a new ValidationError instance.
func NewValidationError(field string, value any, err error) *ValidationError {
	return &ValidationError{
		Err:   err,
		Field: field,
		Value: value,
	}
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return fmt.Sprintf("invalid %s (%v): %v", e.Field, e.Value, e.Err)
}

// Unwrap returns the underlying validation failure.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidationError checks if a given error is of type ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// AsValidationError attempts to extract a ValidationError from a given error.
func AsValidationError(err error) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}
