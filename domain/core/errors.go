package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Data-quality errors: recoverable, callers degrade gracefully
	ErrValidation       = errors.New("record validation failed")
	ErrInsufficientData = errors.New("insufficient data for analysis")

	// Configuration errors: always abort the call
	ErrInvalidInput = errors.New("invalid input parameter")
)

// Error constructors with context
func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w: field %s: %s", ErrValidation, field, reason)
}

func NewInvalidInputError(param string, value any, reason string) error {
	return fmt.Errorf("%w: %s=%v: %s", ErrInvalidInput, param, value, reason)
}

func NewInsufficientDataError(operation string) error {
	return fmt.Errorf("%w: %s", ErrInsufficientData, operation)
}

// Error checking helpers
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsInvalidInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

func IsInsufficientDataError(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}
