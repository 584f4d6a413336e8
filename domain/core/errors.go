package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Data errors
	ErrTableNotFound  = errors.New("variable table not found")
	ErrMissingColumn  = errors.New("required column missing")
	ErrMalformedValue = errors.New("malformed cell value")
	ErrNoObservations = errors.New("no usable observations")

	// Model errors
	ErrNotConverged  = errors.New("model fit did not converge")
	ErrProfileFailed = errors.New("profile confidence interval did not converge")
	ErrNoCovariance  = errors.New("fixed-effect covariance unavailable")

	// Grid errors
	ErrBadGrid = errors.New("invalid prediction grid")
)

// Error constructors with context
func NewMissingColumnError(column, table string) error {
	return fmt.Errorf("%w: %s in %s", ErrMissingColumn, column, table)
}

func NewMalformedValueError(column string, row int, cause error) error {
	return fmt.Errorf("%w: column %s row %d: %v", ErrMalformedValue, column, row, cause)
}

func NewConvergenceError(optimizer string, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: optimizer %s: %v", ErrNotConverged, optimizer, cause)
	}
	return fmt.Errorf("%w: optimizer %s", ErrNotConverged, optimizer)
}

// Error checking helpers
func IsDataError(err error) bool {
	return errors.Is(err, ErrTableNotFound) ||
		errors.Is(err, ErrMissingColumn) ||
		errors.Is(err, ErrMalformedValue) ||
		errors.Is(err, ErrNoObservations)
}

func IsModelError(err error) bool {
	return errors.Is(err, ErrNotConverged) ||
		errors.Is(err, ErrProfileFailed) ||
		errors.Is(err, ErrNoCovariance)
}
