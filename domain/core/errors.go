package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound       = errors.New("resource not found")
	ErrRecordNotFound = fmt.Errorf("%w: result record", ErrNotFound)

	// Validation errors
	ErrInvalidTable = errors.New("invalid contingency table")
	ErrInvalidAlpha = errors.New("invalid significance level")

	// Ledger errors
	ErrLedgerUnavailable = errors.New("result ledger unavailable")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewTableError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidTable, reason)
}

func NewCellError(row, col int, reason string) error {
	return fmt.Errorf("%w: cell [%d][%d] %s", ErrInvalidTable, row, col, reason)
}

func NewAlphaError(alpha float64, reason string) error {
	return fmt.Errorf("%w: %v %s", ErrInvalidAlpha, alpha, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidTable) ||
		errors.Is(err, ErrInvalidAlpha)
}
