/*
errors.go - Error types for the cost ledger

PURPOSE:
  The engine itself never fails on bad data inside a snapshot: missing
  references contribute zero and degenerate divisors fall back to 1. The
  errors here are for callers asking about things that don't exist, and for
  the store rejecting malformed commands.

ERROR CATEGORIES:
  1. Not found - caller referenced an entity the snapshot doesn't have
  2. Validation - a command or request is malformed
  3. Conflict - an id is already taken

SEE ALSO:
  - diagnostics.go: warnings for the forgiving read paths
  - store/errors.go: command-level errors
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrProductNotFound = errors.New("product not found")
	ErrRecipeNotFound  = errors.New("recipe not found")
	ErrExpenseNotFound = errors.New("expense not found")

	// ErrDuplicateID is returned when a create command reuses an existing id.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrInvalid is the root of every ValidationError.
	ErrInvalid = errors.New("invalid input")

	ErrInvalidPeriod = errors.New("invalid period")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrRecipeNotFound) ||
		errors.Is(err, ErrExpenseNotFound)
}

func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalid) ||
		errors.Is(err, ErrInvalidPeriod)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateID)
}
