package domain

import (
	"errors"
	"fmt"
)

// --- DOMAIN ERRORS ---
// Adapters translate these into transport codes; nothing outside the core
// should invent its own failure vocabulary.
var (
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("already exists")
	ErrUnauthenticated     = errors.New("authentication required")
	ErrUnauthorized        = errors.New("not allowed")
	ErrValidation          = errors.New("validation failed")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrTimeout             = errors.New("request timed out")
	ErrCanceled            = errors.New("request canceled")
	ErrRateLimited         = errors.New("too many requests")
)

// ValidationError carries the offending field so the HTTP layer can report it.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid is a shorthand for &ValidationError{...}.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
