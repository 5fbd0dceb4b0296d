// Package common defines shared constants and sentinel errors used across
// the usermemory server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Validation errors.
	ErrorMissingLookupKey       = errors.New("email or workspace email required")
	ErrorNegativeProcessingTime = errors.New("processing time must be non-negative")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
