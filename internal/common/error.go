// Package common defines sentinel errors shared across the auth service.
// Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrInternal = errors.New("internal error")

	// ErrUnauthorized covers every credential failure: unknown user, wrong
	// password, disabled account, malformed username. Callers must not be
	// able to tell which one occurred.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidToken covers every token verification failure: bad
	// signature, expiry, issuer/audience mismatch, wrong type claim,
	// revoked or missing ledger record. Collapsed to one value on purpose.
	ErrInvalidToken = errors.New("invalid token")

	// Validation errors (registration input).
	ErrValidation = errors.New("validation error")
)
