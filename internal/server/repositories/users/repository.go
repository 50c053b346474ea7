// Package users declares the repository contract for user records. The
// user table is owned by the identity subsystem; the auth core consumes it
// read-mostly for authentication decisions.
package users

import (
	"context"

	"github.com/hermesapp/auth-service/internal/server/models"
)

// Repository defines persistence operations for user rows.
type Repository interface {
	// Create inserts a new user. A duplicate username or email returns
	// common.ErrAlreadyExists; uniqueness is enforced by the database, not
	// by a pre-check, so concurrent registrations cannot race past it.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByUsername returns the user row including the password hash.
	// For authentication only. Absent users return common.ErrNotFound.
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// GetByUUID returns the public projection (no password hash).
	// Absent users return common.ErrNotFound.
	GetByUUID(ctx context.Context, uuid string) (*models.User, error)

	// SetDisabled flips the disabled flag. Unknown uuids return
	// common.ErrNotFound.
	SetDisabled(ctx context.Context, uuid string, disabled bool) error
}
