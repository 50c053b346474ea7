// Package services contains server-side business logic. This file
// implements UserService: registration, credential verification, and the
// public user lookups consumed by the session flows.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hermesapp/auth-service/internal/common"
	"github.com/hermesapp/auth-service/internal/logging"
	"github.com/hermesapp/auth-service/internal/password"
	"github.com/hermesapp/auth-service/internal/server/models"
	"github.com/hermesapp/auth-service/internal/server/repositories/repomanager"
	"github.com/hermesapp/auth-service/internal/server/validation"
)

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// UserService provides identity operations:
//   - Register: create users (uniqueness enforced by the database)
//   - Authenticate: constant-time credential verification
//   - GetByUUID: public profile lookup
//   - Deactivate: disable an account
type UserService struct {
	db        *sql.DB
	repos     repomanager.RepositoryManager
	hasher    *password.Hasher
	dummyHash string
	logger    logging.Logger
}

// NewUserService constructs a UserService. The dummy hash is computed once
// here with the live argon2 parameters, so that verifying a password for a
// nonexistent user costs the same as verifying against a real hash.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher *password.Hasher, logger logging.Logger) (*UserService, error) {
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("computing dummy hash: %w", err)
	}
	return &UserService{
		db:        db,
		repos:     m,
		hasher:    hasher,
		dummyHash: dummy,
		logger:    logger.With("module", "users"),
	}, nil
}

// Register validates input, hashes the password, and inserts the user.
// Duplicate usernames or emails surface as common.ErrAlreadyExists. The
// returned user never carries the password hash.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username, err := validation.ValidateNewUsername(in.Username)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, common.ErrInternal
	}

	user := &models.User{
		UUID:         uuid.NewString(),
		Username:     username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
	}
	created, err := s.repos.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, common.ErrAlreadyExists
		}
		s.logger.Error(ctx, "user create failed", "error", err)
		return nil, common.ErrInternal
	}

	s.logger.Info(ctx, "user registered", "username", username)
	created.PasswordHash = ""
	return created, nil
}

// Authenticate verifies credentials and returns the public profile.
//
// Password verification runs on every call, against the stored hash when
// the user exists and against the precomputed dummy hash otherwise, so
// "unknown user" and "wrong password" take indistinguishable time. A
// malformed username is treated the same as an unknown user and does not
// short-circuit past the verification step. Every failure collapses to
// common.ErrUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, username, pass string) (*models.User, error) {
	var user *models.User

	normalized, normErr := validation.NormalizeUsername(username)
	if normErr == nil {
		found, err := s.repos.Users(s.db).GetByUsername(ctx, normalized)
		switch {
		case err == nil:
			user = found
		case errors.Is(err, common.ErrNotFound):
			// fall through to the dummy verification
		default:
			s.logger.Error(ctx, "user lookup failed", "error", err)
			return nil, common.ErrInternal
		}
	}

	hash := s.dummyHash
	if user != nil {
		hash = user.PasswordHash
	}

	ok, err := s.hasher.Verify(pass, hash)
	if err != nil || !ok {
		return nil, common.ErrUnauthorized
	}
	if user == nil || normErr != nil {
		return nil, common.ErrUnauthorized
	}
	if user.Disabled {
		return nil, common.ErrUnauthorized
	}

	user.PasswordHash = ""
	return user, nil
}

// GetByUUID returns the public projection for the given identifier.
func (s *UserService) GetByUUID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repos.Users(s.db).GetByUUID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, common.ErrInternal
	}
	return user, nil
}

// Deactivate disables the account. Subsequent logins and refreshes fail.
func (s *UserService) Deactivate(ctx context.Context, id string) error {
	if err := s.repos.Users(s.db).SetDisabled(ctx, id, true); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		return common.ErrInternal
	}
	s.logger.Info(ctx, "user deactivated", "user", id)
	return nil
}
