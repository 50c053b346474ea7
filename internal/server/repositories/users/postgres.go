package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hermesapp/auth-service/internal/common"
	"github.com/hermesapp/auth-service/internal/dbx"
	"github.com/hermesapp/auth-service/internal/server/models"
)

// uniqueViolation is the PostgreSQL error code for unique-constraint
// violations (duplicate username or email).
const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (uuid, username, email, first_name, last_name, password_hash, disabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		user.UUID, user.Username, user.Email,
		nullIfEmpty(user.FirstName), nullIfEmpty(user.LastName),
		user.PasswordHash, user.Disabled,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, uuid, username, email, first_name, last_name, password_hash, disabled, created_at, updated_at
		FROM users
		WHERE username = $1
	`
	user := &models.User{}
	var firstName, lastName sql.NullString
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID, &user.UUID, &user.Username, &user.Email,
		&firstName, &lastName, &user.PasswordHash, &user.Disabled,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	user.FirstName = firstName.String
	user.LastName = lastName.String
	return user, nil
}

func (r *PostgresRepository) GetByUUID(ctx context.Context, uuid string) (*models.User, error) {
	query := `
		SELECT id, uuid, username, email, first_name, last_name, disabled, created_at, updated_at
		FROM users
		WHERE uuid = $1
	`
	user := &models.User{}
	var firstName, lastName sql.NullString
	err := r.db.QueryRowContext(ctx, query, uuid).Scan(
		&user.ID, &user.UUID, &user.Username, &user.Email,
		&firstName, &lastName, &user.Disabled,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	user.FirstName = firstName.String
	user.LastName = lastName.String
	return user, nil
}

func (r *PostgresRepository) SetDisabled(ctx context.Context, uuid string, disabled bool) error {
	query := `
		UPDATE users
		SET disabled = $2, updated_at = now()
		WHERE uuid = $1
	`
	res, err := r.db.ExecContext(ctx, query, uuid, disabled)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
