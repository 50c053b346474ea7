package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hermesapp/auth-service/internal/common"
	"github.com/hermesapp/auth-service/internal/dbx"
	"github.com/hermesapp/auth-service/internal/server/models"
)

// PostgresRepository implements the ledger over dbx.DBTX (satisfied by both
// *sql.DB and *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, jti, tokenHash, userUUID string, expiresAt time.Time) (*models.RefreshToken, error) {
	query := `
		INSERT INTO refresh_tokens (jti, token_hash, user_uuid, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, issued_at
	`
	record := &models.RefreshToken{
		JTI:       jti,
		TokenHash: tokenHash,
		UserUUID:  userUUID,
		ExpiresAt: expiresAt,
	}
	if err := r.db.QueryRowContext(ctx, query, jti, tokenHash, userUUID, expiresAt).
		Scan(&record.ID, &record.IssuedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return record, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, jti string) (*models.RefreshToken, error) {
	query := `
		SELECT id, jti, token_hash, user_uuid, issued_at, expires_at, revoked, revoked_at
		FROM refresh_tokens
		WHERE jti = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, jti))
}

func (r *PostgresRepository) FindValidByID(ctx context.Context, jti string) (*models.RefreshToken, error) {
	query := `
		SELECT id, jti, token_hash, user_uuid, issued_at, expires_at, revoked, revoked_at
		FROM refresh_tokens
		WHERE jti = $1 AND revoked = FALSE AND expires_at > now()
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, jti))
}

// RevokeByID relies on the revoked = FALSE predicate as the atomic guard:
// when two rotations race on the same jti, exactly one UPDATE matches.
func (r *PostgresRepository) RevokeByID(ctx context.Context, jti string) (bool, error) {
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE, revoked_at = now()
		WHERE jti = $1 AND revoked = FALSE
	`
	res, err := r.db.ExecContext(ctx, query, jti)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return affected > 0, nil
}

func (r *PostgresRepository) CountActive(ctx context.Context, userUUID string) (int, error) {
	query := `
		SELECT count(*)
		FROM refresh_tokens
		WHERE user_uuid = $1 AND revoked = FALSE AND expires_at > now()
	`
	var count int
	if err := r.db.QueryRowContext(ctx, query, userUUID).Scan(&count); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) RevokeOldestActive(ctx context.Context, userUUID string) (bool, error) {
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE, revoked_at = now()
		WHERE id = (
			SELECT id FROM refresh_tokens
			WHERE user_uuid = $1 AND revoked = FALSE AND expires_at > now()
			ORDER BY issued_at
			LIMIT 1
		)
	`
	res, err := r.db.ExecContext(ctx, query, userUUID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return affected > 0, nil
}

func (r *PostgresRepository) RevokeAllActive(ctx context.Context, userUUID string) (int, error) {
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE, revoked_at = now()
		WHERE user_uuid = $1 AND revoked = FALSE AND expires_at > now()
	`
	res, err := r.db.ExecContext(ctx, query, userUUID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return int(affected), nil
}

func (r *PostgresRepository) SweepExpired(ctx context.Context) (int, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE expires_at < now()
	`
	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return int(affected), nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.RefreshToken, error) {
	record := &models.RefreshToken{}
	var revokedAt sql.NullTime
	err := row.Scan(
		&record.ID, &record.JTI, &record.TokenHash, &record.UserUUID,
		&record.IssuedAt, &record.ExpiresAt, &record.Revoked, &revokedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if revokedAt.Valid {
		record.RevokedAt = &revokedAt.Time
	}
	return record, nil
}
