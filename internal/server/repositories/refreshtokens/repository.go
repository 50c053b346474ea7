// Package refreshtokens declares the ledger contract for issued refresh
// tokens: one row per token, keyed by jti, tracking validity window and
// revocation state.
package refreshtokens

import (
	"context"
	"time"

	"github.com/hermesapp/auth-service/internal/server/models"
)

// Repository defines operations on the refresh-token ledger. Every
// operation is a single SQL statement, so each is atomic with respect to
// concurrent callers; multi-step sequences belong inside a dbx.WithTx in
// the service layer. "Active" means not revoked and not yet expired.
type Repository interface {
	// Create inserts a ledger record for a freshly minted token.
	Create(ctx context.Context, jti, tokenHash, userUUID string, expiresAt time.Time) (*models.RefreshToken, error)

	// FindByID looks up a record by jti regardless of state.
	// Absent records return common.ErrNotFound.
	FindByID(ctx context.Context, jti string) (*models.RefreshToken, error)

	// FindValidByID looks up a record by jti that is not revoked and not
	// expired at call time. Absent or invalid records return
	// common.ErrNotFound.
	FindValidByID(ctx context.Context, jti string) (*models.RefreshToken, error)

	// RevokeByID marks the record revoked. Idempotent: the first caller
	// gets true, revoking an already-revoked or nonexistent record
	// returns false. The revoked flag never transitions back.
	RevokeByID(ctx context.Context, jti string) (bool, error)

	// CountActive counts the user's active records.
	CountActive(ctx context.Context, userUUID string) (int, error)

	// RevokeOldestActive revokes the user's single active record with the
	// earliest issue time; false if the user has none.
	RevokeOldestActive(ctx context.Context, userUUID string) (bool, error)

	// RevokeAllActive bulk-revokes the user's active records and returns
	// the count affected.
	RevokeAllActive(ctx context.Context, userUUID string) (int, error)

	// SweepExpired physically deletes all expired records, revoked or
	// not, and returns the deletion count.
	SweepExpired(ctx context.Context) (int, error)
}
