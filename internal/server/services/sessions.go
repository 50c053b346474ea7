// This file implements SessionService, the orchestrator for the
// login/refresh/logout lifecycle on top of the token codec and the
// refresh-token ledger.
package services

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	"github.com/hermesapp/auth-service/internal/common"
	"github.com/hermesapp/auth-service/internal/dbx"
	"github.com/hermesapp/auth-service/internal/logging"
	"github.com/hermesapp/auth-service/internal/server/auth"
	"github.com/hermesapp/auth-service/internal/server/models"
	"github.com/hermesapp/auth-service/internal/server/repositories/repomanager"
)

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresIn  int64 // seconds
	RefreshExpiresAt time.Time
}

// SessionService issues, rotates, and revokes sessions. Each live session is
// one active ledger record; the per-user cap is enforced at issue time by
// evicting the oldest active record.
type SessionService struct {
	db        *sql.DB
	repos     repomanager.RepositoryManager
	users     *UserService
	codec     *auth.Codec
	maxActive int
	logger    logging.Logger
}

func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, users *UserService, codec *auth.Codec, maxActive int, logger logging.Logger) *SessionService {
	return &SessionService{
		db:        db,
		repos:     m,
		users:     users,
		codec:     codec,
		maxActive: maxActive,
		logger:    logger.With("module", "sessions"),
	}
}

// hashToken returns the SHA-256 hex digest of the encoded token. Only the
// digest is stored; a ledger dump does not yield usable tokens.
func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Login verifies credentials and opens a session. Credential failures
// surface as common.ErrUnauthorized.
func (s *SessionService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	var pair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		pair, err = s.issueSession(ctx, tx, user.UUID)
		return err
	})
	if err != nil {
		s.logger.Error(ctx, "session issue failed", "error", err)
		return nil, common.ErrInternal
	}

	s.logger.Info(ctx, "session opened", "user", user.UUID)
	return pair, nil
}

// issueSession mints a token pair and records the refresh token, evicting
// the user's oldest active session when the cap is reached. Must run inside
// a transaction so that count, eviction, and insert are atomic against
// concurrent logins.
func (s *SessionService) issueSession(ctx context.Context, tx dbx.DBTX, userUUID string) (*TokenPair, error) {
	ledger := s.repos.RefreshTokens(tx)

	n, err := ledger.CountActive(ctx, userUUID)
	if err != nil {
		return nil, err
	}
	if n >= s.maxActive {
		if _, err := ledger.RevokeOldestActive(ctx, userUUID); err != nil {
			return nil, err
		}
		s.logger.Info(ctx, "session cap reached, oldest evicted", "user", userUUID)
	}

	access, err := s.codec.MintAccess(userUUID)
	if err != nil {
		return nil, err
	}
	refresh, jti, expiresAt, err := s.codec.MintRefresh(userUUID)
	if err != nil {
		return nil, err
	}
	if _, err := ledger.Create(ctx, jti, hashToken(refresh), userUUID, expiresAt); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresIn:  int64(s.codec.AccessTTL().Seconds()),
		RefreshExpiresAt: expiresAt,
	}, nil
}

// verifyPresented checks a presented refresh token against the codec, the
// ledger, and the user store: the signature must verify, the ledger record
// must exist and be active, it must belong to the token's subject, the
// stored digest must match the presented bytes, and the subject must
// resolve to an enabled user. Every failure collapses to
// common.ErrInvalidToken.
func (s *SessionService) verifyPresented(ctx context.Context, raw string) (*auth.Claims, error) {
	claims, err := s.codec.Verify(raw, auth.TypeRefresh)
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	rec, err := s.repos.RefreshTokens(s.db).FindValidByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidToken
		}
		s.logger.Error(ctx, "ledger lookup failed", "error", err)
		return nil, common.ErrInternal
	}
	if rec.UserUUID != claims.Subject {
		return nil, common.ErrInvalidToken
	}
	if rec.TokenHash != hashToken(raw) {
		return nil, common.ErrInvalidToken
	}

	// A record whose user vanished is an integrity problem; it gets the
	// same uniform rejection as any other invalid token.
	user, err := s.users.GetByUUID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, common.ErrInternal
	}
	if user.Disabled {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

// Refresh rotates a session: the presented refresh token is revoked and a
// new pair is issued, atomically. A token can be rotated at most once; when
// two requests race on the same token, exactly one wins and the other gets
// common.ErrInvalidToken.
func (s *SessionService) Refresh(ctx context.Context, raw string) (*TokenPair, error) {
	claims, err := s.verifyPresented(ctx, raw)
	if err != nil {
		return nil, err
	}

	var pair *TokenPair
	txErr := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		revoked, err := s.repos.RefreshTokens(tx).RevokeByID(ctx, claims.ID)
		if err != nil {
			return err
		}
		if !revoked {
			// A concurrent rotation won the race.
			return common.ErrInvalidToken
		}
		pair, err = s.issueSession(ctx, tx, claims.Subject)
		return err
	})
	if txErr != nil {
		if errors.Is(txErr, common.ErrInvalidToken) {
			return nil, common.ErrInvalidToken
		}
		s.logger.Error(ctx, "session rotation failed", "error", txErr)
		return nil, common.ErrInternal
	}

	s.logger.Info(ctx, "session rotated", "user", claims.Subject)
	return pair, nil
}

// Logout revokes the presented refresh token. Idempotence is deliberate:
// a second logout with the same token fails verification because the record
// is no longer active.
func (s *SessionService) Logout(ctx context.Context, raw string) error {
	claims, err := s.verifyPresented(ctx, raw)
	if err != nil {
		return err
	}

	if _, err := s.repos.RefreshTokens(s.db).RevokeByID(ctx, claims.ID); err != nil {
		s.logger.Error(ctx, "session revoke failed", "error", err)
		return common.ErrInternal
	}

	s.logger.Info(ctx, "session closed", "user", claims.Subject)
	return nil
}

// LogoutEverywhere revokes every active session of the presented token's
// owner, including the presented one.
func (s *SessionService) LogoutEverywhere(ctx context.Context, raw string) (int, error) {
	claims, err := s.verifyPresented(ctx, raw)
	if err != nil {
		return 0, err
	}

	n, err := s.repos.RefreshTokens(s.db).RevokeAllActive(ctx, claims.Subject)
	if err != nil {
		s.logger.Error(ctx, "bulk revoke failed", "error", err)
		return 0, common.ErrInternal
	}

	s.logger.Info(ctx, "all sessions closed", "user", claims.Subject, "count", n)
	return n, nil
}

// VerifyAccess validates an access token and returns the bearer's profile.
// Used by the HTTP middleware behind protected endpoints.
func (s *SessionService) VerifyAccess(ctx context.Context, raw string) (*models.User, error) {
	claims, err := s.codec.Verify(raw, auth.TypeAccess)
	if err != nil {
		return nil, common.ErrInvalidToken
	}
	user, err := s.users.GetByUUID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, common.ErrInternal
	}
	if user.Disabled {
		return nil, common.ErrInvalidToken
	}
	return user, nil
}

// SweepExpired deletes expired ledger records. Run periodically by the
// application's background sweeper.
func (s *SessionService) SweepExpired(ctx context.Context) (int, error) {
	n, err := s.repos.RefreshTokens(s.db).SweepExpired(ctx)
	if err != nil {
		s.logger.Error(ctx, "sweep failed", "error", err)
		return 0, common.ErrInternal
	}
	if n > 0 {
		s.logger.Info(ctx, "expired sessions swept", "count", n)
	}
	return n, nil
}
