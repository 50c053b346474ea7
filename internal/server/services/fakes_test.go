package services

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/hermesapp/auth-service/internal/common"
	"github.com/hermesapp/auth-service/internal/dbx"
	"github.com/hermesapp/auth-service/internal/logging"
	"github.com/hermesapp/auth-service/internal/server/models"
	"github.com/hermesapp/auth-service/internal/server/repositories/refreshtokens"
	usersrepo "github.com/hermesapp/auth-service/internal/server/repositories/users"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

// fakeUserRepo is an in-memory users.Repository. When failWith is set,
// every call returns it.
type fakeUserRepo struct {
	mu       sync.Mutex
	users    []*models.User
	nextID   int64
	failWith error
}

func cloneUser(u *models.User) *models.User {
	c := *u
	return &c
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, u := range f.users {
		if u.Username == user.Username || u.Email == user.Email {
			return nil, common.ErrAlreadyExists
		}
	}
	f.nextID++
	c := cloneUser(user)
	c.ID = f.nextID
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	f.users = append(f.users, c)
	return cloneUser(c), nil
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, u := range f.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeUserRepo) GetByUUID(_ context.Context, uuid string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, u := range f.users {
		if u.UUID == uuid {
			c := cloneUser(u)
			c.PasswordHash = ""
			return c, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeUserRepo) SetDisabled(_ context.Context, uuid string, disabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	for _, u := range f.users {
		if u.UUID == uuid {
			u.Disabled = disabled
			return nil
		}
	}
	return common.ErrNotFound
}

// fakeLedger is an in-memory refreshtokens.Repository. IssuedAt gets a
// per-record offset so creation order is unambiguous.
type fakeLedger struct {
	mu       sync.Mutex
	recs     []*models.RefreshToken
	nextID   int64
	failWith error
}

func cloneToken(r *models.RefreshToken) *models.RefreshToken {
	c := *r
	if r.RevokedAt != nil {
		at := *r.RevokedAt
		c.RevokedAt = &at
	}
	return &c
}

func (f *fakeLedger) active(r *models.RefreshToken, now time.Time) bool {
	return !r.Revoked && r.ExpiresAt.After(now)
}

func (f *fakeLedger) Create(_ context.Context, jti, tokenHash, userUUID string, expiresAt time.Time) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.nextID++
	rec := &models.RefreshToken{
		ID:        f.nextID,
		JTI:       jti,
		TokenHash: tokenHash,
		UserUUID:  userUUID,
		IssuedAt:  time.Now().Add(time.Duration(f.nextID) * time.Millisecond),
		ExpiresAt: expiresAt,
	}
	f.recs = append(f.recs, rec)
	return cloneToken(rec), nil
}

func (f *fakeLedger) FindByID(_ context.Context, jti string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, r := range f.recs {
		if r.JTI == jti {
			return cloneToken(r), nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeLedger) FindValidByID(_ context.Context, jti string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	now := time.Now()
	for _, r := range f.recs {
		if r.JTI == jti && f.active(r, now) {
			return cloneToken(r), nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeLedger) RevokeByID(_ context.Context, jti string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return false, f.failWith
	}
	for _, r := range f.recs {
		if r.JTI == jti && !r.Revoked {
			now := time.Now()
			r.Revoked = true
			r.RevokedAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLedger) CountActive(_ context.Context, userUUID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return 0, f.failWith
	}
	now := time.Now()
	n := 0
	for _, r := range f.recs {
		if r.UserUUID == userUUID && f.active(r, now) {
			n++
		}
	}
	return n, nil
}

func (f *fakeLedger) RevokeOldestActive(_ context.Context, userUUID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return false, f.failWith
	}
	now := time.Now()
	var oldest *models.RefreshToken
	for _, r := range f.recs {
		if r.UserUUID == userUUID && f.active(r, now) {
			if oldest == nil || r.IssuedAt.Before(oldest.IssuedAt) {
				oldest = r
			}
		}
	}
	if oldest == nil {
		return false, nil
	}
	oldest.Revoked = true
	oldest.RevokedAt = &now
	return true, nil
}

func (f *fakeLedger) RevokeAllActive(_ context.Context, userUUID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return 0, f.failWith
	}
	now := time.Now()
	n := 0
	for _, r := range f.recs {
		if r.UserUUID == userUUID && f.active(r, now) {
			r.Revoked = true
			r.RevokedAt = &now
			n++
		}
	}
	return n, nil
}

func (f *fakeLedger) SweepExpired(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return 0, f.failWith
	}
	now := time.Now()
	kept := f.recs[:0]
	n := 0
	for _, r := range f.recs {
		if r.ExpiresAt.After(now) {
			kept = append(kept, r)
		} else {
			n++
		}
	}
	f.recs = kept
	return n, nil
}

// fakeRepoManager hands out the same fakes regardless of the DBTX, so
// service code paths that switch between pool and transaction handles see
// one consistent store.
type fakeRepoManager struct {
	users  *fakeUserRepo
	ledger *fakeLedger
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository { return m.users }

func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return m.ledger }
