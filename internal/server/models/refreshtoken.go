package models

import "time"

// RefreshToken is a ledger row for one issued refresh token. JTI matches the
// jti claim embedded in the token; TokenHash is the SHA-256 hex digest of
// the full encoded token string (never the raw token). Revoked only ever
// transitions false to true, and RevokedAt is set exactly once when it does.
type RefreshToken struct {
	ID        int64
	JTI       string
	TokenHash string
	UserUUID  string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Revoked   bool
	RevokedAt *time.Time
}
