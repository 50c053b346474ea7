// Package auth implements the signed-token codec: minting and verifying
// access and refresh JWTs under two independent secrets.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hermesapp/auth-service/internal/common"
)

// TokenType discriminates the two token kinds via the "typ" claim.
type TokenType string

const (
	TypeAccess  TokenType = "access"
	TypeRefresh TokenType = "refresh"
)

// Claims is the claim set carried by every token. Refresh tokens set the
// registered ID claim (jti) to link the token to its ledger record; access
// tokens leave it empty.
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"typ"`
}

// CodecConfig carries the immutable signing configuration. Access and
// refresh secrets must differ: the signature check under the per-type
// secret is the only barrier against replaying a stolen access token as a
// refresh token.
type CodecConfig struct {
	Algorithm     string // HS256, HS384 or HS512
	AccessSecret  []byte
	RefreshSecret []byte
	Issuer        string
	Audience      string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Codec mints and verifies tokens. It is safe for concurrent use; nothing
// is mutated after construction.
type Codec struct {
	method        jwt.SigningMethod
	alg           string
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	audience      string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewCodec(cfg CodecConfig) (*Codec, error) {
	var method jwt.SigningMethod
	switch cfg.Algorithm {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported signing algorithm: %q", cfg.Algorithm)
	}
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, fmt.Errorf("both signing secrets are required")
	}
	if string(cfg.AccessSecret) == string(cfg.RefreshSecret) {
		return nil, fmt.Errorf("access and refresh secrets must differ")
	}
	if cfg.Issuer == "" || cfg.Audience == "" {
		return nil, fmt.Errorf("issuer and audience are required")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, fmt.Errorf("token lifetimes must be positive")
	}

	return &Codec{
		method:        method,
		alg:           cfg.Algorithm,
		accessSecret:  cfg.AccessSecret,
		refreshSecret: cfg.RefreshSecret,
		issuer:        cfg.Issuer,
		audience:      cfg.Audience,
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
	}, nil
}

// AccessTTL returns the configured access-token lifetime.
func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL returns the configured refresh-token lifetime.
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// MintAccess signs a short-lived access token for subject.
func (c *Codec) MintAccess(subject string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{c.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.accessTTL)),
		},
		TokenType: string(TypeAccess),
	}
	return jwt.NewWithClaims(c.method, claims).SignedString(c.accessSecret)
}

// MintRefresh signs a refresh token for subject with a freshly generated
// jti, returning the encoded token, the jti for the ledger record, and the
// expiry shared by both.
func (c *Codec) MintRefresh(subject string) (token string, jti string, expiresAt time.Time, err error) {
	now := time.Now()
	jti = uuid.NewString()
	expiresAt = now.Add(c.refreshTTL)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   subject,
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{c.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		TokenType: string(TypeRefresh),
	}
	token, err = jwt.NewWithClaims(c.method, claims).SignedString(c.refreshSecret)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return token, jti, expiresAt, nil
}

// Verify parses raw under the secret belonging to typ and validates
// signature, expiry, issuer, audience, and the type claim, in that order.
// Every failure collapses to common.ErrInvalidToken; callers never learn
// which check rejected the token.
func (c *Codec) Verify(raw string, typ TokenType) (*Claims, error) {
	secret := c.accessSecret
	if typ == TypeRefresh {
		secret = c.refreshSecret
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{c.alg}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
	)
	if err != nil || !token.Valid {
		return nil, common.ErrInvalidToken
	}
	if claims.TokenType != string(typ) {
		return nil, common.ErrInvalidToken
	}
	if typ == TypeRefresh && claims.ID == "" {
		return nil, common.ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}
