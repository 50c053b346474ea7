package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config fields from the environment, loading a local
// .env file first if one exists. Unset variables leave the current value
// untouched.
//
// Recognized variables:
//
//	ENV                           "development" | "production"
//	HTTP_ADDR                     bind address
//	DATABASE_URL                  PostgreSQL DSN
//	ACCESS_TOKEN_SECRET           access-token HMAC secret
//	REFRESH_TOKEN_SECRET          refresh-token HMAC secret
//	JWT_ALGORITHM                 HS256 | HS384 | HS512
//	ACCESS_TOKEN_EXPIRE_MINUTES   access-token lifetime
//	REFRESH_TOKEN_EXPIRE_DAYS     refresh-token lifetime
//	MAX_ACTIVE_REFRESH_TOKENS     per-user cap
//	TOKEN_ISSUER                  iss claim
//	TOKEN_AUDIENCE                aud claim
//	SWEEP_INTERVAL_MINUTES        expiry-sweep period, 0 disables
func parseEnv(cfg *Config) {
	// Missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()

	setString(&cfg.Environment, "ENV")
	setString(&cfg.HTTPAddr, "HTTP_ADDR")
	setString(&cfg.DatabaseDSN, "DATABASE_URL")
	setString(&cfg.AccessSecret, "ACCESS_TOKEN_SECRET")
	setString(&cfg.RefreshSecret, "REFRESH_TOKEN_SECRET")
	setString(&cfg.SigningAlgorithm, "JWT_ALGORITHM")
	setString(&cfg.Issuer, "TOKEN_ISSUER")
	setString(&cfg.Audience, "TOKEN_AUDIENCE")

	setDuration(&cfg.AccessTokenTTL, "ACCESS_TOKEN_EXPIRE_MINUTES", time.Minute)
	setDuration(&cfg.RefreshTokenTTL, "REFRESH_TOKEN_EXPIRE_DAYS", 24*time.Hour)
	setDuration(&cfg.SweepInterval, "SWEEP_INTERVAL_MINUTES", time.Minute)

	if v, ok := os.LookupEnv("MAX_ACTIVE_REFRESH_TOKENS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxActiveRefreshTokens = n
		}
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string, unit time.Duration) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = time.Duration(n) * unit
		}
	}
}
