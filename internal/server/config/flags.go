package config

import (
	"flag"
	"os"
	"time"

	"github.com/hermesapp/auth-service/internal/flagx"
)

// parseFlags overlays selected Config fields from command-line flags.
// Secrets are deliberately not accepted as flags; they come from the
// environment only.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-e string   environment name ("development" or "production")
//	-t int      access token lifetime, minutes
//	-r int      refresh token lifetime, days
//	-m int      max active refresh tokens per user
//
// Arguments are pre-filtered with flagx.FilterArgs so flags owned by other
// components do not trip the parser.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-e", "-t", "-r", "-m"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&cfg.HTTPAddr, "a", cfg.HTTPAddr, "address and port to run server")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.Environment, "e", cfg.Environment, "environment name")

	accessMinutes := fs.Int("t", int(cfg.AccessTokenTTL.Minutes()), "access token lifetime (minutes)")
	refreshDays := fs.Int("r", int(cfg.RefreshTokenTTL.Hours()/24), "refresh token lifetime (days)")
	fs.IntVar(&cfg.MaxActiveRefreshTokens, "m", cfg.MaxActiveRefreshTokens, "max active refresh tokens per user")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.AccessTokenTTL = time.Duration(*accessMinutes) * time.Minute
	cfg.RefreshTokenTTL = time.Duration(*refreshDays) * 24 * time.Hour
}
