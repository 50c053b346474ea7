package repomanager

import (
	"context"
	"database/sql"

	"github.com/hermesapp/auth-service/internal/dbx"
	"github.com/hermesapp/auth-service/internal/server/repositories/refreshtokens"
	"github.com/hermesapp/auth-service/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can run
// the same repository code against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
