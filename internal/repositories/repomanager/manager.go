package repomanager

import (
	"context"
	"database/sql"

	"authd/internal/dbx"
	"authd/internal/repositories/refreshtokens"
	"authd/internal/repositories/users"
)

// RepositoryManager vends repositories bound to a DB handle or an open
// transaction, and exposes a schema migration hook.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
