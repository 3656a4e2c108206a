package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/blogapi/internal/dbx"
	"github.com/dmitrijs2005/blogapi/internal/server/repositories/comments"
	"github.com/dmitrijs2005/blogapi/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/blogapi/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to either the pool or a
// running transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Comments(db dbx.DBTX) comments.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
