// Package repomanager vends repository implementations bound to a database
// handle, so services can run the same repositories inside or outside a
// transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/datingapp/internal/dbx"
	"github.com/dmitrijs2005/datingapp/internal/server/repositories/messages"
	"github.com/dmitrijs2005/datingapp/internal/server/repositories/photos"
	"github.com/dmitrijs2005/datingapp/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/datingapp/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Photos(db dbx.DBTX) photos.Repository
	Messages(db dbx.DBTX) messages.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
