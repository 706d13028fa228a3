package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/datingapp/internal/dbx"
	"github.com/dmitrijs2005/datingapp/internal/server/repositories/memory"
	"github.com/dmitrijs2005/datingapp/internal/server/repositories/messages"
	"github.com/dmitrijs2005/datingapp/internal/server/repositories/photos"
	"github.com/dmitrijs2005/datingapp/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/datingapp/internal/server/repositories/users"
)

// MemoryRepositoryManager ignores the DBTX it is given; all repositories
// share one memory.Store. Pair it with dbx.NoTx.
type MemoryRepositoryManager struct {
	store *memory.Store
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{store: memory.NewStore()}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return m.store.Users()
}

func (m *MemoryRepositoryManager) Photos(dbx.DBTX) photos.Repository {
	return m.store.Photos()
}

func (m *MemoryRepositoryManager) Messages(dbx.DBTX) messages.Repository {
	return m.store.Messages()
}

func (m *MemoryRepositoryManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return m.store.RefreshTokens()
}
