package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/notesauth/internal/dbx"
	"github.com/dmitrijs2005/notesauth/internal/server/repositories/refreshsessions"
	"github.com/dmitrijs2005/notesauth/internal/server/repositories/users"
)

// MemoryRepositoryManager serves process-local stores. Database handles are
// ignored, so callers may pass nil.
type MemoryRepositoryManager struct {
	users    *users.MemoryRepository
	sessions refreshsessions.Repository
}

func NewMemoryRepositoryManager(opts ...MemoryOption) *MemoryRepositoryManager {
	m := &MemoryRepositoryManager{
		users:    users.NewMemoryRepository(),
		sessions: refreshsessions.NewMemoryRepository(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// MemoryOption customizes a MemoryRepositoryManager.
type MemoryOption func(*MemoryRepositoryManager)

// WithMemorySessionStore swaps the in-memory session store, e.g. for Redis.
func WithMemorySessionStore(s refreshsessions.Repository) MemoryOption {
	return func(m *MemoryRepositoryManager) { m.sessions = s }
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *MemoryRepositoryManager) InTx(ctx context.Context, _ *sql.DB, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return fn(ctx, nil)
}

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository { return m.users }

func (m *MemoryRepositoryManager) RefreshSessions(dbx.DBTX) refreshsessions.Repository {
	return m.sessions
}
