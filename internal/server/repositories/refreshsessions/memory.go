package refreshsessions

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/notesauth/internal/common"
	"github.com/dmitrijs2005/notesauth/internal/server/models"
)

// MemoryRepository is a mutex-guarded map store.
type MemoryRepository struct {
	mu       sync.Mutex
	sessions map[string]models.RefreshSession
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sessions: make(map[string]models.RefreshSession)}
}

func (r *MemoryRepository) Create(_ context.Context, s *models.RefreshSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s.ID]; ok {
		return errDuplicateID
	}
	r.sessions[s.ID] = *s
	return nil
}

func (r *MemoryRepository) Find(_ context.Context, id string) (*models.RefreshSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &s, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok, nil
}

// Len returns the number of stored sessions. It exists for tests asserting
// that no session was left behind.
func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
