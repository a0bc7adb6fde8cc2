// Package sessiontest provides an in-memory session repository for handler tests.
package sessiontest

import (
	"context"
	"sync"
	"time"

	"locatify/wanderlust/internal/models"
	"locatify/wanderlust/internal/repository"
)

// MemoryRepository is a repository.SessionRepository kept in a map.
type MemoryRepository struct {
	mu       sync.Mutex
	sessions map[string]models.Session
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sessions: make(map[string]models.Session)}
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || !s.ExpiresAt.After(time.Now()) {
		return nil, repository.ErrNotFound
	}
	s.Flash = append([]models.FlashMessage{}, s.Flash...)
	return &s, nil
}

func (r *MemoryRepository) Insert(ctx context.Context, s *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = *s
	return nil
}

func (r *MemoryRepository) Save(ctx context.Context, s *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID]; !ok {
		return repository.ErrNotFound
	}
	stored := *s
	stored.Flash = append([]models.FlashMessage{}, s.Flash...)
	r.sessions[s.ID] = stored
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

// All returns a snapshot of every stored session.
func (r *MemoryRepository) All() []models.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}
