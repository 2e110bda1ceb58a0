// Package memory keeps sessions in process memory. It backs single-instance
// deployments without Redis and the transport tests.
package memory

import (
	"context"
	"sync"

	"github.com/rocketscienceinc/noughts-and-crosses/internal/apperror"
	"github.com/rocketscienceinc/noughts-and-crosses/internal/entity"
)

type GameRepository struct {
	mu       sync.RWMutex
	sessions map[string]entity.Session
}

func NewGameRepository() *GameRepository {
	return &GameRepository{sessions: make(map[string]entity.Session)}
}

func (that *GameRepository) CreateOrUpdate(_ context.Context, session *entity.Session) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.sessions[session.ID] = *session

	return nil
}

func (that *GameRepository) GetByID(_ context.Context, id string) (*entity.Session, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	session, ok := that.sessions[id]
	if !ok {
		return nil, apperror.ErrGameNotFound
	}

	return &session, nil
}

func (that *GameRepository) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.sessions[id]; !ok {
		return apperror.ErrGameNotFound
	}

	delete(that.sessions, id)

	return nil
}
