// internal/session/store.go
package session

import (
	"sync"

	"github.com/google/uuid"
)

// Store holds every live session engine by id.
type Store struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Engine
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[uuid.UUID]*Engine),
	}
}

func (s *Store) Add(e *Engine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[e.ID] = e
}

func (s *Store) Get(id uuid.UUID) (*Engine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, exists := s.sessions[id]
	return e, exists
}

func (s *Store) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// GetByGameID returns any session spawned from the given game template, or
// nil if none is live.
func (s *Store) GetByGameID(gameID uuid.UUID) *Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.sessions {
		if e.GameID == gameID {
			return e
		}
	}
	return nil
}
