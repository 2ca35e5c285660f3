package memory

import (
	"context"
	"sync"
	"time"

	"geoquiz/internal/domain"
)

// PresenceStore is an in-memory implementation of app.PresenceRepository.
type PresenceStore struct {
	mu         sync.RWMutex
	users      map[string]domain.User
	lastActive map[string]time.Time
}

func NewPresenceStore() *PresenceStore {
	return &PresenceStore{
		users:      make(map[string]domain.User),
		lastActive: make(map[string]time.Time),
	}
}

func (s *PresenceStore) Touch(_ context.Context, uid string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive[uid] = at
	return nil
}

func (s *PresenceStore) LastActive(_ context.Context) (map[string]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]time.Time, len(s.lastActive))
	for uid, at := range s.lastActive {
		out[uid] = at
	}
	return out, nil
}

func (s *PresenceStore) Remove(_ context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lastActive, uid)
	return nil
}

func (s *PresenceStore) SaveUser(_ context.Context, u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.UID] = u
	return nil
}

func (s *PresenceStore) GetUser(_ context.Context, uid string) (domain.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[uid]
	return u, ok, nil
}

func (s *PresenceStore) DeleteUser(_ context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, uid)
	return nil
}
