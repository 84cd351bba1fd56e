package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the default single-process session store: a mutex-guarded
// map with lazy expiry eviction on read.
type MemoryStore struct {
	mu sync.RWMutex
	m  map[string]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m: make(map[string]Session),
	}
}

func (s *MemoryStore) Save(ctx context.Context, sess Session) error {
	s.mu.Lock()
	s.m[sess.ID] = sess
	s.mu.Unlock()

	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Session, error) {
	now := time.Now()

	s.mu.RLock()
	sess, ok := s.m[id]
	s.mu.RUnlock()

	if !ok {
		return Session{}, ErrSessionNotFound
	}

	if now.After(sess.ExpiresAt) {
		s.mu.Lock()
		delete(s.m, id)
		s.mu.Unlock()

		return Session{}, ErrSessionNotFound
	}

	return sess, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.m, id)
	s.mu.Unlock()

	return nil
}
