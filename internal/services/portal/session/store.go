package session

import (
	"context"
	"sync"
	"time"
)

// memoryStore is a thread-safe in-memory session store.
type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sessions: make(map[string]*Session)}
}

func (s *memoryStore) put(sess Session) {
	s.mu.Lock()
	s.sessions[sess.ID] = &sess
	s.mu.Unlock()
}

// get returns a copy of the session and whether it exists.
func (s *memoryStore) get(id string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// update applies fn to a stored session under the write lock.
func (s *memoryStore) update(id string, fn func(*Session)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	fn(sess)
	return true
}

func (s *memoryStore) delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// deletePrincipal removes every session held by principalID and returns
// their IDs.
func (s *memoryStore) deletePrincipal(principalID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []string
	for id, sess := range s.sessions {
		if sess.Principal.ID == principalID {
			delete(s.sessions, id)
			removed = append(removed, id)
		}
	}
	return removed
}

// expire removes sessions whose expiry is not after now and returns their IDs.
func (s *memoryStore) expire(now time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []string
	for id, sess := range s.sessions {
		if !now.Before(sess.ExpiresAt) {
			delete(s.sessions, id)
			removed = append(removed, id)
		}
	}
	return removed
}

func (s *memoryStore) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// sweep runs expire every interval until ctx is done.
func sweep(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
