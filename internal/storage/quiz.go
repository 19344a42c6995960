package storage

import (
	"sync"
	"time"

	"github.com/aliskhannn/quiz-engine/internal/service"
)

// SessionStorage keeps the live quiz session of every user in memory.
type SessionStorage struct {
	mu       sync.RWMutex
	sessions map[int64]*service.Session
}

// NewSessionStorage creates a new SessionStorage.
func NewSessionStorage() *SessionStorage {
	return &SessionStorage{
		sessions: make(map[int64]*service.Session),
	}
}

// Get returns the session of a user.
func (s *SessionStorage) Get(userID int64) (*service.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[userID]
	return session, ok
}

// Store saves the session of a user. A previous session is discarded.
func (s *SessionStorage) Store(userID int64, session *service.Session) {
	s.mu.Lock()
	prev, hadPrev := s.sessions[userID]
	s.sessions[userID] = session
	s.mu.Unlock()

	if hadPrev && prev != session {
		prev.Discard()
	}
}

// Delete discards and removes the session of a user.
func (s *SessionStorage) Delete(userID int64) {
	s.mu.Lock()
	session, ok := s.sessions[userID]
	delete(s.sessions, userID)
	s.mu.Unlock()

	if ok {
		session.Discard()
	}
}

// Len returns the number of stored sessions.
func (s *SessionStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// SweepIdle discards and removes sessions without activity for longer than ttl.
// It returns the ids of the affected users.
// Session locks are never taken while the registry lock is held.
func (s *SessionStorage) SweepIdle(now time.Time, ttl time.Duration) []int64 {
	s.mu.RLock()
	candidates := make([]*service.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		candidates = append(candidates, session)
	}
	s.mu.RUnlock()

	var idle []*service.Session
	for _, session := range candidates {
		if now.Sub(session.LastActivity()) > ttl {
			idle = append(idle, session)
		}
	}
	if len(idle) == 0 {
		return nil
	}

	s.mu.Lock()
	stale := idle[:0]
	for _, session := range idle {
		// Skip users whose session was replaced meanwhile.
		if s.sessions[session.UserID()] == session {
			delete(s.sessions, session.UserID())
			stale = append(stale, session)
		}
	}
	s.mu.Unlock()

	// Discard notifies observers, which may call back into the storage.
	userIDs := make([]int64, 0, len(stale))
	for _, session := range stale {
		session.Discard()
		userIDs = append(userIDs, session.UserID())
	}
	return userIDs
}
