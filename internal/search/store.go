package search

import (
	"sync"
	"time"
)

// SessionStore keeps one session per owner (an API user or a chat).
type SessionStore struct {
	fetcher Fetcher
	timeout time.Duration

	sessions map[string]*Session
	mu       sync.RWMutex
}

func NewSessionStore(fetcher Fetcher, timeout time.Duration) *SessionStore {
	return &SessionStore{
		fetcher:  fetcher,
		timeout:  timeout,
		sessions: make(map[string]*Session),
	}
}

// Get returns the owner's session, creating a closed one on first use.
func (s *SessionStore) Get(owner string) *Session {
	s.mu.RLock()
	session, exists := s.sessions[owner]
	s.mu.RUnlock()
	if exists {
		return session
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if session, exists = s.sessions[owner]; exists {
		return session
	}
	session = NewSession(s.fetcher, s.timeout)
	s.sessions[owner] = session
	return session
}

func (s *SessionStore) Lookup(owner string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessions[owner]
	return session, exists
}

// Shutdown closes every session and waits for their fetches to return.
func (s *SessionStore) Shutdown() {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, session := range sessions {
		session.Shutdown()
	}
}
