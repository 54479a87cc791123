package application

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// maxTokenAttempts bounds regeneration when a generator keeps colliding.
const maxTokenAttempts = 8

// SessionStore is the process-wide, in-memory token table. Sessions are never
// persisted and do not expire.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	newToken func() string
}

// NewSessionStore constructs an empty store. A nil generator yields random
// UUIDv4 tokens.
func NewSessionStore(tokenGenerator func() string) *SessionStore {
	if tokenGenerator == nil {
		tokenGenerator = uuid.NewString
	}
	return &SessionStore{
		sessions: make(map[string]Session),
		newToken: tokenGenerator,
	}
}

// Create records a session for username under a token that is unique among
// active sessions.
func (s *SessionStore) Create(username string, now time.Time) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := s.newToken()
	for attempt := 1; token == "" || s.exists(token); attempt++ {
		if attempt >= maxTokenAttempts {
			token = uuid.NewString()
			continue
		}
		token = s.newToken()
	}

	session := Session{Token: token, Username: username, CreatedAt: now}
	s.sessions[token] = session
	return session
}

func (s *SessionStore) exists(token string) bool {
	_, ok := s.sessions[token]
	return ok
}

// Lookup returns the session registered under token.
func (s *SessionStore) Lookup(token string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	return session, ok
}

// Delete removes a session and reports whether it existed.
func (s *SessionStore) Delete(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[token]; !ok {
		return false
	}
	delete(s.sessions, token)
	return true
}

// Clear removes every session and returns how many were dropped.
func (s *SessionStore) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.sessions)
	s.sessions = make(map[string]Session)
	return n
}

// Count returns the number of active sessions.
func (s *SessionStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
