package client

import (
	"sync"
	"time"
)

// Session is the process local holder of the current token pair.
// The authenticated flag is observable: subscribers are notified whenever
// the flag flips, so application code can react to a forced logout without
// polling
type Session struct {
	mu sync.Mutex

	accessToken      string
	accessExpiresAt  time.Time
	refreshToken     string
	refreshExpiresAt time.Time

	subscribers []func(authenticated bool)
}

func NewSession() *Session {
	return &Session{}
}

// Subscribe registers a callback for authenticated flag changes.
// The callback fires immediately with the current value and then on every
// flip. It is invoked under the session lock: keep it fast and never call
// back into the session from it
func (s *Session) Subscribe(fn func(authenticated bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscribers = append(s.subscribers, fn)
	fn(s.accessToken != "")
}

// SetPair stores a fresh token pair
func (s *Session) SetPair(access string, accessExpiresAt time.Time, refresh string, refreshExpiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasAuthenticated := s.accessToken != ""

	s.accessToken = access
	s.accessExpiresAt = accessExpiresAt
	s.refreshToken = refresh
	s.refreshExpiresAt = refreshExpiresAt

	if !wasAuthenticated {
		s.notify(true)
	}
}

// Clear drops both tokens and marks the session unauthenticated
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasAuthenticated := s.accessToken != ""

	s.accessToken = ""
	s.accessExpiresAt = time.Time{}
	s.refreshToken = ""
	s.refreshExpiresAt = time.Time{}

	if wasAuthenticated {
		s.notify(false)
	}
}

// Authenticated reports whether an access token is present
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken != ""
}

func (s *Session) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken
}

func (s *Session) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshToken
}

func (s *Session) notify(authenticated bool) {
	for _, fn := range s.subscribers {
		fn(authenticated)
	}
}
