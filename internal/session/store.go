// Package session holds the console's authenticated identity and restores it
// from a persisted token on start.
package session

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yourorg/orderdesk/internal/domain"
)

// Session is the authenticated identity held for one console session.
// Authenticated implies a non-empty Token and a known Role.
type Session struct {
	Token         string
	Authenticated bool
	Email         string
	Role          domain.Role
	ExpiresAt     time.Time // zero when the token carries no exp claim
}

// Expired reports whether the token's exp claim is in the past.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Reader is the read capability handed to views.
type Reader interface {
	Snapshot() Session
	Token() string
}

// Writer is the write capability used by login, logout and bootstrap.
type Writer interface {
	SetToken(token string)
	SetAuthenticated(authenticated bool)
	SetEmail(email string)
	SetRole(role domain.Role)
	Establish(token, email string, role domain.Role)
	Reset()
}

// Store is the session container. Setters do not validate; callers keep the
// fields consistent (Establish does so in one step).
type Store struct {
	mu      sync.RWMutex
	current Session
}

// NewStore returns an empty, unauthenticated store.
func NewStore() *Store {
	return &Store{}
}

func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Token
}

func (s *Store) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Token = token
	s.current.ExpiresAt = tokenExpiry(token)
}

func (s *Store) SetAuthenticated(authenticated bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Authenticated = authenticated
}

func (s *Store) SetEmail(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Email = email
}

func (s *Store) SetRole(role domain.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Role = role
}

// Establish sets every field of an authenticated session at once.
func (s *Store) Establish(token, email string, role domain.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Session{
		Token:         token,
		Authenticated: true,
		Email:         email,
		Role:          role,
		ExpiresAt:     tokenExpiry(token),
	}
}

// Reset clears every field.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Session{}
}

// tokenExpiry reads the exp claim without verifying the signature; the
// backend is the verifier. Opaque tokens yield the zero time.
func tokenExpiry(token string) time.Time {
	if token == "" {
		return time.Time{}
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
