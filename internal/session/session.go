// Package session holds the BFF session: who is signed in, with which
// upstream token and role. Every view and gateway call receives the session
// explicitly; nothing reads it from ambient state.
package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/polytech/coursedesk/internal/model"
)

// ErrNotFound is returned by stores for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// State is the lifecycle position of a session.
type State string

const (
	StateAnonymous     State = "ANONYMOUS"
	StateAuthenticated State = "AUTHENTICATED"
)

// Session is one signed-in browser (or terminal) client.
type Session struct {
	ID          string     `json:"id"`
	State       State      `json:"state"`
	AccessToken string     `json:"access_token,omitempty"`
	UserID      model.ID   `json:"user_id,omitempty"`
	Role        model.Role `json:"role,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
}

// Anonymous returns the session of a client that has not signed in.
func Anonymous() *Session {
	return &Session{State: StateAnonymous}
}

// New builds an authenticated session from a sign-in or sign-up response.
func New(auth model.AuthResponse, now, expiresAt time.Time) *Session {
	return &Session{
		ID:          uuid.New().String(),
		State:       StateAuthenticated,
		AccessToken: auth.AccessToken,
		UserID:      auth.UserID,
		Role:        auth.Role,
		CreatedAt:   now,
		ExpiresAt:   expiresAt,
	}
}

// Authenticated reports whether the session carries an upstream token.
func (s *Session) Authenticated() bool {
	return s != nil && s.State == StateAuthenticated && s.AccessToken != ""
}

// IsTeacher reports whether the signed-in user is an instructor.
func (s *Session) IsTeacher() bool {
	return s.Authenticated() && s.Role == model.RoleInstructor
}

// Token returns the upstream bearer token, or "" for anonymous sessions.
func (s *Session) Token() string {
	if !s.Authenticated() {
		return ""
	}
	return s.AccessToken
}

// TTL returns the remaining lifetime relative to now, never negative.
func (s *Session) TTL(now time.Time) time.Duration {
	if s.ExpiresAt.IsZero() {
		return 0
	}
	if d := s.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Expired reports whether the session outlived its expiry.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// SignOut returns the session to the anonymous state.
func (s *Session) SignOut() {
	s.State = StateAnonymous
	s.AccessToken = ""
	s.UserID = ""
	s.Role = ""
}
