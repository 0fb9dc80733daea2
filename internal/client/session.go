// AngelaMos | 2026
// session.go

package client

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/carterperez-dev/forum-api/internal/membership"
	"github.com/carterperez-dev/forum-api/internal/policy"
)

// Principal is what the identity provider hands back on sign-in.
type Principal struct {
	Email       string
	DisplayName string
	PhotoURL    string
	AccessToken string
}

// User is the authoritative record as the API returns it.
type User struct {
	ID              string          `json:"id"`
	Email           string          `json:"email"`
	Name            string          `json:"name"`
	PhotoURL        string          `json:"photo_url"`
	Role            string          `json:"role"`
	Member          membership.Tier `json:"member"`
	MemberExpiresAt *time.Time      `json:"member_expires_at,omitempty"`
}

// Session is the single owner of the signed-in principal and its user
// record. Policy checks read it through Snapshot, never directly.
//
// gen changes on every SignIn and Invalidate. Responses to requests made
// under an earlier generation are discarded on arrival.
type Session struct {
	mu         sync.RWMutex
	gen        uint64
	principal  *Principal
	user       *User
	failClosed bool
}

func NewSession() *Session {
	return &Session{}
}

// SignIn starts a session for p. The user record is loaded by Refresh.
func (s *Session) SignIn(p Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	s.gen++
	s.principal = &p
	s.user = nil
	s.failClosed = false
}

// Invalidate tears the session down, as on sign-out or an expired token.
func (s *Session) Invalidate() {
	if s == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// invalidateIf tears the session down only if it is still generation gen.
func (s *Session) invalidateIf(gen uint64) {
	if s == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen {
		s.reset()
	}
}

func (s *Session) reset() {
	s.gen++
	s.principal = nil
	s.user = nil
	s.failClosed = false
}

// credentials returns the bearer token together with its generation.
func (s *Session) credentials() (string, uint64) {
	if s == nil {
		return "", 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.principal == nil {
		return "", s.gen
	}
	return s.principal.AccessToken, s.gen
}

func (s *Session) generation() uint64 {
	_, gen := s.credentials()
	return gen
}

func (s *Session) Active() bool {
	if s == nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.principal != nil
}

func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.ID
}

// Refresh replaces the user record with a fresh read from the API.
func (s *Session) Refresh(ctx context.Context, c *Client) error {
	return s.refresh(ctx, c, s.generation())
}

func (s *Session) refresh(ctx context.Context, c *Client, gen uint64) error {
	if !s.Active() {
		return ErrAuthExpired
	}

	var u User
	if err := c.get(ctx, "/v1/users/me", &u); err != nil {
		return fmt.Errorf("refresh session: %w", err)
	}

	if !s.apply(gen, u) {
		return fmt.Errorf("refresh session: %w", ErrSuperseded)
	}
	return nil
}

// apply stores an authoritative record fetched under generation gen and
// clears the fail-closed flag. A record for an earlier generation, or one
// for a different email than the signed-in principal, is dropped.
func (s *Session) apply(gen uint64, u User) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.principal == nil || s.gen != gen ||
		!strings.EqualFold(strings.TrimSpace(u.Email), s.principal.Email) {
		return false
	}
	s.user = &u
	s.failClosed = false
	return true
}

func (s *Session) markFailClosed(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen {
		s.failClosed = true
	}
}

func (s *Session) FailedClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failClosed
}

// Snapshot returns a copy for policy checks, or nil when no user record
// is loaded.
func (s *Session) Snapshot() *policy.Session {
	if s == nil {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.principal == nil || s.user == nil {
		return nil
	}

	snap := &policy.Session{
		UserID:     s.user.ID,
		Email:      s.user.Email,
		Name:       s.user.Name,
		Image:      s.user.PhotoURL,
		Role:       s.user.Role,
		Member:     s.user.Member,
		FailClosed: s.failClosed,
	}
	if s.user.MemberExpiresAt != nil {
		exp := *s.user.MemberExpiresAt
		snap.MemberExpiresAt = &exp
	}

	return snap
}
