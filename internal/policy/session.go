// AngelaMos | 2026
// session.go

package policy

import (
	"strings"
	"time"

	"github.com/carterperez-dev/forum-api/internal/membership"
)

const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super-admin"
)

func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin || role == RoleSuperAdmin
}

// Session is the acting principal together with the user record it
// resolved to. It is passed explicitly to every check; a nil *Session is
// an anonymous visitor.
type Session struct {
	UserID          string
	Email           string
	Name            string
	Image           string
	Role            string
	Member          membership.Tier
	MemberExpiresAt *time.Time
	// FailClosed is set when the membership could not be reconciled; the
	// session is then treated as bronze regardless of the stored tier.
	FailClosed bool
}

func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != "" && s.Email != ""
}

func (s *Session) IsAdmin() bool {
	return s.Authenticated() &&
		(s.Role == RoleAdmin || s.Role == RoleSuperAdmin)
}

func (s *Session) IsSuperAdmin() bool {
	return s.Authenticated() && s.Role == RoleSuperAdmin
}

func (s *Session) EffectiveTier(now time.Time) membership.Tier {
	if !s.Authenticated() || s.FailClosed {
		return membership.Bronze
	}
	return membership.Effective(s.Member, s.MemberExpiresAt, now)
}

// Owns reports whether email identifies this session's user.
func (s *Session) Owns(email string) bool {
	return s.Authenticated() && email != "" && strings.EqualFold(s.Email, email)
}
