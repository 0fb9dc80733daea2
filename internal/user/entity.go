// AngelaMos | 2026
// entity.go

package user

import (
	"time"

	"github.com/carterperez-dev/forum-api/internal/membership"
	"github.com/carterperez-dev/forum-api/internal/policy"
)

type User struct {
	ID              string          `db:"id"`
	Email           string          `db:"email"`
	PasswordHash    string          `db:"password_hash"`
	Name            string          `db:"name"`
	PhotoURL        string          `db:"photo_url"`
	About           string          `db:"about"`
	Role            string          `db:"role"`
	Member          membership.Tier `db:"member"`
	MemberExpiresAt *time.Time      `db:"member_expires_at"`
	TokenVersion    int             `db:"token_version"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
	DeletedAt       *time.Time      `db:"deleted_at"`
}

func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

func (u *User) IsAdmin() bool {
	return u.Role == policy.RoleAdmin || u.Role == policy.RoleSuperAdmin
}

// Session is the policy view of this record.
func (u *User) Session() *policy.Session {
	return &policy.Session{
		UserID:          u.ID,
		Email:           u.Email,
		Name:            u.Name,
		Image:           u.PhotoURL,
		Role:            u.Role,
		Member:          u.Member,
		MemberExpiresAt: u.MemberExpiresAt,
	}
}

func (u *User) Membership() membership.Record {
	return membership.Record{Tier: u.Member, ExpiresAt: u.MemberExpiresAt}
}
