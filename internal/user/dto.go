// AngelaMos | 2026
// dto.go

package user

import (
	"time"

	"github.com/carterperez-dev/forum-api/internal/core"
	"github.com/carterperez-dev/forum-api/internal/membership"
)

type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty"      validate:"omitempty,min=1,max=100"`
	PhotoURL *string `json:"photo_url,omitempty" validate:"omitempty,url,max=2048"`
	About    *string `json:"about,omitempty"     validate:"omitempty,max=1000"`
}

// Super-admin is never granted through the API.
type UpdateUserRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

type UserResponse struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Name            string     `json:"name"`
	PhotoURL        string     `json:"photo_url"`
	About           string     `json:"about"`
	Role            string     `json:"role"`
	Member          string     `json:"member"`
	MemberExpiresAt *time.Time `json:"member_expires_at,omitempty"`
	EffectiveMember string     `json:"effective_member"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// PublicUserResponse is what other members may see of an account.
type PublicUserResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	PhotoURL string `json:"photo_url"`
	About    string `json:"about"`
	Member   string `json:"member"`
}

type ListUsersParams struct {
	core.PageParams
	Role   string
	Member string
}

func ToUserResponse(u *User, now time.Time) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Email:           u.Email,
		Name:            u.Name,
		PhotoURL:        u.PhotoURL,
		About:           u.About,
		Role:            u.Role,
		Member:          string(u.Member),
		MemberExpiresAt: u.MemberExpiresAt,
		EffectiveMember: string(
			membership.Effective(u.Member, u.MemberExpiresAt, now),
		),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func ToPublicUserResponse(u *User, now time.Time) PublicUserResponse {
	return PublicUserResponse{
		ID:       u.ID,
		Email:    u.Email,
		Name:     u.Name,
		PhotoURL: u.PhotoURL,
		About:    u.About,
		Member:   string(membership.Effective(u.Member, u.MemberExpiresAt, now)),
	}
}

func ToUserResponseList(users []User, now time.Time) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, ToUserResponse(&users[i], now))
	}
	return responses
}
