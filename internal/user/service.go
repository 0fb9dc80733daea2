// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/forum-api/internal/auth"
	"github.com/carterperez-dev/forum-api/internal/core"
	"github.com/carterperez-dev/forum-api/internal/membership"
	"github.com/carterperez-dev/forum-api/internal/policy"
)

type Notifier interface {
	Notify(ctx context.Context, userID, text, link string) error
}

type Service struct {
	repo     Repository
	policy   *policy.Policy
	members  *membership.Service
	notifier Notifier
}

func NewService(
	repo Repository,
	pol *policy.Policy,
	members *membership.Service,
	notifier Notifier,
) *Service {
	return &Service{
		repo:     repo,
		policy:   pol,
		members:  members,
		notifier: notifier,
	}
}

func (s *Service) now() time.Time {
	if s.members != nil {
		return s.members.Now()
	}
	return time.Now()
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) Create(
	ctx context.Context,
	email, passwordHash, name string,
) (*auth.UserInfo, error) {
	user := &User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
		Name:         name,
		Role:         policy.RoleUser,
		Member:       membership.Bronze,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

// UpsertFederated maps an external principal onto the internal record,
// keyed by lower-cased email. New accounts start as bronze users.
func (s *Service) UpsertFederated(
	ctx context.Context,
	principal auth.Principal,
) (*auth.UserInfo, error) {
	user, err := s.repo.UpsertFederated(ctx, &User{
		ID:       uuid.New().String(),
		Email:    strings.ToLower(strings.TrimSpace(principal.Email)),
		Name:     principal.Name,
		PhotoURL: principal.PhotoURL,
		Role:     policy.RoleUser,
		Member:   membership.Bronze,
	})
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) IncrementTokenVersion(
	ctx context.Context,
	userID string,
) error {
	return s.repo.IncrementTokenVersion(ctx, userID)
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

// ResolveSession builds the policy session from the current record.
func (s *Service) ResolveSession(
	ctx context.Context,
	userID string,
) (*policy.Session, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Session(), nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByEmailPublic(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (s *Service) UpdateMe(
	ctx context.Context,
	sess *policy.Session,
	req UpdateUserRequest,
) (*User, error) {
	if !sess.Authenticated() {
		return nil, fmt.Errorf("update me: %w", core.ErrUnauthorized)
	}

	user, err := s.repo.GetByID(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.PhotoURL != nil {
		user.PhotoURL = *req.PhotoURL
	}
	if req.About != nil {
		user.About = *req.About
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) DeleteMe(ctx context.Context, sess *policy.Session) error {
	if !sess.Authenticated() {
		return fmt.Errorf("delete me: %w", core.ErrUnauthorized)
	}

	return s.repo.SoftDelete(ctx, sess.UserID)
}

func (s *Service) ListUsers(
	ctx context.Context,
	sess *policy.Session,
	params ListUsersParams,
) ([]User, int, error) {
	if err := s.policy.Authorize(sess, policy.ActionListMembers, policy.Target{}); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, params)
}

// ChangeRole lets a super-admin promote or demote another account. The
// actor's own role can never be changed, whatever the requested value.
func (s *Service) ChangeRole(
	ctx context.Context,
	sess *policy.Session,
	targetID, role string,
) (*User, error) {
	err := s.policy.Authorize(sess, policy.ActionChangeRole, policy.Target{
		User: &policy.UserRef{ID: targetID},
	})
	if err != nil {
		return nil, err
	}

	if role != policy.RoleUser && role != policy.RoleAdmin {
		return nil, fmt.Errorf(
			"change role: invalid role %q: %w",
			role,
			core.ErrInvalidInput,
		)
	}

	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if target.Role == policy.RoleSuperAdmin {
		return nil, fmt.Errorf("change role: target is super-admin: %w", core.ErrForbidden)
	}

	if target.Role == role {
		return target, nil
	}

	if err := s.repo.UpdateRole(ctx, targetID, role); err != nil {
		return nil, err
	}
	target.Role = role

	slog.InfoContext(ctx, "role changed",
		"actor_id", sess.UserID,
		"target_id", targetID,
		"role", role,
	)

	if s.notifier != nil {
		text := fmt.Sprintf("Your role was changed to %s.", role)
		if err := s.notifier.Notify(ctx, targetID, text, "/dashboard"); err != nil {
			slog.WarnContext(ctx, "role change notification failed", "error", err)
		}
	}

	return target, nil
}

// CheckMembership runs the idempotent check-and-downgrade for targetID and
// returns the authoritative record read afterwards.
func (s *Service) CheckMembership(
	ctx context.Context,
	sess *policy.Session,
	targetID string,
) (*User, error) {
	err := s.policy.Authorize(sess, policy.ActionCheckMembership, policy.Target{
		User: &policy.UserRef{ID: targetID},
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.members.CheckAndDowngrade(ctx, targetID); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, targetID)
}

func (s *Service) EmailExists(
	ctx context.Context,
	email string,
) (bool, error) {
	return s.repo.ExistsByEmail(ctx, email)
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PhotoURL:     u.PhotoURL,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		Member:       string(u.Member),
		TokenVersion: u.TokenVersion,
		CreatedAt:    u.CreatedAt,
	}
}

var _ auth.UserProvider = (*Service)(nil)
