// AngelaMos | 2026
// service.go

package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/forum-api/internal/core"
	"github.com/carterperez-dev/forum-api/internal/policy"
)

type Service struct {
	repo   Repository
	policy *policy.Policy
}

func NewService(repo Repository, pol *policy.Policy) *Service {
	return &Service{repo: repo, policy: pol}
}

func (s *Service) Notify(ctx context.Context, userID, text, link string) error {
	return s.repo.Create(ctx, &Notification{
		ID:     uuid.New().String(),
		UserID: userID,
		Text:   text,
		Link:   link,
	})
}

func (s *Service) NotifyEmail(ctx context.Context, email, text, link string) error {
	return s.repo.CreateForEmail(ctx, &Notification{
		ID:   uuid.New().String(),
		Text: text,
		Link: link,
	}, strings.ToLower(strings.TrimSpace(email)))
}

func (s *Service) List(
	ctx context.Context,
	sess *policy.Session,
	params core.PageParams,
) ([]Notification, int, error) {
	if !sess.Authenticated() {
		return nil, 0, fmt.Errorf("list notifications: %w", core.ErrUnauthorized)
	}
	return s.repo.List(ctx, sess.UserID, params)
}

func (s *Service) UnreadCount(ctx context.Context, sess *policy.Session) (int, error) {
	if !sess.Authenticated() {
		return 0, fmt.Errorf("unread count: %w", core.ErrUnauthorized)
	}
	return s.repo.UnreadCount(ctx, sess.UserID)
}

// MarkRead marks one of the session user's notifications read.
func (s *Service) MarkRead(ctx context.Context, sess *policy.Session, id string) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.policy.Authorize(sess, policy.ActionReadNotification, policy.Target{
		User: &policy.UserRef{ID: n.UserID},
	}); err != nil {
		return err
	}

	if n.Read {
		return nil
	}

	return s.repo.MarkRead(ctx, id)
}

func (s *Service) MarkAllRead(ctx context.Context, sess *policy.Session) (int64, error) {
	if !sess.Authenticated() {
		return 0, fmt.Errorf("mark all read: %w", core.ErrUnauthorized)
	}
	return s.repo.MarkAllRead(ctx, sess.UserID)
}
