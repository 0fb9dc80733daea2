// AngelaMos | 2026
// service.go

package announcement

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/forum-api/internal/core"
	"github.com/carterperez-dev/forum-api/internal/policy"
)

const cacheNamespace = "announcements"

type Service struct {
	repo   Repository
	policy *policy.Policy
	cache  *core.Cache
}

func NewService(repo Repository, pol *policy.Policy, cache *core.Cache) *Service {
	return &Service{repo: repo, policy: pol, cache: cache}
}

func (s *Service) List(ctx context.Context) ([]Announcement, error) {
	return core.GetOrLoadJSON(ctx, s.cache, cacheNamespace, "all", s.repo.List)
}

func (s *Service) Get(ctx context.Context, id string) (*Announcement, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return core.GetOrLoadJSON(ctx, s.cache, cacheNamespace, "count", s.repo.Count)
}

// Create publishes an announcement under the acting admin's name and photo.
func (s *Service) Create(
	ctx context.Context,
	sess *policy.Session,
	req CreateRequest,
) (*Announcement, error) {
	if err := s.policy.Authorize(sess, policy.ActionManageAnnouncements, policy.Target{}); err != nil {
		return nil, err
	}

	a := &Announcement{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(req.Title),
		Content:     req.Content,
		AuthorName:  sess.Name,
		AuthorImage: sess.Image,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return a, nil
}

func (s *Service) Update(
	ctx context.Context,
	sess *policy.Session,
	id string,
	req UpdateRequest,
) (*Announcement, error) {
	if err := s.policy.Authorize(sess, policy.ActionManageAnnouncements, policy.Target{}); err != nil {
		return nil, err
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		a.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		a.Content = *req.Content
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return a, nil
}

func (s *Service) Delete(ctx context.Context, sess *policy.Session, id string) error {
	if err := s.policy.Authorize(sess, policy.ActionManageAnnouncements, policy.Target{}); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, cacheNamespace); err != nil {
		slog.WarnContext(ctx, "announcement cache invalidation failed", "error", err)
	}
}
