// AngelaMos | 2026
// service.go

package tag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/forum-api/internal/core"
	"github.com/carterperez-dev/forum-api/internal/policy"
)

const cacheNamespace = "tags"

type Service struct {
	repo   Repository
	policy *policy.Policy
	cache  *core.Cache
}

func NewService(repo Repository, pol *policy.Policy, cache *core.Cache) *Service {
	return &Service{
		repo:   repo,
		policy: pol,
		cache:  cache,
	}
}

// List is served from the cache. Every write bumps the namespace version,
// so a tag is searchable as soon as its create returns.
func (s *Service) List(ctx context.Context, search string) ([]Tag, error) {
	search = NormalizeName(search)

	return core.GetOrLoadJSON(ctx, s.cache, cacheNamespace, search,
		func(ctx context.Context) ([]Tag, error) {
			return s.repo.List(ctx, search)
		})
}

func (s *Service) Exists(ctx context.Context, name string) (bool, error) {
	return s.repo.ExistsByName(ctx, NormalizeName(name))
}

func (s *Service) Create(ctx context.Context, sess *policy.Session, name string) (*Tag, error) {
	if err := s.policy.Authorize(sess, policy.ActionManageTags, policy.Target{}); err != nil {
		return nil, err
	}

	tag, err := build(name)
	if err != nil {
		return nil, err
	}
	tag.ID = uuid.New().String()

	if err := s.repo.Create(ctx, tag); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return tag, nil
}

func (s *Service) Rename(
	ctx context.Context,
	sess *policy.Session,
	id, name string,
) (*Tag, error) {
	if err := s.policy.Authorize(sess, policy.ActionManageTags, policy.Target{}); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := build(name)
	if err != nil {
		return nil, err
	}
	next.ID = current.ID
	next.CreatedAt = current.CreatedAt

	if err := s.repo.Rename(ctx, next, current.Name); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return next, nil
}

func (s *Service) Delete(ctx context.Context, sess *policy.Session, id string) error {
	if err := s.policy.Authorize(sess, policy.ActionManageTags, policy.Target{}); err != nil {
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
		slog.WarnContext(ctx, "tag cache invalidation failed", "error", err)
	}
}

func build(name string) (*Tag, error) {
	normalized := NormalizeName(name)
	slug := Slugify(normalized)
	if normalized == "" || slug == "" {
		return nil, fmt.Errorf("tag name %q: %w", strings.TrimSpace(name), core.ErrInvalidInput)
	}

	return &Tag{Name: normalized, Slug: slug}, nil
}
