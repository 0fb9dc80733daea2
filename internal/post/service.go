// AngelaMos | 2026
// service.go

package post

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/forum-api/internal/core"
	"github.com/carterperez-dev/forum-api/internal/policy"
)

const (
	relatedLimit      = 6
	authorRecentLimit = 3
)

// TagVocabulary reports whether a tag name is one the forum knows.
type TagVocabulary interface {
	Exists(ctx context.Context, name string) (bool, error)
}

type Service struct {
	repo   Repository
	policy *policy.Policy
	tags   TagVocabulary
}

func NewService(repo Repository, pol *policy.Policy, tags TagVocabulary) *Service {
	return &Service{
		repo:   repo,
		policy: pol,
		tags:   tags,
	}
}

// Create inserts a post for the session's user. Role and quota are
// re-checked against the author row locked inside the insert transaction,
// so the ceiling holds even for parallel submissions.
func (s *Service) Create(
	ctx context.Context,
	sess *policy.Session,
	req CreatePostRequest,
) (*Post, error) {
	ctx, span := core.StartSpan(ctx, "post.create")
	defer span.End()

	if err := s.policy.Authorize(sess, policy.ActionCreatePost, policy.Target{}); err != nil {
		return nil, err
	}

	tag := strings.ToLower(strings.TrimSpace(req.Tag))
	if err := s.requireTag(ctx, tag); err != nil {
		return nil, err
	}

	post := &Post{
		ID:          uuid.New().String(),
		AuthorEmail: strings.ToLower(sess.Email),
		AuthorName:  sess.Name,
		AuthorImage: sess.Image,
		Title:       strings.TrimSpace(req.Title),
		Content:     req.Content,
		Tag:         tag,
		Public:      req.Public == nil || *req.Public,
	}

	err := s.repo.CreateWithQuota(ctx, post, func(author Author, count int) error {
		locked := *sess
		locked.Role = author.Role
		locked.Member = author.Member
		locked.MemberExpiresAt = author.MemberExpiresAt

		return s.policy.Authorize(&locked, policy.ActionCreatePost, policy.Target{
			OwnPostCount: count,
		})
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	core.AddSpanEvent(ctx, "post.created", attribute.String("post.id", post.ID))
	slog.InfoContext(ctx, "post created",
		"post_id", post.ID,
		"author", post.AuthorEmail,
	)

	return post, nil
}

// Get returns the post if the session may view it.
func (s *Service) Get(ctx context.Context, sess *policy.Session, id string) (*Post, error) {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.policy.Authorize(sess, policy.ActionViewPost, policy.Target{
		Post: post.Ref(),
	}); err != nil {
		return nil, err
	}

	return post, nil
}

// PostRef resolves the policy view of a post for other modules.
func (s *Service) PostRef(ctx context.Context, id string) (*policy.PostRef, error) {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return post.Ref(), nil
}

func (s *Service) Update(
	ctx context.Context,
	sess *policy.Session,
	id string,
	req UpdatePostRequest,
) (*Post, error) {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.policy.Authorize(sess, policy.ActionEditPost, policy.Target{
		Post: post.Ref(),
	}); err != nil {
		return nil, err
	}

	if req.Title != nil {
		post.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		post.Content = *req.Content
	}

	if err := s.repo.Update(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

func (s *Service) SetVisibility(
	ctx context.Context,
	sess *policy.Session,
	id string,
	public bool,
) (*Post, error) {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.policy.Authorize(sess, policy.ActionChangeVisibility, policy.Target{
		Post: post.Ref(),
	}); err != nil {
		return nil, err
	}

	if post.Public == public {
		return post, nil
	}

	if err := s.repo.SetVisibility(ctx, id, public); err != nil {
		return nil, err
	}
	post.Public = public

	return post, nil
}

func (s *Service) Delete(ctx context.Context, sess *policy.Session, id string) error {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.policy.Authorize(sess, policy.ActionDeletePost, policy.Target{
		Post: post.Ref(),
	}); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	slog.InfoContext(ctx, "post deleted",
		"post_id", id,
		"actor_id", sess.UserID,
		"orphaned", post.AuthorMissing,
	)

	return nil
}

func (s *Service) Vote(
	ctx context.Context,
	sess *policy.Session,
	id string,
	value int,
) (*Tally, error) {
	if value < -1 || value > 1 {
		return nil, fmt.Errorf("vote: value %d: %w", value, core.ErrInvalidInput)
	}

	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.policy.Authorize(sess, policy.ActionVotePost, policy.Target{
		Post: post.Ref(),
	}); err != nil {
		return nil, err
	}

	return s.repo.Vote(ctx, id, strings.ToLower(sess.Email), value)
}

// CountMine is the exact post count clients read right before submitting.
func (s *Service) CountMine(ctx context.Context, sess *policy.Session) (int, error) {
	if !sess.Authenticated() {
		return 0, fmt.Errorf("count posts: %w", core.ErrUnauthorized)
	}
	return s.repo.CountByAuthor(ctx, strings.ToLower(sess.Email))
}

func (s *Service) ListPublic(ctx context.Context, params ListParams) ([]Post, int, error) {
	if params.Sort != SortPopularity {
		params.Sort = SortNewest
	}
	return s.repo.ListPublic(ctx, params)
}

func (s *Service) ListMine(
	ctx context.Context,
	sess *policy.Session,
	params ListParams,
) ([]Post, int, error) {
	if !sess.Authenticated() {
		return nil, 0, fmt.Errorf("list my posts: %w", core.ErrUnauthorized)
	}
	return s.repo.ListByAuthor(ctx, strings.ToLower(sess.Email), params)
}

func (s *Service) ListAll(
	ctx context.Context,
	sess *policy.Session,
	params ListParams,
) ([]Post, int, error) {
	if err := s.policy.Authorize(sess, policy.ActionListAllPosts, policy.Target{}); err != nil {
		return nil, 0, err
	}
	return s.repo.ListAll(ctx, params)
}

func (s *Service) Related(ctx context.Context, tag, exceptID string) ([]Post, error) {
	return s.repo.ListRelated(ctx, strings.ToLower(strings.TrimSpace(tag)), exceptID, relatedLimit)
}

// RecentByAuthor returns the author's most recent public posts.
func (s *Service) RecentByAuthor(ctx context.Context, email string) ([]Post, error) {
	return s.repo.ListRecentPublicByAuthor(
		ctx,
		strings.ToLower(strings.TrimSpace(email)),
		authorRecentLimit,
	)
}

func (s *Service) requireTag(ctx context.Context, tag string) error {
	if s.tags == nil {
		return nil
	}

	ok, err := s.tags.Exists(ctx, tag)
	if err != nil {
		return fmt.Errorf("check tag: %w", err)
	}
	if !ok {
		return fmt.Errorf("unknown tag %q: %w", tag, core.ErrInvalidInput)
	}

	return nil
}
