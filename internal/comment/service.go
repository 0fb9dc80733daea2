// AngelaMos | 2026
// service.go

package comment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/forum-api/internal/core"
	"github.com/carterperez-dev/forum-api/internal/policy"
)

type PostLookup interface {
	PostRef(ctx context.Context, postID string) (*policy.PostRef, error)
}

type Notifier interface {
	NotifyEmail(ctx context.Context, email, text, link string) error
}

type Service struct {
	repo     Repository
	posts    PostLookup
	policy   *policy.Policy
	notifier Notifier
}

func NewService(
	repo Repository,
	posts PostLookup,
	pol *policy.Policy,
	notifier Notifier,
) *Service {
	return &Service{
		repo:     repo,
		posts:    posts,
		policy:   pol,
		notifier: notifier,
	}
}

func (s *Service) Add(
	ctx context.Context,
	sess *policy.Session,
	req CreateCommentRequest,
) (*Comment, error) {
	post, err := s.posts.PostRef(ctx, req.PostID)
	if err != nil {
		return nil, err
	}

	if err := s.policy.Authorize(sess, policy.ActionAddComment, policy.Target{
		Post: post,
	}); err != nil {
		return nil, err
	}

	comment := &Comment{
		ID:          uuid.New().String(),
		PostID:      req.PostID,
		AuthorEmail: strings.ToLower(sess.Email),
		AuthorName:  sess.Name,
		AuthorImage: sess.Image,
		Text:        strings.TrimSpace(req.Text),
	}

	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, err
	}

	if !sess.Owns(post.AuthorEmail) {
		s.notify(ctx, post.AuthorEmail,
			fmt.Sprintf("%s commented on your post.", displayName(sess)),
			"/posts/"+req.PostID)
	}

	return comment, nil
}

func (s *Service) Edit(
	ctx context.Context,
	sess *policy.Session,
	id, text string,
) (*Comment, error) {
	comment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.policy.Authorize(sess, policy.ActionEditComment, policy.Target{
		Comment: comment.Ref(),
	}); err != nil {
		return nil, err
	}

	comment.Text = strings.TrimSpace(text)
	if err := s.repo.UpdateText(ctx, comment); err != nil {
		return nil, err
	}

	return comment, nil
}

func (s *Service) Delete(ctx context.Context, sess *policy.Session, id string) error {
	comment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.policy.Authorize(sess, policy.ActionDeleteComment, policy.Target{
		Comment: comment.Ref(),
	}); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, comment); err != nil {
		return err
	}

	if comment.Reported() {
		slog.InfoContext(ctx, "reported comment removed",
			"comment_id", id,
			"actor_id", sess.UserID,
		)
	}

	return nil
}

// Report flags a comment on one of the session user's own posts.
func (s *Service) Report(
	ctx context.Context,
	sess *policy.Session,
	id, reason string,
) (*Comment, error) {
	comment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	post, err := s.posts.PostRef(ctx, comment.PostID)
	if err != nil {
		return nil, err
	}

	if err := s.policy.Authorize(sess, policy.ActionReportComment, policy.Target{
		Post:    post,
		Comment: comment.Ref(),
	}); err != nil {
		return nil, err
	}

	reported, err := s.repo.Report(
		ctx,
		id,
		strings.ToLower(sess.Email),
		strings.TrimSpace(reason),
	)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, comment.AuthorEmail,
		"One of your comments was reported for review.",
		"/posts/"+comment.PostID)

	return reported, nil
}

// DismissReport clears the report and keeps the comment.
func (s *Service) DismissReport(ctx context.Context, sess *policy.Session, id string) error {
	if err := s.policy.Authorize(sess, policy.ActionViewReported, policy.Target{}); err != nil {
		return err
	}
	return s.repo.ClearReport(ctx, id)
}

func (s *Service) ListForPost(ctx context.Context, postID string) ([]Comment, error) {
	return s.repo.ListByPost(ctx, postID)
}

func (s *Service) ListReported(
	ctx context.Context,
	sess *policy.Session,
	params core.PageParams,
) ([]Comment, int, error) {
	if err := s.policy.Authorize(sess, policy.ActionViewReported, policy.Target{}); err != nil {
		return nil, 0, err
	}
	return s.repo.ListReported(ctx, params)
}

func (s *Service) notify(ctx context.Context, email, text, link string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyEmail(ctx, email, text, link); err != nil {
		slog.WarnContext(ctx, "comment notification failed",
			"recipient", email,
			"error", err,
		)
	}
}

func displayName(sess *policy.Session) string {
	if sess.Name != "" {
		return sess.Name
	}
	return sess.Email
}
