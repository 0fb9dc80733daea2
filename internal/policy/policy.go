// AngelaMos | 2026
// policy.go

package policy

import (
	"fmt"
	"time"

	"github.com/carterperez-dev/forum-api/internal/core"
	"github.com/carterperez-dev/forum-api/internal/membership"
)

type Action string

const (
	ActionViewPost            Action = "post.view"
	ActionCreatePost          Action = "post.create"
	ActionEditPost            Action = "post.edit"
	ActionChangeVisibility    Action = "post.visibility"
	ActionDeletePost          Action = "post.delete"
	ActionVotePost            Action = "post.vote"
	ActionListAllPosts        Action = "post.list_all"
	ActionAddComment          Action = "comment.add"
	ActionEditComment         Action = "comment.edit"
	ActionDeleteComment       Action = "comment.delete"
	ActionReportComment       Action = "comment.report"
	ActionViewReported        Action = "comment.view_reported"
	ActionManageTags          Action = "tag.manage"
	ActionManageAnnouncements Action = "announcement.manage"
	ActionListMembers         Action = "user.list"
	ActionChangeRole          Action = "user.change_role"
	ActionCheckMembership     Action = "user.check_membership"
	ActionReadNotification    Action = "notification.read"
	ActionViewAllPayments     Action = "payment.list_all"
	ActionPurchaseMembership  Action = "payment.purchase"
	ActionViewAdminDashboard  Action = "admin.dashboard"
)

// PostRef is what the policy needs to know about a post.
type PostRef struct {
	AuthorEmail string
	Public      bool
	// AuthorMissing marks a post whose author account no longer exists.
	AuthorMissing bool
}

type CommentRef struct {
	AuthorEmail string
}

type UserRef struct {
	ID string
}

type Target struct {
	Post    *PostRef
	Comment *CommentRef
	User    *UserRef
	// OwnPostCount is the actor's exact post count, read at submission time.
	OwnPostCount int
}

type Policy struct {
	PostLimit     int
	AllowSelfVote bool
	Now           func() time.Time
}

func New(postLimit int, allowSelfVote bool) *Policy {
	return &Policy{
		PostLimit:     postLimit,
		AllowSelfVote: allowSelfVote,
		Now:           time.Now,
	}
}

func (p *Policy) Can(s *Session, action Action, target Target) bool {
	return p.Authorize(s, action, target) == nil
}

// Authorize returns nil when the action is permitted, otherwise an error
// wrapping core.ErrUnauthorized, core.ErrForbidden or core.ErrQuotaExceeded.
// Missing target data and unknown actions are denied.
func (p *Policy) Authorize(s *Session, action Action, target Target) error {
	err := p.authorize(s, action, target)
	if err != nil {
		core.PolicyDenials.WithLabelValues(string(action)).Inc()
	}
	return err
}

//nolint:gocyclo // one case per row of the permission matrix
func (p *Policy) authorize(s *Session, action Action, t Target) error {
	if action == ActionViewPost {
		return p.canView(s, t.Post)
	}

	if !s.Authenticated() {
		return deny(action, core.ErrUnauthorized)
	}

	switch action {
	case ActionCreatePost:
		return p.canCreate(s, t.OwnPostCount)

	case ActionEditPost:
		if !livePost(t.Post) || !s.Owns(t.Post.AuthorEmail) {
			return deny(action, core.ErrForbidden)
		}

	case ActionChangeVisibility:
		if !livePost(t.Post) ||
			!(s.Owns(t.Post.AuthorEmail) || s.IsAdmin()) {
			return deny(action, core.ErrForbidden)
		}

	case ActionDeletePost:
		if t.Post == nil {
			return deny(action, core.ErrForbidden)
		}
		if t.Post.AuthorMissing {
			if !s.IsAdmin() {
				return deny(action, core.ErrForbidden)
			}
			return nil
		}
		if !s.Owns(t.Post.AuthorEmail) && !s.IsAdmin() {
			return deny(action, core.ErrForbidden)
		}

	case ActionVotePost:
		if err := p.canView(s, t.Post); err != nil || t.Post.AuthorMissing {
			return deny(action, core.ErrForbidden)
		}
		if !p.AllowSelfVote && s.Owns(t.Post.AuthorEmail) {
			return deny(action, core.ErrForbidden)
		}

	case ActionAddComment:
		if err := p.canView(s, t.Post); err != nil || t.Post.AuthorMissing {
			return deny(action, core.ErrForbidden)
		}

	case ActionEditComment:
		if t.Comment == nil || !s.Owns(t.Comment.AuthorEmail) {
			return deny(action, core.ErrForbidden)
		}

	case ActionDeleteComment:
		if t.Comment == nil ||
			!(s.Owns(t.Comment.AuthorEmail) || s.IsAdmin()) {
			return deny(action, core.ErrForbidden)
		}

	case ActionReportComment:
		if !livePost(t.Post) || t.Comment == nil ||
			!s.Owns(t.Post.AuthorEmail) ||
			s.Owns(t.Comment.AuthorEmail) {
			return deny(action, core.ErrForbidden)
		}

	case ActionViewReported,
		ActionManageTags,
		ActionManageAnnouncements,
		ActionListMembers,
		ActionListAllPosts,
		ActionViewAllPayments,
		ActionViewAdminDashboard:
		if !s.IsAdmin() {
			return deny(action, core.ErrForbidden)
		}

	case ActionChangeRole:
		if t.User == nil || !s.IsSuperAdmin() || t.User.ID == s.UserID {
			return deny(action, core.ErrForbidden)
		}

	case ActionCheckMembership:
		if t.User == nil || (t.User.ID != s.UserID && !s.IsAdmin()) {
			return deny(action, core.ErrForbidden)
		}

	case ActionReadNotification:
		if t.User == nil || t.User.ID != s.UserID {
			return deny(action, core.ErrForbidden)
		}

	case ActionPurchaseMembership:
		return nil

	default:
		return deny(action, core.ErrForbidden)
	}

	return nil
}

func (p *Policy) canView(s *Session, post *PostRef) error {
	if post == nil {
		return deny(ActionViewPost, core.ErrForbidden)
	}

	if post.AuthorMissing {
		if s.IsAdmin() {
			return nil
		}
		return deny(ActionViewPost, core.ErrForbidden)
	}

	if post.Public || s.Owns(post.AuthorEmail) || s.IsAdmin() {
		return nil
	}

	if !s.Authenticated() {
		return deny(ActionViewPost, core.ErrUnauthorized)
	}
	return deny(ActionViewPost, core.ErrForbidden)
}

func (p *Policy) canCreate(s *Session, ownPostCount int) error {
	if s.Role != RoleUser {
		return deny(ActionCreatePost, core.ErrForbidden)
	}

	if s.EffectiveTier(p.now()) == membership.Gold {
		return nil
	}

	if ownPostCount >= p.PostLimit {
		core.QuotaDenials.Inc()
		return deny(ActionCreatePost, core.ErrQuotaExceeded)
	}

	return nil
}

func (p *Policy) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func livePost(post *PostRef) bool {
	return post != nil && !post.AuthorMissing
}

func deny(action Action, reason error) error {
	return fmt.Errorf("%s: %w", action, reason)
}
