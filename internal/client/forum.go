// AngelaMos | 2026
// forum.go

package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/carterperez-dev/forum-api/internal/policy"
)

// Forum is the client facade. Every mutating call is checked against the
// local policy first, so obvious denials never reach the network; the
// server's answer stays authoritative.
type Forum struct {
	client     *Client
	session    *Session
	policy     *policy.Policy
	reconciler *Reconciler
	poller     *Poller
	posts      *Latest[ListQuery, Page[Post]]
}

type Config struct {
	BaseURL      string
	Policy       *policy.Policy
	PollInterval time.Duration
	// OnUnread is called when the unread notification count changes.
	OnUnread func(int)
	Options  []Option
}

func NewForum(cfg Config) *Forum {
	session := NewSession()
	c := New(cfg.BaseURL, session, cfg.Options...)

	pol := cfg.Policy
	if pol == nil {
		pol = policy.New(5, true)
	}

	f := &Forum{
		client:     c,
		session:    session,
		policy:     pol,
		reconciler: NewReconciler(c, session),
		poller:     NewPoller(c, session, cfg.PollInterval, cfg.OnUnread),
	}
	f.posts = NewLatest(f.fetchPublicPosts)

	return f
}

func (f *Forum) Session() *Session {
	return f.session
}

func (f *Forum) Poller() *Poller {
	return f.poller
}

// SignIn starts a session and loads the authoritative record through a
// reconciliation run.
func (f *Forum) SignIn(ctx context.Context, p Principal) error {
	f.session.SignIn(p)
	return f.reconciler.Run(ctx)
}

func (f *Forum) SignOut() {
	f.session.Invalidate()
	f.poller.set(0)
}

// Navigate is called on every route change: reconcile membership, then
// refresh the unread count. A reconciliation failure leaves the session
// fail-closed and is returned after the poll.
func (f *Forum) Navigate(ctx context.Context) error {
	recErr := f.reconciler.Run(ctx)
	if _, err := f.poller.Refresh(ctx); err != nil && recErr == nil {
		return err
	}
	return recErr
}

func (f *Forum) Can(action policy.Action, target policy.Target) bool {
	return f.policy.Can(f.session.Snapshot(), action, target)
}

func (f *Forum) authorize(action policy.Action, target policy.Target) error {
	return fromPolicy(f.policy.Authorize(f.session.Snapshot(), action, target))
}

// PublicPosts lists public posts. A response for a query that has since
// been replaced by a newer call returns ErrSuperseded.
func (f *Forum) PublicPosts(ctx context.Context, q ListQuery) (Page[Post], error) {
	return f.posts.Fetch(ctx, q)
}

func (f *Forum) fetchPublicPosts(ctx context.Context, q ListQuery) (Page[Post], error) {
	var page Page[Post]
	err := f.client.get(ctx, "/v1/posts/public"+q.encode(), &page)
	return page, err
}

func (f *Forum) Post(ctx context.Context, id string) (*PostDetail, error) {
	var detail PostDetail
	if err := f.client.get(ctx, "/v1/posts/"+url.PathEscape(id), &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// PostCount reads the exact number of posts the session user owns.
func (f *Forum) PostCount(ctx context.Context) (int, error) {
	var resp struct {
		Count int `json:"count"`
	}
	if err := f.client.get(ctx, "/v1/posts/me/count", &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// CreatePost checks role and quota against a count read right now, not a
// count remembered from page load.
func (f *Forum) CreatePost(ctx context.Context, req NewPost) (*Post, error) {
	if err := f.authorize(policy.ActionCreatePost, policy.Target{}); err != nil {
		return nil, err
	}

	count, err := f.PostCount(ctx)
	if err != nil {
		return nil, err
	}

	if err := f.authorize(policy.ActionCreatePost, policy.Target{
		OwnPostCount: count,
	}); err != nil {
		return nil, err
	}

	var created Post
	if err := f.client.post(ctx, "/v1/posts", req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (f *Forum) SetVisibility(ctx context.Context, p Post, public bool) (*Post, error) {
	if err := f.authorize(policy.ActionChangeVisibility, policy.Target{
		Post: p.ref(),
	}); err != nil {
		return nil, err
	}

	var updated Post
	body := map[string]bool{"public": public}
	if err := f.client.patch(ctx, "/v1/posts/"+url.PathEscape(p.ID)+"/visibility", body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// UpdatePost edits the title or content of a live post the session owns.
func (f *Forum) UpdatePost(ctx context.Context, p Post, edit PostEdit) (*Post, error) {
	if err := f.authorize(policy.ActionEditPost, policy.Target{
		Post: p.ref(),
	}); err != nil {
		return nil, err
	}

	var updated Post
	if err := f.client.patch(ctx, "/v1/posts/"+url.PathEscape(p.ID), edit, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (f *Forum) DeletePost(ctx context.Context, p Post) error {
	if err := f.authorize(policy.ActionDeletePost, policy.Target{
		Post: p.ref(),
	}); err != nil {
		return err
	}
	return f.client.delete(ctx, "/v1/posts/"+url.PathEscape(p.ID))
}

// Vote shows the new tally at once and settles it from the server's answer.
func (f *Forum) Vote(
	ctx context.Context,
	p Post,
	view *Optimistic[Tally],
	next int,
) (Tally, error) {
	if err := f.authorize(policy.ActionVotePost, policy.Target{
		Post: p.ref(),
	}); err != nil {
		shown, _ := view.View()
		return shown, err
	}

	return view.Apply(ctx,
		func(t Tally) Tally { return ProjectVote(t, next) },
		func(ctx context.Context) (Tally, error) {
			var tally Tally
			err := f.client.patch(ctx,
				"/v1/posts/"+url.PathEscape(p.ID)+"/vote",
				map[string]int{"vote": next},
				&tally)
			return tally, err
		},
	)
}

func (f *Forum) AddComment(ctx context.Context, p Post, text string) (*Comment, error) {
	if err := f.authorize(policy.ActionAddComment, policy.Target{
		Post: p.ref(),
	}); err != nil {
		return nil, err
	}

	var created Comment
	body := map[string]string{"post_id": p.ID, "text": text}
	if err := f.client.post(ctx, "/v1/comments", body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (f *Forum) EditComment(ctx context.Context, c Comment, text string) (*Comment, error) {
	if err := f.authorize(policy.ActionEditComment, policy.Target{
		Comment: c.ref(),
	}); err != nil {
		return nil, err
	}

	var updated Comment
	body := map[string]string{"text": text}
	if err := f.client.patch(ctx, "/v1/comments/"+url.PathEscape(c.ID), body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (f *Forum) DeleteComment(ctx context.Context, c Comment) error {
	if err := f.authorize(policy.ActionDeleteComment, policy.Target{
		Comment: c.ref(),
	}); err != nil {
		return err
	}
	return f.client.delete(ctx, "/v1/comments/"+url.PathEscape(c.ID))
}

func (f *Forum) ReportComment(
	ctx context.Context,
	p Post,
	c Comment,
	reason string,
) (*Comment, error) {
	if err := f.authorize(policy.ActionReportComment, policy.Target{
		Post:    p.ref(),
		Comment: c.ref(),
	}); err != nil {
		return nil, err
	}

	var reported Comment
	path := "/v1/comments/" + url.PathEscape(c.ID) + "/report"
	if err := f.client.post(ctx, path, map[string]string{"reason": reason}, &reported); err != nil {
		return nil, err
	}
	return &reported, nil
}

func (f *Forum) ChangeRole(ctx context.Context, userID, role string) (*User, error) {
	if err := f.authorize(policy.ActionChangeRole, policy.Target{
		User: &policy.UserRef{ID: userID},
	}); err != nil {
		return nil, err
	}

	var updated User
	path := "/v1/users/" + url.PathEscape(userID) + "/role"
	if err := f.client.patch(ctx, path, map[string]string{"role": role}, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// MarkRead marks one of the session user's notifications read and
// refreshes the unread count.
func (f *Forum) MarkRead(ctx context.Context, n Notification) error {
	if err := f.authorize(policy.ActionReadNotification, policy.Target{
		User: &policy.UserRef{ID: n.UserID},
	}); err != nil {
		return err
	}

	path := "/v1/notifications/" + url.PathEscape(n.ID) + "/read"
	if err := f.client.patch(ctx, path, nil, nil); err != nil {
		return err
	}

	_, err := f.poller.Refresh(ctx)
	return err
}

func (f *Forum) CreateTag(ctx context.Context, name string) (*Tag, error) {
	if err := f.authorize(policy.ActionManageTags, policy.Target{}); err != nil {
		return nil, err
	}

	var created Tag
	body := map[string]string{"name": strings.TrimSpace(name)}
	if err := f.client.post(ctx, "/v1/tags", body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (f *Forum) DeleteTag(ctx context.Context, t Tag) error {
	if err := f.authorize(policy.ActionManageTags, policy.Target{}); err != nil {
		return err
	}
	return f.client.delete(ctx, "/v1/tags/"+url.PathEscape(t.ID))
}

func (f *Forum) CreateAnnouncement(ctx context.Context, title, content string) (*Announcement, error) {
	if err := f.authorize(policy.ActionManageAnnouncements, policy.Target{}); err != nil {
		return nil, err
	}

	var created Announcement
	body := map[string]string{"title": title, "content": content}
	if err := f.client.post(ctx, "/v1/announcements", body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (f *Forum) UpdateAnnouncement(
	ctx context.Context,
	id string,
	edit AnnouncementEdit,
) (*Announcement, error) {
	if err := f.authorize(policy.ActionManageAnnouncements, policy.Target{}); err != nil {
		return nil, err
	}

	var updated Announcement
	if err := f.client.patch(ctx, "/v1/announcements/"+url.PathEscape(id), edit, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (f *Forum) DeleteAnnouncement(ctx context.Context, id string) error {
	if err := f.authorize(policy.ActionManageAnnouncements, policy.Target{}); err != nil {
		return err
	}
	return f.client.delete(ctx, "/v1/announcements/"+url.PathEscape(id))
}

func (f *Forum) Tags(ctx context.Context, search string) ([]Tag, error) {
	path := "/v1/tags"
	if search = strings.TrimSpace(search); search != "" {
		path += "?" + url.Values{"search": {search}}.Encode()
	}

	var tags []Tag
	if err := f.client.get(ctx, path, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// LogSearch records a tag search. Tags outside the vocabulary are
// rejected before the request.
func (f *Forum) LogSearch(ctx context.Context, tag string) error {
	name := strings.ToLower(strings.TrimSpace(tag))

	tags, err := f.Tags(ctx, name)
	if err != nil {
		return err
	}

	known := false
	for _, t := range tags {
		if t.Name == name {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("log search %q: %w", name, ErrUnknownTag)
	}

	return f.client.post(ctx, "/v1/searches", map[string]string{"tag": name}, nil)
}

func (f *Forum) PopularTags(ctx context.Context) ([]PopularTag, error) {
	var popular []PopularTag
	if err := f.client.get(ctx, "/v1/searches/popular", &popular); err != nil {
		return nil, err
	}
	return popular, nil
}

func (f *Forum) StartPurchase(ctx context.Context, amountCents int64) (*Intent, error) {
	if err := f.authorize(policy.ActionPurchaseMembership, policy.Target{}); err != nil {
		return nil, err
	}

	var intent Intent
	body := map[string]int64{"amount": amountCents}
	if err := f.client.post(ctx, "/v1/payments/intents", body, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

// ConfirmPurchase reports a confirmed intent and reloads the session so the
// new tier is the server's, not a local guess.
func (f *Forum) ConfirmPurchase(ctx context.Context, intentID string) (*PaymentResult, error) {
	gen := f.session.generation()

	var result PaymentResult
	body := map[string]string{"intent_id": intentID}
	if err := f.client.post(ctx, "/v1/payments", body, &result); err != nil {
		return nil, err
	}

	if err := f.session.refresh(ctx, f.client, gen); err != nil {
		f.session.markFailClosed(gen)
		return &result, fmt.Errorf("%w: %w", ErrReconciliation, err)
	}

	return &result, nil
}
