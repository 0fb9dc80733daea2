// AngelaMos | 2026
// service_test.go

package comment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/forum-api/internal/core"
	"github.com/carterperez-dev/forum-api/internal/membership"
	"github.com/carterperez-dev/forum-api/internal/policy"
)

type memRepo struct {
	mu       sync.Mutex
	comments map[string]*Comment
}

func newMemRepo() *memRepo {
	return &memRepo{comments: map[string]*Comment{}}
}

func (m *memRepo) Create(_ context.Context, c *Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.comments[c.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memRepo) UpdateText(_ context.Context, c *Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.comments[c.ID].Text = c.Text
	return nil
}

func (m *memRepo) Delete(_ context.Context, c *Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.comments, c.ID)
	return nil
}

func (m *memRepo) Report(_ context.Context, id, reporter, reason string) (*Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	now := time.Now()
	c.ReportedBy = &reporter
	c.ReportReason = &reason
	c.ReportedAt = &now
	cp := *c
	return &cp, nil
}

func (m *memRepo) ClearReport(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok {
		return core.ErrNotFound
	}
	c.ReportedBy, c.ReportReason, c.ReportedAt = nil, nil, nil
	return nil
}

func (m *memRepo) ListByPost(context.Context, string) ([]Comment, error) {
	return nil, nil
}

func (m *memRepo) ListReported(context.Context, core.PageParams) ([]Comment, int, error) {
	return nil, 0, nil
}

type posts map[string]*policy.PostRef

func (p posts) PostRef(_ context.Context, id string) (*policy.PostRef, error) {
	ref, ok := p[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return ref, nil
}

type sent struct {
	email, text, link string
}

type recorder struct {
	sent []sent
}

func (r *recorder) NotifyEmail(_ context.Context, email, text, link string) error {
	r.sent = append(r.sent, sent{email, text, link})
	return nil
}

type fixture struct {
	svc   *Service
	repo  *memRepo
	notes *recorder
}

func newFixture() *fixture {
	f := &fixture{repo: newMemRepo(), notes: &recorder{}}
	f.svc = NewService(f.repo, posts{
		"p1":     {AuthorEmail: "owner@example.com", Public: true},
		"hidden": {AuthorEmail: "owner@example.com", Public: false},
		"orphan": {AuthorEmail: "gone@example.com", Public: true, AuthorMissing: true},
	}, policy.New(5, true), f.notes)
	return f
}

func session(email, role string) *policy.Session {
	return &policy.Session{
		UserID: "id-" + email,
		Email:  email,
		Name:   "name-" + email,
		Role:   role,
		Member: membership.Bronze,
	}
}

var (
	owner     = session("owner@example.com", policy.RoleUser)
	commenter = session("c@example.com", policy.RoleUser)
	moderator = session("mod@example.com", policy.RoleAdmin)
)

func TestAddNotifiesPostAuthor(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	c, err := f.svc.Add(ctx, commenter, CreateCommentRequest{PostID: "p1", Text: "  nice post "})
	require.NoError(t, err)
	assert.Equal(t, "nice post", c.Text)
	assert.Equal(t, "c@example.com", c.AuthorEmail)

	require.Len(t, f.notes.sent, 1)
	assert.Equal(t, "owner@example.com", f.notes.sent[0].email)
	assert.Equal(t, "/posts/p1", f.notes.sent[0].link)
	assert.Contains(t, f.notes.sent[0].text, "name-c@example.com")

	_, err = f.svc.Add(ctx, owner, CreateCommentRequest{PostID: "p1", Text: "thanks"})
	require.NoError(t, err)
	assert.Len(t, f.notes.sent, 1, "no notification for commenting on own post")
}

func TestAddRejectsHiddenAndOrphanedPosts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Add(ctx, commenter, CreateCommentRequest{PostID: "hidden", Text: "x"})
	require.ErrorIs(t, err, core.ErrForbidden)

	_, err = f.svc.Add(ctx, commenter, CreateCommentRequest{PostID: "orphan", Text: "x"})
	require.ErrorIs(t, err, core.ErrForbidden)

	_, err = f.svc.Add(ctx, nil, CreateCommentRequest{PostID: "p1", Text: "x"})
	require.Error(t, err)

	assert.Empty(t, f.repo.comments)
}

func TestReportRules(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	theirs, err := f.svc.Add(ctx, commenter, CreateCommentRequest{PostID: "p1", Text: "spam"})
	require.NoError(t, err)
	mine, err := f.svc.Add(ctx, owner, CreateCommentRequest{PostID: "p1", Text: "reply"})
	require.NoError(t, err)

	_, err = f.svc.Report(ctx, commenter, mine.ID, "rude")
	require.ErrorIs(t, err, core.ErrForbidden, "only the post author may report")

	_, err = f.svc.Report(ctx, owner, mine.ID, "oops")
	require.ErrorIs(t, err, core.ErrForbidden, "cannot report own comment")

	first, err := f.svc.Report(ctx, owner, theirs.ID, "spam")
	require.NoError(t, err)
	require.True(t, first.Reported())

	second, err := f.svc.Report(ctx, owner, theirs.ID, "  still spam ")
	require.NoError(t, err)
	assert.Equal(t, "still spam", *second.ReportReason, "later report replaces the earlier one")

	last := f.notes.sent[len(f.notes.sent)-1]
	assert.Equal(t, "c@example.com", last.email)
}

func TestDeleteByAuthorOrAdmin(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a, err := f.svc.Add(ctx, commenter, CreateCommentRequest{PostID: "p1", Text: "one"})
	require.NoError(t, err)
	b, err := f.svc.Add(ctx, commenter, CreateCommentRequest{PostID: "p1", Text: "two"})
	require.NoError(t, err)

	require.ErrorIs(t, f.svc.Delete(ctx, owner, a.ID), core.ErrForbidden)

	require.NoError(t, f.svc.Delete(ctx, commenter, a.ID))
	require.NoError(t, f.svc.Delete(ctx, moderator, b.ID))
	assert.Empty(t, f.repo.comments)

	require.ErrorIs(t, f.svc.Delete(ctx, moderator, "missing"), core.ErrNotFound)
}

func TestEditOnlyByAuthor(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	c, err := f.svc.Add(ctx, commenter, CreateCommentRequest{PostID: "p1", Text: "draft"})
	require.NoError(t, err)

	_, err = f.svc.Edit(ctx, moderator, c.ID, "hijack")
	require.ErrorIs(t, err, core.ErrForbidden)

	edited, err := f.svc.Edit(ctx, commenter, c.ID, " final ")
	require.NoError(t, err)
	assert.Equal(t, "final", edited.Text)
}

func TestDismissReportRequiresAdmin(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	c, err := f.svc.Add(ctx, commenter, CreateCommentRequest{PostID: "p1", Text: "spam"})
	require.NoError(t, err)
	_, err = f.svc.Report(ctx, owner, c.ID, "spam")
	require.NoError(t, err)

	require.ErrorIs(t, f.svc.DismissReport(ctx, owner, c.ID), core.ErrForbidden)
	require.NoError(t, f.svc.DismissReport(ctx, moderator, c.ID))
	assert.False(t, f.repo.comments[c.ID].Reported())
}
