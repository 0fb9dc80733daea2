// AngelaMos | 2026
// forum_test.go

package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/forum-api/internal/membership"
	"github.com/carterperez-dev/forum-api/internal/policy"
)

func signIn(t *testing.T, f *Forum, api *fakeAPI) {
	t.Helper()
	require.NoError(t, f.SignIn(context.Background(), Principal{
		Email:       api.user.Email,
		AccessToken: testToken,
	}))
}

func newPost() NewPost {
	return NewPost{Title: "t", Content: "c", Tag: "golang"}
}

func TestQuotaUpgradeAndExpiryScenario(t *testing.T) {
	ctx := context.Background()
	api, srv := newFakeAPI(t)
	api.posts = 5
	f := newTestForum(t, api, srv)
	signIn(t, f, api)

	_, err := f.CreatePost(ctx, newPost())
	require.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Zero(t, api.hit("POST /v1/posts"), "denied locally before the network")

	_, err = f.ConfirmPurchase(ctx, "pi_1")
	require.NoError(t, err)
	assert.Equal(t, membership.Gold, f.Session().Snapshot().EffectiveTier(api.clock()))

	_, err = f.CreatePost(ctx, newPost())
	require.NoError(t, err)
	assert.Equal(t, 6, api.posts)

	api.advance(31 * 24 * time.Hour)
	require.NoError(t, f.Navigate(ctx))
	assert.Equal(t, 1, api.downgrades)
	assert.Equal(t, membership.Bronze, f.Session().Snapshot().Member)

	_, err = f.CreatePost(ctx, newPost())
	require.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Equal(t, 6, api.posts)
}

func TestExpiredGoldIsBronzeBeforeReconciliation(t *testing.T) {
	api, srv := newFakeAPI(t)
	exp := api.now.Add(-time.Minute)
	api.user.Member = membership.Gold
	api.user.MemberExpiresAt = &exp
	api.posts = 5

	f := newTestForum(t, api, srv)
	f.Session().SignIn(Principal{Email: api.user.Email, AccessToken: testToken})
	require.NoError(t, f.Session().Refresh(context.Background(), f.client))

	snap := f.Session().Snapshot()
	assert.Equal(t, membership.Gold, snap.Member)
	assert.Equal(t, membership.Bronze, snap.EffectiveTier(api.clock()))

	_, err := f.CreatePost(context.Background(), newPost())
	require.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestReconcileBronzeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	api, srv := newFakeAPI(t)
	f := newTestForum(t, api, srv)
	signIn(t, f, api)

	before := api.user
	require.NoError(t, f.Navigate(ctx))
	require.NoError(t, f.Navigate(ctx))

	assert.Zero(t, api.downgrades)
	assert.Equal(t, before, api.user)
	assert.Equal(t, membership.Bronze, f.Session().Snapshot().Member)
}

func TestReconcileFailureFailsClosed(t *testing.T) {
	ctx := context.Background()
	api, srv := newFakeAPI(t)
	exp := api.now.Add(24 * time.Hour)
	api.user.Member = membership.Gold
	api.user.MemberExpiresAt = &exp

	f := newTestForum(t, api, srv)
	signIn(t, f, api)
	require.Equal(t, membership.Gold, f.Session().Snapshot().EffectiveTier(api.clock()))

	api.failCheck = true
	err := f.Navigate(ctx)
	require.ErrorIs(t, err, ErrReconciliation)
	assert.True(t, IsTransient(err))
	assert.True(t, f.Session().FailedClosed())
	assert.Equal(t, membership.Bronze, f.Session().Snapshot().EffectiveTier(api.clock()))

	api.failCheck = false
	require.NoError(t, f.Navigate(ctx))
	assert.False(t, f.Session().FailedClosed())
	assert.Equal(t, membership.Gold, f.Session().Snapshot().EffectiveTier(api.clock()))
}

func TestUnauthorizedInvalidatesSession(t *testing.T) {
	api, srv := newFakeAPI(t)
	f := newTestForum(t, api, srv)

	f.Session().SignIn(Principal{Email: api.user.Email, AccessToken: "stale"})
	err := f.Navigate(context.Background())

	require.ErrorIs(t, err, ErrAuthExpired)
	assert.False(t, f.Session().Active())
	assert.Nil(t, f.Session().Snapshot())

	_, err = f.CreatePost(context.Background(), newPost())
	require.ErrorIs(t, err, ErrAuthExpired)
}

func TestCreatePostDeniedForAdminLocally(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.user.Role = policy.RoleAdmin
	f := newTestForum(t, api, srv)
	signIn(t, f, api)

	_, err := f.CreatePost(context.Background(), newPost())

	require.ErrorIs(t, err, ErrForbidden)
	assert.Zero(t, api.hit("GET /v1/posts/me/count"))
	assert.Zero(t, api.hit("POST /v1/posts"))
}

func TestChangeOwnRoleRejected(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.user.Role = policy.RoleSuperAdmin
	f := newTestForum(t, api, srv)
	signIn(t, f, api)

	for _, role := range []string{policy.RoleUser, policy.RoleAdmin, policy.RoleSuperAdmin} {
		_, err := f.ChangeRole(context.Background(), api.user.ID, role)
		require.ErrorIs(t, err, ErrForbidden, role)
	}
	assert.Zero(t, api.hit("PATCH /v1/users/"+api.user.ID+"/role"))
}

func TestServerForbiddenIsAuthoritative(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.user.Role = policy.RoleSuperAdmin
	f := newTestForum(t, api, srv)
	signIn(t, f, api)

	_, err := f.ChangeRole(context.Background(), "someone-else", policy.RoleAdmin)

	require.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, 1, api.hit("PATCH /v1/users/someone-else/role"))
}

func TestLogSearch(t *testing.T) {
	ctx := context.Background()
	api, srv := newFakeAPI(t)
	f := newTestForum(t, api, srv)
	signIn(t, f, api)

	require.NoError(t, f.LogSearch(ctx, "  GoLang "))
	require.ErrorIs(t, f.LogSearch(ctx, "rust"), ErrUnknownTag)

	assert.Equal(t, []string{"golang"}, api.searches)
}

func TestVoteCommitsAndRollsBack(t *testing.T) {
	ctx := context.Background()
	api, srv := newFakeAPI(t)
	f := newTestForum(t, api, srv)
	signIn(t, f, api)

	p := Post{ID: "p1", AuthorEmail: "other@example.com", Public: true}
	view := NewOptimistic(Tally{})

	tally, err := f.Vote(ctx, p, view, 1)
	require.NoError(t, err)
	assert.Equal(t, Tally{Upvotes: 1, Vote: 1}, tally)
	shown, state := view.View()
	assert.Equal(t, StateCommitted, state)
	assert.Equal(t, tally, shown)

	api.failVote = true
	_, err = f.Vote(ctx, p, view, -1)
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	shown, state = view.View()
	assert.Equal(t, StateRolledBack, state)
	assert.Equal(t, Tally{Upvotes: 1, Vote: 1}, shown)
}

func TestPollerRefresh(t *testing.T) {
	ctx := context.Background()
	api, srv := newFakeAPI(t)
	api.unread = 3

	var seen []int
	pol := policy.New(5, true)
	f := NewForum(Config{
		BaseURL:  srv.URL,
		Policy:   pol,
		OnUnread: func(n int) { seen = append(seen, n) },
		Options:  []Option{WithHTTPClient(srv.Client())},
	})

	n, err := f.Poller().Refresh(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "signed-out sessions read zero")

	signIn(t, f, api)
	n, err = f.Poller().Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, f.Poller().Unread())

	f.SignOut()
	assert.Zero(t, f.Poller().Unread())
	assert.Equal(t, []int{3, 0}, seen)
}

func TestPollerRunStopsOnCancel(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.unread = 2

	f := newTestForum(t, api, srv)
	signIn(t, f, api)
	p := NewPoller(f.client, f.Session(), 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return p.Unread() == 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

func TestGatedWritesDeniedLocally(t *testing.T) {
	ctx := context.Background()
	api, srv := newFakeAPI(t)
	f := newTestForum(t, api, srv)
	signIn(t, f, api)

	theirs := Post{ID: "p9", AuthorEmail: "other@example.com", Public: true}
	theirComment := Comment{ID: "c9", PostID: "p9", AuthorEmail: "other@example.com"}
	theirNotice := Notification{ID: "n9", UserID: "someone-else"}
	title := "hijacked"

	tests := []struct {
		name  string
		route string
		call  func() error
	}{
		{"edit post", "PATCH /v1/posts/p9", func() error {
			_, err := f.UpdatePost(ctx, theirs, PostEdit{Title: &title})
			return err
		}},
		{"edit comment", "PATCH /v1/comments/c9", func() error {
			_, err := f.EditComment(ctx, theirComment, "rewritten")
			return err
		}},
		{"mark read", "PATCH /v1/notifications/n9/read", func() error {
			return f.MarkRead(ctx, theirNotice)
		}},
		{"create tag", "POST /v1/tags", func() error {
			_, err := f.CreateTag(ctx, "rust")
			return err
		}},
		{"delete tag", "DELETE /v1/tags/t1", func() error {
			return f.DeleteTag(ctx, Tag{ID: "t1", Name: "golang"})
		}},
		{"create announcement", "POST /v1/announcements", func() error {
			_, err := f.CreateAnnouncement(ctx, "hello", "world")
			return err
		}},
		{"update announcement", "PATCH /v1/announcements/a1", func() error {
			_, err := f.UpdateAnnouncement(ctx, "a1", AnnouncementEdit{Title: &title})
			return err
		}},
		{"delete announcement", "DELETE /v1/announcements/a1", func() error {
			return f.DeleteAnnouncement(ctx, "a1")
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, tc.call(), ErrForbidden)
			assert.Zero(t, api.hit(tc.route))
		})
	}

	assert.Len(t, api.tags, 1)
}

func TestGatedWritesSignedOut(t *testing.T) {
	ctx := context.Background()
	api, srv := newFakeAPI(t)
	f := newTestForum(t, api, srv)

	_, err := f.UpdatePost(ctx, Post{ID: "p1", AuthorEmail: api.user.Email}, PostEdit{})
	require.ErrorIs(t, err, ErrAuthExpired)

	_, err = f.CreateTag(ctx, "rust")
	require.ErrorIs(t, err, ErrAuthExpired)

	err = f.MarkRead(ctx, Notification{ID: "n1", UserID: api.user.ID})
	require.ErrorIs(t, err, ErrAuthExpired)

	assert.Zero(t, api.hit("PATCH /v1/posts/p1"))
	assert.Zero(t, api.hit("POST /v1/tags"))
	assert.Zero(t, api.hit("PATCH /v1/notifications/n1/read"))
}

func TestOwnerEditsReachServer(t *testing.T) {
	ctx := context.Background()
	api, srv := newFakeAPI(t)
	api.unread = 2
	f := newTestForum(t, api, srv)
	signIn(t, f, api)

	title := "renamed"
	mine := Post{ID: "p1", AuthorEmail: api.user.Email}
	updated, err := f.UpdatePost(ctx, mine, PostEdit{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, 1, api.hit("PATCH /v1/posts/p1"))

	comment, err := f.EditComment(ctx, Comment{ID: "c1", AuthorEmail: api.user.Email}, "fixed typo")
	require.NoError(t, err)
	assert.Equal(t, "fixed typo", comment.Text)

	require.NoError(t, f.MarkRead(ctx, Notification{ID: "n1", UserID: api.user.ID}))
	assert.Equal(t, 1, f.Poller().Unread())
}

func TestAdminManagesTagsAndAnnouncements(t *testing.T) {
	ctx := context.Background()
	api, srv := newFakeAPI(t)
	api.user.Role = policy.RoleAdmin
	f := newTestForum(t, api, srv)
	signIn(t, f, api)

	created, err := f.CreateTag(ctx, " rust ")
	require.NoError(t, err)
	assert.Equal(t, "rust", created.Name)
	assert.Len(t, api.tags, 2)

	require.NoError(t, f.DeleteTag(ctx, *created))
	assert.Len(t, api.tags, 1)

	a, err := f.CreateAnnouncement(ctx, "Maintenance", "Tonight")
	require.NoError(t, err)
	assert.Equal(t, api.user.Name, a.AuthorName)

	title := "Rescheduled"
	edited, err := f.UpdateAnnouncement(ctx, a.ID, AnnouncementEdit{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Rescheduled", edited.Title)

	require.NoError(t, f.DeleteAnnouncement(ctx, a.ID))
	assert.Equal(t, 1, api.hit("DELETE /v1/announcements/"+a.ID))
}
