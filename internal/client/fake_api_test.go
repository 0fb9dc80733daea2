// AngelaMos | 2026
// fake_api_test.go

package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/carterperez-dev/forum-api/internal/core"
	"github.com/carterperez-dev/forum-api/internal/membership"
	"github.com/carterperez-dev/forum-api/internal/policy"
)

const testToken = "token-u"

// fakeAPI is an in-memory stand-in for the forum API holding one user.
type fakeAPI struct {
	mu         sync.Mutex
	now        time.Time
	user       User
	posts      int
	unread     int
	tags       []Tag
	searches   []string
	downgrades int
	hits       map[string]int
	failCheck  bool
	votes      map[string]Tally
	failVote   bool
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()

	api := &fakeAPI{
		now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		user: User{
			ID:     uuid.NewString(),
			Email:  "u@example.com",
			Name:   "U",
			Role:   policy.RoleUser,
			Member: membership.Bronze,
		},
		tags:  []Tag{{ID: "t1", Name: "golang", Slug: "golang"}},
		hits:  map[string]int{},
		votes: map[string]Tally{},
	}

	srv := httptest.NewServer(api.routes())
	t.Cleanup(srv.Close)
	return api, srv
}

func (a *fakeAPI) clock() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.now
}

func (a *fakeAPI) advance(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.now = a.now.Add(d)
}

func (a *fakeAPI) hit(name string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hits[name]
}

func (a *fakeAPI) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer "+testToken &&
				r.URL.Path != "/v1/tags" {
				core.JSONError(w, core.ToAppError(core.ErrUnauthorized, ""))
				return
			}
			a.mu.Lock()
			a.hits[r.Method+" "+r.URL.Path]++
			a.mu.Unlock()
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/v1/users/me", func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		defer a.mu.Unlock()
		core.OK(w, a.user)
	})

	r.Patch("/v1/users/{id}/member-expiry-check", func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.failCheck {
			core.JSONError(w, core.InternalError(nil))
			return
		}
		if membership.NeedsDowngrade(a.user.Member, a.user.MemberExpiresAt, a.now) {
			a.user.Member = membership.Bronze
			a.downgrades++
		}
		core.OK(w, a.user)
	})

	r.Patch("/v1/users/{id}/role", func(w http.ResponseWriter, r *http.Request) {
		core.JSONError(w, core.ToAppError(core.ErrForbidden, "user"))
	})

	r.Get("/v1/posts/me/count", func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		defer a.mu.Unlock()
		core.OK(w, map[string]int{"count": a.posts})
	})

	r.Post("/v1/posts", func(w http.ResponseWriter, r *http.Request) {
		var req NewPost
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			core.BadRequest(w, "invalid request body")
			return
		}

		a.mu.Lock()
		defer a.mu.Unlock()

		tier := membership.Effective(a.user.Member, a.user.MemberExpiresAt, a.now)
		if tier != membership.Gold && a.posts >= 5 {
			core.JSONError(w, core.ToAppError(core.ErrQuotaExceeded, "post"))
			return
		}
		a.posts++
		core.Created(w, Post{
			ID:          uuid.NewString(),
			AuthorEmail: a.user.Email,
			Title:       req.Title,
			Content:     req.Content,
			Tag:         req.Tag,
			Public:      true,
		})
	})

	r.Patch("/v1/posts/{id}/vote", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Vote int `json:"vote"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			core.BadRequest(w, "invalid request body")
			return
		}

		a.mu.Lock()
		defer a.mu.Unlock()
		if a.failVote {
			core.JSONError(w, core.InternalError(nil))
			return
		}
		id := chi.URLParam(r, "id")
		tally := ProjectVote(a.votes[id], req.Vote)
		a.votes[id] = tally
		core.OK(w, tally)
	})

	r.Post("/v1/payments", func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		defer a.mu.Unlock()
		exp := a.now.Add(30 * 24 * time.Hour)
		a.user.Member = membership.Gold
		a.user.MemberExpiresAt = &exp
		core.OK(w, PaymentResult{Member: a.user.Member, MemberExpiresAt: &exp})
	})

	r.Get("/v1/notifications/unread/count", func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		defer a.mu.Unlock()
		core.OK(w, map[string]int{"count": a.unread})
	})

	r.Get("/v1/tags", func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		defer a.mu.Unlock()
		core.OK(w, a.tags)
	})

	r.Post("/v1/searches", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Tag string `json:"tag"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			core.BadRequest(w, "invalid request body")
			return
		}
		a.mu.Lock()
		a.searches = append(a.searches, req.Tag)
		a.mu.Unlock()
		core.NoContent(w)
	})

	r.Patch("/v1/posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		var edit PostEdit
		if err := json.NewDecoder(r.Body).Decode(&edit); err != nil {
			core.BadRequest(w, "invalid request body")
			return
		}
		a.mu.Lock()
		defer a.mu.Unlock()
		p := Post{ID: chi.URLParam(r, "id"), AuthorEmail: a.user.Email}
		if edit.Title != nil {
			p.Title = *edit.Title
		}
		if edit.Content != nil {
			p.Content = *edit.Content
		}
		core.OK(w, p)
	})

	r.Patch("/v1/comments/{id}", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			core.BadRequest(w, "invalid request body")
			return
		}
		a.mu.Lock()
		defer a.mu.Unlock()
		core.OK(w, Comment{ID: chi.URLParam(r, "id"), AuthorEmail: a.user.Email, Text: req.Text})
	})

	r.Patch("/v1/notifications/{id}/read", func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.unread > 0 {
			a.unread--
		}
		core.NoContent(w)
	})

	r.Post("/v1/tags", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			core.BadRequest(w, "invalid request body")
			return
		}
		a.mu.Lock()
		defer a.mu.Unlock()
		t := Tag{ID: uuid.NewString(), Name: req.Name, Slug: req.Name}
		a.tags = append(a.tags, t)
		core.Created(w, t)
	})

	r.Delete("/v1/tags/{id}", func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		defer a.mu.Unlock()
		kept := a.tags[:0]
		for _, t := range a.tags {
			if t.ID != chi.URLParam(r, "id") {
				kept = append(kept, t)
			}
		}
		a.tags = kept
		core.NoContent(w)
	})

	r.Post("/v1/announcements", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Title   string `json:"title"`
			Content string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			core.BadRequest(w, "invalid request body")
			return
		}
		a.mu.Lock()
		defer a.mu.Unlock()
		core.Created(w, Announcement{
			ID:         uuid.NewString(),
			Title:      req.Title,
			Content:    req.Content,
			AuthorName: a.user.Name,
		})
	})

	r.Patch("/v1/announcements/{id}", func(w http.ResponseWriter, r *http.Request) {
		var edit AnnouncementEdit
		if err := json.NewDecoder(r.Body).Decode(&edit); err != nil {
			core.BadRequest(w, "invalid request body")
			return
		}
		out := Announcement{ID: chi.URLParam(r, "id")}
		if edit.Title != nil {
			out.Title = *edit.Title
		}
		core.OK(w, out)
	})

	r.Delete("/v1/announcements/{id}", func(w http.ResponseWriter, r *http.Request) {
		core.NoContent(w)
	})

	return r
}

func newTestForum(t *testing.T, api *fakeAPI, srv *httptest.Server) *Forum {
	t.Helper()

	pol := policy.New(5, true)
	pol.Now = api.clock

	return NewForum(Config{
		BaseURL: srv.URL,
		Policy:  pol,
		Options: []Option{WithHTTPClient(srv.Client())},
	})
}
