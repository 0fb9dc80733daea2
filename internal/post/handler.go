// AngelaMos | 2026
// handler.go

package post

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/forum-api/internal/comment"
	"github.com/carterperez-dev/forum-api/internal/core"
	"github.com/carterperez-dev/forum-api/internal/middleware"
)

type CommentLister interface {
	ListForPost(ctx context.Context, postID string) ([]comment.Comment, error)
}

type Handler struct {
	service   *Service
	comments  CommentLister
	validator *validator.Validate
}

func NewHandler(service *Service, comments CommentLister) *Handler {
	return &Handler{
		service:   service,
		comments:  comments,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// PostDetail is a post together with its comment thread.
type PostDetail struct {
	Post     PostResponse              `json:"post"`
	Comments []comment.CommentResponse `json:"comments"`
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticated, optional func(http.Handler) http.Handler,
) {
	r.Route("/posts", func(r chi.Router) {
		r.Get("/public", h.ListPublic)
		r.Get("/related/{tag}", h.Related)
		r.Get("/author/{email}", h.RecentByAuthor)
		r.With(optional).Get("/{postID}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(authenticated)

			r.Post("/", h.Create)
			r.Get("/", h.ListAll)
			r.Get("/me", h.ListMine)
			r.Get("/me/count", h.CountMine)
			r.Patch("/{postID}", h.Update)
			r.Patch("/{postID}/visibility", h.SetVisibility)
			r.Patch("/{postID}/vote", h.Vote)
			r.Delete("/{postID}", h.Delete)
		})
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	post, err := h.service.Create(r.Context(), middleware.GetSession(r.Context()), req)
	if err != nil {
		core.Fail(w, err, "post")
		return
	}

	core.Created(w, ToPostResponse(post))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.Get(
		r.Context(),
		middleware.GetSession(r.Context()),
		chi.URLParam(r, "postID"),
	)
	if err != nil {
		core.Fail(w, err, "post")
		return
	}

	detail := PostDetail{
		Post:     ToPostResponse(post),
		Comments: []comment.CommentResponse{},
	}

	if h.comments != nil {
		comments, err := h.comments.ListForPost(r.Context(), post.ID)
		if err != nil {
			core.Fail(w, err, "comment")
			return
		}
		detail.Comments = comment.ToCommentResponseList(comments)
	}

	core.OK(w, detail)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	post, err := h.service.Update(
		r.Context(),
		middleware.GetSession(r.Context()),
		chi.URLParam(r, "postID"),
		req,
	)
	if err != nil {
		core.Fail(w, err, "post")
		return
	}

	core.OK(w, ToPostResponse(post))
}

func (h *Handler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	var req VisibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	post, err := h.service.SetVisibility(
		r.Context(),
		middleware.GetSession(r.Context()),
		chi.URLParam(r, "postID"),
		*req.Public,
	)
	if err != nil {
		core.Fail(w, err, "post")
		return
	}

	core.OK(w, ToPostResponse(post))
}

func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	var req VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	tally, err := h.service.Vote(
		r.Context(),
		middleware.GetSession(r.Context()),
		chi.URLParam(r, "postID"),
		*req.Vote,
	)
	if err != nil {
		core.Fail(w, err, "post")
		return
	}

	core.OK(w, tally)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(
		r.Context(),
		middleware.GetSession(r.Context()),
		chi.URLParam(r, "postID"),
	)
	if err != nil {
		core.Fail(w, err, "post")
		return
	}

	core.NoContent(w)
}

func (h *Handler) CountMine(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.CountMine(r.Context(), middleware.GetSession(r.Context()))
	if err != nil {
		core.Fail(w, err, "post")
		return
	}

	core.OK(w, CountResponse{Count: count})
}

func (h *Handler) ListPublic(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)

	posts, total, err := h.service.ListPublic(r.Context(), params)
	if err != nil {
		core.Fail(w, err, "post")
		return
	}

	core.Paginated(w, ToPostResponseList(posts), params.Page, params.PageSize, total)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)

	posts, total, err := h.service.ListMine(
		r.Context(),
		middleware.GetSession(r.Context()),
		params,
	)
	if err != nil {
		core.Fail(w, err, "post")
		return
	}

	core.Paginated(w, ToPostResponseList(posts), params.Page, params.PageSize, total)
}

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)

	posts, total, err := h.service.ListAll(
		r.Context(),
		middleware.GetSession(r.Context()),
		params,
	)
	if err != nil {
		core.Fail(w, err, "post")
		return
	}

	core.Paginated(w, ToPostResponseList(posts), params.Page, params.PageSize, total)
}

func (h *Handler) Related(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.Related(
		r.Context(),
		chi.URLParam(r, "tag"),
		r.URL.Query().Get("except"),
	)
	if err != nil {
		core.Fail(w, err, "post")
		return
	}

	core.OK(w, ToPostResponseList(posts))
}

func (h *Handler) RecentByAuthor(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.RecentByAuthor(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		core.Fail(w, err, "post")
		return
	}

	core.OK(w, ToPostResponseList(posts))
}

func parseListParams(r *http.Request) ListParams {
	return ListParams{
		PageParams: core.ParsePageParams(r),
		Sort:       r.URL.Query().Get("sort"),
		Tag:        r.URL.Query().Get("tag"),
	}
}
