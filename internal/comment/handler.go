// AngelaMos | 2026
// handler.go

package comment

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/forum-api/internal/core"
	"github.com/carterperez-dev/forum-api/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticated func(http.Handler) http.Handler,
) {
	r.Route("/comments", func(r chi.Router) {
		r.Use(authenticated)

		r.Post("/", h.Add)
		r.Patch("/{commentID}", h.Edit)
		r.Delete("/{commentID}", h.Delete)
		r.Post("/{commentID}/report", h.Report)

		r.With(middleware.RequireAdmin).Get("/reported", h.ListReported)
		r.With(middleware.RequireAdmin).Delete("/{commentID}/report", h.DismissReport)
	})
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	var req CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	comment, err := h.service.Add(r.Context(), middleware.GetSession(r.Context()), req)
	if err != nil {
		core.Fail(w, err, "comment")
		return
	}

	core.Created(w, ToCommentResponse(comment))
}

func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	var req UpdateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	comment, err := h.service.Edit(
		r.Context(),
		middleware.GetSession(r.Context()),
		chi.URLParam(r, "commentID"),
		req.Text,
	)
	if err != nil {
		core.Fail(w, err, "comment")
		return
	}

	core.OK(w, ToCommentResponse(comment))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(
		r.Context(),
		middleware.GetSession(r.Context()),
		chi.URLParam(r, "commentID"),
	)
	if err != nil {
		core.Fail(w, err, "comment")
		return
	}

	core.NoContent(w)
}

func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	var req ReportCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	comment, err := h.service.Report(
		r.Context(),
		middleware.GetSession(r.Context()),
		chi.URLParam(r, "commentID"),
		req.Reason,
	)
	if err != nil {
		core.Fail(w, err, "comment")
		return
	}

	core.OK(w, ToReportedCommentResponse(comment))
}

func (h *Handler) DismissReport(w http.ResponseWriter, r *http.Request) {
	err := h.service.DismissReport(
		r.Context(),
		middleware.GetSession(r.Context()),
		chi.URLParam(r, "commentID"),
	)
	if err != nil {
		core.Fail(w, err, "comment")
		return
	}

	core.NoContent(w)
}

func (h *Handler) ListReported(w http.ResponseWriter, r *http.Request) {
	params := core.ParsePageParams(r)

	comments, total, err := h.service.ListReported(
		r.Context(),
		middleware.GetSession(r.Context()),
		params,
	)
	if err != nil {
		core.Fail(w, err, "comment")
		return
	}

	core.Paginated(
		w,
		ToReportedCommentResponseList(comments),
		params.Page,
		params.PageSize,
		total,
	)
}
