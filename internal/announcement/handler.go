// AngelaMos | 2026
// handler.go

package announcement

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
	r.Route("/announcements", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/count", h.Count)
		r.Get("/{announcementID}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Use(middleware.RequireAdmin)

			r.Post("/", h.Create)
			r.Patch("/{announcementID}", h.Update)
			r.Delete("/{announcementID}", h.Delete)
		})
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		core.Fail(w, err, "announcement")
		return
	}

	core.OK(w, ToResponseList(items))
}

func (h *Handler) Count(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.Count(r.Context())
	if err != nil {
		core.Fail(w, err, "announcement")
		return
	}

	core.OK(w, CountResponse{Count: count})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.Get(r.Context(), chi.URLParam(r, "announcementID"))
	if err != nil {
		core.Fail(w, err, "announcement")
		return
	}

	core.OK(w, ToResponse(a))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	a, err := h.service.Create(r.Context(), middleware.GetSession(r.Context()), req)
	if err != nil {
		core.Fail(w, err, "announcement")
		return
	}

	core.Created(w, ToResponse(a))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	a, err := h.service.Update(
		r.Context(),
		middleware.GetSession(r.Context()),
		chi.URLParam(r, "announcementID"),
		req,
	)
	if err != nil {
		core.Fail(w, err, "announcement")
		return
	}

	core.OK(w, ToResponse(a))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(
		r.Context(),
		middleware.GetSession(r.Context()),
		chi.URLParam(r, "announcementID"),
	)
	if err != nil {
		core.Fail(w, err, "announcement")
		return
	}

	core.NoContent(w)
}
