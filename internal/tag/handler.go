// AngelaMos | 2026
// handler.go

package tag

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
	r.Route("/tags", func(r chi.Router) {
		r.Get("/", h.List)

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Use(middleware.RequireAdmin)

			r.Post("/", h.Create)
			r.Patch("/{tagID}", h.Rename)
			r.Delete("/{tagID}", h.Delete)
		})
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tags, err := h.service.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		core.Fail(w, err, "tag")
		return
	}

	core.OK(w, tags)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req TagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	tag, err := h.service.Create(r.Context(), middleware.GetSession(r.Context()), req.Name)
	if err != nil {
		core.Fail(w, err, "tag")
		return
	}

	core.Created(w, tag)
}

func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	var req TagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	tag, err := h.service.Rename(
		r.Context(),
		middleware.GetSession(r.Context()),
		chi.URLParam(r, "tagID"),
		req.Name,
	)
	if err != nil {
		core.Fail(w, err, "tag")
		return
	}

	core.OK(w, tag)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(
		r.Context(),
		middleware.GetSession(r.Context()),
		chi.URLParam(r, "tagID"),
	)
	if err != nil {
		core.Fail(w, err, "tag")
		return
	}

	core.NoContent(w)
}
