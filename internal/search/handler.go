// AngelaMos | 2026
// handler.go

package search

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/forum-api/internal/core"
)

type RecordRequest struct {
	Tag string `json:"tag" validate:"required,min=1,max=50"`
}

type Handler struct {
	tracker   *Tracker
	validator *validator.Validate
}

func NewHandler(tracker *Tracker) *Handler {
	return &Handler{
		tracker:   tracker,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/searches", func(r chi.Router) {
		r.Post("/", h.Record)
		r.Get("/popular", h.Popular)
	})
}

func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	var req RecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	if err := h.tracker.Record(r.Context(), req.Tag); err != nil {
		core.Fail(w, err, "search")
		return
	}

	core.NoContent(w)
}

func (h *Handler) Popular(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tracker.Popular(r.Context())
	if err != nil {
		core.Fail(w, err, "search")
		return
	}

	core.OK(w, tags)
}
