// AngelaMos | 2026
// handler.go

package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/forum-api/internal/core"
	"github.com/carterperez-dev/forum-api/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/stats", h.Dashboard)
		r.Get("/stats/forum", h.ForumCounts)
	})
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.service.Dashboard(r.Context(), middleware.GetSession(r.Context()))
	if err != nil {
		core.Fail(w, err, "stats")
		return
	}

	core.OK(w, dash)
}

func (h *Handler) ForumCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.ForumCounts(r.Context(), middleware.GetSession(r.Context()))
	if err != nil {
		core.Fail(w, err, "stats")
		return
	}

	core.OK(w, counts)
}
