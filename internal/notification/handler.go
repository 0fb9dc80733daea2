// AngelaMos | 2026
// handler.go

package notification

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
	authenticated func(http.Handler) http.Handler,
) {
	r.Route("/notifications", func(r chi.Router) {
		r.Use(authenticated)

		r.Get("/", h.List)
		r.Get("/unread/count", h.UnreadCount)
		r.Patch("/read-all", h.MarkAllRead)
		r.Patch("/{notificationID}/read", h.MarkRead)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params := core.ParsePageParams(r)

	items, total, err := h.service.List(
		r.Context(),
		middleware.GetSession(r.Context()),
		params,
	)
	if err != nil {
		core.Fail(w, err, "notification")
		return
	}

	core.Paginated(w, items, params.Page, params.PageSize, total)
}

func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.UnreadCount(r.Context(), middleware.GetSession(r.Context()))
	if err != nil {
		core.Fail(w, err, "notification")
		return
	}

	core.OK(w, UnreadCountResponse{Count: count})
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	err := h.service.MarkRead(
		r.Context(),
		middleware.GetSession(r.Context()),
		chi.URLParam(r, "notificationID"),
	)
	if err != nil {
		core.Fail(w, err, "notification")
		return
	}

	core.NoContent(w)
}

func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.MarkAllRead(r.Context(), middleware.GetSession(r.Context()))
	if err != nil {
		core.Fail(w, err, "notification")
		return
	}

	core.OK(w, map[string]int64{"updated": n})
}
