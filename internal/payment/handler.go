// AngelaMos | 2026
// handler.go

package payment

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
	r.Route("/payments", func(r chi.Router) {
		r.Use(authenticated)

		r.Post("/intents", h.CreateIntent)
		r.Post("/", h.Confirm)
		r.Get("/me", h.ListMine)
		r.With(middleware.RequireAdmin).Get("/", h.ListAll)
	})
}

func (h *Handler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req CreateIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	intent, err := h.service.CreateIntent(
		r.Context(),
		middleware.GetSession(r.Context()),
		req.AmountCents,
	)
	if err != nil {
		core.Fail(w, err, "payment")
		return
	}

	core.Created(w, intent)
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.Confirm(
		r.Context(),
		middleware.GetSession(r.Context()),
		req.IntentID,
	)
	if err != nil {
		core.Fail(w, err, "payment")
		return
	}

	if resp.Duplicate {
		core.OK(w, resp)
		return
	}
	core.Created(w, resp)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	params := core.ParsePageParams(r)

	items, total, err := h.service.ListMine(
		r.Context(),
		middleware.GetSession(r.Context()),
		params,
	)
	if err != nil {
		core.Fail(w, err, "payment")
		return
	}

	core.Paginated(w, items, params.Page, params.PageSize, total)
}

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	params := core.ParsePageParams(r)

	items, total, err := h.service.ListAll(
		r.Context(),
		middleware.GetSession(r.Context()),
		params,
	)
	if err != nil {
		core.Fail(w, err, "payment")
		return
	}

	core.Paginated(w, items, params.Page, params.PageSize, total)
}
