// AngelaMos | 2026
// handler.go

package user

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
	r.Route("/users", func(r chi.Router) {
		r.Use(authenticated)

		r.Get("/me", h.GetMe)
		r.Put("/me", h.UpdateMe)
		r.Delete("/me", h.DeleteMe)
		r.Get("/by-email/{email}", h.GetByEmail)
		r.Patch("/{userID}/member-expiry-check", h.CheckMembership)
		r.Patch("/{userID}/role", h.ChangeRole)

		r.With(middleware.RequireAdmin).Get("/", h.ListUsers)
	})
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	user, err := h.service.GetUser(r.Context(), sess.UserID)
	if err != nil {
		core.Fail(w, err, "user")
		return
	}

	core.OK(w, ToUserResponse(user, h.service.now()))
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	user, err := h.service.UpdateMe(r.Context(), middleware.GetSession(r.Context()), req)
	if err != nil {
		core.Fail(w, err, "user")
		return
	}

	core.OK(w, ToUserResponse(user, h.service.now()))
}

func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteMe(r.Context(), middleware.GetSession(r.Context())); err != nil {
		core.Fail(w, err, "user")
		return
	}

	core.NoContent(w)
}

func (h *Handler) GetByEmail(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetByEmailPublic(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		core.Fail(w, err, "user")
		return
	}

	core.OK(w, ToPublicUserResponse(user, h.service.now()))
}

// ListUsers returns the paginated members list (admin only).
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params := ListUsersParams{
		PageParams: core.ParsePageParams(r),
		Role:       r.URL.Query().Get("role"),
		Member:     r.URL.Query().Get("member"),
	}

	users, total, err := h.service.ListUsers(
		r.Context(),
		middleware.GetSession(r.Context()),
		params,
	)
	if err != nil {
		core.Fail(w, err, "user")
		return
	}

	core.Paginated(
		w,
		ToUserResponseList(users, h.service.now()),
		params.Page,
		params.PageSize,
		total,
	)
}

// ChangeRole promotes or demotes a user (super-admin only, never self).
func (h *Handler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	user, err := h.service.ChangeRole(
		r.Context(),
		middleware.GetSession(r.Context()),
		chi.URLParam(r, "userID"),
		req.Role,
	)
	if err != nil {
		core.Fail(w, err, "user")
		return
	}

	core.OK(w, ToUserResponse(user, h.service.now()))
}

// CheckMembership reconciles the stored tier with its expiry and returns
// the authoritative record.
func (h *Handler) CheckMembership(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.CheckMembership(
		r.Context(),
		middleware.GetSession(r.Context()),
		chi.URLParam(r, "userID"),
	)
	if err != nil {
		core.Fail(w, err, "user")
		return
	}

	core.OK(w, ToUserResponse(user, h.service.now()))
}
