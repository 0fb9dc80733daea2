// AngelaMos | 2026
// handler.go

package media

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/forum-api/internal/core"
	"github.com/carterperez-dev/forum-api/internal/middleware"
)

type Handler struct {
	service  *Service
	maxBytes int64
}

func NewHandler(service *Service, maxBytes int64) *Handler {
	return &Handler{service: service, maxBytes: maxBytes}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticated func(http.Handler) http.Handler,
) {
	r.With(authenticated).Post("/media", h.Upload)
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+(1<<20))

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			core.BadRequest(w, "file too large")
			return
		}
		core.BadRequest(w, "multipart field 'file' is required")
		return
	}
	defer file.Close() //nolint:errcheck // read-only multipart file

	if header.Size > h.maxBytes {
		core.BadRequest(w, "file too large")
		return
	}

	upload, err := h.service.Upload(
		r.Context(),
		middleware.GetSession(r.Context()),
		file,
		header.Size,
	)
	if err != nil {
		core.Fail(w, err, "media")
		return
	}

	core.Created(w, upload)
}
