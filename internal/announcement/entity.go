// AngelaMos | 2026
// entity.go

package announcement

import (
	"log/slog"
	"time"

	"github.com/carterperez-dev/forum-api/internal/core"
)

type Announcement struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Content     string    `db:"content"`
	AuthorName  string    `db:"author_name"`
	AuthorImage string    `db:"author_image"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type CreateRequest struct {
	Title   string `json:"title"   validate:"required,min=1,max=200"`
	Content string `json:"content" validate:"required,min=1,max=20000"`
}

type UpdateRequest struct {
	Title   *string `json:"title,omitempty"   validate:"omitempty,min=1,max=200"`
	Content *string `json:"content,omitempty" validate:"omitempty,min=1,max=20000"`
}

type Response struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	ContentHTML string    `json:"content_html"`
	AuthorName  string    `json:"author_name"`
	AuthorImage string    `json:"author_image"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CountResponse struct {
	Count int `json:"count"`
}

func ToResponse(a *Announcement) Response {
	html, err := core.RenderMarkdown(a.Content)
	if err != nil {
		slog.Warn("render announcement", "announcement_id", a.ID, "error", err)
	}

	return Response{
		ID:          a.ID,
		Title:       a.Title,
		Content:     a.Content,
		ContentHTML: html,
		AuthorName:  a.AuthorName,
		AuthorImage: a.AuthorImage,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func ToResponseList(items []Announcement) []Response {
	out := make([]Response, 0, len(items))
	for i := range items {
		out = append(out, ToResponse(&items[i]))
	}
	return out
}
