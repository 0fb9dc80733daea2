// AngelaMos | 2026
// dto.go

package post

import (
	"log/slog"
	"time"

	"github.com/carterperez-dev/forum-api/internal/core"
)

type CreatePostRequest struct {
	Title   string `json:"title"   validate:"required,min=1,max=200"`
	Content string `json:"content" validate:"required,min=1,max=20000"`
	Tag     string `json:"tag"     validate:"required,min=1,max=50"`
	Public  *bool  `json:"public,omitempty"`
}

type UpdatePostRequest struct {
	Title   *string `json:"title,omitempty"   validate:"omitempty,min=1,max=200"`
	Content *string `json:"content,omitempty" validate:"omitempty,min=1,max=20000"`
}

type VisibilityRequest struct {
	Public *bool `json:"public" validate:"required"`
}

// VoteRequest carries the voter's new state; 0 withdraws the vote.
type VoteRequest struct {
	Vote *int `json:"vote" validate:"required,oneof=-1 0 1"`
}

const (
	SortNewest     = "newest"
	SortPopularity = "popularity"
)

type ListParams struct {
	core.PageParams
	Sort string
	Tag  string
}

type PostResponse struct {
	ID           string    `json:"id"`
	AuthorEmail  string    `json:"author_email"`
	AuthorName   string    `json:"author_name"`
	AuthorImage  string    `json:"author_image"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	ContentHTML  string    `json:"content_html"`
	Tag          string    `json:"tag"`
	Public       bool      `json:"public"`
	Upvotes      int       `json:"upvotes"`
	Downvotes    int       `json:"downvotes"`
	CommentCount int       `json:"comment_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CountResponse struct {
	Count int `json:"count"`
}

func ToPostResponse(p *Post) PostResponse {
	html, err := core.RenderMarkdown(p.Content)
	if err != nil {
		slog.Warn("render post content", "post_id", p.ID, "error", err)
	}

	return PostResponse{
		ID:           p.ID,
		AuthorEmail:  p.AuthorEmail,
		AuthorName:   p.AuthorName,
		AuthorImage:  p.AuthorImage,
		Title:        p.Title,
		Content:      p.Content,
		ContentHTML:  html,
		Tag:          p.Tag,
		Public:       p.Public,
		Upvotes:      p.Upvotes,
		Downvotes:    p.Downvotes,
		CommentCount: p.CommentCount,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func ToPostResponseList(posts []Post) []PostResponse {
	out := make([]PostResponse, 0, len(posts))
	for i := range posts {
		out = append(out, ToPostResponse(&posts[i]))
	}
	return out
}
