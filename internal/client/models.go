// AngelaMos | 2026
// models.go

package client

import (
	"net/url"
	"strconv"
	"time"

	"github.com/carterperez-dev/forum-api/internal/membership"
	"github.com/carterperez-dev/forum-api/internal/policy"
)

type Post struct {
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

func (p Post) ref() *policy.PostRef {
	return &policy.PostRef{
		AuthorEmail: p.AuthorEmail,
		Public:      p.Public,
	}
}

type NewPost struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Tag     string `json:"tag"`
	Public  *bool  `json:"public,omitempty"`
}

// PostEdit carries the fields to change; nil leaves a field as is.
type PostEdit struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

type PostDetail struct {
	Post     Post      `json:"post"`
	Comments []Comment `json:"comments"`
}

type Report struct {
	ReportedBy string    `json:"reported_by"`
	Reason     string    `json:"reason"`
	ReportedAt time.Time `json:"reported_at"`
}

type Comment struct {
	ID          string    `json:"id"`
	PostID      string    `json:"post_id"`
	AuthorEmail string    `json:"author_email"`
	AuthorName  string    `json:"author_name"`
	AuthorImage string    `json:"author_image"`
	Text        string    `json:"text"`
	Report      *Report   `json:"report,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (c Comment) ref() *policy.CommentRef {
	return &policy.CommentRef{AuthorEmail: c.AuthorEmail}
}

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	Link      string    `json:"link"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

type Announcement struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	ContentHTML string    `json:"content_html"`
	AuthorName  string    `json:"author_name"`
	AuthorImage string    `json:"author_image"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AnnouncementEdit carries the fields to change; nil leaves a field as is.
type AnnouncementEdit struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type PopularTag struct {
	Tag          string    `json:"tag"`
	Count        int64     `json:"count"`
	LastSearched time.Time `json:"last_searched"`
}

type Intent struct {
	ClientSecret string `json:"client_secret"`
	IntentID     string `json:"intent_id"`
	AmountCents  int64  `json:"amount"`
	Currency     string `json:"currency"`
}

type PaymentResult struct {
	Member          membership.Tier `json:"member"`
	MemberExpiresAt *time.Time      `json:"member_expires_at,omitempty"`
	Duplicate       bool            `json:"duplicate"`
}

type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// ListQuery is the logical identity of a list fetch.
type ListQuery struct {
	Page   int
	Limit  int
	Search string
	Sort   string
	Tag    string
}

func (q ListQuery) encode() string {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Tag != "" {
		v.Set("tag", q.Tag)
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}
