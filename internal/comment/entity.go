// AngelaMos | 2026
// entity.go

package comment

import (
	"time"

	"github.com/carterperez-dev/forum-api/internal/policy"
)

type Comment struct {
	ID           string     `db:"id"`
	PostID       string     `db:"post_id"`
	AuthorEmail  string     `db:"author_email"`
	AuthorName   string     `db:"author_name"`
	AuthorImage  string     `db:"author_image"`
	Text         string     `db:"text"`
	ReportedBy   *string    `db:"reported_by"`
	ReportReason *string    `db:"report_reason"`
	ReportedAt   *time.Time `db:"reported_at"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

func (c *Comment) Ref() *policy.CommentRef {
	return &policy.CommentRef{AuthorEmail: c.AuthorEmail}
}

func (c *Comment) Reported() bool {
	return c.ReportedBy != nil
}
