// AngelaMos | 2026
// entity.go

package post

import (
	"time"

	"github.com/carterperez-dev/forum-api/internal/policy"
)

type Post struct {
	ID           string    `db:"id"`
	AuthorEmail  string    `db:"author_email"`
	AuthorName   string    `db:"author_name"`
	AuthorImage  string    `db:"author_image"`
	Title        string    `db:"title"`
	Content      string    `db:"content"`
	Tag          string    `db:"tag"`
	Public       bool      `db:"public"`
	Upvotes      int       `db:"upvotes"`
	Downvotes    int       `db:"downvotes"`
	CommentCount int       `db:"comment_count"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	// AuthorMissing is computed on read: the author account is gone.
	AuthorMissing bool `db:"author_missing"`
}

func (p *Post) Ref() *policy.PostRef {
	return &policy.PostRef{
		AuthorEmail:   p.AuthorEmail,
		Public:        p.Public,
		AuthorMissing: p.AuthorMissing,
	}
}

func (p *Post) Score() int {
	return p.Upvotes - p.Downvotes
}

// Tally is the vote state of one post after a vote was applied.
type Tally struct {
	Upvotes   int `db:"upvotes"   json:"upvotes"`
	Downvotes int `db:"downvotes" json:"downvotes"`
	Vote      int `db:"-"         json:"vote"`
}

// voteDelta is the counter change for moving a voter from prev to next,
// each in {-1, 0, 1}.
func voteDelta(prev, next int) (up, down int) {
	if prev == 1 {
		up--
	}
	if prev == -1 {
		down--
	}
	if next == 1 {
		up++
	}
	if next == -1 {
		down++
	}
	return up, down
}
