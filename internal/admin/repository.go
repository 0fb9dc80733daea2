// AngelaMos | 2026
// repository.go

package admin

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/forum-api/internal/core"
)

type ForumCounts struct {
	Users            int `db:"users"             json:"users"`
	Posts            int `db:"posts"             json:"posts"`
	Comments         int `db:"comments"          json:"comments"`
	ReportedComments int `db:"reported_comments" json:"reported_comments"`
	GoldMembers      int `db:"gold_members"      json:"gold_members"`
	Payments         int `db:"payments"          json:"payments"`
}

type Repository interface {
	ForumCounts(ctx context.Context) (*ForumCounts, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

// ForumCounts counts gold members by effective tier, so memberships that
// have expired but not yet been reconciled are not included.
func (r *repository) ForumCounts(ctx context.Context) (*ForumCounts, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users WHERE deleted_at IS NULL) AS users,
			(SELECT COUNT(*) FROM posts) AS posts,
			(SELECT COUNT(*) FROM comments) AS comments,
			(SELECT COUNT(*) FROM comments WHERE reported_by IS NOT NULL) AS reported_comments,
			(SELECT COUNT(*) FROM users
			  WHERE deleted_at IS NULL
			    AND member = 'gold'
			    AND (member_expires_at IS NULL OR member_expires_at > NOW())) AS gold_members,
			(SELECT COUNT(*) FROM payments) AS payments`

	var counts ForumCounts
	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("forum counts: %w", err)
	}

	return &counts, nil
}
