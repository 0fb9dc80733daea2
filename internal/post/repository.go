// AngelaMos | 2026
// repository.go

package post

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/forum-api/internal/core"
	"github.com/carterperez-dev/forum-api/internal/membership"
)

// Author is the author row as locked for the duration of a post insert.
type Author struct {
	ID              string          `db:"id"`
	Role            string          `db:"role"`
	Member          membership.Tier `db:"member"`
	MemberExpiresAt *time.Time      `db:"member_expires_at"`
}

// QuotaCheck decides, under the author lock, whether one more post may be
// inserted given the locked author row and the exact current post count.
type QuotaCheck func(author Author, count int) error

type Repository interface {
	CreateWithQuota(ctx context.Context, post *Post, check QuotaCheck) error
	GetByID(ctx context.Context, id string) (*Post, error)
	Update(ctx context.Context, post *Post) error
	SetVisibility(ctx context.Context, id string, public bool) error
	Delete(ctx context.Context, id string) error
	Vote(ctx context.Context, postID, voterEmail string, value int) (*Tally, error)
	CountByAuthor(ctx context.Context, email string) (int, error)
	ListPublic(ctx context.Context, params ListParams) ([]Post, int, error)
	ListByAuthor(ctx context.Context, email string, params ListParams) ([]Post, int, error)
	ListAll(ctx context.Context, params ListParams) ([]Post, int, error)
	ListRelated(ctx context.Context, tag, exceptID string, limit int) ([]Post, error)
	ListRecentPublicByAuthor(ctx context.Context, email string, limit int) ([]Post, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const postColumns = `p.id, p.author_email, p.author_name, p.author_image,
		       p.title, p.content, p.tag, p.public,
		       p.upvotes, p.downvotes, p.comment_count,
		       p.created_at, p.updated_at,
		       (u.id IS NULL) AS author_missing`

const postFrom = `
		FROM posts p
		LEFT JOIN users u ON u.email = p.author_email AND u.deleted_at IS NULL`

// CreateWithQuota locks the author row, counts the author's posts and lets
// check decide before inserting, all in one transaction. Two concurrent
// submissions by the same author are serialized on the row lock, so the
// count each one sees already includes the other's insert.
func (r *repository) CreateWithQuota(
	ctx context.Context,
	post *Post,
	check QuotaCheck,
) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var author Author
		err := tx.GetContext(ctx, &author, `
			SELECT id, role, member, member_expires_at
			FROM users
			WHERE email = $1 AND deleted_at IS NULL
			FOR UPDATE`, post.AuthorEmail)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("create post: author gone: %w", core.ErrUnauthorized)
		}
		if err != nil {
			return fmt.Errorf("create post: lock author: %w", err)
		}

		var count int
		err = tx.GetContext(ctx, &count,
			`SELECT COUNT(*) FROM posts WHERE author_email = $1`, post.AuthorEmail)
		if err != nil {
			return fmt.Errorf("create post: count: %w", err)
		}

		if err := check(author, count); err != nil {
			return err
		}

		err = tx.GetContext(ctx, post, `
			INSERT INTO posts (id, author_email, author_name, author_image,
			                   title, content, tag, public)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING created_at, updated_at`,
			post.ID,
			post.AuthorEmail,
			post.AuthorName,
			post.AuthorImage,
			post.Title,
			post.Content,
			post.Tag,
			post.Public,
		)
		if err != nil {
			return fmt.Errorf("create post: %w", err)
		}

		return nil
	})
}

func (r *repository) GetByID(ctx context.Context, id string) (*Post, error) {
	query := `SELECT ` + postColumns + postFrom + ` WHERE p.id = $1`

	var post Post
	err := r.db.GetContext(ctx, &post, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get post: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}

	return &post, nil
}

func (r *repository) Update(ctx context.Context, post *Post) error {
	query := `
		UPDATE posts
		SET title = $2, content = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &post.UpdatedAt, query,
		post.ID,
		post.Title,
		post.Content,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update post: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}

	return nil
}

func (r *repository) SetVisibility(ctx context.Context, id string, public bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE posts SET public = $2, updated_at = NOW() WHERE id = $1`,
		id, public)
	if err != nil {
		return fmt.Errorf("set visibility: %w", err)
	}

	return core.RequireAffected(result, "set visibility")
}

// Delete removes the post; votes and comments go with it by cascade.
func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	return core.RequireAffected(result, "delete post")
}

// Vote moves voterEmail to value on postID and adjusts the counters in
// the same transaction. The post row is locked first so concurrent votes
// on one post apply one after another; the last write wins.
func (r *repository) Vote(
	ctx context.Context,
	postID, voterEmail string,
	value int,
) (*Tally, error) {
	var tally Tally

	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var id string
		err := tx.GetContext(ctx, &id,
			`SELECT id FROM posts WHERE id = $1 FOR UPDATE`, postID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("vote: %w", core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("vote: lock post: %w", err)
		}

		var prev int
		err = tx.GetContext(ctx, &prev, `
			SELECT value FROM post_votes
			WHERE post_id = $1 AND voter_email = $2`, postID, voterEmail)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("vote: read previous: %w", err)
		}

		if value == 0 {
			_, err = tx.ExecContext(ctx, `
				DELETE FROM post_votes
				WHERE post_id = $1 AND voter_email = $2`, postID, voterEmail)
		} else {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO post_votes (post_id, voter_email, value)
				VALUES ($1, $2, $3)
				ON CONFLICT (post_id, voter_email)
				DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
				postID, voterEmail, value)
		}
		if err != nil {
			return fmt.Errorf("vote: write: %w", err)
		}

		up, down := voteDelta(prev, value)
		err = tx.GetContext(ctx, &tally, `
			UPDATE posts
			SET upvotes = upvotes + $2, downvotes = downvotes + $3
			WHERE id = $1
			RETURNING upvotes, downvotes`, postID, up, down)
		if err != nil {
			return fmt.Errorf("vote: update counters: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	tally.Vote = value
	return &tally, nil
}

func (r *repository) CountByAuthor(ctx context.Context, email string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM posts WHERE author_email = $1`, email)
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}

	return count, nil
}

func (r *repository) ListPublic(
	ctx context.Context,
	params ListParams,
) ([]Post, int, error) {
	return r.list(ctx, []string{"p.public = TRUE"}, nil, params)
}

func (r *repository) ListByAuthor(
	ctx context.Context,
	email string,
	params ListParams,
) ([]Post, int, error) {
	return r.list(ctx, []string{"p.author_email = $1"}, []any{email}, params)
}

func (r *repository) ListAll(
	ctx context.Context,
	params ListParams,
) ([]Post, int, error) {
	return r.list(ctx, nil, nil, params)
}

func (r *repository) list(
	ctx context.Context,
	conditions []string,
	args []any,
	params ListParams,
) ([]Post, int, error) {
	params.Normalize()
	argIdx := len(args) + 1

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(p.title ILIKE $%d OR p.tag ILIKE $%d)", argIdx, argIdx))
		args = append(args, core.LikePattern(params.Search))
		argIdx++
	}

	if params.Tag != "" {
		conditions = append(conditions, fmt.Sprintf("p.tag = $%d", argIdx))
		args = append(args, params.Tag)
		argIdx++
	}

	whereClause := "TRUE"
	if len(conditions) > 0 {
		whereClause = strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM posts p WHERE " + whereClause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	orderBy := "p.created_at DESC"
	if params.Sort == SortPopularity {
		orderBy = "(p.upvotes - p.downvotes) DESC, p.created_at DESC"
	}

	query := fmt.Sprintf(`SELECT %s %s
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		postColumns, postFrom, whereClause, orderBy, argIdx, argIdx+1)
	args = append(args, params.PageSize, params.Offset())

	var posts []Post
	if err := r.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}

	return posts, total, nil
}

func (r *repository) ListRelated(
	ctx context.Context,
	tag, exceptID string,
	limit int,
) ([]Post, error) {
	query := `SELECT ` + postColumns + postFrom + `
		WHERE p.public = TRUE AND p.tag = $1 AND p.id <> $2
		ORDER BY p.created_at DESC
		LIMIT $3`

	var posts []Post
	if err := r.db.SelectContext(ctx, &posts, query, tag, exceptID, limit); err != nil {
		return nil, fmt.Errorf("list related posts: %w", err)
	}

	return posts, nil
}

func (r *repository) ListRecentPublicByAuthor(
	ctx context.Context,
	email string,
	limit int,
) ([]Post, error) {
	query := `SELECT ` + postColumns + postFrom + `
		WHERE p.public = TRUE AND p.author_email = $1
		ORDER BY p.created_at DESC
		LIMIT $2`

	var posts []Post
	if err := r.db.SelectContext(ctx, &posts, query, email, limit); err != nil {
		return nil, fmt.Errorf("list author posts: %w", err)
	}

	return posts, nil
}
