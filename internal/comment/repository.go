// AngelaMos | 2026
// repository.go

package comment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/forum-api/internal/core"
)

type Repository interface {
	Create(ctx context.Context, comment *Comment) error
	GetByID(ctx context.Context, id string) (*Comment, error)
	UpdateText(ctx context.Context, comment *Comment) error
	Delete(ctx context.Context, comment *Comment) error
	Report(ctx context.Context, id, reporter, reason string) (*Comment, error)
	ClearReport(ctx context.Context, id string) error
	ListByPost(ctx context.Context, postID string) ([]Comment, error)
	ListReported(ctx context.Context, params core.PageParams) ([]Comment, int, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const commentColumns = `id, post_id, author_email, author_name, author_image,
		       text, reported_by, report_reason, reported_at,
		       created_at, updated_at`

// Create inserts the comment and bumps the post's comment counter in one
// transaction.
func (r *repository) Create(ctx context.Context, comment *Comment) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, comment, `
			INSERT INTO comments (id, post_id, author_email, author_name,
			                      author_image, text)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at, updated_at`,
			comment.ID,
			comment.PostID,
			comment.AuthorEmail,
			comment.AuthorName,
			comment.AuthorImage,
			comment.Text,
		)
		if err != nil {
			if core.IsForeignKeyError(err) {
				return fmt.Errorf("create comment: post: %w", core.ErrNotFound)
			}
			return fmt.Errorf("create comment: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE posts SET comment_count = comment_count + 1 WHERE id = $1`,
			comment.PostID)
		if err != nil {
			return fmt.Errorf("create comment: count: %w", err)
		}

		return nil
	})
}

func (r *repository) GetByID(ctx context.Context, id string) (*Comment, error) {
	var comment Comment
	err := r.db.GetContext(ctx, &comment,
		`SELECT `+commentColumns+` FROM comments WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get comment: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}

	return &comment, nil
}

func (r *repository) UpdateText(ctx context.Context, comment *Comment) error {
	err := r.db.GetContext(ctx, &comment.UpdatedAt, `
		UPDATE comments
		SET text = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		comment.ID, comment.Text)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update comment: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}

	return nil
}

// Delete removes the comment row, and with it any report on it.
func (r *repository) Delete(ctx context.Context, comment *Comment) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM comments WHERE id = $1`, comment.ID)
		if err != nil {
			return fmt.Errorf("delete comment: %w", err)
		}
		if err := core.RequireAffected(result, "delete comment"); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE posts
			SET comment_count = GREATEST(comment_count - 1, 0)
			WHERE id = $1`, comment.PostID)
		if err != nil {
			return fmt.Errorf("delete comment: count: %w", err)
		}

		return nil
	})
}

// Report records reporter's report on the comment. A comment carries at
// most one active report; a later report replaces the earlier one.
func (r *repository) Report(
	ctx context.Context,
	id, reporter, reason string,
) (*Comment, error) {
	var comment Comment
	err := r.db.GetContext(ctx, &comment, `
		UPDATE comments
		SET reported_by = $2, report_reason = $3, reported_at = NOW()
		WHERE id = $1
		RETURNING `+commentColumns,
		id, reporter, reason)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report comment: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("report comment: %w", err)
	}

	return &comment, nil
}

func (r *repository) ClearReport(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE comments
		SET reported_by = NULL, report_reason = NULL, reported_at = NULL
		WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("clear report: %w", err)
	}

	return core.RequireAffected(result, "clear report")
}

func (r *repository) ListByPost(ctx context.Context, postID string) ([]Comment, error) {
	var comments []Comment
	err := r.db.SelectContext(ctx, &comments, `
		SELECT `+commentColumns+`
		FROM comments
		WHERE post_id = $1
		ORDER BY created_at ASC`, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	return comments, nil
}

func (r *repository) ListReported(
	ctx context.Context,
	params core.PageParams,
) ([]Comment, int, error) {
	params.Normalize()

	where := "reported_by IS NOT NULL"
	args := []any{}
	argIdx := 1

	if params.Search != "" {
		where += fmt.Sprintf(
			" AND (text ILIKE $%d OR author_email ILIKE $%d OR report_reason ILIKE $%d)",
			argIdx, argIdx, argIdx)
		args = append(args, core.LikePattern(params.Search))
		argIdx++
	}

	var total int
	if err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM comments WHERE "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count reported comments: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM comments
		WHERE %s
		ORDER BY reported_at DESC
		LIMIT $%d OFFSET $%d`,
		commentColumns, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, params.Offset())

	var comments []Comment
	if err := r.db.SelectContext(ctx, &comments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list reported comments: %w", err)
	}

	return comments, total, nil
}
