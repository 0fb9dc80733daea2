// AngelaMos | 2026
// repository.go

package tag

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/forum-api/internal/core"
)

type Repository interface {
	Create(ctx context.Context, tag *Tag) error
	GetByID(ctx context.Context, id string) (*Tag, error)
	Rename(ctx context.Context, tag *Tag, oldName string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, search string) ([]Tag, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, tag *Tag) error {
	err := r.db.GetContext(ctx, tag, `
		INSERT INTO tags (id, name, slug)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`,
		tag.ID, tag.Name, tag.Slug)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create tag: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create tag: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Tag, error) {
	var tag Tag
	err := r.db.GetContext(ctx, &tag, `
		SELECT id, name, slug, created_at, updated_at
		FROM tags
		WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get tag: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get tag: %w", err)
	}

	return &tag, nil
}

// Rename updates the tag and re-labels every post carrying the old name.
func (r *repository) Rename(ctx context.Context, tag *Tag, oldName string) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &tag.UpdatedAt, `
			UPDATE tags
			SET name = $2, slug = $3, updated_at = NOW()
			WHERE id = $1
			RETURNING updated_at`,
			tag.ID, tag.Name, tag.Slug)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("rename tag: %w", core.ErrNotFound)
		}
		if err != nil {
			if core.IsDuplicateKeyError(err) {
				return fmt.Errorf("rename tag: %w", core.ErrDuplicateKey)
			}
			return fmt.Errorf("rename tag: %w", err)
		}

		if oldName == tag.Name {
			return nil
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE posts SET tag = $2 WHERE tag = $1`, oldName, tag.Name)
		if err != nil {
			return fmt.Errorf("rename tag: relabel posts: %w", err)
		}

		return nil
	})
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}

	return core.RequireAffected(result, "delete tag")
}

func (r *repository) List(ctx context.Context, search string) ([]Tag, error) {
	query := `SELECT id, name, slug, created_at, updated_at FROM tags`
	var args []any

	if search != "" {
		query += ` WHERE name ILIKE $1`
		args = append(args, core.LikePattern(search))
	}
	query += ` ORDER BY name ASC`

	tags := []Tag{}
	if err := r.db.SelectContext(ctx, &tags, query, args...); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	return tags, nil
}

func (r *repository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM tags WHERE name = $1)`, name)
	if err != nil {
		return false, fmt.Errorf("check tag: %w", err)
	}

	return exists, nil
}
