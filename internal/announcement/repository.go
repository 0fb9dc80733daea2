// AngelaMos | 2026
// repository.go

package announcement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/forum-api/internal/core"
)

type Repository interface {
	Create(ctx context.Context, a *Announcement) error
	GetByID(ctx context.Context, id string) (*Announcement, error)
	Update(ctx context.Context, a *Announcement) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Announcement, error)
	Count(ctx context.Context) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const columns = `id, title, content, author_name, author_image, created_at, updated_at`

func (r *repository) Create(ctx context.Context, a *Announcement) error {
	err := r.db.GetContext(ctx, a, `
		INSERT INTO announcements (id, title, content, author_name, author_image)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		a.ID, a.Title, a.Content, a.AuthorName, a.AuthorImage)
	if err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Announcement, error) {
	var a Announcement
	err := r.db.GetContext(ctx, &a,
		`SELECT `+columns+` FROM announcements WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get announcement: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get announcement: %w", err)
	}

	return &a, nil
}

func (r *repository) Update(ctx context.Context, a *Announcement) error {
	err := r.db.GetContext(ctx, &a.UpdatedAt, `
		UPDATE announcements
		SET title = $2, content = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		a.ID, a.Title, a.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update announcement: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update announcement: %w", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}

	return core.RequireAffected(result, "delete announcement")
}

func (r *repository) List(ctx context.Context) ([]Announcement, error) {
	items := []Announcement{}
	err := r.db.SelectContext(ctx, &items,
		`SELECT `+columns+` FROM announcements ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}

	return items, nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM announcements`); err != nil {
		return 0, fmt.Errorf("count announcements: %w", err)
	}

	return count, nil
}
