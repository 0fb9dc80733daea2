// AngelaMos | 2026
// repository.go

package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/forum-api/internal/core"
)

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	CreateForEmail(ctx context.Context, n *Notification, email string) error
	GetByID(ctx context.Context, id string) (*Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	List(ctx context.Context, userID string, params core.PageParams) ([]Notification, int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const columns = `id, user_id, text, link, read, created_at`

func (r *repository) Create(ctx context.Context, n *Notification) error {
	err := r.db.GetContext(ctx, &n.CreatedAt, `
		INSERT INTO notifications (id, user_id, text, link)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		n.ID, n.UserID, n.Text, n.Link)
	if err != nil {
		if core.IsForeignKeyError(err) {
			return fmt.Errorf("create notification: user: %w", core.ErrNotFound)
		}
		return fmt.Errorf("create notification: %w", err)
	}

	return nil
}

// CreateForEmail resolves the recipient by email in the same statement.
func (r *repository) CreateForEmail(ctx context.Context, n *Notification, email string) error {
	err := r.db.GetContext(ctx, n, `
		INSERT INTO notifications (id, user_id, text, link)
		SELECT $1, u.id, $2, $3
		FROM users u
		WHERE u.email = $4 AND u.deleted_at IS NULL
		RETURNING `+columns,
		n.ID, n.Text, n.Link, email)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("create notification: recipient %s: %w", email, core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Notification, error) {
	var n Notification
	err := r.db.GetContext(ctx, &n,
		`SELECT `+columns+` FROM notifications WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get notification: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}

	return &n, nil
}

func (r *repository) MarkRead(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}

	return core.RequireAffected(result, "mark notification read")
}

func (r *repository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}

	return result.RowsAffected()
}

func (r *repository) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE`, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}

	return count, nil
}

func (r *repository) List(
	ctx context.Context,
	userID string,
	params core.PageParams,
) ([]Notification, int, error) {
	params.Normalize()

	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1`, userID); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	var items []Notification
	err := r.db.SelectContext(ctx, &items, `
		SELECT `+columns+`
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		userID, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}

	return items, total, nil
}
