// AngelaMos | 2026
// repository.go

package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/forum-api/internal/core"
)

type Repository interface {
	// Record inserts p unless its intent is already recorded, and reports
	// whether this call inserted it. p is filled from the stored row.
	Record(ctx context.Context, p *Payment) (bool, error)
	DeleteByIntent(ctx context.Context, intentID string) error
	ListByUser(ctx context.Context, userID string, params core.PageParams) ([]Payment, int, error)
	ListAll(ctx context.Context, params core.PageParams) ([]Payment, int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const columns = `id, user_id, email, intent_id, amount_cents, currency, status, created_at`

func (r *repository) Record(ctx context.Context, p *Payment) (bool, error) {
	err := r.db.GetContext(ctx, p, `
		INSERT INTO payments (id, user_id, email, intent_id, amount_cents, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (intent_id) DO NOTHING
		RETURNING `+columns,
		p.ID, p.UserID, p.Email, p.IntentID, p.AmountCents, p.Currency, p.Status)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("record payment: %w", err)
	}

	err = r.db.GetContext(ctx, p,
		`SELECT `+columns+` FROM payments WHERE intent_id = $1`, p.IntentID)
	if err != nil {
		return false, fmt.Errorf("record payment: read existing: %w", err)
	}

	return false, nil
}

func (r *repository) DeleteByIntent(ctx context.Context, intentID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM payments WHERE intent_id = $1`, intentID)
	if err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	return nil
}

func (r *repository) ListByUser(
	ctx context.Context,
	userID string,
	params core.PageParams,
) ([]Payment, int, error) {
	return r.list(ctx, "user_id = $1", []any{userID}, params)
}

func (r *repository) ListAll(
	ctx context.Context,
	params core.PageParams,
) ([]Payment, int, error) {
	return r.list(ctx, "TRUE", nil, params)
}

func (r *repository) list(
	ctx context.Context,
	where string,
	args []any,
	params core.PageParams,
) ([]Payment, int, error) {
	params.Normalize()
	argIdx := len(args) + 1

	if params.Search != "" {
		where += fmt.Sprintf(" AND (email ILIKE $%d OR intent_id ILIKE $%d)", argIdx, argIdx)
		args = append(args, core.LikePattern(params.Search))
		argIdx++
	}

	var total int
	if err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM payments WHERE "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM payments
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		columns, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, params.Offset())

	var items []Payment
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}

	return items, total, nil
}
