// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/forum-api/internal/core"
)

// Repository stores refresh tokens. Tokens of one sign-in share a family;
// each refresh retires the presented token and issues its successor.
type Repository interface {
	Issue(ctx context.Context, token *RefreshToken) error
	Rotate(ctx context.Context, usedID string, next *RefreshToken) error
	FindByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	FindByID(ctx context.Context, id string) (*RefreshToken, error)
	Revoke(ctx context.Context, id string) error
	RevokeFamily(ctx context.Context, familyID string) error
	RevokeUser(ctx context.Context, userID string) error
	ListActive(ctx context.Context, userID string) ([]RefreshToken, error)
	Purge(ctx context.Context, before time.Time) (int64, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const tokenColumns = `id, user_id, token_hash, family_id, expires_at, created_at,
		       is_used, used_at, revoked_at, replaced_by_id, user_agent, ip_address`

func (r *repository) Issue(ctx context.Context, token *RefreshToken) error {
	return insertToken(ctx, r.db, token)
}

// Rotate marks usedID as used and inserts its successor atomically. If the
// token was already used by a concurrent refresh, the whole family is
// revoked and ErrTokenReuse is returned.
func (r *repository) Rotate(ctx context.Context, usedID string, next *RefreshToken) error {
	reused := false

	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE refresh_tokens
			SET is_used = TRUE, used_at = NOW(), replaced_by_id = $2
			WHERE id = $1 AND is_used = FALSE AND revoked_at IS NULL`,
			usedID, next.ID)
		if err != nil {
			return fmt.Errorf("rotate refresh token: %w", err)
		}
		if err := core.RequireAffected(result, "rotate refresh token"); err != nil {
			reused = true
			return err
		}

		return insertToken(ctx, tx, next)
	})
	if !reused {
		return err
	}

	if err := r.RevokeFamily(ctx, next.FamilyID); err != nil {
		return err
	}
	return ErrTokenReuse
}

func insertToken(ctx context.Context, db sqlx.QueryerContext, token *RefreshToken) error {
	err := sqlx.GetContext(ctx, db, &token.CreatedAt, `
		INSERT INTO refresh_tokens (id, user_id, token_hash, family_id,
		                            expires_at, user_agent, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.FamilyID,
		token.ExpiresAt,
		token.UserAgent,
		token.IPAddress,
	)
	if err != nil {
		return fmt.Errorf("issue refresh token: %w", err)
	}

	return nil
}

func (r *repository) FindByHash(ctx context.Context, tokenHash string) (*RefreshToken, error) {
	return r.findOne(ctx, `token_hash = $1`, tokenHash)
}

func (r *repository) FindByID(ctx context.Context, id string) (*RefreshToken, error) {
	return r.findOne(ctx, `id = $1`, id)
}

func (r *repository) findOne(ctx context.Context, where string, arg any) (*RefreshToken, error) {
	var token RefreshToken
	err := r.db.GetContext(ctx, &token,
		`SELECT `+tokenColumns+` FROM refresh_tokens WHERE `+where, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find refresh token: %w", err)
	}

	return &token, nil
}

func (r *repository) Revoke(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE refresh_tokens SET revoked_at = NOW()
		WHERE id = $1 AND revoked_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	return core.RequireAffected(result, "revoke refresh token")
}

func (r *repository) RevokeFamily(ctx context.Context, familyID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE refresh_tokens SET revoked_at = NOW()
		WHERE family_id = $1 AND revoked_at IS NULL`, familyID)
	if err != nil {
		return fmt.Errorf("revoke token family: %w", err)
	}

	return nil
}

func (r *repository) RevokeUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE refresh_tokens SET revoked_at = NOW()
		WHERE user_id = $1 AND revoked_at IS NULL`, userID)
	if err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}

	return nil
}

// ListActive returns the user's signed-in devices, newest first.
func (r *repository) ListActive(ctx context.Context, userID string) ([]RefreshToken, error) {
	var tokens []RefreshToken
	err := r.db.SelectContext(ctx, &tokens, `
		SELECT `+tokenColumns+`
		FROM refresh_tokens
		WHERE user_id = $1
		  AND revoked_at IS NULL
		  AND is_used = FALSE
		  AND expires_at > NOW()
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}

	return tokens, nil
}

func (r *repository) Purge(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("purge refresh tokens: %w", err)
	}

	return result.RowsAffected()
}
