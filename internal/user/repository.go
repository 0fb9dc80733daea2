// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carterperez-dev/forum-api/internal/core"
	"github.com/carterperez-dev/forum-api/internal/membership"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	UpsertFederated(ctx context.Context, user *User) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
	UpdateRole(ctx context.Context, id, role string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	IncrementTokenVersion(ctx context.Context, id string) error
	SoftDelete(ctx context.Context, id string) error
	List(ctx context.Context, params ListUsersParams) ([]User, int, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	membership.Store
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const userColumns = `id, email, password_hash, name, photo_url, about, role,
		       member, member_expires_at, token_version,
		       created_at, updated_at, deleted_at`

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, password_hash, name, photo_url, role, member)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at, token_version`

	err := r.db.GetContext(ctx, user, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.PhotoURL,
		user.Role,
		user.Member,
	)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// UpsertFederated creates the account on first federated sign-in and
// otherwise fills in a missing name or photo. Soft-deleted accounts are
// not revived.
func (r *repository) UpsertFederated(ctx context.Context, user *User) (*User, error) {
	query := `
		INSERT INTO users (id, email, name, photo_url, role, member)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO UPDATE
		SET name = CASE WHEN users.name = '' THEN EXCLUDED.name ELSE users.name END,
		    photo_url = CASE WHEN users.photo_url = '' THEN EXCLUDED.photo_url ELSE users.photo_url END,
		    updated_at = NOW()
		WHERE users.deleted_at IS NULL
		RETURNING ` + userColumns

	var out User
	err := r.db.GetContext(ctx, &out, query,
		user.ID,
		user.Email,
		user.Name,
		user.PhotoURL,
		user.Role,
		user.Member,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("upsert user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	return &out, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1 AND deleted_at IS NULL`

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1 AND deleted_at IS NULL`

	var user User
	err := r.db.GetContext(ctx, &user, query, strings.ToLower(email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return &user, nil
}

// Update writes profile fields only. Role and membership have their own
// guarded writes.
func (r *repository) Update(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET name = $2, photo_url = $3, about = $4, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &user.UpdatedAt, query,
		user.ID,
		user.Name,
		user.PhotoURL,
		user.About,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update user: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	return nil
}

func (r *repository) UpdateRole(ctx context.Context, id, role string) error {
	query := `
		UPDATE users
		SET role = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, role)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}

	return core.RequireAffected(result, "update role")
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return core.RequireAffected(result, "update password")
}

func (r *repository) IncrementTokenVersion(
	ctx context.Context,
	id string,
) error {
	query := `
		UPDATE users
		SET token_version = token_version + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}

	return core.RequireAffected(result, "increment token version")
}

func (r *repository) SoftDelete(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	return core.RequireAffected(result, "delete user")
}

func (r *repository) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, "deleted_at IS NULL")

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(email ILIKE $%d OR name ILIKE $%d)", argIdx, argIdx))
		args = append(args, core.LikePattern(params.Search))
		argIdx++
	}

	if params.Role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argIdx))
		args = append(args, params.Role)
		argIdx++
	}

	if params.Member != "" {
		conditions = append(conditions, fmt.Sprintf("member = $%d", argIdx))
		args = append(args, params.Member)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM users WHERE %s",
		whereClause,
	)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		userColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var users []User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

func (r *repository) ExistsByEmail(
	ctx context.Context,
	email string,
) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND deleted_at IS NULL)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, strings.ToLower(email)); err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}

	return exists, nil
}

func (r *repository) GetMembership(
	ctx context.Context,
	userID string,
) (membership.Record, error) {
	query := `
		SELECT member, member_expires_at
		FROM users
		WHERE id = $1 AND deleted_at IS NULL`

	var row struct {
		Member    membership.Tier `db:"member"`
		ExpiresAt *time.Time      `db:"member_expires_at"`
	}
	err := r.db.GetContext(ctx, &row, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return membership.Record{}, fmt.Errorf("get membership: %w", core.ErrNotFound)
	}
	if err != nil {
		return membership.Record{}, fmt.Errorf("get membership: %w", err)
	}

	return membership.Record{Tier: row.Member, ExpiresAt: row.ExpiresAt}, nil
}

// DowngradeExpired is a single conditional write, so concurrent checks
// downgrade at most once and a non-expired user is never touched.
func (r *repository) DowngradeExpired(
	ctx context.Context,
	userID string,
	now time.Time,
) (bool, error) {
	query := `
		UPDATE users
		SET member = 'bronze', member_expires_at = NULL, updated_at = NOW()
		WHERE id = $1
		  AND deleted_at IS NULL
		  AND member = 'gold'
		  AND member_expires_at IS NOT NULL
		  AND member_expires_at <= $2`

	result, err := r.db.ExecContext(ctx, query, userID, now)
	if err != nil {
		return false, fmt.Errorf("downgrade membership: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("downgrade membership: %w", err)
	}

	return rows > 0, nil
}

func (r *repository) SwapMembership(
	ctx context.Context,
	userID string,
	prev, next membership.Record,
) (bool, error) {
	query := `
		UPDATE users
		SET member = $2, member_expires_at = $3, updated_at = NOW()
		WHERE id = $1
		  AND deleted_at IS NULL
		  AND member = $4
		  AND member_expires_at IS NOT DISTINCT FROM $5`

	result, err := r.db.ExecContext(ctx, query,
		userID,
		next.Tier,
		next.ExpiresAt,
		prev.Tier,
		prev.ExpiresAt,
	)
	if err != nil {
		return false, fmt.Errorf("swap membership: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("swap membership: %w", err)
	}

	return rows > 0, nil
}
