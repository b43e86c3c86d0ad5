// Package postgres implements the user repo over database/sql with the
// lib/pq driver. Refresh-token rotation uses a conditional UPDATE so the
// compare-and-swap happens in a single statement.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jrsteele09/go-tenant-api/users"
	"github.com/lib/pq"
)

var _ users.Repo = (*UserRepo)(nil)

const userColumns = `
	id::text,
	tenant_id::text,
	email,
	password,
	COALESCE(first_name, ''),
	COALESCE(last_name, ''),
	is_active,
	refresh_token,
	last_login_at,
	created_at,
	updated_at`

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, user *users.User) error {
	query := `
		INSERT INTO users (id, tenant_id, email, password, first_name, last_name, is_active, created_at, updated_at)
		VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.TenantID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("user email already exists: %w", err)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1::uuid`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepo) ListByTenant(ctx context.Context, tenantID string) ([]*users.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE tenant_id = $1::uuid ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var list []*users.User
	for rows.Next() {
		var user users.User
		if err := scanUser(rows, &user); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		list = append(list, &user)
	}
	return list, rows.Err()
}

func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

func (r *UserRepo) UpdateRefreshTokenHash(ctx context.Context, id string, hash *string) error {
	query := `UPDATE users SET refresh_token = $2, updated_at = NOW() WHERE id = $1::uuid`
	if _, err := r.db.ExecContext(ctx, query, id, hash); err != nil {
		return fmt.Errorf("failed to update refresh token: %w", err)
	}
	return nil
}

// SwapRefreshTokenHash relies on the conditional UPDATE being atomic at
// the row level: of two concurrent rotations presenting the same token,
// only one statement matches the old hash.
func (r *UserRepo) SwapRefreshTokenHash(ctx context.Context, id, oldHash, newHash string) error {
	query := `UPDATE users SET refresh_token = $3, updated_at = NOW() WHERE id = $1::uuid AND refresh_token = $2`
	result, err := r.db.ExecContext(ctx, query, id, oldHash, newHash)
	if err != nil {
		return fmt.Errorf("failed to swap refresh token: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read swap result: %w", err)
	}
	if affected == 0 {
		return users.ErrRefreshTokenMismatch
	}
	return nil
}

func (r *UserRepo) UpdateLastLogin(ctx context.Context, id string) error {
	query := `UPDATE users SET last_login_at = NOW(), updated_at = NOW() WHERE id = $1::uuid`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *UserRepo) scanOne(row rowScanner) (*users.User, error) {
	var user users.User
	if err := scanUser(row, &user); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func scanUser(row rowScanner, user *users.User) error {
	var refreshToken sql.NullString
	var lastLogin sql.NullTime

	err := row.Scan(
		&user.ID,
		&user.TenantID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.IsActive,
		&refreshToken,
		&lastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if refreshToken.Valid {
		user.RefreshTokenHash = &refreshToken.String
	}
	if lastLogin.Valid {
		user.LastLoginAt = &lastLogin.Time
	}
	return nil
}
