package users

import (
	"context"
	"errors"
)

// ErrRefreshTokenMismatch is returned by SwapRefreshTokenHash when the
// stored hash no longer matches the expected one, meaning another rotation
// won the race or the token was revoked.
var ErrRefreshTokenMismatch = errors.New("stored refresh token hash mismatch")

// Repo is the user record store. Lookups return (nil, nil) when no record
// exists; errors are reserved for store failures.
type Repo interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// UpdateRefreshTokenHash overwrites the stored hash unconditionally.
	// A nil hash clears it, revoking all outstanding refresh tokens.
	UpdateRefreshTokenHash(ctx context.Context, id string, hash *string) error

	// SwapRefreshTokenHash replaces the stored hash only if it still equals
	// oldHash (compare-and-swap, so two concurrent rotations against the
	// same presented token cannot both succeed). Fails with
	// ErrRefreshTokenMismatch otherwise.
	SwapRefreshTokenHash(ctx context.Context, id, oldHash, newHash string) error

	UpdateLastLogin(ctx context.Context, id string) error
}
