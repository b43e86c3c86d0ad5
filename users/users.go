package users

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost matches the cost used for both password and refresh-token
// hashes.
const bcryptCost = 10

// User is an account scoped to a single tenant. Email is unique across the
// system and always compared case-insensitively. RefreshTokenHash holds the
// bcrypt hash of the one currently valid refresh token; rotation replaces
// it, logout clears it.
type User struct {
	ID               string     `json:"id"`
	TenantID         string     `json:"tenant_id"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	FirstName        string     `json:"first_name,omitempty"`
	LastName         string     `json:"last_name,omitempty"`
	IsActive         bool       `json:"is_active"`
	RefreshTokenHash *string    `json:"-"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
