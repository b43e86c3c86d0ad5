// Package auth composes the user store and the token service into the
// register/login/refresh/logout use cases. It owns no persistence and no
// signing of its own.
package auth

import (
	"context"

	"github.com/jrsteele09/go-tenant-api/internal/apperrors"
	"github.com/jrsteele09/go-tenant-api/token"
	"github.com/jrsteele09/go-tenant-api/users"
	"github.com/pkg/errors"
)

// Service implements the authentication use cases against a resolved
// tenant context.
type Service struct {
	users  *users.Service
	tokens *token.Service
}

// NewService initializes the auth orchestrator with required dependencies.
func NewService(userService *users.Service, tokenService *token.Service) (*Service, error) {
	if userService == nil {
		return nil, errors.New("[auth.NewService] user service is required")
	}
	if tokenService == nil {
		return nil, errors.New("[auth.NewService] token service is required")
	}
	return &Service{users: userService, tokens: tokenService}, nil
}

// Register creates a user under the given tenant and returns a fresh token
// pair. Fails Conflict when the email is already registered (compared
// case-insensitively).
func (s *Service) Register(ctx context.Context, draft users.Draft) (*token.Pair, error) {
	user, err := s.users.Create(ctx, draft)
	if err != nil {
		return nil, err
	}

	pair, err := s.tokens.Issue(ctx, user.ID, user.Email, user.TenantID)
	if err != nil {
		return nil, err
	}

	if err := s.users.StoreRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, err
	}
	return pair, nil
}

// Login authenticates by email and password. An unknown email and a wrong
// password fail with the same message so callers cannot tell which was
// wrong. An inactive account is rejected before the password is compared.
func (s *Service) Login(ctx context.Context, email, password string) (*token.Pair, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.Unauthorized("Invalid credentials")
	}

	if !user.IsActive {
		return nil, apperrors.Unauthorized("Account is inactive")
	}

	if !users.CheckPasswordHash(password, user.PasswordHash) {
		return nil, apperrors.Unauthorized("Invalid credentials")
	}

	pair, err := s.tokens.Issue(ctx, user.ID, user.Email, user.TenantID)
	if err != nil {
		return nil, err
	}

	if err := s.users.StoreRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, err
	}
	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		return nil, err
	}
	return pair, nil
}

// Refresh exchanges a presented refresh token for a new pair, invalidating
// the old one.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*token.Pair, error) {
	return s.tokens.Rotate(ctx, refreshToken)
}

// Logout revokes every outstanding refresh token for the user.
func (s *Service) Logout(ctx context.Context, userID string) error {
	return s.tokens.Revoke(ctx, userID)
}
