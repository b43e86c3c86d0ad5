package users

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-tenant-api/internal/apperrors"
	"github.com/pkg/errors"
)

// Draft is the creation request for a new user.
type Draft struct {
	TenantID  string `json:"tenant_id"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Service owns user lifecycle rules: email case-folding, password hashing,
// and the refresh-token hash on the user row.
type Service struct {
	repo    Repo
	nowFunc func() time.Time
}

type ServiceOption func(*Service)

func WithNowFunc(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowFunc = now
	}
}

func NewService(repo Repo, options ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("[users.NewService] user repo is required")
	}

	s := &Service{repo: repo, nowFunc: time.Now}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Create registers a new user. The email is lowercased before both the
// uniqueness check and persistence.
func (s *Service) Create(ctx context.Context, draft Draft) (*User, error) {
	email := strings.ToLower(draft.Email)

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Internal(errors.Wrap(err, "users.Service.Create ExistsByEmail"))
	}
	if exists {
		return nil, apperrors.Conflict("Email already registered")
	}

	passwordHash, err := HashPassword(draft.Password)
	if err != nil {
		return nil, apperrors.Internal(errors.Wrap(err, "users.Service.Create HashPassword"))
	}

	now := s.nowFunc()
	user := &User{
		ID:           uuid.New().String(),
		TenantID:     draft.TenantID,
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    draft.FirstName,
		LastName:     draft.LastName,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, apperrors.Internal(errors.Wrap(err, "users.Service.Create repo.Create"))
	}
	return user, nil
}

// FindByEmail returns the user for an email (case-insensitive), or
// (nil, nil) if absent.
func (s *Service) FindByEmail(ctx context.Context, email string) (*User, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, apperrors.Internal(errors.Wrap(err, "users.Service.FindByEmail"))
	}
	return user, nil
}

// GetForAuth loads a user by id, failing NotFound when absent.
func (s *Service) GetForAuth(ctx context.Context, id string) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Internal(errors.Wrap(err, "users.Service.GetForAuth"))
	}
	if user == nil {
		return nil, apperrors.NotFound("User not found")
	}
	return user, nil
}

// ListByTenant returns all users belonging to a tenant.
func (s *Service) ListByTenant(ctx context.Context, tenantID string) ([]*User, error) {
	list, err := s.repo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, apperrors.Internal(errors.Wrap(err, "users.Service.ListByTenant"))
	}
	return list, nil
}

// StoreRefreshToken hashes a freshly issued refresh token and overwrites
// the stored hash, making any previous refresh token unusable.
func (s *Service) StoreRefreshToken(ctx context.Context, userID, refreshToken string) error {
	hash, err := HashPassword(refreshToken)
	if err != nil {
		return apperrors.Internal(errors.Wrap(err, "users.Service.StoreRefreshToken hash"))
	}
	if err := s.repo.UpdateRefreshTokenHash(ctx, userID, &hash); err != nil {
		return apperrors.Internal(errors.Wrap(err, "users.Service.StoreRefreshToken update"))
	}
	return nil
}

// ClearRefreshToken revokes all outstanding refresh tokens for the user.
func (s *Service) ClearRefreshToken(ctx context.Context, userID string) error {
	if err := s.repo.UpdateRefreshTokenHash(ctx, userID, nil); err != nil {
		return apperrors.Internal(errors.Wrap(err, "users.Service.ClearRefreshToken"))
	}
	return nil
}

// ValidateAndRotate checks the presented refresh token against the stored
// hash and atomically swaps in the hash of the next token. Any failure -
// unknown user, no stored token, hash mismatch, or losing the swap race -
// surfaces as the same unauthorized error so a caller cannot distinguish
// replayed tokens from revoked ones.
func (s *Service) ValidateAndRotate(ctx context.Context, userID, presented, next string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return apperrors.Internal(errors.Wrap(err, "users.Service.ValidateAndRotate GetByID"))
	}
	if user == nil || user.RefreshTokenHash == nil {
		return apperrors.Unauthorized("Invalid refresh token")
	}

	if !CheckPasswordHash(presented, *user.RefreshTokenHash) {
		return apperrors.Unauthorized("Invalid refresh token")
	}

	nextHash, err := HashPassword(next)
	if err != nil {
		return apperrors.Internal(errors.Wrap(err, "users.Service.ValidateAndRotate hash"))
	}

	if err := s.repo.SwapRefreshTokenHash(ctx, userID, *user.RefreshTokenHash, nextHash); err != nil {
		if errors.Is(err, ErrRefreshTokenMismatch) {
			return apperrors.Unauthorized("Invalid refresh token")
		}
		return apperrors.Internal(errors.Wrap(err, "users.Service.ValidateAndRotate swap"))
	}
	return nil
}

// TouchLastLogin records a successful login.
func (s *Service) TouchLastLogin(ctx context.Context, userID string) error {
	if err := s.repo.UpdateLastLogin(ctx, userID); err != nil {
		return apperrors.Internal(errors.Wrap(err, "users.Service.TouchLastLogin"))
	}
	return nil
}
