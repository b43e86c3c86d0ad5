package token

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-tenant-api/internal/apperrors"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Pair is the access/refresh token response shape.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"` // access token lifetime in seconds
	TokenType    string `json:"tokenType"` // always "Bearer"
}

// RefreshTokenStore is the narrow persistence contract the token service
// needs for rotation and revocation. The users service implements it; the
// token package deliberately does not depend on the users package so the
// two sides share this contract instead of each other's concrete types.
type RefreshTokenStore interface {
	// ValidateAndRotate atomically checks the presented refresh token
	// against the stored hash and swaps in the hash of next.
	ValidateAndRotate(ctx context.Context, userID, presented, next string) error

	// ClearRefreshToken revokes all outstanding refresh tokens for a user.
	ClearRefreshToken(ctx context.Context, userID string) error
}

const (
	defaultAccessExpiry  = 15 * time.Minute
	defaultRefreshExpiry = 7 * 24 * time.Hour
)

// Service issues, verifies, rotates and revokes signed token pairs. Access
// and refresh tokens are signed with independent secrets and expiries.
type Service struct {
	store         RefreshTokenStore
	accessSigner  Signer
	refreshSigner Signer
	issuer        string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	nowFunc       func() time.Time
}

type ServiceOption func(*Service)

// WithExpiry overrides the default access (15m) and refresh (7d) lifetimes.
func WithExpiry(accessExpiry, refreshExpiry time.Duration) ServiceOption {
	return func(s *Service) {
		s.accessExpiry = accessExpiry
		s.refreshExpiry = refreshExpiry
	}
}

func WithIssuer(issuer string) ServiceOption {
	return func(s *Service) {
		s.issuer = issuer
	}
}

func WithNowFunc(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowFunc = now
	}
}

func NewService(store RefreshTokenStore, accessSigner, refreshSigner Signer, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("[token.NewService] refresh token store is required")
	}
	if accessSigner == nil || refreshSigner == nil {
		return nil, errors.New("[token.NewService] access and refresh signers are required")
	}

	s := &Service{
		store:         store,
		accessSigner:  accessSigner,
		refreshSigner: refreshSigner,
		accessExpiry:  defaultAccessExpiry,
		refreshExpiry: defaultRefreshExpiry,
		nowFunc:       time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Issue signs a new access/refresh pair for the user. The two signing
// operations have no ordering dependency and run concurrently.
func (s *Service) Issue(ctx context.Context, userID, email, tenantID string) (*Pair, error) {
	now := s.nowFunc()

	var accessToken, refreshToken string
	group, _ := errgroup.WithContext(ctx)
	group.Go(func() error {
		signed, err := s.accessSigner.Sign(s.claims(userID, email, tenantID, now, s.accessExpiry))
		if err != nil {
			return errors.Wrap(err, "token.Service.Issue access")
		}
		accessToken = signed
		return nil
	})
	group.Go(func() error {
		signed, err := s.refreshSigner.Sign(s.claims(userID, email, tenantID, now, s.refreshExpiry))
		if err != nil {
			return errors.Wrap(err, "token.Service.Issue refresh")
		}
		refreshToken = signed
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, apperrors.Internal(err)
	}

	return &Pair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.accessExpiry.Seconds()),
		TokenType:    "Bearer",
	}, nil
}

// VerifyAccess checks an access token's signature and expiry and returns
// its claims.
func (s *Service) VerifyAccess(rawToken string) (*Claims, error) {
	claims, err := s.verify(rawToken, s.accessSigner)
	if err != nil {
		return nil, apperrors.Unauthorized("Invalid or expired token")
	}
	return claims, nil
}

// VerifyRefresh checks a refresh token against the refresh secret.
func (s *Service) VerifyRefresh(rawToken string) (*Claims, error) {
	claims, err := s.verify(rawToken, s.refreshSigner)
	if err != nil {
		return nil, apperrors.Unauthorized("Invalid refresh token")
	}
	return claims, nil
}

// Rotate exchanges a presented refresh token for a brand-new pair. The old
// token is unusable the moment the swap commits; a replay, a revoked token
// or losing a concurrent rotation all fail identically.
func (s *Service) Rotate(ctx context.Context, presentedRefreshToken string) (*Pair, error) {
	claims, err := s.VerifyRefresh(presentedRefreshToken)
	if err != nil {
		return nil, err
	}

	pair, err := s.Issue(ctx, claims.Subject, claims.Email, claims.TenantID)
	if err != nil {
		return nil, err
	}

	if err := s.store.ValidateAndRotate(ctx, claims.Subject, presentedRefreshToken, pair.RefreshToken); err != nil {
		return nil, err
	}
	return pair, nil
}

// Revoke makes every outstanding refresh token for the user permanently
// unusable.
func (s *Service) Revoke(ctx context.Context, userID string) error {
	return s.store.ClearRefreshToken(ctx, userID)
}

func (s *Service) claims(userID, email, tenantID string, now time.Time, expiry time.Duration) *Claims {
	return &Claims{
		Email:    email,
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}
}

func (s *Service) verify(rawToken string, signer Signer) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(rawToken, claims, signer.GetVerificationKey, jwt.WithTimeFunc(s.nowFunc))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
