package token_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-tenant-api/internal/apperrors"
	"github.com/jrsteele09/go-tenant-api/token"
	"github.com/jrsteele09/go-tenant-api/users"
	"github.com/jrsteele09/go-tenant-api/users/repofake"
	"github.com/stretchr/testify/require"
)

const (
	accessSecret  = "access-secret-1234"
	refreshSecret = "refresh-secret-5678"
	testUserID    = "user-1"
	testUserEmail = "john.doe@example.com"
	testTenantID  = "tenant-1"
)

type tokenFixture struct {
	userService *users.Service
	service     *token.Service
	now         time.Time
}

func setupTokenService(t *testing.T, options ...token.ServiceOption) *tokenFixture {
	t.Helper()

	userRepo := repofake.NewFakeUserRepo()
	userService, err := users.NewService(userRepo)
	require.NoError(t, err)

	f := &tokenFixture{userService: userService, now: time.Now()}

	opts := append([]token.ServiceOption{
		token.WithNowFunc(func() time.Time { return f.now }),
	}, options...)

	service, err := token.NewService(
		userService,
		token.NewHMACSigner(accessSecret),
		token.NewHMACSigner(refreshSecret),
		opts...,
	)
	require.NoError(t, err)
	f.service = service
	return f
}

func (f *tokenFixture) createUser(t *testing.T) *users.User {
	t.Helper()
	user, err := f.userService.Create(context.Background(), users.Draft{
		TenantID: testTenantID,
		Email:    testUserEmail,
		Password: "Password123",
	})
	require.NoError(t, err)
	return user
}

func TestIssueReturnsBearerPair(t *testing.T) {
	f := setupTokenService(t)

	pair, err := f.service.Issue(context.Background(), testUserID, testUserEmail, testTenantID)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	require.Equal(t, "Bearer", pair.TokenType)
	require.Equal(t, int((15 * time.Minute).Seconds()), pair.ExpiresIn)
}

func TestVerifyAccessClaims(t *testing.T) {
	f := setupTokenService(t)

	pair, err := f.service.Issue(context.Background(), testUserID, testUserEmail, testTenantID)
	require.NoError(t, err)

	claims, err := f.service.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, testUserID, claims.UserID())
	require.Equal(t, testUserEmail, claims.Email)
	require.Equal(t, testTenantID, claims.TenantID)
}

func TestVerifyAccessRejectsRefreshToken(t *testing.T) {
	f := setupTokenService(t)

	pair, err := f.service.Issue(context.Background(), testUserID, testUserEmail, testTenantID)
	require.NoError(t, err)

	// The refresh token is signed with a different secret.
	_, err = f.service.VerifyAccess(pair.RefreshToken)
	require.Error(t, err)
	require.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
}

func TestVerifyAccessExpired(t *testing.T) {
	f := setupTokenService(t)

	pair, err := f.service.Issue(context.Background(), testUserID, testUserEmail, testTenantID)
	require.NoError(t, err)

	f.now = f.now.Add(16 * time.Minute)
	_, err = f.service.VerifyAccess(pair.AccessToken)
	require.Error(t, err)
	require.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
	require.Equal(t, "Invalid or expired token", apperrors.Message(err))
}

func TestVerifyAccessGarbage(t *testing.T) {
	f := setupTokenService(t)

	_, err := f.service.VerifyAccess("not-a-jwt")
	require.Error(t, err)
	require.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
}

func TestRotate(t *testing.T) {
	f := setupTokenService(t)
	ctx := context.Background()
	user := f.createUser(t)

	pair, err := f.service.Issue(ctx, user.ID, user.Email, user.TenantID)
	require.NoError(t, err)
	require.NoError(t, f.userService.StoreRefreshToken(ctx, user.ID, pair.RefreshToken))

	rotated, err := f.service.Rotate(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	t.Run("old token is single use", func(t *testing.T) {
		_, err := f.service.Rotate(ctx, pair.RefreshToken)
		require.Error(t, err)
		require.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
		require.Equal(t, "Invalid refresh token", apperrors.Message(err))
	})

	t.Run("rotated token still works", func(t *testing.T) {
		_, err := f.service.Rotate(ctx, rotated.RefreshToken)
		require.NoError(t, err)
	})
}

func TestRotateRejectsUnstoredToken(t *testing.T) {
	f := setupTokenService(t)
	ctx := context.Background()
	user := f.createUser(t)

	// Validly signed but never persisted for the user.
	pair, err := f.service.Issue(ctx, user.ID, user.Email, user.TenantID)
	require.NoError(t, err)

	_, err = f.service.Rotate(ctx, pair.RefreshToken)
	require.Error(t, err)
	require.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
}

func TestRotateRejectsExpiredRefreshToken(t *testing.T) {
	f := setupTokenService(t)
	ctx := context.Background()
	user := f.createUser(t)

	pair, err := f.service.Issue(ctx, user.ID, user.Email, user.TenantID)
	require.NoError(t, err)
	require.NoError(t, f.userService.StoreRefreshToken(ctx, user.ID, pair.RefreshToken))

	f.now = f.now.Add(8 * 24 * time.Hour)
	_, err = f.service.Rotate(ctx, pair.RefreshToken)
	require.Error(t, err)
	require.Equal(t, "Invalid refresh token", apperrors.Message(err))
}

func TestRevoke(t *testing.T) {
	f := setupTokenService(t)
	ctx := context.Background()
	user := f.createUser(t)

	pair, err := f.service.Issue(ctx, user.ID, user.Email, user.TenantID)
	require.NoError(t, err)
	require.NoError(t, f.userService.StoreRefreshToken(ctx, user.ID, pair.RefreshToken))

	require.NoError(t, f.service.Revoke(ctx, user.ID))

	_, err = f.service.Rotate(ctx, pair.RefreshToken)
	require.Error(t, err)
	require.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
}

func TestCustomExpiry(t *testing.T) {
	f := setupTokenService(t, token.WithExpiry(30*time.Second, time.Hour))

	pair, err := f.service.Issue(context.Background(), testUserID, testUserEmail, testTenantID)
	require.NoError(t, err)
	require.Equal(t, 30, pair.ExpiresIn)

	f.now = f.now.Add(31 * time.Second)
	_, err = f.service.VerifyAccess(pair.AccessToken)
	require.Error(t, err)
}
