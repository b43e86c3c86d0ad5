package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-tenant-api/auth"
	"github.com/jrsteele09/go-tenant-api/internal/apperrors"
	"github.com/jrsteele09/go-tenant-api/token"
	"github.com/jrsteele09/go-tenant-api/users"
	"github.com/jrsteele09/go-tenant-api/users/repofake"
	"github.com/stretchr/testify/require"
)

const (
	accessSecret     = "access-secret-1234"
	refreshSecret    = "refresh-secret-5678"
	testTenantID     = "tenant-1"
	testUserEmail    = "john.doe@example.com"
	testUserPassword = "Password123"
)

type authFixture struct {
	userRepo    *repofake.FakeUserRepo
	userService *users.Service
	tokens      *token.Service
	service     *auth.Service
	now         time.Time
}

func setupAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	f := &authFixture{now: time.Now()}
	f.userRepo = repofake.NewFakeUserRepo()

	userService, err := users.NewService(f.userRepo)
	require.NoError(t, err)
	f.userService = userService

	tokenService, err := token.NewService(
		userService,
		token.NewHMACSigner(accessSecret),
		token.NewHMACSigner(refreshSecret),
		token.WithNowFunc(func() time.Time { return f.now }),
	)
	require.NoError(t, err)
	f.tokens = tokenService

	service, err := auth.NewService(userService, tokenService)
	require.NoError(t, err)
	f.service = service
	return f
}

func johnDraft() users.Draft {
	return users.Draft{
		TenantID:  testTenantID,
		Email:     testUserEmail,
		Password:  testUserPassword,
		FirstName: "John",
		LastName:  "Doe",
	}
}

func TestRegisterIssuesTokensAndStoresRefreshHash(t *testing.T) {
	f := setupAuthFixture(t)
	ctx := context.Background()

	pair, err := f.service.Register(ctx, johnDraft())
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "Bearer", pair.TokenType)

	claims, err := f.tokens.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, testUserEmail, claims.Email)
	require.Equal(t, testTenantID, claims.TenantID)

	// The stored hash is the bcrypt of the issued refresh token.
	user, err := f.userRepo.GetByEmail(ctx, testUserEmail)
	require.NoError(t, err)
	require.NotNil(t, user.RefreshTokenHash)
	require.NotEqual(t, pair.RefreshToken, *user.RefreshTokenHash)
	require.True(t, users.CheckPasswordHash(pair.RefreshToken, *user.RefreshTokenHash))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := setupAuthFixture(t)
	ctx := context.Background()

	_, err := f.service.Register(ctx, johnDraft())
	require.NoError(t, err)

	_, err = f.service.Register(ctx, johnDraft())
	require.Error(t, err)
	require.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}

func TestLogin(t *testing.T) {
	f := setupAuthFixture(t)
	ctx := context.Background()

	_, err := f.service.Register(ctx, johnDraft())
	require.NoError(t, err)

	t.Run("success updates last login", func(t *testing.T) {
		pair, err := f.service.Login(ctx, testUserEmail, testUserPassword)
		require.NoError(t, err)
		require.NotEmpty(t, pair.AccessToken)

		user, err := f.userRepo.GetByEmail(ctx, testUserEmail)
		require.NoError(t, err)
		require.NotNil(t, user.LastLoginAt)
	})

	t.Run("email lookup is case-insensitive", func(t *testing.T) {
		_, err := f.service.Login(ctx, "JOHN.DOE@EXAMPLE.COM", testUserPassword)
		require.NoError(t, err)
	})

	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		_, unknownErr := f.service.Login(ctx, "ghost@example.com", testUserPassword)
		require.Error(t, unknownErr)
		require.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(unknownErr))
		require.Equal(t, "Invalid credentials", apperrors.Message(unknownErr))

		_, wrongErr := f.service.Login(ctx, testUserEmail, "wrong-password")
		require.Error(t, wrongErr)
		require.Equal(t, apperrors.Message(unknownErr), apperrors.Message(wrongErr))
	})
}

func TestLoginInactiveAccount(t *testing.T) {
	f := setupAuthFixture(t)
	ctx := context.Background()

	_, err := f.service.Register(ctx, johnDraft())
	require.NoError(t, err)

	user, err := f.userRepo.GetByEmail(ctx, testUserEmail)
	require.NoError(t, err)
	user.IsActive = false
	require.NoError(t, f.userRepo.Create(ctx, user)) // upsert the deactivated record

	// Correct password, inactive account: inactive wins.
	_, err = f.service.Login(ctx, testUserEmail, testUserPassword)
	require.Error(t, err)
	require.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
	require.Equal(t, "Account is inactive", apperrors.Message(err))
}

func TestRefreshRotatesSingleUse(t *testing.T) {
	f := setupAuthFixture(t)
	ctx := context.Background()

	pair, err := f.service.Register(ctx, johnDraft())
	require.NoError(t, err)

	rotated, err := f.service.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// Reusing the consumed token fails.
	_, err = f.service.Refresh(ctx, pair.RefreshToken)
	require.Error(t, err)
	require.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
	require.Equal(t, "Invalid refresh token", apperrors.Message(err))
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	f := setupAuthFixture(t)
	ctx := context.Background()

	pair, err := f.service.Register(ctx, johnDraft())
	require.NoError(t, err)

	user, err := f.userRepo.GetByEmail(ctx, testUserEmail)
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(ctx, user.ID))

	_, err = f.service.Refresh(ctx, pair.RefreshToken)
	require.Error(t, err)
	require.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
}
