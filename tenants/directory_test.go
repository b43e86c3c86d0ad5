package tenants_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-tenant-api/internal/apperrors"
	"github.com/jrsteele09/go-tenant-api/tenants"
	"github.com/jrsteele09/go-tenant-api/tenants/cipher"
	"github.com/jrsteele09/go-tenant-api/tenants/repofakes"
	"github.com/stretchr/testify/require"
)

const testEncryptionKey = "0123456789abcdef0123456789abcdef"

type directoryFixture struct {
	repo      *repofakes.FakeTenantRepo
	directory *tenants.Directory
}

func setupDirectory(t *testing.T) *directoryFixture {
	t.Helper()

	repo := repofakes.NewFakeTenantRepo()
	credCipher, err := cipher.New([]byte(testEncryptionKey))
	require.NoError(t, err)

	directory, err := tenants.NewDirectory(repo, credCipher)
	require.NoError(t, err)

	return &directoryFixture{repo: repo, directory: directory}
}

func acmeDraft() tenants.Draft {
	return tenants.Draft{
		Name:       "Acme Corp",
		Subdomain:  "acme",
		DBHost:     "db.internal",
		DBPort:     5432,
		DBUsername: "acme_app",
		DBPassword: "acme-db-secret",
		DBName:     "acme_db",
	}
}

func TestCreateEncryptsPasswordAtRest(t *testing.T) {
	f := setupDirectory(t)
	ctx := context.Background()

	tenant, err := f.directory.Create(ctx, acmeDraft())
	require.NoError(t, err)
	require.NotEmpty(t, tenant.ID)
	require.True(t, tenant.IsActive)

	stored, err := f.repo.GetBySubdomain(ctx, "acme")
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.NotEqual(t, "acme-db-secret", stored.DBPassword)
	require.Contains(t, stored.DBPassword, ":")
}

func TestCreateDuplicateSubdomainConflicts(t *testing.T) {
	f := setupDirectory(t)
	ctx := context.Background()

	_, err := f.directory.Create(ctx, acmeDraft())
	require.NoError(t, err)

	_, err = f.directory.Create(ctx, acmeDraft())
	require.Error(t, err)
	require.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}

func TestCreateRejectsBadSubdomain(t *testing.T) {
	f := setupDirectory(t)
	ctx := context.Background()

	for _, subdomain := range []string{"", "Acme", "acme corp", "acme_corp", "-acme", "acme-"} {
		draft := acmeDraft()
		draft.Subdomain = subdomain
		_, err := f.directory.Create(ctx, draft)
		require.Error(t, err, "subdomain %q", subdomain)
		require.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err), "subdomain %q", subdomain)
	}
}

func TestCredentialsBySubdomainDecrypts(t *testing.T) {
	f := setupDirectory(t)
	ctx := context.Background()

	created, err := f.directory.Create(ctx, acmeDraft())
	require.NoError(t, err)

	creds, err := f.directory.CredentialsBySubdomain(ctx, "acme")
	require.NoError(t, err)
	require.NotNil(t, creds)
	require.Equal(t, created.ID, creds.ID)
	require.Equal(t, "acme-db-secret", creds.DBPassword)

	// The stored record still holds ciphertext only.
	stored, err := f.repo.GetBySubdomain(ctx, "acme")
	require.NoError(t, err)
	require.NotEqual(t, "acme-db-secret", stored.DBPassword)
}

func TestCredentialsBySubdomainAbsent(t *testing.T) {
	f := setupDirectory(t)

	creds, err := f.directory.CredentialsBySubdomain(context.Background(), "ghost")
	require.NoError(t, err)
	require.Nil(t, creds)
}

func TestResolve(t *testing.T) {
	f := setupDirectory(t)
	ctx := context.Background()

	created, err := f.directory.Create(ctx, acmeDraft())
	require.NoError(t, err)

	t.Run("by subdomain", func(t *testing.T) {
		tc, err := f.directory.Resolve(ctx, "acme")
		require.NoError(t, err)
		require.Equal(t, created.ID, tc.TenantID)
		require.Equal(t, "acme", tc.Subdomain)
		require.Equal(t, "acme-db-secret", tc.DBConfig.Password)
		require.Equal(t, "acme_db", tc.DBConfig.Database)
	})

	t.Run("by id", func(t *testing.T) {
		tc, err := f.directory.Resolve(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, created.ID, tc.TenantID)
	})

	t.Run("unknown tenant", func(t *testing.T) {
		_, err := f.directory.Resolve(ctx, "ghost")
		require.Error(t, err)
		require.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})

	t.Run("inactive tenant", func(t *testing.T) {
		inactive := false
		_, err := f.directory.Update(ctx, created.ID, tenants.Update{IsActive: &inactive})
		require.NoError(t, err)

		_, err = f.directory.Resolve(ctx, "acme")
		require.Error(t, err)
		require.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
	})
}

func TestUpdateUnknownTenantNotFound(t *testing.T) {
	f := setupDirectory(t)

	name := "New Name"
	_, err := f.directory.Update(context.Background(), "9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d", tenants.Update{Name: &name})
	require.Error(t, err)
	require.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestUpdateReencryptsPassword(t *testing.T) {
	f := setupDirectory(t)
	ctx := context.Background()

	created, err := f.directory.Create(ctx, acmeDraft())
	require.NoError(t, err)

	newPassword := "rotated-db-secret"
	_, err = f.directory.Update(ctx, created.ID, tenants.Update{DBPassword: &newPassword})
	require.NoError(t, err)

	stored, err := f.repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotEqual(t, newPassword, stored.DBPassword)

	creds, err := f.directory.CredentialsBySubdomain(ctx, "acme")
	require.NoError(t, err)
	require.Equal(t, newPassword, creds.DBPassword)
}

func TestAllListsNewestFirst(t *testing.T) {
	now := time.Now()
	repo := repofakes.NewFakeTenantRepo()
	credCipher, err := cipher.New([]byte(testEncryptionKey))
	require.NoError(t, err)

	current := now
	directory, err := tenants.NewDirectory(repo, credCipher, tenants.WithNowFunc(func() time.Time {
		current = current.Add(time.Second)
		return current
	}))
	require.NoError(t, err)

	ctx := context.Background()
	for _, subdomain := range []string{"alpha", "beta", "gamma"} {
		draft := acmeDraft()
		draft.Subdomain = subdomain
		_, err := directory.Create(ctx, draft)
		require.NoError(t, err)
	}

	list, err := directory.All(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "gamma", list[0].Subdomain)
	require.Equal(t, "alpha", list[2].Subdomain)
}

func TestDeleteIsIdempotent(t *testing.T) {
	f := setupDirectory(t)
	ctx := context.Background()

	created, err := f.directory.Create(ctx, acmeDraft())
	require.NoError(t, err)

	require.NoError(t, f.directory.Delete(ctx, created.ID))
	require.NoError(t, f.directory.Delete(ctx, created.ID))

	tenant, err := f.directory.BySubdomain(ctx, "acme")
	require.NoError(t, err)
	require.Nil(t, tenant)
}
