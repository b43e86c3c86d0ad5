package tenants

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-tenant-api/internal/apperrors"
	"github.com/jrsteele09/go-tenant-api/tenants/cipher"
	"github.com/pkg/errors"
)

// subdomainPattern constrains the tenant routing key: lowercase
// alphanumerics and hyphens, no leading/trailing hyphen.
var subdomainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// Draft is the provisioning request for a new tenant.
type Draft struct {
	Name       string `json:"name"`
	Subdomain  string `json:"subdomain"`
	DBHost     string `json:"db_host"`
	DBPort     int    `json:"db_port"`
	DBUsername string `json:"db_username"`
	DBPassword string `json:"db_password"` // plaintext on the way in, encrypted before persistence
	DBName     string `json:"db_name"`
}

// Directory is the tenant store facade. It owns subdomain uniqueness,
// credential encryption on create, and decryption on demand. Callers never
// see ciphertext through the credentials path and never see plaintext
// through any other path.
type Directory struct {
	repo    Repo
	cipher  *cipher.Cipher
	nowFunc func() time.Time
}

// DirectoryOption configures a Directory.
type DirectoryOption func(*Directory)

// WithNowFunc sets the time source (primarily for testing).
func WithNowFunc(now func() time.Time) DirectoryOption {
	return func(d *Directory) {
		d.nowFunc = now
	}
}

// NewDirectory creates a Directory over a tenant repo and credential cipher.
func NewDirectory(repo Repo, credCipher *cipher.Cipher, options ...DirectoryOption) (*Directory, error) {
	if repo == nil {
		return nil, errors.New("[NewDirectory] tenant repo is required")
	}
	if credCipher == nil {
		return nil, errors.New("[NewDirectory] credential cipher is required")
	}

	d := &Directory{
		repo:    repo,
		cipher:  credCipher,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(d)
	}
	return d, nil
}

// Create provisions a new tenant. The subdomain must be unique and the
// datastore password is always encrypted before it reaches the repo.
func (d *Directory) Create(ctx context.Context, draft Draft) (*Tenant, error) {
	if !subdomainPattern.MatchString(draft.Subdomain) {
		return nil, apperrors.BadRequest("subdomain must contain only lowercase letters, digits and hyphens")
	}

	exists, err := d.repo.ExistsBySubdomain(ctx, draft.Subdomain)
	if err != nil {
		return nil, apperrors.Internal(errors.Wrap(err, "Directory.Create ExistsBySubdomain"))
	}
	if exists {
		return nil, apperrors.Conflict(fmt.Sprintf("subdomain %q is already in use", draft.Subdomain))
	}

	encryptedPassword, err := d.cipher.Encrypt(draft.DBPassword)
	if err != nil {
		return nil, apperrors.Internal(errors.Wrap(err, "Directory.Create Encrypt"))
	}

	now := d.nowFunc()
	tenant := &Tenant{
		ID:         uuid.New().String(),
		Name:       draft.Name,
		Subdomain:  draft.Subdomain,
		DBHost:     draft.DBHost,
		DBPort:     draft.DBPort,
		DBUsername: draft.DBUsername,
		DBPassword: encryptedPassword,
		DBName:     draft.DBName,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := d.repo.Create(ctx, tenant); err != nil {
		return nil, apperrors.Internal(errors.Wrap(err, "Directory.Create repo.Create"))
	}
	return tenant, nil
}

// BySubdomain returns the tenant for a subdomain, or (nil, nil) if absent.
func (d *Directory) BySubdomain(ctx context.Context, subdomain string) (*Tenant, error) {
	tenant, err := d.repo.GetBySubdomain(ctx, subdomain)
	if err != nil {
		return nil, apperrors.Internal(errors.Wrap(err, "Directory.BySubdomain"))
	}
	return tenant, nil
}

// ByID returns the tenant for an id, or (nil, nil) if absent.
func (d *Directory) ByID(ctx context.Context, id string) (*Tenant, error) {
	tenant, err := d.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Internal(errors.Wrap(err, "Directory.ByID"))
	}
	return tenant, nil
}

// All lists every tenant, newest first.
func (d *Directory) All(ctx context.Context) ([]*Tenant, error) {
	list, err := d.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(errors.Wrap(err, "Directory.All"))
	}
	return list, nil
}

// Update applies a partial update. A plaintext DBPassword in the update is
// encrypted before persistence. Fails NotFound when the id is unknown.
func (d *Directory) Update(ctx context.Context, id string, update Update) (*Tenant, error) {
	if update.DBPassword != nil {
		encrypted, err := d.cipher.Encrypt(*update.DBPassword)
		if err != nil {
			return nil, apperrors.Internal(errors.Wrap(err, "Directory.Update Encrypt"))
		}
		update.DBPassword = &encrypted
	}

	tenant, err := d.repo.Update(ctx, id, update)
	if err != nil {
		return nil, apperrors.Internal(errors.Wrap(err, "Directory.Update"))
	}
	if tenant == nil {
		return nil, apperrors.NotFound(fmt.Sprintf("tenant %q not found", id))
	}
	return tenant, nil
}

// Delete removes a tenant record. Outstanding sessions for the tenant's
// users are not swept; access tokens age out on their own expiry.
func (d *Directory) Delete(ctx context.Context, id string) error {
	if err := d.repo.Delete(ctx, id); err != nil {
		return apperrors.Internal(errors.Wrap(err, "Directory.Delete"))
	}
	return nil
}

// CredentialsBySubdomain returns the tenant with its datastore password
// decrypted, or (nil, nil) if the subdomain is unknown.
func (d *Directory) CredentialsBySubdomain(ctx context.Context, subdomain string) (*Tenant, error) {
	tenant, err := d.repo.GetBySubdomain(ctx, subdomain)
	if err != nil {
		return nil, apperrors.Internal(errors.Wrap(err, "Directory.CredentialsBySubdomain"))
	}
	if tenant == nil {
		return nil, nil
	}
	return d.withDecryptedPassword(tenant)
}

// Resolve maps a request-supplied identifier (subdomain or tenant id) to a
// validated tenant Context. Unknown tenants fail NotFound, inactive tenants
// fail BadRequest.
func (d *Directory) Resolve(ctx context.Context, identifier string) (Context, error) {
	var (
		tenant *Tenant
		err    error
	)
	if _, uuidErr := uuid.Parse(identifier); uuidErr == nil {
		tenant, err = d.repo.GetByID(ctx, identifier)
	} else {
		tenant, err = d.repo.GetBySubdomain(ctx, identifier)
	}
	if err != nil {
		return Context{}, apperrors.Internal(errors.Wrap(err, "Directory.Resolve"))
	}
	if tenant == nil {
		return Context{}, apperrors.NotFound(fmt.Sprintf("tenant %q not found", identifier))
	}
	if !tenant.IsActive {
		return Context{}, apperrors.BadRequest(fmt.Sprintf("tenant %q is inactive", identifier))
	}

	decrypted, err := d.withDecryptedPassword(tenant)
	if err != nil {
		return Context{}, err
	}

	return Context{
		TenantID:  decrypted.ID,
		Subdomain: decrypted.Subdomain,
		DBConfig: DBConfig{
			Host:     decrypted.DBHost,
			Port:     decrypted.DBPort,
			Username: decrypted.DBUsername,
			Password: decrypted.DBPassword,
			Database: decrypted.DBName,
		},
	}, nil
}

func (d *Directory) withDecryptedPassword(tenant *Tenant) (*Tenant, error) {
	decrypted, err := d.cipher.Decrypt(tenant.DBPassword)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindDecryption) {
			return nil, err
		}
		return nil, apperrors.Internal(errors.Wrap(err, "Directory decrypt password"))
	}

	// Copy so the repo's record keeps holding ciphertext only.
	out := *tenant
	out.DBPassword = decrypted
	return &out, nil
}
