package tenants

import "context"

// Update is a partial tenant update; nil fields are left untouched.
// Subdomain is immutable once assigned, so it has no update path.
type Update struct {
	Name       *string
	DBHost     *string
	DBPort     *int
	DBUsername *string
	DBPassword *string // ciphertext
	DBName     *string
	IsActive   *bool
}

// Repo is the tenant record store. Lookups return (nil, nil) when no
// record exists; errors are reserved for store failures.
type Repo interface {
	Create(ctx context.Context, tenant *Tenant) error
	GetBySubdomain(ctx context.Context, subdomain string) (*Tenant, error)
	GetByID(ctx context.Context, id string) (*Tenant, error)
	List(ctx context.Context) ([]*Tenant, error)
	Update(ctx context.Context, id string, update Update) (*Tenant, error)
	Delete(ctx context.Context, id string) error
	ExistsBySubdomain(ctx context.Context, subdomain string) (bool, error)
}
