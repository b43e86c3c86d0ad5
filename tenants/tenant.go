package tenants

import (
	"context"
	"time"
)

// Tenant represents an isolated customer organization with its own
// datastore credentials. DBPassword holds ciphertext at rest; only the
// Directory ever decrypts it.
type Tenant struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Subdomain  string    `json:"subdomain"`
	DBHost     string    `json:"db_host"`
	DBPort     int       `json:"db_port"`
	DBUsername string    `json:"db_username"`
	DBPassword string    `json:"-"` // ciphertext - never serialize
	DBName     string    `json:"db_name"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DBConfig is a tenant's datastore connection configuration with the
// password already decrypted.
type DBConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string
}

// Context is the resolved tenant binding for one in-flight request. It is
// an immutable value: built once by the resolver, carried on the request
// context, never persisted and never shared across requests.
type Context struct {
	TenantID  string
	Subdomain string
	DBConfig  DBConfig
}

type contextKey struct{}

// WithContext returns a request context carrying the resolved tenant.
func WithContext(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, contextKey{}, tc)
}

// FromContext returns the resolved tenant for the request, if any.
func FromContext(ctx context.Context) (Context, bool) {
	tc, ok := ctx.Value(contextKey{}).(Context)
	return tc, ok
}
