// Package rediscache decorates a tenant repo with a read-through redis
// cache keyed by subdomain. The resolver consults the directory on every
// request, so subdomain lookups dominate the read path.
package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jrsteele09/go-tenant-api/tenants"
	"github.com/rs/zerolog/log"
)

var _ tenants.Repo = (*CachedTenantRepo)(nil)

const keyPrefix = "tenant:subdomain:"

// DefaultTTL bounds how long a stale tenant record can be served after an
// out-of-band change to the backing store.
const DefaultTTL = 5 * time.Minute

// cacheRecord mirrors tenants.Tenant with every field serialized. The
// entity's own JSON tags hide the password ciphertext from API responses,
// but the cache must round-trip it.
type cacheRecord struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Subdomain  string    `json:"subdomain"`
	DBHost     string    `json:"db_host"`
	DBPort     int       `json:"db_port"`
	DBUsername string    `json:"db_username"`
	DBPassword string    `json:"db_password"`
	DBName     string    `json:"db_name"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toRecord(t *tenants.Tenant) cacheRecord {
	return cacheRecord(*t)
}

func (r cacheRecord) tenant() *tenants.Tenant {
	t := tenants.Tenant(r)
	return &t
}

// CachedTenantRepo wraps a tenants.Repo, caching GetBySubdomain results.
// Writes go straight through and invalidate the affected cache entry.
// Cache failures are logged and degrade to the backing repo, never surfaced.
type CachedTenantRepo struct {
	next   tenants.Repo
	client *redis.Client
	ttl    time.Duration
}

func New(next tenants.Repo, client *redis.Client, ttl time.Duration) *CachedTenantRepo {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedTenantRepo{next: next, client: client, ttl: ttl}
}

func (c *CachedTenantRepo) Create(ctx context.Context, tenant *tenants.Tenant) error {
	if err := c.next.Create(ctx, tenant); err != nil {
		return err
	}
	c.invalidate(ctx, tenant.Subdomain)
	return nil
}

func (c *CachedTenantRepo) GetBySubdomain(ctx context.Context, subdomain string) (*tenants.Tenant, error) {
	key := keyPrefix + subdomain

	cached, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var record cacheRecord
		if err := json.Unmarshal([]byte(cached), &record); err == nil {
			return record.tenant(), nil
		}
		c.invalidate(ctx, subdomain)
	} else if err != redis.Nil {
		log.Warn().Err(err).Str("subdomain", subdomain).Msg("tenant cache read failed")
	}

	tenant, err := c.next.GetBySubdomain(ctx, subdomain)
	if err != nil {
		return nil, err
	}
	if tenant != nil {
		c.store(ctx, key, tenant)
	}
	return tenant, nil
}

func (c *CachedTenantRepo) GetByID(ctx context.Context, id string) (*tenants.Tenant, error) {
	return c.next.GetByID(ctx, id)
}

func (c *CachedTenantRepo) List(ctx context.Context) ([]*tenants.Tenant, error) {
	return c.next.List(ctx)
}

func (c *CachedTenantRepo) Update(ctx context.Context, id string, update tenants.Update) (*tenants.Tenant, error) {
	tenant, err := c.next.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}
	if tenant != nil {
		c.invalidate(ctx, tenant.Subdomain)
	}
	return tenant, nil
}

func (c *CachedTenantRepo) Delete(ctx context.Context, id string) error {
	tenant, err := c.next.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := c.next.Delete(ctx, id); err != nil {
		return err
	}
	if tenant != nil {
		c.invalidate(ctx, tenant.Subdomain)
	}
	return nil
}

func (c *CachedTenantRepo) ExistsBySubdomain(ctx context.Context, subdomain string) (bool, error) {
	return c.next.ExistsBySubdomain(ctx, subdomain)
}

func (c *CachedTenantRepo) store(ctx context.Context, key string, tenant *tenants.Tenant) {
	payload, err := json.Marshal(toRecord(tenant))
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("tenant cache write failed")
	}
}

func (c *CachedTenantRepo) invalidate(ctx context.Context, subdomain string) {
	if err := c.client.Del(ctx, keyPrefix+subdomain).Err(); err != nil {
		log.Warn().Err(err).Str("subdomain", subdomain).Msg("tenant cache invalidation failed")
	}
}

// Ping verifies redis connectivity at startup.
func Ping(ctx context.Context, client *redis.Client) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
