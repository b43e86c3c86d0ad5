package repofakes

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jrsteele09/go-tenant-api/tenants"
)

var _ tenants.Repo = (*FakeTenantRepo)(nil)

// FakeTenantRepo is an in-memory tenant store for tests and local runs.
type FakeTenantRepo struct {
	tenants    map[string]*tenants.Tenant
	subdomains map[string]string // subdomain to tenant id
	lock       sync.RWMutex
}

func NewFakeTenantRepo() *FakeTenantRepo {
	return &FakeTenantRepo{
		tenants:    make(map[string]*tenants.Tenant),
		subdomains: make(map[string]string),
	}
}

func (tr *FakeTenantRepo) Create(_ context.Context, tenant *tenants.Tenant) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	copied := *tenant
	tr.tenants[copied.ID] = &copied
	tr.subdomains[copied.Subdomain] = copied.ID
	return nil
}

func (tr *FakeTenantRepo) GetBySubdomain(_ context.Context, subdomain string) (*tenants.Tenant, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	id, ok := tr.subdomains[subdomain]
	if !ok {
		return nil, nil
	}
	copied := *tr.tenants[id]
	return &copied, nil
}

func (tr *FakeTenantRepo) GetByID(_ context.Context, id string) (*tenants.Tenant, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	tenant, ok := tr.tenants[id]
	if !ok {
		return nil, nil
	}
	copied := *tenant
	return &copied, nil
}

func (tr *FakeTenantRepo) List(_ context.Context) ([]*tenants.Tenant, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	list := make([]*tenants.Tenant, 0, len(tr.tenants))
	for _, tenant := range tr.tenants {
		copied := *tenant
		list = append(list, &copied)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (tr *FakeTenantRepo) Update(_ context.Context, id string, update tenants.Update) (*tenants.Tenant, error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	tenant, ok := tr.tenants[id]
	if !ok {
		return nil, nil
	}

	if update.Name != nil {
		tenant.Name = *update.Name
	}
	if update.DBHost != nil {
		tenant.DBHost = *update.DBHost
	}
	if update.DBPort != nil {
		tenant.DBPort = *update.DBPort
	}
	if update.DBUsername != nil {
		tenant.DBUsername = *update.DBUsername
	}
	if update.DBPassword != nil {
		tenant.DBPassword = *update.DBPassword
	}
	if update.DBName != nil {
		tenant.DBName = *update.DBName
	}
	if update.IsActive != nil {
		tenant.IsActive = *update.IsActive
	}
	tenant.UpdatedAt = time.Now()

	copied := *tenant
	return &copied, nil
}

func (tr *FakeTenantRepo) Delete(_ context.Context, id string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	tenant, ok := tr.tenants[id]
	if !ok {
		return nil
	}
	delete(tr.subdomains, tenant.Subdomain)
	delete(tr.tenants, id)
	return nil
}

func (tr *FakeTenantRepo) ExistsBySubdomain(_ context.Context, subdomain string) (bool, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	_, ok := tr.subdomains[subdomain]
	return ok, nil
}
