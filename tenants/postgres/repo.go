// Package postgres implements the tenant repo over database/sql with the
// lib/pq driver. Consistency is delegated to postgres: uniqueness comes
// from the subdomain unique index, writes are single statements.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jrsteele09/go-tenant-api/tenants"
	"github.com/lib/pq"
)

var _ tenants.Repo = (*TenantRepo)(nil)

const tenantColumns = `
	id::text,
	name,
	subdomain,
	db_host,
	db_port,
	db_username,
	db_password,
	db_name,
	is_active,
	created_at,
	updated_at`

type TenantRepo struct {
	db *sql.DB
}

func NewTenantRepo(db *sql.DB) *TenantRepo {
	return &TenantRepo{db: db}
}

func (r *TenantRepo) Create(ctx context.Context, tenant *tenants.Tenant) error {
	query := `
		INSERT INTO tenants (id, name, subdomain, db_host, db_port, db_username, db_password, db_name, is_active, created_at, updated_at)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		tenant.ID,
		tenant.Name,
		tenant.Subdomain,
		tenant.DBHost,
		tenant.DBPort,
		tenant.DBUsername,
		tenant.DBPassword,
		tenant.DBName,
		tenant.IsActive,
		tenant.CreatedAt,
		tenant.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("tenant subdomain already exists: %w", err)
		}
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	return nil
}

func (r *TenantRepo) GetBySubdomain(ctx context.Context, subdomain string) (*tenants.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE subdomain = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, subdomain))
}

func (r *TenantRepo) GetByID(ctx context.Context, id string) (*tenants.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1::uuid`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *TenantRepo) List(ctx context.Context) ([]*tenants.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	var list []*tenants.Tenant
	for rows.Next() {
		var tenant tenants.Tenant
		if err := scanTenant(rows, &tenant); err != nil {
			return nil, fmt.Errorf("failed to scan tenant row: %w", err)
		}
		list = append(list, &tenant)
	}
	return list, rows.Err()
}

func (r *TenantRepo) Update(ctx context.Context, id string, update tenants.Update) (*tenants.Tenant, error) {
	set := []string{"updated_at = NOW()"}
	args := []any{}
	arg := 1

	addSet := func(column string, value any) {
		set = append(set, fmt.Sprintf("%s = $%d", column, arg))
		args = append(args, value)
		arg++
	}

	if update.Name != nil {
		addSet("name", *update.Name)
	}
	if update.DBHost != nil {
		addSet("db_host", *update.DBHost)
	}
	if update.DBPort != nil {
		addSet("db_port", *update.DBPort)
	}
	if update.DBUsername != nil {
		addSet("db_username", *update.DBUsername)
	}
	if update.DBPassword != nil {
		addSet("db_password", *update.DBPassword)
	}
	if update.DBName != nil {
		addSet("db_name", *update.DBName)
	}
	if update.IsActive != nil {
		addSet("is_active", *update.IsActive)
	}

	query := fmt.Sprintf(`
		UPDATE tenants SET %s WHERE id = $%d::uuid
		RETURNING %s
	`, strings.Join(set, ", "), arg, tenantColumns)
	args = append(args, id)

	return r.scanOne(r.db.QueryRowContext(ctx, query, args...))
}

func (r *TenantRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tenants WHERE id = $1::uuid`, id); err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}
	return nil
}

func (r *TenantRepo) ExistsBySubdomain(ctx context.Context, subdomain string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM tenants WHERE subdomain = $1)`, subdomain).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check subdomain: %w", err)
	}
	return exists, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *TenantRepo) scanOne(row rowScanner) (*tenants.Tenant, error) {
	var tenant tenants.Tenant
	if err := scanTenant(row, &tenant); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return &tenant, nil
}

func scanTenant(row rowScanner, tenant *tenants.Tenant) error {
	return row.Scan(
		&tenant.ID,
		&tenant.Name,
		&tenant.Subdomain,
		&tenant.DBHost,
		&tenant.DBPort,
		&tenant.DBUsername,
		&tenant.DBPassword,
		&tenant.DBName,
		&tenant.IsActive,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	)
}
