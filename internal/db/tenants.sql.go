package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const tenantColumns = `id, name, slug, plan, status, settings, created_at, updated_at, deleted_at`

func scanTenant(row pgx.Row) (Tenant, error) {
	var i Tenant
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Slug,
		&i.Plan,
		&i.Status,
		&i.Settings,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.DeletedAt,
	)
	return i, err
}

const createTenant = `-- name: CreateTenant :one
INSERT INTO tenants (name, slug, plan, status, settings)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + tenantColumns

type CreateTenantParams struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Plan     string `json:"plan"`
	Status   string `json:"status"`
	Settings []byte `json:"settings"`
}

func (q *Queries) CreateTenant(ctx context.Context, arg CreateTenantParams) (Tenant, error) {
	row := q.db.QueryRow(ctx, createTenant, arg.Name, arg.Slug, arg.Plan, arg.Status, arg.Settings)
	return scanTenant(row)
}

const getTenantByID = `-- name: GetTenantByID :one
SELECT ` + tenantColumns + ` FROM tenants
WHERE id = $1 AND deleted_at IS NULL`

func (q *Queries) GetTenantByID(ctx context.Context, id uuid.UUID) (Tenant, error) {
	row := q.db.QueryRow(ctx, getTenantByID, id)
	return scanTenant(row)
}

const tenantSlugExists = `-- name: TenantSlugExists :one
SELECT EXISTS (SELECT 1 FROM tenants WHERE slug = $1)`

func (q *Queries) TenantSlugExists(ctx context.Context, slug string) (bool, error) {
	row := q.db.QueryRow(ctx, tenantSlugExists, slug)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const listTenants = `-- name: ListTenants :many
SELECT ` + tenantColumns + ` FROM tenants
WHERE deleted_at IS NULL
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`

type ListTenantsParams struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

func (q *Queries) ListTenants(ctx context.Context, arg ListTenantsParams) ([]Tenant, error) {
	rows, err := q.db.Query(ctx, listTenants, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Tenant
	for rows.Next() {
		i, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countTenants = `-- name: CountTenants :one
SELECT count(*) FROM tenants WHERE deleted_at IS NULL`

func (q *Queries) CountTenants(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, countTenants)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const updateTenantSettings = `-- name: UpdateTenantSettings :one
UPDATE tenants
SET name = $2, settings = $3, updated_at = now()
WHERE id = $1 AND deleted_at IS NULL
RETURNING ` + tenantColumns

type UpdateTenantSettingsParams struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Settings []byte    `json:"settings"`
}

func (q *Queries) UpdateTenantSettings(ctx context.Context, arg UpdateTenantSettingsParams) (Tenant, error) {
	row := q.db.QueryRow(ctx, updateTenantSettings, arg.ID, arg.Name, arg.Settings)
	return scanTenant(row)
}
