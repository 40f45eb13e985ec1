package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const serviceColumns = `id, tenant_id, name, description, type, duration_minutes, price_cents, is_active,
created_at, updated_at, deleted_at`

func scanService(row pgx.Row) (Service, error) {
	var i Service
	err := row.Scan(
		&i.ID,
		&i.TenantID,
		&i.Name,
		&i.Description,
		&i.Type,
		&i.DurationMinutes,
		&i.PriceCents,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.DeletedAt,
	)
	return i, err
}

const createService = `-- name: CreateService :one
INSERT INTO services (tenant_id, name, description, type, duration_minutes, price_cents, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + serviceColumns

type CreateServiceParams struct {
	TenantID        uuid.UUID   `json:"tenant_id"`
	Name            string      `json:"name"`
	Description     pgtype.Text `json:"description"`
	Type            string      `json:"type"`
	DurationMinutes int32       `json:"duration_minutes"`
	PriceCents      int64       `json:"price_cents"`
	IsActive        bool        `json:"is_active"`
}

func (q *Queries) CreateService(ctx context.Context, arg CreateServiceParams) (Service, error) {
	row := q.db.QueryRow(ctx, createService,
		arg.TenantID,
		arg.Name,
		arg.Description,
		arg.Type,
		arg.DurationMinutes,
		arg.PriceCents,
		arg.IsActive,
	)
	return scanService(row)
}

const getServiceByID = `-- name: GetServiceByID :one
SELECT ` + serviceColumns + ` FROM services
WHERE id = $1 AND deleted_at IS NULL`

func (q *Queries) GetServiceByID(ctx context.Context, id uuid.UUID) (Service, error) {
	row := q.db.QueryRow(ctx, getServiceByID, id)
	return scanService(row)
}

const listServices = `-- name: ListServices :many
SELECT ` + serviceColumns + ` FROM services
WHERE tenant_id = $1
  AND deleted_at IS NULL
  AND ($2::text IS NULL OR type = $2)
  AND ($3::boolean IS NULL OR is_active = $3)
ORDER BY name, id
LIMIT $4 OFFSET $5`

type ListServicesParams struct {
	TenantID uuid.UUID   `json:"tenant_id"`
	Type     pgtype.Text `json:"type"`
	IsActive pgtype.Bool `json:"is_active"`
	Limit    int32       `json:"limit"`
	Offset   int32       `json:"offset"`
}

func (q *Queries) ListServices(ctx context.Context, arg ListServicesParams) ([]Service, error) {
	rows, err := q.db.Query(ctx, listServices, arg.TenantID, arg.Type, arg.IsActive, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Service
	for rows.Next() {
		i, err := scanService(rows)
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

const countServices = `-- name: CountServices :one
SELECT count(*) FROM services
WHERE tenant_id = $1
  AND deleted_at IS NULL
  AND ($2::text IS NULL OR type = $2)
  AND ($3::boolean IS NULL OR is_active = $3)`

type CountServicesParams struct {
	TenantID uuid.UUID   `json:"tenant_id"`
	Type     pgtype.Text `json:"type"`
	IsActive pgtype.Bool `json:"is_active"`
}

func (q *Queries) CountServices(ctx context.Context, arg CountServicesParams) (int64, error) {
	row := q.db.QueryRow(ctx, countServices, arg.TenantID, arg.Type, arg.IsActive)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const updateService = `-- name: UpdateService :one
UPDATE services
SET name = $2,
    description = $3,
    type = $4,
    duration_minutes = $5,
    price_cents = $6,
    is_active = $7,
    updated_at = now()
WHERE id = $1 AND deleted_at IS NULL
RETURNING ` + serviceColumns

type UpdateServiceParams struct {
	ID              uuid.UUID   `json:"id"`
	Name            string      `json:"name"`
	Description     pgtype.Text `json:"description"`
	Type            string      `json:"type"`
	DurationMinutes int32       `json:"duration_minutes"`
	PriceCents      int64       `json:"price_cents"`
	IsActive        bool        `json:"is_active"`
}

func (q *Queries) UpdateService(ctx context.Context, arg UpdateServiceParams) (Service, error) {
	row := q.db.QueryRow(ctx, updateService,
		arg.ID,
		arg.Name,
		arg.Description,
		arg.Type,
		arg.DurationMinutes,
		arg.PriceCents,
		arg.IsActive,
	)
	return scanService(row)
}

const softDeleteService = `-- name: SoftDeleteService :execrows
UPDATE services SET deleted_at = now(), updated_at = now()
WHERE id = $1 AND deleted_at IS NULL`

func (q *Queries) SoftDeleteService(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, softDeleteService, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
