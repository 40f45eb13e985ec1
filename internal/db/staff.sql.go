package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const staffColumns = `id, tenant_id, user_id, role_label, skills, max_capacity, availability, is_active,
created_at, updated_at, deleted_at`

func scanStaff(row pgx.Row) (Staff, error) {
	var i Staff
	err := row.Scan(
		&i.ID,
		&i.TenantID,
		&i.UserID,
		&i.RoleLabel,
		&i.Skills,
		&i.MaxCapacity,
		&i.Availability,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.DeletedAt,
	)
	return i, err
}

const createStaff = `-- name: CreateStaff :one
INSERT INTO staff (tenant_id, user_id, role_label, skills, max_capacity, availability, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + staffColumns

type CreateStaffParams struct {
	TenantID     uuid.UUID `json:"tenant_id"`
	UserID       uuid.UUID `json:"user_id"`
	RoleLabel    string    `json:"role_label"`
	Skills       []string  `json:"skills"`
	MaxCapacity  int32     `json:"max_capacity"`
	Availability []byte    `json:"availability"`
	IsActive     bool      `json:"is_active"`
}

func (q *Queries) CreateStaff(ctx context.Context, arg CreateStaffParams) (Staff, error) {
	row := q.db.QueryRow(ctx, createStaff,
		arg.TenantID,
		arg.UserID,
		arg.RoleLabel,
		arg.Skills,
		arg.MaxCapacity,
		arg.Availability,
		arg.IsActive,
	)
	return scanStaff(row)
}

const getStaffByID = `-- name: GetStaffByID :one
SELECT ` + staffColumns + ` FROM staff
WHERE id = $1 AND deleted_at IS NULL`

func (q *Queries) GetStaffByID(ctx context.Context, id uuid.UUID) (Staff, error) {
	row := q.db.QueryRow(ctx, getStaffByID, id)
	return scanStaff(row)
}

const listStaff = `-- name: ListStaff :many
SELECT ` + staffColumns + ` FROM staff
WHERE tenant_id = $1 AND deleted_at IS NULL
ORDER BY created_at, id
LIMIT $2 OFFSET $3`

type ListStaffParams struct {
	TenantID uuid.UUID `json:"tenant_id"`
	Limit    int32     `json:"limit"`
	Offset   int32     `json:"offset"`
}

func (q *Queries) ListStaff(ctx context.Context, arg ListStaffParams) ([]Staff, error) {
	rows, err := q.db.Query(ctx, listStaff, arg.TenantID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Staff
	for rows.Next() {
		i, err := scanStaff(rows)
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

const countStaff = `-- name: CountStaff :one
SELECT count(*) FROM staff WHERE tenant_id = $1 AND deleted_at IS NULL`

func (q *Queries) CountStaff(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	row := q.db.QueryRow(ctx, countStaff, tenantID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const updateStaff = `-- name: UpdateStaff :one
UPDATE staff
SET role_label = $2,
    skills = $3,
    max_capacity = $4,
    availability = $5,
    is_active = $6,
    updated_at = now()
WHERE id = $1 AND deleted_at IS NULL
RETURNING ` + staffColumns

type UpdateStaffParams struct {
	ID           uuid.UUID `json:"id"`
	RoleLabel    string    `json:"role_label"`
	Skills       []string  `json:"skills"`
	MaxCapacity  int32     `json:"max_capacity"`
	Availability []byte    `json:"availability"`
	IsActive     bool      `json:"is_active"`
}

func (q *Queries) UpdateStaff(ctx context.Context, arg UpdateStaffParams) (Staff, error) {
	row := q.db.QueryRow(ctx, updateStaff,
		arg.ID,
		arg.RoleLabel,
		arg.Skills,
		arg.MaxCapacity,
		arg.Availability,
		arg.IsActive,
	)
	return scanStaff(row)
}

const softDeleteStaff = `-- name: SoftDeleteStaff :execrows
UPDATE staff SET deleted_at = now(), updated_at = now()
WHERE id = $1 AND deleted_at IS NULL`

func (q *Queries) SoftDeleteStaff(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, softDeleteStaff, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
