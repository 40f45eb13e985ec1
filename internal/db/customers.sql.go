package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const customerColumns = `id, tenant_id, first_name, last_name, email, phone, address,
communication_preferences, notes, created_at, updated_at, deleted_at`

func scanCustomer(row pgx.Row) (Customer, error) {
	var i Customer
	err := row.Scan(
		&i.ID,
		&i.TenantID,
		&i.FirstName,
		&i.LastName,
		&i.Email,
		&i.Phone,
		&i.Address,
		&i.CommunicationPreferences,
		&i.Notes,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.DeletedAt,
	)
	return i, err
}

func collectCustomers(rows pgx.Rows, err error) ([]Customer, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Customer
	for rows.Next() {
		i, err := scanCustomer(rows)
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

const createCustomer = `-- name: CreateCustomer :one
INSERT INTO customers (tenant_id, first_name, last_name, email, phone, address, communication_preferences, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + customerColumns

type CreateCustomerParams struct {
	TenantID                 uuid.UUID   `json:"tenant_id"`
	FirstName                string      `json:"first_name"`
	LastName                 string      `json:"last_name"`
	Email                    pgtype.Text `json:"email"`
	Phone                    pgtype.Text `json:"phone"`
	Address                  []byte      `json:"address"`
	CommunicationPreferences []byte      `json:"communication_preferences"`
	Notes                    pgtype.Text `json:"notes"`
}

func (q *Queries) CreateCustomer(ctx context.Context, arg CreateCustomerParams) (Customer, error) {
	row := q.db.QueryRow(ctx, createCustomer,
		arg.TenantID,
		arg.FirstName,
		arg.LastName,
		arg.Email,
		arg.Phone,
		arg.Address,
		arg.CommunicationPreferences,
		arg.Notes,
	)
	return scanCustomer(row)
}

const getCustomerByID = `-- name: GetCustomerByID :one
SELECT ` + customerColumns + ` FROM customers
WHERE id = $1 AND deleted_at IS NULL`

func (q *Queries) GetCustomerByID(ctx context.Context, id uuid.UUID) (Customer, error) {
	row := q.db.QueryRow(ctx, getCustomerByID, id)
	return scanCustomer(row)
}

const getCustomerByEmail = `-- name: GetCustomerByEmail :one
SELECT ` + customerColumns + ` FROM customers
WHERE tenant_id = $1 AND lower(email) = lower($2) AND deleted_at IS NULL
ORDER BY created_at
LIMIT 1`

type GetCustomerByEmailParams struct {
	TenantID uuid.UUID `json:"tenant_id"`
	Email    string    `json:"email"`
}

func (q *Queries) GetCustomerByEmail(ctx context.Context, arg GetCustomerByEmailParams) (Customer, error) {
	row := q.db.QueryRow(ctx, getCustomerByEmail, arg.TenantID, arg.Email)
	return scanCustomer(row)
}

const listCustomers = `-- name: ListCustomers :many
SELECT ` + customerColumns + ` FROM customers
WHERE tenant_id = $1
  AND deleted_at IS NULL
  AND ($2::text IS NULL
       OR first_name ILIKE '%' || $2 || '%'
       OR last_name ILIKE '%' || $2 || '%'
       OR email ILIKE '%' || $2 || '%')
ORDER BY last_name, first_name, id
LIMIT $3 OFFSET $4`

type ListCustomersParams struct {
	TenantID uuid.UUID   `json:"tenant_id"`
	Search   pgtype.Text `json:"search"`
	Limit    int32       `json:"limit"`
	Offset   int32       `json:"offset"`
}

func (q *Queries) ListCustomers(ctx context.Context, arg ListCustomersParams) ([]Customer, error) {
	return collectCustomers(q.db.Query(ctx, listCustomers, arg.TenantID, arg.Search, arg.Limit, arg.Offset))
}

const countCustomers = `-- name: CountCustomers :one
SELECT count(*) FROM customers
WHERE tenant_id = $1
  AND deleted_at IS NULL
  AND ($2::text IS NULL
       OR first_name ILIKE '%' || $2 || '%'
       OR last_name ILIKE '%' || $2 || '%'
       OR email ILIKE '%' || $2 || '%')`

type CountCustomersParams struct {
	TenantID uuid.UUID   `json:"tenant_id"`
	Search   pgtype.Text `json:"search"`
}

func (q *Queries) CountCustomers(ctx context.Context, arg CountCustomersParams) (int64, error) {
	row := q.db.QueryRow(ctx, countCustomers, arg.TenantID, arg.Search)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const updateCustomer = `-- name: UpdateCustomer :one
UPDATE customers
SET first_name = $2,
    last_name = $3,
    email = $4,
    phone = $5,
    address = $6,
    communication_preferences = $7,
    notes = $8,
    updated_at = now()
WHERE id = $1 AND deleted_at IS NULL
RETURNING ` + customerColumns

type UpdateCustomerParams struct {
	ID                       uuid.UUID   `json:"id"`
	FirstName                string      `json:"first_name"`
	LastName                 string      `json:"last_name"`
	Email                    pgtype.Text `json:"email"`
	Phone                    pgtype.Text `json:"phone"`
	Address                  []byte      `json:"address"`
	CommunicationPreferences []byte      `json:"communication_preferences"`
	Notes                    pgtype.Text `json:"notes"`
}

func (q *Queries) UpdateCustomer(ctx context.Context, arg UpdateCustomerParams) (Customer, error) {
	row := q.db.QueryRow(ctx, updateCustomer,
		arg.ID,
		arg.FirstName,
		arg.LastName,
		arg.Email,
		arg.Phone,
		arg.Address,
		arg.CommunicationPreferences,
		arg.Notes,
	)
	return scanCustomer(row)
}

const softDeleteCustomer = `-- name: SoftDeleteCustomer :execrows
UPDATE customers SET deleted_at = now(), updated_at = now()
WHERE id = $1 AND deleted_at IS NULL`

func (q *Queries) SoftDeleteCustomer(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, softDeleteCustomer, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
