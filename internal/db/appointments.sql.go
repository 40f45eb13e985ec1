package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const appointmentColumns = `id, tenant_id, customer_id, pet_id, service_id, staff_id, starts_at, duration_minutes,
status, notes, cancel_reason, cancelled_at, created_at, updated_at, deleted_at`

func scanAppointment(row pgx.Row) (Appointment, error) {
	var i Appointment
	err := row.Scan(
		&i.ID,
		&i.TenantID,
		&i.CustomerID,
		&i.PetID,
		&i.ServiceID,
		&i.StaffID,
		&i.StartsAt,
		&i.DurationMinutes,
		&i.Status,
		&i.Notes,
		&i.CancelReason,
		&i.CancelledAt,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.DeletedAt,
	)
	return i, err
}

const createAppointment = `-- name: CreateAppointment :one
INSERT INTO appointments (tenant_id, customer_id, pet_id, service_id, staff_id, starts_at, duration_minutes, status, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + appointmentColumns

type CreateAppointmentParams struct {
	TenantID        uuid.UUID   `json:"tenant_id"`
	CustomerID      uuid.UUID   `json:"customer_id"`
	PetID           uuid.UUID   `json:"pet_id"`
	ServiceID       uuid.UUID   `json:"service_id"`
	StaffID         *uuid.UUID  `json:"staff_id"`
	StartsAt        time.Time   `json:"starts_at"`
	DurationMinutes int32       `json:"duration_minutes"`
	Status          string      `json:"status"`
	Notes           pgtype.Text `json:"notes"`
}

func (q *Queries) CreateAppointment(ctx context.Context, arg CreateAppointmentParams) (Appointment, error) {
	row := q.db.QueryRow(ctx, createAppointment,
		arg.TenantID,
		arg.CustomerID,
		arg.PetID,
		arg.ServiceID,
		arg.StaffID,
		arg.StartsAt,
		arg.DurationMinutes,
		arg.Status,
		arg.Notes,
	)
	return scanAppointment(row)
}

const getAppointmentByID = `-- name: GetAppointmentByID :one
SELECT ` + appointmentColumns + ` FROM appointments
WHERE id = $1 AND deleted_at IS NULL`

func (q *Queries) GetAppointmentByID(ctx context.Context, id uuid.UUID) (Appointment, error) {
	row := q.db.QueryRow(ctx, getAppointmentByID, id)
	return scanAppointment(row)
}

const appointmentFilter = `
WHERE tenant_id = $1
  AND deleted_at IS NULL
  AND ($2::text IS NULL OR status = $2)
  AND ($3::timestamptz IS NULL OR starts_at >= $3)
  AND ($4::timestamptz IS NULL OR starts_at < $4)
  AND ($5::uuid IS NULL OR customer_id = $5)`

const listAppointments = `-- name: ListAppointments :many
SELECT ` + appointmentColumns + ` FROM appointments` + appointmentFilter + `
ORDER BY starts_at, id
LIMIT $6 OFFSET $7`

type ListAppointmentsParams struct {
	TenantID   uuid.UUID          `json:"tenant_id"`
	Status     pgtype.Text        `json:"status"`
	From       pgtype.Timestamptz `json:"from"`
	To         pgtype.Timestamptz `json:"to"`
	CustomerID *uuid.UUID         `json:"customer_id"`
	Limit      int32              `json:"limit"`
	Offset     int32              `json:"offset"`
}

func (q *Queries) ListAppointments(ctx context.Context, arg ListAppointmentsParams) ([]Appointment, error) {
	rows, err := q.db.Query(ctx, listAppointments,
		arg.TenantID,
		arg.Status,
		arg.From,
		arg.To,
		arg.CustomerID,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Appointment
	for rows.Next() {
		i, err := scanAppointment(rows)
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

const countAppointments = `-- name: CountAppointments :one
SELECT count(*) FROM appointments` + appointmentFilter

type CountAppointmentsParams struct {
	TenantID   uuid.UUID          `json:"tenant_id"`
	Status     pgtype.Text        `json:"status"`
	From       pgtype.Timestamptz `json:"from"`
	To         pgtype.Timestamptz `json:"to"`
	CustomerID *uuid.UUID         `json:"customer_id"`
}

func (q *Queries) CountAppointments(ctx context.Context, arg CountAppointmentsParams) (int64, error) {
	row := q.db.QueryRow(ctx, countAppointments, arg.TenantID, arg.Status, arg.From, arg.To, arg.CustomerID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const updateAppointment = `-- name: UpdateAppointment :one
UPDATE appointments
SET staff_id = $2,
    starts_at = $3,
    duration_minutes = $4,
    status = $5,
    notes = $6,
    updated_at = now()
WHERE id = $1 AND deleted_at IS NULL
RETURNING ` + appointmentColumns

type UpdateAppointmentParams struct {
	ID              uuid.UUID   `json:"id"`
	StaffID         *uuid.UUID  `json:"staff_id"`
	StartsAt        time.Time   `json:"starts_at"`
	DurationMinutes int32       `json:"duration_minutes"`
	Status          string      `json:"status"`
	Notes           pgtype.Text `json:"notes"`
}

func (q *Queries) UpdateAppointment(ctx context.Context, arg UpdateAppointmentParams) (Appointment, error) {
	row := q.db.QueryRow(ctx, updateAppointment,
		arg.ID,
		arg.StaffID,
		arg.StartsAt,
		arg.DurationMinutes,
		arg.Status,
		arg.Notes,
	)
	return scanAppointment(row)
}

const cancelAppointment = `-- name: CancelAppointment :one
UPDATE appointments
SET status = 'CANCELLED',
    cancel_reason = $2,
    cancelled_at = now(),
    updated_at = now()
WHERE id = $1
  AND deleted_at IS NULL
  AND status IN ('SCHEDULED', 'CONFIRMED')
RETURNING ` + appointmentColumns

type CancelAppointmentParams struct {
	ID     uuid.UUID   `json:"id"`
	Reason pgtype.Text `json:"reason"`
}

func (q *Queries) CancelAppointment(ctx context.Context, arg CancelAppointmentParams) (Appointment, error) {
	row := q.db.QueryRow(ctx, cancelAppointment, arg.ID, arg.Reason)
	return scanAppointment(row)
}

const softDeleteAppointment = `-- name: SoftDeleteAppointment :execrows
UPDATE appointments SET deleted_at = now(), updated_at = now()
WHERE id = $1 AND deleted_at IS NULL`

func (q *Queries) SoftDeleteAppointment(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, softDeleteAppointment, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
