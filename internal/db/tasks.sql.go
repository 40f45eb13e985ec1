package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const taskColumns = `id, tenant_id, appointment_id, assigned_staff_id, title, description, status, completed_at,
created_at, updated_at, deleted_at`

func scanTask(row pgx.Row) (Task, error) {
	var i Task
	err := row.Scan(
		&i.ID,
		&i.TenantID,
		&i.AppointmentID,
		&i.AssignedStaffID,
		&i.Title,
		&i.Description,
		&i.Status,
		&i.CompletedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.DeletedAt,
	)
	return i, err
}

const createTask = `-- name: CreateTask :one
INSERT INTO tasks (tenant_id, appointment_id, assigned_staff_id, title, description, status)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + taskColumns

type CreateTaskParams struct {
	TenantID        uuid.UUID   `json:"tenant_id"`
	AppointmentID   uuid.UUID   `json:"appointment_id"`
	AssignedStaffID *uuid.UUID  `json:"assigned_staff_id"`
	Title           string      `json:"title"`
	Description     pgtype.Text `json:"description"`
	Status          string      `json:"status"`
}

func (q *Queries) CreateTask(ctx context.Context, arg CreateTaskParams) (Task, error) {
	row := q.db.QueryRow(ctx, createTask,
		arg.TenantID,
		arg.AppointmentID,
		arg.AssignedStaffID,
		arg.Title,
		arg.Description,
		arg.Status,
	)
	return scanTask(row)
}

const getTaskByID = `-- name: GetTaskByID :one
SELECT ` + taskColumns + ` FROM tasks
WHERE id = $1 AND deleted_at IS NULL`

func (q *Queries) GetTaskByID(ctx context.Context, id uuid.UUID) (Task, error) {
	row := q.db.QueryRow(ctx, getTaskByID, id)
	return scanTask(row)
}

const taskFilter = `
WHERE tenant_id = $1
  AND deleted_at IS NULL
  AND ($2::uuid IS NULL OR appointment_id = $2)
  AND ($3::text IS NULL OR status = $3)
  AND ($4::uuid IS NULL OR assigned_staff_id = $4)`

const listTasks = `-- name: ListTasks :many
SELECT ` + taskColumns + ` FROM tasks` + taskFilter + `
ORDER BY created_at, id
LIMIT $5 OFFSET $6`

type ListTasksParams struct {
	TenantID        uuid.UUID   `json:"tenant_id"`
	AppointmentID   *uuid.UUID  `json:"appointment_id"`
	Status          pgtype.Text `json:"status"`
	AssignedStaffID *uuid.UUID  `json:"assigned_staff_id"`
	Limit           int32       `json:"limit"`
	Offset          int32       `json:"offset"`
}

func (q *Queries) ListTasks(ctx context.Context, arg ListTasksParams) ([]Task, error) {
	rows, err := q.db.Query(ctx, listTasks,
		arg.TenantID,
		arg.AppointmentID,
		arg.Status,
		arg.AssignedStaffID,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Task
	for rows.Next() {
		i, err := scanTask(rows)
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

const countTasks = `-- name: CountTasks :one
SELECT count(*) FROM tasks` + taskFilter

type CountTasksParams struct {
	TenantID        uuid.UUID   `json:"tenant_id"`
	AppointmentID   *uuid.UUID  `json:"appointment_id"`
	Status          pgtype.Text `json:"status"`
	AssignedStaffID *uuid.UUID  `json:"assigned_staff_id"`
}

func (q *Queries) CountTasks(ctx context.Context, arg CountTasksParams) (int64, error) {
	row := q.db.QueryRow(ctx, countTasks, arg.TenantID, arg.AppointmentID, arg.Status, arg.AssignedStaffID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const updateTask = `-- name: UpdateTask :one
UPDATE tasks
SET assigned_staff_id = $2,
    title = $3,
    description = $4,
    status = $5,
    completed_at = CASE WHEN $5 = 'COMPLETED' THEN COALESCE(completed_at, now()) ELSE NULL END,
    updated_at = now()
WHERE id = $1 AND deleted_at IS NULL
RETURNING ` + taskColumns

type UpdateTaskParams struct {
	ID              uuid.UUID   `json:"id"`
	AssignedStaffID *uuid.UUID  `json:"assigned_staff_id"`
	Title           string      `json:"title"`
	Description     pgtype.Text `json:"description"`
	Status          string      `json:"status"`
}

func (q *Queries) UpdateTask(ctx context.Context, arg UpdateTaskParams) (Task, error) {
	row := q.db.QueryRow(ctx, updateTask,
		arg.ID,
		arg.AssignedStaffID,
		arg.Title,
		arg.Description,
		arg.Status,
	)
	return scanTask(row)
}

const completeTask = `-- name: CompleteTask :one
UPDATE tasks
SET status = 'COMPLETED', completed_at = now(), updated_at = now()
WHERE id = $1 AND deleted_at IS NULL
RETURNING ` + taskColumns

func (q *Queries) CompleteTask(ctx context.Context, id uuid.UUID) (Task, error) {
	row := q.db.QueryRow(ctx, completeTask, id)
	return scanTask(row)
}

const softDeleteTask = `-- name: SoftDeleteTask :execrows
UPDATE tasks SET deleted_at = now(), updated_at = now()
WHERE id = $1 AND deleted_at IS NULL`

func (q *Queries) SoftDeleteTask(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, softDeleteTask, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
