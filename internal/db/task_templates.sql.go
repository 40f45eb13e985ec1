package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const taskTemplateColumns = `id, tenant_id, name, service_type, checklist, created_at, updated_at, deleted_at`

func scanTaskTemplate(row pgx.Row) (TaskTemplate, error) {
	var i TaskTemplate
	err := row.Scan(
		&i.ID,
		&i.TenantID,
		&i.Name,
		&i.ServiceType,
		&i.Checklist,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.DeletedAt,
	)
	return i, err
}

const createTaskTemplate = `-- name: CreateTaskTemplate :one
INSERT INTO task_templates (tenant_id, name, service_type, checklist)
VALUES ($1, $2, $3, $4)
RETURNING ` + taskTemplateColumns

type CreateTaskTemplateParams struct {
	TenantID    uuid.UUID `json:"tenant_id"`
	Name        string    `json:"name"`
	ServiceType string    `json:"service_type"`
	Checklist   []string  `json:"checklist"`
}

func (q *Queries) CreateTaskTemplate(ctx context.Context, arg CreateTaskTemplateParams) (TaskTemplate, error) {
	row := q.db.QueryRow(ctx, createTaskTemplate, arg.TenantID, arg.Name, arg.ServiceType, arg.Checklist)
	return scanTaskTemplate(row)
}

const getTaskTemplateByID = `-- name: GetTaskTemplateByID :one
SELECT ` + taskTemplateColumns + ` FROM task_templates
WHERE id = $1 AND deleted_at IS NULL`

func (q *Queries) GetTaskTemplateByID(ctx context.Context, id uuid.UUID) (TaskTemplate, error) {
	row := q.db.QueryRow(ctx, getTaskTemplateByID, id)
	return scanTaskTemplate(row)
}

const listTaskTemplates = `-- name: ListTaskTemplates :many
SELECT ` + taskTemplateColumns + ` FROM task_templates
WHERE tenant_id = $1
  AND deleted_at IS NULL
  AND ($2::text IS NULL OR service_type = $2)
ORDER BY name, id
LIMIT $3 OFFSET $4`

type ListTaskTemplatesParams struct {
	TenantID    uuid.UUID   `json:"tenant_id"`
	ServiceType pgtype.Text `json:"service_type"`
	Limit       int32       `json:"limit"`
	Offset      int32       `json:"offset"`
}

func (q *Queries) ListTaskTemplates(ctx context.Context, arg ListTaskTemplatesParams) ([]TaskTemplate, error) {
	rows, err := q.db.Query(ctx, listTaskTemplates, arg.TenantID, arg.ServiceType, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TaskTemplate
	for rows.Next() {
		i, err := scanTaskTemplate(rows)
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

const countTaskTemplates = `-- name: CountTaskTemplates :one
SELECT count(*) FROM task_templates
WHERE tenant_id = $1
  AND deleted_at IS NULL
  AND ($2::text IS NULL OR service_type = $2)`

type CountTaskTemplatesParams struct {
	TenantID    uuid.UUID   `json:"tenant_id"`
	ServiceType pgtype.Text `json:"service_type"`
}

func (q *Queries) CountTaskTemplates(ctx context.Context, arg CountTaskTemplatesParams) (int64, error) {
	row := q.db.QueryRow(ctx, countTaskTemplates, arg.TenantID, arg.ServiceType)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const updateTaskTemplate = `-- name: UpdateTaskTemplate :one
UPDATE task_templates
SET name = $2, service_type = $3, checklist = $4, updated_at = now()
WHERE id = $1 AND deleted_at IS NULL
RETURNING ` + taskTemplateColumns

type UpdateTaskTemplateParams struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	ServiceType string    `json:"service_type"`
	Checklist   []string  `json:"checklist"`
}

func (q *Queries) UpdateTaskTemplate(ctx context.Context, arg UpdateTaskTemplateParams) (TaskTemplate, error) {
	row := q.db.QueryRow(ctx, updateTaskTemplate, arg.ID, arg.Name, arg.ServiceType, arg.Checklist)
	return scanTaskTemplate(row)
}

const softDeleteTaskTemplate = `-- name: SoftDeleteTaskTemplate :execrows
UPDATE task_templates SET deleted_at = now(), updated_at = now()
WHERE id = $1 AND deleted_at IS NULL`

func (q *Queries) SoftDeleteTaskTemplate(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, softDeleteTaskTemplate, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
