package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const fileColumns = `id, tenant_id, entity_type, entity_id, kind, object_key, content_type, size_bytes, created_at, deleted_at`

func scanFile(row pgx.Row) (File, error) {
	var i File
	err := row.Scan(
		&i.ID,
		&i.TenantID,
		&i.EntityType,
		&i.EntityID,
		&i.Kind,
		&i.ObjectKey,
		&i.ContentType,
		&i.SizeBytes,
		&i.CreatedAt,
		&i.DeletedAt,
	)
	return i, err
}

const createFile = `-- name: CreateFile :one
INSERT INTO files (tenant_id, entity_type, entity_id, kind, object_key, content_type, size_bytes)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + fileColumns

type CreateFileParams struct {
	TenantID    uuid.UUID `json:"tenant_id"`
	EntityType  string    `json:"entity_type"`
	EntityID    uuid.UUID `json:"entity_id"`
	Kind        string    `json:"kind"`
	ObjectKey   string    `json:"object_key"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
}

func (q *Queries) CreateFile(ctx context.Context, arg CreateFileParams) (File, error) {
	row := q.db.QueryRow(ctx, createFile,
		arg.TenantID,
		arg.EntityType,
		arg.EntityID,
		arg.Kind,
		arg.ObjectKey,
		arg.ContentType,
		arg.SizeBytes,
	)
	return scanFile(row)
}

const listEntityFiles = `-- name: ListEntityFiles :many
SELECT ` + fileColumns + ` FROM files
WHERE tenant_id = $1 AND entity_type = $2 AND entity_id = $3 AND deleted_at IS NULL
ORDER BY created_at DESC`

type ListEntityFilesParams struct {
	TenantID   uuid.UUID `json:"tenant_id"`
	EntityType string    `json:"entity_type"`
	EntityID   uuid.UUID `json:"entity_id"`
}

func (q *Queries) ListEntityFiles(ctx context.Context, arg ListEntityFilesParams) ([]File, error) {
	rows, err := q.db.Query(ctx, listEntityFiles, arg.TenantID, arg.EntityType, arg.EntityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []File
	for rows.Next() {
		i, err := scanFile(rows)
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

const softDeleteEntityFiles = `-- name: SoftDeleteEntityFiles :exec
UPDATE files SET deleted_at = now()
WHERE tenant_id = $1 AND entity_type = $2 AND entity_id = $3 AND deleted_at IS NULL`

type SoftDeleteEntityFilesParams struct {
	TenantID   uuid.UUID `json:"tenant_id"`
	EntityType string    `json:"entity_type"`
	EntityID   uuid.UUID `json:"entity_id"`
}

func (q *Queries) SoftDeleteEntityFiles(ctx context.Context, arg SoftDeleteEntityFilesParams) error {
	_, err := q.db.Exec(ctx, softDeleteEntityFiles, arg.TenantID, arg.EntityType, arg.EntityID)
	return err
}
