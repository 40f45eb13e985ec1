package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const auditLogColumns = `id, tenant_id, actor_id, action, entity_type, entity_id, changes, ip_address, user_agent, created_at`

func scanAuditLog(row pgx.Row) (AuditLog, error) {
	var i AuditLog
	err := row.Scan(
		&i.ID,
		&i.TenantID,
		&i.ActorID,
		&i.Action,
		&i.EntityType,
		&i.EntityID,
		&i.Changes,
		&i.IpAddress,
		&i.UserAgent,
		&i.CreatedAt,
	)
	return i, err
}

const createAuditLog = `-- name: CreateAuditLog :one
INSERT INTO audit_logs (tenant_id, actor_id, action, entity_type, entity_id, changes, ip_address, user_agent)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + auditLogColumns

type CreateAuditLogParams struct {
	TenantID   *uuid.UUID  `json:"tenant_id"`
	ActorID    *uuid.UUID  `json:"actor_id"`
	Action     string      `json:"action"`
	EntityType string      `json:"entity_type"`
	EntityID   *uuid.UUID  `json:"entity_id"`
	Changes    []byte      `json:"changes"`
	IpAddress  pgtype.Text `json:"ip_address"`
	UserAgent  pgtype.Text `json:"user_agent"`
}

func (q *Queries) CreateAuditLog(ctx context.Context, arg CreateAuditLogParams) (AuditLog, error) {
	row := q.db.QueryRow(ctx, createAuditLog,
		arg.TenantID,
		arg.ActorID,
		arg.Action,
		arg.EntityType,
		arg.EntityID,
		arg.Changes,
		arg.IpAddress,
		arg.UserAgent,
	)
	return scanAuditLog(row)
}

const auditLogFilter = `
WHERE tenant_id = $1
  AND ($2::text IS NULL OR entity_type = $2)
  AND ($3::uuid IS NULL OR entity_id = $3)`

const listAuditLogs = `-- name: ListAuditLogs :many
SELECT ` + auditLogColumns + ` FROM audit_logs` + auditLogFilter + `
ORDER BY created_at DESC, id
LIMIT $4 OFFSET $5`

type ListAuditLogsParams struct {
	TenantID   uuid.UUID   `json:"tenant_id"`
	EntityType pgtype.Text `json:"entity_type"`
	EntityID   *uuid.UUID  `json:"entity_id"`
	Limit      int32       `json:"limit"`
	Offset     int32       `json:"offset"`
}

func (q *Queries) ListAuditLogs(ctx context.Context, arg ListAuditLogsParams) ([]AuditLog, error) {
	rows, err := q.db.Query(ctx, listAuditLogs, arg.TenantID, arg.EntityType, arg.EntityID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AuditLog
	for rows.Next() {
		i, err := scanAuditLog(rows)
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

const countAuditLogs = `-- name: CountAuditLogs :one
SELECT count(*) FROM audit_logs` + auditLogFilter

type CountAuditLogsParams struct {
	TenantID   uuid.UUID   `json:"tenant_id"`
	EntityType pgtype.Text `json:"entity_type"`
	EntityID   *uuid.UUID  `json:"entity_id"`
}

func (q *Queries) CountAuditLogs(ctx context.Context, arg CountAuditLogsParams) (int64, error) {
	row := q.db.QueryRow(ctx, countAuditLogs, arg.TenantID, arg.EntityType, arg.EntityID)
	var count int64
	err := row.Scan(&count)
	return count, err
}
