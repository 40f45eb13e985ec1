package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const notificationLogColumns = `id, tenant_id, user_id, channel, template, recipient, status, error, created_at`

const createNotificationLog = `-- name: CreateNotificationLog :one
INSERT INTO notification_logs (tenant_id, user_id, channel, template, recipient, status, error)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + notificationLogColumns

type CreateNotificationLogParams struct {
	TenantID  uuid.UUID   `json:"tenant_id"`
	UserID    *uuid.UUID  `json:"user_id"`
	Channel   string      `json:"channel"`
	Template  string      `json:"template"`
	Recipient string      `json:"recipient"`
	Status    string      `json:"status"`
	Error     pgtype.Text `json:"error"`
}

func (q *Queries) CreateNotificationLog(ctx context.Context, arg CreateNotificationLogParams) (NotificationLog, error) {
	row := q.db.QueryRow(ctx, createNotificationLog,
		arg.TenantID,
		arg.UserID,
		arg.Channel,
		arg.Template,
		arg.Recipient,
		arg.Status,
		arg.Error,
	)
	var i NotificationLog
	err := row.Scan(
		&i.ID,
		&i.TenantID,
		&i.UserID,
		&i.Channel,
		&i.Template,
		&i.Recipient,
		&i.Status,
		&i.Error,
		&i.CreatedAt,
	)
	return i, err
}
