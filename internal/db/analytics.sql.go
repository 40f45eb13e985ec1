package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getTenantSummary = `-- name: GetTenantSummary :one
SELECT
    (SELECT count(*) FROM customers c WHERE c.tenant_id = $1 AND c.deleted_at IS NULL) AS customers,
    (SELECT count(*) FROM pets p WHERE p.tenant_id = $1 AND p.deleted_at IS NULL) AS pets,
    (SELECT count(*) FROM services s WHERE s.tenant_id = $1 AND s.deleted_at IS NULL AND s.is_active) AS active_services,
    (SELECT count(*) FROM staff st WHERE st.tenant_id = $1 AND st.deleted_at IS NULL) AS staff`

type GetTenantSummaryRow struct {
	Customers      int64 `json:"customers"`
	Pets           int64 `json:"pets"`
	ActiveServices int64 `json:"active_services"`
	Staff          int64 `json:"staff"`
}

func (q *Queries) GetTenantSummary(ctx context.Context, tenantID uuid.UUID) (GetTenantSummaryRow, error) {
	row := q.db.QueryRow(ctx, getTenantSummary, tenantID)
	var i GetTenantSummaryRow
	err := row.Scan(&i.Customers, &i.Pets, &i.ActiveServices, &i.Staff)
	return i, err
}

const countAppointmentsByStatus = `-- name: CountAppointmentsByStatus :many
SELECT status, count(*) AS total
FROM appointments
WHERE tenant_id = $1
  AND deleted_at IS NULL
  AND ($2::timestamptz IS NULL OR starts_at >= $2)
  AND ($3::timestamptz IS NULL OR starts_at < $3)
GROUP BY status
ORDER BY status`

type CountAppointmentsByStatusParams struct {
	TenantID uuid.UUID          `json:"tenant_id"`
	From     pgtype.Timestamptz `json:"from"`
	To       pgtype.Timestamptz `json:"to"`
}

type CountAppointmentsByStatusRow struct {
	Status string `json:"status"`
	Total  int64  `json:"total"`
}

func (q *Queries) CountAppointmentsByStatus(ctx context.Context, arg CountAppointmentsByStatusParams) ([]CountAppointmentsByStatusRow, error) {
	rows, err := q.db.Query(ctx, countAppointmentsByStatus, arg.TenantID, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CountAppointmentsByStatusRow
	for rows.Next() {
		var i CountAppointmentsByStatusRow
		if err := rows.Scan(&i.Status, &i.Total); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
