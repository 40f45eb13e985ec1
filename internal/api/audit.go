package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pawdesk/pawdesk/internal/db"
	"github.com/pawdesk/pawdesk/internal/rbac"
)

type AuditLogView struct {
	ID         uuid.UUID       `json:"id"`
	TenantID   *uuid.UUID      `json:"tenant_id"`
	ActorID    *uuid.UUID      `json:"actor_id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   *uuid.UUID      `json:"entity_id"`
	Changes    json.RawMessage `json:"changes"`
	IPAddress  *string         `json:"ip_address"`
	UserAgent  *string         `json:"user_agent"`
	CreatedAt  time.Time       `json:"created_at"`
}

func auditLogView(l db.AuditLog) AuditLogView {
	v := AuditLogView{
		ID:         l.ID,
		TenantID:   l.TenantID,
		ActorID:    l.ActorID,
		Action:     l.Action,
		EntityType: l.EntityType,
		EntityID:   l.EntityID,
		Changes:    json.RawMessage(l.Changes),
		IPAddress:  textPtr(l.IpAddress),
		UserAgent:  textPtr(l.UserAgent),
		CreatedAt:  l.CreatedAt,
	}
	if len(v.Changes) == 0 {
		v.Changes = json.RawMessage("{}")
	}
	return v
}

// ListAuditLogs is gated by settings:view.
func (s Server) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePermission(w, r, rbac.SettingsView)
	if !ok {
		return
	}
	tenantID, ok := tenantScope(w, r, p)
	if !ok {
		return
	}
	page, ok := parsePage(w, r)
	if !ok {
		return
	}

	var entityType pgtype.Text
	if t := r.URL.Query().Get("entity_type"); t != "" {
		entityType = pgtype.Text{String: t, Valid: true}
	}
	entityID, ok := uuidQuery(w, r, "entity_id")
	if !ok {
		return
	}

	logs, err := s.db.Queries().ListAuditLogs(r.Context(), db.ListAuditLogsParams{
		TenantID:   tenantID,
		EntityType: entityType,
		EntityID:   entityID,
		Limit:      page.Limit(),
		Offset:     page.Offset(),
	})
	if err != nil {
		internalError(w, r, "Failed to list audit logs", err)
		return
	}
	total, err := s.db.Queries().CountAuditLogs(r.Context(), db.CountAuditLogsParams{
		TenantID:   tenantID,
		EntityType: entityType,
		EntityID:   entityID,
	})
	if err != nil {
		internalError(w, r, "Failed to count audit logs", err)
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(mapList(logs, auditLogView), page, total))
}
