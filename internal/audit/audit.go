package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pawdesk/pawdesk/internal/db"
	"github.com/pawdesk/pawdesk/internal/logging"
)

const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

const (
	EntityTenant       = "tenant"
	EntityCustomer     = "customer"
	EntityPet          = "pet"
	EntityService      = "service"
	EntityStaff        = "staff"
	EntityAppointment  = "appointment"
	EntityTask         = "task"
	EntityTaskTemplate = "task_template"
)

// Change is the before/after value of one field.
type Change struct {
	Old any `json:"old"`
	New any `json:"new"`
}

type Entry struct {
	TenantID   uuid.UUID
	ActorID    uuid.UUID
	Action     string
	EntityType string
	EntityID   uuid.UUID
	Before     any
	After      any
	IPAddress  string
	UserAgent  string
}

type writer interface {
	CreateAuditLog(ctx context.Context, arg db.CreateAuditLogParams) (db.AuditLog, error)
}

type Recorder struct {
	store writer
}

func NewRecorder(store writer) *Recorder {
	return &Recorder{store: store}
}

// Record writes an audit row. Failures are logged and never returned: an
// audit outage must not fail the mutation it describes.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	changes, err := Diff(e.Before, e.After)
	if err != nil {
		logging.Error("failed to diff audit entry", "entity_type", e.EntityType, "entity_id", e.EntityID, "error", err)
		return
	}

	var raw []byte
	if len(changes) > 0 {
		if raw, err = json.Marshal(changes); err != nil {
			logging.Error("failed to marshal audit changes", "entity_type", e.EntityType, "error", err)
			return
		}
	}

	_, err = r.store.CreateAuditLog(ctx, db.CreateAuditLogParams{
		TenantID:   optionalUUID(e.TenantID),
		ActorID:    optionalUUID(e.ActorID),
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   optionalUUID(e.EntityID),
		Changes:    raw,
		IpAddress:  optionalText(e.IPAddress),
		UserAgent:  optionalText(e.UserAgent),
	})
	if err != nil {
		logging.Error("failed to write audit log",
			"action", e.Action,
			"entity_type", e.EntityType,
			"entity_id", e.EntityID,
			"error", err,
		)
	}
}

// Diff compares the JSON forms of before and after and returns the fields
// whose values differ. Either side may be nil (create / delete).
func Diff(before, after any) (map[string]Change, error) {
	b, err := toFields(before)
	if err != nil {
		return nil, err
	}
	a, err := toFields(after)
	if err != nil {
		return nil, err
	}

	changes := make(map[string]Change)
	for k, nv := range a {
		ov, had := b[k]
		if !had || !reflect.DeepEqual(ov, nv) {
			changes[k] = Change{Old: ov, New: nv}
		}
	}
	for k, ov := range b {
		if _, still := a[k]; !still {
			changes[k] = Change{Old: ov, New: nil}
		}
	}
	for _, skip := range ignoredFields {
		delete(changes, skip)
	}
	return changes, nil
}

var ignoredFields = []string{"updated_at", "created_at"}

func toFields(v any) (map[string]any, error) {
	if v == nil {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal audit value: %w", err)
	}
	fields := make(map[string]any)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("audit value is not an object: %w", err)
	}
	return fields, nil
}

func optionalUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func optionalText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
