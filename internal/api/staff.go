package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pawdesk/pawdesk/internal/audit"
	"github.com/pawdesk/pawdesk/internal/db"
	"github.com/pawdesk/pawdesk/internal/rbac"
	"github.com/pawdesk/pawdesk/internal/tenancy"
)

var weekdays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

// AvailabilitySlot is one weekday of a staff member's working hours.
type AvailabilitySlot struct {
	Start  string `json:"start,omitempty"`
	End    string `json:"end,omitempty"`
	Closed bool   `json:"closed"`
}

type Availability map[string]AvailabilitySlot

func (a Availability) validate() []ErrorDetail {
	var details []ErrorDetail
	for day, slot := range a {
		field := "availability." + day
		if !weekdays[day] {
			details = append(details, ErrorDetail{Field: field, Message: "must be a lowercase weekday name"})
			continue
		}
		if slot.Closed {
			continue
		}
		if !tenancy.ValidClock(slot.Start) || !tenancy.ValidClock(slot.End) {
			details = append(details, ErrorDetail{Field: field, Message: "start and end must be HH:mm"})
			continue
		}
		if slot.Start >= slot.End {
			details = append(details, ErrorDetail{Field: field, Message: "start must be before end"})
		}
	}
	return details
}

type StaffView struct {
	ID           uuid.UUID    `json:"id"`
	TenantID     uuid.UUID    `json:"tenant_id"`
	UserID       uuid.UUID    `json:"user_id"`
	RoleLabel    string       `json:"role_label"`
	Skills       []string     `json:"skills"`
	MaxCapacity  int32        `json:"max_capacity"`
	Availability Availability `json:"availability"`
	IsActive     bool         `json:"is_active"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func staffView(s db.Staff) StaffView {
	v := StaffView{
		ID:           s.ID,
		TenantID:     s.TenantID,
		UserID:       s.UserID,
		RoleLabel:    s.RoleLabel,
		Skills:       s.Skills,
		MaxCapacity:  s.MaxCapacity,
		Availability: Availability{},
		IsActive:     s.IsActive,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
	if v.Skills == nil {
		v.Skills = []string{}
	}
	if len(s.Availability) > 0 {
		_ = json.Unmarshal(s.Availability, &v.Availability)
	}
	return v
}

type staffRequest struct {
	UserID       *uuid.UUID   `json:"user_id"`
	RoleLabel    *string      `json:"role_label" validate:"omitempty,min=1,max=100"`
	Skills       []string     `json:"skills" validate:"omitempty,max=50,dive,min=1,max=100"`
	MaxCapacity  *int32       `json:"max_capacity" validate:"omitempty,gte=1,max=100"`
	Availability Availability `json:"availability"`
	IsActive     *bool        `json:"is_active"`
}

func (s Server) ListStaff(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePermission(w, r, rbac.StaffView)
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

	staff, err := s.db.Queries().ListStaff(r.Context(), db.ListStaffParams{
		TenantID: tenantID,
		Limit:    page.Limit(),
		Offset:   page.Offset(),
	})
	if err != nil {
		internalError(w, r, "Failed to list staff", err)
		return
	}
	total, err := s.db.Queries().CountStaff(r.Context(), tenantID)
	if err != nil {
		internalError(w, r, "Failed to count staff", err)
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(mapList(staff, staffView), page, total))
}

func (s Server) CreateStaff(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePermission(w, r, rbac.StaffCreate)
	if !ok {
		return
	}
	tenantID, ok := tenantScope(w, r, p)
	if !ok {
		return
	}

	var req staffRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var details []ErrorDetail
	if req.UserID == nil {
		details = append(details, ErrorDetail{Field: "user_id", Message: "is required"})
	}
	if req.RoleLabel == nil {
		details = append(details, ErrorDetail{Field: "role_label", Message: "is required"})
	}
	details = append(details, req.Availability.validate()...)
	if len(details) > 0 {
		ValidationErr("Validation failed", details).Write(w)
		return
	}

	user, err := s.db.Queries().GetUserByID(r.Context(), *req.UserID)
	if err != nil && !isNotFound(err) {
		internalError(w, r, "Failed to load user", err)
		return
	}
	if err != nil || user.TenantID == nil || *user.TenantID != tenantID {
		ValidationErr("Validation failed", []ErrorDetail{{Field: "user_id", Message: "must reference a user of this business"}}).Write(w)
		return
	}

	skills := req.Skills
	if skills == nil {
		skills = []string{}
	}
	capacity := int32(1)
	if req.MaxCapacity != nil {
		capacity = *req.MaxCapacity
	}
	availability := req.Availability
	if availability == nil {
		availability = Availability{}
	}
	raw, err := json.Marshal(availability)
	if err != nil {
		internalError(w, r, "Failed to encode availability", err)
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	member, err := s.db.Queries().CreateStaff(r.Context(), db.CreateStaffParams{
		TenantID:     tenantID,
		UserID:       user.ID,
		RoleLabel:    strings.TrimSpace(*req.RoleLabel),
		Skills:       skills,
		MaxCapacity:  capacity,
		Availability: raw,
		IsActive:     active,
	})
	if err != nil {
		if isUniqueViolation(err) {
			ConflictErr("User is already a staff member").Write(w)
			return
		}
		internalError(w, r, "Failed to create staff member", err)
		return
	}

	view := staffView(member)
	s.record(r, p, audit.ActionCreate, audit.EntityStaff, tenantID, member.ID, nil, view)
	writeJSON(w, http.StatusCreated, view)
}

func (s Server) loadStaff(w http.ResponseWriter, r *http.Request, perm rbac.Permission) (rbac.Principal, db.Staff, bool) {
	p, ok := requirePermission(w, r, perm)
	if !ok {
		return p, db.Staff{}, false
	}
	id, ok := pathID(w, r, "id", "Staff member")
	if !ok {
		return p, db.Staff{}, false
	}
	member, err := s.db.Queries().GetStaffByID(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			NotFound("Staff member").Write(w)
			return p, db.Staff{}, false
		}
		internalError(w, r, "Failed to load staff member", err)
		return p, db.Staff{}, false
	}
	if !authorizeRecord(w, r, p, perm, member.TenantID, "Staff member") {
		return p, db.Staff{}, false
	}
	return p, member, true
}

func (s Server) GetStaff(w http.ResponseWriter, r *http.Request) {
	_, member, ok := s.loadStaff(w, r, rbac.StaffView)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, staffView(member))
}

func (s Server) UpdateStaff(w http.ResponseWriter, r *http.Request) {
	p, member, ok := s.loadStaff(w, r, rbac.StaffUpdate)
	if !ok {
		return
	}

	var req staffRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID != nil && *req.UserID != member.UserID {
		ValidationErr("Validation failed", []ErrorDetail{{Field: "user_id", Message: "cannot be changed"}}).Write(w)
		return
	}
	if details := req.Availability.validate(); len(details) > 0 {
		ValidationErr("Validation failed", details).Write(w)
		return
	}

	before := staffView(member)
	params := db.UpdateStaffParams{
		ID:           member.ID,
		RoleLabel:    member.RoleLabel,
		Skills:       before.Skills,
		MaxCapacity:  member.MaxCapacity,
		Availability: member.Availability,
		IsActive:     member.IsActive,
	}
	if req.RoleLabel != nil {
		params.RoleLabel = strings.TrimSpace(*req.RoleLabel)
	}
	if req.Skills != nil {
		params.Skills = req.Skills
	}
	if req.MaxCapacity != nil {
		params.MaxCapacity = *req.MaxCapacity
	}
	if req.Availability != nil {
		raw, err := json.Marshal(req.Availability)
		if err != nil {
			internalError(w, r, "Failed to encode availability", err)
			return
		}
		params.Availability = raw
	}
	if req.IsActive != nil {
		params.IsActive = *req.IsActive
	}
	if len(params.Availability) == 0 {
		params.Availability = []byte("{}")
	}

	updated, err := s.db.Queries().UpdateStaff(r.Context(), params)
	if err != nil {
		if isNotFound(err) {
			NotFound("Staff member").Write(w)
			return
		}
		internalError(w, r, "Failed to update staff member", err)
		return
	}

	view := staffView(updated)
	s.record(r, p, audit.ActionUpdate, audit.EntityStaff, member.TenantID, member.ID, before, view)
	writeJSON(w, http.StatusOK, view)
}

func (s Server) DeleteStaff(w http.ResponseWriter, r *http.Request) {
	p, member, ok := s.loadStaff(w, r, rbac.StaffDelete)
	if !ok {
		return
	}
	n, err := s.db.Queries().SoftDeleteStaff(r.Context(), member.ID)
	if err != nil {
		internalError(w, r, "Failed to delete staff member", err)
		return
	}
	if n == 0 {
		NotFound("Staff member").Write(w)
		return
	}
	s.record(r, p, audit.ActionDelete, audit.EntityStaff, member.TenantID, member.ID, staffView(member), nil)
	w.WriteHeader(http.StatusNoContent)
}

// activeStaffOf checks that staffID is an active staff member of tenantID.
func (s Server) activeStaffOf(w http.ResponseWriter, r *http.Request, tenantID, staffID uuid.UUID, field string) bool {
	member, err := s.db.Queries().GetStaffByID(r.Context(), staffID)
	if err != nil && !isNotFound(err) {
		internalError(w, r, "Failed to load staff member", err)
		return false
	}
	if err != nil || member.TenantID != tenantID || !member.IsActive {
		ValidationErr("Validation failed", []ErrorDetail{{Field: field, Message: "must reference an active staff member of this business"}}).Write(w)
		return false
	}
	return true
}
