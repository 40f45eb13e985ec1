package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/oapi-codegen/runtime"
	"github.com/pawdesk/pawdesk/internal/audit"
	"github.com/pawdesk/pawdesk/internal/db"
	"github.com/pawdesk/pawdesk/internal/rbac"
)

const (
	StatusScheduled  = "SCHEDULED"
	StatusConfirmed  = "CONFIRMED"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
	StatusCancelled  = "CANCELLED"
	StatusNoShow     = "NO_SHOW"
)

// appointmentTransitions lists the statuses reachable from each status.
// Statuses without an entry are terminal.
var appointmentTransitions = map[string][]string{
	StatusScheduled:  {StatusConfirmed, StatusCancelled, StatusNoShow},
	StatusConfirmed:  {StatusInProgress, StatusCancelled, StatusNoShow},
	StatusInProgress: {StatusCompleted},
}

var appointmentStatuses = map[string]bool{
	StatusScheduled: true, StatusConfirmed: true, StatusInProgress: true,
	StatusCompleted: true, StatusCancelled: true, StatusNoShow: true,
}

func isTerminalStatus(status string) bool {
	_, ok := appointmentTransitions[status]
	return !ok
}

func canTransition(from, to string) bool {
	for _, next := range appointmentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type AppointmentView struct {
	ID              uuid.UUID  `json:"id"`
	TenantID        uuid.UUID  `json:"tenant_id"`
	CustomerID      uuid.UUID  `json:"customer_id"`
	PetID           uuid.UUID  `json:"pet_id"`
	ServiceID       uuid.UUID  `json:"service_id"`
	StaffID         *uuid.UUID `json:"staff_id"`
	StartsAt        time.Time  `json:"starts_at"`
	EndsAt          time.Time  `json:"ends_at"`
	DurationMinutes int32      `json:"duration_minutes"`
	Status          string     `json:"status"`
	Notes           *string    `json:"notes"`
	CancelReason    *string    `json:"cancel_reason"`
	CancelledAt     *time.Time `json:"cancelled_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func appointmentView(a db.Appointment) AppointmentView {
	v := AppointmentView{
		ID:              a.ID,
		TenantID:        a.TenantID,
		CustomerID:      a.CustomerID,
		PetID:           a.PetID,
		ServiceID:       a.ServiceID,
		StaffID:         a.StaffID,
		StartsAt:        a.StartsAt,
		EndsAt:          a.StartsAt.Add(time.Duration(a.DurationMinutes) * time.Minute),
		DurationMinutes: a.DurationMinutes,
		Status:          a.Status,
		Notes:           textPtr(a.Notes),
		CancelReason:    textPtr(a.CancelReason),
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
	if a.CancelledAt.Valid {
		t := a.CancelledAt.Time
		v.CancelledAt = &t
	}
	return v
}

type createAppointmentRequest struct {
	CustomerID      *uuid.UUID `json:"customer_id"`
	PetID           uuid.UUID  `json:"pet_id" validate:"required"`
	ServiceID       uuid.UUID  `json:"service_id" validate:"required"`
	StaffID         *uuid.UUID `json:"staff_id"`
	StartsAt        time.Time  `json:"starts_at" validate:"required"`
	DurationMinutes *int32     `json:"duration_minutes" validate:"omitempty,gt=0,max=10080"`
	Notes           *string    `json:"notes" validate:"omitempty,max=5000"`
}

type updateAppointmentRequest struct {
	StaffID         *uuid.UUID `json:"staff_id"`
	StartsAt        *time.Time `json:"starts_at"`
	DurationMinutes *int32     `json:"duration_minutes" validate:"omitempty,gt=0,max=10080"`
	Status          *string    `json:"status" validate:"omitempty,oneof=SCHEDULED CONFIRMED IN_PROGRESS COMPLETED NO_SHOW"`
	Notes           *string    `json:"notes" validate:"omitempty,max=5000"`
}

type cancelAppointmentRequest struct {
	Reason *string `json:"reason" validate:"omitempty,max=1000"`
}

// timeQuery binds an optional RFC3339 query parameter.
func timeQuery(w http.ResponseWriter, r *http.Request, name string) (pgtype.Timestamptz, bool) {
	var t *time.Time
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), &t); err != nil {
		ValidationErr("Invalid query parameter", []ErrorDetail{{Field: name, Message: "must be an RFC 3339 timestamp"}}).Write(w)
		return pgtype.Timestamptz{}, false
	}
	if t == nil {
		return pgtype.Timestamptz{}, true
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}, true
}

// uuidQuery binds an optional UUID query parameter.
func uuidQuery(w http.ResponseWriter, r *http.Request, name string) (*uuid.UUID, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		ValidationErr("Invalid query parameter", []ErrorDetail{{Field: name, Message: "must be a UUID"}}).Write(w)
		return nil, false
	}
	return &id, true
}

func (s Server) ListAppointments(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePermission(w, r, rbac.AppointmentView)
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

	var status pgtype.Text
	if st := r.URL.Query().Get("status"); st != "" {
		if !appointmentStatuses[st] {
			ValidationErr("Invalid query parameter", []ErrorDetail{{Field: "status", Message: "unknown status"}}).Write(w)
			return
		}
		status = pgtype.Text{String: st, Valid: true}
	}
	from, ok := timeQuery(w, r, "from")
	if !ok {
		return
	}
	to, ok := timeQuery(w, r, "to")
	if !ok {
		return
	}
	customerID, ok := uuidQuery(w, r, "customer_id")
	if !ok {
		return
	}
	if p.Role == rbac.RoleCustomer {
		self, err := s.selfCustomer(r.Context(), p, tenantID)
		if err != nil {
			if errors.Is(err, errNoCustomerRecord) {
				writeJSON(w, http.StatusOK, newListResponse([]AppointmentView{}, page, 0))
				return
			}
			internalError(w, r, "Failed to resolve customer", err)
			return
		}
		customerID = &self.ID
	}

	appointments, err := s.db.Queries().ListAppointments(r.Context(), db.ListAppointmentsParams{
		TenantID:   tenantID,
		Status:     status,
		From:       from,
		To:         to,
		CustomerID: customerID,
		Limit:      page.Limit(),
		Offset:     page.Offset(),
	})
	if err != nil {
		internalError(w, r, "Failed to list appointments", err)
		return
	}
	total, err := s.db.Queries().CountAppointments(r.Context(), db.CountAppointmentsParams{
		TenantID:   tenantID,
		Status:     status,
		From:       from,
		To:         to,
		CustomerID: customerID,
	})
	if err != nil {
		internalError(w, r, "Failed to count appointments", err)
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(mapList(appointments, appointmentView), page, total))
}

func (s Server) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePermission(w, r, rbac.AppointmentCreate)
	if !ok {
		return
	}
	tenantID, ok := tenantScope(w, r, p)
	if !ok {
		return
	}

	var req createAppointmentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if p.Role == rbac.RoleCustomer {
		self, err := s.selfCustomer(r.Context(), p, tenantID)
		if err != nil {
			if errors.Is(err, errNoCustomerRecord) {
				PermissionDenied("No customer profile is linked to this account").Write(w)
				return
			}
			internalError(w, r, "Failed to resolve customer", err)
			return
		}
		if req.CustomerID != nil && *req.CustomerID != self.ID {
			PermissionDenied("You can only book appointments for yourself").Write(w)
			return
		}
		req.CustomerID = &self.ID
	}
	if req.CustomerID == nil {
		ValidationErr("Validation failed", []ErrorDetail{{Field: "customer_id", Message: "is required"}}).Write(w)
		return
	}

	ctx := r.Context()
	customer, err := s.db.Queries().GetCustomerByID(ctx, *req.CustomerID)
	if err != nil && !isNotFound(err) {
		internalError(w, r, "Failed to load customer", err)
		return
	}
	if err != nil || customer.TenantID != tenantID {
		ValidationErr("Validation failed", []ErrorDetail{{Field: "customer_id", Message: "must reference a customer of this business"}}).Write(w)
		return
	}

	pet, err := s.db.Queries().GetPetByID(ctx, req.PetID)
	if err != nil && !isNotFound(err) {
		internalError(w, r, "Failed to load pet", err)
		return
	}
	if err != nil || pet.TenantID != tenantID || pet.CustomerID != customer.ID {
		ValidationErr("Validation failed", []ErrorDetail{{Field: "pet_id", Message: "must reference a pet of the customer"}}).Write(w)
		return
	}

	service, err := s.db.Queries().GetServiceByID(ctx, req.ServiceID)
	if err != nil && !isNotFound(err) {
		internalError(w, r, "Failed to load service", err)
		return
	}
	if err != nil || service.TenantID != tenantID || !service.IsActive {
		ValidationErr("Validation failed", []ErrorDetail{{Field: "service_id", Message: "must reference an active service of this business"}}).Write(w)
		return
	}

	if req.StaffID != nil && !s.activeStaffOf(w, r, tenantID, *req.StaffID, "staff_id") {
		return
	}

	duration := service.DurationMinutes
	if req.DurationMinutes != nil {
		duration = *req.DurationMinutes
	}

	appointment, err := s.db.Queries().CreateAppointment(ctx, db.CreateAppointmentParams{
		TenantID:        tenantID,
		CustomerID:      customer.ID,
		PetID:           pet.ID,
		ServiceID:       service.ID,
		StaffID:         req.StaffID,
		StartsAt:        req.StartsAt.UTC(),
		DurationMinutes: duration,
		Status:          StatusScheduled,
		Notes:           text(req.Notes),
	})
	if err != nil {
		internalError(w, r, "Failed to create appointment", err)
		return
	}

	view := appointmentView(appointment)
	s.record(r, p, audit.ActionCreate, audit.EntityAppointment, tenantID, appointment.ID, nil, view)
	writeJSON(w, http.StatusCreated, view)
}

func (s Server) loadAppointment(w http.ResponseWriter, r *http.Request, perm rbac.Permission) (rbac.Principal, db.Appointment, bool) {
	p, ok := requirePermission(w, r, perm)
	if !ok {
		return p, db.Appointment{}, false
	}
	id, ok := pathID(w, r, "id", "Appointment")
	if !ok {
		return p, db.Appointment{}, false
	}
	appointment, err := s.db.Queries().GetAppointmentByID(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			NotFound("Appointment").Write(w)
			return p, db.Appointment{}, false
		}
		internalError(w, r, "Failed to load appointment", err)
		return p, db.Appointment{}, false
	}
	if !authorizeRecord(w, r, p, perm, appointment.TenantID, "Appointment") {
		return p, db.Appointment{}, false
	}
	owned, err := s.ownedByCustomer(r.Context(), p, appointment.TenantID, appointment.CustomerID)
	if err != nil {
		internalError(w, r, "Failed to resolve customer", err)
		return p, db.Appointment{}, false
	}
	if !owned {
		NotFound("Appointment").Write(w)
		return p, db.Appointment{}, false
	}
	return p, appointment, true
}

func (s Server) GetAppointment(w http.ResponseWriter, r *http.Request) {
	_, appointment, ok := s.loadAppointment(w, r, rbac.AppointmentView)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, appointmentView(appointment))
}

func (s Server) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	p, appointment, ok := s.loadAppointment(w, r, rbac.AppointmentUpdate)
	if !ok {
		return
	}

	var req updateAppointmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if isTerminalStatus(appointment.Status) {
		InvalidStateErr("Appointment is " + appointment.Status + " and can no longer be changed").Write(w)
		return
	}

	params := db.UpdateAppointmentParams{
		ID:              appointment.ID,
		StaffID:         appointment.StaffID,
		StartsAt:        appointment.StartsAt,
		DurationMinutes: appointment.DurationMinutes,
		Status:          appointment.Status,
		Notes:           appointment.Notes,
	}
	if req.Status != nil && *req.Status != appointment.Status {
		if !canTransition(appointment.Status, *req.Status) {
			InvalidStateErr("Cannot move appointment from " + appointment.Status + " to " + *req.Status).Write(w)
			return
		}
		params.Status = *req.Status
	}
	if req.StaffID != nil {
		if !s.activeStaffOf(w, r, appointment.TenantID, *req.StaffID, "staff_id") {
			return
		}
		params.StaffID = req.StaffID
	}
	if req.StartsAt != nil {
		params.StartsAt = req.StartsAt.UTC()
	}
	if req.DurationMinutes != nil {
		params.DurationMinutes = *req.DurationMinutes
	}
	if req.Notes != nil {
		params.Notes = text(req.Notes)
	}

	updated, err := s.db.Queries().UpdateAppointment(r.Context(), params)
	if err != nil {
		if isNotFound(err) {
			NotFound("Appointment").Write(w)
			return
		}
		internalError(w, r, "Failed to update appointment", err)
		return
	}

	view := appointmentView(updated)
	s.record(r, p, audit.ActionUpdate, audit.EntityAppointment, appointment.TenantID, appointment.ID, appointmentView(appointment), view)
	writeJSON(w, http.StatusOK, view)
}

func (s Server) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	p, appointment, ok := s.loadAppointment(w, r, rbac.AppointmentCancel)
	if !ok {
		return
	}

	var req cancelAppointmentRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	if !canTransition(appointment.Status, StatusCancelled) {
		InvalidStateErr("Appointment is " + appointment.Status + " and cannot be cancelled").Write(w)
		return
	}

	cancelled, err := s.db.Queries().CancelAppointment(r.Context(), db.CancelAppointmentParams{
		ID:     appointment.ID,
		Reason: text(req.Reason),
	})
	if err != nil {
		// status changed since it was loaded
		if isNotFound(err) {
			InvalidStateErr("Appointment can no longer be cancelled").Write(w)
			return
		}
		internalError(w, r, "Failed to cancel appointment", err)
		return
	}

	view := appointmentView(cancelled)
	s.record(r, p, audit.ActionUpdate, audit.EntityAppointment, appointment.TenantID, appointment.ID, appointmentView(appointment), view)
	writeJSON(w, http.StatusOK, view)
}

func (s Server) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	p, appointment, ok := s.loadAppointment(w, r, rbac.AppointmentDelete)
	if !ok {
		return
	}
	n, err := s.db.Queries().SoftDeleteAppointment(r.Context(), appointment.ID)
	if err != nil {
		internalError(w, r, "Failed to delete appointment", err)
		return
	}
	if n == 0 {
		NotFound("Appointment").Write(w)
		return
	}
	s.record(r, p, audit.ActionDelete, audit.EntityAppointment, appointment.TenantID, appointment.ID, appointmentView(appointment), nil)
	w.WriteHeader(http.StatusNoContent)
}
