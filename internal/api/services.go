package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pawdesk/pawdesk/internal/audit"
	"github.com/pawdesk/pawdesk/internal/db"
	"github.com/pawdesk/pawdesk/internal/rbac"
	"github.com/shopspring/decimal"
)

const serviceTypes = "GROOMING WALKING DAYCARE BOARDING TRAINING VETERINARY OTHER"

type ServiceView struct {
	ID              uuid.UUID `json:"id"`
	TenantID        uuid.UUID `json:"tenant_id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description"`
	Type            string    `json:"type"`
	DurationMinutes int32     `json:"duration_minutes"`
	Price           string    `json:"price"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func serviceView(s db.Service) ServiceView {
	return ServiceView{
		ID:              s.ID,
		TenantID:        s.TenantID,
		Name:            s.Name,
		Description:     textPtr(s.Description),
		Type:            s.Type,
		DurationMinutes: s.DurationMinutes,
		Price:           formatPrice(s.PriceCents),
		IsActive:        s.IsActive,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

// parsePrice converts a non-negative decimal string with at most two
// fraction digits into cents.
func parsePrice(s string) (int64, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsNegative() {
		return 0, false
	}
	cents := d.Shift(2)
	if !cents.IsInteger() || !cents.LessThan(decimal.New(1, 15)) {
		return 0, false
	}
	return cents.IntPart(), true
}

func formatPrice(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

type serviceRequest struct {
	Name            *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description     *string `json:"description" validate:"omitempty,max=2000"`
	Type            *string `json:"type" validate:"omitempty,oneof=GROOMING WALKING DAYCARE BOARDING TRAINING VETERINARY OTHER"`
	DurationMinutes *int32  `json:"duration_minutes" validate:"omitempty,gt=0,max=10080"`
	Price           *string `json:"price"`
	IsActive        *bool   `json:"is_active"`
}

func (s Server) ListServices(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePermission(w, r, rbac.ServiceView)
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

	q := r.URL.Query()
	var serviceType pgtype.Text
	if t := q.Get("type"); t != "" {
		if !strings.Contains(" "+serviceTypes+" ", " "+t+" ") {
			ValidationErr("Invalid query parameter", []ErrorDetail{{Field: "type", Message: "must be one of: " + serviceTypes}}).Write(w)
			return
		}
		serviceType = pgtype.Text{String: t, Valid: true}
	}
	var active pgtype.Bool
	if raw := q.Get("is_active"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			ValidationErr("Invalid query parameter", []ErrorDetail{{Field: "is_active", Message: "must be a boolean"}}).Write(w)
			return
		}
		active = pgtype.Bool{Bool: b, Valid: true}
	}

	services, err := s.db.Queries().ListServices(r.Context(), db.ListServicesParams{
		TenantID: tenantID,
		Type:     serviceType,
		IsActive: active,
		Limit:    page.Limit(),
		Offset:   page.Offset(),
	})
	if err != nil {
		internalError(w, r, "Failed to list services", err)
		return
	}
	total, err := s.db.Queries().CountServices(r.Context(), db.CountServicesParams{TenantID: tenantID, Type: serviceType, IsActive: active})
	if err != nil {
		internalError(w, r, "Failed to count services", err)
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(mapList(services, serviceView), page, total))
}

func (s Server) CreateService(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePermission(w, r, rbac.ServiceCreate)
	if !ok {
		return
	}
	tenantID, ok := tenantScope(w, r, p)
	if !ok {
		return
	}

	var req serviceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var details []ErrorDetail
	if req.Name == nil {
		details = append(details, ErrorDetail{Field: "name", Message: "is required"})
	}
	if req.Type == nil {
		details = append(details, ErrorDetail{Field: "type", Message: "is required"})
	}
	if req.DurationMinutes == nil {
		details = append(details, ErrorDetail{Field: "duration_minutes", Message: "is required"})
	}
	if req.Price == nil {
		details = append(details, ErrorDetail{Field: "price", Message: "is required"})
	}
	if len(details) > 0 {
		ValidationErr("Validation failed", details).Write(w)
		return
	}
	cents, ok := parsePrice(*req.Price)
	if !ok {
		ValidationErr("Validation failed", []ErrorDetail{{Field: "price", Message: "must be a non-negative amount with at most 2 decimals"}}).Write(w)
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	service, err := s.db.Queries().CreateService(r.Context(), db.CreateServiceParams{
		TenantID:        tenantID,
		Name:            strings.TrimSpace(*req.Name),
		Description:     text(req.Description),
		Type:            *req.Type,
		DurationMinutes: *req.DurationMinutes,
		PriceCents:      cents,
		IsActive:        active,
	})
	if err != nil {
		internalError(w, r, "Failed to create service", err)
		return
	}

	view := serviceView(service)
	s.record(r, p, audit.ActionCreate, audit.EntityService, tenantID, service.ID, nil, view)
	writeJSON(w, http.StatusCreated, view)
}

func (s Server) loadService(w http.ResponseWriter, r *http.Request, perm rbac.Permission) (rbac.Principal, db.Service, bool) {
	p, ok := requirePermission(w, r, perm)
	if !ok {
		return p, db.Service{}, false
	}
	id, ok := pathID(w, r, "id", "Service")
	if !ok {
		return p, db.Service{}, false
	}
	service, err := s.db.Queries().GetServiceByID(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			NotFound("Service").Write(w)
			return p, db.Service{}, false
		}
		internalError(w, r, "Failed to load service", err)
		return p, db.Service{}, false
	}
	if !authorizeRecord(w, r, p, perm, service.TenantID, "Service") {
		return p, db.Service{}, false
	}
	return p, service, true
}

func (s Server) GetService(w http.ResponseWriter, r *http.Request) {
	_, service, ok := s.loadService(w, r, rbac.ServiceView)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, serviceView(service))
}

func (s Server) UpdateService(w http.ResponseWriter, r *http.Request) {
	p, service, ok := s.loadService(w, r, rbac.ServiceUpdate)
	if !ok {
		return
	}

	var req serviceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	params := db.UpdateServiceParams{
		ID:              service.ID,
		Name:            service.Name,
		Description:     service.Description,
		Type:            service.Type,
		DurationMinutes: service.DurationMinutes,
		PriceCents:      service.PriceCents,
		IsActive:        service.IsActive,
	}
	if req.Name != nil {
		params.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		params.Description = text(req.Description)
	}
	if req.Type != nil {
		params.Type = *req.Type
	}
	if req.DurationMinutes != nil {
		params.DurationMinutes = *req.DurationMinutes
	}
	if req.Price != nil {
		cents, ok := parsePrice(*req.Price)
		if !ok {
			ValidationErr("Validation failed", []ErrorDetail{{Field: "price", Message: "must be a non-negative amount with at most 2 decimals"}}).Write(w)
			return
		}
		params.PriceCents = cents
	}
	if req.IsActive != nil {
		params.IsActive = *req.IsActive
	}

	updated, err := s.db.Queries().UpdateService(r.Context(), params)
	if err != nil {
		if isNotFound(err) {
			NotFound("Service").Write(w)
			return
		}
		internalError(w, r, "Failed to update service", err)
		return
	}

	view := serviceView(updated)
	s.record(r, p, audit.ActionUpdate, audit.EntityService, service.TenantID, service.ID, serviceView(service), view)
	writeJSON(w, http.StatusOK, view)
}

func (s Server) DeleteService(w http.ResponseWriter, r *http.Request) {
	p, service, ok := s.loadService(w, r, rbac.ServiceDelete)
	if !ok {
		return
	}
	n, err := s.db.Queries().SoftDeleteService(r.Context(), service.ID)
	if err != nil {
		internalError(w, r, "Failed to delete service", err)
		return
	}
	if n == 0 {
		NotFound("Service").Write(w)
		return
	}
	s.record(r, p, audit.ActionDelete, audit.EntityService, service.TenantID, service.ID, serviceView(service), nil)
	w.WriteHeader(http.StatusNoContent)
}
