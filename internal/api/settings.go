package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pawdesk/pawdesk/internal/audit"
	"github.com/pawdesk/pawdesk/internal/db"
	"github.com/pawdesk/pawdesk/internal/middleware"
	"github.com/pawdesk/pawdesk/internal/rbac"
	"github.com/pawdesk/pawdesk/internal/tenancy"
)

type TenantView struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Plan      string    `json:"plan"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func tenantView(t db.Tenant) TenantView {
	return TenantView{
		ID:        t.ID,
		Name:      t.Name,
		Slug:      t.Slug,
		Plan:      t.Plan,
		Status:    t.Status,
		CreatedAt: t.CreatedAt,
	}
}

type SettingsResponse struct {
	TenantID uuid.UUID        `json:"tenant_id"`
	Settings tenancy.Settings `json:"settings"`
}

// loadTenant resolves the request's tenant and applies perm to it.
func (s Server) loadTenant(w http.ResponseWriter, r *http.Request, perm rbac.Permission) (rbac.Principal, db.Tenant, bool) {
	p, ok := requirePermission(w, r, perm)
	if !ok {
		return p, db.Tenant{}, false
	}
	tenantID, ok := tenantScope(w, r, p)
	if !ok {
		return p, db.Tenant{}, false
	}

	tenant, err := s.db.Queries().GetTenantByID(r.Context(), tenantID)
	if err != nil {
		if isNotFound(err) {
			NotFound("Tenant").Write(w)
			return p, db.Tenant{}, false
		}
		internalError(w, r, "Failed to load tenant", err)
		return p, db.Tenant{}, false
	}
	if !authorizeRecord(w, r, p, perm, tenant.ID, "Tenant") {
		return p, db.Tenant{}, false
	}
	return p, tenant, true
}

func (s Server) GetSettings(w http.ResponseWriter, r *http.Request) {
	_, tenant, ok := s.loadTenant(w, r, rbac.SettingsView)
	if !ok {
		return
	}

	settings, err := tenancy.ParseSettings(tenant.Settings)
	if err != nil {
		internalError(w, r, "Failed to decode tenant settings", err)
		return
	}

	writeJSON(w, http.StatusOK, SettingsResponse{TenantID: tenant.ID, Settings: settings})
}

type updateSettingsRequest struct {
	BusinessName    *string                          `json:"business_name" validate:"omitempty,min=1,max=255"`
	BusinessEmail   *string                          `json:"business_email" validate:"omitempty,email"`
	BusinessPhone   *string                          `json:"business_phone" validate:"omitempty,max=50"`
	BusinessAddress *string                          `json:"business_address" validate:"omitempty,max=500"`
	Timezone        *string                          `json:"timezone"`
	Locale          *string                          `json:"locale"`
	Branding        *tenancy.Branding                `json:"branding"`
	Notifications   *tenancy.NotificationPreferences `json:"notifications"`
	BusinessHours   map[string]tenancy.BusinessDay   `json:"business_hours"`
}

func (s Server) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	p, tenant, ok := s.loadTenant(w, r, rbac.SettingsUpdate)
	if !ok {
		return
	}

	var req updateSettingsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	before, err := tenancy.ParseSettings(tenant.Settings)
	if err != nil {
		internalError(w, r, "Failed to decode tenant settings", err)
		return
	}
	settings := before

	var details []ErrorDetail
	if req.BusinessName != nil {
		settings.BusinessName = strings.TrimSpace(*req.BusinessName)
	}
	if req.BusinessEmail != nil {
		settings.BusinessEmail = strings.ToLower(strings.TrimSpace(*req.BusinessEmail))
	}
	if req.BusinessPhone != nil {
		settings.BusinessPhone = req.BusinessPhone
	}
	if req.BusinessAddress != nil {
		settings.BusinessAddress = req.BusinessAddress
	}
	if req.Timezone != nil {
		if err := tenancy.ValidateTimezone(*req.Timezone); err != nil {
			details = append(details, ErrorDetail{Field: "timezone", Message: err.Error()})
		}
		settings.Timezone = *req.Timezone
	}
	if req.Locale != nil {
		if s.locales != nil && !s.locales.Supported(*req.Locale) {
			details = append(details, ErrorDetail{
				Field:   "locale",
				Message: "must be one of: " + strings.Join(s.locales.All(), ", "),
			})
		}
		settings.Locale = *req.Locale
	}
	if req.Branding != nil {
		settings.Branding = *req.Branding
	}
	if req.Notifications != nil {
		settings.Notifications = *req.Notifications
	}
	if req.BusinessHours != nil {
		if err := tenancy.ValidateBusinessHours(req.BusinessHours); err != nil {
			details = append(details, ErrorDetail{Field: "business_hours", Message: err.Error()})
		}
		settings.BusinessHours = req.BusinessHours
	}
	if len(details) > 0 {
		ValidationErr("Validation failed", details).Write(w)
		return
	}
	if !validateStruct(w, &settings) {
		return
	}

	raw, err := settings.Marshal()
	if err != nil {
		internalError(w, r, "Failed to encode tenant settings", err)
		return
	}

	updated, err := s.db.Queries().UpdateTenantSettings(r.Context(), db.UpdateTenantSettingsParams{
		ID:       tenant.ID,
		Name:     settings.BusinessName,
		Settings: raw,
	})
	if err != nil {
		internalError(w, r, "Failed to update tenant settings", err)
		return
	}

	s.record(r, p, audit.ActionUpdate, audit.EntityTenant, tenant.ID, tenant.ID, before, settings)
	middleware.GetLoggerFromContext(r.Context()).Info("Tenant settings updated", "tenant_id", tenant.ID)

	writeJSON(w, http.StatusOK, SettingsResponse{TenantID: updated.ID, Settings: settings})
}

type SubscriptionResponse struct {
	TenantID uuid.UUID `json:"tenant_id"`
	Plan     string    `json:"plan"`
	Status   string    `json:"status"`
}

func (s Server) GetSubscription(w http.ResponseWriter, r *http.Request) {
	_, tenant, ok := s.loadTenant(w, r, rbac.SubscriptionView)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, SubscriptionResponse{
		TenantID: tenant.ID,
		Plan:     tenant.Plan,
		Status:   tenant.Status,
	})
}

// ListTenants is platform-wide and only reachable by super admins.
func (s Server) ListTenants(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if !rbac.HasRoleAccess(p.Role, rbac.RoleSuperAdmin) {
		PermissionDenied("Super admin access required").Write(w)
		return
	}

	page, ok := parsePage(w, r)
	if !ok {
		return
	}

	tenants, err := s.db.Queries().ListTenants(r.Context(), db.ListTenantsParams{Limit: page.Limit(), Offset: page.Offset()})
	if err != nil {
		internalError(w, r, "Failed to list tenants", err)
		return
	}
	total, err := s.db.Queries().CountTenants(r.Context())
	if err != nil {
		internalError(w, r, "Failed to count tenants", err)
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(mapList(tenants, tenantView), page, total))
}
