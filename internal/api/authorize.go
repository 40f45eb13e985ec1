package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pawdesk/pawdesk/internal/audit"
	"github.com/pawdesk/pawdesk/internal/auth"
	"github.com/pawdesk/pawdesk/internal/db"
	"github.com/pawdesk/pawdesk/internal/middleware"
	"github.com/pawdesk/pawdesk/internal/rbac"
)

// errNoCustomerRecord means a CUSTOMER principal has no customer row in the
// tenant, so owns nothing.
var errNoCustomerRecord = errors.New("no customer record for user")

// principal returns the authenticated caller or writes 401.
func principal(w http.ResponseWriter, r *http.Request) (rbac.Principal, bool) {
	p, ok := auth.GetPrincipal(r.Context())
	if !ok {
		Unauthorized("Authentication required").Write(w)
		return rbac.Principal{}, false
	}
	return p, true
}

// requirePermission checks perm before any record is loaded and writes 401
// or 403 on failure.
func requirePermission(w http.ResponseWriter, r *http.Request, perm rbac.Permission) (rbac.Principal, bool) {
	p, ok := principal(w, r)
	if !ok {
		return rbac.Principal{}, false
	}
	if !p.CanDo(perm) {
		middleware.GetLoggerFromContext(r.Context()).Warn("permission denied",
			"permission", string(perm),
			"role", string(p.Role),
		)
		PermissionDenied("You do not have permission to perform this action").Write(w)
		return rbac.Principal{}, false
	}
	return p, true
}

// tenantScope resolves the tenant a list or create request acts on. Super
// admins may name any tenant with ?tenant_id=; everyone else is pinned to
// their own tenant.
func tenantScope(w http.ResponseWriter, r *http.Request, p rbac.Principal) (uuid.UUID, bool) {
	if p.IsSuperAdmin() {
		if raw := r.URL.Query().Get("tenant_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				ValidationErr("Invalid query parameter", []ErrorDetail{{Field: "tenant_id", Message: "must be a UUID"}}).Write(w)
				return uuid.Nil, false
			}
			return id, true
		}
		if id, ok := p.TenantUUID(); ok {
			return id, true
		}
		ValidationErr("tenant_id is required", []ErrorDetail{{Field: "tenant_id", Message: "is required"}}).Write(w)
		return uuid.Nil, false
	}

	id, ok := p.TenantUUID()
	if !ok {
		PermissionDenied("No tenant assigned").Write(w)
		return uuid.Nil, false
	}
	return id, true
}

// authorizeRecord applies the full access decision to a loaded record.
// Records of other tenants are reported as missing so their existence does
// not leak.
func authorizeRecord(w http.ResponseWriter, r *http.Request, p rbac.Principal, perm rbac.Permission, tenantID uuid.UUID, resource string) bool {
	decision := p.Can(perm, tenantID.String())
	switch decision {
	case rbac.Allow:
		return true
	case rbac.DenyPermission:
		PermissionDenied("You do not have permission to perform this action").Write(w)
	default:
		middleware.GetLoggerFromContext(r.Context()).Warn("cross-tenant access denied",
			"permission", string(perm),
			"resource", resource,
			"resource_tenant_id", tenantID,
		)
		NotFound(resource).Write(w)
	}
	return false
}

// selfCustomer finds the customer record of a CUSTOMER principal by email.
func (s Server) selfCustomer(ctx context.Context, p rbac.Principal, tenantID uuid.UUID) (db.Customer, error) {
	var email string
	if user, ok := auth.GetUser(ctx); ok && user.ID == p.UserID {
		email = user.Email
	} else {
		user, err := s.db.Queries().GetUserByID(ctx, p.UserID)
		if err != nil {
			return db.Customer{}, err
		}
		email = user.Email
	}

	c, err := s.db.Queries().GetCustomerByEmail(ctx, db.GetCustomerByEmailParams{TenantID: tenantID, Email: email})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.Customer{}, errNoCustomerRecord
		}
		return db.Customer{}, err
	}
	return c, nil
}

// ownedByCustomer reports whether a CUSTOMER principal owns the record
// belonging to customerID. Other roles always pass.
func (s Server) ownedByCustomer(ctx context.Context, p rbac.Principal, tenantID, customerID uuid.UUID) (bool, error) {
	if p.Role != rbac.RoleCustomer {
		return true, nil
	}
	self, err := s.selfCustomer(ctx, p, tenantID)
	if err != nil {
		if errors.Is(err, errNoCustomerRecord) {
			return false, nil
		}
		return false, err
	}
	return self.ID == customerID, nil
}

func (s Server) record(r *http.Request, p rbac.Principal, action, entityType string, tenantID, entityID uuid.UUID, before, after any) {
	if s.audit == nil {
		return
	}
	s.audit.Record(r.Context(), audit.Entry{
		TenantID:   tenantID,
		ActorID:    p.UserID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Before:     before,
		After:      after,
		IPAddress:  middleware.GetClientIP(r.Context()),
		UserAgent:  r.UserAgent(),
	})
}

func isNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// internalError logs err and writes a 500.
func internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	middleware.GetLoggerFromContext(r.Context()).Error(msg, "error", err)
	InternalError("An unexpected error occurred").Write(w)
}
