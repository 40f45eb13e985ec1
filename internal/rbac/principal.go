package rbac

import "github.com/google/uuid"

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID   uuid.UUID
	Role     Role
	TenantID string // empty only for super admins
}

// Decision is the outcome of Principal.Can.
type Decision int

const (
	Allow Decision = iota
	DenyPermission
	DenyTenant
)

func (d Decision) Allowed() bool { return d == Allow }

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyPermission:
		return "deny_permission"
	case DenyTenant:
		return "deny_tenant"
	default:
		return "unknown"
	}
}

// Can decides whether p may perform perm on a record owned by
// resourceTenantID. Super admins skip the tenant check. A principal
// without a tenant is denied on every tenant-owned record.
func (p Principal) Can(perm Permission, resourceTenantID string) Decision {
	if !HasPermission(p.Role, perm) {
		return DenyPermission
	}
	if IsSuperAdmin(p.Role) {
		return Allow
	}
	if p.TenantID == "" || !CanAccessResource(p.TenantID, resourceTenantID) {
		return DenyTenant
	}
	return Allow
}

// CanDo checks perm without a specific record in mind.
func (p Principal) CanDo(perm Permission) bool {
	return HasPermission(p.Role, perm)
}

func (p Principal) IsSuperAdmin() bool {
	return IsSuperAdmin(p.Role)
}

// TenantUUID parses TenantID. The boolean is false when the principal
// has no tenant.
func (p Principal) TenantUUID() (uuid.UUID, bool) {
	if p.TenantID == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(p.TenantID)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
