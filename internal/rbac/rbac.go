package rbac

import "strings"

// Role is a principal's position in the platform hierarchy.
type Role string

// Role names, stored as-is in users.role.
const (
	RoleSuperAdmin  Role = "SUPER_ADMIN"  // platform operator, crosses tenants
	RoleTenantAdmin Role = "TENANT_ADMIN" // owner of a business
	RoleStaff       Role = "STAFF"        // employee of a business
	RoleCustomer    Role = "CUSTOMER"     // pet owner
)

// Permission is a "category:action" capability.
type Permission string

const (
	CustomerView   Permission = "customer:view"
	CustomerCreate Permission = "customer:create"
	CustomerUpdate Permission = "customer:update"
	CustomerDelete Permission = "customer:delete"

	PetView   Permission = "pet:view"
	PetCreate Permission = "pet:create"
	PetUpdate Permission = "pet:update"
	PetDelete Permission = "pet:delete"

	AppointmentView   Permission = "appointment:view"
	AppointmentCreate Permission = "appointment:create"
	AppointmentUpdate Permission = "appointment:update"
	AppointmentDelete Permission = "appointment:delete"
	AppointmentCancel Permission = "appointment:cancel"

	ServiceView   Permission = "service:view"
	ServiceCreate Permission = "service:create"
	ServiceUpdate Permission = "service:update"
	ServiceDelete Permission = "service:delete"

	StaffView   Permission = "staff:view"
	StaffCreate Permission = "staff:create"
	StaffUpdate Permission = "staff:update"
	StaffDelete Permission = "staff:delete"

	TaskView     Permission = "task:view"
	TaskCreate   Permission = "task:create"
	TaskUpdate   Permission = "task:update"
	TaskComplete Permission = "task:complete"

	AnalyticsView Permission = "analytics:view"

	SettingsView   Permission = "settings:view"
	SettingsUpdate Permission = "settings:update"

	SubscriptionView   Permission = "subscription:view"
	SubscriptionManage Permission = "subscription:manage"
)

// ParseRole validates a role name coming from outside the process.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	if !r.IsValid() {
		return "", false
	}
	return r, true
}

// IsValid reports whether r is one of the declared roles.
func (r Role) IsValid() bool {
	_, ok := ranks[r]
	return ok
}

func (r Role) String() string { return string(r) }

// ParsePermission validates a permission name coming from outside the process.
func ParsePermission(s string) (Permission, bool) {
	p := Permission(s)
	if !p.IsValid() {
		return "", false
	}
	return p, true
}

func (p Permission) IsValid() bool {
	_, ok := knownPermissions[p]
	return ok
}

// Category returns the part before the colon, e.g. "pet" for pet:view.
func (p Permission) Category() string {
	category, _, _ := strings.Cut(string(p), ":")
	return category
}

func (p Permission) String() string { return string(p) }
