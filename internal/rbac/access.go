package rbac

// allPermissions is declaration order; RolePermissions and AllPermissions
// return slices in this order.
var allPermissions = []Permission{
	CustomerView, CustomerCreate, CustomerUpdate, CustomerDelete,
	PetView, PetCreate, PetUpdate, PetDelete,
	AppointmentView, AppointmentCreate, AppointmentUpdate, AppointmentDelete, AppointmentCancel,
	ServiceView, ServiceCreate, ServiceUpdate, ServiceDelete,
	StaffView, StaffCreate, StaffUpdate, StaffDelete,
	TaskView, TaskCreate, TaskUpdate, TaskComplete,
	AnalyticsView,
	SettingsView, SettingsUpdate,
	SubscriptionView, SubscriptionManage,
}

var allRoles = []Role{RoleSuperAdmin, RoleTenantAdmin, RoleStaff, RoleCustomer}

var ranks = map[Role]int{
	RoleSuperAdmin:  4,
	RoleTenantAdmin: 3,
	RoleStaff:       2,
	RoleCustomer:    1,
}

type grant struct {
	ordered []Permission
	index   map[Permission]struct{}
}

var (
	knownPermissions map[Permission]struct{}
	grants           map[Role]grant
)

func init() {
	knownPermissions = make(map[Permission]struct{}, len(allPermissions))
	for _, p := range allPermissions {
		knownPermissions[p] = struct{}{}
	}

	grants = map[Role]grant{
		RoleSuperAdmin:  newGrant(allPermissions),
		RoleTenantAdmin: newGrant(allPermissions),
		RoleStaff: newGrant([]Permission{
			CustomerView,
			PetView,
			AppointmentView, AppointmentUpdate,
			ServiceView,
			TaskView, TaskUpdate, TaskComplete,
		}),
		RoleCustomer: newGrant([]Permission{
			PetView, PetCreate, PetUpdate,
			AppointmentView, AppointmentCreate, AppointmentCancel,
		}),
	}
}

func newGrant(perms []Permission) grant {
	g := grant{
		ordered: append([]Permission(nil), perms...),
		index:   make(map[Permission]struct{}, len(perms)),
	}
	for _, p := range perms {
		g.index[p] = struct{}{}
	}
	return g
}

// HasPermission reports whether role holds perm. Unknown roles hold nothing.
func HasPermission(role Role, perm Permission) bool {
	g, ok := grants[role]
	if !ok {
		return false
	}
	_, ok = g.index[perm]
	return ok
}

// HasAnyPermission reports whether role holds at least one of perms.
// An empty list is never satisfied.
func HasAnyPermission(role Role, perms ...Permission) bool {
	for _, p := range perms {
		if HasPermission(role, p) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether role holds every one of perms.
// An empty list is vacuously satisfied, even for an unknown role.
func HasAllPermissions(role Role, perms ...Permission) bool {
	for _, p := range perms {
		if !HasPermission(role, p) {
			return false
		}
	}
	return true
}

// Rank returns the hierarchy level of role, 0 for unknown roles.
func Rank(role Role) int {
	return ranks[role]
}

// HasRoleAccess reports whether userRole sits at or above requiredRole.
// Either role being unknown denies.
func HasRoleAccess(userRole, requiredRole Role) bool {
	if !userRole.IsValid() || !requiredRole.IsValid() {
		return false
	}
	return Rank(userRole) >= Rank(requiredRole)
}

// CanAccessResource is exact tenant id equality. It has no role override;
// callers combine it with IsSuperAdmin (see Principal.Can).
func CanAccessResource(userTenantID, resourceTenantID string) bool {
	return userTenantID == resourceTenantID
}

func IsSuperAdmin(role Role) bool {
	return role == RoleSuperAdmin
}

// RolePermissions returns a copy of the permissions granted to role.
func RolePermissions(role Role) []Permission {
	g, ok := grants[role]
	if !ok {
		return nil
	}
	return append([]Permission(nil), g.ordered...)
}

func AllPermissions() []Permission {
	return append([]Permission(nil), allPermissions...)
}

func AllRoles() []Role {
	return append([]Role(nil), allRoles...)
}
