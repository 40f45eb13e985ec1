package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasPermission_Table(t *testing.T) {
	staff := map[Permission]bool{
		CustomerView:      true,
		PetView:           true,
		AppointmentView:   true,
		AppointmentUpdate: true,
		ServiceView:       true,
		TaskView:          true,
		TaskUpdate:        true,
		TaskComplete:      true,
	}
	customer := map[Permission]bool{
		PetView:           true,
		PetCreate:         true,
		PetUpdate:         true,
		AppointmentView:   true,
		AppointmentCreate: true,
		AppointmentCancel: true,
	}

	for _, perm := range AllPermissions() {
		t.Run(string(perm), func(t *testing.T) {
			assert.True(t, HasPermission(RoleSuperAdmin, perm))
			assert.True(t, HasPermission(RoleTenantAdmin, perm))
			assert.Equal(t, staff[perm], HasPermission(RoleStaff, perm))
			assert.Equal(t, customer[perm], HasPermission(RoleCustomer, perm))
		})
	}
}

func TestHasPermission_UnknownInputs(t *testing.T) {
	assert.False(t, HasPermission(Role("OWNER"), CustomerView))
	assert.False(t, HasPermission(Role(""), CustomerView))
	assert.False(t, HasPermission(Role("super_admin"), CustomerView))
	assert.False(t, HasPermission(RoleTenantAdmin, Permission("customer:export")))
}

func TestEveryRoleHasEntry(t *testing.T) {
	for _, role := range AllRoles() {
		_, ok := grants[role]
		assert.True(t, ok, role)
	}
}

func TestSuperAdminHoldsEverything(t *testing.T) {
	assert.ElementsMatch(t, AllPermissions(), RolePermissions(RoleSuperAdmin))
	assert.True(t, HasAllPermissions(RoleSuperAdmin, AllPermissions()...))
}

func TestHasAnyPermission(t *testing.T) {
	assert.True(t, HasAnyPermission(RoleStaff, CustomerDelete, CustomerView))
	assert.False(t, HasAnyPermission(RoleStaff, CustomerDelete, SettingsView))
	assert.False(t, HasAnyPermission(Role("nobody"), CustomerView))

	for _, role := range append(AllRoles(), Role("nobody")) {
		assert.False(t, HasAnyPermission(role), "empty list must not be satisfied for %s", role)
	}
}

func TestHasAllPermissions(t *testing.T) {
	assert.True(t, HasAllPermissions(RoleCustomer, PetView, PetCreate))
	assert.False(t, HasAllPermissions(RoleCustomer, PetView, PetDelete))

	// vacuous truth
	for _, role := range append(AllRoles(), Role("nobody")) {
		assert.True(t, HasAllPermissions(role), "empty list is vacuously satisfied for %s", role)
	}
}

func TestHasRoleAccess_TotalOrder(t *testing.T) {
	roles := AllRoles()
	for _, a := range roles {
		assert.True(t, HasRoleAccess(a, a), "reflexive for %s", a)
		for _, b := range roles {
			assert.Equal(t, Rank(a) >= Rank(b), HasRoleAccess(a, b), "%s vs %s", a, b)
		}
	}

	assert.True(t, HasRoleAccess(RoleSuperAdmin, RoleTenantAdmin))
	assert.True(t, HasRoleAccess(RoleTenantAdmin, RoleStaff))
	assert.True(t, HasRoleAccess(RoleStaff, RoleCustomer))
	assert.False(t, HasRoleAccess(RoleCustomer, RoleStaff))
	assert.False(t, HasRoleAccess(RoleTenantAdmin, RoleSuperAdmin))
}

func TestHasRoleAccess_UnknownRoles(t *testing.T) {
	assert.Equal(t, 0, Rank(Role("OWNER")))
	assert.False(t, HasRoleAccess(Role("OWNER"), RoleCustomer))
	assert.False(t, HasRoleAccess(Role("OWNER"), Role("OWNER")))
	for _, role := range AllRoles() {
		for _, required := range []Role{"OWNER", "", "super_admin", "SUPERADMIN", " SUPER_ADMIN"} {
			assert.False(t, HasRoleAccess(role, required), "%s vs %q", role, required)
		}
	}
}

func TestCanAccessResource(t *testing.T) {
	assert.True(t, CanAccessResource("tenant-a", "tenant-a"))
	assert.True(t, CanAccessResource("", ""))
	assert.False(t, CanAccessResource("tenant-a", "tenant-b"))
	assert.False(t, CanAccessResource("tenant-a", "Tenant-A"))
	assert.False(t, CanAccessResource("tenant-a", "tenant-a "))
	assert.False(t, CanAccessResource("tenant-a", ""))
}

func TestRolePermissions_ReturnsCopy(t *testing.T) {
	perms := RolePermissions(RoleStaff)
	require.NotEmpty(t, perms)
	perms[0] = SubscriptionManage

	assert.False(t, HasPermission(RoleStaff, SubscriptionManage))
	assert.Equal(t, CustomerView, RolePermissions(RoleStaff)[0])
	assert.Nil(t, RolePermissions(Role("nobody")))
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole("STAFF")
	assert.True(t, ok)
	assert.Equal(t, RoleStaff, role)

	_, ok = ParseRole("staff")
	assert.False(t, ok)
	_, ok = ParseRole("")
	assert.False(t, ok)
}

func TestPermissionCategory(t *testing.T) {
	assert.Equal(t, "appointment", AppointmentCancel.Category())
	assert.Equal(t, "analytics", AnalyticsView.Category())

	p, ok := ParsePermission("task:complete")
	assert.True(t, ok)
	assert.Equal(t, TaskComplete, p)
	_, ok = ParsePermission("task:delete")
	assert.False(t, ok)
}
