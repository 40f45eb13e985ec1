package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pawdesk/pawdesk/internal/db"
	"github.com/pawdesk/pawdesk/internal/rbac"
	"github.com/pawdesk/pawdesk/internal/tenancy"
	"github.com/stretchr/testify/require"
)

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}

// TestTenant represents a test tenant
type TestTenant struct {
	ID   uuid.UUID
	Name string
	Slug string
}

// TestUser represents a test user and the principal it authenticates as
type TestUser struct {
	ID       uuid.UUID
	TenantID *uuid.UUID
	Email    string
	Name     string
	Role     rbac.Role
}

// Principal returns the principal the authenticator would build for u.
func (u *TestUser) Principal() rbac.Principal {
	p := rbac.Principal{UserID: u.ID, Role: u.Role}
	if u.TenantID != nil {
		p.TenantID = u.TenantID.String()
	}
	return p
}

// TenantBuilder provides a fluent interface for creating test tenants
type TenantBuilder struct {
	name   string
	slug   string
	plan   string
	status string
	testDB *TestDatabase
	t      *testing.T
}

// NewTenant creates a new tenant builder
func (tdb *TestDatabase) NewTenant(t *testing.T) *TenantBuilder {
	return &TenantBuilder{
		name:   "Test Grooming",
		slug:   "tenant-" + shortID(),
		plan:   tenancy.PlanFree,
		status: tenancy.StatusActive,
		testDB: tdb,
		t:      t,
	}
}

func (tb *TenantBuilder) WithName(name string) *TenantBuilder {
	tb.name = name
	return tb
}

func (tb *TenantBuilder) WithSlug(slug string) *TenantBuilder {
	tb.slug = slug
	return tb
}

func (tb *TenantBuilder) WithPlan(plan string) *TenantBuilder {
	tb.plan = plan
	return tb
}

// Create creates the tenant in the database and returns the TestTenant
func (tb *TenantBuilder) Create() *TestTenant {
	settings, err := tenancy.DefaultSettings(tb.name, "owner@"+tb.slug+".test", "UTC", "en").Marshal()
	require.NoError(tb.t, err)

	tenant, err := tb.testDB.Queries().CreateTenant(context.Background(), db.CreateTenantParams{
		Name:     tb.name,
		Slug:     tb.slug,
		Plan:     tb.plan,
		Status:   tb.status,
		Settings: settings,
	})
	require.NoError(tb.t, err, "Failed to create tenant")

	return &TestTenant{ID: tenant.ID, Name: tenant.Name, Slug: tenant.Slug}
}

// UserBuilder provides a fluent interface for creating test users
type UserBuilder struct {
	email    string
	name     string
	role     rbac.Role
	tenantID *uuid.UUID
	testDB   *TestDatabase
	t        *testing.T
}

// NewUser creates a new user builder. The default is a customer without a
// tenant, so every test picks a role and tenant explicitly.
func (tdb *TestDatabase) NewUser(t *testing.T) *UserBuilder {
	return &UserBuilder{
		email:  fmt.Sprintf("user-%s@example.com", shortID()),
		name:   "Test User",
		role:   rbac.RoleCustomer,
		testDB: tdb,
		t:      t,
	}
}

// WithEmail sets the user's email
func (ub *UserBuilder) WithEmail(email string) *UserBuilder {
	ub.email = email
	return ub
}

func (ub *UserBuilder) WithName(name string) *UserBuilder {
	ub.name = name
	return ub
}

// In places the user in tenant.
func (ub *UserBuilder) In(tenant *TestTenant) *UserBuilder {
	ub.tenantID = &tenant.ID
	return ub
}

func (ub *UserBuilder) AsSuperAdmin() *UserBuilder {
	ub.role = rbac.RoleSuperAdmin
	ub.tenantID = nil
	return ub
}

func (ub *UserBuilder) AsTenantAdmin() *UserBuilder {
	ub.role = rbac.RoleTenantAdmin
	return ub
}

func (ub *UserBuilder) AsStaff() *UserBuilder {
	ub.role = rbac.RoleStaff
	return ub
}

func (ub *UserBuilder) AsCustomer() *UserBuilder {
	ub.role = rbac.RoleCustomer
	return ub
}

// Create creates the user in the database and returns the TestUser
func (ub *UserBuilder) Create() *TestUser {
	user, err := ub.testDB.Queries().CreateUser(context.Background(), db.CreateUserParams{
		TenantID:      ub.tenantID,
		Email:         ub.email,
		Name:          ub.name,
		Role:          string(ub.role),
		EmailVerified: true,
	})
	require.NoError(ub.t, err, "Failed to create user")

	return &TestUser{
		ID:       user.ID,
		TenantID: user.TenantID,
		Email:    user.Email,
		Name:     user.Name,
		Role:     ub.role,
	}
}

// CustomerBuilder provides a fluent interface for creating customer records
type CustomerBuilder struct {
	params db.CreateCustomerParams
	testDB *TestDatabase
	t      *testing.T
}

// NewCustomer creates a new customer builder in tenant
func (tdb *TestDatabase) NewCustomer(t *testing.T, tenant *TestTenant) *CustomerBuilder {
	return &CustomerBuilder{
		params: db.CreateCustomerParams{
			TenantID:                 tenant.ID,
			FirstName:                "Maria",
			LastName:                 "Silva",
			CommunicationPreferences: []byte(`{"email":true,"sms":false,"whatsapp":false,"preferred":"EMAIL"}`),
		},
		testDB: tdb,
		t:      t,
	}
}

func (cb *CustomerBuilder) WithName(first, last string) *CustomerBuilder {
	cb.params.FirstName = first
	cb.params.LastName = last
	return cb
}

// WithEmail sets the contact email; a CUSTOMER user with the same email owns
// the record.
func (cb *CustomerBuilder) WithEmail(email string) *CustomerBuilder {
	cb.params.Email = pgtype.Text{String: email, Valid: true}
	return cb
}

// For links the record to a customer user through their email.
func (cb *CustomerBuilder) For(user *TestUser) *CustomerBuilder {
	return cb.WithEmail(user.Email)
}

func (cb *CustomerBuilder) Create() db.Customer {
	customer, err := cb.testDB.Queries().CreateCustomer(context.Background(), cb.params)
	require.NoError(cb.t, err, "Failed to create customer")
	return customer
}

// PetBuilder provides a fluent interface for creating pets
type PetBuilder struct {
	params db.CreatePetParams
	testDB *TestDatabase
	t      *testing.T
}

// NewPet creates a new pet builder owned by customer
func (tdb *TestDatabase) NewPet(t *testing.T, customer db.Customer) *PetBuilder {
	return &PetBuilder{
		params: db.CreatePetParams{
			TenantID:   customer.TenantID,
			CustomerID: customer.ID,
			Name:       "Bolinha",
			Species:    "dog",
			Gender:     "UNKNOWN",
			Allergies:  []string{},
		},
		testDB: tdb,
		t:      t,
	}
}

func (pb *PetBuilder) WithName(name string) *PetBuilder {
	pb.params.Name = name
	return pb
}

func (pb *PetBuilder) WithSpecies(species string) *PetBuilder {
	pb.params.Species = species
	return pb
}

func (pb *PetBuilder) Create() db.Pet {
	pet, err := pb.testDB.Queries().CreatePet(context.Background(), pb.params)
	require.NoError(pb.t, err, "Failed to create pet")
	return pet
}

// ServiceBuilder provides a fluent interface for creating services
type ServiceBuilder struct {
	params db.CreateServiceParams
	testDB *TestDatabase
	t      *testing.T
}

// NewService creates a new active grooming service builder in tenant
func (tdb *TestDatabase) NewService(t *testing.T, tenant *TestTenant) *ServiceBuilder {
	return &ServiceBuilder{
		params: db.CreateServiceParams{
			TenantID:        tenant.ID,
			Name:            "Bath and brush",
			Type:            "GROOMING",
			DurationMinutes: 60,
			PriceCents:      4500,
			IsActive:        true,
		},
		testDB: tdb,
		t:      t,
	}
}

func (sb *ServiceBuilder) WithType(serviceType string) *ServiceBuilder {
	sb.params.Type = serviceType
	return sb
}

func (sb *ServiceBuilder) WithDuration(minutes int32) *ServiceBuilder {
	sb.params.DurationMinutes = minutes
	return sb
}

func (sb *ServiceBuilder) Inactive() *ServiceBuilder {
	sb.params.IsActive = false
	return sb
}

func (sb *ServiceBuilder) Create() db.Service {
	service, err := sb.testDB.Queries().CreateService(context.Background(), sb.params)
	require.NoError(sb.t, err, "Failed to create service")
	return service
}

// CreateStaff makes user a staff member of their tenant.
func (tdb *TestDatabase) CreateStaff(t *testing.T, user *TestUser) db.Staff {
	require.NotNil(t, user.TenantID, "staff user needs a tenant")
	staff, err := tdb.Queries().CreateStaff(context.Background(), db.CreateStaffParams{
		TenantID:     *user.TenantID,
		UserID:       user.ID,
		RoleLabel:    "Groomer",
		Skills:       []string{},
		MaxCapacity:  1,
		Availability: []byte(`{}`),
		IsActive:     true,
	})
	require.NoError(t, err, "Failed to create staff")
	return staff
}

// AppointmentBuilder provides a fluent interface for creating appointments
type AppointmentBuilder struct {
	params db.CreateAppointmentParams
	testDB *TestDatabase
	t      *testing.T
}

// NewAppointment creates a SCHEDULED appointment builder for pet and service
func (tdb *TestDatabase) NewAppointment(t *testing.T, pet db.Pet, service db.Service) *AppointmentBuilder {
	return &AppointmentBuilder{
		params: db.CreateAppointmentParams{
			TenantID:        pet.TenantID,
			CustomerID:      pet.CustomerID,
			PetID:           pet.ID,
			ServiceID:       service.ID,
			StartsAt:        TimeNow().Add(24 * time.Hour),
			DurationMinutes: service.DurationMinutes,
			Status:          "SCHEDULED",
		},
		testDB: tdb,
		t:      t,
	}
}

func (ab *AppointmentBuilder) WithStatus(status string) *AppointmentBuilder {
	ab.params.Status = status
	return ab
}

func (ab *AppointmentBuilder) At(startsAt time.Time) *AppointmentBuilder {
	ab.params.StartsAt = startsAt
	return ab
}

func (ab *AppointmentBuilder) WithStaff(staff db.Staff) *AppointmentBuilder {
	ab.params.StaffID = &staff.ID
	return ab
}

func (ab *AppointmentBuilder) Create() db.Appointment {
	appointment, err := ab.testDB.Queries().CreateAppointment(context.Background(), ab.params)
	require.NoError(ab.t, err, "Failed to create appointment")
	return appointment
}

// CreateTask adds a PENDING task to appointment.
func (tdb *TestDatabase) CreateTask(t *testing.T, appointment db.Appointment, title string) db.Task {
	task, err := tdb.Queries().CreateTask(context.Background(), db.CreateTaskParams{
		TenantID:      appointment.TenantID,
		AppointmentID: appointment.ID,
		Title:         title,
		Status:        "PENDING",
	})
	require.NoError(t, err, "Failed to create task")
	return task
}
