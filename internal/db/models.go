package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Tenant struct {
	ID        uuid.UUID          `json:"id"`
	Name      string             `json:"name"`
	Slug      string             `json:"slug"`
	Plan      string             `json:"plan"`
	Status    string             `json:"status"`
	Settings  []byte             `json:"settings"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
	DeletedAt pgtype.Timestamptz `json:"deleted_at"`
}

type User struct {
	ID            uuid.UUID          `json:"id"`
	TenantID      *uuid.UUID         `json:"tenant_id"`
	Email         string             `json:"email"`
	Name          string             `json:"name"`
	Role          string             `json:"role"`
	EmailVerified bool               `json:"email_verified"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	DeletedAt     pgtype.Timestamptz `json:"deleted_at"`
}

type Customer struct {
	ID                       uuid.UUID          `json:"id"`
	TenantID                 uuid.UUID          `json:"tenant_id"`
	FirstName                string             `json:"first_name"`
	LastName                 string             `json:"last_name"`
	Email                    pgtype.Text        `json:"email"`
	Phone                    pgtype.Text        `json:"phone"`
	Address                  []byte             `json:"address"`
	CommunicationPreferences []byte             `json:"communication_preferences"`
	Notes                    pgtype.Text        `json:"notes"`
	CreatedAt                time.Time          `json:"created_at"`
	UpdatedAt                time.Time          `json:"updated_at"`
	DeletedAt                pgtype.Timestamptz `json:"deleted_at"`
}

type Pet struct {
	ID                uuid.UUID          `json:"id"`
	TenantID          uuid.UUID          `json:"tenant_id"`
	CustomerID        uuid.UUID          `json:"customer_id"`
	Name              string             `json:"name"`
	Species           string             `json:"species"`
	Breed             pgtype.Text        `json:"breed"`
	Gender            string             `json:"gender"`
	DateOfBirth       pgtype.Date        `json:"date_of_birth"`
	Weight            pgtype.Float8      `json:"weight"`
	ChipID            pgtype.Text        `json:"chip_id"`
	VaccinationStatus pgtype.Text        `json:"vaccination_status"`
	Allergies         []string           `json:"allergies"`
	MedicalNotes      pgtype.Text        `json:"medical_notes"`
	BehaviorNotes     pgtype.Text        `json:"behavior_notes"`
	PhotoKey          pgtype.Text        `json:"photo_key"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
	DeletedAt         pgtype.Timestamptz `json:"deleted_at"`
}

type Service struct {
	ID              uuid.UUID          `json:"id"`
	TenantID        uuid.UUID          `json:"tenant_id"`
	Name            string             `json:"name"`
	Description     pgtype.Text        `json:"description"`
	Type            string             `json:"type"`
	DurationMinutes int32              `json:"duration_minutes"`
	PriceCents      int64              `json:"price_cents"`
	IsActive        bool               `json:"is_active"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	DeletedAt       pgtype.Timestamptz `json:"deleted_at"`
}

type Staff struct {
	ID           uuid.UUID          `json:"id"`
	TenantID     uuid.UUID          `json:"tenant_id"`
	UserID       uuid.UUID          `json:"user_id"`
	RoleLabel    string             `json:"role_label"`
	Skills       []string           `json:"skills"`
	MaxCapacity  int32              `json:"max_capacity"`
	Availability []byte             `json:"availability"`
	IsActive     bool               `json:"is_active"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
	DeletedAt    pgtype.Timestamptz `json:"deleted_at"`
}

type Appointment struct {
	ID              uuid.UUID          `json:"id"`
	TenantID        uuid.UUID          `json:"tenant_id"`
	CustomerID      uuid.UUID          `json:"customer_id"`
	PetID           uuid.UUID          `json:"pet_id"`
	ServiceID       uuid.UUID          `json:"service_id"`
	StaffID         *uuid.UUID         `json:"staff_id"`
	StartsAt        time.Time          `json:"starts_at"`
	DurationMinutes int32              `json:"duration_minutes"`
	Status          string             `json:"status"`
	Notes           pgtype.Text        `json:"notes"`
	CancelReason    pgtype.Text        `json:"cancel_reason"`
	CancelledAt     pgtype.Timestamptz `json:"cancelled_at"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	DeletedAt       pgtype.Timestamptz `json:"deleted_at"`
}

type Task struct {
	ID              uuid.UUID          `json:"id"`
	TenantID        uuid.UUID          `json:"tenant_id"`
	AppointmentID   uuid.UUID          `json:"appointment_id"`
	AssignedStaffID *uuid.UUID         `json:"assigned_staff_id"`
	Title           string             `json:"title"`
	Description     pgtype.Text        `json:"description"`
	Status          string             `json:"status"`
	CompletedAt     pgtype.Timestamptz `json:"completed_at"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	DeletedAt       pgtype.Timestamptz `json:"deleted_at"`
}

type TaskTemplate struct {
	ID          uuid.UUID          `json:"id"`
	TenantID    uuid.UUID          `json:"tenant_id"`
	Name        string             `json:"name"`
	ServiceType string             `json:"service_type"`
	Checklist   []string           `json:"checklist"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	DeletedAt   pgtype.Timestamptz `json:"deleted_at"`
}

type AuditLog struct {
	ID         uuid.UUID   `json:"id"`
	TenantID   *uuid.UUID  `json:"tenant_id"`
	ActorID    *uuid.UUID  `json:"actor_id"`
	Action     string      `json:"action"`
	EntityType string      `json:"entity_type"`
	EntityID   *uuid.UUID  `json:"entity_id"`
	Changes    []byte      `json:"changes"`
	IpAddress  pgtype.Text `json:"ip_address"`
	UserAgent  pgtype.Text `json:"user_agent"`
	CreatedAt  time.Time   `json:"created_at"`
}

type File struct {
	ID          uuid.UUID          `json:"id"`
	TenantID    uuid.UUID          `json:"tenant_id"`
	EntityType  string             `json:"entity_type"`
	EntityID    uuid.UUID          `json:"entity_id"`
	Kind        string             `json:"kind"`
	ObjectKey   string             `json:"object_key"`
	ContentType string             `json:"content_type"`
	SizeBytes   int64              `json:"size_bytes"`
	CreatedAt   time.Time          `json:"created_at"`
	DeletedAt   pgtype.Timestamptz `json:"deleted_at"`
}

type NotificationLog struct {
	ID        uuid.UUID   `json:"id"`
	TenantID  uuid.UUID   `json:"tenant_id"`
	UserID    *uuid.UUID  `json:"user_id"`
	Channel   string      `json:"channel"`
	Template  string      `json:"template"`
	Recipient string      `json:"recipient"`
	Status    string      `json:"status"`
	Error     pgtype.Text `json:"error"`
	CreatedAt time.Time   `json:"created_at"`
}
