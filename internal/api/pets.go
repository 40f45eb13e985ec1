package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/pawdesk/pawdesk/internal/audit"
	"github.com/pawdesk/pawdesk/internal/db"
	"github.com/pawdesk/pawdesk/internal/rbac"
)

const (
	GenderMale    = "MALE"
	GenderFemale  = "FEMALE"
	GenderUnknown = "UNKNOWN"
)

type PetView struct {
	ID                uuid.UUID           `json:"id"`
	TenantID          uuid.UUID           `json:"tenant_id"`
	CustomerID        uuid.UUID           `json:"customer_id"`
	Name              string              `json:"name"`
	Species           string              `json:"species"`
	Breed             *string             `json:"breed"`
	Gender            string              `json:"gender"`
	DateOfBirth       *openapi_types.Date `json:"date_of_birth"`
	Weight            *float64            `json:"weight"`
	ChipID            *string             `json:"chip_id"`
	VaccinationStatus *string             `json:"vaccination_status"`
	Allergies         []string            `json:"allergies"`
	MedicalNotes      *string             `json:"medical_notes"`
	BehaviorNotes     *string             `json:"behavior_notes"`
	HasPhoto          bool                `json:"has_photo"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

func petView(p db.Pet) PetView {
	v := PetView{
		ID:                p.ID,
		TenantID:          p.TenantID,
		CustomerID:        p.CustomerID,
		Name:              p.Name,
		Species:           p.Species,
		Breed:             textPtr(p.Breed),
		Gender:            p.Gender,
		ChipID:            textPtr(p.ChipID),
		VaccinationStatus: textPtr(p.VaccinationStatus),
		Allergies:         p.Allergies,
		MedicalNotes:      textPtr(p.MedicalNotes),
		BehaviorNotes:     textPtr(p.BehaviorNotes),
		HasPhoto:          p.PhotoKey.Valid,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
	if v.Allergies == nil {
		v.Allergies = []string{}
	}
	if p.DateOfBirth.Valid {
		v.DateOfBirth = &openapi_types.Date{Time: p.DateOfBirth.Time}
	}
	if p.Weight.Valid {
		w := p.Weight.Float64
		v.Weight = &w
	}
	return v
}

type petRequest struct {
	CustomerID        *uuid.UUID          `json:"customer_id"`
	Name              *string             `json:"name" validate:"omitempty,min=1,max=100"`
	Species           *string             `json:"species" validate:"omitempty,min=1,max=50"`
	Breed             *string             `json:"breed" validate:"omitempty,max=100"`
	Gender            *string             `json:"gender" validate:"omitempty,oneof=MALE FEMALE UNKNOWN"`
	DateOfBirth       *openapi_types.Date `json:"date_of_birth"`
	Weight            *float64            `json:"weight" validate:"omitempty,gt=0,max=1000"`
	ChipID            *string             `json:"chip_id" validate:"omitempty,max=50"`
	VaccinationStatus *string             `json:"vaccination_status" validate:"omitempty,max=100"`
	Allergies         []string            `json:"allergies" validate:"omitempty,max=50,dive,min=1,max=100"`
	MedicalNotes      *string             `json:"medical_notes" validate:"omitempty,max=5000"`
	BehaviorNotes     *string             `json:"behavior_notes" validate:"omitempty,max=5000"`
}

func (req petRequest) apply(v *PetView) {
	if req.CustomerID != nil {
		v.CustomerID = *req.CustomerID
	}
	if req.Name != nil {
		v.Name = strings.TrimSpace(*req.Name)
	}
	if req.Species != nil {
		v.Species = strings.TrimSpace(*req.Species)
	}
	if req.Breed != nil {
		v.Breed = req.Breed
	}
	if req.Gender != nil {
		v.Gender = *req.Gender
	}
	if req.DateOfBirth != nil {
		v.DateOfBirth = req.DateOfBirth
	}
	if req.Weight != nil {
		v.Weight = req.Weight
	}
	if req.ChipID != nil {
		v.ChipID = req.ChipID
	}
	if req.VaccinationStatus != nil {
		v.VaccinationStatus = req.VaccinationStatus
	}
	if req.Allergies != nil {
		v.Allergies = req.Allergies
	}
	if req.MedicalNotes != nil {
		v.MedicalNotes = req.MedicalNotes
	}
	if req.BehaviorNotes != nil {
		v.BehaviorNotes = req.BehaviorNotes
	}
}

func petDate(d *openapi_types.Date) pgtype.Date {
	if d == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: d.Time, Valid: true}
}

func petWeight(w *float64) pgtype.Float8 {
	if w == nil {
		return pgtype.Float8{}
	}
	return pgtype.Float8{Float64: *w, Valid: true}
}

// checkPetOwner validates that customerID is a live customer of tenantID
// which the caller may act for. On failure the response has been written.
func (s Server) checkPetOwner(w http.ResponseWriter, r *http.Request, p rbac.Principal, tenantID, customerID uuid.UUID) bool {
	customer, err := s.db.Queries().GetCustomerByID(r.Context(), customerID)
	if err != nil && !isNotFound(err) {
		internalError(w, r, "Failed to load customer", err)
		return false
	}
	if err != nil || customer.TenantID != tenantID {
		ValidationErr("Validation failed", []ErrorDetail{{Field: "customer_id", Message: "must reference a customer of this business"}}).Write(w)
		return false
	}
	owned, err := s.ownedByCustomer(r.Context(), p, tenantID, customerID)
	if err != nil {
		internalError(w, r, "Failed to resolve customer", err)
		return false
	}
	if !owned {
		PermissionDenied("You can only manage your own pets").Write(w)
		return false
	}
	return true
}

func (s Server) ListPets(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePermission(w, r, rbac.PetView)
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

	var customerID *uuid.UUID
	if raw := r.URL.Query().Get("customer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			ValidationErr("Invalid query parameter", []ErrorDetail{{Field: "customer_id", Message: "must be a UUID"}}).Write(w)
			return
		}
		customerID = &id
	}
	if p.Role == rbac.RoleCustomer {
		self, err := s.selfCustomer(r.Context(), p, tenantID)
		if err != nil {
			if errors.Is(err, errNoCustomerRecord) {
				writeJSON(w, http.StatusOK, newListResponse([]PetView{}, page, 0))
				return
			}
			internalError(w, r, "Failed to resolve customer", err)
			return
		}
		customerID = &self.ID
	}

	var species pgtype.Text
	if sp := strings.TrimSpace(r.URL.Query().Get("species")); sp != "" {
		species = pgtype.Text{String: sp, Valid: true}
	}

	pets, err := s.db.Queries().ListPets(r.Context(), db.ListPetsParams{
		TenantID:   tenantID,
		CustomerID: customerID,
		Species:    species,
		Limit:      page.Limit(),
		Offset:     page.Offset(),
	})
	if err != nil {
		internalError(w, r, "Failed to list pets", err)
		return
	}
	total, err := s.db.Queries().CountPets(r.Context(), db.CountPetsParams{TenantID: tenantID, CustomerID: customerID, Species: species})
	if err != nil {
		internalError(w, r, "Failed to count pets", err)
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(mapList(pets, petView), page, total))
}

func (s Server) CreatePet(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePermission(w, r, rbac.PetCreate)
	if !ok {
		return
	}
	tenantID, ok := tenantScope(w, r, p)
	if !ok {
		return
	}

	var req petRequest
	if !decodeBody(w, r, &req) {
		return
	}

	// customers create pets for themselves
	if req.CustomerID == nil && p.Role == rbac.RoleCustomer {
		self, err := s.selfCustomer(r.Context(), p, tenantID)
		if err != nil && !errors.Is(err, errNoCustomerRecord) {
			internalError(w, r, "Failed to resolve customer", err)
			return
		}
		if err == nil {
			req.CustomerID = &self.ID
		}
	}

	var details []ErrorDetail
	if req.CustomerID == nil {
		details = append(details, ErrorDetail{Field: "customer_id", Message: "is required"})
	}
	if req.Name == nil {
		details = append(details, ErrorDetail{Field: "name", Message: "is required"})
	}
	if req.Species == nil {
		details = append(details, ErrorDetail{Field: "species", Message: "is required"})
	}
	if len(details) > 0 {
		ValidationErr("Validation failed", details).Write(w)
		return
	}
	if !s.checkPetOwner(w, r, p, tenantID, *req.CustomerID) {
		return
	}

	v := PetView{Gender: GenderUnknown, Allergies: []string{}}
	req.apply(&v)

	pet, err := s.db.Queries().CreatePet(r.Context(), db.CreatePetParams{
		TenantID:          tenantID,
		CustomerID:        v.CustomerID,
		Name:              v.Name,
		Species:           v.Species,
		Breed:             text(v.Breed),
		Gender:            v.Gender,
		DateOfBirth:       petDate(v.DateOfBirth),
		Weight:            petWeight(v.Weight),
		ChipID:            text(v.ChipID),
		VaccinationStatus: text(v.VaccinationStatus),
		Allergies:         v.Allergies,
		MedicalNotes:      text(v.MedicalNotes),
		BehaviorNotes:     text(v.BehaviorNotes),
	})
	if err != nil {
		internalError(w, r, "Failed to create pet", err)
		return
	}

	view := petView(pet)
	s.record(r, p, audit.ActionCreate, audit.EntityPet, tenantID, pet.ID, nil, view)
	writeJSON(w, http.StatusCreated, view)
}

// loadPet fetches the {id} pet and applies perm plus customer ownership.
func (s Server) loadPet(w http.ResponseWriter, r *http.Request, perm rbac.Permission) (rbac.Principal, db.Pet, bool) {
	p, ok := requirePermission(w, r, perm)
	if !ok {
		return p, db.Pet{}, false
	}
	id, ok := pathID(w, r, "id", "Pet")
	if !ok {
		return p, db.Pet{}, false
	}

	pet, err := s.db.Queries().GetPetByID(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			NotFound("Pet").Write(w)
			return p, db.Pet{}, false
		}
		internalError(w, r, "Failed to load pet", err)
		return p, db.Pet{}, false
	}
	if !authorizeRecord(w, r, p, perm, pet.TenantID, "Pet") {
		return p, db.Pet{}, false
	}

	owned, err := s.ownedByCustomer(r.Context(), p, pet.TenantID, pet.CustomerID)
	if err != nil {
		internalError(w, r, "Failed to resolve customer", err)
		return p, db.Pet{}, false
	}
	if !owned {
		NotFound("Pet").Write(w)
		return p, db.Pet{}, false
	}
	return p, pet, true
}

func (s Server) GetPet(w http.ResponseWriter, r *http.Request) {
	_, pet, ok := s.loadPet(w, r, rbac.PetView)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, petView(pet))
}

func (s Server) UpdatePet(w http.ResponseWriter, r *http.Request) {
	p, pet, ok := s.loadPet(w, r, rbac.PetUpdate)
	if !ok {
		return
	}

	var req petRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.CustomerID != nil && *req.CustomerID != pet.CustomerID {
		if !s.checkPetOwner(w, r, p, pet.TenantID, *req.CustomerID) {
			return
		}
	}

	before := petView(pet)
	v := before
	req.apply(&v)

	updated, err := s.db.Queries().UpdatePet(r.Context(), db.UpdatePetParams{
		ID:                pet.ID,
		CustomerID:        v.CustomerID,
		Name:              v.Name,
		Species:           v.Species,
		Breed:             text(v.Breed),
		Gender:            v.Gender,
		DateOfBirth:       petDate(v.DateOfBirth),
		Weight:            petWeight(v.Weight),
		ChipID:            text(v.ChipID),
		VaccinationStatus: text(v.VaccinationStatus),
		Allergies:         v.Allergies,
		MedicalNotes:      text(v.MedicalNotes),
		BehaviorNotes:     text(v.BehaviorNotes),
	})
	if err != nil {
		if isNotFound(err) {
			NotFound("Pet").Write(w)
			return
		}
		internalError(w, r, "Failed to update pet", err)
		return
	}

	view := petView(updated)
	s.record(r, p, audit.ActionUpdate, audit.EntityPet, pet.TenantID, pet.ID, before, view)
	writeJSON(w, http.StatusOK, view)
}

func (s Server) DeletePet(w http.ResponseWriter, r *http.Request) {
	p, pet, ok := s.loadPet(w, r, rbac.PetDelete)
	if !ok {
		return
	}

	n, err := s.db.Queries().SoftDeletePet(r.Context(), pet.ID)
	if err != nil {
		internalError(w, r, "Failed to delete pet", err)
		return
	}
	if n == 0 {
		NotFound("Pet").Write(w)
		return
	}

	s.record(r, p, audit.ActionDelete, audit.EntityPet, pet.TenantID, pet.ID, petView(pet), nil)
	w.WriteHeader(http.StatusNoContent)
}
