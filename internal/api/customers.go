package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pawdesk/pawdesk/internal/audit"
	"github.com/pawdesk/pawdesk/internal/db"
	"github.com/pawdesk/pawdesk/internal/rbac"
	"github.com/pawdesk/pawdesk/internal/tenancy"
)

type Address struct {
	Street     string `json:"street,omitempty" validate:"max=255"`
	City       string `json:"city,omitempty" validate:"max=100"`
	State      string `json:"state,omitempty" validate:"max=100"`
	PostalCode string `json:"postal_code,omitempty" validate:"max=20"`
	Country    string `json:"country,omitempty" validate:"max=100"`
}

type CommunicationPreferences struct {
	Email     bool   `json:"email"`
	SMS       bool   `json:"sms"`
	WhatsApp  bool   `json:"whatsapp"`
	Preferred string `json:"preferred" validate:"oneof=EMAIL SMS WHATSAPP PUSH"`
}

func defaultCommunicationPreferences() CommunicationPreferences {
	return CommunicationPreferences{Email: true, Preferred: tenancy.ChannelEmail}
}

type CustomerView struct {
	ID                       uuid.UUID                `json:"id"`
	TenantID                 uuid.UUID                `json:"tenant_id"`
	FirstName                string                   `json:"first_name"`
	LastName                 string                   `json:"last_name"`
	Email                    *string                  `json:"email"`
	Phone                    *string                  `json:"phone"`
	Address                  *Address                 `json:"address"`
	CommunicationPreferences CommunicationPreferences `json:"communication_preferences"`
	Notes                    *string                  `json:"notes"`
	CreatedAt                time.Time                `json:"created_at"`
	UpdatedAt                time.Time                `json:"updated_at"`
}

func customerView(c db.Customer) CustomerView {
	v := CustomerView{
		ID:                       c.ID,
		TenantID:                 c.TenantID,
		FirstName:                c.FirstName,
		LastName:                 c.LastName,
		Email:                    textPtr(c.Email),
		Phone:                    textPtr(c.Phone),
		CommunicationPreferences: defaultCommunicationPreferences(),
		Notes:                    textPtr(c.Notes),
		CreatedAt:                c.CreatedAt,
		UpdatedAt:                c.UpdatedAt,
	}
	if len(c.Address) > 0 {
		var a Address
		if json.Unmarshal(c.Address, &a) == nil {
			v.Address = &a
		}
	}
	if len(c.CommunicationPreferences) > 0 {
		_ = json.Unmarshal(c.CommunicationPreferences, &v.CommunicationPreferences)
	}
	return v
}

type customerRequest struct {
	FirstName                *string                   `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName                 *string                   `json:"last_name" validate:"omitempty,min=1,max=100"`
	Email                    *string                   `json:"email" validate:"omitempty,email,max=255"`
	Phone                    *string                   `json:"phone" validate:"omitempty,max=50"`
	Address                  *Address                  `json:"address"`
	CommunicationPreferences *CommunicationPreferences `json:"communication_preferences"`
	Notes                    *string                   `json:"notes" validate:"omitempty,max=5000"`
}

// apply merges the request onto an existing customer view.
func (req customerRequest) apply(v *CustomerView) {
	if req.FirstName != nil {
		v.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		v.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*req.Email))
		v.Email = &e
	}
	if req.Phone != nil {
		v.Phone = req.Phone
	}
	if req.Address != nil {
		v.Address = req.Address
	}
	if req.CommunicationPreferences != nil {
		v.CommunicationPreferences = *req.CommunicationPreferences
	}
	if req.Notes != nil {
		v.Notes = req.Notes
	}
}

func marshalCustomerJSON(v CustomerView) (address, prefs []byte, err error) {
	if v.Address != nil {
		if address, err = json.Marshal(v.Address); err != nil {
			return nil, nil, err
		}
	}
	prefs, err = json.Marshal(v.CommunicationPreferences)
	return address, prefs, err
}

func (s Server) ListCustomers(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePermission(w, r, rbac.CustomerView)
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

	var search pgtype.Text
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		search = pgtype.Text{String: q, Valid: true}
	}

	customers, err := s.db.Queries().ListCustomers(r.Context(), db.ListCustomersParams{
		TenantID: tenantID,
		Search:   search,
		Limit:    page.Limit(),
		Offset:   page.Offset(),
	})
	if err != nil {
		internalError(w, r, "Failed to list customers", err)
		return
	}
	total, err := s.db.Queries().CountCustomers(r.Context(), db.CountCustomersParams{TenantID: tenantID, Search: search})
	if err != nil {
		internalError(w, r, "Failed to count customers", err)
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(mapList(customers, customerView), page, total))
}

func (s Server) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePermission(w, r, rbac.CustomerCreate)
	if !ok {
		return
	}
	tenantID, ok := tenantScope(w, r, p)
	if !ok {
		return
	}

	var req customerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.FirstName == nil || req.LastName == nil {
		var details []ErrorDetail
		if req.FirstName == nil {
			details = append(details, ErrorDetail{Field: "first_name", Message: "is required"})
		}
		if req.LastName == nil {
			details = append(details, ErrorDetail{Field: "last_name", Message: "is required"})
		}
		ValidationErr("Validation failed", details).Write(w)
		return
	}

	v := CustomerView{CommunicationPreferences: defaultCommunicationPreferences()}
	req.apply(&v)
	if !validateStruct(w, &v.CommunicationPreferences) {
		return
	}
	address, prefs, err := marshalCustomerJSON(v)
	if err != nil {
		internalError(w, r, "Failed to encode customer", err)
		return
	}

	customer, err := s.db.Queries().CreateCustomer(r.Context(), db.CreateCustomerParams{
		TenantID:                 tenantID,
		FirstName:                v.FirstName,
		LastName:                 v.LastName,
		Email:                    text(v.Email),
		Phone:                    text(v.Phone),
		Address:                  address,
		CommunicationPreferences: prefs,
		Notes:                    text(v.Notes),
	})
	if err != nil {
		internalError(w, r, "Failed to create customer", err)
		return
	}

	view := customerView(customer)
	s.record(r, p, audit.ActionCreate, audit.EntityCustomer, tenantID, customer.ID, nil, view)
	writeJSON(w, http.StatusCreated, view)
}

// loadCustomer fetches a customer by the {id} path param and applies perm.
func (s Server) loadCustomer(w http.ResponseWriter, r *http.Request, perm rbac.Permission) (rbac.Principal, db.Customer, bool) {
	p, ok := requirePermission(w, r, perm)
	if !ok {
		return p, db.Customer{}, false
	}
	id, ok := pathID(w, r, "id", "Customer")
	if !ok {
		return p, db.Customer{}, false
	}

	customer, err := s.db.Queries().GetCustomerByID(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			NotFound("Customer").Write(w)
			return p, db.Customer{}, false
		}
		internalError(w, r, "Failed to load customer", err)
		return p, db.Customer{}, false
	}
	if !authorizeRecord(w, r, p, perm, customer.TenantID, "Customer") {
		return p, db.Customer{}, false
	}
	return p, customer, true
}

func (s Server) GetCustomer(w http.ResponseWriter, r *http.Request) {
	_, customer, ok := s.loadCustomer(w, r, rbac.CustomerView)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, customerView(customer))
}

func (s Server) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	p, customer, ok := s.loadCustomer(w, r, rbac.CustomerUpdate)
	if !ok {
		return
	}

	var req customerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	before := customerView(customer)
	v := before
	req.apply(&v)
	if !validateStruct(w, &v.CommunicationPreferences) {
		return
	}
	address, prefs, err := marshalCustomerJSON(v)
	if err != nil {
		internalError(w, r, "Failed to encode customer", err)
		return
	}

	updated, err := s.db.Queries().UpdateCustomer(r.Context(), db.UpdateCustomerParams{
		ID:                       customer.ID,
		FirstName:                v.FirstName,
		LastName:                 v.LastName,
		Email:                    text(v.Email),
		Phone:                    text(v.Phone),
		Address:                  address,
		CommunicationPreferences: prefs,
		Notes:                    text(v.Notes),
	})
	if err != nil {
		if isNotFound(err) {
			NotFound("Customer").Write(w)
			return
		}
		internalError(w, r, "Failed to update customer", err)
		return
	}

	view := customerView(updated)
	s.record(r, p, audit.ActionUpdate, audit.EntityCustomer, customer.TenantID, customer.ID, before, view)
	writeJSON(w, http.StatusOK, view)
}

func (s Server) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	p, customer, ok := s.loadCustomer(w, r, rbac.CustomerDelete)
	if !ok {
		return
	}

	n, err := s.db.Queries().SoftDeleteCustomer(r.Context(), customer.ID)
	if err != nil {
		internalError(w, r, "Failed to delete customer", err)
		return
	}
	if n == 0 {
		NotFound("Customer").Write(w)
		return
	}

	s.record(r, p, audit.ActionDelete, audit.EntityCustomer, customer.TenantID, customer.ID, customerView(customer), nil)
	w.WriteHeader(http.StatusNoContent)
}
