package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pawdesk/pawdesk/internal/audit"
	"github.com/pawdesk/pawdesk/internal/db"
	"github.com/pawdesk/pawdesk/internal/rbac"
)

type TaskTemplateView struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	Name        string    `json:"name"`
	ServiceType string    `json:"service_type"`
	Checklist   []string  `json:"checklist"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func taskTemplateView(t db.TaskTemplate) TaskTemplateView {
	v := TaskTemplateView{
		ID:          t.ID,
		TenantID:    t.TenantID,
		Name:        t.Name,
		ServiceType: t.ServiceType,
		Checklist:   t.Checklist,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if v.Checklist == nil {
		v.Checklist = []string{}
	}
	return v
}

type taskTemplateRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=100"`
	ServiceType *string  `json:"service_type" validate:"omitempty,oneof=GROOMING WALKING DAYCARE BOARDING TRAINING VETERINARY OTHER"`
	Checklist   []string `json:"checklist" validate:"omitempty,max=100,dive,min=1,max=200"`
}

func (s Server) ListTaskTemplates(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePermission(w, r, rbac.TaskView)
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

	var serviceType pgtype.Text
	if t := r.URL.Query().Get("service_type"); t != "" {
		serviceType = pgtype.Text{String: t, Valid: true}
	}

	templates, err := s.db.Queries().ListTaskTemplates(r.Context(), db.ListTaskTemplatesParams{
		TenantID:    tenantID,
		ServiceType: serviceType,
		Limit:       page.Limit(),
		Offset:      page.Offset(),
	})
	if err != nil {
		internalError(w, r, "Failed to list task templates", err)
		return
	}
	total, err := s.db.Queries().CountTaskTemplates(r.Context(), db.CountTaskTemplatesParams{TenantID: tenantID, ServiceType: serviceType})
	if err != nil {
		internalError(w, r, "Failed to count task templates", err)
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(mapList(templates, taskTemplateView), page, total))
}

func (s Server) CreateTaskTemplate(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePermission(w, r, rbac.TaskCreate)
	if !ok {
		return
	}
	tenantID, ok := tenantScope(w, r, p)
	if !ok {
		return
	}

	var req taskTemplateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	var details []ErrorDetail
	if req.Name == nil {
		details = append(details, ErrorDetail{Field: "name", Message: "is required"})
	}
	if req.ServiceType == nil {
		details = append(details, ErrorDetail{Field: "service_type", Message: "is required"})
	}
	if len(details) > 0 {
		ValidationErr("Validation failed", details).Write(w)
		return
	}
	checklist := req.Checklist
	if checklist == nil {
		checklist = []string{}
	}

	tmpl, err := s.db.Queries().CreateTaskTemplate(r.Context(), db.CreateTaskTemplateParams{
		TenantID:    tenantID,
		Name:        strings.TrimSpace(*req.Name),
		ServiceType: *req.ServiceType,
		Checklist:   checklist,
	})
	if err != nil {
		internalError(w, r, "Failed to create task template", err)
		return
	}

	view := taskTemplateView(tmpl)
	s.record(r, p, audit.ActionCreate, audit.EntityTaskTemplate, tenantID, tmpl.ID, nil, view)
	writeJSON(w, http.StatusCreated, view)
}

func (s Server) loadTaskTemplate(w http.ResponseWriter, r *http.Request, perm rbac.Permission) (rbac.Principal, db.TaskTemplate, bool) {
	p, ok := requirePermission(w, r, perm)
	if !ok {
		return p, db.TaskTemplate{}, false
	}
	id, ok := pathID(w, r, "id", "Task template")
	if !ok {
		return p, db.TaskTemplate{}, false
	}
	tmpl, err := s.db.Queries().GetTaskTemplateByID(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			NotFound("Task template").Write(w)
			return p, db.TaskTemplate{}, false
		}
		internalError(w, r, "Failed to load task template", err)
		return p, db.TaskTemplate{}, false
	}
	if !authorizeRecord(w, r, p, perm, tmpl.TenantID, "Task template") {
		return p, db.TaskTemplate{}, false
	}
	return p, tmpl, true
}

func (s Server) GetTaskTemplate(w http.ResponseWriter, r *http.Request) {
	_, tmpl, ok := s.loadTaskTemplate(w, r, rbac.TaskView)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, taskTemplateView(tmpl))
}

func (s Server) UpdateTaskTemplate(w http.ResponseWriter, r *http.Request) {
	p, tmpl, ok := s.loadTaskTemplate(w, r, rbac.TaskUpdate)
	if !ok {
		return
	}

	var req taskTemplateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	before := taskTemplateView(tmpl)
	params := db.UpdateTaskTemplateParams{
		ID:          tmpl.ID,
		Name:        tmpl.Name,
		ServiceType: tmpl.ServiceType,
		Checklist:   before.Checklist,
	}
	if req.Name != nil {
		params.Name = strings.TrimSpace(*req.Name)
	}
	if req.ServiceType != nil {
		params.ServiceType = *req.ServiceType
	}
	if req.Checklist != nil {
		params.Checklist = req.Checklist
	}

	updated, err := s.db.Queries().UpdateTaskTemplate(r.Context(), params)
	if err != nil {
		if isNotFound(err) {
			NotFound("Task template").Write(w)
			return
		}
		internalError(w, r, "Failed to update task template", err)
		return
	}

	view := taskTemplateView(updated)
	s.record(r, p, audit.ActionUpdate, audit.EntityTaskTemplate, tmpl.TenantID, tmpl.ID, before, view)
	writeJSON(w, http.StatusOK, view)
}

func (s Server) DeleteTaskTemplate(w http.ResponseWriter, r *http.Request) {
	p, tmpl, ok := s.loadTaskTemplate(w, r, rbac.TaskCreate)
	if !ok {
		return
	}
	n, err := s.db.Queries().SoftDeleteTaskTemplate(r.Context(), tmpl.ID)
	if err != nil {
		internalError(w, r, "Failed to delete task template", err)
		return
	}
	if n == 0 {
		NotFound("Task template").Write(w)
		return
	}
	s.record(r, p, audit.ActionDelete, audit.EntityTaskTemplate, tmpl.TenantID, tmpl.ID, taskTemplateView(tmpl), nil)
	w.WriteHeader(http.StatusNoContent)
}
