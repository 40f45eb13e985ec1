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

const (
	TaskPending    = "PENDING"
	TaskInProgress = "IN_PROGRESS"
	TaskCompleted  = "COMPLETED"
	TaskSkipped    = "SKIPPED"
)

var taskStatuses = map[string]bool{
	TaskPending: true, TaskInProgress: true, TaskCompleted: true, TaskSkipped: true,
}

type TaskView struct {
	ID              uuid.UUID  `json:"id"`
	TenantID        uuid.UUID  `json:"tenant_id"`
	AppointmentID   uuid.UUID  `json:"appointment_id"`
	AssignedStaffID *uuid.UUID `json:"assigned_staff_id"`
	Title           string     `json:"title"`
	Description     *string    `json:"description"`
	Status          string     `json:"status"`
	CompletedAt     *time.Time `json:"completed_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func taskView(t db.Task) TaskView {
	v := TaskView{
		ID:              t.ID,
		TenantID:        t.TenantID,
		AppointmentID:   t.AppointmentID,
		AssignedStaffID: t.AssignedStaffID,
		Title:           t.Title,
		Description:     textPtr(t.Description),
		Status:          t.Status,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
	if t.CompletedAt.Valid {
		c := t.CompletedAt.Time
		v.CompletedAt = &c
	}
	return v
}

type createTaskRequest struct {
	AppointmentID   uuid.UUID  `json:"appointment_id" validate:"required"`
	AssignedStaffID *uuid.UUID `json:"assigned_staff_id"`
	Title           string     `json:"title" validate:"required,max=200"`
	Description     *string    `json:"description" validate:"omitempty,max=5000"`
}

type updateTaskRequest struct {
	AssignedStaffID *uuid.UUID `json:"assigned_staff_id"`
	Title           *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description     *string    `json:"description" validate:"omitempty,max=5000"`
	Status          *string    `json:"status" validate:"omitempty,oneof=PENDING IN_PROGRESS SKIPPED"`
}

func (s Server) ListTasks(w http.ResponseWriter, r *http.Request) {
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

	appointmentID, ok := uuidQuery(w, r, "appointment_id")
	if !ok {
		return
	}
	staffID, ok := uuidQuery(w, r, "assigned_staff_id")
	if !ok {
		return
	}
	var status pgtype.Text
	if st := r.URL.Query().Get("status"); st != "" {
		if !taskStatuses[st] {
			ValidationErr("Invalid query parameter", []ErrorDetail{{Field: "status", Message: "unknown status"}}).Write(w)
			return
		}
		status = pgtype.Text{String: st, Valid: true}
	}

	tasks, err := s.db.Queries().ListTasks(r.Context(), db.ListTasksParams{
		TenantID:        tenantID,
		AppointmentID:   appointmentID,
		Status:          status,
		AssignedStaffID: staffID,
		Limit:           page.Limit(),
		Offset:          page.Offset(),
	})
	if err != nil {
		internalError(w, r, "Failed to list tasks", err)
		return
	}
	total, err := s.db.Queries().CountTasks(r.Context(), db.CountTasksParams{
		TenantID:        tenantID,
		AppointmentID:   appointmentID,
		Status:          status,
		AssignedStaffID: staffID,
	})
	if err != nil {
		internalError(w, r, "Failed to count tasks", err)
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(mapList(tasks, taskView), page, total))
}

func (s Server) CreateTask(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePermission(w, r, rbac.TaskCreate)
	if !ok {
		return
	}
	tenantID, ok := tenantScope(w, r, p)
	if !ok {
		return
	}

	var req createTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}

	appointment, err := s.db.Queries().GetAppointmentByID(r.Context(), req.AppointmentID)
	if err != nil && !isNotFound(err) {
		internalError(w, r, "Failed to load appointment", err)
		return
	}
	if err != nil || appointment.TenantID != tenantID {
		ValidationErr("Validation failed", []ErrorDetail{{Field: "appointment_id", Message: "must reference an appointment of this business"}}).Write(w)
		return
	}
	if req.AssignedStaffID != nil && !s.activeStaffOf(w, r, tenantID, *req.AssignedStaffID, "assigned_staff_id") {
		return
	}

	task, err := s.db.Queries().CreateTask(r.Context(), db.CreateTaskParams{
		TenantID:        tenantID,
		AppointmentID:   appointment.ID,
		AssignedStaffID: req.AssignedStaffID,
		Title:           strings.TrimSpace(req.Title),
		Description:     text(req.Description),
		Status:          TaskPending,
	})
	if err != nil {
		internalError(w, r, "Failed to create task", err)
		return
	}

	view := taskView(task)
	s.record(r, p, audit.ActionCreate, audit.EntityTask, tenantID, task.ID, nil, view)
	writeJSON(w, http.StatusCreated, view)
}

func (s Server) loadTask(w http.ResponseWriter, r *http.Request, perm rbac.Permission) (rbac.Principal, db.Task, bool) {
	p, ok := requirePermission(w, r, perm)
	if !ok {
		return p, db.Task{}, false
	}
	id, ok := pathID(w, r, "id", "Task")
	if !ok {
		return p, db.Task{}, false
	}
	task, err := s.db.Queries().GetTaskByID(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			NotFound("Task").Write(w)
			return p, db.Task{}, false
		}
		internalError(w, r, "Failed to load task", err)
		return p, db.Task{}, false
	}
	if !authorizeRecord(w, r, p, perm, task.TenantID, "Task") {
		return p, db.Task{}, false
	}
	return p, task, true
}

func (s Server) GetTask(w http.ResponseWriter, r *http.Request) {
	_, task, ok := s.loadTask(w, r, rbac.TaskView)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, taskView(task))
}

func (s Server) UpdateTask(w http.ResponseWriter, r *http.Request) {
	p, task, ok := s.loadTask(w, r, rbac.TaskUpdate)
	if !ok {
		return
	}

	var req updateTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if task.Status == TaskCompleted {
		InvalidStateErr("Task is already completed").Write(w)
		return
	}

	params := db.UpdateTaskParams{
		ID:              task.ID,
		AssignedStaffID: task.AssignedStaffID,
		Title:           task.Title,
		Description:     task.Description,
		Status:          task.Status,
	}
	if req.AssignedStaffID != nil {
		if !s.activeStaffOf(w, r, task.TenantID, *req.AssignedStaffID, "assigned_staff_id") {
			return
		}
		params.AssignedStaffID = req.AssignedStaffID
	}
	if req.Title != nil {
		params.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		params.Description = text(req.Description)
	}
	if req.Status != nil {
		params.Status = *req.Status
	}

	updated, err := s.db.Queries().UpdateTask(r.Context(), params)
	if err != nil {
		if isNotFound(err) {
			NotFound("Task").Write(w)
			return
		}
		internalError(w, r, "Failed to update task", err)
		return
	}

	view := taskView(updated)
	s.record(r, p, audit.ActionUpdate, audit.EntityTask, task.TenantID, task.ID, taskView(task), view)
	writeJSON(w, http.StatusOK, view)
}

func (s Server) CompleteTask(w http.ResponseWriter, r *http.Request) {
	p, task, ok := s.loadTask(w, r, rbac.TaskComplete)
	if !ok {
		return
	}
	if task.Status == TaskCompleted {
		InvalidStateErr("Task is already completed").Write(w)
		return
	}

	completed, err := s.db.Queries().CompleteTask(r.Context(), task.ID)
	if err != nil {
		if isNotFound(err) {
			NotFound("Task").Write(w)
			return
		}
		internalError(w, r, "Failed to complete task", err)
		return
	}

	view := taskView(completed)
	s.record(r, p, audit.ActionUpdate, audit.EntityTask, task.TenantID, task.ID, taskView(task), view)
	writeJSON(w, http.StatusOK, view)
}

// DeleteTask requires task:create, which only admins hold.
func (s Server) DeleteTask(w http.ResponseWriter, r *http.Request) {
	p, task, ok := s.loadTask(w, r, rbac.TaskCreate)
	if !ok {
		return
	}
	n, err := s.db.Queries().SoftDeleteTask(r.Context(), task.ID)
	if err != nil {
		internalError(w, r, "Failed to delete task", err)
		return
	}
	if n == 0 {
		NotFound("Task").Write(w)
		return
	}
	s.record(r, p, audit.ActionDelete, audit.EntityTask, task.TenantID, task.ID, taskView(task), nil)
	w.WriteHeader(http.StatusNoContent)
}
