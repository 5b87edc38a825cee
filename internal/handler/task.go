package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/roomly/roomly/internal/access"
	"github.com/roomly/roomly/internal/apperr"
	"github.com/roomly/roomly/internal/auth"
	"github.com/roomly/roomly/internal/engine"
	"github.com/roomly/roomly/internal/model"
	"github.com/roomly/roomly/internal/store"
)

type TaskHandler struct {
	engine *engine.TaskEngine
	tasks  *store.TaskStore
	guard  *access.Guard
	logger *slog.Logger
}

func NewTaskHandler(e *engine.TaskEngine, ts *store.TaskStore, guard *access.Guard, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{engine: e, tasks: ts, guard: guard, logger: logger}
}

type taskRequest struct {
	Title      string     `json:"title"`
	Points     int        `json:"points"`
	Priority   string     `json:"priority"`
	Recurrence string     `json:"recurrence"`
	AssignedTo *int64     `json:"assigned_to"`
	DueDate    *time.Time `json:"due_date"`
}

// Create handles POST /api/households/{id}/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	householdID, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, apperr.Validation("invalid id"))
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, apperr.Validation("invalid JSON"))
		return
	}

	task, err := h.engine.Create(r.Context(), userID, engine.CreateTaskInput{
		HouseholdID: householdID,
		Title:       req.Title,
		Points:      req.Points,
		Priority:    req.Priority,
		Recurrence:  req.Recurrence,
		AssignedTo:  req.AssignedTo,
		DueDate:     req.DueDate,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// List handles GET /api/households/{id}/tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	householdID, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, apperr.Validation("invalid id"))
		return
	}
	if _, err := h.guard.Authorize(userID, householdID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	tasks, err := h.tasks.ListByHousehold(householdID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

type taskUpdateRequest struct {
	Title         *string    `json:"title"`
	Points        *int       `json:"points"`
	Priority      *string    `json:"priority"`
	AssignedTo    *int64     `json:"assigned_to"`
	ClearAssignee bool       `json:"clear_assignee"`
	DueDate       *time.Time `json:"due_date"`
	ClearDueDate  bool       `json:"clear_due_date"`
}

// Update handles PUT /api/tasks/{id}. Absent fields keep their values.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	taskID, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, apperr.Validation("invalid id"))
		return
	}

	var req taskUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, apperr.Validation("invalid JSON"))
		return
	}

	task, err := h.engine.Update(r.Context(), taskID, userID, engine.UpdateTaskInput{
		Title:         req.Title,
		Points:        req.Points,
		Priority:      req.Priority,
		AssignedTo:    req.AssignedTo,
		ClearAssignee: req.ClearAssignee,
		DueDate:       req.DueDate,
		ClearDueDate:  req.ClearDueDate,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Complete handles POST /api/tasks/{id}/complete.
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	taskID, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, apperr.Validation("invalid id"))
		return
	}

	result, err := h.engine.Complete(r.Context(), taskID, userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type commentRequest struct {
	Text string `json:"text"`
}

// CreateComment handles POST /api/tasks/{id}/comments.
func (h *TaskHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	taskID, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, apperr.Validation("invalid id"))
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, apperr.Validation("invalid JSON"))
		return
	}

	comment, err := h.engine.Comment(r.Context(), taskID, userID, req.Text)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

// ListComments handles GET /api/tasks/{id}/comments.
func (h *TaskHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	taskID, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, apperr.Validation("invalid id"))
		return
	}

	task, err := h.tasks.GetByID(taskID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if task == nil {
		writeError(w, h.logger, apperr.NotFound("task %d not found", taskID))
		return
	}
	if _, err := h.guard.Authorize(userID, task.HouseholdID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	comments, err := h.tasks.ListComments(taskID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if comments == nil {
		comments = []model.Comment{}
	}
	writeJSON(w, http.StatusOK, comments)
}
