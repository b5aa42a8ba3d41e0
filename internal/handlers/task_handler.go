package handlers

import (
	"net/http"

	"github.com/mroshb/engage_app/internal/models"
)

type createTaskRequest struct {
	Title       string `json:"title"`
	CreditValue *int64 `json:"credit_value"`
}

type updateTaskRequest struct {
	Completed bool `json:"completed"`
}

// ListTasks handles GET /api/tasks
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.ListTasks(r.Context(), caller(r).UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tasks)
}

// CreateTask handles POST /api/tasks
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := h.decode(w, r, &req); err != nil {
		respondError(w, err)
		return
	}

	value := models.DefaultTaskCreditValue
	if req.CreditValue != nil {
		value = *req.CreditValue
	}

	task, err := h.tasks.CreateTask(r.Context(), caller(r).UserID, req.Title, value)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, task)
}

// UpdateTask handles PATCH /api/tasks/{id}
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var req updateTaskRequest
	if err := h.decode(w, r, &req); err != nil {
		respondError(w, err)
		return
	}

	task, err := h.tasks.SetTaskCompleted(r.Context(), caller(r).UserID, idParam(r), req.Completed)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// DeleteTask handles DELETE /api/tasks/{id}
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.tasks.DeleteTask(r.Context(), caller(r).UserID, idParam(r)); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": idParam(r)})
}

// RedeemTask handles POST /api/tasks/{id}/redeem
func (h *Handler) RedeemTask(w http.ResponseWriter, r *http.Request) {
	redemption, err := h.tasks.RedeemTask(r.Context(), caller(r).UserID, idParam(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, redemption)
}
