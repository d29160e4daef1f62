package api

import (
	"net/http"

	"github.com/alecgard/taskhub/internal/task"
	"github.com/go-chi/chi/v5"
)

// tasksHandler groups personal task HTTP handlers. Every operation is scoped
// to the authenticated owner.
type tasksHandler struct {
	tasks TaskService
}

func newTasksHandler(tasks TaskService) *tasksHandler {
	return &tasksHandler{tasks: tasks}
}

type statusRequest struct {
	Status string `json:"status"`
}

// Create handles POST /api/v1/tasks.
func (h *tasksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req task.FieldsInput
	if !readBody(w, r, &req) {
		return
	}

	t, err := h.tasks.Create(r.Context(), currentUser(r).ID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	auditLog(r, "task.create", "task", t.ID)
	writeMessage(w, http.StatusCreated, "Personal task created successfully", "task", t)
}

// List handles GET /api/v1/tasks?status=.
func (h *tasksHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.List(r.Context(), currentUser(r).ID, r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Personal task listed successfully", "tasks", tasks)
}

// Update handles PATCH /api/v1/tasks/{taskId}.
func (h *tasksHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req task.FieldsInput
	if !readBody(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "taskId")
	t, err := h.tasks.Update(r.Context(), currentUser(r).ID, id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	auditLog(r, "task.update", "task", id)
	writeMessage(w, http.StatusOK, "Personal task updated successfully", "task", t)
}

// UpdateStatus handles PUT /api/v1/tasks/{taskId}/status.
func (h *tasksHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !readBody(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "taskId")
	t, err := h.tasks.UpdateStatus(r.Context(), currentUser(r).ID, id, req.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	auditLog(r, "task.status", "task", id, "status", t.Status)
	writeMessage(w, http.StatusOK, "Personal task status updated successfully", "task", t)
}

// Delete handles DELETE /api/v1/tasks/{taskId}.
func (h *tasksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "taskId")
	if err := h.tasks.Delete(r.Context(), currentUser(r).ID, id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	auditLog(r, "task.delete", "task", id)
	writeMessage(w, http.StatusOK, "Personal task deleted successfully")
}
