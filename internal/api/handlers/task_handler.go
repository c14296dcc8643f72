package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/TWRT/buildtrack/internal/models"
	"github.com/TWRT/buildtrack/internal/service"
)

// MaxBodyBytes caps the size of a request body.
const MaxBodyBytes = 1 << 20

type UpdateStatusRequestBody struct {
	Status models.Status `json:"status"`
}

type TaskHandler struct {
	taskService *service.TaskService
}

func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tasks, err := h.taskService.ListTasks(models.CriteriaFromQuery(q), models.SortConfigFromQuery(q))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tasks": tasks,
	})
}

func (h *TaskHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.taskService.Analytics(models.CriteriaFromQuery(r.URL.Query()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var draft models.TaskDraft
	if !readJSON(w, r, &draft) {
		return
	}

	task, err := h.taskService.CreateTask(draft)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"task": task,
	})
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var draft models.TaskDraft
	if !readJSON(w, r, &draft) {
		return
	}

	task, err := h.taskService.UpdateTask(r.PathValue("id"), draft)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"task": task,
	})
}

func (h *TaskHandler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	var body UpdateStatusRequestBody
	if !readJSON(w, r, &body) {
		return
	}

	task, err := h.taskService.UpdateStatus(r.PathValue("id"), body.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"task": task,
	})
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.taskService.DeleteTask(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.taskService.ListUsers()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
	})
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
				"message": "Request body too large",
			})
			return false
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"message": "Error trying to read the body: " + err.Error(),
		})
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"message": "JSON error: " + err.Error(),
		})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the domain error types onto status codes and the
// { "message": ... } envelope the client expects.
func writeError(w http.ResponseWriter, err error) {
	var (
		verr     *models.ValidationError
		notFound *models.NotFoundError
		conflict *models.ConflictError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &conflict):
		status = http.StatusConflict
	default:
		log.Printf("request failed: %v", err)
	}

	writeJSON(w, status, map[string]string{
		"message": err.Error(),
	})
}
