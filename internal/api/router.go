package api

import (
	"crypto/subtle"
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/TWRT/buildtrack/internal/api/handlers"
	"github.com/TWRT/buildtrack/internal/repository"
	"github.com/TWRT/buildtrack/internal/service"
)

func SetupRouter(db *sql.DB, token string) http.Handler {
	taskRepo := repository.NewTaskRepository(db)
	userRepo := repository.NewUserRepository(db)

	taskService := service.NewTaskService(taskRepo, userRepo)

	return NewRouter(taskService, token)
}

// NewRouter wires the task routes behind the bearer check.
func NewRouter(taskService *service.TaskService, token string) http.Handler {
	mux := http.NewServeMux()

	taskHandler := handlers.NewTaskHandler(taskService)

	mux.HandleFunc("GET /tasks", taskHandler.ListTasks)
	mux.HandleFunc("GET /tasks/analytics", taskHandler.GetAnalytics)
	mux.HandleFunc("POST /tasks", taskHandler.CreateTask)
	mux.HandleFunc("PUT /tasks/{id}", taskHandler.UpdateTask)
	mux.HandleFunc("PATCH /tasks/{id}/status", taskHandler.UpdateTaskStatus)
	mux.HandleFunc("DELETE /tasks/{id}", taskHandler.DeleteTask)

	mux.HandleFunc("GET /users", taskHandler.ListUsers)

	return requireBearer(token, mux)
}

func requireBearer(token string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{
				"message": "Missing or invalid bearer token",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
