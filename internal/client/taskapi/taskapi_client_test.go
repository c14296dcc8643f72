package taskapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/TWRT/buildtrack/internal/models"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *TaskAPIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewTaskAPIClient(srv.URL+"/", "secret-token")
}

func TestListTasks_SendsBearerAndQuery(t *testing.T) {
	var gotAuth, gotPath string
	var gotQuery map[string][]string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(map[string]any{
			"tasks": []map[string]any{
				{"_id": "1", "name": "Pour slab", "status": "in_progress", "project": "p1"},
			},
		})
	})

	tasks, err := c.ListTasks(context.Background(),
		models.Criteria{Status: models.StatusInProgress, Search: "slab"},
		models.SortConfig{By: models.SortByName, Order: models.SortDesc})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if gotAuth != "Bearer secret-token" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
	if gotPath != "/tasks" {
		t.Errorf("expected /tasks, got %s", gotPath)
	}
	for key, want := range map[string]string{"status": "in_progress", "search": "slab", "sortBy": "name", "sortOrder": "desc"} {
		if len(gotQuery[key]) != 1 || gotQuery[key][0] != want {
			t.Errorf("expected query %s=%s, got %v", key, want, gotQuery[key])
		}
	}
	if len(tasks) != 1 || tasks[0].ID != "1" || tasks[0].Project.ID != "p1" {
		t.Errorf("unexpected tasks %+v", tasks)
	}
}

func TestUpdateTaskStatus_PatchesStatus(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody UpdateStatusRequest
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"task": map[string]any{"_id": "7", "status": "completed", "percentageComplete": 100},
		})
	})

	task, err := c.UpdateTaskStatus(context.Background(), "7", models.StatusCompleted)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotMethod != http.MethodPatch || gotPath != "/tasks/7/status" {
		t.Errorf("expected PATCH /tasks/7/status, got %s %s", gotMethod, gotPath)
	}
	if gotBody.Status != models.StatusCompleted {
		t.Errorf("expected status body completed, got %q", gotBody.Status)
	}
	if task.PercentageComplete != 100 {
		t.Errorf("expected canonical task, got %+v", task)
	}
}

func TestCreateTask_ExpectsCreated(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"task": map[string]any{"_id": "new", "name": "Inspect scaffold"}})
	})

	task, err := c.CreateTask(context.Background(), models.TaskDraft{Name: "Inspect scaffold"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if task.ID != "new" {
		t.Errorf("expected id new, got %q", task.ID)
	}
}

func TestCreateTask_AcceptsAnySuccessStatus(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"task": map[string]any{"_id": "new", "name": "Inspect scaffold"}})
	})

	task, err := c.CreateTask(context.Background(), models.TaskDraft{Name: "Inspect scaffold"})
	if err != nil {
		t.Fatalf("expected 200 to be accepted, got %v", err)
	}
	if task.ID != "new" {
		t.Errorf("expected id new, got %q", task.ID)
	}
}

func TestDeleteTask_NoContent(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/tasks/3" {
			t.Errorf("expected DELETE /tasks/3, got %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	if err := c.DeleteTask(context.Background(), "3"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestGetAnalytics(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tasks/analytics" || r.URL.Query().Get("project") != "p1" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		json.NewEncoder(w).Encode(models.Analytics{TotalTasks: 4, CompletedTasks: 1, CompletionRate: 25})
	})

	a, err := c.GetAnalytics(context.Background(), models.Criteria{ProjectID: "p1"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if a.TotalTasks != 4 || a.CompletionRate != 25 {
		t.Errorf("unexpected analytics %+v", a)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"bad request", http.StatusBadRequest, func(err error) bool { var e *models.ValidationError; return errors.As(err, &e) }},
		{"not found", http.StatusNotFound, func(err error) bool { var e *models.NotFoundError; return errors.As(err, &e) }},
		{"conflict", http.StatusConflict, func(err error) bool { var e *models.ConflictError; return errors.As(err, &e) }},
		{"server", http.StatusInternalServerError, func(err error) bool {
			var e *models.ServerError
			return errors.As(err, &e) && e.StatusCode == http.StatusInternalServerError
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(ErrorResponse{Message: "Assignee u9 not found"})
			})
			_, err := c.CreateTask(context.Background(), models.TaskDraft{})
			if !tt.check(err) {
				t.Fatalf("unexpected error type %T: %v", err, err)
			}
			if err.Error() != "Assignee u9 not found" {
				t.Errorf("expected server message verbatim, got %q", err.Error())
			}
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewTaskAPIClient(url, "token")
	_, err := c.ListTasks(context.Background(), models.Criteria{}, models.SortConfig{})
	var nerr *models.NetworkError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected NetworkError, got %T: %v", err, err)
	}
}
