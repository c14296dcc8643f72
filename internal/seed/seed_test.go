package seed

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TWRT/buildtrack/internal/models"
	"github.com/TWRT/buildtrack/internal/repository"
	"github.com/TWRT/buildtrack/internal/service"
)

const fixture = `
users:
  - id: u1
    name: Ana
    email: ana@site.test
tasks:
  - name: Pour slab
    description: Level 1 slab
    status: in_progress
    priority: high
    category: construction
    startDate: 2025-04-01T00:00:00Z
    endDate: 2025-04-15T00:00:00Z
    project: p1
    assignees:
      - user: u1
        role: lead
    checklist:
      - item: Rebar inspected
        completed: true
  - name: Order windows
    description: North facade
    priority: medium
    category: procurement
    startDate: 2025-04-02T00:00:00Z
    endDate: 2025-05-02T00:00:00Z
    project: p1
`

func TestParse(t *testing.T) {
	f, err := Parse(strings.NewReader(fixture))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if len(f.Users) != 1 || f.Users[0].Email != "ana@site.test" {
		t.Errorf("unexpected users %+v", f.Users)
	}
	if len(f.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(f.Tasks))
	}
	first := f.Tasks[0]
	if first.Status != models.StatusInProgress || first.StartDate == nil || first.StartDate.Day() != 1 {
		t.Errorf("unexpected first task %+v", first)
	}
	if len(first.Assignees) != 1 || first.Assignees[0].Role != models.RoleLead {
		t.Errorf("unexpected assignees %+v", first.Assignees)
	}
	if len(first.Checklist) != 1 || !first.Checklist[0].Completed {
		t.Errorf("unexpected checklist %+v", first.Checklist)
	}
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse(strings.NewReader("tasks:\n  - nmae: typo\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestApply_IntoDatabase(t *testing.T) {
	db, err := repository.InitDB(filepath.Join(t.TempDir(), "seed.db"))
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	defer db.Close()
	svc := service.NewTaskService(repository.NewTaskRepository(db), repository.NewUserRepository(db))

	f, err := Parse(strings.NewReader(fixture))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	res, err := Apply(svc, f)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if res.Users != 1 || res.Tasks != 2 {
		t.Errorf("unexpected result %+v", res)
	}

	tasks, err := svc.ListTasks(models.Criteria{AssigneeID: "u1"}, models.SortConfig{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Name != "Pour slab" {
		t.Errorf("expected the assigned task, got %+v", tasks)
	}
}

type failingTarget struct {
	created int
}

func (f *failingTarget) SaveUser(models.User) error { return nil }

func (f *failingTarget) CreateTask(d models.TaskDraft) (*models.Task, error) {
	if f.created == 1 {
		return nil, &models.ConflictError{Message: "Assignee u9 not found"}
	}
	f.created++
	return &models.Task{ID: "t", Name: d.Name}, nil
}

func TestApply_StopsAtFirstFailure(t *testing.T) {
	f, err := Parse(strings.NewReader(fixture))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	res, err := Apply(&failingTarget{}, f)
	var conflict *models.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected wrapped ConflictError, got %v", err)
	}
	if res.Tasks != 1 {
		t.Errorf("expected 1 task before failure, got %d", res.Tasks)
	}
}
