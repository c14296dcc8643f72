// Package testutil provides test doubles shared by the buildtrack packages.
package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/TWRT/buildtrack/internal/models"
)

var ErrMockNetwork = errors.New("connection refused")

// MockTaskClient implements client.TaskClient. Each method delegates to its
// Func field when set; every call is recorded by name.
type MockTaskClient struct {
	ListTasksFunc        func(ctx context.Context, criteria models.Criteria, sort models.SortConfig) ([]models.Task, error)
	CreateTaskFunc       func(ctx context.Context, draft models.TaskDraft) (*models.Task, error)
	UpdateTaskFunc       func(ctx context.Context, id string, draft models.TaskDraft) (*models.Task, error)
	UpdateTaskStatusFunc func(ctx context.Context, id string, status models.Status) (*models.Task, error)
	DeleteTaskFunc       func(ctx context.Context, id string) error

	mu    sync.Mutex
	calls []string
}

func (m *MockTaskClient) ListTasks(ctx context.Context, criteria models.Criteria, sort models.SortConfig) ([]models.Task, error) {
	m.record("ListTasks")
	if m.ListTasksFunc != nil {
		return m.ListTasksFunc(ctx, criteria, sort)
	}
	return nil, nil
}

func (m *MockTaskClient) CreateTask(ctx context.Context, draft models.TaskDraft) (*models.Task, error) {
	m.record("CreateTask")
	if m.CreateTaskFunc != nil {
		return m.CreateTaskFunc(ctx, draft)
	}
	return &models.Task{ID: "new", Name: draft.Name}, nil
}

func (m *MockTaskClient) UpdateTask(ctx context.Context, id string, draft models.TaskDraft) (*models.Task, error) {
	m.record("UpdateTask")
	if m.UpdateTaskFunc != nil {
		return m.UpdateTaskFunc(ctx, id, draft)
	}
	return &models.Task{ID: id, Name: draft.Name}, nil
}

func (m *MockTaskClient) UpdateTaskStatus(ctx context.Context, id string, status models.Status) (*models.Task, error) {
	m.record("UpdateTaskStatus")
	if m.UpdateTaskStatusFunc != nil {
		return m.UpdateTaskStatusFunc(ctx, id, status)
	}
	return nil, nil
}

func (m *MockTaskClient) DeleteTask(ctx context.Context, id string) error {
	m.record("DeleteTask")
	if m.DeleteTaskFunc != nil {
		return m.DeleteTaskFunc(ctx, id)
	}
	return nil
}

// Calls returns the recorded method names in call order.
func (m *MockTaskClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CallCount returns how many times method was called.
func (m *MockTaskClient) CallCount(method string) int {
	n := 0
	for _, c := range m.Calls() {
		if c == method {
			n++
		}
	}
	return n
}

func (m *MockTaskClient) record(method string) {
	m.mu.Lock()
	m.calls = append(m.calls, method)
	m.mu.Unlock()
}

// MemoryJournal is an in-memory transition journal.
type MemoryJournal[T any] struct {
	mu      sync.Mutex
	Entries []T
}

func (j *MemoryJournal[T]) Create(entry *T) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Entries = append(j.Entries, *entry)
	return nil
}
