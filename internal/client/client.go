package client

import (
	"context"

	"github.com/TWRT/buildtrack/internal/models"
)

// TaskClient is the Remote Task Service as seen by the board.
type TaskClient interface {
	ListTasks(ctx context.Context, criteria models.Criteria, sort models.SortConfig) ([]models.Task, error)
	CreateTask(ctx context.Context, draft models.TaskDraft) (*models.Task, error)
	UpdateTask(ctx context.Context, id string, draft models.TaskDraft) (*models.Task, error)
	UpdateTaskStatus(ctx context.Context, id string, status models.Status) (*models.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

type AnalyticsProvider interface {
	GetAnalytics(ctx context.Context, criteria models.Criteria) (*models.Analytics, error)
}

type UserProvider interface {
	GetUsers(ctx context.Context) ([]models.User, error)
}

type RemoteTaskService interface {
	TaskClient
	AnalyticsProvider
	UserProvider
}
