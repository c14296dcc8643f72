package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/TWRT/buildtrack/internal/board"
	"github.com/TWRT/buildtrack/internal/models"
	"github.com/TWRT/buildtrack/internal/repository"
	"github.com/google/uuid"
)

// TaskService is the server side of the task API used by the reference
// server and the seed command.
type TaskService struct {
	taskRepo *repository.TaskRepository
	userRepo *repository.UserRepository
	now      func() time.Time
}

func NewTaskService(
	taskRepo *repository.TaskRepository,
	userRepo *repository.UserRepository,
) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		userRepo: userRepo,
		now:      time.Now,
	}
}

func (s *TaskService) ListTasks(criteria models.Criteria, sort models.SortConfig) ([]models.Task, error) {
	tasks, err := s.taskRepo.List()
	if err != nil {
		return nil, fmt.Errorf("get tasks: %w", err)
	}
	visible := board.Visible(tasks, criteria, sort)
	if visible == nil {
		visible = []models.Task{}
	}
	return visible, nil
}

func (s *TaskService) Analytics(criteria models.Criteria) (models.Analytics, error) {
	tasks, err := s.taskRepo.List()
	if err != nil {
		return models.Analytics{}, fmt.Errorf("get tasks: %w", err)
	}
	return board.Summarize(board.Filter(tasks, criteria), s.now()), nil
}

func (s *TaskService) CreateTask(draft models.TaskDraft) (*models.Task, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	task := models.Task{
		ID:        uuid.NewString(),
		Status:    models.StatusNotStarted,
		CreatedAt: now,
	}
	if err := s.applyDraft(&task, draft, now); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return &task, nil
}

func (s *TaskService) UpdateTask(id string, draft models.TaskDraft) (*models.Task, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	task, err := s.getTask(id)
	if err != nil {
		return nil, err
	}
	if err := s.applyDraft(&task, draft, s.now().UTC()); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return &task, nil
}

func (s *TaskService) UpdateStatus(id string, status models.Status) (*models.Task, error) {
	if _, err := models.ParseStatus(string(status)); err != nil {
		return nil, err
	}

	task, err := s.getTask(id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	setStatus(&task, status, now)
	task.UpdatedAt = now

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("update task status: %w", err)
	}
	return &task, nil
}

func (s *TaskService) DeleteTask(id string) error {
	err := s.taskRepo.Delete(id)
	if errors.Is(err, repository.ErrTaskNotFound) {
		return &models.NotFoundError{Message: "Task not found"}
	}
	return err
}

func (s *TaskService) ListUsers() ([]models.User, error) {
	users, err := s.userRepo.List()
	if err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

func (s *TaskService) SaveUser(user models.User) error {
	if user.ID == "" || user.Name == "" {
		return &models.ValidationError{Fields: []string{"id", "name"}, Message: "user id and name are required"}
	}
	return s.userRepo.Upsert(user)
}

func (s *TaskService) getTask(id string) (models.Task, error) {
	task, err := s.taskRepo.Get(id)
	if errors.Is(err, repository.ErrTaskNotFound) {
		return models.Task{}, &models.NotFoundError{Message: "Task not found"}
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// applyDraft copies the draft onto task and resolves assignee references.
func (s *TaskService) applyDraft(task *models.Task, draft models.TaskDraft, now time.Time) error {
	assignees, err := s.resolveAssignees(draft.Assignees)
	if err != nil {
		return err
	}

	task.Name = draft.Name
	task.Description = draft.Description
	task.Priority = draft.Priority
	task.Category = draft.Category
	task.StartDate = draft.StartDate
	task.EndDate = draft.EndDate
	task.PercentageComplete = clampPercentage(draft.PercentageComplete)
	task.EstimatedHours = draft.EstimatedHours
	task.Project = models.ProjectRef{ID: draft.Project}
	task.Assignees = assignees
	task.Checklist = draft.Checklist
	if task.Checklist == nil {
		task.Checklist = []models.ChecklistItem{}
	}
	task.UpdatedAt = now

	status := task.Status
	if draft.Status != "" {
		status = draft.Status
	}
	setStatus(task, status, now)
	return nil
}

func (s *TaskService) resolveAssignees(in []models.DraftAssignee) ([]models.Assignee, error) {
	out := make([]models.Assignee, 0, len(in))
	if len(in) == 0 {
		return out, nil
	}

	ids := make([]string, len(in))
	for i, a := range in {
		ids[i] = a.User
	}
	users, err := s.userRepo.GetByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("resolve assignees: %w", err)
	}

	for _, a := range in {
		u, ok := users[a.User]
		if !ok {
			return nil, &models.ConflictError{Message: fmt.Sprintf("Assignee %s not found", a.User)}
		}
		out = append(out, models.Assignee{
			User: models.UserRef{ID: u.ID, Name: u.Name, Email: u.Email},
			Role: a.Role,
		})
	}
	return out, nil
}

// setStatus also maintains the fields the server derives from the status.
func setStatus(task *models.Task, status models.Status, now time.Time) {
	if status == models.StatusCompleted {
		task.PercentageComplete = 100
		if task.Status != models.StatusCompleted || task.CompletedAt == nil {
			completed := now
			task.CompletedAt = &completed
		}
	} else {
		task.CompletedAt = nil
	}
	task.Status = status
}

func clampPercentage(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
