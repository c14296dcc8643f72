package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/TWRT/buildtrack/internal/models"
)

var ErrTaskNotFound = errors.New("task not found")

// TaskRepository stores each task as a JSON document. project_id and status
// are copied into columns so they can be indexed.
type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(task models.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}

	query := `
	INSERT INTO tasks (id, project_id, status, data)
        VALUES (?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, task.ID, task.Project.ID, task.Status, string(data))
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) Update(task models.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}

	query := `UPDATE tasks SET project_id = ?, status = ?, data = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	result, err := r.db.Exec(query, task.Project.ID, task.Status, string(data), task.ID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return requireRow(result)
}

func (r *TaskRepository) Get(id string) (models.Task, error) {
	var data string
	err := r.db.QueryRow(`SELECT data FROM tasks WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, ErrTaskNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return decodeTask(data)
}

// List returns every task in insertion order.
func (r *TaskRepository) List() ([]models.Task, error) {
	rows, err := r.db.Query(`SELECT data FROM tasks ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		task, err := decodeTask(data)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (r *TaskRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return requireRow(result)
}

func decodeTask(data string) (models.Task, error) {
	var task models.Task
	if err := json.Unmarshal([]byte(data), &task); err != nil {
		return models.Task{}, fmt.Errorf("parse stored task: %w", err)
	}
	return task, nil
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTaskNotFound
	}
	return nil
}
