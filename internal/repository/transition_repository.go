package repository

import (
	"database/sql"
	"fmt"
	"time"
)

type TransitionOutcome string

const (
	OutcomeConfirmed    TransitionOutcome = "confirmed"
	OutcomeStale        TransitionOutcome = "stale"
	OutcomeReloaded     TransitionOutcome = "reloaded"
	OutcomeReloadFailed TransitionOutcome = "reload_failed"
)

// Transition is one journaled status change and how it ended.
type Transition struct {
	ID           int64
	TaskID       string
	FromStatus   string
	ToStatus     string
	Sequence     int64
	Outcome      TransitionOutcome
	ErrorMessage string
	CreatedAt    time.Time
}

type TransitionRepository struct {
	db *sql.DB
}

func NewTransitionRepository(db *sql.DB) *TransitionRepository {
	return &TransitionRepository{db: db}
}

func (r *TransitionRepository) Create(t *Transition) error {
	query := `
		INSERT INTO transitions (task_id, from_status, to_status, sequence, outcome, error_message)
        VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		t.TaskID,
		t.FromStatus,
		t.ToStatus,
		t.Sequence,
		t.Outcome,
		t.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("create transition: %w", err)
	}
	return nil
}

// ListByTask returns the journal of one task, oldest first.
func (r *TransitionRepository) ListByTask(taskID string) ([]Transition, error) {
	query := `
	SELECT id, task_id, from_status, to_status, sequence, outcome, COALESCE(error_message, ''), created_at
	FROM transitions WHERE task_id = ? ORDER BY id
	`
	rows, err := r.db.Query(query, taskID)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	defer rows.Close()

	var transitions []Transition
	for rows.Next() {
		var t Transition
		err := rows.Scan(
			&t.ID,
			&t.TaskID,
			&t.FromStatus,
			&t.ToStatus,
			&t.Sequence,
			&t.Outcome,
			&t.ErrorMessage,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		transitions = append(transitions, t)
	}
	return transitions, rows.Err()
}
