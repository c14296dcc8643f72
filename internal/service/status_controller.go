package service

import (
	"context"
	"fmt"
	"log"

	"github.com/TWRT/buildtrack/internal/board"
	"github.com/TWRT/buildtrack/internal/models"
	"github.com/TWRT/buildtrack/internal/repository"
)

// TransitionPolicy decides whether a task may move from one status to
// another. A non-nil error rejects the move before any mutation.
type TransitionPolicy func(from, to models.Status) error

// AllowAnyTransition permits every move between valid statuses.
func AllowAnyTransition(from, to models.Status) error {
	return nil
}

// SetTransitionPolicy replaces the policy; nil restores AllowAnyTransition.
func (s *BoardService) SetTransitionPolicy(p TransitionPolicy) {
	if p == nil {
		p = AllowAnyTransition
	}
	s.mu.Lock()
	s.policy = p
	s.mu.Unlock()
}

// Transition is an optimistic status change waiting for the server.
// Sequence grows per task; only the latest one may write its confirmation.
type Transition struct {
	TaskID   string
	From     models.Status
	To       models.Status
	Sequence int64
}

// ChangeStatus runs the whole optimistic protocol. Server failures are
// healed by a reload and only surface if the reload fails too.
func (s *BoardService) ChangeStatus(ctx context.Context, id string, status models.Status) error {
	tr, err := s.BeginStatusChange(id, status)
	if err != nil {
		return err
	}
	_, err = s.CompleteStatusChange(ctx, tr)
	return err
}

// BeginStatusChange validates the move and applies it to the snapshot
// immediately.
func (s *BoardService) BeginStatusChange(id string, status models.Status) (Transition, error) {
	if !status.Valid() {
		return Transition{}, &models.ValidationError{
			Fields:  []string{"status"},
			Message: fmt.Sprintf("invalid status %q", status),
		}
	}

	var tr Transition
	var rejected error
	s.mutate(func(st board.Store) (board.Store, bool) {
		task, ok := st.Get(id)
		if !ok {
			rejected = &models.NotFoundError{Message: fmt.Sprintf("task %s not found", id)}
			return st, false
		}
		if err := s.policy(task.Status, status); err != nil {
			rejected = &models.ValidationError{Fields: []string{"status"}, Message: err.Error()}
			return st, false
		}
		s.seq[id]++
		tr = Transition{TaskID: id, From: task.Status, To: status, Sequence: s.seq[id]}
		return st.ApplyStatus(id, status), true
	})
	if rejected != nil {
		return Transition{}, rejected
	}
	return tr, nil
}

// CompleteStatusChange sends the change and reconciles the snapshot with the
// answer: the canonical task on success, a full reload on any failure. The
// outcome says which of those happened.
func (s *BoardService) CompleteStatusChange(ctx context.Context, tr Transition) (repository.TransitionOutcome, error) {
	task, err := s.client.UpdateTaskStatus(ctx, tr.TaskID, tr.To)
	if err == nil {
		return s.confirm(tr, task), nil
	}

	log.Printf("status change %s %s -> %s failed, reloading: %v", tr.TaskID, tr.From, tr.To, err)

	reloadErr := s.Reload(ctx)
	if reloadErr == nil {
		s.record(journalEntry(tr, repository.OutcomeReloaded, err))
		return repository.OutcomeReloaded, nil
	}

	// Without fresh data the optimistic value is known to be wrong, so put
	// back the status the task had before, unless a newer move replaced it.
	s.mutate(func(st board.Store) (board.Store, bool) {
		if s.seq[tr.TaskID] != tr.Sequence {
			return st, false
		}
		return st.ApplyStatus(tr.TaskID, tr.From), true
	})

	log.Printf("reload after failed status change %s: %v", tr.TaskID, reloadErr)
	s.record(journalEntry(tr, repository.OutcomeReloadFailed, err))
	return repository.OutcomeReloadFailed, fmt.Errorf("status change failed: %v; reload failed: %w", err, reloadErr)
}

func (s *BoardService) confirm(tr Transition, task *models.Task) repository.TransitionOutcome {
	stale := false
	s.mutate(func(st board.Store) (board.Store, bool) {
		if s.seq[tr.TaskID] != tr.Sequence {
			stale = true
			return st, false
		}
		if task == nil || task.ID == "" {
			return st, false
		}
		return st.ReplaceOne(tr.TaskID, *task), true
	})

	outcome := repository.OutcomeConfirmed
	if stale {
		outcome = repository.OutcomeStale
	}
	s.record(journalEntry(tr, outcome, nil))
	return outcome
}

func journalEntry(tr Transition, outcome repository.TransitionOutcome, err error) repository.Transition {
	t := repository.Transition{
		TaskID:     tr.TaskID,
		FromStatus: string(tr.From),
		ToStatus:   string(tr.To),
		Sequence:   tr.Sequence,
		Outcome:    outcome,
	}
	if err != nil {
		t.ErrorMessage = err.Error()
	}
	return t
}
