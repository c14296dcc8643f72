package service

import (
	"context"
	"fmt"
	"log"
	"slices"
	"sync"

	"github.com/TWRT/buildtrack/internal/board"
	"github.com/TWRT/buildtrack/internal/client"
	"github.com/TWRT/buildtrack/internal/models"
	"github.com/TWRT/buildtrack/internal/repository"
)

// ConfirmFunc is the yes/no gate asked before a destructive call.
type ConfirmFunc func(prompt string) bool

type TransitionJournal interface {
	Create(t *repository.Transition) error
}

// BoardService keeps the task snapshot of one view in sync with the Remote
// Task Service. The lock only guards snapshot swaps; it is never held across
// a network call.
type BoardService struct {
	client  client.TaskClient
	journal TransitionJournal
	policy  TransitionPolicy

	mu        sync.Mutex
	store     board.Store
	criteria  models.Criteria
	sort      models.SortConfig
	err       error
	seq       map[string]int64
	listeners []func(board.Store)
}

// NewBoardService builds a service. journal may be nil.
func NewBoardService(taskClient client.TaskClient, journal TransitionJournal) *BoardService {
	return &BoardService{
		client:  taskClient,
		journal: journal,
		policy:  AllowAnyTransition,
		seq:     make(map[string]int64),
	}
}

// Snapshot returns the current task snapshot.
func (s *BoardService) Snapshot() board.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store
}

// Err is the error of the last failed list refresh, nil after a successful one.
func (s *BoardService) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// View returns the criteria and sort used by the last FetchAll.
func (s *BoardService) View() (models.Criteria, models.SortConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.criteria, s.sort
}

// Subscribe registers fn to be called with every new snapshot.
func (s *BoardService) Subscribe(fn func(board.Store)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// FetchAll replaces the snapshot with the server's list. On failure the
// previous contents are kept and the error is recorded.
func (s *BoardService) FetchAll(ctx context.Context, criteria models.Criteria, sort models.SortConfig) error {
	s.mu.Lock()
	s.criteria = criteria
	s.sort = sort
	s.mu.Unlock()

	tasks, err := s.client.ListTasks(ctx, criteria, sort)
	if err != nil {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		return fmt.Errorf("fetch tasks: %w", err)
	}

	s.update(func(st board.Store) board.Store {
		s.err = nil
		return st.Load(tasks)
	})
	return nil
}

// Reload repeats the last FetchAll.
func (s *BoardService) Reload(ctx context.Context) error {
	criteria, sort := s.View()
	return s.FetchAll(ctx, criteria, sort)
}

func (s *BoardService) Create(ctx context.Context, draft models.TaskDraft) (*models.Task, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	task, err := s.client.CreateTask(ctx, draft)
	if err != nil {
		return nil, err
	}

	created := *task
	s.update(func(st board.Store) board.Store { return st.Add(created) })
	return task, nil
}

func (s *BoardService) Update(ctx context.Context, id string, draft models.TaskDraft) (*models.Task, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	task, err := s.client.UpdateTask(ctx, id, draft)
	if err != nil {
		return nil, err
	}

	updated := *task
	s.update(func(st board.Store) board.Store { return st.ReplaceOne(id, updated) })
	return task, nil
}

// Delete asks confirm first. A declined confirmation makes no network call
// and reports false.
func (s *BoardService) Delete(ctx context.Context, id string, confirm ConfirmFunc) (bool, error) {
	prompt := fmt.Sprintf("Delete task %s?", id)
	if task, ok := s.Snapshot().Get(id); ok {
		prompt = fmt.Sprintf("Delete task %q?", task.Name)
	}
	if confirm == nil || !confirm(prompt) {
		return false, nil
	}

	if err := s.client.DeleteTask(ctx, id); err != nil {
		return false, err
	}

	s.update(func(st board.Store) board.Store { return st.Remove(id) })
	return true, nil
}

// update swaps the snapshot under the lock and notifies listeners after
// releasing it.
func (s *BoardService) update(fn func(board.Store) board.Store) {
	s.mutate(func(st board.Store) (board.Store, bool) { return fn(st), true })
}

// mutate is update for callers that may decide, under the lock, to leave
// the snapshot alone. Listeners only hear about real changes.
func (s *BoardService) mutate(fn func(board.Store) (board.Store, bool)) bool {
	s.mu.Lock()
	next, changed := fn(s.store)
	if !changed {
		s.mu.Unlock()
		return false
	}
	s.store = next
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l(next)
	}
	return true
}

func (s *BoardService) record(t repository.Transition) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Create(&t); err != nil {
		log.Printf("journal transition %s: %v", t.TaskID, err)
	}
}
