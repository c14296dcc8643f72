// Package board holds the in-memory task snapshot of a view and the pure
// functions that derive what the board shows from it.
package board

import "github.com/TWRT/buildtrack/internal/models"

// Store is an immutable snapshot of the tasks of one view. Every mutation
// returns a new Store and leaves the receiver untouched, so a snapshot taken
// before an optimistic update stays valid.
type Store struct {
	tasks []models.Task
}

func NewStore(tasks []models.Task) Store {
	return Store{}.Load(tasks)
}

// Load replaces the whole collection.
func (s Store) Load(tasks []models.Task) Store {
	return Store{tasks: cloneAll(tasks)}
}

func (s Store) Len() int {
	return len(s.tasks)
}

// Tasks returns a copy of the collection in store order.
func (s Store) Tasks() []models.Task {
	return cloneAll(s.tasks)
}

func (s Store) Get(id string) (models.Task, bool) {
	i := s.index(id)
	if i < 0 {
		return models.Task{}, false
	}
	return s.tasks[i].Clone(), true
}

// ApplyStatus sets the status of task id. Unknown ids leave the store as is.
func (s Store) ApplyStatus(id string, status models.Status) Store {
	i := s.index(id)
	if i < 0 {
		return s
	}
	next := s.copy()
	next.tasks[i].Status = status
	return next
}

// ReplaceOne swaps the entry for id with the canonical server record.
func (s Store) ReplaceOne(id string, task models.Task) Store {
	i := s.index(id)
	if i < 0 {
		return s
	}
	next := s.copy()
	next.tasks[i] = task.Clone()
	return next
}

func (s Store) Remove(id string) Store {
	i := s.index(id)
	if i < 0 {
		return s
	}
	tasks := make([]models.Task, 0, len(s.tasks)-1)
	tasks = append(tasks, s.tasks[:i]...)
	tasks = append(tasks, s.tasks[i+1:]...)
	return Store{tasks: tasks}
}

// Add appends a newly created task.
func (s Store) Add(task models.Task) Store {
	tasks := make([]models.Task, 0, len(s.tasks)+1)
	tasks = append(tasks, s.tasks...)
	tasks = append(tasks, task.Clone())
	return Store{tasks: tasks}
}

func (s Store) index(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// copy is shallow per task: callers replace whole fields, never mutate
// slices in place.
func (s Store) copy() Store {
	return Store{tasks: append([]models.Task(nil), s.tasks...)}
}

func cloneAll(tasks []models.Task) []models.Task {
	if tasks == nil {
		return nil
	}
	out := make([]models.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
