// Package task manages the asynchronous extraction task lifecycle:
// submission, execution, polling, cancellation, and terminal delivery.
package task

import (
	"sync"

	"github.com/use-agent/aurora/models"
)

// Store is an in-memory task registry. Reads return clones so callers can
// never observe a task mid-mutation; writes go through Update under the
// store lock.
type Store struct {
	mu    sync.RWMutex
	tasks map[string]*models.Task
	order []string
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{tasks: make(map[string]*models.Task)}
}

// Put registers a new task. Existing IDs are overwritten in place without
// disturbing the listing order.
func (s *Store) Put(t *models.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks[t.ID]; !exists {
		s.order = append(s.order, t.ID)
	}
	s.tasks[t.ID] = t
}

// Get returns a clone of the task, or false when the ID is unknown.
func (s *Store) Get(id string) (*models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

// Update applies fn to the stored task under the write lock.
func (s *Store) Update(id string, fn func(*models.Task)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return false
	}
	fn(t)
	return true
}

// List returns clones of all tasks in submission order.
func (s *Store) List() []*models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Task, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.tasks[id].Clone())
	}
	return out
}

// Stats counts tasks by liveness for the health endpoint.
func (s *Store) Stats() models.TaskStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := models.TaskStats{Total: len(s.tasks)}
	for _, t := range s.tasks {
		if !t.Status.Terminal() {
			stats.Running++
		}
	}
	return stats
}
