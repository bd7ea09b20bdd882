package testutil

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/vanderheijden86/taskview/pkg/model"
)

// ErrInjected is the default error returned by injected failures.
var ErrInjected = errors.New("injected failure")

// ErrNotFound is returned for unknown task ids.
var ErrNotFound = errors.New("task not found")

// MemoryStore is an in-memory task store with failure injection and call
// counting. It keeps ChildrenCount consistent on delete.
type MemoryStore struct {
	mu       sync.Mutex
	tasks    map[string]model.Task
	order    []string
	projects []model.Project
	today    string

	failList     error
	failChildren map[string]error
	failMutate   map[string]error
	gate         chan struct{}

	calls map[string]int
}

// NewMemoryStore creates a store holding tasks.
func NewMemoryStore(tasks []model.Task, projects ...model.Project) *MemoryStore {
	s := &MemoryStore{
		tasks:        make(map[string]model.Task, len(tasks)),
		projects:     projects,
		today:        time.Now().Format(time.DateOnly),
		failChildren: make(map[string]error),
		failMutate:   make(map[string]error),
		calls:        make(map[string]int),
	}
	for _, t := range tasks {
		s.tasks[t.ID] = t
		s.order = append(s.order, t.ID)
	}
	return s
}

// SetToday fixes the date used for the overdue filter.
func (s *MemoryStore) SetToday(day string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.today = day
}

// FailList makes ListTasks return err (nil clears).
func (s *MemoryStore) FailList(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failList = err
}

// FailChildren makes ListChildren(id) return err (nil clears).
func (s *MemoryStore) FailChildren(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failChildren, id)
		return
	}
	s.failChildren[id] = err
}

// FailMutation makes every mutation of id return err (nil clears).
func (s *MemoryStore) FailMutation(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failMutate, id)
		return
	}
	s.failMutate[id] = err
}

// Block makes ListChildren wait until Release is called.
func (s *MemoryStore) Block() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gate = make(chan struct{})
}

// Release unblocks pending and future ListChildren calls.
func (s *MemoryStore) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gate != nil {
		close(s.gate)
		s.gate = nil
	}
}

// Calls returns how often method was called.
func (s *MemoryStore) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

// Task returns the stored task with id.
func (s *MemoryStore) Task(id string) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	return t, ok
}

func (s *MemoryStore) count(method string) {
	s.calls[method]++
}

// ListTasks implements view.TaskLister.
func (s *MemoryStore) ListTasks(ctx context.Context, filter model.FilterSpec) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("ListTasks")
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.failList != nil {
		return nil, s.failList
	}
	var out []model.Task
	for _, id := range s.order {
		if t, ok := s.tasks[id]; ok && filter.Matches(t, s.today) {
			out = append(out, t)
		}
	}
	return out, nil
}

// ListChildren implements view.TaskLister.
func (s *MemoryStore) ListChildren(ctx context.Context, id string) ([]model.Task, error) {
	s.mu.Lock()
	s.count("ListChildren")
	gate := s.gate
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failChildren[id]; err != nil {
		return nil, err
	}
	var out []model.Task
	for _, cid := range s.order {
		if t, ok := s.tasks[cid]; ok && t.ParentID == id {
			out = append(out, t)
		}
	}
	return out, nil
}

// ListProjects implements view.TaskLister.
func (s *MemoryStore) ListProjects(context.Context) ([]model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("ListProjects")
	return slices.Clone(s.projects), nil
}

func (s *MemoryStore) mutate(method, id string, fn func(*model.Task)) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count(method)
	if err := s.failMutate[id]; err != nil {
		return model.Task{}, err
	}
	t, ok := s.tasks[id]
	if !ok {
		return model.Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	fn(&t)
	s.tasks[id] = t
	return t, nil
}

// UpdateStatus implements view.Mutator.
func (s *MemoryStore) UpdateStatus(_ context.Context, id string, status model.Status) (model.Task, error) {
	return s.mutate("UpdateStatus", id, func(t *model.Task) { t.Status = status })
}

// UpdatePriority implements view.Mutator.
func (s *MemoryStore) UpdatePriority(_ context.Context, id string, p model.Priority) (model.Task, error) {
	return s.mutate("UpdatePriority", id, func(t *model.Task) { t.Priority = p })
}

// UpdateAssignee implements view.Mutator.
func (s *MemoryStore) UpdateAssignee(_ context.Context, id string, assignee string) (model.Task, error) {
	return s.mutate("UpdateAssignee", id, func(t *model.Task) { t.AssigneeID = assignee })
}

// DeleteTask implements view.Mutator. Descendants go with their parent.
func (s *MemoryStore) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("DeleteTask")
	if err := s.failMutate[id]; err != nil {
		return err
	}
	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.deleteLocked(id)
	if parent, ok := s.tasks[t.ParentID]; ok {
		parent.ChildrenCount--
		s.tasks[parent.ID] = parent
	}
	return nil
}

func (s *MemoryStore) deleteLocked(id string) {
	delete(s.tasks, id)
	for cid, t := range s.tasks {
		if t.ParentID == id {
			s.deleteLocked(cid)
		}
	}
}
