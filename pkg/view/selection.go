package view

import (
	"slices"
	"sync"
)

// SelectionSet is the set of task ids picked for bulk actions. It is keyed by
// id, so it survives paging, sorting and expansion.
type SelectionSet struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

// NewSelectionSet returns an empty selection.
func NewSelectionSet() *SelectionSet {
	return &SelectionSet{ids: make(map[string]struct{})}
}

// Select adds (selected) or removes (!selected) id.
func (s *SelectionSet) Select(id string, selected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if selected {
		s.ids[id] = struct{}{}
	} else {
		delete(s.ids, id)
	}
}

// Toggle flips id and returns whether it is now selected.
func (s *SelectionSet) Toggle(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Contains reports whether id is selected.
func (s *SelectionSet) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected ids.
func (s *SelectionSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// IDs returns the selected ids in ascending order.
func (s *SelectionSet) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Clear empties the selection.
func (s *SelectionSet) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.ids)
}

// Retain drops every id for which keep returns false and returns the dropped
// ids in ascending order.
func (s *SelectionSet) Retain(keep func(id string) bool) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var dropped []string
	for id := range s.ids {
		if !keep(id) {
			dropped = append(dropped, id)
		}
	}
	for _, id := range dropped {
		delete(s.ids, id)
	}
	slices.Sort(dropped)
	return dropped
}
