package view

import (
	"slices"
	"sync"

	"github.com/vanderheijden86/taskview/pkg/model"
)

// Transition is the outcome of an expand/collapse toggle.
type Transition int

const (
	TransitionNone      Transition = iota // nothing happened (leaf task)
	TransitionCollapsed                   // expanded -> collapsed
	TransitionExpanded                    // collapsed -> expanded from cache
	TransitionFetch                       // collapsed -> loading; caller must fetch
	TransitionPending                     // a fetch for this id is already in flight
)

// String returns a short label for logs.
func (t Transition) String() string {
	switch t {
	case TransitionCollapsed:
		return "collapsed"
	case TransitionExpanded:
		return "expanded"
	case TransitionFetch:
		return "fetch"
	case TransitionPending:
		return "pending"
	default:
		return "none"
	}
}

// FetchTicket identifies one children fetch. Results are only accepted for the
// cache generation the ticket was issued in.
type FetchTicket struct {
	ID         string
	Generation uint64
}

// ExpansionView is the read-only view of expansion state used by Flatten.
type ExpansionView interface {
	IsExpanded(id string) bool
	IsLoading(id string) bool
	Children(id string) ([]model.Task, bool)
}

// ExpansionCache holds which tasks are expanded, which have a children fetch
// in flight, and the children fetched so far.
//
// Per id: collapsed -> loading -> expanded on success, loading -> collapsed on
// failure, and collapsed <-> expanded without a fetch once children are
// cached. An id is never expanded and loading at the same time. Cached
// children are kept until Invalidate.
type ExpansionCache struct {
	mu         sync.Mutex
	expanded   map[string]bool
	loading    map[string]bool
	children   map[string][]model.Task
	generation uint64
}

// NewExpansionCache returns an empty cache with every task collapsed.
func NewExpansionCache() *ExpansionCache {
	return &ExpansionCache{
		expanded: make(map[string]bool),
		loading:  make(map[string]bool),
		children: make(map[string][]model.Task),
	}
}

// Toggle applies an expand/collapse request for task.
//
// Tasks without children never change state. When the result is
// TransitionFetch the id is marked loading and the caller must fetch the
// children and report back through Resolve with the returned ticket. While a
// fetch is in flight further toggles return TransitionPending and issue
// nothing.
func (c *ExpansionCache) Toggle(task model.Task) (Transition, FetchTicket) {
	if !task.HasChildren() {
		return TransitionNone, FetchTicket{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	id := task.ID
	switch {
	case c.expanded[id]:
		delete(c.expanded, id)
		return TransitionCollapsed, FetchTicket{}
	case c.loading[id]:
		return TransitionPending, FetchTicket{ID: id, Generation: c.generation}
	}
	if _, ok := c.children[id]; ok {
		c.expanded[id] = true
		return TransitionExpanded, FetchTicket{}
	}
	c.loading[id] = true
	return TransitionFetch, FetchTicket{ID: id, Generation: c.generation}
}

// Collapse collapses id if it is expanded. It reports whether anything changed.
func (c *ExpansionCache) Collapse(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.expanded[id] {
		return false
	}
	delete(c.expanded, id)
	return true
}

// Resolve settles the fetch identified by ticket. On success the children are
// cached and the task expanded; on failure the task goes back to collapsed.
// Results for a generation that has since been invalidated are dropped.
// It reports whether the task ended up expanded.
func (c *ExpansionCache) Resolve(ticket FetchTicket, children []model.Task, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ticket.Generation != c.generation {
		return false
	}
	delete(c.loading, ticket.ID)
	if err != nil {
		return false
	}
	c.children[ticket.ID] = slices.Clone(children)
	c.expanded[ticket.ID] = true
	return true
}

// Invalidate drops every cached subtree and collapses everything. Fetches
// still in flight will be ignored when they settle.
func (c *ExpansionCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	clear(c.expanded)
	clear(c.loading)
	clear(c.children)
}

// IsExpanded reports whether id is expanded.
func (c *ExpansionCache) IsExpanded(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expanded[id]
}

// IsLoading reports whether a children fetch for id is in flight.
func (c *ExpansionCache) IsLoading(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading[id]
}

// Children returns the cached children of id.
func (c *ExpansionCache) Children(id string) ([]model.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kids, ok := c.children[id]
	return kids, ok
}

// Find looks id up among all cached children.
func (c *ExpansionCache) Find(id string) (model.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, kids := range c.children {
		for i := range kids {
			if kids[i].ID == id {
				return kids[i], true
			}
		}
	}
	return model.Task{}, false
}

// CachedIDs returns the ids of every cached child.
func (c *ExpansionCache) CachedIDs() map[string]struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make(map[string]struct{})
	for _, kids := range c.children {
		for i := range kids {
			ids[kids[i].ID] = struct{}{}
		}
	}
	return ids
}

// Stats returns the number of expanded, loading and cached entries.
func (c *ExpansionCache) Stats() (expanded, loading, cached int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.expanded), len(c.loading), len(c.children)
}
