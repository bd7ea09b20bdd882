package view

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vanderheijden86/taskview/pkg/debug"
	"github.com/vanderheijden86/taskview/pkg/metrics"
	"github.com/vanderheijden86/taskview/pkg/model"
)

// QueryCache caches ListTasks and ListProjects results of a TaskLister.
// Concurrent loads of the same filter share one store call. Results loaded
// before an Invalidate are never stored after it.
type QueryCache struct {
	lister TaskLister
	group  singleflight.Group

	mu         sync.Mutex
	tasks      map[string][]model.Task
	projects   []model.Project
	haveProj   bool
	generation uint64
}

// NewQueryCache wraps lister.
func NewQueryCache(lister TaskLister) *QueryCache {
	return &QueryCache{
		lister: lister,
		tasks:  make(map[string][]model.Task),
	}
}

// Tasks returns the tasks matching filter, from cache when possible. The
// returned slice is a copy.
func (q *QueryCache) Tasks(ctx context.Context, filter model.FilterSpec) ([]model.Task, error) {
	key := filter.Key()
	q.mu.Lock()
	if cached, ok := q.tasks[key]; ok {
		q.mu.Unlock()
		metrics.QueryCache.Hit()
		return slices.Clone(cached), nil
	}
	gen := q.generation
	q.mu.Unlock()
	metrics.QueryCache.Miss()

	v, err, _ := q.group.Do(fmt.Sprintf("tasks/%d/%s", gen, key), func() (any, error) {
		defer metrics.TimerWithCallback(metrics.TaskFetch, func(d time.Duration) {
			debug.LogTiming("list_tasks "+key, d)
		})()
		tasks, err := q.lister.ListTasks(ctx, filter.Normalized())
		if err != nil {
			return nil, err
		}
		q.mu.Lock()
		if q.generation == gen {
			q.tasks[key] = tasks
		}
		q.mu.Unlock()
		return tasks, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]model.Task)), nil
}

// Projects returns the known projects, from cache when possible.
func (q *QueryCache) Projects(ctx context.Context) ([]model.Project, error) {
	q.mu.Lock()
	if q.haveProj {
		out := slices.Clone(q.projects)
		q.mu.Unlock()
		return out, nil
	}
	gen := q.generation
	q.mu.Unlock()

	v, err, _ := q.group.Do(fmt.Sprintf("projects/%d", gen), func() (any, error) {
		projects, err := q.lister.ListProjects(ctx)
		if err != nil {
			return nil, err
		}
		q.mu.Lock()
		if q.generation == gen {
			q.projects = projects
			q.haveProj = true
		}
		q.mu.Unlock()
		return projects, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]model.Project)), nil
}

// Children passes through to the lister; subtrees are cached by the
// ExpansionCache instead.
func (q *QueryCache) Children(ctx context.Context, taskID string) ([]model.Task, error) {
	defer metrics.Timer(metrics.ChildrenFetch)()
	return q.lister.ListChildren(ctx, taskID)
}

// Invalidate drops every cached result.
func (q *QueryCache) Invalidate() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.generation++
	clear(q.tasks)
	q.projects = nil
	q.haveProj = false
}

// Len returns the number of cached task queries.
func (q *QueryCache) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}
