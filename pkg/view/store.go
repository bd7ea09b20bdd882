// Package view implements the task collection view engine: root selection and
// sorting, pagination, the lazy expansion cache and tree flattener, selection
// and bulk mutation, project grouping and search highlighting.
//
// A Session ties the pieces together for one view. The pure transforms
// (SelectRoots, Sorter, Pagination, Flatten, GroupByProject, Highlight) can be
// used on their own.
package view

import (
	"context"
	"errors"

	"github.com/vanderheijden86/taskview/pkg/model"
)

// TaskLister is the read side of the task store.
type TaskLister interface {
	// ListTasks returns every task matching filter, unpaginated, in no
	// particular order.
	ListTasks(ctx context.Context, filter model.FilterSpec) ([]model.Task, error)
	// ListChildren returns every direct child of taskID.
	ListChildren(ctx context.Context, taskID string) ([]model.Task, error)
	// ListProjects returns the known projects for group headings.
	ListProjects(ctx context.Context) ([]model.Project, error)
}

// Mutator is the write side of the task store. Each call acts on exactly one
// task.
type Mutator interface {
	UpdateStatus(ctx context.Context, taskID string, status model.Status) (model.Task, error)
	UpdatePriority(ctx context.Context, taskID string, priority model.Priority) (model.Task, error)
	// UpdateAssignee sets the assignee; an empty assigneeID unassigns.
	UpdateAssignee(ctx context.Context, taskID string, assigneeID string) (model.Task, error)
	DeleteTask(ctx context.Context, taskID string) error
}

// TaskStore is everything the engine needs from the backend.
type TaskStore interface {
	TaskLister
	Mutator
}

var (
	// ErrUnknownTask is returned for ids that are neither in the current
	// result set nor in any fetched subtree.
	ErrUnknownTask = errors.New("unknown task")
	// ErrNotExpandable is returned when toggling a task without children.
	ErrNotExpandable = errors.New("task has no children")
	// ErrEmptySelection is returned when a bulk action runs with nothing
	// selected.
	ErrEmptySelection = errors.New("no tasks selected")
	// ErrBulkFailed wraps the aggregate error of a bulk run in which at
	// least one mutation failed.
	ErrBulkFailed = errors.New("bulk mutation failed")
	// ErrBulkInProgress is returned when a bulk run starts while another one
	// on the same session has not finished.
	ErrBulkInProgress = errors.New("bulk mutation already in progress")
)
