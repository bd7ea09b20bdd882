// Package model defines the task types shared by the view engine, the task
// store and the terminal client.
package model

import (
	"strings"
	"time"
)

// Status is the workflow state of a task.
type Status string

const (
	StatusNew        Status = "new"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusInReview   Status = "in_review"
	StatusOnHold     Status = "on_hold"
	StatusDone       Status = "done"
	StatusCancelled  Status = "cancelled"
	StatusDraft      Status = "draft"
)

// UnknownRank is the sort rank given to unrecognized statuses and priorities.
const UnknownRank = 99

// Statuses lists every known status in workflow order.
var Statuses = []Status{
	StatusNew, StatusAssigned, StatusInProgress, StatusInReview,
	StatusOnHold, StatusDone, StatusCancelled, StatusDraft,
}

// Rank returns the workflow position of the status (new first, draft last).
// Unknown statuses rank after every known one.
func (s Status) Rank() int {
	switch s {
	case StatusNew:
		return 0
	case StatusAssigned:
		return 1
	case StatusInProgress:
		return 2
	case StatusInReview:
		return 3
	case StatusOnHold:
		return 4
	case StatusDone:
		return 5
	case StatusCancelled:
		return 6
	case StatusDraft:
		return 7
	default:
		return UnknownRank
	}
}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	return s.Rank() != UnknownRank
}

// IsClosed reports whether the task no longer needs work.
func (s Status) IsClosed() bool {
	return s == StatusDone || s == StatusCancelled
}

// Label returns a short human-readable label.
func (s Status) Label() string {
	switch s {
	case StatusInProgress:
		return "in progress"
	case StatusInReview:
		return "in review"
	case StatusOnHold:
		return "on hold"
	default:
		return string(s)
	}
}

// ParseStatus converts user input ("in-progress", "Done") into a Status.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	return st, st.IsValid()
}

// Priority is the urgency of a task.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Priorities lists every known priority, most urgent first.
var Priorities = []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}

// Rank returns 0 for critical through 3 for low; unknown priorities rank last.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return UnknownRank
	}
}

// IsValid reports whether p is one of the known priorities.
func (p Priority) IsValid() bool {
	return p.Rank() != UnknownRank
}

// Next returns the next lower priority, wrapping from low back to critical.
func (p Priority) Next() Priority {
	r := p.Rank()
	if r == UnknownRank || r >= len(Priorities)-1 {
		return Priorities[0]
	}
	return Priorities[r+1]
}

// ParsePriority converts user input into a Priority.
func ParsePriority(s string) (Priority, bool) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	return p, p.IsValid()
}

// Task is a single unit of work as returned by the task store.
//
// Dates are kept as the ISO-8601 strings the store hands out; ordering
// compares them lexicographically. Use DueTime/CreatedTime when a parsed
// value is needed.
type Task struct {
	ID            string   `json:"id"`
	ParentID      string   `json:"parent_id,omitempty"`
	Path          string   `json:"path,omitempty"`
	Depth         int      `json:"depth"`
	ChildrenCount int      `json:"children_count"`
	Title         string   `json:"title"`
	Status        Status   `json:"status"`
	Priority      Priority `json:"priority"`
	DueDate       string   `json:"due_date,omitempty"`
	AssigneeID    string   `json:"assignee_id,omitempty"`
	CreatorID     string   `json:"creator_id,omitempty"`
	ProjectID     string   `json:"project_id,omitempty"`
	CreatedAt     string   `json:"created_at,omitempty"`
}

// HasChildren reports whether the task may be expanded.
func (t Task) HasChildren() bool {
	return t.ChildrenCount > 0
}

// IsRootLevel reports whether the task has no parent at all.
func (t Task) IsRootLevel() bool {
	return t.ParentID == ""
}

// DueTime parses DueDate. ok is false for missing or malformed values.
func (t Task) DueTime() (time.Time, bool) {
	return ParseDate(t.DueDate)
}

// CreatedTime parses CreatedAt. ok is false for missing or malformed values.
func (t Task) CreatedTime() (time.Time, bool) {
	return ParseDate(t.CreatedAt)
}

// IsOverdue reports whether the task is still open past its due date.
func (t Task) IsOverdue(now time.Time) bool {
	if t.Status.IsClosed() {
		return false
	}
	due, ok := t.DueTime()
	if !ok {
		return false
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return due.Before(today)
}

// dateLayouts are the ISO-8601 shapes accepted from the store.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// ParseDate parses an ISO-8601 date or timestamp.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// Project is a named container for tasks.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PathSeparator separates ancestor ids in Task.Path.
const PathSeparator = "/"

// ChildPath returns the materialized path of a child id under parentPath.
func ChildPath(parentPath, id string) string {
	if parentPath == "" {
		return id
	}
	return parentPath + PathSeparator + id
}
