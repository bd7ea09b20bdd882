package model

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

// MinSearchLength is the shortest search text sent to the store.
const MinSearchLength = 3

// Role restricts results to tasks related to the viewer.
type Role int

const (
	RoleAny         Role = iota // no restriction
	RoleAssignee                // assigned to the viewer
	RoleCreator                 // created by the viewer
	RoleParticipant             // assigned to or created by the viewer
)

// String returns the flag/config spelling of the role.
func (r Role) String() string {
	switch r {
	case RoleAssignee:
		return "assignee"
	case RoleCreator:
		return "creator"
	case RoleParticipant:
		return "participant"
	default:
		return "any"
	}
}

// ParseRole parses the flag/config spelling of a role.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any", "all":
		return RoleAny, nil
	case "assignee", "mine":
		return RoleAssignee, nil
	case "creator":
		return RoleCreator, nil
	case "participant":
		return RoleParticipant, nil
	default:
		return RoleAny, fmt.Errorf("unknown role %q", s)
	}
}

// FilterSpec is the set of predicates sent to the task store. Every field is
// optional; the zero value matches every task.
type FilterSpec struct {
	Statuses   []Status `json:"statuses,omitempty"`
	Priority   Priority `json:"priority,omitempty"`
	AssigneeID string   `json:"assignee_id,omitempty"`
	CreatorID  string   `json:"creator_id,omitempty"`
	Search     string   `json:"search,omitempty"`
	Overdue    bool     `json:"overdue,omitempty"`
	Role       Role     `json:"role,omitempty"`
	ViewerID   string   `json:"viewer_id,omitempty"`
}

// Normalized returns a copy with the search text trimmed (and dropped when
// shorter than MinSearchLength), statuses sorted and deduplicated, and the
// role cleared when no viewer is known.
func (f FilterSpec) Normalized() FilterSpec {
	out := f
	out.Search = strings.TrimSpace(f.Search)
	if utf8.RuneCountInString(out.Search) < MinSearchLength {
		out.Search = ""
	}
	if len(f.Statuses) > 0 {
		out.Statuses = slices.Clone(f.Statuses)
		slices.Sort(out.Statuses)
		out.Statuses = slices.Compact(out.Statuses)
	}
	if out.ViewerID == "" {
		out.Role = RoleAny
	}
	return out
}

// IsEmpty reports whether the normalized filter matches everything.
func (f FilterSpec) IsEmpty() bool {
	return f.Key() == FilterSpec{}.Key()
}

// Equal reports whether two filters select the same tasks.
func (f FilterSpec) Equal(other FilterSpec) bool {
	return f.Key() == other.Key()
}

// Key returns a canonical string for caching query results.
func (f FilterSpec) Key() string {
	n := f.Normalized()
	statuses := make([]string, len(n.Statuses))
	for i, s := range n.Statuses {
		statuses[i] = string(s)
	}
	return fmt.Sprintf("st=%s|pr=%s|as=%s|cr=%s|q=%s|od=%t|role=%s|viewer=%s",
		strings.Join(statuses, ","), n.Priority, n.AssigneeID, n.CreatorID,
		strings.ToLower(n.Search), n.Overdue, n.Role, n.ViewerID)
}

// Matches evaluates the filter against a single task. It mirrors the store's
// server-side filtering and exists for in-memory stores and tests; the view
// engine itself never re-filters store results.
func (f FilterSpec) Matches(t Task, today string) bool {
	n := f.Normalized()
	if len(n.Statuses) > 0 && !slices.Contains(n.Statuses, t.Status) {
		return false
	}
	if n.Priority != "" && t.Priority != n.Priority {
		return false
	}
	if n.AssigneeID != "" && t.AssigneeID != n.AssigneeID {
		return false
	}
	if n.CreatorID != "" && t.CreatorID != n.CreatorID {
		return false
	}
	if n.Search != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(n.Search)) {
		return false
	}
	if n.Overdue {
		due, ok := t.DueTime()
		if !ok || t.Status.IsClosed() || due.Format("2006-01-02") >= today {
			return false
		}
	}
	switch n.Role {
	case RoleAssignee:
		return t.AssigneeID == n.ViewerID
	case RoleCreator:
		return t.CreatorID == n.ViewerID
	case RoleParticipant:
		return t.AssigneeID == n.ViewerID || t.CreatorID == n.ViewerID
	}
	return true
}
