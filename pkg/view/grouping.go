package view

import (
	"fmt"
	"slices"
	"strings"

	"github.com/vanderheijden86/taskview/pkg/model"
)

// GroupBy selects how roots are bucketed.
type GroupBy int

const (
	GroupNone GroupBy = iota
	GroupProject
)

// NoProjectName is the heading of the bucket for tasks without a project.
const NoProjectName = "No project"

// String returns the flag/config spelling.
func (g GroupBy) String() string {
	if g == GroupProject {
		return "project"
	}
	return "none"
}

// ParseGroupBy parses the flag/config spelling of a grouping.
func ParseGroupBy(s string) (GroupBy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return GroupNone, nil
	case "project":
		return GroupProject, nil
	default:
		return GroupNone, fmt.Errorf("unknown grouping %q", s)
	}
}

// Group is one project bucket. Tasks keep their sorted order.
type Group struct {
	ProjectID string
	Name      string
	Tasks     []model.Task
}

// GroupByProject buckets roots by ProjectID. Named buckets come first, ordered
// by display name and then id; the bucket for tasks without a project is
// always last. names maps project ids to display names; unknown ids are shown
// as the id itself.
func GroupByProject(roots []model.Task, names map[string]string, s *Sorter) []Group {
	if len(roots) == 0 {
		return nil
	}
	index := make(map[string]int)
	var groups []Group
	var orphans []model.Task
	for _, t := range roots {
		if t.ProjectID == "" {
			orphans = append(orphans, t)
			continue
		}
		i, ok := index[t.ProjectID]
		if !ok {
			name := names[t.ProjectID]
			if name == "" {
				name = t.ProjectID
			}
			i = len(groups)
			index[t.ProjectID] = i
			groups = append(groups, Group{ProjectID: t.ProjectID, Name: name})
		}
		groups[i].Tasks = append(groups[i].Tasks, t)
	}

	slices.SortStableFunc(groups, func(a, b Group) int {
		if c := s.CompareStrings(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ProjectID, b.ProjectID)
	})
	if len(orphans) > 0 {
		groups = append(groups, Group{Name: NoProjectName, Tasks: orphans})
	}
	return groups
}
