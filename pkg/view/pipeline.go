package view

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/vanderheijden86/taskview/pkg/metrics"
	"github.com/vanderheijden86/taskview/pkg/model"
)

// SelectRoots returns the tasks to show at depth 0, in input order.
//
// A task is a root when it has no parent or when its parent is not part of
// tasks. The second case keeps tasks whose parent was excluded by the filter
// visible instead of silently dropping them.
func SelectRoots(tasks []model.Task) []model.Task {
	if len(tasks) == 0 {
		return nil
	}
	ids := make(map[string]struct{}, len(tasks))
	for i := range tasks {
		ids[tasks[i].ID] = struct{}{}
	}
	roots := make([]model.Task, 0, len(tasks))
	for i := range tasks {
		parent := tasks[i].ParentID
		if parent == "" {
			roots = append(roots, tasks[i])
			continue
		}
		if _, ok := ids[parent]; !ok {
			roots = append(roots, tasks[i])
		}
	}
	return roots
}

// comparator compares a and b in ascending order. invariant reports that the
// result must not be reversed for descending order (undated tasks stay last).
type comparator func(s *Sorter, a, b *model.Task) (c int, invariant bool)

// comparators is indexed by SortField. Every field must have an entry.
var comparators = [model.NumSortFields]comparator{
	model.SortFieldTitle: func(s *Sorter, a, b *model.Task) (int, bool) {
		return s.CompareStrings(a.Title, b.Title), false
	},
	model.SortFieldPriority: func(_ *Sorter, a, b *model.Task) (int, bool) {
		return cmp.Compare(a.Priority.Rank(), b.Priority.Rank()), false
	},
	model.SortFieldStatus: func(_ *Sorter, a, b *model.Task) (int, bool) {
		return cmp.Compare(a.Status.Rank(), b.Status.Rank()), false
	},
	model.SortFieldDueDate: func(_ *Sorter, a, b *model.Task) (int, bool) {
		return compareDates(a.DueDate, b.DueDate)
	},
	model.SortFieldCreatedAt: func(_ *Sorter, a, b *model.Task) (int, bool) {
		return compareDates(a.CreatedAt, b.CreatedAt)
	},
}

// compareDates orders ISO dates lexicographically. Missing or malformed
// dates always sort after present ones, whatever the direction.
func compareDates(a, b string) (int, bool) {
	_, okA := model.ParseDate(a)
	_, okB := model.ParseDate(b)
	switch {
	case okA && okB:
		return strings.Compare(strings.TrimSpace(a), strings.TrimSpace(b)), false
	case okA:
		return -1, true
	case okB:
		return 1, true
	default:
		return 0, true
	}
}

// Sorter orders root tasks for a SortSpec. It owns a collator and is not safe
// for concurrent use.
type Sorter struct {
	collator *collate.Collator
}

// NewSorter creates a Sorter using the collation rules of tag.
func NewSorter(tag language.Tag) *Sorter {
	return &Sorter{collator: collate.New(tag)}
}

// CompareStrings compares two display strings using the locale's collation.
func (s *Sorter) CompareStrings(a, b string) int {
	if s == nil || s.collator == nil {
		return strings.Compare(a, b)
	}
	return s.collator.CompareString(a, b)
}

// Compare returns the ordering of a and b under spec.
func (s *Sorter) Compare(a, b *model.Task, spec model.SortSpec) int {
	if spec.Field < 0 || spec.Field >= model.NumSortFields {
		return 0
	}
	c, invariant := comparators[spec.Field](s, a, b)
	if spec.Order == model.SortDesc && !invariant {
		c = -c
	}
	return c
}

// Sort sorts tasks in place. The sort is stable so equal tasks keep their
// input order.
func (s *Sorter) Sort(tasks []model.Task, spec model.SortSpec) {
	slices.SortStableFunc(tasks, func(a, b model.Task) int {
		return s.Compare(&a, &b, spec)
	})
}

// Roots runs the whole pipeline: root selection followed by sorting. The
// input is not modified.
func (s *Sorter) Roots(tasks []model.Task, spec model.SortSpec) []model.Task {
	defer metrics.Timer(metrics.PipelineRun)()
	roots := SelectRoots(tasks)
	s.Sort(roots, spec)
	return roots
}
