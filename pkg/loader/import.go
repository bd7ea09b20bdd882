package loader

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/vanderheijden86/taskview/pkg/model"
)

// Importer is the write surface an import needs from a task store.
type Importer interface {
	CreateTask(ctx context.Context, t model.Task) (model.Task, error)
	UpsertProject(ctx context.Context, p model.Project) error
}

// ImportFailure records one record the store rejected.
type ImportFailure struct {
	ID  string
	Err error
}

// ImportResult summarizes an import.
type ImportResult struct {
	Projects int
	Created  int
	Failed   []ImportFailure
}

// Err joins the per-record failures, or returns nil.
func (r ImportResult) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failed))
	for i, f := range r.Failed {
		errs[i] = fmt.Errorf("%s: %w", f.ID, f.Err)
	}
	return fmt.Errorf("%d of %d records failed: %w", len(r.Failed), len(r.Failed)+r.Created+r.Projects, errors.Join(errs...))
}

// Import writes projects, then tasks with every parent before its children.
// A record the store rejects is recorded and the import goes on; children of
// a rejected task then fail too. Only context cancellation aborts the run.
func Import(ctx context.Context, dst Importer, ds Dataset) (ImportResult, error) {
	var res ImportResult
	for _, p := range ds.Projects {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := dst.UpsertProject(ctx, p); err != nil {
			res.Failed = append(res.Failed, ImportFailure{ID: p.ID, Err: err})
			continue
		}
		res.Projects++
	}
	for _, t := range ParentsFirst(ds.Tasks) {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if _, err := dst.CreateTask(ctx, t); err != nil {
			res.Failed = append(res.Failed, ImportFailure{ID: t.ID, Err: err})
			continue
		}
		res.Created++
	}
	return res, nil
}

// ParentsFirst orders tasks so every task follows its parent when the parent
// is part of the slice. Siblings keep their input order. Tasks caught in a
// parent cycle come last, in input order.
func ParentsFirst(tasks []model.Task) []model.Task {
	index := make(map[string]int, len(tasks))
	for i, t := range tasks {
		index[t.ID] = i
	}
	children := make(map[string][]int)
	var roots []int
	for i, t := range tasks {
		if _, ok := index[t.ParentID]; ok && t.ParentID != "" {
			children[t.ParentID] = append(children[t.ParentID], i)
			continue
		}
		roots = append(roots, i)
	}

	out := make([]model.Task, 0, len(tasks))
	placed := make([]bool, len(tasks))
	queue := roots
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		if placed[i] {
			continue
		}
		placed[i] = true
		out = append(out, tasks[i])
		queue = append(queue, children[tasks[i].ID]...)
	}

	var rest []int
	for i := range tasks {
		if !placed[i] {
			rest = append(rest, i)
		}
	}
	sort.Ints(rest)
	for _, i := range rest {
		out = append(out, tasks[i])
	}
	return out
}
