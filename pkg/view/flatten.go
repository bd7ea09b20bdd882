package view

import "github.com/vanderheijden86/taskview/pkg/model"

// Row is one visible line of the tree.
type Row struct {
	Task       model.Task
	Depth      int  // 0 for roots; indentation level
	Expandable bool // task has children
	Expanded   bool // children are shown below
	Loading    bool // children fetch in flight
}

// Flatten produces the visible rows for roots: each root at depth 0 followed
// depth-first by its expanded, cached descendants. Collapsing an ancestor hides
// its subtree without touching the subtree's own expansion state.
func Flatten(roots []model.Task, exp ExpansionView) []Row {
	rows := make([]Row, 0, len(roots))
	onPath := make(map[string]bool)
	for i := range roots {
		rows = appendVisible(rows, roots[i], 0, exp, onPath)
	}
	return rows
}

// appendVisible adds task and its visible descendants to rows. onPath guards
// against cycles in malformed parent data.
func appendVisible(rows []Row, task model.Task, depth int, exp ExpansionView, onPath map[string]bool) []Row {
	row := Row{
		Task:       task,
		Depth:      depth,
		Expandable: task.HasChildren(),
	}
	var children []model.Task
	if row.Expandable && exp != nil {
		row.Loading = exp.IsLoading(task.ID)
		if exp.IsExpanded(task.ID) {
			if kids, ok := exp.Children(task.ID); ok {
				row.Expanded = true
				children = kids
			}
		}
	}
	rows = append(rows, row)
	if len(children) == 0 {
		return rows
	}

	onPath[task.ID] = true
	defer delete(onPath, task.ID)
	for i := range children {
		if onPath[children[i].ID] {
			continue
		}
		rows = appendVisible(rows, children[i], depth+1, exp, onPath)
	}
	return rows
}
