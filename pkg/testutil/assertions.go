package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vanderheijden86/taskview/pkg/model"
)

// AssertNoDuplicateIDs verifies all task IDs are unique.
func AssertNoDuplicateIDs(t *testing.T, tasks []model.Task) {
	t.Helper()
	seen := make(map[string]bool)
	for _, task := range tasks {
		if seen[task.ID] {
			t.Errorf("duplicate task ID: %s", task.ID)
		}
		seen[task.ID] = true
	}
}

// AssertConsistentHierarchy verifies that ChildrenCount, Depth and Path
// agree with the ParentID links.
func AssertConsistentHierarchy(t *testing.T, tasks []model.Task) {
	t.Helper()
	byID := BuildTaskMap(tasks)
	kids := make(map[string]int)
	for _, task := range tasks {
		if task.ParentID == "" {
			if task.Depth != 0 {
				t.Errorf("root %s has depth %d", task.ID, task.Depth)
			}
			continue
		}
		kids[task.ParentID]++
		parent, ok := byID[task.ParentID]
		if !ok {
			continue
		}
		if task.Depth != parent.Depth+1 {
			t.Errorf("%s: depth %d, parent depth %d", task.ID, task.Depth, parent.Depth)
		}
		if want := model.ChildPath(parent.Path, task.ID); task.Path != want {
			t.Errorf("%s: path %q, want %q", task.ID, task.Path, want)
		}
	}
	for _, task := range tasks {
		if task.ChildrenCount != kids[task.ID] {
			t.Errorf("%s: children_count %d, actual children %d", task.ID, task.ChildrenCount, kids[task.ID])
		}
	}
}

// WriteTasksFile writes tasks as JSONL to path and returns it.
func WriteTasksFile(t *testing.T, path string, tasks []model.Task) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(ToJSONL(tasks)), 0644); err != nil {
		t.Fatalf("failed to write tasks file: %v", err)
	}
	return path
}

// BuildTaskMap creates a map from ID to Task for quick lookups.
func BuildTaskMap(tasks []model.Task) map[string]*model.Task {
	m := make(map[string]*model.Task, len(tasks))
	for i := range tasks {
		m[tasks[i].ID] = &tasks[i]
	}
	return m
}

// FindTask returns the task with id, or nil.
func FindTask(tasks []model.Task, id string) *model.Task {
	for i := range tasks {
		if tasks[i].ID == id {
			return &tasks[i]
		}
	}
	return nil
}

// RootsOf returns the tasks without a parent.
func RootsOf(tasks []model.Task) []model.Task {
	var out []model.Task
	for _, task := range tasks {
		if task.ParentID == "" {
			out = append(out, task)
		}
	}
	return out
}

// GetIDs extracts the IDs of tasks in order.
func GetIDs(tasks []model.Task) []string {
	ids := make([]string, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}
	return ids
}
