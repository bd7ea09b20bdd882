package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	json "github.com/goccy/go-json"
	"github.com/natefinch/atomic"

	"github.com/vanderheijden86/taskview/pkg/model"
	"github.com/vanderheijden86/taskview/pkg/view"
)

type projectRecord struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

type taskRecord struct {
	Type string `json:"type"`
	model.Task
}

// Export writes every project and every task in src to w, parents before
// children. It returns the number of records written.
func Export(ctx context.Context, src view.TaskLister, w io.Writer) (int, error) {
	projects, err := src.ListProjects(ctx)
	if err != nil {
		return 0, fmt.Errorf("export projects: %w", err)
	}
	tasks, err := src.ListTasks(ctx, model.FilterSpec{})
	if err != nil {
		return 0, fmt.Errorf("export tasks: %w", err)
	}
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })

	enc := json.NewEncoder(w)
	n := 0
	for _, p := range projects {
		if err := enc.Encode(projectRecord{Type: TypeProject, ID: p.ID, Name: p.Name}); err != nil {
			return n, fmt.Errorf("failed to encode project %s: %w", p.ID, err)
		}
		n++
	}
	for _, t := range ParentsFirst(tasks) {
		if err := enc.Encode(taskRecord{Type: TypeTask, Task: t}); err != nil {
			return n, fmt.Errorf("failed to encode task %s: %w", t.ID, err)
		}
		n++
	}
	return n, nil
}

// ExportFile writes the export to path, replacing any existing file
// atomically.
func ExportFile(ctx context.Context, src view.TaskLister, path string) (int, error) {
	var buf bytes.Buffer
	n, err := Export(ctx, src, &buf)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return n, nil
}
