package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/taskview/pkg/model"
	"github.com/vanderheijden86/taskview/pkg/view"
	"github.com/vanderheijden86/taskview/pkg/watcher"
)

// tasksLoadedMsg carries a task list fetched off the event loop.
type tasksLoadedMsg struct {
	query view.TaskQuery
}

// childrenLoadedMsg carries the children of an expanding task.
type childrenLoadedMsg struct {
	result view.ChildrenResult
}

// bulkDoneMsg carries the outcome of a bulk run.
type bulkDoneMsg struct {
	report view.BulkReport
	err    error
}

// FileChangedMsg is sent when the task database changes on disk.
type FileChangedMsg struct{}

// WatchFileCmd returns a command that waits for file changes and sends FileChangedMsg
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return FileChangedMsg{}
	}
}

func fetchTasksCmd(ctx context.Context, s *view.Session, filter model.FilterSpec) tea.Cmd {
	return func() tea.Msg {
		return tasksLoadedMsg{query: s.FetchTasks(ctx, filter)}
	}
}

func fetchChildrenCmd(ctx context.Context, s *view.Session, ticket view.FetchTicket) tea.Cmd {
	return func() tea.Msg {
		return childrenLoadedMsg{result: s.FetchChildren(ctx, ticket)}
	}
}

func bulkCmd(ctx context.Context, s *view.Session, ids []string, req view.BulkRequest) tea.Cmd {
	return func() tea.Msg {
		report, err := s.RunBulk(ctx, ids, req)
		return bulkDoneMsg{report: report, err: err}
	}
}
