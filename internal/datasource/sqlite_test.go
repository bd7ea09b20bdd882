package datasource

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanderheijden86/taskview/pkg/model"
	"github.com/vanderheijden86/taskview/pkg/testutil"
)

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "tasks.db"), WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustCreate(t *testing.T, s *SQLiteStore, tasks ...model.Task) {
	t.Helper()
	for _, task := range tasks {
		_, err := s.CreateTask(context.Background(), task)
		require.NoError(t, err, "create %s", task.ID)
	}
}

func taskIDs(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestOpen_MigratesAndReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tasks.db")
	s, err := Open(path)
	require.NoError(t, err)
	mustCreate(t, s, model.Task{ID: "a", Title: "first"})
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	info, err := s.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), info.SchemaVersion)
	assert.Equal(t, 1, info.Tasks)
	assert.Equal(t, 1, info.RootTasks)
	assert.Equal(t, path, s.Path())
}

func TestCreateTask_DerivesPathAndDepth(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	mustCreate(t, s,
		model.Task{ID: "r", Title: "root"},
		model.Task{ID: "c", ParentID: "r", Title: "child"},
		model.Task{ID: "g", ParentID: "c", Title: "grandchild"},
	)

	g, err := s.GetTask(ctx, "g")
	require.NoError(t, err)
	assert.Equal(t, "r/c/g", g.Path)
	assert.Equal(t, 2, g.Depth)
	assert.Equal(t, model.StatusNew, g.Status)
	assert.Equal(t, model.PriorityMedium, g.Priority)
	assert.Equal(t, fixedNow.Format(time.RFC3339), g.CreatedAt)

	r, err := s.GetTask(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, 1, r.ChildrenCount)
	assert.True(t, r.IsRootLevel())

	_, err = s.CreateTask(ctx, model.Task{ID: "x", ParentID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.CreateTask(ctx, model.Task{Title: "no id"})
	assert.Error(t, err)
}

func TestListTasks_Filters(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	mustCreate(t, s,
		model.Task{ID: "a", Title: "Fix login redirect", Status: model.StatusInProgress, Priority: model.PriorityHigh,
			AssigneeID: "me", CreatorID: "bob", DueDate: "2025-03-01"},
		model.Task{ID: "b", Title: "Write docs", Status: model.StatusDone, Priority: model.PriorityLow,
			AssigneeID: "bob", CreatorID: "me", DueDate: "2025-02-01"},
		model.Task{ID: "c", Title: "100% coverage_push", Status: model.StatusNew, Priority: model.PriorityHigh,
			DueDate: "2025-04-01"},
		model.Task{ID: "d", ParentID: "a", Title: "LOGIN tests", Status: model.StatusNew, Priority: model.PriorityMedium,
			AssigneeID: "me"},
	)

	tests := []struct {
		name   string
		filter model.FilterSpec
		want   []string
	}{
		{"empty matches all depths", model.FilterSpec{}, []string{"a", "b", "c", "d"}},
		{"status", model.FilterSpec{Statuses: []model.Status{model.StatusNew, model.StatusDone}}, []string{"b", "c", "d"}},
		{"priority", model.FilterSpec{Priority: model.PriorityHigh}, []string{"a", "c"}},
		{"assignee", model.FilterSpec{AssigneeID: "me"}, []string{"a", "d"}},
		{"creator", model.FilterSpec{CreatorID: "me"}, []string{"b"}},
		{"search is case-insensitive", model.FilterSpec{Search: "login"}, []string{"a", "d"}},
		{"search escapes like wildcards", model.FilterSpec{Search: "0% c"}, []string{"c"}},
		{"underscore is literal", model.FilterSpec{Search: "e_p"}, []string{"c"}},
		{"short search ignored", model.FilterSpec{Search: "lo"}, []string{"a", "b", "c", "d"}},
		{"overdue skips closed", model.FilterSpec{Overdue: true}, []string{"a"}},
		{"role assignee", model.FilterSpec{Role: model.RoleAssignee, ViewerID: "me"}, []string{"a", "d"}},
		{"role creator", model.FilterSpec{Role: model.RoleCreator, ViewerID: "me"}, []string{"b"}},
		{"role participant", model.FilterSpec{Role: model.RoleParticipant, ViewerID: "me"}, []string{"a", "b", "d"}},
		{"role without viewer", model.FilterSpec{Role: model.RoleAssignee}, []string{"a", "b", "c", "d"}},
		{"combined", model.FilterSpec{Priority: model.PriorityHigh, Search: "login"}, []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListTasks(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, taskIDs(got))
		})
	}
}

func TestListTasks_AgreesWithFilterMatches(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	tasks := testutil.NewDefault().Forest(6, 2, 3)
	mustCreate(t, s, tasks...)

	today := fixedNow.Format(time.DateOnly)
	filters := []model.FilterSpec{
		{Statuses: []model.Status{model.StatusNew, model.StatusInProgress}},
		{Priority: model.PriorityCritical},
		{AssigneeID: "alice"},
		{Overdue: true},
		{Search: "fix login"},
		{Role: model.RoleParticipant, ViewerID: "carol"},
	}
	for _, f := range filters {
		got, err := s.ListTasks(ctx, f)
		require.NoError(t, err)
		var want []string
		for _, task := range tasks {
			if f.Matches(task, today) {
				want = append(want, task.ID)
			}
		}
		assert.ElementsMatch(t, want, taskIDs(got), "filter %s", f.Key())
	}
}

func TestListChildrenAndCounts(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	mustCreate(t, s, testutil.QuickForest(2, 3, 2)...)

	all, err := s.ListTasks(ctx, model.FilterSpec{})
	require.NoError(t, err)
	require.Len(t, all, 8)
	testutil.AssertConsistentHierarchy(t, all)

	for _, task := range all {
		children, err := s.ListChildren(ctx, task.ID)
		require.NoError(t, err)
		assert.Len(t, children, task.ChildrenCount, "children of %s", task.ID)
		for _, c := range children {
			assert.Equal(t, task.ID, c.ParentID)
			assert.Equal(t, task.Depth+1, c.Depth)
		}
	}

	none, err := s.ListChildren(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdates(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	mustCreate(t, s, model.Task{ID: "a", Title: "task", AssigneeID: "bob"})

	got, err := s.UpdateStatus(ctx, "a", model.StatusDone)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDone, got.Status)

	got, err = s.UpdatePriority(ctx, "a", model.PriorityCritical)
	require.NoError(t, err)
	assert.Equal(t, model.PriorityCritical, got.Priority)
	assert.Equal(t, model.StatusDone, got.Status)

	got, err = s.UpdateAssignee(ctx, "a", "")
	require.NoError(t, err)
	assert.Empty(t, got.AssigneeID)

	_, err = s.UpdateStatus(ctx, "missing", model.StatusDone)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.UpdateStatus(ctx, "a", model.Status("bogus"))
	assert.Error(t, err)
	_, err = s.UpdatePriority(ctx, "a", model.Priority("urgent"))
	assert.Error(t, err)
}

func TestDeleteTask_CascadesToSubtree(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	mustCreate(t, s,
		model.Task{ID: "r"},
		model.Task{ID: "c1", ParentID: "r"},
		model.Task{ID: "c2", ParentID: "r"},
		model.Task{ID: "g", ParentID: "c1"},
		model.Task{ID: "other"},
	)

	require.NoError(t, s.DeleteTask(ctx, "c1"))
	r, err := s.GetTask(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, 1, r.ChildrenCount)
	_, err = s.GetTask(ctx, "g")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.DeleteTask(ctx, "r"))
	all, err := s.ListTasks(ctx, model.FilterSpec{})
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, taskIDs(all))

	assert.ErrorIs(t, s.DeleteTask(ctx, "r"), ErrNotFound)
}

func TestProjectsAndReset(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertProject(ctx, model.Project{ID: "p2", Name: "Beta"}))
	require.NoError(t, s.UpsertProject(ctx, model.Project{ID: "p1", Name: "Alpha"}))
	require.NoError(t, s.UpsertProject(ctx, model.Project{ID: "p2", Name: "Gamma"}))
	assert.Error(t, s.UpsertProject(ctx, model.Project{Name: "nameless"}))

	projects, err := s.ListProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Project{{ID: "p1", Name: "Alpha"}, {ID: "p2", Name: "Gamma"}}, projects)

	mustCreate(t, s, model.Task{ID: "a", ProjectID: "p1"}, model.Task{ID: "b", ParentID: "a"})
	info, err := s.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, info.Projects)
	assert.Equal(t, 1, info.MaxDepth)
	assert.Contains(t, info.String(), "2 tasks")

	require.NoError(t, s.Reset(ctx))
	info, err = s.Info(ctx)
	require.NoError(t, err)
	assert.Zero(t, info.Tasks)
	assert.Zero(t, info.Projects)
}
