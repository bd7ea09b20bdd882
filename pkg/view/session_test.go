package view

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanderheijden86/taskview/pkg/model"
	"github.com/vanderheijden86/taskview/pkg/testutil"
)

type rowKey struct {
	ID    string
	Depth int
}

func rowKeys(rows []Row) []rowKey {
	out := make([]rowKey, len(rows))
	for i, r := range rows {
		out[i] = rowKey{r.Task.ID, r.Depth}
	}
	return out
}

func newLoadedSession(t *testing.T, store *testutil.MemoryStore, opts ...Option) *Session {
	t.Helper()
	s := NewSession(store, opts...)
	require.NoError(t, s.Refresh(context.Background()))
	return s
}

func TestSessionExpandCollapseScenario(t *testing.T) {
	store := testutil.NewMemoryStore([]model.Task{
		{ID: "1", Priority: model.PriorityHigh, Status: model.StatusNew, ChildrenCount: 1},
		{ID: "2", ParentID: "1", Priority: model.PriorityLow, Status: model.StatusDone, Depth: 1},
	})
	s := newLoadedSession(t, store, WithSort(model.SortSpec{Field: model.SortFieldPriority}))
	ctx := context.Background()

	assert.Equal(t, []string{"1"}, ids(s.Roots()))

	tr, err := s.ToggleExpand(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, TransitionExpanded, tr)
	if diff := cmp.Diff([]rowKey{{"1", 0}, {"2", 1}}, rowKeys(s.Rows())); diff != "" {
		t.Errorf("rows after expand (-want +got):\n%s", diff)
	}

	tr, err = s.ToggleExpand(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, TransitionCollapsed, tr)
	assert.Equal(t, []rowKey{{"1", 0}}, rowKeys(s.Rows()))

	// re-expanding is served from the cache
	_, err = s.ToggleExpand(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 1, store.Calls("ListChildren"))
}

func TestSessionToggleExpandErrors(t *testing.T) {
	store := testutil.NewMemoryStore([]model.Task{{ID: "leaf"}, {ID: "p", ChildrenCount: 1}})
	s := newLoadedSession(t, store)
	ctx := context.Background()

	_, err := s.ToggleExpand(ctx, "nope")
	assert.ErrorIs(t, err, ErrUnknownTask)
	_, err = s.ToggleExpand(ctx, "leaf")
	assert.ErrorIs(t, err, ErrNotExpandable)

	store.FailChildren("p", testutil.ErrInjected)
	tr, err := s.ToggleExpand(ctx, "p")
	assert.ErrorIs(t, err, testutil.ErrInjected)
	assert.Equal(t, TransitionCollapsed, tr)
	assert.False(t, s.Expansion().IsLoading("p"))
}

func TestSessionInFlightGuard(t *testing.T) {
	store := testutil.NewMemoryStore([]model.Task{
		{ID: "p", ChildrenCount: 1},
		{ID: "c", ParentID: "p"},
	})
	s := newLoadedSession(t, store)
	store.Block()

	tr, ticket, err := s.BeginExpand("p")
	require.NoError(t, err)
	require.Equal(t, TransitionFetch, tr)

	done := make(chan ChildrenResult, 1)
	go func() { done <- s.FetchChildren(context.Background(), ticket) }()

	tr, _, err = s.BeginExpand("p")
	require.NoError(t, err)
	assert.Equal(t, TransitionPending, tr)

	store.Release()
	select {
	case res := <-done:
		ok, err := s.CompleteExpand(res)
		require.NoError(t, err)
		assert.True(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("children fetch did not finish")
	}
	assert.Equal(t, 1, store.Calls("ListChildren"))
	assert.Len(t, s.Rows(), 2)
}

func TestSessionLateChildrenAfterInvalidate(t *testing.T) {
	store := testutil.NewMemoryStore([]model.Task{{ID: "p", ChildrenCount: 1}, {ID: "c", ParentID: "p"}})
	s := newLoadedSession(t, store)

	_, ticket, err := s.BeginExpand("p")
	require.NoError(t, err)
	res := s.FetchChildren(context.Background(), ticket)
	s.Invalidate()
	ok, err := s.CompleteExpand(res)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, s.Rows(), 1)
}

func TestSessionPagingAndSort(t *testing.T) {
	store := testutil.NewMemoryStore(testutil.QuickForest(12, 0, 1))
	s := newLoadedSession(t, store, WithPageSize(5))

	assert.Equal(t, 3, s.TotalPages())
	assert.False(t, s.PrevPage())
	assert.True(t, s.NextPage())
	assert.True(t, s.NextPage())
	assert.False(t, s.NextPage())
	assert.Len(t, s.Rows(), 2)

	// sort keeps the page
	s.ToggleSort(model.SortFieldTitle)
	assert.Equal(t, 3, s.Page().Page)

	// filter change resets it
	assert.True(t, s.SetFilter(model.FilterSpec{Priority: model.PriorityHigh}))
	assert.Equal(t, 1, s.Page().Page)
	assert.False(t, s.SetFilter(model.FilterSpec{Priority: model.PriorityHigh}))
}

func TestSessionToggleSort(t *testing.T) {
	s := NewSession(testutil.NewMemoryStore(nil))
	assert.Equal(t, model.SortSpec{Field: model.SortFieldTitle}, s.ToggleSort(model.SortFieldTitle))
	assert.Equal(t, model.SortSpec{Field: model.SortFieldTitle, Order: model.SortDesc}, s.ToggleSort(model.SortFieldTitle))
	assert.Equal(t, model.SortSpec{Field: model.SortFieldStatus}, s.ToggleSort(model.SortFieldStatus))
}

func TestSessionStaleAndFailedFetch(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryStore(testutil.QuickForest(3, 0, 1))
	s := newLoadedSession(t, store)

	old := s.FetchTasks(ctx, model.FilterSpec{})
	s.SetFilter(model.FilterSpec{Search: "nothing matches this"})
	applied, err := s.ApplyTasks(old)
	require.NoError(t, err)
	assert.False(t, applied, "result for the previous filter is ignored")
	assert.Len(t, s.Roots(), 3)

	store.FailList(testutil.ErrInjected)
	s.Invalidate()
	err = s.Refresh(ctx)
	assert.ErrorIs(t, err, testutil.ErrInjected)
	assert.Len(t, s.Roots(), 3, "previous snapshot kept")
}

func TestSessionSelectionSurvivesNavigation(t *testing.T) {
	store := testutil.NewMemoryStore(testutil.QuickForest(12, 0, 1))
	s := newLoadedSession(t, store, WithPageSize(5))

	assert.Equal(t, 5, s.SelectVisible())
	s.NextPage()
	s.ToggleSort(model.SortFieldPriority)
	assert.Len(t, s.Selection(), 5)
	require.NoError(t, s.Refresh(context.Background()))
	assert.Len(t, s.Selection(), 5)
}

// Selection {1,2,3}, bulk status done, task 2 rejects.
func TestSessionBulkPartialFailure(t *testing.T) {
	store := testutil.NewMemoryStore(threeTasks())
	s := newLoadedSession(t, store)
	for _, id := range []string{"1", "2", "3"} {
		s.Select(id, true)
	}
	store.FailMutation("2", testutil.ErrInjected)

	report, err := s.BulkStatus(context.Background(), model.StatusDone)
	assert.ErrorIs(t, err, ErrBulkFailed)
	assert.Equal(t, []string{"2"}, report.Failed())
	assert.Equal(t, []string{"1", "2", "3"}, s.Selection(), "edits keep the selection")
	assert.Equal(t, 2, store.Calls("ListTasks"), "refetched after partial success")
}

func TestSessionBulkDeleteClearsSelection(t *testing.T) {
	store := testutil.NewMemoryStore(threeTasks())
	s := newLoadedSession(t, store)
	s.Select("1", true)
	s.Select("3", true)

	report, err := s.BulkDelete(context.Background())
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Empty(t, s.Selection())
	assert.Equal(t, []string{"2"}, ids(s.Roots()))
}

func TestSessionBulkDeletePartialReconciles(t *testing.T) {
	store := testutil.NewMemoryStore(threeTasks())
	s := newLoadedSession(t, store)
	s.Select("1", true)
	s.Select("2", true)
	store.FailMutation("2", testutil.ErrInjected)

	_, err := s.BulkDelete(context.Background())
	assert.ErrorIs(t, err, ErrBulkFailed)
	assert.Equal(t, []string{"2"}, s.Selection(), "deleted id dropped, failed one kept")
}

func TestSessionBulkAllFailedSkipsRefresh(t *testing.T) {
	store := testutil.NewMemoryStore(threeTasks())
	s := newLoadedSession(t, store)
	s.Select("1", true)
	store.FailMutation("1", testutil.ErrInjected)

	_, err := s.BulkPriority(context.Background(), model.PriorityLow)
	assert.ErrorIs(t, err, ErrBulkFailed)
	assert.Equal(t, 1, store.Calls("ListTasks"))
}

func TestSessionBulkEmptySelection(t *testing.T) {
	s := newLoadedSession(t, testutil.NewMemoryStore(threeTasks()))
	_, err := s.BulkAssignee(context.Background(), "me")
	assert.ErrorIs(t, err, ErrEmptySelection)
}

func TestSessionBulkCollapsesTree(t *testing.T) {
	store := testutil.NewMemoryStore([]model.Task{
		{ID: "p", ChildrenCount: 1, Status: model.StatusNew, Priority: model.PriorityLow},
		{ID: "c", ParentID: "p", Status: model.StatusNew, Priority: model.PriorityLow},
	})
	s := newLoadedSession(t, store)
	ctx := context.Background()
	_, err := s.ToggleExpand(ctx, "p")
	require.NoError(t, err)
	s.Select("c", true)

	_, err = s.BulkStatus(ctx, model.StatusDone)
	require.NoError(t, err)
	assert.False(t, s.Expansion().IsExpanded("p"))
	assert.Equal(t, []string{"c"}, s.Selection(), "child is still in the fetched list")
}

func TestSessionGroupsAndFooter(t *testing.T) {
	tasks := []model.Task{
		{ID: "1", ProjectID: "w"},
		{ID: "2"},
		{ID: "3", ProjectID: "a"},
	}
	store := testutil.NewMemoryStore(tasks, model.Project{ID: "w", Name: "Web"}, model.Project{ID: "a", Name: "Api"})
	s := newLoadedSession(t, store, WithGroupBy(GroupProject))

	groups := s.Groups()
	require.Len(t, groups, 3)
	var names []string
	for _, g := range groups {
		names = append(names, g.Name)
	}
	assert.Equal(t, []string{"Api", "Web", NoProjectName}, names)
	assert.Equal(t, "3 items", s.Footer().String())

	s.SetGroupBy(GroupNone)
	s.Select("1", true)
	assert.Equal(t, "Page 1 of 1 (3 items), 1 selected", s.Footer().String())
	assert.Equal(t, "Web", s.ProjectName("w"))
	assert.Equal(t, NoProjectName, s.ProjectName(""))
}

func TestSessionHighlightUsesSearch(t *testing.T) {
	store := testutil.NewMemoryStore([]model.Task{{ID: "1", Title: "Deploy the API"}})
	s := newLoadedSession(t, store, WithFilter(model.FilterSpec{Search: "api"}))
	require.Len(t, s.Roots(), 1)
	assert.Equal(t, []Span{{Text: "Deploy the "}, {Text: "API", Highlight: true}}, s.Highlight("Deploy the API"))
}

func TestSessionManyRoots(t *testing.T) {
	tasks := testutil.QuickForest(30, 2, 2)
	s := newLoadedSession(t, testutil.NewMemoryStore(tasks), WithPageSize(25))
	assert.Len(t, s.Roots(), 30)
	assert.Len(t, s.Rows(), 25)
	for _, r := range s.Rows() {
		assert.Zero(t, r.Depth, fmt.Sprintf("%s is a root", r.Task.ID))
	}
}
