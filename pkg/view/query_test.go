package view

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanderheijden86/taskview/pkg/model"
	"github.com/vanderheijden86/taskview/pkg/testutil"
)

func TestQueryCacheHitsAndInvalidate(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryStore(testutil.QuickForest(4, 0, 1))
	q := NewQueryCache(store)

	first, err := q.Tasks(ctx, model.FilterSpec{})
	require.NoError(t, err)
	require.Len(t, first, 4)

	// equivalent filters share the entry
	_, err = q.Tasks(ctx, model.FilterSpec{Search: "  x "})
	require.NoError(t, err)
	assert.Equal(t, 1, store.Calls("ListTasks"))
	assert.Equal(t, 1, q.Len())

	first[0].Title = "mutated"
	again, err := q.Tasks(ctx, model.FilterSpec{})
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", again[0].Title, "callers get copies")

	q.Invalidate()
	assert.Zero(t, q.Len())
	_, err = q.Tasks(ctx, model.FilterSpec{})
	require.NoError(t, err)
	assert.Equal(t, 2, store.Calls("ListTasks"))
}

func TestQueryCacheDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryStore(testutil.QuickForest(2, 0, 1))
	store.FailList(testutil.ErrInjected)
	q := NewQueryCache(store)

	_, err := q.Tasks(ctx, model.FilterSpec{})
	assert.ErrorIs(t, err, testutil.ErrInjected)
	store.FailList(nil)
	tasks, err := q.Tasks(ctx, model.FilterSpec{})
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestQueryCacheConcurrentLoads(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryStore(testutil.QuickForest(10, 0, 1))
	q := NewQueryCache(store)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tasks, err := q.Tasks(ctx, model.FilterSpec{})
			assert.NoError(t, err)
			assert.Len(t, tasks, 10)
		}()
	}
	wg.Wait()
	// singleflight collapses overlapping loads; sequential ones hit the cache
	assert.GreaterOrEqual(t, store.Calls("ListTasks"), 1)
	assert.Equal(t, 1, q.Len())
}

func TestQueryCacheProjects(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryStore(nil, model.Project{ID: "p", Name: "Proj"})
	q := NewQueryCache(store)
	for i := 0; i < 3; i++ {
		projects, err := q.Projects(ctx)
		require.NoError(t, err)
		assert.Equal(t, []model.Project{{ID: "p", Name: "Proj"}}, projects)
	}
	assert.Equal(t, 1, store.Calls("ListProjects"))
}
