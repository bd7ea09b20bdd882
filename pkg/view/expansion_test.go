package view

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/vanderheijden86/taskview/pkg/model"
)

func parentTask(id string, kids int) model.Task {
	return model.Task{ID: id, ChildrenCount: kids}
}

func TestToggleStateMachine(t *testing.T) {
	c := NewExpansionCache()
	p := parentTask("p", 2)
	kids := []model.Task{{ID: "c1", ParentID: "p"}, {ID: "c2", ParentID: "p"}}

	tr, ticket := c.Toggle(p)
	require.Equal(t, TransitionFetch, tr)
	assert.True(t, c.IsLoading("p"))
	assert.False(t, c.IsExpanded("p"))

	// in-flight guard
	tr, _ = c.Toggle(p)
	assert.Equal(t, TransitionPending, tr)

	require.True(t, c.Resolve(ticket, kids, nil))
	assert.True(t, c.IsExpanded("p"))
	assert.False(t, c.IsLoading("p"))

	tr, _ = c.Toggle(p)
	assert.Equal(t, TransitionCollapsed, tr)
	cached, ok := c.Children("p")
	require.True(t, ok, "children stay cached after collapse")
	assert.Len(t, cached, 2)

	tr, _ = c.Toggle(p)
	assert.Equal(t, TransitionExpanded, tr, "cache hit expands without a fetch")
}

func TestToggleLeafIsNoop(t *testing.T) {
	c := NewExpansionCache()
	tr, _ := c.Toggle(model.Task{ID: "leaf"})
	assert.Equal(t, TransitionNone, tr)
	assert.False(t, c.IsLoading("leaf"))
	assert.False(t, c.IsExpanded("leaf"))
}

func TestResolveFailureCollapses(t *testing.T) {
	c := NewExpansionCache()
	_, ticket := c.Toggle(parentTask("p", 1))
	assert.False(t, c.Resolve(ticket, nil, errors.New("boom")))
	assert.False(t, c.IsLoading("p"))
	assert.False(t, c.IsExpanded("p"))
	_, ok := c.Children("p")
	assert.False(t, ok)

	// retry issues a new fetch
	tr, _ := c.Toggle(parentTask("p", 1))
	assert.Equal(t, TransitionFetch, tr)
}

func TestResolveAfterInvalidateIsDropped(t *testing.T) {
	c := NewExpansionCache()
	_, ticket := c.Toggle(parentTask("p", 1))
	c.Invalidate()
	assert.False(t, c.Resolve(ticket, []model.Task{{ID: "c"}}, nil))
	assert.False(t, c.IsExpanded("p"))
	_, ok := c.Children("p")
	assert.False(t, ok)
	exp, loading, cached := c.Stats()
	assert.Zero(t, exp+loading+cached)
}

func TestFlattenDepthFirst(t *testing.T) {
	c := NewExpansionCache()
	a := parentTask("a", 2)
	a1 := model.Task{ID: "a1", ParentID: "a", ChildrenCount: 1}
	a11 := model.Task{ID: "a11", ParentID: "a1"}
	a2 := model.Task{ID: "a2", ParentID: "a"}
	b := model.Task{ID: "b"}

	_, ticket := c.Toggle(a)
	c.Resolve(ticket, []model.Task{a1, a2}, nil)
	_, ticket = c.Toggle(a1)
	c.Resolve(ticket, []model.Task{a11}, nil)

	want := []Row{
		{Task: a, Depth: 0, Expandable: true, Expanded: true},
		{Task: a1, Depth: 1, Expandable: true, Expanded: true},
		{Task: a11, Depth: 2},
		{Task: a2, Depth: 1},
		{Task: b, Depth: 0},
	}
	if diff := cmp.Diff(want, Flatten([]model.Task{a, b}, c)); diff != "" {
		t.Errorf("Flatten mismatch (-want +got):\n%s", diff)
	}

	// collapsing the ancestor hides a1's subtree but keeps its state
	c.Collapse("a")
	assert.Len(t, Flatten([]model.Task{a, b}, c), 2)
	assert.True(t, c.IsExpanded("a1"))
	c.Toggle(a)
	assert.Len(t, Flatten([]model.Task{a, b}, c), 5)
}

func TestFlattenCycleGuard(t *testing.T) {
	loop := fullExpansion{
		"x": {{ID: "y", ParentID: "x", ChildrenCount: 1}},
		"y": {{ID: "x", ParentID: "y", ChildrenCount: 1}},
	}
	rows := Flatten([]model.Task{{ID: "x", ChildrenCount: 1}}, loop)
	assert.Len(t, rows, 2)
}

func TestFlattenLoadingRow(t *testing.T) {
	c := NewExpansionCache()
	p := parentTask("p", 3)
	c.Toggle(p)
	rows := Flatten([]model.Task{p}, c)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Loading)
	assert.False(t, rows[0].Expanded)
}

func TestPropertyExpandCollapseRestoresRows(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 15).Draw(t, "roots")
		roots := make([]model.Task, n)
		for i := range roots {
			roots[i] = model.Task{ID: fmt.Sprintf("r%d", i), ChildrenCount: rapid.IntRange(0, 3).Draw(t, "kids")}
		}
		c := NewExpansionCache()
		// pre-expand a random subset
		for _, r := range roots {
			if r.HasChildren() && rapid.Bool().Draw(t, "pre") {
				_, ticket := c.Toggle(r)
				c.Resolve(ticket, childrenOf(r), nil)
			}
		}

		target := roots[rapid.IntRange(0, n-1).Draw(t, "target")]
		if c.IsExpanded(target.ID) || !target.HasChildren() {
			t.Skip("target already expanded or a leaf")
		}
		before := Flatten(roots, c)
		tr, ticket := c.Toggle(target)
		if tr == TransitionFetch {
			c.Resolve(ticket, childrenOf(target), nil)
		}
		require.Len(t, Flatten(roots, c), len(before)+target.ChildrenCount)
		c.Toggle(target)
		require.Empty(t, cmp.Diff(before, Flatten(roots, c)))
	})
}

func childrenOf(p model.Task) []model.Task {
	kids := make([]model.Task, p.ChildrenCount)
	for i := range kids {
		kids[i] = model.Task{ID: fmt.Sprintf("%s.%d", p.ID, i), ParentID: p.ID}
	}
	return kids
}
