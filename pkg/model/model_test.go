package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusRank(t *testing.T) {
	for i, s := range Statuses {
		assert.Equal(t, i, s.Rank(), s)
		assert.True(t, s.IsValid())
	}
	assert.Equal(t, UnknownRank, Status("archived").Rank())
	assert.False(t, Status("archived").IsValid())
	assert.True(t, StatusDone.IsClosed())
	assert.True(t, StatusCancelled.IsClosed())
	assert.False(t, StatusOnHold.IsClosed())
}

func TestPriorityRankAndNext(t *testing.T) {
	for i, p := range Priorities {
		assert.Equal(t, i, p.Rank())
	}
	assert.Equal(t, UnknownRank, Priority("").Rank())
	assert.Equal(t, PriorityHigh, PriorityCritical.Next())
	assert.Equal(t, PriorityCritical, PriorityLow.Next())
}

func TestParseDate(t *testing.T) {
	good := []string{"2025-01-02", "2025-01-02T10:00:00Z", "2025-01-02T10:00:00.123+02:00", "2025-01-02 10:00:00", " 2025-01-02 "}
	for _, s := range good {
		_, ok := ParseDate(s)
		assert.True(t, ok, s)
	}
	for _, s := range []string{"", "tomorrow", "2025-13-01", "02/01/2025"} {
		_, ok := ParseDate(s)
		assert.False(t, ok, s)
	}
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)
	assert.True(t, Task{DueDate: "2025-06-09", Status: StatusNew}.IsOverdue(now))
	assert.False(t, Task{DueDate: "2025-06-10", Status: StatusNew}.IsOverdue(now), "due today is not overdue")
	assert.False(t, Task{DueDate: "2025-06-01", Status: StatusDone}.IsOverdue(now))
	assert.False(t, Task{Status: StatusNew}.IsOverdue(now))
}

func TestChildPath(t *testing.T) {
	assert.Equal(t, "a", ChildPath("", "a"))
	assert.Equal(t, "a/b/c", ChildPath("a/b", "c"))
}

func TestFilterNormalized(t *testing.T) {
	f := FilterSpec{
		Statuses: []Status{StatusDone, StatusNew, StatusDone},
		Search:   "  ab ",
		Role:     RoleAssignee,
	}.Normalized()
	assert.Equal(t, []Status{StatusDone, StatusNew}, f.Statuses)
	assert.Empty(t, f.Search, "search below three runes is dropped")
	assert.Equal(t, RoleAny, f.Role, "role needs a viewer")

	f = FilterSpec{Search: " héé ", Role: RoleCreator, ViewerID: "me"}.Normalized()
	assert.Equal(t, "héé", f.Search)
	assert.Equal(t, RoleCreator, f.Role)
}

func TestFilterKey(t *testing.T) {
	a := FilterSpec{Statuses: []Status{StatusNew, StatusDone}, Search: "Login"}
	b := FilterSpec{Statuses: []Status{StatusDone, StatusNew}, Search: " login "}
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(FilterSpec{}))
	assert.True(t, FilterSpec{Search: "x"}.IsEmpty())
}

func TestFilterMatches(t *testing.T) {
	task := Task{
		ID: "1", Title: "Fix Login", Status: StatusNew, Priority: PriorityHigh,
		AssigneeID: "ann", CreatorID: "bob", DueDate: "2025-01-01",
	}
	today := "2025-02-01"
	tests := []struct {
		name   string
		filter FilterSpec
		want   bool
	}{
		{"empty", FilterSpec{}, true},
		{"status in", FilterSpec{Statuses: []Status{StatusNew, StatusDone}}, true},
		{"status out", FilterSpec{Statuses: []Status{StatusDone}}, false},
		{"priority", FilterSpec{Priority: PriorityLow}, false},
		{"search", FilterSpec{Search: "login"}, true},
		{"short search ignored", FilterSpec{Search: "zz"}, true},
		{"overdue", FilterSpec{Overdue: true}, true},
		{"mine", FilterSpec{Role: RoleAssignee, ViewerID: "ann"}, true},
		{"created by me", FilterSpec{Role: RoleCreator, ViewerID: "ann"}, false},
		{"participant", FilterSpec{Role: RoleParticipant, ViewerID: "bob"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(task, today))
		})
	}
}

func TestSortSpecToggle(t *testing.T) {
	s := SortSpec{Field: SortFieldTitle, Order: SortAsc}
	s = s.Toggle(SortFieldTitle)
	assert.Equal(t, SortSpec{Field: SortFieldTitle, Order: SortDesc}, s)
	s = s.Toggle(SortFieldDueDate)
	assert.Equal(t, SortSpec{Field: SortFieldDueDate, Order: SortAsc}, s)
}

func TestParseSortSpec(t *testing.T) {
	for f := SortField(0); f < NumSortFields; f++ {
		for _, o := range []SortOrder{SortAsc, SortDesc} {
			spec := SortSpec{Field: f, Order: o}
			got, err := ParseSortSpec(spec.String())
			require.NoError(t, err)
			assert.Equal(t, spec, got)
		}
	}
	got, err := ParseSortSpec("priority")
	require.NoError(t, err)
	assert.Equal(t, SortAsc, got.Order)
	_, err = ParseSortSpec("size:asc")
	assert.Error(t, err)
	_, err = ParseSortSpec("title:sideways")
	assert.Error(t, err)
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("mine")
	require.NoError(t, err)
	assert.Equal(t, RoleAssignee, r)
	_, err = ParseRole("boss")
	assert.Error(t, err)
}
