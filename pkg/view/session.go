package view

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/vanderheijden86/taskview/pkg/model"
)

// Session is the state of one task collection view: the active filter, sort,
// page and grouping, the last task snapshot, the expansion cache and the
// selection.
//
// A Session belongs to a single owner goroutine (an event loop or a command).
// The Fetch*/RunBulk methods only touch the store and the internally locked
// caches, so they can run on other goroutines; their results are handed back
// to the owner through the matching Apply/Complete/Finish method.
type Session struct {
	store       TaskStore
	queries     *QueryCache
	expansion   *ExpansionCache
	selection   *SelectionSet
	coordinator *Coordinator
	sorter      *Sorter
	bulk        bulkRun
	logger      zerolog.Logger

	filter   model.FilterSpec
	sort     model.SortSpec
	page     Pagination
	groupBy  GroupBy
	lang     language.Tag
	bulkCap  int
	loaded   bool
	tasks    []model.Task
	byID     map[string]int
	roots    []model.Task
	projects map[string]string
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithPageSize sets the number of roots per page.
func WithPageSize(n int) Option {
	return func(s *Session) { s.page = NewPagination(n) }
}

// WithSort sets the initial sort.
func WithSort(spec model.SortSpec) Option {
	return func(s *Session) { s.sort = spec }
}

// WithFilter sets the initial filter.
func WithFilter(f model.FilterSpec) Option {
	return func(s *Session) { s.filter = f.Normalized() }
}

// WithLanguage sets the collation language for titles and project names.
func WithLanguage(tag language.Tag) Option {
	return func(s *Session) { s.lang = tag }
}

// WithBulkLimit caps concurrent store calls during a bulk run. n <= 0 means
// no cap.
func WithBulkLimit(n int) Option {
	return func(s *Session) { s.bulkCap = n }
}

// WithGroupBy sets the initial grouping.
func WithGroupBy(g GroupBy) Option {
	return func(s *Session) { s.groupBy = g }
}

// NewSession creates a session over store. Nothing is fetched until Refresh
// or FetchTasks/ApplyTasks.
func NewSession(store TaskStore, opts ...Option) *Session {
	s := &Session{
		store:     store,
		queries:   NewQueryCache(store),
		expansion: NewExpansionCache(),
		selection: NewSelectionSet(),
		logger:    zerolog.Nop(),
		sort:      model.DefaultSort(),
		page:      NewPagination(DefaultPageSize),
		lang:      language.English,
		byID:      make(map[string]int),
		projects:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sorter = NewSorter(s.lang)
	s.coordinator = NewCoordinator(store,
		WithConcurrencyLimit(s.bulkCap),
		WithCoordinatorLogger(s.logger),
	)
	return s
}

// Filter returns the active, normalized filter.
func (s *Session) Filter() model.FilterSpec { return s.filter }

// Sort returns the active sort.
func (s *Session) Sort() model.SortSpec { return s.sort }

// Page returns the pagination state.
func (s *Session) Page() Pagination { return s.page }

// GroupBy returns the active grouping.
func (s *Session) GroupBy() GroupBy { return s.groupBy }

// Loaded reports whether a task snapshot has been applied.
func (s *Session) Loaded() bool { return s.loaded }

// Expansion exposes the expansion cache.
func (s *Session) Expansion() *ExpansionCache { return s.expansion }

// SetFilter replaces the filter and goes back to page 1. It reports whether
// the filter changed; the caller refetches when it did.
func (s *Session) SetFilter(f model.FilterSpec) bool {
	f = f.Normalized()
	if f.Equal(s.filter) {
		return false
	}
	s.filter = f
	s.page.Page = 1
	return true
}

// ToggleSort sorts by field, flipping the direction when field is already
// active. The current page is kept if it still exists.
func (s *Session) ToggleSort(field model.SortField) model.SortSpec {
	s.SetSort(s.sort.Toggle(field))
	return s.sort
}

// SetSort replaces the sort and re-sorts the snapshot.
func (s *Session) SetSort(spec model.SortSpec) {
	s.sort = spec
	s.rebuild()
}

// SetPage moves to page n. Pages outside [1, TotalPages] are refused.
func (s *Session) SetPage(n int) bool {
	return s.page.SetPage(n, len(s.roots))
}

// NextPage moves forward one page if possible.
func (s *Session) NextPage() bool {
	return s.SetPage(s.page.Page + 1)
}

// PrevPage moves back one page if possible.
func (s *Session) PrevPage() bool {
	return s.SetPage(s.page.Page - 1)
}

// TotalPages returns the page count for the current roots.
func (s *Session) TotalPages() int {
	return s.page.TotalPages(len(s.roots))
}

// SetGroupBy switches grouping. Grouped views are not paginated.
func (s *Session) SetGroupBy(g GroupBy) {
	s.groupBy = g
}

// TaskQuery is the result of FetchTasks.
type TaskQuery struct {
	Filter   model.FilterSpec
	Tasks    []model.Task
	Projects []model.Project
	Err      error
}

// FetchTasks loads the tasks for filter (normally s.Filter() captured by the
// owner) and the project list. It is safe to call from any goroutine.
// Project lookup failures are logged and leave headings showing raw ids.
func (s *Session) FetchTasks(ctx context.Context, filter model.FilterSpec) TaskQuery {
	q := TaskQuery{Filter: filter.Normalized()}
	tasks, err := s.queries.Tasks(ctx, q.Filter)
	if err != nil {
		q.Err = fmt.Errorf("list tasks: %w", err)
		return q
	}
	q.Tasks = tasks
	projects, err := s.queries.Projects(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("list projects failed")
	}
	q.Projects = projects
	return q
}

// ApplyTasks installs a fetched snapshot. Results for a filter other than the
// active one are ignored. On a failed fetch the previous snapshot stays and
// the error is returned. It reports whether the snapshot was replaced.
func (s *Session) ApplyTasks(q TaskQuery) (bool, error) {
	if !q.Filter.Equal(s.filter) {
		s.logger.Debug().Str("filter", q.Filter.Key()).Msg("dropping stale task list")
		return false, nil
	}
	if q.Err != nil {
		s.logger.Warn().Err(q.Err).Msg("task fetch failed")
		return false, q.Err
	}

	s.tasks = q.Tasks
	s.loaded = true
	clear(s.byID)
	for i := range s.tasks {
		s.byID[s.tasks[i].ID] = i
	}
	if q.Projects != nil {
		clear(s.projects)
		for _, p := range q.Projects {
			s.projects[p.ID] = p.Name
		}
	}
	s.rebuild()
	s.reconcileSelection()
	return true, nil
}

// Refresh fetches and applies the task list for the active filter.
func (s *Session) Refresh(ctx context.Context) error {
	_, err := s.ApplyTasks(s.FetchTasks(ctx, s.filter))
	return err
}

// Invalidate drops cached queries and every fetched subtree. The next
// Refresh goes to the store.
func (s *Session) Invalidate() {
	s.queries.Invalidate()
	s.expansion.Invalidate()
}

func (s *Session) rebuild() {
	s.roots = s.sorter.Roots(s.tasks, s.sort)
	s.page.Clamp(len(s.roots))
}

// reconcileSelection drops selected ids that are neither in the snapshot nor
// in a fetched subtree.
func (s *Session) reconcileSelection() {
	cached := s.expansion.CachedIDs()
	dropped := s.selection.Retain(func(id string) bool {
		if _, ok := s.byID[id]; ok {
			return true
		}
		_, ok := cached[id]
		return ok
	})
	if len(dropped) > 0 {
		s.logger.Debug().Strs("ids", dropped).Msg("selection reconciled")
	}
}

// Lookup finds a task in the snapshot or in a fetched subtree.
func (s *Session) Lookup(id string) (model.Task, bool) {
	if i, ok := s.byID[id]; ok {
		return s.tasks[i], true
	}
	return s.expansion.Find(id)
}

// BeginExpand toggles the expansion of id. On TransitionFetch the caller must
// run FetchChildren with the ticket and hand the result to CompleteExpand.
func (s *Session) BeginExpand(id string) (Transition, FetchTicket, error) {
	task, ok := s.Lookup(id)
	if !ok {
		return TransitionNone, FetchTicket{}, fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	if !task.HasChildren() {
		return TransitionNone, FetchTicket{}, fmt.Errorf("%w: %s", ErrNotExpandable, id)
	}
	tr, ticket := s.expansion.Toggle(task)
	return tr, ticket, nil
}

// ChildrenResult is the result of FetchChildren.
type ChildrenResult struct {
	Ticket   FetchTicket
	Children []model.Task
	Err      error
}

// FetchChildren loads the direct children for ticket. Safe from any goroutine.
func (s *Session) FetchChildren(ctx context.Context, ticket FetchTicket) ChildrenResult {
	kids, err := s.queries.Children(ctx, ticket.ID)
	if err != nil {
		err = fmt.Errorf("list children of %s: %w", ticket.ID, err)
	}
	return ChildrenResult{Ticket: ticket, Children: kids, Err: err}
}

// CompleteExpand settles a children fetch. It reports whether the task is now
// expanded and returns the fetch error, if any.
func (s *Session) CompleteExpand(res ChildrenResult) (bool, error) {
	expanded := s.expansion.Resolve(res.Ticket, res.Children, res.Err)
	if res.Err != nil {
		s.logger.Warn().Err(res.Err).Str("task", res.Ticket.ID).Msg("children fetch failed")
		return false, res.Err
	}
	return expanded, nil
}

// ToggleExpand is BeginExpand, FetchChildren and CompleteExpand in one
// blocking call. After a fetch it returns TransitionExpanded, or
// TransitionCollapsed with the error when the fetch failed.
func (s *Session) ToggleExpand(ctx context.Context, id string) (Transition, error) {
	tr, ticket, err := s.BeginExpand(id)
	if err != nil || tr != TransitionFetch {
		return tr, err
	}
	ok, err := s.CompleteExpand(s.FetchChildren(ctx, ticket))
	switch {
	case err != nil:
		return TransitionCollapsed, err
	case !ok:
		// invalidated while the fetch was in flight
		return TransitionNone, nil
	}
	return TransitionExpanded, nil
}

// Select adds or removes id from the selection.
func (s *Session) Select(id string, selected bool) {
	s.selection.Select(id, selected)
}

// ToggleSelect flips id and returns whether it is now selected.
func (s *Session) ToggleSelect(id string) bool {
	return s.selection.Toggle(id)
}

// SelectVisible selects every row on the current page and returns how many
// rows that was.
func (s *Session) SelectVisible() int {
	rows := s.Rows()
	for _, r := range rows {
		s.selection.Select(r.Task.ID, true)
	}
	return len(rows)
}

// ClearSelection empties the selection.
func (s *Session) ClearSelection() {
	s.selection.Clear()
}

// Selection returns the selected ids in ascending order.
func (s *Session) Selection() []string {
	return s.selection.IDs()
}

// IsSelected reports whether id is selected.
func (s *Session) IsSelected(id string) bool {
	return s.selection.Contains(id)
}

// RunBulk applies req to ids. It only talks to the store and may run on any
// goroutine; hand the report to FinishBulk on the owner goroutine. Only one
// run per session is allowed at a time.
func (s *Session) RunBulk(ctx context.Context, ids []string, req BulkRequest) (BulkReport, error) {
	if !s.bulk.begin() {
		return BulkReport{Request: req}, ErrBulkInProgress
	}
	defer s.bulk.end()
	return s.coordinator.Apply(ctx, ids, req)
}

// FinishBulk updates session state after a bulk run and reports whether the
// task list must be refetched. Any success invalidates the caches; a fully
// successful delete also clears the selection.
func (s *Session) FinishBulk(report BulkReport) bool {
	if report.Request.Action == BulkDelete && report.OK() && len(report.Results) > 0 {
		s.selection.Clear()
	}
	if !report.AnySucceeded() {
		return false
	}
	s.Invalidate()
	return true
}

// Bulk runs req over the current selection, then refetches when anything
// changed. The returned error wraps ErrBulkFailed when any call failed; the
// report holds the per-id outcomes either way.
func (s *Session) Bulk(ctx context.Context, req BulkRequest) (BulkReport, error) {
	report, err := s.RunBulk(ctx, s.selection.IDs(), req)
	if err != nil {
		return report, err
	}
	if s.FinishBulk(report) {
		if rerr := s.Refresh(ctx); rerr != nil {
			return report, errors.Join(report.Err, fmt.Errorf("refresh after bulk %s: %w", req.Action, rerr))
		}
	}
	return report, report.Err
}

// BulkStatus sets status on every selected task.
func (s *Session) BulkStatus(ctx context.Context, status model.Status) (BulkReport, error) {
	return s.Bulk(ctx, BulkRequest{Action: BulkStatus, Status: status})
}

// BulkPriority sets priority on every selected task.
func (s *Session) BulkPriority(ctx context.Context, priority model.Priority) (BulkReport, error) {
	return s.Bulk(ctx, BulkRequest{Action: BulkPriority, Priority: priority})
}

// BulkAssignee assigns every selected task to assigneeID; empty unassigns.
func (s *Session) BulkAssignee(ctx context.Context, assigneeID string) (BulkReport, error) {
	return s.Bulk(ctx, BulkRequest{Action: BulkAssignee, AssigneeID: assigneeID})
}

// BulkDelete deletes every selected task.
func (s *Session) BulkDelete(ctx context.Context) (BulkReport, error) {
	return s.Bulk(ctx, BulkRequest{Action: BulkDelete})
}

// Tasks returns the current snapshot as fetched.
func (s *Session) Tasks() []model.Task { return s.tasks }

// Roots returns the sorted roots of the snapshot, unpaginated.
func (s *Session) Roots() []model.Task { return s.roots }

// Rows returns the flattened rows of the current page.
func (s *Session) Rows() []Row {
	return Flatten(Window(s.roots, s.page), s.expansion)
}

// GroupRows is one project group with its flattened rows.
type GroupRows struct {
	Group
	Rows []Row
}

// Groups returns every root grouped by project, each group flattened.
// Grouped output is not paginated.
func (s *Session) Groups() []GroupRows {
	groups := GroupByProject(s.roots, s.projects, s.sorter)
	out := make([]GroupRows, len(groups))
	for i, g := range groups {
		out[i] = GroupRows{Group: g, Rows: Flatten(g.Tasks, s.expansion)}
	}
	return out
}

// ProjectName returns the display name of a project id.
func (s *Session) ProjectName(id string) string {
	if id == "" {
		return NoProjectName
	}
	if name := s.projects[id]; name != "" {
		return name
	}
	return id
}

// Highlight splits title around matches of the active search text.
func (s *Session) Highlight(title string) []Span {
	return Highlight(title, s.filter.Search)
}

// Footer summarizes the view for a status line.
type Footer struct {
	Page       int
	TotalPages int
	Items      int // roots in the snapshot
	Selected   int
	Grouped    bool
	HasPrev    bool
	HasNext    bool
}

// String renders the footer as a single line.
func (f Footer) String() string {
	var out string
	if f.Grouped {
		out = fmt.Sprintf("%d items", f.Items)
	} else {
		out = fmt.Sprintf("Page %d of %d (%d items)", f.Page, f.TotalPages, f.Items)
	}
	if f.Selected > 0 {
		out += fmt.Sprintf(", %d selected", f.Selected)
	}
	return out
}

// Footer returns the current footer.
func (s *Session) Footer() Footer {
	n := len(s.roots)
	f := Footer{
		Items:    n,
		Selected: s.selection.Len(),
		Grouped:  s.groupBy == GroupProject,
	}
	if !f.Grouped {
		f.Page = s.page.Page
		f.TotalPages = s.page.TotalPages(n)
		f.HasPrev = s.page.HasPrev()
		f.HasNext = s.page.HasNext(n)
	}
	return f
}
