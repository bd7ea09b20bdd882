// Package ui is the terminal client of the task view engine: a Bubble Tea
// model that renders one view.Session and turns key presses into session
// operations.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/vanderheijden86/taskview/pkg/metrics"
	"github.com/vanderheijden86/taskview/pkg/model"
	"github.com/vanderheijden86/taskview/pkg/view"
	"github.com/vanderheijden86/taskview/pkg/watcher"
)

// inputMode is what the keyboard currently drives.
type inputMode int

const (
	modeNormal inputMode = iota
	modeSearch
	modeConfirmDelete
)

// Option configures a Model.
type Option func(*Model)

// WithViewerID sets the user id used by "mine" and "assign to me".
func WithViewerID(id string) Option {
	return func(m *Model) { m.viewerID = id }
}

// WithWatcher reloads the view whenever w reports a change. The caller owns
// w and starts it.
func WithWatcher(w *watcher.Watcher) Option {
	return func(m *Model) { m.watcher = w }
}

// WithContext sets the context for store calls.
func WithContext(ctx context.Context) Option {
	return func(m *Model) { m.ctx = ctx }
}

// WithTheme replaces the default theme.
func WithTheme(t Theme) Option {
	return func(m *Model) { m.theme = t }
}

// WithLogger sets the model logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Model) { m.logger = l }
}

// WithClock replaces time.Now for due and age columns.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) { m.copy = write }
}

// Model is the Bubble Tea model of the task view.
type Model struct {
	session  *view.Session
	ctx      context.Context
	watcher  *watcher.Watcher
	logger   zerolog.Logger
	viewerID string
	now      func() time.Time
	copy     func(string) error

	theme     Theme
	keys      keyMap
	help      help.Model
	spinner   spinner.Model
	paginator paginator.Model
	search    textinput.Model

	mode     inputMode
	lines    []line
	cursor   int
	offset   int
	width    int
	height   int
	fetching bool
	bulking  bool
	nextPrio model.Priority

	statusMsg     string
	statusIsError bool
}

// NewModel creates the view model over session.
func NewModel(session *view.Session, opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = "search titles (3+ chars)"
	ti.Prompt = "/ "
	ti.CharLimit = 100
	ti.Width = 40
	ti.Cursor.SetMode(cursor.CursorStatic)

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	pg := paginator.New()
	pg.Type = paginator.Arabic

	m := Model{
		session:   session,
		ctx:       context.Background(),
		logger:    zerolog.Nop(),
		now:       time.Now,
		copy:      clipboard.WriteAll,
		theme:     DefaultTheme(lipgloss.DefaultRenderer()),
		keys:      defaultKeyMap(),
		help:      help.New(),
		spinner:   sp,
		paginator: pg,
		search:    ti,
		width:     80,
		height:    24,
		nextPrio:  model.PriorityCritical,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.search.SetValue(session.Filter().Search)
	m.relayout()
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	if m.watcher != nil {
		cmds = append(cmds, WatchFileCmd(m.watcher))
	}
	cmds = append(cmds, fetchTasksCmd(m.ctx, m.session, m.session.Filter()))
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.ensureCursorVisible()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tasksLoadedMsg:
		m.fetching = false
		applied, err := m.session.ApplyTasks(msg.query)
		if err != nil {
			m.setError(err)
		} else if applied {
			m.relayout()
		}
		return m, nil

	case childrenLoadedMsg:
		_, err := m.session.CompleteExpand(msg.result)
		if err != nil {
			m.setError(err)
		}
		m.relayout()
		return m, nil

	case bulkDoneMsg:
		return m.finishBulk(msg)

	case FileChangedMsg:
		m.logger.Debug().Msg("task database changed, reloading")
		m.session.Invalidate()
		m.relayout()
		cmds := []tea.Cmd{m.refetch()}
		if m.watcher != nil {
			cmds = append(cmds, WatchFileCmd(m.watcher))
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeConfirmDelete:
			return m.updateConfirm(msg)
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

func (m Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit
	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, k.Up):
		m.moveCursor(-1)
	case key.Matches(msg, k.Down):
		m.moveCursor(1)
	case key.Matches(msg, k.Expand):
		return m.toggleExpand()
	case key.Matches(msg, k.Collapse):
		if r, ok := m.currentRow(); ok && r.Expanded {
			m.session.Expansion().Collapse(r.Task.ID)
			m.relayout()
		}
	case key.Matches(msg, k.Select):
		if r, ok := m.currentRow(); ok {
			m.session.ToggleSelect(r.Task.ID)
			m.moveCursor(1)
		}
	case key.Matches(msg, k.SelectPage):
		n := 0
		for _, l := range m.lines {
			if l.isRow() {
				m.session.Select(l.row.Task.ID, true)
				n++
			}
		}
		m.setStatus(fmt.Sprintf("selected %d rows", n))
	case key.Matches(msg, k.ClearSel):
		m.session.ClearSelection()
		m.clearStatus()
	case key.Matches(msg, k.SortTitle):
		m.toggleSort(model.SortFieldTitle)
	case key.Matches(msg, k.SortPrio):
		m.toggleSort(model.SortFieldPriority)
	case key.Matches(msg, k.SortStatus):
		m.toggleSort(model.SortFieldStatus)
	case key.Matches(msg, k.SortDue):
		m.toggleSort(model.SortFieldDueDate)
	case key.Matches(msg, k.SortCreated):
		m.toggleSort(model.SortFieldCreatedAt)
	case key.Matches(msg, k.PrevPage):
		if m.session.PrevPage() {
			m.cursor, m.offset = 0, 0
			m.relayout()
		}
	case key.Matches(msg, k.NextPage):
		if m.session.NextPage() {
			m.cursor, m.offset = 0, 0
			m.relayout()
		}
	case key.Matches(msg, k.Group):
		if m.session.GroupBy() == view.GroupProject {
			m.session.SetGroupBy(view.GroupNone)
		} else {
			m.session.SetGroupBy(view.GroupProject)
		}
		m.relayout()
	case key.Matches(msg, k.Search):
		m.mode = modeSearch
		m.search.SetValue(m.session.Filter().Search)
		m.search.CursorEnd()
		return m, m.search.Focus()
	case key.Matches(msg, k.Overdue):
		f := m.session.Filter()
		f.Overdue = !f.Overdue
		return m, m.setFilter(f)
	case key.Matches(msg, k.Mine):
		if m.viewerID == "" {
			m.setError(errors.New("no viewer id configured (set viewer_id in config)"))
			return m, nil
		}
		f := m.session.Filter()
		if f.Role == model.RoleAssignee {
			f.Role, f.ViewerID = model.RoleAny, ""
		} else {
			f.Role, f.ViewerID = model.RoleAssignee, m.viewerID
		}
		return m, m.setFilter(f)
	case key.Matches(msg, k.BulkDone):
		return m.startBulk(view.BulkRequest{Action: view.BulkStatus, Status: model.StatusDone})
	case key.Matches(msg, k.BulkPrio):
		req := view.BulkRequest{Action: view.BulkPriority, Priority: m.nextPrio}
		next, cmd := m.startBulk(req)
		nm := next.(Model)
		if cmd != nil {
			nm.nextPrio = req.Priority.Next()
		}
		return nm, cmd
	case key.Matches(msg, k.AssignMe):
		if m.viewerID == "" {
			m.setError(errors.New("no viewer id configured (set viewer_id in config)"))
			return m, nil
		}
		return m.startBulk(view.BulkRequest{Action: view.BulkAssignee, AssigneeID: m.viewerID})
	case key.Matches(msg, k.Unassign):
		return m.startBulk(view.BulkRequest{Action: view.BulkAssignee})
	case key.Matches(msg, k.Delete):
		if len(m.session.Selection()) == 0 {
			m.setError(view.ErrEmptySelection)
			return m, nil
		}
		m.mode = modeConfirmDelete
	case key.Matches(msg, k.Copy):
		ids := m.session.Selection()
		if len(ids) == 0 {
			if r, ok := m.currentRow(); ok {
				ids = []string{r.Task.ID}
			}
		}
		if len(ids) == 0 {
			return m, nil
		}
		if err := m.copy(strings.Join(ids, "\n")); err != nil {
			m.setError(fmt.Errorf("copy to clipboard: %w", err))
		} else {
			m.setStatus(fmt.Sprintf("copied %d ids", len(ids)))
		}
	case key.Matches(msg, k.Refresh):
		m.session.Invalidate()
		m.relayout()
		return m, m.refetch()
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeNormal
		m.search.Blur()
		m.search.SetValue("")
		f := m.session.Filter()
		f.Search = ""
		return m, m.setFilter(f)
	case "enter":
		m.mode = modeNormal
		m.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	f := m.session.Filter()
	f.Search = m.search.Value()
	return m, tea.Batch(cmd, m.setFilter(f))
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = modeNormal
	switch msg.String() {
	case "y", "Y":
		return m.startBulk(view.BulkRequest{Action: view.BulkDelete})
	default:
		m.setStatus("delete cancelled")
		return m, nil
	}
}

// setFilter installs f and refetches when the filter actually changed.
func (m *Model) setFilter(f model.FilterSpec) tea.Cmd {
	if !m.session.SetFilter(f) {
		return nil
	}
	m.cursor, m.offset = 0, 0
	return m.refetch()
}

func (m *Model) refetch() tea.Cmd {
	m.fetching = true
	return tea.Batch(fetchTasksCmd(m.ctx, m.session, m.session.Filter()), m.spinner.Tick)
}

func (m *Model) toggleSort(f model.SortField) {
	spec := m.session.ToggleSort(f)
	m.setStatus(fmt.Sprintf("sorted by %s %s", spec.Field.Label(), spec.Order.Indicator()))
	m.relayout()
}

func (m Model) toggleExpand() (tea.Model, tea.Cmd) {
	r, ok := m.currentRow()
	if !ok {
		return m, nil
	}
	tr, ticket, err := m.session.BeginExpand(r.Task.ID)
	if err != nil {
		if !errors.Is(err, view.ErrNotExpandable) {
			m.setError(err)
		}
		return m, nil
	}
	m.relayout()
	if tr == view.TransitionFetch {
		return m, tea.Batch(fetchChildrenCmd(m.ctx, m.session, ticket), m.spinner.Tick)
	}
	return m, nil
}

func (m Model) startBulk(req view.BulkRequest) (tea.Model, tea.Cmd) {
	ids := m.session.Selection()
	if len(ids) == 0 {
		m.setError(view.ErrEmptySelection)
		return m, nil
	}
	if m.bulking {
		m.setError(view.ErrBulkInProgress)
		return m, nil
	}
	m.bulking = true
	m.setStatus(fmt.Sprintf("%s on %d tasks…", describeBulk(req), len(ids)))
	return m, tea.Batch(bulkCmd(m.ctx, m.session, ids, req), m.spinner.Tick)
}

func (m Model) finishBulk(msg bulkDoneMsg) (tea.Model, tea.Cmd) {
	m.bulking = false
	if msg.err != nil && !errors.Is(msg.err, view.ErrBulkFailed) {
		m.setError(msg.err)
		return m, nil
	}
	r := msg.report
	refetch := m.session.FinishBulk(r)
	summary := fmt.Sprintf("%s: %d ok", describeBulk(r.Request), len(r.Succeeded()))
	if failed := r.Failed(); len(failed) > 0 {
		m.setError(fmt.Errorf("%s, %d failed (%s)", summary, len(failed), strings.Join(failed, ", ")))
	} else {
		m.setStatus(summary)
	}
	m.relayout()
	if refetch {
		return m, m.refetch()
	}
	return m, nil
}

func describeBulk(req view.BulkRequest) string {
	switch req.Action {
	case view.BulkStatus:
		return "status → " + req.Status.Label()
	case view.BulkPriority:
		return "priority → " + string(req.Priority)
	case view.BulkAssignee:
		if req.AssigneeID == "" {
			return "unassign"
		}
		return "assign → " + req.AssigneeID
	case view.BulkDelete:
		return "delete"
	default:
		return req.Action.String()
	}
}

// relayout rebuilds the line list from the session and keeps the cursor on
// the same task when it is still visible.
func (m *Model) relayout() {
	var curID string
	if r, ok := m.currentRow(); ok {
		curID = r.Task.ID
	}
	m.lines = buildLines(m.session)

	m.cursor = m.firstRow(0, 1)
	if curID != "" {
		for i, l := range m.lines {
			if l.isRow() && l.row.Task.ID == curID {
				m.cursor = i
				break
			}
		}
	}
	f := m.session.Footer()
	m.paginator.TotalPages = max(f.TotalPages, 1)
	m.paginator.Page = max(f.Page-1, 0)
	m.ensureCursorVisible()
}

// firstRow returns the first row index from i moving in dir, or -1.
func (m *Model) firstRow(i, dir int) int {
	for ; i >= 0 && i < len(m.lines); i += dir {
		if m.lines[i].isRow() {
			return i
		}
	}
	return -1
}

func (m *Model) moveCursor(delta int) {
	if m.cursor < 0 {
		return
	}
	if next := m.firstRow(m.cursor+delta, delta); next >= 0 {
		m.cursor = next
	}
	m.ensureCursorVisible()
}

func (m *Model) currentRow() (view.Row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.lines) || !m.lines[m.cursor].isRow() {
		return view.Row{}, false
	}
	return m.lines[m.cursor].row, true
}

// listHeight is the number of task lines that fit between the header and
// the footer.
func (m *Model) listHeight() int {
	reserved := 4 // header, divider, footer, help
	if m.help.ShowAll {
		reserved += 5
	}
	if m.mode == modeSearch || m.mode == modeConfirmDelete {
		reserved++
	}
	if h := m.height - reserved; h > 0 {
		return h
	}
	return 1
}

// ensureCursorVisible scrolls just enough to keep the cursor on screen.
func (m *Model) ensureCursorVisible() {
	visible := m.listHeight()
	if m.cursor >= 0 {
		if m.cursor < m.offset {
			m.offset = m.cursor
		}
		if m.cursor >= m.offset+visible {
			m.offset = m.cursor - visible + 1
		}
	}
	maxOffset := len(m.lines) - visible
	if maxOffset < 0 {
		maxOffset = 0
	}
	if m.offset > maxOffset {
		m.offset = maxOffset
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m *Model) setStatus(s string) {
	m.statusMsg, m.statusIsError = s, false
}

func (m *Model) setError(err error) {
	m.statusMsg, m.statusIsError = err.Error(), true
}

func (m *Model) clearStatus() {
	m.statusMsg, m.statusIsError = "", false
}

func (m Model) View() string {
	defer metrics.Timer(metrics.UIRender)()

	rr := rowRenderer{
		theme:   m.theme,
		session: m.session,
		spinner: m.spinner.View(),
		now:     m.now(),
		width:   m.width,
	}

	var sb strings.Builder
	sb.WriteString(rr.renderHeader(m.session.Sort()))
	sb.WriteString("\n")

	if len(m.lines) == 0 {
		sb.WriteString(m.renderEmptyState())
		sb.WriteString("\n")
	} else {
		end := min(m.offset+m.listHeight(), len(m.lines))
		for i := m.offset; i < end; i++ {
			l := m.lines[i]
			if !l.isRow() {
				sb.WriteString(rr.renderGroup(l.group))
			} else if i == m.cursor {
				sb.WriteString(m.theme.Selected.Render(rr.renderRow(l.row, true)))
			} else {
				sb.WriteString(" " + rr.renderRow(l.row, false))
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString(RenderDivider(m.width))
	sb.WriteString("\n")
	sb.WriteString(m.renderFooter())
	sb.WriteString("\n")

	switch m.mode {
	case modeSearch:
		sb.WriteString(m.search.View())
		sb.WriteString("\n")
	case modeConfirmDelete:
		sb.WriteString(m.theme.Error.Render(fmt.Sprintf("Delete %d selected tasks and their subtasks? (y/n)", len(m.session.Selection()))))
		sb.WriteString("\n")
	}
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

func (m Model) renderEmptyState() string {
	muted := m.theme.MutedText
	switch {
	case !m.session.Loaded():
		return muted.Render(m.spinner.View() + " loading tasks…")
	case !m.session.Filter().IsEmpty():
		return muted.Render("No tasks match the current filter.")
	default:
		return muted.Render("No tasks yet. Import some with: tv import tasks.jsonl")
	}
}

// renderFooter shows page position, item and selection counts, active
// filters and the last status message.
func (m Model) renderFooter() string {
	f := m.session.Footer()
	parts := []string{f.String()}
	if !f.Grouped && f.TotalPages > 1 {
		parts = append(parts, m.paginator.View())
	}
	filter := m.session.Filter()
	var active []string
	if filter.Search != "" {
		active = append(active, fmt.Sprintf("search %q", filter.Search))
	}
	if filter.Overdue {
		active = append(active, "overdue")
	}
	if filter.Role != model.RoleAny {
		active = append(active, "mine")
	}
	if len(active) > 0 {
		parts = append(parts, m.theme.Info.Render("["+strings.Join(active, ", ")+"]"))
	}
	if m.fetching || m.bulking {
		parts = append(parts, m.spinner.View())
	}
	if m.statusMsg != "" {
		if m.statusIsError {
			parts = append(parts, m.theme.Error.Render(m.statusMsg))
		} else {
			parts = append(parts, m.theme.MutedText.Render(m.statusMsg))
		}
	}
	return m.theme.Renderer.NewStyle().MaxWidth(max(m.width, 20)).Render(strings.Join(parts, "  "))
}
