package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/taskview/pkg/model"
	"github.com/vanderheijden86/taskview/pkg/view"
)

// line is one rendered line of the task pane: a project heading or a task
// row.
type line struct {
	group *view.Group
	row   view.Row
}

func (l line) isRow() bool { return l.group == nil }

// buildLines lays out the session's current rows, with project headings when
// grouped.
func buildLines(s *view.Session) []line {
	if s.GroupBy() == view.GroupProject {
		var out []line
		for _, g := range s.Groups() {
			out = append(out, line{group: &g.Group})
			for _, r := range g.Rows {
				out = append(out, line{row: r})
			}
		}
		return out
	}
	rows := s.Rows()
	out := make([]line, len(rows))
	for i, r := range rows {
		out[i] = line{row: r}
	}
	return out
}

// rowRenderer renders task rows at a fixed width.
type rowRenderer struct {
	theme   Theme
	session *view.Session
	spinner string
	now     time.Time
	width   int
}

const (
	dueColumnWidth = 10
	ageColumnWidth = 8
)

// renderGroup renders a project heading.
func (rr rowRenderer) renderGroup(g *view.Group) string {
	title := fmt.Sprintf("▌ %s (%d)", g.Name, len(g.Tasks))
	return rr.theme.Group.Render(truncate(title, rr.width))
}

// renderRow renders one task row:
// [indent] [checkbox] [indicator] [prio] [status] [title] [due] [age]
func (rr rowRenderer) renderRow(r view.Row, isCursor bool) string {
	t := r.Task
	width := rr.width
	if width <= 0 {
		width = 80
	}
	// one less than the terminal so the last cell never wraps
	width--

	var left strings.Builder

	indent := strings.Repeat("  ", r.Depth)
	left.WriteString(indent)

	check := "[ ]"
	if rr.session.IsSelected(t.ID) {
		check = rr.theme.Checked.Render("[x]")
	}
	left.WriteString(check)
	left.WriteString(" ")

	left.WriteString(rr.theme.Indicator.Render(rr.indicator(r)))
	left.WriteString(" ")
	left.WriteString(RenderPriorityBadge(t.Priority))
	left.WriteString(" ")
	left.WriteString(RenderStatusBadge(t.Status))
	left.WriteString(" ")

	fixed := len(indent) + 3 + 1 + 1 + 1 + priorityBadgeWidth + 1 + statusBadgeWidth + 1

	// ── Right side: due and age columns ──
	var right []string
	rightWidth := 0
	if width > 60 {
		due := ""
		if d, ok := t.DueTime(); ok {
			due = FormatDue(d, rr.now)
		}
		dueCell := fmt.Sprintf("%*s", dueColumnWidth, due)
		if t.IsOverdue(rr.now) {
			dueCell = rr.theme.Overdue.Render(dueCell)
		} else {
			dueCell = rr.theme.MutedText.Render(dueCell)
		}
		right = append(right, dueCell)
		rightWidth += dueColumnWidth + 1
	}
	if width > 72 {
		age := ""
		if c, ok := t.CreatedTime(); ok {
			age = FormatTimeRel(c, rr.now)
		}
		right = append(right, rr.theme.MutedText.Render(fmt.Sprintf("%*s", ageColumnWidth, age)))
		rightWidth += ageColumnWidth + 1
	}

	titleWidth := width - fixed - rightWidth - 1
	if titleWidth < 5 {
		titleWidth = 5
	}
	title := truncate(t.Title, titleWidth)
	left.WriteString(rr.renderTitle(title, isCursor))
	if pad := titleWidth - lipgloss.Width(title); pad > 0 {
		left.WriteString(strings.Repeat(" ", pad))
	}

	rightSide := strings.Join(right, " ")
	padding := width - lipgloss.Width(left.String()) - lipgloss.Width(rightSide)
	if padding < 0 {
		padding = 0
	}
	row := left.String() + strings.Repeat(" ", padding) + rightSide
	return rr.theme.Renderer.NewStyle().Width(width).MaxWidth(width).Render(row)
}

// indicator is ▸ collapsed, ▾ expanded, • leaf, or the spinner while the
// children load.
func (rr rowRenderer) indicator(r view.Row) string {
	switch {
	case r.Loading:
		return rr.spinner
	case !r.Expandable:
		return "•"
	case r.Expanded:
		return "▾"
	default:
		return "▸"
	}
}

// renderTitle styles the title with search matches emphasized.
func (rr rowRenderer) renderTitle(title string, isCursor bool) string {
	base := rr.theme.Renderer.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#E8E8E8"})
	if isCursor {
		base = base.Foreground(rr.theme.Primary).Bold(true)
	}
	var sb strings.Builder
	for _, span := range rr.session.Highlight(title) {
		if span.Highlight {
			sb.WriteString(rr.theme.Match.Render(span.Text))
		} else {
			sb.WriteString(base.Render(span.Text))
		}
	}
	return sb.String()
}

// renderHeader returns the column header row, marking the active sort.
func (rr rowRenderer) renderHeader(spec model.SortSpec) string {
	width := rr.width
	if width <= 0 {
		width = 80
	}
	label := func(f model.SortField) string {
		if spec.Field == f {
			return f.Label() + " " + spec.Order.Indicator()
		}
		return f.Label()
	}
	head := fmt.Sprintf("    %s %s %s", padRight(label(model.SortFieldPriority), 11), padRight(label(model.SortFieldStatus), 9), label(model.SortFieldTitle))
	tail := fmt.Sprintf("%*s %*s", dueColumnWidth, label(model.SortFieldDueDate), ageColumnWidth, label(model.SortFieldCreatedAt))
	pad := width - lipgloss.Width(head) - lipgloss.Width(tail) - 1
	if pad < 1 {
		pad = 1
	}
	return rr.theme.Header.Width(width).MaxWidth(width).Render(head + strings.Repeat(" ", pad) + tail)
}
