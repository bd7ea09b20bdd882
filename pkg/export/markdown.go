// Package export renders task views as markdown documents.
package export

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/natefinch/atomic"

	"github.com/vanderheijden86/taskview/pkg/model"
	"github.com/vanderheijden86/taskview/pkg/view"
)

var slugNonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9]+`)

// ViewMarkdown renders the current view of s: a status summary of the whole
// snapshot followed by the visible rows as a nested checklist. Grouped views
// get one section per project plus a table of contents; ungrouped views show
// the current page only.
func ViewMarkdown(s *view.Session, title string, now time.Time) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", title)
	fmt.Fprintf(&sb, "*Generated: %s*\n\n", now.Format(time.RFC1123))

	spec := s.Sort()
	fmt.Fprintf(&sb, "Sorted by %s %s. %s.\n\n", spec.Field.Label(), spec.Order.Indicator(), s.Footer())

	sb.WriteString(summaryTable(s.Tasks()))

	if s.GroupBy() != view.GroupProject {
		sb.WriteString("## Tasks\n\n")
		writeRows(&sb, s.Rows(), now)
		return sb.String()
	}

	groups := s.Groups()
	slugCounts := make(map[string]int, len(groups))
	headings := make([]string, len(groups))
	slugs := make([]string, len(groups))
	for i, g := range groups {
		headings[i] = fmt.Sprintf("%s (%d)", g.Name, len(g.Tasks))
		slugs[i] = uniqueSlug(createSlug(headings[i]), slugCounts)
	}

	if len(groups) > 0 {
		sb.WriteString("## Contents\n\n")
		for i := range groups {
			fmt.Fprintf(&sb, "- [%s](#%s)\n", escapeText(headings[i]), slugs[i])
		}
		sb.WriteString("\n")
	}
	for i, g := range groups {
		fmt.Fprintf(&sb, "## %s\n\n", escapeText(headings[i]))
		writeRows(&sb, g.Rows, now)
	}
	return sb.String()
}

func summaryTable(tasks []model.Task) string {
	counts := make(map[model.Status]int)
	for _, t := range tasks {
		counts[t.Status]++
	}

	var sb strings.Builder
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Status | Count |\n|--------|-------|\n")
	fmt.Fprintf(&sb, "| **Total** | %d |\n", len(tasks))
	for _, st := range model.Statuses {
		if n := counts[st]; n > 0 {
			fmt.Fprintf(&sb, "| %s %s | %d |\n", getStatusEmoji(st), st.Label(), n)
			delete(counts, st)
		}
	}
	other := 0
	for _, n := range counts {
		other += n
	}
	if other > 0 {
		fmt.Fprintf(&sb, "| %s other | %d |\n", getStatusEmoji(""), other)
	}
	sb.WriteString("\n")
	return sb.String()
}

func writeRows(sb *strings.Builder, rows []view.Row, now time.Time) {
	if len(rows) == 0 {
		sb.WriteString("*No tasks match.*\n\n")
		return
	}
	for _, r := range rows {
		t := r.Task
		box := " "
		if t.Status.IsClosed() {
			box = "x"
		}
		fmt.Fprintf(sb, "%s- [%s] %s `%s` %s", strings.Repeat("  ", r.Depth), box,
			getStatusEmoji(t.Status), t.ID, escapeText(t.Title))
		fmt.Fprintf(sb, " · %s", getPriorityLabel(t.Priority))
		if d, ok := t.DueTime(); ok {
			fmt.Fprintf(sb, " · due %s", d.Format(time.DateOnly))
			if t.IsOverdue(now) {
				sb.WriteString(" ⚠️ overdue")
			}
		}
		if t.AssigneeID != "" {
			fmt.Fprintf(sb, " · @%s", t.AssigneeID)
		}
		if r.Expandable && !r.Expanded {
			fmt.Fprintf(sb, " (+%d)", t.ChildrenCount)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

// TaskCard renders one task with its direct subtasks.
func TaskCard(t model.Task, projectName string, children []model.Task, now time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", escapeText(t.Title))
	sb.WriteString("| | |\n|---|---|\n")
	row := func(k, v string) {
		if v != "" {
			fmt.Fprintf(&sb, "| **%s** | %s |\n", k, escapeCell(v))
		}
	}
	row("ID", "`"+t.ID+"`")
	row("Status", getStatusEmoji(t.Status)+" "+t.Status.Label())
	row("Priority", getPriorityLabel(t.Priority))
	if d, ok := t.DueTime(); ok {
		due := d.Format(time.DateOnly)
		if t.IsOverdue(now) {
			due += " (overdue)"
		}
		row("Due", due)
	}
	row("Assignee", t.AssigneeID)
	row("Creator", t.CreatorID)
	row("Project", projectName)
	if c, ok := t.CreatedTime(); ok {
		row("Created", c.Format(time.DateOnly)+", "+humanize.RelTime(c, now, "ago", "from now"))
	}
	row("Parent", t.ParentID)
	row("Path", t.Path)

	if len(children) > 0 {
		fmt.Fprintf(&sb, "\n## Subtasks (%d)\n\n", len(children))
		for _, c := range children {
			box := " "
			if c.Status.IsClosed() {
				box = "x"
			}
			more := ""
			if c.HasChildren() {
				more = fmt.Sprintf(" (+%d)", c.ChildrenCount)
			}
			fmt.Fprintf(&sb, "- [%s] `%s` %s%s\n", box, c.ID, escapeText(c.Title), more)
		}
	}
	return sb.String()
}

// SaveMarkdownToFile writes content to path atomically.
func SaveMarkdownToFile(path, content string) error {
	if err := atomic.WriteFile(path, strings.NewReader(content)); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// uniqueSlug appends -1, -2, ... to repeated slugs, the way GitHub numbers
// duplicate heading anchors.
func uniqueSlug(base string, counts map[string]int) string {
	if base == "" {
		base = "section"
	}
	if count, ok := counts[base]; ok {
		count++
		counts[base] = count
		return fmt.Sprintf("%s-%d", base, count)
	}
	counts[base] = 0
	return base
}

// createSlug creates a URL-friendly slug from heading text.
func createSlug(text string) string {
	slug := strings.ToLower(text)
	slug = slugNonAlphanumericRegex.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// escapeText keeps a title on one line.
func escapeText(s string) string {
	return strings.NewReplacer("\r", "", "\n", " ").Replace(s)
}

// escapeCell additionally escapes pipes so a value cannot split a table cell.
func escapeCell(s string) string {
	return strings.ReplaceAll(escapeText(s), "|", `\|`)
}

func getStatusEmoji(status model.Status) string {
	switch status {
	case model.StatusNew, model.StatusAssigned:
		return "🟢"
	case model.StatusInProgress, model.StatusInReview:
		return "🔵"
	case model.StatusOnHold:
		return "🟠"
	case model.StatusDone, model.StatusCancelled:
		return "⚫"
	case model.StatusDraft:
		return "📝"
	default:
		return "⚪"
	}
}

func getPriorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityCritical:
		return "🔥 Critical"
	case model.PriorityHigh:
		return "⚡ High"
	case model.PriorityMedium:
		return "🔹 Medium"
	case model.PriorityLow:
		return "☕ Low"
	case "":
		return "no priority"
	default:
		return string(p)
	}
}
