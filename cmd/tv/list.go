package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/taskview/pkg/export"
	"github.com/vanderheijden86/taskview/pkg/metrics"
	"github.com/vanderheijden86/taskview/pkg/model"
	"github.com/vanderheijden86/taskview/pkg/ui"
	"github.com/vanderheijden86/taskview/pkg/view"
)

type listOptions struct {
	filter   filterFlags
	sort     string
	page     int
	group    string
	expand   []string
	jsonOut  bool
	markdown bool
	outPath  string
	stats    bool
	noHeader bool
}

func newListCmd(a *app) *cobra.Command {
	var o listOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print one page of the task view",
		Long: `list runs the same pipeline as the interactive view: fetch with the
filter, pick the roots, sort, paginate (or group by project), then expand the
requested tasks.`,
		Example: `  tv list --sort priority --status new,in_progress
  tv list --mine --overdue --group project
  tv list --expand T1,T4 --json
  tv list --group project --markdown -o report.md`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runList(cmd.Context(), o)
		},
	}
	f := cmd.Flags()
	f.AddFlagSet(o.filter.flagSet())
	f.StringVar(&o.sort, "sort", "", "sort as field[:asc|desc] (title, priority, status, due_date, created_at)")
	f.IntVarP(&o.page, "page", "p", 1, "page to show")
	f.StringVar(&o.group, "group", "", "group roots: none or project")
	f.StringSliceVar(&o.expand, "expand", nil, "expand these task ids, in order")
	f.BoolVar(&o.jsonOut, "json", false, "machine-readable output")
	f.BoolVar(&o.markdown, "markdown", false, "print the view as a markdown report")
	f.StringVarP(&o.outPath, "out", "o", "", "write the markdown report to this file instead of stdout")
	f.BoolVar(&o.stats, "stats", false, "print timing and cache metrics")
	f.BoolVar(&o.noHeader, "no-header", false, "omit the column header")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")
	return cmd
}

// listRow is one visible row in JSON output.
type listRow struct {
	model.Task
	Indent     int  `json:"indent"`
	Expandable bool `json:"expandable"`
	Expanded   bool `json:"expanded"`
}

type listGroup struct {
	ProjectID string    `json:"project_id,omitempty"`
	Name      string    `json:"name"`
	Rows      []listRow `json:"rows"`
}

type listOutput struct {
	Sort       string               `json:"sort"`
	Filter     model.FilterSpec     `json:"filter"`
	Page       int                  `json:"page,omitempty"`
	TotalPages int                  `json:"total_pages,omitempty"`
	Items      int                  `json:"items"`
	Rows       []listRow            `json:"rows,omitempty"`
	Groups     []listGroup          `json:"groups,omitempty"`
	Timings    []metrics.TimingStats `json:"timings,omitempty"`
	Caches     []metrics.CacheStats  `json:"caches,omitempty"`
}

func (a *app) runList(ctx context.Context, o listOptions) error {
	if o.outPath != "" && !o.markdown {
		return fmt.Errorf("--out needs --markdown")
	}
	if o.stats {
		metrics.SetEnabled(true)
		metrics.ResetAll()
	}
	filter, err := o.filter.spec(a.cfg.ViewerID)
	if err != nil {
		return err
	}
	var extra []view.Option
	if o.sort != "" {
		spec, err := model.ParseSortSpec(o.sort)
		if err != nil {
			return err
		}
		extra = append(extra, view.WithSort(spec))
	}
	if o.group != "" {
		g, err := view.ParseGroupBy(o.group)
		if err != nil {
			return err
		}
		extra = append(extra, view.WithGroupBy(g))
	}
	extra = append(extra, view.WithFilter(filter))

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	s := a.newSession(store, extra...)
	if err := s.Refresh(ctx); err != nil {
		return err
	}
	if o.page != 1 && !s.SetPage(o.page) {
		return fmt.Errorf("page %d out of range (1-%d)", o.page, s.TotalPages())
	}
	for _, id := range o.expand {
		if _, err := s.ToggleExpand(ctx, strings.TrimSpace(id)); err != nil {
			return fmt.Errorf("expand %s: %w", id, err)
		}
	}

	if o.jsonOut {
		return a.writeListJSON(s, o.stats)
	}
	if o.markdown {
		return a.writeListMarkdown(s, o.outPath)
	}

	writeListText(a.out, s, outputWidth(), !o.noHeader)
	if o.stats {
		writeStats(a.errOut)
	}
	return nil
}

func toListRows(rows []view.Row) []listRow {
	out := make([]listRow, len(rows))
	for i, r := range rows {
		out[i] = listRow{Task: r.Task, Indent: r.Depth, Expandable: r.Expandable, Expanded: r.Expanded}
	}
	return out
}

func (a *app) writeListJSON(s *view.Session, stats bool) error {
	f := s.Footer()
	out := listOutput{
		Sort:   s.Sort().String(),
		Filter: s.Filter(),
		Items:  f.Items,
	}
	if f.Grouped {
		for _, g := range s.Groups() {
			out.Groups = append(out.Groups, listGroup{ProjectID: g.ProjectID, Name: g.Name, Rows: toListRows(g.Rows)})
		}
	} else {
		out.Page, out.TotalPages = f.Page, f.TotalPages
		out.Rows = toListRows(s.Rows())
	}
	if stats {
		out.Timings = metrics.AllTimingStats()
		out.Caches = metrics.AllCacheStats()
	}
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func (a *app) writeListMarkdown(s *view.Session, path string) error {
	md := export.ViewMarkdown(s, "Task view", time.Now())
	if path == "" {
		_, err := io.WriteString(a.out, md)
		return err
	}
	if err := export.SaveMarkdownToFile(path, md); err != nil {
		return err
	}
	fmt.Fprintf(a.errOut, "Wrote %s\n", path)
	return nil
}

func writeListText(w io.Writer, s *view.Session, width int, header bool) {
	now := time.Now()
	if header {
		fmt.Fprintf(w, "%-*s %-4s %-4s %s\n", 12, "ID", "PRIO", "STAT", "TITLE")
	}
	if s.GroupBy() == view.GroupProject {
		for _, g := range s.Groups() {
			fmt.Fprintf(w, "== %s (%d)\n", g.Name, len(g.Tasks))
			for _, r := range g.Rows {
				writeTextRow(w, r, width, now)
			}
		}
	} else {
		for _, r := range s.Rows() {
			writeTextRow(w, r, width, now)
		}
	}
	if len(s.Roots()) == 0 {
		fmt.Fprintln(w, "No tasks match.")
	}
	fmt.Fprintln(w, s.Footer().String())
}

func writeTextRow(w io.Writer, r view.Row, width int, now time.Time) {
	t := r.Task
	marker := "•"
	switch {
	case r.Expanded:
		marker = "▾"
	case r.Expandable:
		marker = "▸"
	}
	lead := strings.Repeat("  ", r.Depth) + marker + " " + t.ID
	lead = runewidth.FillRight(lead, 12)

	due := ""
	if d, ok := t.DueTime(); ok {
		due = ui.FormatDue(d, now)
		if t.IsOverdue(now) {
			due += "!"
		}
	}
	line := fmt.Sprintf("%s %s %s ", lead, ui.RenderPriorityBadge(t.Priority), ui.RenderStatusBadge(t.Status))
	titleWidth := width - runewidth.StringWidth(lead) - 11 - len(due) - 1
	if titleWidth < 10 {
		titleWidth = 10
	}
	title := runewidth.Truncate(t.Title, titleWidth, "…")
	if due != "" {
		title = runewidth.FillRight(title, titleWidth) + " " + due
	}
	fmt.Fprintln(w, line+title)
}

func writeStats(w io.Writer) {
	for _, st := range metrics.AllTimingStats() {
		fmt.Fprintf(w, "%-16s n=%-4d avg=%.2fms max=%.2fms total=%.2fms\n", st.Name, st.Count, st.AvgMs, st.MaxMs, st.TotalMs)
	}
	for _, st := range metrics.AllCacheStats() {
		fmt.Fprintf(w, "%-16s hits=%d misses=%d rate=%.0f%%\n", st.Name, st.Hits, st.Misses, st.HitRate*100)
	}
}
