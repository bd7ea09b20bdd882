package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/vanderheijden86/taskview/pkg/model"
)

// filterFlags are the task filter flags shared by list and bulk.
type filterFlags struct {
	statuses []string
	priority string
	assignee string
	creator  string
	search   string
	overdue  bool
	role     string
	mine     bool
}

func (f *filterFlags) flagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("filter", pflag.ContinueOnError)
	fs.StringSliceVar(&f.statuses, "status", nil, "only these statuses (repeatable or comma separated)")
	fs.StringVar(&f.priority, "priority", "", "only this priority")
	fs.StringVar(&f.assignee, "assignee", "", "only tasks assigned to this user id")
	fs.StringVar(&f.creator, "creator", "", "only tasks created by this user id")
	fs.StringVarP(&f.search, "search", "s", "", "case-insensitive title search (3+ characters)")
	fs.BoolVar(&f.overdue, "overdue", false, "only open tasks past their due date")
	fs.StringVar(&f.role, "role", "", "viewer relation: any, assignee, creator, participant")
	fs.BoolVar(&f.mine, "mine", false, "shorthand for --role assignee")
	return fs
}

func (f *filterFlags) isSet() bool {
	return len(f.statuses) > 0 || f.priority != "" || f.assignee != "" || f.creator != "" ||
		f.search != "" || f.overdue || f.role != "" || f.mine
}

// spec builds the filter. viewerID comes from config or --viewer and is
// required by role filters.
func (f *filterFlags) spec(viewerID string) (model.FilterSpec, error) {
	spec := model.FilterSpec{
		AssigneeID: f.assignee,
		CreatorID:  f.creator,
		Search:     f.search,
		Overdue:    f.overdue,
		ViewerID:   viewerID,
	}
	for _, s := range f.statuses {
		st, ok := model.ParseStatus(s)
		if !ok {
			return spec, fmt.Errorf("unknown status %q", s)
		}
		spec.Statuses = append(spec.Statuses, st)
	}
	if f.priority != "" {
		p, ok := model.ParsePriority(f.priority)
		if !ok {
			return spec, fmt.Errorf("unknown priority %q", f.priority)
		}
		spec.Priority = p
	}
	if f.role != "" {
		r, err := model.ParseRole(f.role)
		if err != nil {
			return spec, err
		}
		spec.Role = r
	}
	if f.mine {
		spec.Role = model.RoleAssignee
	}
	if spec.Role != model.RoleAny && viewerID == "" {
		return spec, fmt.Errorf("--role/--mine need a viewer id (--viewer or viewer_id in config)")
	}
	if s := strings.TrimSpace(spec.Search); s != "" && len([]rune(s)) < model.MinSearchLength {
		return spec, fmt.Errorf("--search needs at least %d characters", model.MinSearchLength)
	}
	return spec, nil
}

// isTerminal reports whether stdin is an interactive terminal.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// outputWidth is the terminal width, or 100 when stdout is not a terminal.
func outputWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 100
}
