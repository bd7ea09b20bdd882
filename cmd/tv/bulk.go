package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/taskview/pkg/model"
	"github.com/vanderheijden86/taskview/pkg/view"
)

type bulkOptions struct {
	ids    []string
	filter filterFlags
	yes    bool
}

func newBulkCmd(a *app) *cobra.Command {
	var o bulkOptions
	cmd := &cobra.Command{
		Use:   "bulk <status|priority|assign|delete> [value]",
		Short: "Apply one change to many tasks at once",
		Long: `bulk applies a status, priority or assignee change, or a delete, to every
given task concurrently. A failing task does not stop the others; each
outcome is printed. Tasks come from --ids or from the filter flags.

Without a value on an interactive terminal, tv asks for one.`,
		Example: `  tv bulk status done --ids T1,T2,T3
  tv bulk priority high --overdue
  tv bulk assign alice --status new
  tv bulk assign --ids T9            # empty value unassigns
  tv bulk delete --ids T4 --yes`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value := ""
			if len(args) == 2 {
				value = args[1]
			}
			return a.runBulk(cmd.Context(), o, args[0], value, len(args) == 2)
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&o.ids, "ids", nil, "task ids to change (comma separated)")
	f.AddFlagSet(o.filter.flagSet())
	f.BoolVarP(&o.yes, "yes", "y", false, "do not ask before deleting")
	return cmd
}

func (a *app) runBulk(ctx context.Context, o bulkOptions, action, value string, hasValue bool) error {
	act, err := view.ParseBulkAction(action)
	if err != nil {
		return err
	}
	if len(o.ids) > 0 && o.filter.isSet() {
		return errors.New("use either --ids or filter flags, not both")
	}
	if len(o.ids) == 0 && !o.filter.isSet() {
		return errors.New("no tasks given: pass --ids or filter flags")
	}

	req := view.BulkRequest{Action: act}
	if !hasValue && act != view.BulkDelete && act != view.BulkAssignee {
		if !isTerminal() {
			return fmt.Errorf("bulk %s needs a value", act)
		}
		if value, err = promptValue(act); err != nil {
			return err
		}
	}
	switch act {
	case view.BulkStatus:
		st, ok := model.ParseStatus(value)
		if !ok {
			return fmt.Errorf("unknown status %q", value)
		}
		req.Status = st
	case view.BulkPriority:
		p, ok := model.ParsePriority(value)
		if !ok {
			return fmt.Errorf("unknown priority %q", value)
		}
		req.Priority = p
	case view.BulkAssignee:
		req.AssigneeID = strings.TrimSpace(value)
	}

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ids := o.ids
	if len(ids) == 0 {
		spec, err := o.filter.spec(a.cfg.ViewerID)
		if err != nil {
			return err
		}
		tasks, err := store.ListTasks(ctx, spec)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			ids = append(ids, t.ID)
		}
		if len(ids) == 0 {
			fmt.Fprintln(a.out, "No tasks match.")
			return nil
		}
	}

	if act == view.BulkDelete && !o.yes {
		if !isTerminal() {
			return errors.New("refusing to delete without --yes on a non-interactive terminal")
		}
		ok, err := confirmDelete(len(ids))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.out, "Cancelled.")
			return nil
		}
	}

	s := a.newSession(store)
	for _, id := range ids {
		s.Select(id, true)
	}
	report, err := s.Bulk(ctx, req)
	if err != nil && !errors.Is(err, view.ErrBulkFailed) {
		return err
	}
	for _, res := range report.Results {
		if res.Error != nil {
			fmt.Fprintf(a.out, "FAIL %s: %v\n", res.ID, res.Error)
		} else {
			fmt.Fprintf(a.out, "ok   %s\n", res.ID)
		}
	}
	fmt.Fprintf(a.out, "%d succeeded, %d failed\n", len(report.Succeeded()), len(report.Failed()))
	if !report.OK() {
		return fmt.Errorf("%d of %d tasks failed", len(report.Failed()), len(report.Results))
	}
	return nil
}

func newForm(groups ...*huh.Group) *huh.Form {
	return huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
}

func promptValue(act view.BulkAction) (string, error) {
	var value string
	var field *huh.Select[string]
	switch act {
	case view.BulkStatus:
		opts := make([]huh.Option[string], len(model.Statuses))
		for i, st := range model.Statuses {
			opts[i] = huh.NewOption(st.Label(), string(st))
		}
		field = huh.NewSelect[string]().Title("New status").Options(opts...).Value(&value)
	case view.BulkPriority:
		opts := make([]huh.Option[string], len(model.Priorities))
		for i, p := range model.Priorities {
			opts[i] = huh.NewOption(string(p), string(p))
		}
		field = huh.NewSelect[string]().Title("New priority").Options(opts...).Value(&value)
	default:
		return "", fmt.Errorf("bulk %s takes no value", act)
	}
	if err := newForm(huh.NewGroup(field)).Run(); err != nil {
		return "", err
	}
	return value, nil
}

func confirmDelete(n int) (bool, error) {
	var ok bool
	err := newForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Delete %d tasks and all their subtasks?", n)).
			Affirmative("Delete").
			Negative("Cancel").
			Value(&ok),
	)).Run()
	return ok, err
}
