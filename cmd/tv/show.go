package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/taskview/pkg/export"
	"github.com/vanderheijden86/taskview/pkg/model"
)

func newShowCmd(a *app) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task with its direct subtasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runShow(cmd.Context(), args[0], raw)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the markdown without rendering")
	return cmd
}

func (a *app) runShow(ctx context.Context, id string, raw bool) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	t, err := store.GetTask(ctx, id)
	if err != nil {
		return fmt.Errorf("task %s: %w", id, err)
	}
	var children []model.Task
	if t.HasChildren() {
		if children, err = store.ListChildren(ctx, id); err != nil {
			return err
		}
	}
	projects, err := store.ListProjects(ctx)
	if err != nil {
		return err
	}
	projectName := t.ProjectID
	for _, p := range projects {
		if p.ID == t.ProjectID {
			projectName = p.Name
		}
	}

	md := export.TaskCard(t, projectName, children, time.Now())
	if raw || !isTerminal() {
		fmt.Fprint(a.out, md)
		return nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(min(outputWidth(), 100)-4),
	)
	if err != nil {
		return err
	}
	out, err := r.Render(md)
	if err != nil {
		return err
	}
	fmt.Fprint(a.out, out)
	return nil
}
