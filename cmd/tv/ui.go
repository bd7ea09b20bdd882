package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/taskview/pkg/debug"
	"github.com/vanderheijden86/taskview/pkg/ui"
	"github.com/vanderheijden86/taskview/pkg/watcher"
)

func newUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive task view (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runUI(cmd.Context())
		},
	}
}

func (a *app) runUI(ctx context.Context) error {
	if debug.Enabled() {
		f, err := a.logFile()
		if err != nil {
			return fmt.Errorf("open debug log: %w", err)
		}
		defer f.Close()
		debug.SetOutput(f)
		a.logger = debug.Logger("tv")
	}

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	opts := []ui.Option{
		ui.WithContext(ctx),
		ui.WithViewerID(a.cfg.ViewerID),
		ui.WithLogger(debug.Logger("ui")),
	}

	if a.cfg.Watch.Enabled {
		w, err := watcher.NewWatcher(store.Path(),
			watcher.WithDebounceDuration(a.cfg.Watch.Debounce),
			watcher.WithPollInterval(a.cfg.Watch.PollInterval),
			watcher.WithForcePoll(a.cfg.Watch.ForcePoll),
			watcher.WithLogger(debug.Logger("watcher")),
		)
		if err == nil {
			err = w.Start()
		}
		if err != nil {
			a.logger.Warn().Err(err).Msg("live reload disabled")
		} else {
			defer w.Stop()
			opts = append(opts, ui.WithWatcher(w))
		}
	}

	m := ui.NewModel(a.newSession(store), opts...)
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(a.in),
		tea.WithOutput(os.Stdout),
	)

	if _, err := p.Run(); err != nil &&
		!errors.Is(err, tea.ErrProgramKilled) && !errors.Is(err, tea.ErrInterrupted) && ctx.Err() == nil {
		return fmt.Errorf("running task view: %w", err)
	}
	return nil
}
