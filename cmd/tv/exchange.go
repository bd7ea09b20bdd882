package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/taskview/pkg/loader"
)

func newImportCmd(a *app) *cobra.Command {
	var strict, reset bool
	cmd := &cobra.Command{
		Use:   "import <file.jsonl>",
		Short: "Load tasks and projects from a JSONL file",
		Long: `import reads one JSON record per line. Records with "type":"project"
create or rename a project; everything else is a task. Parents are created
before their children. Invalid lines are skipped with a warning unless
--strict is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runImport(cmd.Context(), args[0], strict, reset)
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on the first invalid line")
	cmd.Flags().BoolVar(&reset, "reset", false, "delete every task and project first")
	return cmd
}

func (a *app) runImport(ctx context.Context, path string, strict, reset bool) error {
	ds, err := loader.LoadFile(path, loader.ParseOptions{
		Strict: strict,
		WarningHandler: func(msg string) {
			fmt.Fprintf(a.errOut, "Warning: %s\n", msg)
		},
	})
	if err != nil {
		return err
	}

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if reset {
		if err := store.Reset(ctx); err != nil {
			return err
		}
	}
	res, err := loader.Import(ctx, store, ds)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Imported %d tasks and %d projects into %s (%d lines skipped)\n",
		res.Created, res.Projects, store.Path(), ds.Skipped)
	for _, f := range res.Failed {
		fmt.Fprintf(a.errOut, "FAIL %s: %v\n", f.ID, f.Err)
	}
	return res.Err()
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file.jsonl]",
		Short: "Write every task and project as JSONL (stdout without a file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 0 {
				_, err := loader.Export(cmd.Context(), store, a.out)
				return err
			}
			n, err := loader.ExportFile(cmd.Context(), store, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.errOut, "Wrote %d records to %s\n", n, args[0])
			return nil
		},
	}
}

// fileExists reports whether path names an existing file.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
