package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/taskview/pkg/loader"
	"github.com/vanderheijden86/taskview/pkg/testutil"
)

type seedOptions struct {
	roots  int
	fanout int
	depth  int
	seed   int64
	prefix string
	reset  bool
}

func newSeedCmd(a *app) *cobra.Command {
	var o seedOptions
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with a synthetic task forest",
		Long: `seed generates a forest depth levels deep, roots * (1 + fanout + ... +
fanout^(depth-1)) tasks in all, spread over a few projects and users, with mixed statuses, priorities and due dates. The same
--seed always produces the same forest.`,
		Example: `  tv seed --roots 40 --fanout 3 --depth 2
  tv seed --reset --seed 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runSeed(cmd.Context(), o)
		},
	}
	f := cmd.Flags()
	f.IntVar(&o.roots, "roots", 30, "number of root tasks")
	f.IntVar(&o.fanout, "fanout", 2, "children per task")
	f.IntVar(&o.depth, "depth", 3, "tree levels, counting the roots")
	f.Int64Var(&o.seed, "seed", 42, "random seed (0 for a random forest)")
	f.StringVar(&o.prefix, "prefix", "T", "task id prefix")
	f.BoolVar(&o.reset, "reset", false, "delete every task and project first")
	return cmd
}

func (a *app) runSeed(ctx context.Context, o seedOptions) error {
	if o.roots < 0 || o.fanout < 0 || o.depth < 0 {
		return fmt.Errorf("--roots, --fanout and --depth must not be negative")
	}
	cfg := testutil.DefaultConfig()
	cfg.Seed = o.seed
	cfg.IDPrefix = o.prefix
	cfg.BaseTime = time.Now().UTC().AddDate(0, 0, -30).Truncate(24 * time.Hour)
	gen := testutil.New(cfg)

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if o.reset {
		if err := store.Reset(ctx); err != nil {
			return err
		}
	}
	ds := loader.Dataset{Projects: gen.Projects(), Tasks: gen.Forest(o.roots, o.fanout, o.depth)}
	res, err := loader.Import(ctx, store, ds)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Seeded %d tasks (%d roots) and %d projects into %s\n",
		res.Created, o.roots, res.Projects, store.Path())
	return res.Err()
}
