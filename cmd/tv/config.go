package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/taskview/pkg/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage tv configuration",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.resolvedConfigPath()
			if path == "" {
				return fmt.Errorf("cannot determine config directory")
			}
			if fileExists(path) && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			cfg := config.DefaultConfig()
			cfg.ViewerID = a.cfg.ViewerID
			if err := config.SaveTo(cfg, path); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	var withDB bool
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := yaml.Marshal(a.cfg)
			if err != nil {
				return fmt.Errorf("marshaling config: %w", err)
			}
			fmt.Fprintf(a.out, "# %s (with TV_* and flag overrides)\n", a.resolvedConfigPath())
			fmt.Fprint(a.out, string(data))
			if !withDB {
				return nil
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			info, err := store.Info(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "# database\n%s\n", info)
			return nil
		},
	}
	showCmd.Flags().BoolVar(&withDB, "db-info", false, "also open the database and print its statistics")

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print config, data and state locations",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(a.out, "config:   %s\n", a.resolvedConfigPath())
			fmt.Fprintf(a.out, "database: %s\n", a.cfg.Database.Path)
			fmt.Fprintf(a.out, "state:    %s\n", config.StateDir())
		},
	}

	cmd.AddCommand(initCmd, showCmd, pathCmd)
	return cmd
}
