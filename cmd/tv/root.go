package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vanderheijden86/taskview/internal/datasource"
	"github.com/vanderheijden86/taskview/pkg/config"
	"github.com/vanderheijden86/taskview/pkg/debug"
	"github.com/vanderheijden86/taskview/pkg/version"
	"github.com/vanderheijden86/taskview/pkg/view"
)

// app carries what every subcommand needs: resolved configuration, logger
// and the streams to talk to.
type app struct {
	v          *viper.Viper
	configPath string
	cfg        config.Config
	logger     zerolog.Logger

	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{v: viper.New(), in: in, out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "tv",
		Short: "Browse and edit a hierarchical task collection",
		Long: `tv shows a task collection as a sortable, paginated tree with lazy
expansion, multi-select and bulk edits. Without a subcommand it opens the
interactive view.`,
		Version:           version.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return a.load() },
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runUI(cmd.Context())
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default "+config.ConfigPath()+")")
	pf.String("db", "", "task database path")
	pf.String("viewer", "", "user id for --mine and assign-to-me")
	pf.Int("page-size", 0, "root tasks per page")
	pf.Bool("debug", false, "debug logging to stderr (TUI: to the state dir log)")

	a.v.SetEnvPrefix("TV")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	a.v.AutomaticEnv()
	_ = a.v.BindPFlag("database.path", pf.Lookup("db"))
	_ = a.v.BindPFlag("viewer_id", pf.Lookup("viewer"))
	_ = a.v.BindPFlag("view.page_size", pf.Lookup("page-size"))
	_ = a.v.BindPFlag("debug", pf.Lookup("debug"))

	root.AddCommand(
		newUICmd(a),
		newListCmd(a),
		newBulkCmd(a),
		newShowCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newSeedCmd(a),
		newConfigCmd(a),
	)
	return root
}

// load resolves configuration: defaults, then the config file, then TV_*
// environment variables and flags.
func (a *app) load() error {
	path := a.configPath
	if path == "" {
		path = config.ConfigPath()
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return err
	}
	if a.v.IsSet("database.path") {
		cfg.Database.Path = a.v.GetString("database.path")
	}
	if a.v.IsSet("viewer_id") {
		cfg.ViewerID = a.v.GetString("viewer_id")
	}
	if a.v.IsSet("view.page_size") {
		cfg.View.PageSize = a.v.GetInt("view.page_size")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	if a.v.GetBool("debug") {
		debug.SetEnabled(true)
	}
	a.logger = debug.Logger("tv")
	return nil
}

// resolvedConfigPath is the file config init/show act on.
func (a *app) resolvedConfigPath() string {
	if a.configPath != "" {
		return a.configPath
	}
	return config.ConfigPath()
}

func (a *app) openStore() (*datasource.SQLiteStore, error) {
	path := a.cfg.Database.Path
	store, err := datasource.Open(path, datasource.WithLogger(debug.Logger("datasource")))
	if err != nil {
		return nil, fmt.Errorf("open task database %s: %w", path, err)
	}
	return store, nil
}

func (a *app) newSession(store view.TaskStore, extra ...view.Option) *view.Session {
	opts := append(a.cfg.SessionOptions(), view.WithLogger(debug.Logger("view")))
	return view.NewSession(store, append(opts, extra...)...)
}

// logFile opens the debug log used while the TUI owns the terminal.
func (a *app) logFile() (*os.File, error) {
	dir := config.StateDir()
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, "debug.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}
