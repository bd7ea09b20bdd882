// Package config handles loading and saving tv configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/tv/config.yaml
//   - Data:    ~/.local/share/tv/ (task database)
//   - State:   ~/.local/state/tv/ (debug logs)
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/taskview/pkg/model"
	"github.com/vanderheijden86/taskview/pkg/view"
)

const appName = "tv"

// DatabaseConfig locates the task database.
type DatabaseConfig struct {
	Path string `yaml:"path,omitempty"` // SQLite file; default DataDir()/tasks.db
}

// ViewConfig holds the defaults of a task view session.
type ViewConfig struct {
	PageSize        int    `yaml:"page_size,omitempty"`
	Sort            string `yaml:"sort,omitempty"`             // field[:asc|desc]
	Language        string `yaml:"language,omitempty"`         // BCP 47 tag for title collation
	GroupBy         string `yaml:"group_by,omitempty"`         // none, project
	BulkConcurrency int    `yaml:"bulk_concurrency,omitempty"` // 0 = unlimited
}

// WatchConfig controls reloading when the database changes underneath us.
type WatchConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Debounce     time.Duration `yaml:"debounce,omitempty"`
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`
	ForcePoll    bool          `yaml:"force_poll,omitempty"`
}

// Config is the top-level configuration for tv.
type Config struct {
	ViewerID string         `yaml:"viewer_id,omitempty"` // user id for "mine" filters and assign-to-me
	Database DatabaseConfig `yaml:"database,omitempty"`
	View     ViewConfig     `yaml:"view,omitempty"`
	Watch    WatchConfig    `yaml:"watch,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Database: DatabaseConfig{
			Path: defaultDatabasePath(),
		},
		View: ViewConfig{
			PageSize: view.DefaultPageSize,
			Sort:     model.DefaultSort().String(),
			Language: "en",
			GroupBy:  view.GroupNone.String(),
		},
		Watch: WatchConfig{
			Enabled:      true,
			Debounce:     200 * time.Millisecond,
			PollInterval: 2 * time.Second,
		},
	}
}

func defaultDatabasePath() string {
	dir := DataDir()
	if dir == "" {
		return "tasks.db"
	}
	return filepath.Join(dir, "tasks.db")
}

// ConfigDir returns the XDG config directory for tv.
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DataDir returns the XDG data directory for tv.
func DataDir() string {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// StateDir returns the XDG state directory for tv.
func StateDir() string {
	return xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, fallback, appName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Database.Path = expandHome(cfg.Database.Path)
	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo atomically replaces the config file at path.
func SaveTo(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.View.PageSize < 1 {
		errs = append(errs, fmt.Errorf("view.page_size must be at least 1, got %d", c.View.PageSize))
	}
	if _, err := c.SortSpec(); err != nil {
		errs = append(errs, fmt.Errorf("view.sort: %w", err))
	}
	if _, err := c.LanguageTag(); err != nil {
		errs = append(errs, fmt.Errorf("view.language: %w", err))
	}
	if _, err := c.Grouping(); err != nil {
		errs = append(errs, fmt.Errorf("view.group_by: %w", err))
	}
	if c.View.BulkConcurrency < 0 {
		errs = append(errs, fmt.Errorf("view.bulk_concurrency must not be negative"))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is empty"))
	}
	return errors.Join(errs...)
}

// SortSpec parses View.Sort.
func (c Config) SortSpec() (model.SortSpec, error) {
	if strings.TrimSpace(c.View.Sort) == "" {
		return model.DefaultSort(), nil
	}
	return model.ParseSortSpec(c.View.Sort)
}

// LanguageTag parses View.Language.
func (c Config) LanguageTag() (language.Tag, error) {
	if c.View.Language == "" {
		return language.English, nil
	}
	return language.Parse(c.View.Language)
}

// Grouping parses View.GroupBy.
func (c Config) Grouping() (view.GroupBy, error) {
	return view.ParseGroupBy(c.View.GroupBy)
}

// SessionOptions turns the view settings into session options. Call Validate
// first; invalid values fall back to defaults here.
func (c Config) SessionOptions() []view.Option {
	opts := []view.Option{
		view.WithPageSize(c.View.PageSize),
		view.WithBulkLimit(c.View.BulkConcurrency),
	}
	if spec, err := c.SortSpec(); err == nil {
		opts = append(opts, view.WithSort(spec))
	}
	if tag, err := c.LanguageTag(); err == nil {
		opts = append(opts, view.WithLanguage(tag))
	}
	if g, err := c.Grouping(); err == nil {
		opts = append(opts, view.WithGroupBy(g))
	}
	return opts
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
