package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/vanderheijden86/taskview/pkg/model"
	"github.com/vanderheijden86/taskview/pkg/view"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.View.PageSize != 25 {
		t.Errorf("expected page size 25, got %d", cfg.View.PageSize)
	}
	if cfg.View.Sort != "created_at:desc" {
		t.Errorf("expected default sort created_at:desc, got %q", cfg.View.Sort)
	}
	if !cfg.Watch.Enabled {
		t.Error("expected watching enabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.View.PageSize != view.DefaultPageSize {
		t.Errorf("expected default config, got page size %d", cfg.View.PageSize)
	}
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
viewer_id: u-42
database:
  path: ~/tasks/work.db
view:
  page_size: 50
  sort: priority:desc
  language: fr
  group_by: project
  bulk_concurrency: 4
watch:
  enabled: false
  debounce: 500ms
  poll_interval: 5s
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if cfg.ViewerID != "u-42" {
		t.Errorf("expected viewer u-42, got %q", cfg.ViewerID)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, "tasks/work.db"); cfg.Database.Path != want {
		t.Errorf("expected expanded path %q, got %q", want, cfg.Database.Path)
	}
	spec, _ := cfg.SortSpec()
	if spec != (model.SortSpec{Field: model.SortFieldPriority, Order: model.SortDesc}) {
		t.Errorf("unexpected sort %v", spec)
	}
	if tag, _ := cfg.LanguageTag(); tag != language.French {
		t.Errorf("expected fr, got %v", tag)
	}
	if g, _ := cfg.Grouping(); g != view.GroupProject {
		t.Errorf("expected project grouping, got %v", g)
	}
	if cfg.Watch.Enabled {
		t.Error("expected watch disabled")
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("expected 500ms debounce, got %v", cfg.Watch.Debounce)
	}
	if cfg.Watch.PollInterval != 5*time.Second {
		t.Errorf("expected 5s poll interval, got %v", cfg.Watch.PollInterval)
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("{{invalid yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.View.PageSize = 0
	cfg.View.Sort = "size"
	cfg.View.Language = "not a tag!"
	cfg.View.GroupBy = "assignee"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"page_size", "view.sort", "view.language", "view.group_by"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.ViewerID = "me"
	cfg.Database.Path = "/data/tasks.db"
	cfg.View.PageSize = 10
	cfg.Watch.Debounce = time.Second

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load after save failed: %v", err)
	}
	if loaded != cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}
}

func TestSessionOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.View.PageSize = 7
	s := view.NewSession(nil, cfg.SessionOptions()...)
	if s.Page().PageSize != 7 {
		t.Errorf("expected page size 7, got %d", s.Page().PageSize)
	}
	if s.Sort() != model.DefaultSort() {
		t.Errorf("unexpected sort %v", s.Sort())
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home dir")
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"~/foo", filepath.Join(home, "foo")},
		{"/absolute", "/absolute"},
		{"relative", "relative"},
	}
	for _, tt := range tests {
		if got := expandHome(tt.input); got != tt.expected {
			t.Errorf("expandHome(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestXDGOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_DATA_HOME", dir)
	t.Setenv("XDG_STATE_HOME", dir)

	want := filepath.Join(dir, "tv")
	for name, got := range map[string]string{"config": ConfigDir(), "data": DataDir(), "state": StateDir()} {
		if got != want {
			t.Errorf("%s dir = %q, want %q", name, got, want)
		}
	}
	if got := DefaultConfig().Database.Path; got != filepath.Join(want, "tasks.db") {
		t.Errorf("default database path = %q", got)
	}
}
