package datasource

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pressly/goose/v3"
)

// Info describes the database file and what it holds.
type Info struct {
	Path          string    `json:"path"`
	Size          int64     `json:"size"`
	ModTime       time.Time `json:"mod_time"`
	SchemaVersion int64     `json:"schema_version"`
	Tasks         int       `json:"tasks"`
	RootTasks     int       `json:"root_tasks"`
	Projects      int       `json:"projects"`
	MaxDepth      int       `json:"max_depth"`
}

// String returns a human-readable description.
func (i Info) String() string {
	return fmt.Sprintf("%s (schema v%d, %d tasks, %d roots, %d projects, depth %d, %d bytes, modified %s)",
		i.Path, i.SchemaVersion, i.Tasks, i.RootTasks, i.Projects, i.MaxDepth, i.Size,
		i.ModTime.Format(time.RFC3339))
}

// Info collects file and content statistics.
func (s *SQLiteStore) Info(ctx context.Context) (Info, error) {
	info := Info{Path: s.path}
	if st, err := os.Stat(s.path); err == nil {
		info.Size = st.Size()
		info.ModTime = st.ModTime()
	}

	version, err := goose.GetDBVersion(s.db)
	if err != nil {
		return info, fmt.Errorf("schema version: %w", err)
	}
	info.SchemaVersion = version

	row := s.db.QueryRowContext(ctx, `SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN parent_id IS NULL THEN 1 ELSE 0 END), 0),
		COALESCE(MAX(depth), 0)
		FROM tasks`)
	if err := row.Scan(&info.Tasks, &info.RootTasks, &info.MaxDepth); err != nil {
		return info, fmt.Errorf("count tasks: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects").Scan(&info.Projects); err != nil {
		return info, fmt.Errorf("count projects: %w", err)
	}
	return info, nil
}
