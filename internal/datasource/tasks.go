package datasource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vanderheijden86/taskview/pkg/model"
	"github.com/vanderheijden86/taskview/pkg/view"
)

var _ view.TaskStore = (*SQLiteStore)(nil)

const taskColumns = `
	t.id, COALESCE(t.parent_id, ''), t.path, t.depth,
	(SELECT COUNT(*) FROM tasks c WHERE c.parent_id = t.id),
	t.title, t.status, t.priority, t.due_date,
	t.assignee_id, t.creator_id, t.project_id, t.created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(r rowScanner) (model.Task, error) {
	var t model.Task
	var status, priority string
	err := r.Scan(&t.ID, &t.ParentID, &t.Path, &t.Depth, &t.ChildrenCount,
		&t.Title, &status, &priority, &t.DueDate,
		&t.AssigneeID, &t.CreatorID, &t.ProjectID, &t.CreatedAt)
	t.Status = model.Status(status)
	t.Priority = model.Priority(priority)
	return t, err
}

func (s *SQLiteStore) queryTasks(ctx context.Context, query string, args ...any) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// whereClause translates a filter into SQL predicates. Every predicate is
// evaluated here so the engine never filters results itself.
func whereClause(f model.FilterSpec, today string) (string, []any) {
	f = f.Normalized()
	var conds []string
	var args []any

	if len(f.Statuses) > 0 {
		marks := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			marks[i] = "?"
			args = append(args, string(st))
		}
		conds = append(conds, "t.status IN ("+strings.Join(marks, ",")+")")
	}
	if f.Priority != "" {
		conds = append(conds, "t.priority = ?")
		args = append(args, string(f.Priority))
	}
	if f.AssigneeID != "" {
		conds = append(conds, "t.assignee_id = ?")
		args = append(args, f.AssigneeID)
	}
	if f.CreatorID != "" {
		conds = append(conds, "t.creator_id = ?")
		args = append(args, f.CreatorID)
	}
	if f.Search != "" {
		conds = append(conds, `LOWER(t.title) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(strings.ToLower(f.Search))+"%")
	}
	if f.Overdue {
		conds = append(conds, "t.due_date <> '' AND substr(t.due_date, 1, 10) < ? AND t.status NOT IN (?, ?)")
		args = append(args, today, string(model.StatusDone), string(model.StatusCancelled))
	}
	switch f.Role {
	case model.RoleAssignee:
		conds = append(conds, "t.assignee_id = ?")
		args = append(args, f.ViewerID)
	case model.RoleCreator:
		conds = append(conds, "t.creator_id = ?")
		args = append(args, f.ViewerID)
	case model.RoleParticipant:
		conds = append(conds, "(t.assignee_id = ? OR t.creator_id = ?)")
		args = append(args, f.ViewerID, f.ViewerID)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// ListTasks returns every task matching filter, at any depth.
func (s *SQLiteStore) ListTasks(ctx context.Context, filter model.FilterSpec) ([]model.Task, error) {
	where, args := whereClause(filter, s.today())
	tasks, err := s.queryTasks(ctx, "SELECT"+taskColumns+" FROM tasks t"+where+" ORDER BY t.id", args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// ListChildren returns the direct children of taskID.
func (s *SQLiteStore) ListChildren(ctx context.Context, taskID string) ([]model.Task, error) {
	tasks, err := s.queryTasks(ctx, "SELECT"+taskColumns+" FROM tasks t WHERE t.parent_id = ? ORDER BY t.id", taskID)
	if err != nil {
		return nil, fmt.Errorf("list children of %s: %w", taskID, err)
	}
	return tasks, nil
}

// ListProjects returns every project ordered by id.
func (s *SQLiteStore) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM projects ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetTask returns one task by id.
func (s *SQLiteStore) GetTask(ctx context.Context, taskID string) (model.Task, error) {
	row := s.db.QueryRowContext(ctx, "SELECT"+taskColumns+" FROM tasks t WHERE t.id = ?", taskID)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, fmt.Errorf("%s: %w", taskID, ErrNotFound)
	}
	if err != nil {
		return model.Task{}, fmt.Errorf("get task %s: %w", taskID, err)
	}
	return t, nil
}

// updateColumn sets one column and returns the updated row.
func (s *SQLiteStore) updateColumn(ctx context.Context, taskID, column string, value any) (model.Task, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET "+column+" = ?, updated_at = ? WHERE id = ?",
		value, s.timestamp(), taskID)
	if err != nil {
		return model.Task{}, fmt.Errorf("update %s of %s: %w", column, taskID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.Task{}, fmt.Errorf("%s: %w", taskID, ErrNotFound)
	}
	return s.GetTask(ctx, taskID)
}

// UpdateStatus sets the status of one task.
func (s *SQLiteStore) UpdateStatus(ctx context.Context, taskID string, status model.Status) (model.Task, error) {
	if !status.IsValid() {
		return model.Task{}, fmt.Errorf("invalid status %q", status)
	}
	return s.updateColumn(ctx, taskID, "status", string(status))
}

// UpdatePriority sets the priority of one task.
func (s *SQLiteStore) UpdatePriority(ctx context.Context, taskID string, priority model.Priority) (model.Task, error) {
	if !priority.IsValid() {
		return model.Task{}, fmt.Errorf("invalid priority %q", priority)
	}
	return s.updateColumn(ctx, taskID, "priority", string(priority))
}

// UpdateAssignee sets or, with an empty id, clears the assignee.
func (s *SQLiteStore) UpdateAssignee(ctx context.Context, taskID string, assigneeID string) (model.Task, error) {
	return s.updateColumn(ctx, taskID, "assignee_id", assigneeID)
}

// DeleteTask removes a task and, through the foreign key, its subtree.
func (s *SQLiteStore) DeleteTask(ctx context.Context, taskID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", taskID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", taskID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", taskID, ErrNotFound)
	}
	return nil
}

// CreateTask inserts t. Path and depth are derived from the parent, which
// must already exist. Missing status, priority and created_at get defaults.
func (s *SQLiteStore) CreateTask(ctx context.Context, t model.Task) (model.Task, error) {
	if t.ID == "" {
		return model.Task{}, errors.New("create task: empty id")
	}
	t.Path = t.ID
	t.Depth = 0
	if t.ParentID != "" {
		parent, err := s.GetTask(ctx, t.ParentID)
		if err != nil {
			return model.Task{}, fmt.Errorf("create task %s: parent: %w", t.ID, err)
		}
		t.Path = model.ChildPath(parent.Path, t.ID)
		t.Depth = parent.Depth + 1
	}
	if t.Status == "" {
		t.Status = model.StatusNew
	}
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}
	now := s.timestamp()
	if t.CreatedAt == "" {
		t.CreatedAt = now
	}

	var parent any
	if t.ParentID != "" {
		parent = t.ParentID
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO tasks(
		id, parent_id, path, depth, title, status, priority, due_date,
		assignee_id, creator_id, project_id, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, parent, t.Path, t.Depth, t.Title, string(t.Status), string(t.Priority), t.DueDate,
		t.AssigneeID, t.CreatorID, t.ProjectID, t.CreatedAt, now)
	if err != nil {
		return model.Task{}, fmt.Errorf("insert task %s: %w", t.ID, err)
	}
	return s.GetTask(ctx, t.ID)
}

// UpsertProject inserts a project or renames an existing one.
func (s *SQLiteStore) UpsertProject(ctx context.Context, p model.Project) error {
	if p.ID == "" {
		return errors.New("upsert project: empty id")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects(id, name) VALUES(?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name`, p.ID, p.Name)
	if err != nil {
		return fmt.Errorf("upsert project %s: %w", p.ID, err)
	}
	return nil
}

// Reset deletes every task and project.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	for _, stmt := range []string{"DELETE FROM tasks", "DELETE FROM projects"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("reset: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}
	return nil
}
