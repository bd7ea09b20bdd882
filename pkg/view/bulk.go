package view

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/taskview/pkg/metrics"
	"github.com/vanderheijden86/taskview/pkg/model"
)

// BulkAction is the kind of mutation applied to every selected task.
type BulkAction int

const (
	BulkStatus BulkAction = iota
	BulkPriority
	BulkAssignee
	BulkDelete
)

// String returns the CLI spelling of the action.
func (a BulkAction) String() string {
	switch a {
	case BulkStatus:
		return "status"
	case BulkPriority:
		return "priority"
	case BulkAssignee:
		return "assign"
	case BulkDelete:
		return "delete"
	default:
		return fmt.Sprintf("BulkAction(%d)", int(a))
	}
}

// ParseBulkAction parses the CLI spelling of an action.
func ParseBulkAction(s string) (BulkAction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "status":
		return BulkStatus, nil
	case "priority":
		return BulkPriority, nil
	case "assign", "assignee":
		return BulkAssignee, nil
	case "delete":
		return BulkDelete, nil
	default:
		return 0, fmt.Errorf("unknown bulk action %q", s)
	}
}

// BulkRequest is one action with a fixed value. Only the field matching
// Action is read; an empty AssigneeID unassigns.
type BulkRequest struct {
	Action     BulkAction
	Status     model.Status
	Priority   model.Priority
	AssigneeID string
}

// Validate rejects requests whose value is not a known enum member.
func (r BulkRequest) Validate() error {
	switch r.Action {
	case BulkStatus:
		if !r.Status.IsValid() {
			return fmt.Errorf("invalid status %q", r.Status)
		}
	case BulkPriority:
		if !r.Priority.IsValid() {
			return fmt.Errorf("invalid priority %q", r.Priority)
		}
	case BulkAssignee, BulkDelete:
	default:
		return fmt.Errorf("unknown bulk action %d", int(r.Action))
	}
	return nil
}

// BulkResult is the outcome of the mutation for one task. Task is the row the
// store returned and is zero for deletes and failures.
type BulkResult struct {
	ID    string
	Task  model.Task
	Error error
}

// BulkReport collects the outcome of every call of a bulk run.
//
// A nil error for an id only means the store accepted that call. Nothing is
// rolled back when another id fails, and the report says nothing about what
// the store holds afterwards; refetch to find out.
type BulkReport struct {
	Request BulkRequest
	// Results are in the order the ids were given.
	Results []BulkResult
	// Outcomes maps every id to the error of its call (nil on success).
	Outcomes map[string]error
	// Err wraps ErrBulkFailed and joins every per-id error; nil when all
	// calls succeeded.
	Err error
}

// OK reports whether every call succeeded.
func (r BulkReport) OK() bool {
	return r.Err == nil
}

// Succeeded returns the ids whose call succeeded, in input order.
func (r BulkReport) Succeeded() []string {
	var ids []string
	for _, res := range r.Results {
		if res.Error == nil {
			ids = append(ids, res.ID)
		}
	}
	return ids
}

// Failed returns the ids whose call failed, in input order.
func (r BulkReport) Failed() []string {
	var ids []string
	for _, res := range r.Results {
		if res.Error != nil {
			ids = append(ids, res.ID)
		}
	}
	return ids
}

// AnySucceeded reports whether at least one call went through.
func (r BulkReport) AnySucceeded() bool {
	for _, res := range r.Results {
		if res.Error == nil {
			return true
		}
	}
	return false
}

// Coordinator fans a BulkRequest out to one store call per task id.
type Coordinator struct {
	store  Mutator
	limit  int
	logger zerolog.Logger
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithConcurrencyLimit caps the number of calls in flight. n <= 0 means no cap.
func WithConcurrencyLimit(n int) CoordinatorOption {
	return func(c *Coordinator) { c.limit = n }
}

// WithCoordinatorLogger sets the logger for per-id failures.
func WithCoordinatorLogger(l zerolog.Logger) CoordinatorOption {
	return func(c *Coordinator) { c.logger = l }
}

// NewCoordinator creates a Coordinator for store.
func NewCoordinator(store Mutator, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{store: store, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Apply issues exactly one call per distinct id, all concurrently, and waits
// for every one of them. A failing call never stops the others. The returned
// error is non-nil only for invalid input; per-id failures are in the report.
func (c *Coordinator) Apply(ctx context.Context, ids []string, req BulkRequest) (BulkReport, error) {
	if len(ids) == 0 {
		return BulkReport{Request: req}, ErrEmptySelection
	}
	if err := req.Validate(); err != nil {
		return BulkReport{Request: req}, err
	}
	defer metrics.Timer(metrics.BulkMutation)()

	ids = dedupe(ids)
	results := make([]BulkResult, len(ids))

	// No errgroup.WithContext: one failure must not cancel its siblings.
	var g errgroup.Group
	if c.limit > 0 {
		g.SetLimit(c.limit)
	}
	for i, id := range ids {
		g.Go(func() error {
			task, err := c.apply(ctx, id, req)
			results[i] = BulkResult{ID: id, Task: task, Error: err}
			return nil
		})
	}
	_ = g.Wait()

	report := BulkReport{
		Request:  req,
		Results:  results,
		Outcomes: make(map[string]error, len(results)),
	}
	var errs []error
	for _, res := range results {
		report.Outcomes[res.ID] = res.Error
		if res.Error != nil {
			c.logger.Warn().Err(res.Error).Str("task", res.ID).Stringer("action", req.Action).Msg("bulk mutation failed")
			errs = append(errs, fmt.Errorf("%s: %w", res.ID, res.Error))
		}
	}
	if len(errs) > 0 {
		report.Err = fmt.Errorf("%w: %d of %d %s calls failed: %w",
			ErrBulkFailed, len(errs), len(results), req.Action, errors.Join(errs...))
	}
	return report, nil
}

func (c *Coordinator) apply(ctx context.Context, id string, req BulkRequest) (model.Task, error) {
	switch req.Action {
	case BulkStatus:
		return c.store.UpdateStatus(ctx, id, req.Status)
	case BulkPriority:
		return c.store.UpdatePriority(ctx, id, req.Priority)
	case BulkAssignee:
		return c.store.UpdateAssignee(ctx, id, req.AssigneeID)
	case BulkDelete:
		return model.Task{}, c.store.DeleteTask(ctx, id)
	default:
		return model.Task{}, fmt.Errorf("unknown bulk action %d", int(req.Action))
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// bulkRun tracks whether a bulk run is in progress for a Session.
type bulkRun struct {
	mu      sync.Mutex
	running bool
}

func (b *bulkRun) begin() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return false
	}
	b.running = true
	return true
}

func (b *bulkRun) end() {
	b.mu.Lock()
	b.running = false
	b.mu.Unlock()
}
