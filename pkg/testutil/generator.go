// Package testutil provides deterministic task fixtures and an in-memory
// task store for tests.
package testutil

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/taskview/pkg/model"
)

// GeneratorConfig controls task generation.
type GeneratorConfig struct {
	Seed        int64            // Random seed for determinism (0 = use current time)
	IDPrefix    string           // Prefix for task IDs (default: "T")
	BaseTime    time.Time        // Base time for created_at/due dates
	Projects    []model.Project  // Projects to spread tasks over (nil = no projects)
	Users       []string         // Assignee/creator pool (nil = unassigned)
	DueRatio    float64          // Fraction of tasks with a due date
	StatusMix   []model.Status   // Status distribution (nil = all new)
	PriorityMix []model.Priority // Priority distribution (nil = all medium)
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:     42,
		IDPrefix: "T",
		BaseTime: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		Projects: []model.Project{
			{ID: "p-web", Name: "Website"},
			{ID: "p-api", Name: "API"},
			{ID: "p-ops", Name: "Operations"},
		},
		Users:       []string{"alice", "bob", "carol"},
		DueRatio:    0.5,
		StatusMix:   model.Statuses,
		PriorityMix: model.Priorities,
	}
}

// Generator creates task forests.
type Generator struct {
	cfg  GeneratorConfig
	rng  *rand.Rand
	next int
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.BaseTime.IsZero() {
		cfg.BaseTime = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	}
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = "T"
	}
	if len(cfg.StatusMix) == 0 {
		cfg.StatusMix = []model.Status{model.StatusNew}
	}
	if len(cfg.PriorityMix) == 0 {
		cfg.PriorityMix = []model.Priority{model.PriorityMedium}
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// Projects returns the configured projects.
func (g *Generator) Projects() []model.Project {
	return g.cfg.Projects
}

// Forest creates roots trees in which every node above the last level has
// fanout children, depth levels deep (depth 1 = roots only). Tasks are
// returned parents before children with ChildrenCount, Path and Depth set.
func (g *Generator) Forest(roots, fanout, depth int) []model.Task {
	var tasks []model.Task
	for i := 0; i < roots; i++ {
		tasks = g.subtree(tasks, nil, fanout, depth)
	}
	return tasks
}

func (g *Generator) subtree(tasks []model.Task, parent *model.Task, fanout, depth int) []model.Task {
	if depth <= 0 {
		return tasks
	}
	t := g.task(parent)
	if depth > 1 {
		t.ChildrenCount = fanout
	}
	tasks = append(tasks, t)
	for i := 0; i < t.ChildrenCount; i++ {
		tasks = g.subtree(tasks, &t, fanout, depth-1)
	}
	return tasks
}

// Flat creates n root tasks without children.
func (g *Generator) Flat(n int) []model.Task {
	return g.Forest(n, 0, 1)
}

func (g *Generator) task(parent *model.Task) model.Task {
	g.next++
	id := fmt.Sprintf("%s-%d", g.cfg.IDPrefix, g.next)
	t := model.Task{
		ID:        id,
		Path:      id,
		Title:     fmt.Sprintf("%s %s", sampleTitles[g.rng.Intn(len(sampleTitles))], id),
		Status:    g.cfg.StatusMix[g.rng.Intn(len(g.cfg.StatusMix))],
		Priority:  g.cfg.PriorityMix[g.rng.Intn(len(g.cfg.PriorityMix))],
		CreatedAt: g.cfg.BaseTime.Add(time.Duration(g.next) * time.Hour).Format(time.RFC3339),
	}
	if parent != nil {
		t.ParentID = parent.ID
		t.Path = model.ChildPath(parent.Path, id)
		t.Depth = parent.Depth + 1
		t.ProjectID = parent.ProjectID
	} else if len(g.cfg.Projects) > 0 {
		// roughly one in five roots has no project
		if n := g.rng.Intn(len(g.cfg.Projects)*5 + 1); n < len(g.cfg.Projects)*4 {
			t.ProjectID = g.cfg.Projects[n%len(g.cfg.Projects)].ID
		}
	}
	if len(g.cfg.Users) > 0 {
		t.CreatorID = g.cfg.Users[g.rng.Intn(len(g.cfg.Users))]
		if g.rng.Intn(3) > 0 {
			t.AssigneeID = g.cfg.Users[g.rng.Intn(len(g.cfg.Users))]
		}
	}
	if g.rng.Float64() < g.cfg.DueRatio {
		days := g.rng.Intn(60) - 20
		t.DueDate = g.cfg.BaseTime.AddDate(0, 0, days).Format(time.DateOnly)
	}
	return t
}

var sampleTitles = []string{
	"Fix login redirect", "Update onboarding copy", "Migrate billing tables",
	"Review API limits", "Écrire la documentation", "Audit access logs",
	"Refactor search index", "Design settings page", "Rotate TLS certificates",
	"Triage crash reports",
}

// ToJSONL converts tasks to JSONL (one JSON object per line).
func ToJSONL(tasks []model.Task) string {
	var sb strings.Builder
	for _, t := range tasks {
		data, err := json.Marshal(t)
		if err != nil {
			continue
		}
		sb.Write(data)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// QuickForest creates a forest with default settings.
func QuickForest(roots, fanout, depth int) []model.Task {
	return NewDefault().Forest(roots, fanout, depth)
}

// Single returns one root task without children.
func Single() []model.Task {
	return NewDefault().Flat(1)
}
