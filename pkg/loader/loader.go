// Package loader reads and writes task data as JSONL: one JSON object per
// line, either a task or a project ({"type":"project"}). Every line is
// checked against an embedded JSON schema before it is decoded.
package loader

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"github.com/vanderheijden86/taskview/pkg/debug"
	"github.com/vanderheijden86/taskview/pkg/metrics"
	"github.com/vanderheijden86/taskview/pkg/model"
)

// DefaultMaxBufferSize is the default buffer size for the reader (10MB).
const DefaultMaxBufferSize = 1024 * 1024 * 10

// Record types.
const (
	TypeTask    = "task"
	TypeProject = "project"
)

//go:embed schema/record.schema.json
var recordSchemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func recordSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(recordSchemaJSON))
	})
	return schema, schemaErr
}

// ParseOptions configures Parse.
type ParseOptions struct {
	// WarningHandler is called for every skipped line. If nil, warnings are
	// printed to os.Stderr.
	WarningHandler func(string)

	// BufferSize sets the maximum line size in bytes. Longer lines are
	// skipped with a warning. If 0, DefaultMaxBufferSize is used.
	BufferSize int

	// Strict turns the first skipped line into an error.
	Strict bool
}

// Dataset is the decoded content of a JSONL stream.
type Dataset struct {
	Projects []model.Project
	Tasks    []model.Task
	// Skipped counts lines dropped as malformed or invalid.
	Skipped int
}

// record is the union of the task and project line shapes.
type record struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	ParentID   string `json:"parent_id"`
	Title      string `json:"title"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	Priority   string `json:"priority"`
	DueDate    string `json:"due_date"`
	AssigneeID string `json:"assignee_id"`
	CreatorID  string `json:"creator_id"`
	ProjectID  string `json:"project_id"`
	CreatedAt  string `json:"created_at"`
}

// LoadFile reads a JSONL file.
func LoadFile(path string, opts ParseOptions) (Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("failed to open tasks file: %w", err)
	}
	defer file.Close()

	return Parse(file, opts)
}

// Parse reads JSONL from r. Malformed and invalid lines are skipped with a
// warning unless opts.Strict is set. Task lines without an id get a random
// UUID.
func Parse(r io.Reader, opts ParseOptions) (Dataset, error) {
	defer metrics.TimerWithCallback(metrics.JSONLImport, func(d time.Duration) {
		debug.LogTiming("jsonl_parse", d)
	})()

	sch, err := recordSchema()
	if err != nil {
		return Dataset{}, fmt.Errorf("load record schema: %w", err)
	}

	maxCapacity := opts.BufferSize
	if maxCapacity <= 0 {
		maxCapacity = DefaultMaxBufferSize
	}
	reader := bufio.NewReaderSize(r, maxCapacity)

	warn := opts.WarningHandler
	if warn == nil {
		warn = func(msg string) {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
		}
	}

	var ds Dataset
	skip := func(lineNum int, format string, args ...any) error {
		msg := fmt.Sprintf("line %d: %s", lineNum, fmt.Sprintf(format, args...))
		if opts.Strict {
			return fmt.Errorf("%s", msg)
		}
		ds.Skipped++
		warn("skipping " + msg)
		return nil
	}

	lineNum := 0
	for {
		lineNum++
		// ReadLine sets isPrefix when the line does not fit the buffer.
		line, isPrefix, err := reader.ReadLine()
		if err != nil {
			if err == io.EOF {
				break
			}
			return Dataset{}, fmt.Errorf("error reading tasks stream at line %d: %w", lineNum, err)
		}

		if isPrefix {
			for isPrefix {
				_, isPrefix, err = reader.ReadLine()
				if err == io.EOF {
					break
				}
				if err != nil {
					return Dataset{}, fmt.Errorf("error skipping long line at line %d: %w", lineNum, err)
				}
			}
			if err := skip(lineNum, "line too long (exceeds %d bytes)", maxCapacity); err != nil {
				return Dataset{}, err
			}
			continue
		}

		if lineNum == 1 {
			line = stripBOM(line)
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		res, err := sch.Validate(gojsonschema.NewBytesLoader(line))
		if err != nil {
			if err := skip(lineNum, "malformed JSON: %v", err); err != nil {
				return Dataset{}, err
			}
			continue
		}
		if !res.Valid() {
			if err := skip(lineNum, "invalid record: %s", schemaErrors(res)); err != nil {
				return Dataset{}, err
			}
			continue
		}

		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			if err := skip(lineNum, "malformed JSON: %v", err); err != nil {
				return Dataset{}, err
			}
			continue
		}

		if rec.Type == TypeProject {
			ds.Projects = append(ds.Projects, model.Project{ID: rec.ID, Name: rec.Name})
			continue
		}
		task, err := rec.task()
		if err != nil {
			if err := skip(lineNum, "invalid task: %v", err); err != nil {
				return Dataset{}, err
			}
			continue
		}
		ds.Tasks = append(ds.Tasks, task)
	}

	return ds, nil
}

func (r record) task() (model.Task, error) {
	t := model.Task{
		ID:         strings.TrimSpace(r.ID),
		ParentID:   strings.TrimSpace(r.ParentID),
		Title:      r.Title,
		DueDate:    r.DueDate,
		AssigneeID: r.AssigneeID,
		CreatorID:  r.CreatorID,
		ProjectID:  r.ProjectID,
		CreatedAt:  r.CreatedAt,
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if r.Status != "" {
		st, ok := model.ParseStatus(r.Status)
		if !ok {
			return t, fmt.Errorf("unknown status %q", r.Status)
		}
		t.Status = st
	}
	if r.Priority != "" {
		p, ok := model.ParsePriority(r.Priority)
		if !ok {
			return t, fmt.Errorf("unknown priority %q", r.Priority)
		}
		t.Priority = p
	}
	if t.ParentID == t.ID {
		return t, fmt.Errorf("task %s is its own parent", t.ID)
	}
	return t, nil
}

func schemaErrors(res *gojsonschema.Result) string {
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return strings.Join(msgs, "; ")
}

// stripBOM removes the UTF-8 Byte Order Mark if present
func stripBOM(b []byte) []byte {
	if bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) {
		return b[3:]
	}
	return b
}
