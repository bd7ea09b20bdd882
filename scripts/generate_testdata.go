//go:build ignore

// generate_testdata.go creates task datasets for benchmarking and manual
// testing. Load one with: tv import --reset testdata/datasets/medium.jsonl
//
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//   testdata/datasets/small.jsonl   (50 roots, 3 levels)
//   testdata/datasets/medium.jsonl  (500 roots, 3 levels)
//   testdata/datasets/large.jsonl   (2000 roots, 4 levels)
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/taskview/pkg/testutil"
)

type datasetSpec struct {
	name   string
	roots  int
	fanout int
	depth  int
}

var datasets = []datasetSpec{
	{"small", 50, 2, 3},
	{"medium", 500, 2, 3},
	{"large", 2000, 2, 4},
}

type projectRecord struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

func main() {
	outputDir := filepath.Join("testdata", "datasets")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, ds := range datasets {
		cfg := testutil.DefaultConfig()
		cfg.Seed = int64(ds.roots) // reproducible per size
		cfg.IDPrefix = strings.ToUpper(ds.name[:1])
		gen := testutil.New(cfg)

		var sb strings.Builder
		for _, p := range gen.Projects() {
			data, err := json.Marshal(projectRecord{Type: "project", ID: p.ID, Name: p.Name})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to encode project %s: %v\n", p.ID, err)
				os.Exit(1)
			}
			sb.Write(data)
			sb.WriteByte('\n')
		}
		tasks := gen.Forest(ds.roots, ds.fanout, ds.depth)
		sb.WriteString(testutil.ToJSONL(tasks))

		outputPath := filepath.Join(outputDir, ds.name+".jsonl")
		if err := os.WriteFile(outputPath, []byte(sb.String()), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", outputPath, err)
			os.Exit(1)
		}
		fmt.Printf("Written %s (%d tasks, %d bytes)\n", outputPath, len(tasks), sb.Len())
	}
}
