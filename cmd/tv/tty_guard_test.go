package main

import "testing"

func TestShouldSuppressTTYQueries(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		envTest bool
		want    bool
	}{
		{"interactive", []string{"tv"}, false, false},
		{"plain list", []string{"tv", "list", "--sort", "title"}, false, false},
		{"json", []string{"tv", "list", "--json"}, false, true},
		{"json with value", []string{"tv", "list", "--json=true"}, false, true},
		{"markdown", []string{"tv", "list", "--markdown"}, false, true},
		{"raw show", []string{"tv", "show", "T1", "--raw"}, false, true},
		{"help", []string{"tv", "--help"}, false, true},
		{"short help", []string{"tv", "list", "-h"}, false, true},
		{"version", []string{"tv", "--version"}, false, true},
		{"after terminator", []string{"tv", "show", "--", "--json"}, false, false},
		{"test mode", []string{"tv"}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldSuppressTTYQueries(tt.args, tt.envTest); got != tt.want {
				t.Errorf("shouldSuppressTTYQueries(%v, %v) = %v; want %v", tt.args, tt.envTest, got, tt.want)
			}
		})
	}
}
