package main

import (
	"os"
	"strings"
)

// init runs before lipgloss or the TUI touch the terminal.
//
// Termenv background detection writes OSC/DSR queries to stdout, which end up
// inside --json or --markdown output when stdout is captured. Termenv skips
// the probe when CI is set.
func init() {
	if os.Getenv("CI") != "" {
		return
	}
	if !shouldSuppressTTYQueries(os.Args, os.Getenv("TV_TEST_MODE") != "") {
		return
	}
	_ = os.Setenv("CI", "1")
}

func shouldSuppressTTYQueries(args []string, envTest bool) bool {
	if envTest {
		return true
	}
	for _, arg := range args {
		if arg == "--" {
			break
		}
		switch {
		case arg == "--json", arg == "--markdown", arg == "--raw":
			return true
		case arg == "--version", arg == "--help", arg == "-h":
			return true
		case strings.HasPrefix(arg, "--json="), strings.HasPrefix(arg, "--markdown="):
			return true
		}
	}
	return false
}
