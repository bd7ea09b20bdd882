// Package debug provides the process logger for tv.
//
// Debug output is enabled by setting the TV_DEBUG environment variable or by
// passing --debug:
//
//	TV_DEBUG=1 tv list --sort priority
//
// Messages go to stderr through a zerolog console writer. Below debug level
// LogTiming is a no-op.
//
// Usage:
//
//	logger := debug.Logger("view")
//	debug.LogTiming("list_tasks", d)
package debug

import (
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var enabled atomic.Bool

func init() {
	Init(os.Getenv("TV_DEBUG") != "")
}

// Init configures the global logger: debug level when debug is true, info
// otherwise, written to stderr.
func Init(debug bool) {
	enabled.Store(debug)
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	SetOutput(os.Stderr)
}

// SetOutput redirects log output, e.g. to a file while the TUI owns the
// terminal.
func SetOutput(w io.Writer) {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.TimeOnly,
		NoColor:    w != os.Stderr,
	}).With().Timestamp().Logger()
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	return enabled.Load()
}

// SetEnabled switches debug logging on or off without touching the output.
func SetEnabled(e bool) {
	enabled.Store(e)
	if e {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// Logger returns the global logger tagged with a component name.
func Logger(component string) zerolog.Logger {
	return log.Logger.With().Str("component", component).Logger()
}

// LogTiming writes how long name took.
func LogTiming(name string, d time.Duration) {
	if !Enabled() {
		return
	}
	log.Debug().Str("op", name).Dur("took", d).Msg("timing")
}
