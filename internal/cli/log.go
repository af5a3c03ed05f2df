// Package cli implements the actgraph command-line interface.
//
// The root command graphs an ACT platform: it fetches the data model, renders
// the complete, double and single views with Graphviz and optionally attaches
// the images to a Confluence page. The CLI is built using cobra, configured
// through viper and logs via the charmbracelet/log library.
//
// # Commands
//
// Besides the root command:
//   - origin: list, add and delete ACT origins
//   - serve: expose the diagrams over HTTP
//   - config: show, init and locate the configuration file
//   - cache: manage the change detection cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging and --log-file
// to copy log output into a size-rotated file.
package cli

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// newRotatingFile opens path as a size-rotated log file.
func newRotatingFile(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
}

// attachLogFile tees logger output into a rotated file at path. The returned
// closer flushes the file.
func attachLogFile(logger *log.Logger, path string) io.Closer {
	file := newRotatingFile(path)
	logger.SetOutput(io.MultiWriter(os.Stderr, file))
	logger.Debug("logging to file", "path", path)
	return file
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// The duration is rounded to the nearest millisecond.
// Example output: "Rendered 3 views (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
