// Package logging builds the structured logger shared by every spectrace
// component. Diagnostics go to the logger; reports go to an explicit writer.
package logging

import (
	"io"
	"os"

	"github.com/phuslu/log"
)

// Options controls logger construction.
type Options struct {
	// Level is a phuslu/log level name ("debug", "info", "warn", "error").
	// Empty means "info".
	Level string
	// Verbose forces debug level.
	Verbose bool
	// Quiet suppresses everything below error. It wins over Verbose.
	Quiet bool
	// Writer receives log lines. Defaults to os.Stderr.
	Writer io.Writer
	// Color enables ANSI colors in console output.
	Color bool
}

// New returns a logger configured from opts.
func New(opts Options) *log.Logger {
	level := log.InfoLevel
	if opts.Level != "" {
		level = log.ParseLevel(opts.Level)
	}
	if opts.Verbose {
		level = log.DebugLevel
	}
	if opts.Quiet {
		level = log.ErrorLevel
	}

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	return &log.Logger{
		Level:      level,
		TimeFormat: "15:04:05",
		Writer: &log.ConsoleWriter{
			Writer:         w,
			ColorOutput:    opts.Color,
			EndWithMessage: true,
		},
	}
}

// Discard returns a logger that drops everything. Useful as a default and
// in tests.
func Discard() *log.Logger {
	return &log.Logger{
		Level:  log.PanicLevel,
		Writer: &log.IOWriter{Writer: io.Discard},
	}
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
