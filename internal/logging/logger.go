// file: internal/logging/logger.go
// version: 1.0.0
// guid: 1732c15d-1bff-43e3-ab42-835af41fc06e

package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Options selects the log format and level.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // text, json, logfmt
	Output io.Writer
	// ReportCaller adds file:line to each entry.
	ReportCaller bool
}

// New builds a slog.Logger rendered by charmbracelet/log.
func New(opts Options) *slog.Logger {
	var formatter log.Formatter
	switch strings.ToLower(opts.Format) {
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	default:
		formatter = log.TextFormatter
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	handler := log.NewWithOptions(out, log.Options{
		ReportCaller:    opts.ReportCaller,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "spit",
		Formatter:       formatter,
		Level:           ParseLevel(opts.Level),
	})
	return slog.New(handler)
}

// Setup builds a logger and installs it as the slog default.
func Setup(opts Options) *slog.Logger {
	logger := New(opts)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps a level name to a charmbracelet level, defaulting to info.
func ParseLevel(s string) log.Level {
	switch strings.ToLower(s) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	}
	return log.InfoLevel
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
