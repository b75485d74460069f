// Package logging builds the application logger.
package logging

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// DefaultLevel is used when no level is configured or the value is unknown.
const DefaultLevel = log.InfoLevel

// New returns a logger writing to w at the named level.
func New(w io.Writer, level string) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           ParseLevel(level),
		ReportTimestamp: true,
		Prefix:          "typeclock",
	})
}

// ParseLevel maps a level name to a log level, falling back to DefaultLevel.
func ParseLevel(level string) log.Level {
	level = strings.TrimSpace(level)
	if level == "" {
		return DefaultLevel
	}
	parsed, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return DefaultLevel
	}
	return parsed
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
