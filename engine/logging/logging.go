// Package logging builds the zerolog logger shared by every subsystem.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds a leveled logger writing to w. Format "json" emits one JSON object per line;
// anything else writes human-readable console output.
//
// Parameters:
//   - w: the destination, os.Stderr when nil
//   - level: a zerolog level name such as "debug" or "info"
//   - format: "json" or "console"
//
// Returns:
//   - zerolog.Logger: the configured logger, timestamped
//   - error: error if level is not a known zerolog level
func New(w io.Writer, level, format string) (zerolog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// Component derives a child logger tagged with the subsystem name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
