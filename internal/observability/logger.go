package observability

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const appName = "objnode"

// NewLogger builds the process logger. format is "console" for a human
// readable writer or "json" for one event per line.
func NewLogger(w io.Writer, level string, format string) (zerolog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}

	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("parse log level: %w", err)
	}
	if parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}

	switch format {
	case "", "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	case "json":
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", format)
	}

	return zerolog.New(w).Level(parsed).With().Timestamp().Str("app", appName).Logger(), nil
}
