// Package logging constructs the zerolog logger the rest of the server
// receives by injection.  There is no package-level global; components hold
// their own sub-loggers.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New builds the root logger.  Format "console" gives human-readable dev
// output; anything else is JSON.  Unknown levels fall back to info.
func New(level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var w io.Writer = os.Stderr
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
