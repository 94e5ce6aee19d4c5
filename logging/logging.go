package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns the process logger. Debug builds log human readable lines at
// debug level; otherwise JSON at info level.
func New(w io.Writer, debug bool) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.StampMilli}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
