// Package obs contains observability utilities such as logging.
package obs

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the process-wide structured logger. It discards everything
// until InitLogger is called.
var Logger = zerolog.Nop()

// InitLogger configures Logger at the given level. Unknown levels fall back
// to info. pretty switches from JSON lines to a human console format.
func InitLogger(level string, pretty bool) {
	Logger = NewLogger(os.Stdout, level, pretty)
}

func NewLogger(w io.Writer, level string, pretty bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
