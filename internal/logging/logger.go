// Package logging owns the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	mu           sync.Mutex
	globalLogger zerolog.Logger
	initialized  bool
)

// Init sets the global level and installs a JSON logger, or a console
// writer when pretty is set. Later calls replace the logger.
func Init(level string, pretty bool) zerolog.Logger {
	return InitWriter(os.Stderr, level, pretty)
}

// InitWriter is Init with an explicit output.
func InitWriter(w io.Writer, level string, pretty bool) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()

	zerolog.SetGlobalLevel(ParseLevel(level))

	out := w
	if pretty {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	globalLogger = zerolog.New(out).With().Timestamp().Logger()
	log.Logger = globalLogger
	initialized = true
	return globalLogger
}

// ParseLevel maps a level name to zerolog, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Get returns the global logger, initialising it with defaults on first use.
func Get() zerolog.Logger {
	mu.Lock()
	ok := initialized
	l := globalLogger
	mu.Unlock()
	if !ok {
		return Init("info", false)
	}
	return l
}

// WithRequestID returns a child logger tagged with id, or a fresh uuid when id is empty.
func WithRequestID(id string) zerolog.Logger {
	if id == "" {
		id = NewRequestID()
	}
	return Get().With().Str("request_id", id).Logger()
}

func NewRequestID() string {
	return uuid.New().String()
}
