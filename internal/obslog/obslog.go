// Package obslog configures the process-wide zerolog logger and hands out
// component- and message-scoped child loggers.
package obslog

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Config controls the global logger's level and output format.
type Config struct {
	Level  string // debug, info, warn, error; defaults to info
	Pretty bool   // human-readable console output instead of JSON
	Output io.Writer
}

var base zerolog.Logger

func init() {
	base = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// Init configures the global logger. Call it once at process start; every
// Component/WithMessage logger derives from whatever it last configured.
func Init(cfg Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out}
	}

	base = zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Component returns a child logger tagged component=name.
func Component(name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}

// WithMessage binds the per-message fields the poll task's consume step
// needs on every log line it emits while handling one delivery.
func WithMessage(l zerolog.Logger, subscriberName, topic, messageID, traceID, spanID string) zerolog.Logger {
	ctx := l.With().
		Str("subscriber", subscriberName).
		Str("topic", topic).
		Str("message_id", messageID)
	if traceID != "" {
		ctx = ctx.Str("trace_id", traceID)
	}
	if spanID != "" {
		ctx = ctx.Str("span_id", spanID)
	}
	return ctx.Logger()
}
