package accesskit

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// LogConfig selects the log output.
type LogConfig struct {
	Env    string // development uses a readable console writer
	Level  string // trace, debug, info, warn, error
	Format string // json or console; overrides Env when set
}

// NewLogger creates a structured logger writing to stdout.
func NewLogger(cfg LogConfig) zerolog.Logger {
	return newLogger(cfg, os.Stdout)
}

func newLogger(cfg LogConfig, out io.Writer) zerolog.Logger {
	w := out
	console := cfg.Env == "development"
	switch strings.ToLower(cfg.Format) {
	case "console", "pretty":
		console = true
	case "json":
		console = false
	}
	if console {
		w = zerolog.ConsoleWriter{Out: out}
	}
	return zerolog.New(w).Level(parseLevel(cfg.Level)).With().Timestamp().Logger()
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
