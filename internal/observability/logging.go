package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// LoggerConfig holds logger configuration.
type LoggerConfig struct {
	Level  string // debug, info, warn, error
	Pretty bool   // Enable pretty console output
}

// NewLogger creates the application's structured logger. Components derive
// their own tagged loggers from the returned one.
func NewLogger(cfg LoggerConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339

	var output io.Writer = os.Stdout
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		}
	}

	return zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()
}
