package infra

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger constructs a zerolog.Logger for the service: debug level with a
// console writer in development, JSON at info level elsewhere.
func NewLogger(appEnv string) zerolog.Logger {
	return newLogger(appEnv, os.Stdout)
}

func newLogger(appEnv string, out io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	if appEnv == "development" {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "thumbgen").
		Logger()

	if appEnv == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}

	return logger
}

// NopLogger returns a logger that discards everything; used by tests and as
// the fallback for optional logger fields.
func NopLogger() *Logger {
	l := zerolog.Nop()
	return &l
}

// Logger aliases zerolog.Logger so packages outside infra can depend on the
// logging contract without importing the module directly.
type Logger = zerolog.Logger
