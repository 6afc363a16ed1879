// Package logging is the ambient structured-logging layer. It keeps the
// teacher's small Debug/Info/Warn/Error surface
// (internal/infrastructure/services/logger.go) but backs it with
// zerolog instead of the standard log package, so every call site emits
// structured fields instead of a formatted string.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the structured logger handed to every component that needs
// to report on its own operation (sync engine, providers, HTTP handlers).
type Logger struct {
	zl zerolog.Logger
}

// New builds a console-writer logger in development and a plain JSON
// logger in production, matching the teacher's ENVIRONMENT-driven
// behavior switch (internal/config/config.go).
func New(environment string) *Logger {
	var zl zerolog.Logger
	if environment == "production" {
		zl = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		zl = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}
	return &Logger{zl: zl}
}

// Fields is a shorthand for the structured key/value pairs attached to a
// log line.
type Fields map[string]any

func (l *Logger) with(fields Fields) zerolog.Context {
	ctx := l.zl.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return ctx
}

func (l *Logger) Debug(msg string, fields Fields) { l.with(fields).Logger().Debug().Msg(msg) }
func (l *Logger) Info(msg string, fields Fields)  { l.with(fields).Logger().Info().Msg(msg) }
func (l *Logger) Warn(msg string, fields Fields)  { l.with(fields).Logger().Warn().Msg(msg) }

func (l *Logger) Error(msg string, err error, fields Fields) {
	l.with(fields).Err(err).Logger().Error().Msg(msg)
}

// With returns a child logger with fields permanently attached, used to
// scope a logger to one account/user for the duration of a sync cycle.
func (l *Logger) With(fields Fields) *Logger {
	return &Logger{zl: l.with(fields).Logger()}
}
