package logutil

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns a console logger writing to w at the named level.
// Unknown or empty levels fall back to warn.
func New(level string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		Level(lvl).
		With().Timestamp().Logger()
}

// NewTimingLogger returns a closure that logs a debug message with duration when called.
// Pass in the logger, a start time, a message, and any initial fields.
func NewTimingLogger(logger zerolog.Logger, start time.Time, msg string, fields map[string]any) func() {
	return func() {
		logger.Debug().Fields(fields).Dur("duration", time.Since(start)).Msg(msg)
	}
}

// LogAndWrapErr logs an error with context fields and wraps it with a message.
// It returns a wrapped error (with %w) so errors.Is / errors.As still work.
func LogAndWrapErr(logger zerolog.Logger, msg string, err error, fields map[string]any) error {
	if err == nil {
		return nil
	}
	logger.Error().Fields(fields).Err(err).Msg(msg)
	return fmt.Errorf("%s: %w", msg, err)
}

// DebugAndWrapErr is LogAndWrapErr at debug level, for errors the caller reports itself.
func DebugAndWrapErr(logger zerolog.Logger, msg string, err error, fields map[string]any) error {
	if err == nil {
		return nil
	}
	logger.Debug().Fields(fields).Err(err).Msg(msg)
	return fmt.Errorf("%s: %w", msg, err)
}
