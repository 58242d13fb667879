package utils

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger provides leveled, printf-style logging throughout the application.
// Output is rendered by zerolog's console writer.
type Logger struct {
	z zerolog.Logger
}

// NewLogger creates a Logger writing to stdout at the level named by LOG_LEVEL.
func NewLogger() *Logger {
	return NewLoggerTo(os.Stdout, os.Getenv("LOG_LEVEL"))
}

// NewLoggerTo creates a Logger writing to w. Unknown levels fall back to info.
func NewLoggerTo(w io.Writer, level string) *Logger {
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: "2006-01-02 15:04:05"}
	return &Logger{z: zerolog.New(out).Level(parseLevel(level)).With().Timestamp().Logger()}
}

// NewNopLogger discards everything; used by tests.
func NewNopLogger() *Logger {
	return &Logger{z: zerolog.Nop()}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *Logger) Info(format string, args ...any) {
	l.z.Info().Msgf(format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.z.Warn().Msgf(format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.z.Error().Msgf(format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.z.Debug().Msgf(format, args...)
}
