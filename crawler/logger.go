package crawler

import (
	"daisy/log"
)

// Logger is the printf-shaped logger passed down to strategies so they can be
// exercised in tests without touching the process-wide zerolog setup.
type Logger interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type ZeroLogger struct {
	Logger log.Logger
}

func NewZeroLogger() *ZeroLogger {
	return &ZeroLogger{Logger: log.Default()}
}

func (l *ZeroLogger) Info(format string, args ...any) {
	l.Logger.Info().Msgf(format, args...)
}

func (l *ZeroLogger) Warn(format string, args ...any) {
	l.Logger.Warn().Msgf(format, args...)
}

func (l *ZeroLogger) Error(format string, args ...any) {
	l.Logger.Error().Msgf(format, args...)
}

type logLevel int

const (
	logLevelInfo logLevel = iota
	logLevelWarn
	logLevelError
)

type logEntry struct {
	Level  logLevel
	Format string
	Args   []any
}

// TestLogger records entries instead of emitting them.
type TestLogger struct {
	Entries []logEntry
}

func NewTestLogger() *TestLogger {
	return &TestLogger{Entries: nil}
}

func (l *TestLogger) Info(format string, args ...any) {
	l.Entries = append(l.Entries, logEntry{logLevelInfo, format, args})
}

func (l *TestLogger) Warn(format string, args ...any) {
	l.Entries = append(l.Entries, logEntry{logLevelWarn, format, args})
}

func (l *TestLogger) Error(format string, args ...any) {
	l.Entries = append(l.Entries, logEntry{logLevelError, format, args})
}
