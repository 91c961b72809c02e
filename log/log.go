// Wraps zerolog, ensuring the timestamp goes in the beginning and stacks from
// oops errors get marshaled.
package log

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

var logger zerolog.Logger

func init() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.DurationFieldInteger = true
	zerolog.TimeFieldFormat = time.RFC3339Nano
	logger = zerolog.New(os.Stderr).With().Stack().Logger()
}

// Logger is satisfied by the package-level default and by request- or
// run-scoped loggers that stamp extra fields on every event.
type Logger interface {
	Info() *zerolog.Event
	Warn() *zerolog.Event
	Error() *zerolog.Event
}

func Info() *zerolog.Event {
	return logger.Info().Timestamp()
}

func Warn() *zerolog.Event {
	return logger.Warn().Timestamp()
}

func Error() *zerolog.Event {
	return logger.Error().Timestamp()
}

type defaultLogger struct{}

func (defaultLogger) Info() *zerolog.Event  { return Info() }
func (defaultLogger) Warn() *zerolog.Event  { return Warn() }
func (defaultLogger) Error() *zerolog.Event { return Error() }

// Default returns the process-wide logger as a Logger value.
func Default() Logger {
	return defaultLogger{}
}
