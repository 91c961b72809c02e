// Package oops attaches stack traces to errors. Every error that crosses a
// package boundary in this codebase is expected to go through Wrap or New so
// that the zerolog stack marshaler has something to print.
package oops

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

type StackTracer interface {
	Error() string
	StackTrace() errors.StackTrace
}

type Error struct {
	Inner StackTracer
}

func (err *Error) Error() string {
	var b strings.Builder
	for i, frame := range err.StackTrace() {
		if i > 0 {
			fmt.Fprint(&b, "\n")
		}
		frameText, _ := frame.MarshalText()
		fmt.Fprint(&b, string(frameText))
	}
	return fmt.Sprintf("%+v\b%s", err.Inner.Error(), b.String())
}

func (err *Error) Is(target error) bool {
	return errors.Is(err.Inner, target)
}

func (err *Error) As(target any) bool {
	return errors.As(err.Inner, target)
}

func (err *Error) Unwrap() error {
	return err.Inner
}

func (err *Error) StackTrace() errors.StackTrace {
	return err.Inner.StackTrace()
}

// Wrap returns nil for a nil error, so call sites can wrap unconditionally.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Inner: errors.WithStack(err).(StackTracer)}
}

func Wrapf(err error, format string, a ...any) error {
	if err == nil {
		return nil
	}
	inner := errors.Wrapf(err, format, a...)
	return &Error{Inner: errors.WithStack(inner).(StackTracer)}
}

func New(message string) error {
	err := errors.New(message)
	return &Error{Inner: errors.WithStack(err).(StackTracer)}
}

func Newf(format string, a ...any) error {
	err := fmt.Errorf(format, a...)
	return &Error{Inner: errors.WithStack(err).(StackTracer)}
}
