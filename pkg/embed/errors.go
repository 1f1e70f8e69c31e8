package ren

import (
	"errors"
	"fmt"

	"github.com/hostilefork/rebol-sub000/internal/evaluator"
)

var (
	// ErrHalted reports an evaluation stopped by Halt or a HALT call.
	ErrHalted = evaluator.ErrHalted

	ErrShutdown      = errors.New("engine is shut down")
	ErrUnknownHandle = errors.New("unknown or released handle")
	ErrKindMismatch  = errors.New("handle holds a different kind")
)

// Error is a failure raised by evaluated code.
type Error struct {
	// ID is category/name, e.g. "binding/not-bound".
	ID      string
	Message string
	// Where is the action that raised it, if any.
	Where string
	File  string
	Line  int

	cause *evaluator.Error
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", fileOrEmbed(e.File), e.Line, e.cause.Error())
	}
	return e.cause.Error()
}

func (e *Error) Unwrap() error { return e.cause }

// UncaughtThrowError reports a throw that reached the top of a request,
// such as RETURN outside any function. Value and Label are molded.
type UncaughtThrowError struct {
	Value string
	Label string
}

func (e *UncaughtThrowError) Error() string {
	return fmt.Sprintf("uncaught throw of %s with label %s", e.Value, e.Label)
}

func fileOrEmbed(file string) string {
	if file == "" {
		return "<embed>"
	}
	return file
}

// convertError maps evaluator errors to the package's own types.
func convertError(err error) error {
	if err == nil || errors.Is(err, ErrHalted) {
		return err
	}
	var ee *evaluator.Error
	if errors.As(err, &ee) {
		return &Error{
			ID:      ee.ID.String(),
			Message: ee.Message,
			Where:   ee.Label,
			File:    ee.File,
			Line:    ee.Line,
			cause:   ee,
		}
	}
	var ut *evaluator.UncaughtThrowError
	if errors.As(err, &ut) {
		return &UncaughtThrowError{
			Value: evaluator.Mold(&ut.Value),
			Label: evaluator.Mold(&ut.Label),
		}
	}
	return err
}
