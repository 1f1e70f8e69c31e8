package evaluator

import (
	"errors"
	"fmt"
	"strings"
)

// Category groups error IDs.
type Category string

const (
	CategoryBinding  Category = "binding"
	CategoryValue    Category = "value"
	CategoryDispatch Category = "dispatch"
	CategoryResource Category = "resource"
	CategoryControl  Category = "control"
	CategoryUser     Category = "user"
	CategorySyntax   Category = "syntax"
)

// ErrorID names one kind of failure.
type ErrorID struct {
	Category Category
	Name     string
}

func (id ErrorID) String() string { return string(id.Category) + "/" + id.Name }

var (
	ErrNotBound       = ErrorID{CategoryBinding, "not-bound"}
	ErrExpiredContext = ErrorID{CategoryBinding, "expired-context"}
	ErrDupVars        = ErrorID{CategoryBinding, "dup-vars"}
	ErrLetOutside     = ErrorID{CategoryBinding, "let-outside-function"}

	ErrNoValue     = ErrorID{CategoryValue, "no-value"}
	ErrEvalLiteral = ErrorID{CategoryValue, "bad-literal"}
	ErrProtected   = ErrorID{CategoryValue, "protected"}
	ErrBadPath     = ErrorID{CategoryValue, "bad-path"}
	ErrBadMake     = ErrorID{CategoryValue, "bad-make"}
	ErrVoidCond    = ErrorID{CategoryValue, "void-condition"}
	ErrOverflow    = ErrorID{CategoryValue, "overflow"}
	ErrZeroDivide  = ErrorID{CategoryValue, "zero-divide"}

	ErrArgType       = ErrorID{CategoryDispatch, "arg-type"}
	ErrReturnType    = ErrorID{CategoryDispatch, "bad-return-type"}
	ErrEnfixPath     = ErrorID{CategoryDispatch, "enfix-through-path"}
	ErrNoLeftQuote   = ErrorID{CategoryDispatch, "left-already-evaluated"}
	ErrNeedNonEnd    = ErrorID{CategoryDispatch, "need-non-end"}
	ErrBadRefine     = ErrorID{CategoryDispatch, "bad-refine"}
	ErrSetTargets    = ErrorID{CategoryDispatch, "set-block-targets"}
	ErrBadBranch     = ErrorID{CategoryDispatch, "bad-branch"}
	ErrNotRunnable   = ErrorID{CategoryDispatch, "frame-not-runnable"}
	ErrMissingArg    = ErrorID{CategoryDispatch, "missing-arg"}
	ErrBadFuncSpec   = ErrorID{CategoryDispatch, "bad-func-spec"}
	ErrBadHijack     = ErrorID{CategoryDispatch, "bad-hijack"}
	ErrBadSpecialize = ErrorID{CategoryDispatch, "bad-specialize"}

	ErrStackOverflow   = ErrorID{CategoryResource, "stack-overflow"}
	ErrTableExhausted  = ErrorID{CategoryResource, "symbol-table-exhausted"}
	ErrInvalidExit     = ErrorID{CategoryControl, "invalid-exit"}
	ErrUser            = ErrorID{CategoryUser, "message"}
	ErrHost            = ErrorID{CategoryUser, "host"}
	ErrScan            = ErrorID{CategorySyntax, "scan"}
	ErrHaltingReentry  = ErrorID{CategoryControl, "halting-reentry"}
	ErrHaltingDisabled = ErrorID{CategoryControl, "halting-disabled"}
)

// StackFrame is one active action in an error's stack trace.
type StackFrame struct {
	Name string
	File string
	Line int
}

// Error is a failure raised during evaluation. It is both a language
// value (ERROR!) and a Go error.
type Error struct {
	ID      ErrorID
	Message string
	// Value is the offending value, when there is one.
	Value *Value
	// Label is the action that was running when the failure was raised.
	Label      string
	File       string
	Line       int
	StackTrace []StackFrame
}

func newError(id ErrorID, format string, args ...any) *Error {
	return &Error{ID: id, Message: fmt.Sprintf(format, args...)}
}

// NewError builds a failure for natives registered from outside the
// package.
func NewError(id ErrorID, format string, args ...any) *Error {
	return newError(id, format, args...)
}

func newValueError(id ErrorID, v *Value, format string, args ...any) *Error {
	e := newError(id, format, args...)
	cp := v.Plain()
	e.Value = &cp
	if e.Line == 0 {
		e.Line = v.Line
	}
	return e
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.ID.String())
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Label != "" {
		sb.WriteString(" (in ")
		sb.WriteString(e.Label)
		sb.WriteString(")")
	}
	return sb.String()
}

// Inspect formats the error with its position and stack trace, innermost
// call first.
func (e *Error) Inspect() string {
	var result string
	if e.Line > 0 {
		result = fmt.Sprintf("ERROR at %s:%d: %s", fileOrInput(e.File), e.Line, e.Error())
	} else {
		result = "ERROR: " + e.Error()
	}
	if len(e.StackTrace) > 0 {
		result += "\nStack trace:"
		for _, frame := range e.StackTrace {
			if frame.Line > 0 {
				result += fmt.Sprintf("\n  at %s:%d (called %s)", fileOrInput(frame.File), frame.Line, frame.Name)
			} else {
				result += "\n  in " + frame.Name
			}
		}
	}
	return result
}

func fileOrInput(file string) string {
	if file == "" {
		return "<input>"
	}
	return file
}

// Is matches errors by ID so callers can write errors.Is(err, &Error{ID: ...}).
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.ID == e.ID && (other.Message == "" || other.Message == e.Message)
}

// ErrHalted is returned when evaluation was cancelled by a halt request.
var ErrHalted = errors.New("halted")

// UncaughtThrowError reports a throw no frame caught, such as a RETURN
// outside any function.
type UncaughtThrowError struct {
	Value Value
	Label Value
}

func (e *UncaughtThrowError) Error() string {
	return fmt.Sprintf("no catch for throw: %s with label %s", Mold(&e.Value), Mold(&e.Label))
}
