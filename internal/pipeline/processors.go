package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hostilefork/rebol-sub000/internal/evaluator"
)

var errNoInterpreter = errors.New("pipeline: no interpreter")

// ScanProcessor turns source text into unbound cells.
type ScanProcessor struct{}

func (sp *ScanProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if len(ctx.Errors) > 0 {
		return ctx
	}
	if ctx.Interp == nil {
		ctx.Errors = append(ctx.Errors, errNoInterpreter)
		return ctx
	}
	code, err := ctx.Interp.Scan(ctx.SourceCode, ctx.FilePath)
	if err != nil {
		ctx.Errors = append(ctx.Errors, err)
		return ctx
	}
	ctx.Code = code
	ctx.Bound = false
	return ctx
}

// BindProcessor binds scanned cells to the user context.
type BindProcessor struct{}

func (bp *BindProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Code == nil || len(ctx.Errors) > 0 {
		return ctx
	}
	ctx.Interp.Bind(ctx.Code)
	ctx.Bound = true
	return ctx
}

// EvaluatorProcessor runs bound code to its end. Each run is tagged with a
// request ID in the debug log so nested host calls can be told apart.
type EvaluatorProcessor struct{}

func (ep *EvaluatorProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Code == nil || len(ctx.Errors) > 0 {
		return ctx
	}
	if !ctx.Bound {
		ctx.Errors = append(ctx.Errors, fmt.Errorf("%s: evaluating unbound code", fileOrStdin(ctx.FilePath)))
		return ctx
	}

	id := uuid.New()
	logger := ctx.Interp.Logger().With("request", id.String(), "file", fileOrStdin(ctx.FilePath))
	logger.Debug("evaluation start", "cells", len(ctx.Code.Cells))
	start := time.Now()

	result, err := ctx.Interp.Do(ctx.Ctx, ctx.Code)
	if err != nil {
		logger.Debug("evaluation failed", "error", err, "elapsed", time.Since(start))
		ctx.Errors = append(ctx.Errors, err)
		return ctx
	}
	logger.Debug("evaluation done", "elapsed", time.Since(start))
	ctx.Result = result
	return ctx
}

func fileOrStdin(path string) string {
	if path == "" {
		return "<stdin>"
	}
	return path
}

// FormatError renders a pipeline error for a terminal: evaluator errors
// with their location and stack trace, anything else as is.
func FormatError(err error) string {
	var ee *evaluator.Error
	if errors.As(err, &ee) {
		return ee.Inspect()
	}
	var ut *evaluator.UncaughtThrowError
	if errors.As(err, &ut) {
		return "ERROR: " + ut.Error()
	}
	return "ERROR: " + err.Error()
}
