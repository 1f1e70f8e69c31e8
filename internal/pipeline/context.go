package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/hostilefork/rebol-sub000/internal/config"
	"github.com/hostilefork/rebol-sub000/internal/evaluator"
)

// PipelineContext carries one source text through the stages.
type PipelineContext struct {
	Ctx        context.Context
	SourceCode string
	FilePath   string

	Interp *evaluator.Interpreter

	// Code is set by the scan stage; Bound once it is bound to the user
	// context.
	Code  *evaluator.Array
	Bound bool

	Result evaluator.Value
	Errors []error
}

// NewPipelineContext prepares a context for source read from filePath.
// An empty filePath means standard input or an inline -e expression.
func NewPipelineContext(ctx context.Context, in *evaluator.Interpreter, source, filePath string) *PipelineContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &PipelineContext{
		Ctx:        ctx,
		SourceCode: source,
		FilePath:   filePath,
		Interp:     in,
	}
}

// Processor is a single stage.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// Err joins the recorded errors, or returns nil.
func (c *PipelineContext) Err() error {
	return errors.Join(c.Errors...)
}

// Halted reports whether evaluation stopped on a halt request.
func (c *PipelineContext) Halted() bool {
	for _, err := range c.Errors {
		if errors.Is(err, evaluator.ErrHalted) {
			return true
		}
	}
	return false
}

// NewInterpreter builds an interpreter from file options. A nil opts
// means the defaults.
func NewInterpreter(opts *config.Options, logger *slog.Logger, out io.Writer) (*evaluator.Interpreter, error) {
	if opts == nil {
		opts = config.Default()
	}
	return evaluator.NewInterpreter(evaluator.Options{
		MaxDepth:          opts.MaxDepth,
		InterruptInterval: opts.InterruptInterval,
		PoolBuckets:       opts.PoolBuckets,
		SymbolTableSize:   opts.SymbolTableSize,
		Halting:           opts.Halting,
		Logger:            logger,
		Output:            out,
	})
}
