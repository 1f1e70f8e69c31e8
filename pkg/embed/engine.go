// Package ren embeds the interpreter in a Go program.
//
// Values cross the boundary as Handles. Every handle returned to the
// caller is owned by the caller and must be given back with Release;
// Shutdown reports any that were not.
package ren

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/hostilefork/rebol-sub000/internal/config"
	"github.com/hostilefork/rebol-sub000/internal/evaluator"
	"github.com/hostilefork/rebol-sub000/internal/pipeline"
)

// Handle refers to a value held by an Engine. The zero Handle stands for
// null and needs no release.
type Handle struct {
	id uuid.UUID
}

func (h Handle) IsNull() bool { return h.id == uuid.Nil }

func (h Handle) String() string {
	if h.IsNull() {
		return "null"
	}
	return h.id.String()
}

// Options configure Startup.
type Options struct {
	// Config supplies interpreter limits; nil means the defaults.
	Config *config.Options
	Logger *slog.Logger
	// Output receives PRINT; nil means os.Stdout.
	Output io.Writer
}

// Engine is one running interpreter. Its methods may be called from
// several goroutines but evaluations are serialized; Halt may be called
// while an evaluation runs.
type Engine struct {
	mu         sync.Mutex
	interp     *evaluator.Interpreter
	marshaller *Marshaller
	handles    map[uuid.UUID]evaluator.Value
	logger     *slog.Logger
	closed     bool
}

// Startup creates an interpreter with halting enabled.
func Startup(opts Options) (*Engine, error) {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	in, err := pipeline.NewInterpreter(opts.Config, opts.Logger, opts.Output)
	if err != nil {
		return nil, fmt.Errorf("startup: %w", err)
	}
	if !in.HaltingEnabled() {
		in.EnableHalting()
	}
	return &Engine{
		interp:     in,
		marshaller: NewMarshaller(),
		handles:    make(map[uuid.UUID]evaluator.Value),
		logger:     opts.Logger,
	}, nil
}

// Shutdown stops the engine. It fails if handles are still outstanding,
// though the engine is shut down either way.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrShutdown
	}
	e.closed = true
	e.interp.DisableHalting()
	leaked := len(e.handles)
	e.handles = nil
	if leaked > 0 {
		e.logger.Warn("shutdown with unreleased handles", "count", leaked)
		return fmt.Errorf("shutdown: %d handles were not released", leaked)
	}
	return nil
}

// Halt asks a running evaluation to stop; it returns ErrHalted.
func (e *Engine) Halt() bool {
	return e.interp.RequestHalt()
}

// Outstanding is the number of handles not yet released.
func (e *Engine) Outstanding() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.handles)
}

// hold must be called with mu held.
func (e *Engine) hold(v evaluator.Value) Handle {
	if v.IsNull() {
		return Handle{}
	}
	id := uuid.New()
	e.handles[id] = v.Plain()
	return Handle{id: id}
}

func (e *Engine) box(v evaluator.Value) Handle {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Handle{}
	}
	return e.hold(v)
}

// lookup must be called with mu held.
func (e *Engine) lookup(h Handle) (evaluator.Value, error) {
	if e.closed {
		return evaluator.Value{}, ErrShutdown
	}
	if h.IsNull() {
		return evaluator.Null(), nil
	}
	v, ok := e.handles[h.id]
	if !ok {
		return evaluator.Value{}, fmt.Errorf("%w: %s", ErrUnknownHandle, h)
	}
	return v, nil
}

func (e *Engine) Integer(n int64) Handle { return e.box(evaluator.Integer(n)) }
func (e *Engine) Logic(b bool) Handle    { return e.box(evaluator.Logic(b)) }
func (e *Engine) Text(s string) Handle   { return e.box(evaluator.Text(s)) }
func (e *Engine) Blank() Handle          { return e.box(evaluator.Blank()) }

// Box converts a Go value with the marshaller.
func (e *Engine) Box(val any) (Handle, error) {
	v, err := e.marshaller.ToValue(val)
	if err != nil {
		return Handle{}, err
	}
	return e.box(v), nil
}

// Release gives a handle back. Releasing the null handle is a no-op.
func (e *Engine) Release(h Handle) error {
	if h.IsNull() {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.lookup(h); err != nil {
		return err
	}
	delete(e.handles, h.id)
	return nil
}

// Run loads and evaluates source, returning a handle to the result.
func (e *Engine) Run(source string) (Handle, error) {
	return e.RunContext(context.Background(), source)
}

// RunContext is Run with a context; cancelling it halts the evaluation.
func (e *Engine) RunContext(ctx context.Context, source string) (Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Handle{}, ErrShutdown
	}
	pctx := pipeline.Default().Run(pipeline.NewPipelineContext(ctx, e.interp, source, ""))
	if len(pctx.Errors) > 0 {
		return Handle{}, convertError(pctx.Errors[0])
	}
	return e.hold(pctx.Result), nil
}

// RunFile evaluates a source file.
func (e *Engine) RunFile(path string) (Handle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Handle{}, fmt.Errorf("reading %s: %w", path, err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Handle{}, ErrShutdown
	}
	pctx := pipeline.Default().Run(pipeline.NewPipelineContext(context.Background(), e.interp, string(data), path))
	if len(pctx.Errors) > 0 {
		return Handle{}, convertError(pctx.Errors[0])
	}
	return e.hold(pctx.Result), nil
}

// RunValues evaluates the held values as one code sequence. An action
// handle in the sequence is invoked, taking the following values as its
// arguments; null handles are spliced so they evaluate to null.
func (e *Engine) RunValues(hs ...Handle) (Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cells := make([]evaluator.Value, 0, len(hs))
	for _, h := range hs {
		v, err := e.lookup(h)
		if err != nil {
			return Handle{}, err
		}
		if v.IsNull() {
			v = v.Quoted(1)
		}
		cells = append(cells, v)
	}
	result, err := e.interp.Do(context.Background(), evaluator.NewArray(cells))
	if err != nil {
		return Handle{}, convertError(err)
	}
	return e.hold(result), nil
}

func (e *Engine) unbox(h Handle, kind evaluator.Kind) (evaluator.Value, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, err := e.lookup(h)
	if err != nil {
		return evaluator.Value{}, err
	}
	if !v.Is(kind) {
		return evaluator.Value{}, fmt.Errorf("%w: want %s, have %s", ErrKindMismatch, kind, v.Type())
	}
	return v, nil
}

func (e *Engine) UnboxInteger(h Handle) (int64, error) {
	v, err := e.unbox(h, evaluator.KindInteger)
	return v.Int, err
}

func (e *Engine) UnboxLogic(h Handle) (bool, error) {
	v, err := e.unbox(h, evaluator.KindLogic)
	return v.Logic(), err
}

func (e *Engine) UnboxText(h Handle) (string, error) {
	v, err := e.unbox(h, evaluator.KindText)
	return v.Text, err
}

// Unbox converts a held value to Go with the marshaller's natural
// mapping.
func (e *Engine) Unbox(h Handle) (any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, err := e.lookup(h)
	if err != nil {
		return nil, err
	}
	return e.marshaller.FromValue(v, nil)
}

// Spell returns the FORM of a held value: text without quotes, the
// spelling of words.
func (e *Engine) Spell(h Handle) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, err := e.lookup(h)
	if err != nil {
		return "", err
	}
	return evaluator.Form(&v), nil
}

// Mold returns the source form of a held value.
func (e *Engine) Mold(h Handle) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, err := e.lookup(h)
	if err != nil {
		return "", err
	}
	return evaluator.Mold(&v), nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Bind makes a Go function callable by name. Its parameters and results
// are converted with the marshaller; a trailing error result becomes a
// failure in the calling code. Variadic functions are not supported.
func (e *Engine) Bind(name string, fn any) error {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func {
		return fmt.Errorf("bind %s: %T is not a function", name, fn)
	}
	ft := rv.Type()
	if ft.IsVariadic() {
		return fmt.Errorf("bind %s: variadic functions are not supported", name)
	}
	nout := ft.NumOut()
	returnsErr := nout > 0 && ft.Out(nout-1) == errorType
	if returnsErr {
		nout--
	}
	if nout > 1 {
		return fmt.Errorf("bind %s: at most one result besides error", name)
	}

	var spec strings.Builder
	for i := 0; i < ft.NumIn(); i++ {
		fmt.Fprintf(&spec, "arg%d [<opt> any-value!] ", i+1)
	}

	native := func(f *evaluator.Frame) evaluator.Bounce {
		args := make([]reflect.Value, ft.NumIn())
		for i := range args {
			goVal, err := e.marshaller.FromValue(*f.Arg(i + 1), ft.In(i))
			if err != nil {
				return f.Fail(evaluator.NewError(evaluator.ErrHost, "%s: argument %d: %v", name, i+1, err))
			}
			if goVal == nil {
				args[i] = reflect.Zero(ft.In(i))
			} else {
				args[i] = reflect.ValueOf(goVal)
			}
		}
		results := rv.Call(args)
		if returnsErr {
			if errv := results[len(results)-1]; !errv.IsNil() {
				return f.Fail(evaluator.NewError(evaluator.ErrHost, "%s: %v", name, errv.Interface()))
			}
		}
		if nout == 0 {
			return f.Return(evaluator.Void())
		}
		out, err := e.marshaller.ToValue(results[0].Interface())
		if err != nil {
			return f.Fail(evaluator.NewError(evaluator.ErrHost, "%s: result: %v", name, err))
		}
		return f.Return(out)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrShutdown
	}
	if _, err := e.interp.RegisterNative(evaluator.NativeDef{
		Name: name,
		Spec: spec.String(),
		Fn:   native,
	}); err != nil {
		return fmt.Errorf("bind %s: %w", name, err)
	}
	return nil
}
