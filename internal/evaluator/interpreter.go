package evaluator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/hostilefork/rebol-sub000/internal/scan"
	"github.com/hostilefork/rebol-sub000/internal/symbols"
)

// Options configure an Interpreter. Zero fields take the defaults.
type Options struct {
	// MaxDepth bounds the number of frames on the trampoline stack.
	MaxDepth int
	// InterruptInterval is how many expressions run between halt checks.
	InterruptInterval int
	// PoolBuckets is how many free var lists each size class keeps.
	PoolBuckets int
	// SymbolTableSize is the initial symbol table size, rounded up to a
	// prime the table supports.
	SymbolTableSize int
	// SymbolTableMax caps symbol table growth; 0 means the largest prime.
	SymbolTableMax int
	// Halting enables halt requests from the start.
	Halting bool

	Logger *slog.Logger
	Output io.Writer
}

const (
	DefaultMaxDepth          = 10000
	DefaultInterruptInterval = 1024
	DefaultPoolBuckets       = 16
	DefaultSymbolTableSize   = 1021
)

func (o Options) withDefaults() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.InterruptInterval <= 0 {
		o.InterruptInterval = DefaultInterruptInterval
	}
	if o.PoolBuckets <= 0 {
		o.PoolBuckets = DefaultPoolBuckets
	}
	if o.SymbolTableSize <= 0 {
		o.SymbolTableSize = DefaultSymbolTableSize
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.Output == nil {
		o.Output = io.Discard
	}
	return o
}

const (
	haltingDisabled int32 = iota
	haltingEnabled
	haltingTransition
)

// Interpreter is one evaluation session: a symbol table, the library and
// user contexts, and the trampoline that runs code against them. It is not
// safe for concurrent use, except for RequestHalt.
type Interpreter struct {
	table *symbols.Table
	lib   *Context
	user  *Context
	tramp *Trampoline

	logger *slog.Logger
	out    io.Writer

	haltRequested atomic.Bool
	halting       atomic.Int32

	returnAction   *Action
	unwindAction   *Action
	haltAction     *Action
	breakAction    *Action
	continueAction *Action
}

// NewInterpreter builds a session with the natives installed in the
// library context.
func NewInterpreter(opts Options) (*Interpreter, error) {
	opts = opts.withDefaults()
	in := &Interpreter{
		table: symbols.NewTable(symbols.Options{
			InitialSize: opts.SymbolTableSize,
			MaxSize:     opts.SymbolTableMax,
			Logger:      opts.Logger,
		}),
		lib:    NewContext(KindModule, 128),
		user:   NewContext(KindModule, 64),
		logger: opts.Logger,
		out:    opts.Output,
	}
	in.tramp = newTrampoline(in, opts.MaxDepth, opts.InterruptInterval, opts.PoolBuckets, opts.Logger)
	if err := in.installLib(); err != nil {
		return nil, fmt.Errorf("installing natives: %w", err)
	}
	if opts.Halting {
		in.EnableHalting()
	}
	return in, nil
}

func (in *Interpreter) Symbols() *symbols.Table { return in.table }

// Lib is the context natives and datatype words live in.
func (in *Interpreter) Lib() *Context { return in.lib }

// Logger is the session's structured logger.
func (in *Interpreter) Logger() *slog.Logger { return in.logger }

// User is the context top-level code defines its words in.
func (in *Interpreter) User() *Context { return in.user }

// PoolStats reports frame storage reuse.
func (in *Interpreter) PoolStats() (hits, misses int) { return in.tramp.pool.Stats() }

// Depth is the number of frames currently on the stack.
func (in *Interpreter) Depth() int { return in.tramp.depth }

// Intern returns the symbol for a spelling.
func (in *Interpreter) Intern(spelling string) (*symbols.Symbol, error) {
	sym, err := in.table.InternString(spelling)
	if err != nil {
		return nil, internError(err, spelling)
	}
	return sym, nil
}

// Scan loads source text into unbound cells.
func (in *Interpreter) Scan(source, file string) (*Array, error) {
	items, err := scan.Scan(source, file)
	if err != nil {
		var se *scan.Error
		if errors.As(err, &se) {
			e := newError(ErrScan, "%s", se.Message)
			e.File, e.Line = se.File, se.Line
			return nil, e
		}
		return nil, err
	}
	return loadItems(in.table, items, file)
}

// Bind binds loaded cells to the user context, adding a variable for every
// SET-WORD in them.
func (in *Interpreter) Bind(code *Array) {
	bindLoaded(in.table, code.Cells, in.user, in.lib)
}

// Load scans and binds source text.
func (in *Interpreter) Load(source, file string) (*Array, error) {
	code, err := in.Scan(source, file)
	if err != nil {
		return nil, err
	}
	in.Bind(code)
	return code, nil
}

// Do evaluates code to its end and returns the last value.
func (in *Interpreter) Do(ctx context.Context, code *Array) (Value, error) {
	out := voidValue
	in.tramp.ctx = ctx
	f := in.tramp.pushEvaluator(&out, newFeed(code, 0, nil), FlagToEnd)
	return in.runRoot(f, &out)
}

// DoString loads and evaluates source text.
func (in *Interpreter) DoString(ctx context.Context, source, file string) (Value, error) {
	code, err := in.Load(source, file)
	if err != nil {
		return Value{}, err
	}
	return in.Do(ctx, code)
}

// Step evaluates one expression of code starting at index. It returns the
// value and the index of the next expression; an index past the end means
// the code is exhausted.
func (in *Interpreter) Step(ctx context.Context, code *Array, index int) (Value, int, error) {
	out := voidValue
	in.tramp.ctx = ctx
	feed := newFeed(code, index, nil)
	f := in.tramp.pushEvaluator(&out, feed, 0)
	v, err := in.runRoot(f, &out)
	return v, feed.index, err
}

// Call invokes an action with the given arguments for its call-site
// parameters, in order.
func (in *Interpreter) Call(ctx context.Context, act *Action, args ...Value) (Value, error) {
	out := voidValue
	in.tramp.ctx = ctx
	f := in.tramp.pushActionArgs(&out, act, nil, args, nil)
	return in.runRoot(f, &out)
}

func (in *Interpreter) runRoot(f *Frame, out *Value) (Value, error) {
	t := in.tramp
	switch t.run(f) {
	case BounceThrown:
		isHalt := t.labelIs(in.haltAction)
		label := t.label
		v := t.CatchThrown()
		if isHalt {
			return Value{}, ErrHalted
		}
		return Value{}, &UncaughtThrowError{Value: v, Label: label}
	case BounceFail:
		err := t.failure
		t.failure = nil
		return Value{}, err
	}
	if out.IsStale() {
		out.ClearStale()
	}
	return out.Plain(), nil
}

// RequestHalt asks the running evaluation to stop at its next interrupt
// check. It may be called from any goroutine and reports false when
// halting is not enabled.
func (in *Interpreter) RequestHalt() bool {
	if in.halting.Load() != haltingEnabled {
		return false
	}
	in.haltRequested.Store(true)
	return true
}

func (in *Interpreter) takeHaltRequest() bool {
	if in.halting.Load() != haltingEnabled {
		return false
	}
	return in.haltRequested.Swap(false)
}

// EnableHalting turns on halt requests. Enabling twice, or while another
// transition is underway, is a programming error.
func (in *Interpreter) EnableHalting() {
	in.transitionHalting(haltingDisabled, haltingEnabled)
}

// DisableHalting turns halt requests off and drops any pending one.
func (in *Interpreter) DisableHalting() {
	in.transitionHalting(haltingEnabled, haltingDisabled)
	in.haltRequested.Store(false)
}

func (in *Interpreter) transitionHalting(from, to int32) {
	if !in.halting.CompareAndSwap(from, haltingTransition) {
		panic(newError(ErrHaltingReentry, "halting transition from state %d found state %d", from, in.halting.Load()))
	}
	in.logger.Debug("halting transition", "enabled", to == haltingEnabled)
	in.halting.Store(to)
}

// HaltingEnabled reports whether halt requests are honored.
func (in *Interpreter) HaltingEnabled() bool { return in.halting.Load() == haltingEnabled }
