package evaluator

import (
	"context"
	"log/slog"

	"github.com/hostilefork/rebol-sub000/internal/symbols"
)

// Trampoline runs frames without growing the Go stack: executors return a
// Bounce instead of calling each other, and the loop in run decides which
// frame to resume next.
type Trampoline struct {
	interp *Interpreter
	top    *Frame
	depth  int

	maxDepth int
	interval int
	ticks    uint64

	thrown   Value
	label    Value
	throwing bool
	failure  *Error

	pool   *varPool
	logger *slog.Logger
	ctx    context.Context
}

func newTrampoline(interp *Interpreter, maxDepth, interval, poolLimit int, logger *slog.Logger) *Trampoline {
	return &Trampoline{
		interp:   interp,
		maxDepth: maxDepth,
		interval: interval,
		pool:     newVarPool(poolLimit, logger),
		logger:   logger,
		ctx:      context.Background(),
	}
}

// Depth is the number of frames on the stack.
func (t *Trampoline) Depth() int { return t.depth }

// Top is the innermost frame.
func (t *Trampoline) Top() *Frame { return t.top }

func (t *Trampoline) push(f *Frame) {
	f.prior = t.top
	f.tramp = t
	t.top = f
	t.depth++
}

// drop pops f and settles its var storage: unmanaged storage goes back to
// the pool, managed storage is expired so references to it fail cleanly.
func (t *Trampoline) drop(f *Frame) {
	if t.top != f {
		panic("evaluator: dropping a frame that is not on top")
	}
	t.top = f.prior
	t.depth--
	if c := f.varlist; c != nil && c.owner == OwnerLiveFrame && c.frame == f {
		vars := c.vars
		managed := c.managed
		c.expire()
		if !managed {
			t.pool.put(vars)
		}
	}
}

// run executes frames until root is dropped. The result is BounceOut,
// BounceThrown or BounceFail.
func (t *Trampoline) run(root *Frame) Bounce {
	for {
		f := t.top
		b := f.executor(f)

		if b == BounceContinue && t.depth > t.maxDepth {
			b = t.fail(t.top, newError(ErrStackOverflow, "stack depth exceeded %d frames", t.maxDepth))
		}

		switch b {
		case BounceContinue:
			continue

		case BounceOut, BounceThrown:
			t.drop(f)
			if f == root {
				return b
			}

		case BounceFail:
			if t.unwindFailure(root) {
				return BounceFail
			}

		default:
			panic("evaluator: executor returned " + b.String())
		}
	}
}

// unwindFailure drops frames until one that traps failures is on top. It
// reports whether root was dropped on the way.
func (t *Trampoline) unwindFailure(root *Frame) bool {
	for {
		g := t.top
		t.drop(g)
		if g == root {
			return true
		}
		if t.top.flags&FlagTrap != 0 {
			return false
		}
	}
}

// fail records err as the pending failure raised from f, attaching the
// position and the stack of actions that were running.
func (t *Trampoline) fail(f *Frame, err *Error) Bounce {
	if err.Label == "" {
		for g := f; g != nil; g = g.prior {
			if g.isAction() {
				err.Label = g.Label()
				break
			}
		}
	}
	if f.feed != nil {
		if err.File == "" {
			err.File = f.feed.File()
		}
		if err.Line == 0 {
			err.Line = f.feed.Line()
		}
	}
	if err.StackTrace == nil {
		err.StackTrace = t.stackTrace(f)
	}
	t.failure = err
	t.logger.Debug("evaluation failed", "error", err.ID.String(), "depth", t.depth)
	return BounceFail
}

func (t *Trampoline) stackTrace(f *Frame) []StackFrame {
	var trace []StackFrame
	for g := f; g != nil; g = g.prior {
		if !g.isAction() {
			continue
		}
		sf := StackFrame{Name: g.Label()}
		if g.feed != nil {
			sf.File = g.feed.File()
			sf.Line = g.feed.Line()
		}
		trace = append(trace, sf)
	}
	return trace
}

// pushEvaluator starts evaluating feed into out.
func (t *Trampoline) pushEvaluator(out *Value, feed *Feed, flags FrameFlags) *Frame {
	f := &Frame{out: out, feed: feed, executor: evaluatorExecutor, flags: flags}
	t.push(f)
	return f
}

// pushGroup evaluates the contents of a group into out, leaving out alone
// when the contents vanish.
func (t *Trampoline) pushGroup(out *Value, feed *Feed) *Frame {
	f := &Frame{out: out, feed: feed, executor: groupExecutor}
	t.push(f)
	return f
}

// groupExecutor runs its contents into the spare cell so an empty or
// all-invisible group can vanish.
func groupExecutor(f *Frame) Bounce {
	if f.tramp.throwing {
		return BounceThrown
	}
	switch f.state {
	case 0:
		f.spare = voidValue
		f.spare.MarkStale()
		f.state = 1
		f.tramp.pushEvaluator(&f.spare, f.feed, FlagToEnd)
		return BounceContinue
	default:
		if !f.spare.IsStale() {
			*f.out = f.spare
		}
		return BounceOut
	}
}

// pushAction starts an invocation of act that gathers its arguments from
// feed.
func (t *Trampoline) pushAction(out *Value, feed *Feed, act *Action, binding *Context, label *symbols.Symbol) *Frame {
	vars := t.pool.get(len(act.paramlist.Params))
	f := &Frame{
		out:      out,
		feed:     feed,
		executor: actionExecutor,
		original: act,
		phase:    act,
		binding:  binding,
		label:    label,
		param:    1,
	}
	f.varlist = newFrameContext(act, vars)
	f.varlist.frame = f
	t.push(f)
	if t.logger.Enabled(context.Background(), slog.LevelDebug) {
		t.logger.Debug("action pushed", "label", f.Label(), "depth", t.depth)
	}
	return f
}

// pushActionArgs invokes act with args filling its call-site parameters
// in order. Parameters args does not reach are left unset.
func (t *Trampoline) pushActionArgs(out *Value, act *Action, binding *Context, args []Value, label *symbols.Symbol) *Frame {
	f := t.pushAction(out, &Feed{}, act, binding, label)
	f.flags |= FlagArgsPreset
	j := 0
	params := act.paramlist.Params
	for i := 1; i < len(params) && j < len(args); i++ {
		p := &params[i]
		if !p.FromCallSite() || p.Class == ParamRefinement || act.specialized(i) {
			continue
		}
		f.varlist.vars[i] = args[j].Plain()
		j++
	}
	return f
}

// pushActionFrame runs a heap FRAME! context. The context becomes owned
// by the new frame and expires when it drops, so a FRAME! runs only once.
func (t *Trampoline) pushActionFrame(out *Value, ctx *Context, binding *Context, label *symbols.Symbol) (*Frame, *Error) {
	if ctx.kind != KindFrame || ctx.phase == nil {
		return nil, newError(ErrNotRunnable, "%s is not a frame of an action", ctx.kind)
	}
	if ctx.owner != OwnerHeap {
		return nil, newError(ErrNotRunnable, "frame is %s and cannot be run; COPY it first", ctx.owner)
	}
	act := ctx.phase
	f := &Frame{
		out:      out,
		feed:     &Feed{},
		executor: actionExecutor,
		original: act,
		phase:    act,
		binding:  binding,
		label:    label,
		param:    1,
		flags:    FlagArgsPreset,
		varlist:  ctx,
	}
	ctx.owner = OwnerLiveFrame
	ctx.frame = f
	ctx.managed = true
	t.push(f)
	return f, nil
}
