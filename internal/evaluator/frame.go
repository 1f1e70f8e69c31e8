package evaluator

import (
	"github.com/hostilefork/rebol-sub000/internal/symbols"
)

// Bounce is what an executor or dispatcher tells the trampoline.
type Bounce uint8

const (
	// BounceOut: the frame's output is final; drop it and resume the prior.
	BounceOut Bounce = iota
	// BounceThrown: a throw is in flight in the trampoline's thrown slot.
	BounceThrown
	// BounceContinue: a child frame was pushed; run it, then resume this one.
	BounceContinue
	// BounceDelegate: a child frame was pushed whose output is this frame's.
	BounceDelegate
	// BounceRedoChecked: run the frame's new phase after typechecking args.
	BounceRedoChecked
	// BounceRedoUnchecked: run the new phase, args are known good.
	BounceRedoUnchecked
	// BounceFail: the trampoline's failure slot is set.
	BounceFail
	// BounceInvisible: the action leaves the output as it found it.
	BounceInvisible

	bounceAgain // executor-internal: state changed, keep looping
)

func (b Bounce) String() string {
	switch b {
	case BounceOut:
		return "out"
	case BounceThrown:
		return "thrown"
	case BounceContinue:
		return "continue"
	case BounceDelegate:
		return "delegate"
	case BounceRedoChecked:
		return "redo-checked"
	case BounceRedoUnchecked:
		return "redo-unchecked"
	case BounceFail:
		return "fail"
	case BounceInvisible:
		return "invisible"
	}
	return "again"
}

// FrameFlags modify how a frame evaluates.
type FrameFlags uint16

const (
	FlagToEnd             FrameFlags = 1 << iota // evaluate until the feed is exhausted
	FlagFulfillingArg                            // result is an argument of the prior action
	FlagNoLookahead                              // do not take enfix operators after the unit
	FlagEnfix                                    // action frame whose first argument came from the left
	FlagDispatcherCatches                        // dispatcher wants to see throws from its children
	FlagTrap                                     // failures below this frame resume it
	FlagRanAction                                // the current step dispatched a prefix action
	FlagArgsPreset                               // arguments are already in the varlist
)

// Executor resumes a frame.
type Executor func(f *Frame) Bounce

// Frame is one pending unit of work on the trampoline stack.
type Frame struct {
	out      *Value
	feed     *Feed
	executor Executor
	prior    *Frame
	tramp    *Trampoline
	flags    FrameFlags

	// state is the executor's step; action frames hand it to the
	// dispatcher once arguments are gathered.
	state uint8
	spare Value

	// Evaluator frames.
	current  Value
	target   Value
	targets  []Value
	enfixed  bool
	produced bool

	// Action frames.
	varlist   *Context
	original  *Action
	phase     *Action
	binding   *Context
	label     *symbols.Symbol
	argState  uint8
	param     int
	argIndex  int
	left      Value
	leftTaken bool
	refines   []*symbols.Symbol
	argRefine []int
	nextRef   int
	pickupAt  int

	// nativeState carries dispatcher data across continuations.
	nativeState any
}

// Out is the cell the frame's result goes to.
func (f *Frame) Out() *Value { return f.out }

// Feed is the stream the frame reads call-site units from.
func (f *Frame) Feed() *Feed { return f.feed }

// Trampoline runs the frame.
func (f *Frame) Trampoline() *Trampoline { return f.tramp }

// Interpreter owns the frame's trampoline.
func (f *Frame) Interpreter() *Interpreter { return f.tramp.interp }

// State is the dispatcher's step byte.
func (f *Frame) State() uint8 { return f.state }

func (f *Frame) SetState(s uint8) { f.state = s }

// Spare is a scratch cell owned by the frame's dispatcher.
func (f *Frame) Spare() *Value { return &f.spare }

// Varlist is the frame's argument context.
func (f *Frame) Varlist() *Context { return f.varlist }

// Phase is the action whose dispatcher is running.
func (f *Frame) Phase() *Action { return f.phase }

// Binding is the context the invoked action value was bound to.
func (f *Frame) Binding() *Context { return f.binding }

// Label is the word the action was invoked through, or "anonymous".
func (f *Frame) Label() string {
	if f.label != nil {
		return f.label.String()
	}
	if f.original != nil {
		return f.original.Name()
	}
	return "anonymous"
}

// Arg returns the argument cell for parameter i (1-based).
func (f *Frame) Arg(i int) *Value { return &f.varlist.vars[i] }

// Return writes v as the frame's result.
func (f *Frame) Return(v Value) Bounce {
	*f.out = v.Plain()
	return BounceOut
}

// Fail raises err from this frame.
func (f *Frame) Fail(err *Error) Bounce {
	return f.tramp.fail(f, err)
}

func (f *Frame) specifier() *Context { return f.feed.specifier }

func (f *Frame) isAction() bool { return f.varlist != nil }
