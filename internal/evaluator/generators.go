package evaluator

import (
	"github.com/hostilefork/rebol-sub000/internal/symbols"
)

// Adapter runs a prelude in the frame, then the adaptee with whatever the
// prelude left in the arguments. Details: [prelude, adaptee].
type Adapter struct{}

func (Adapter) Dispatch(f *Frame) Bounce {
	details := f.phase.impl.Details
	switch f.state {
	case 0:
		prelude := details[0]
		f.state = 1
		f.spare = voidValue
		f.tramp.pushEvaluator(&f.spare, newFeed(prelude.Array, prelude.Index, f.varlist), FlagToEnd)
		return BounceContinue
	}
	f.phase = details[1].Action
	return BounceRedoChecked
}

// Adapt makes an action that runs prelude before adaptee. The prelude is
// bound relative to the new action so it sees the frame's arguments.
func Adapt(tbl *symbols.Table, adaptee *Action, prelude *Value) *Action {
	act := newAction(adaptee.paramlist.derive(), Adapter{}, nil, adaptee.exemplar)
	body := CopyAndBindRelative(tbl, prelude.Array, prelude.Index, prelude.Binding.Context, act, AnyWord, false)
	act.impl.Details = []Value{BlockOf(KindBlock, body), ActionValue(adaptee, nil)}
	act.flags |= adaptee.flags & (ActionDefersLookback | ActionInvisible)
	act.name = adaptee.name
	return act
}

// Encloser hands the outer action the inner call as a FRAME!. The frame's
// storage moves to the FRAME! value, so it outlives this invocation and
// can be run exactly once. Details: [inner, outer].
type Encloser struct{}

func (Encloser) Dispatch(f *Frame) Bounce {
	details := f.phase.impl.Details
	inner := details[0].Action
	outer := &details[1]

	moved := f.varlist.steal()
	moved.phase = inner
	arg := ContextValue(moved)
	f.tramp.pushActionArgs(f.out, outer.Action, outer.Binding.Context, []Value{arg}, nil)
	return BounceDelegate
}

// Enclose makes an action with the interface of inner whose calls are
// routed through outer.
func Enclose(inner, outer *Action) *Action {
	act := newAction(inner.paramlist.derive(), Encloser{}, []Value{ActionValue(inner, nil), ActionValue(outer, nil)}, inner.exemplar)
	act.flags |= inner.flags & ActionDefersLookback
	act.name = inner.name
	return act
}

// Specializer runs the specializee in a frame whose fixed slots came from
// the exemplar. Details: [specializee].
type Specializer struct{}

func (Specializer) Dispatch(f *Frame) Bounce {
	f.phase = f.phase.impl.Details[0].Action
	return BounceRedoUnchecked
}

// newExemplar makes a heap FRAME! for act with its existing specializations
// copied in and every other slot void.
func newExemplar(act *Action) *Context {
	n := len(act.paramlist.Params)
	ctx := &Context{
		kind:    KindFrame,
		keys:    act.paramlist.keys(),
		vars:    make([]Value, n),
		managed: true,
		phase:   act,
	}
	for i := 1; i < n; i++ {
		if act.specialized(i) {
			ctx.vars[i] = act.exemplar.vars[i]
		} else {
			ctx.vars[i] = voidValue
		}
	}
	ctx.vars[0] = ContextValue(ctx)
	return ctx
}

// Specialize fixes the non-void slots of exemplar, which must be laid out
// for act. Values are typechecked here, once, instead of on every call.
func Specialize(act *Action, exemplar *Context) (*Action, *Error) {
	params := act.paramlist.Params
	for i := 1; i < len(params); i++ {
		p := &params[i]
		v := &exemplar.vars[i]
		if v.IsVoid() || act.specialized(i) {
			continue
		}
		switch {
		case !p.FromCallSite() && p.Class != ParamOutput:
			return nil, newError(ErrBadSpecialize, "%s is not an argument and cannot be specialized", p.Symbol)
		case p.Class == ParamRefinement && !p.TakesArg():
			if v.IsTruthy() {
				*v = Logic(true)
			} else {
				*v = nullValue
			}
			continue
		case p.Class == ParamRefinement && v.IsNull():
			continue
		case p.Class == ParamOutput:
			continue
		}
		if !p.Types.Check(v) {
			return nil, newValueError(ErrArgType, v, "%s does not allow %s for its %s argument", act.Name(), describeType(v), p.Symbol)
		}
	}
	exemplar.phase = act
	spec := newAction(act.paramlist.derive(), Specializer{}, []Value{ActionValue(act, nil)}, exemplar)
	spec.flags |= act.flags & (ActionDefersLookback | ActionInvisible)
	spec.name = act.name
	return spec, nil
}

// specializeRefinements turns refinements named in a GET-PATH into a
// specialization with them switched on.
func specializeRefinements(act *Action, refines []*symbols.Symbol) (*Action, *Error) {
	ex := newExemplar(act)
	for _, r := range refines {
		i := act.paramlist.Find(r)
		if i == 0 || act.paramlist.Params[i].Class != ParamRefinement {
			return nil, newError(ErrBadRefine, "%s has no refinement /%s", act.Name(), r)
		}
		if act.paramlist.Params[i].TakesArg() {
			return nil, newError(ErrBadRefine, "/%s takes an argument and cannot be specialized by a path", r)
		}
		ex.vars[i] = Logic(true)
	}
	return Specialize(act, ex)
}

// specializeOutputs makes a variant of act whose output parameters hold
// the words their results are written to. A blank target skips an output.
func specializeOutputs(act *Action, targets []Value) (*Action, *Error) {
	if len(targets) == 0 {
		return act, nil
	}
	ex := newExemplar(act)
	n := 0
	for i := 1; i < len(act.paramlist.Params) && n < len(targets); i++ {
		if act.paramlist.Params[i].Class != ParamOutput || act.specialized(i) {
			continue
		}
		if t := targets[n]; t.Is(KindWord) {
			ex.vars[i] = t
		}
		n++
	}
	if n < len(targets) {
		return nil, newError(ErrSetTargets, "%s has fewer outputs than the %d extra targets", act.Name(), len(targets))
	}
	return Specialize(act, ex)
}

// Hijacker sends calls of a hijacked identity to its replacement.
// Details: [hijacker].
type Hijacker struct{}

func (Hijacker) Dispatch(f *Frame) Bounce {
	h := &f.phase.impl.Details[0]
	hijacker := h.Action
	if CompatibleFrame(f.original.paramlist, hijacker.paramlist) {
		f.phase = hijacker
		return BounceRedoChecked
	}

	// Different shapes: pass the arguments by name.
	params := hijacker.paramlist.Params
	vars := make([]Value, len(params))
	for i := 1; i < len(params); i++ {
		vars[i] = voidValue
		p := &params[i]
		if !p.FromCallSite() {
			continue
		}
		if j := f.original.paramlist.Find(p.Symbol); j != 0 && f.original.paramlist.Params[j].FromCallSite() {
			vars[i] = f.varlist.vars[j]
		}
	}
	ctx := &Context{kind: KindFrame, keys: hijacker.paramlist.keys(), vars: vars, managed: true, phase: hijacker}
	ctx.vars[0] = ContextValue(ctx)
	if _, err := f.tramp.pushActionFrame(f.out, ctx, h.Binding.Context, f.label); err != nil {
		return f.Fail(err)
	}
	return BounceDelegate
}

// Hijack makes every call of victim, including calls through actions
// derived from it, run hijacker instead. It returns a copy of victim as
// it was before.
func Hijack(victim, hijacker *Action) (*Action, *Error) {
	if victim == hijacker {
		return nil, newError(ErrBadHijack, "an action cannot hijack itself")
	}
	original := copyAction(victim)
	victim.impl = &Implementation{Dispatcher: Hijacker{}, Details: []Value{ActionValue(hijacker, nil)}}
	victim.flags &^= ActionInvisible | ActionDefersLookback
	victim.flags |= hijacker.flags & (ActionInvisible | ActionDefersLookback)
	return original, nil
}
