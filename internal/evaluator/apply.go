package evaluator

import (
	"github.com/hostilefork/rebol-sub000/internal/symbols"
)

// Action frame argument states.
const (
	actFulfill uint8 = iota
	actArgReturned
	actDispatch
	actDelegated
)

// actionExecutor gathers the arguments of an invocation, then hands the
// frame to the phase's dispatcher until it produces a result.
func actionExecutor(f *Frame) Bounce {
	t := f.tramp
	if t.failure != nil {
		// Only a trapping dispatcher is resumed while a failure is pending.
		return f.dispatch()
	}
	if t.throwing {
		if f.argState == actDispatch && f.flags&FlagDispatcherCatches != 0 {
			return f.dispatch()
		}
		if f.argState >= actDispatch && t.isDefinitionalFor(f.varlist) {
			return f.catchDefinitional()
		}
		return BounceThrown
	}
	switch f.argState {
	case actFulfill:
		return f.fulfill()
	case actArgReturned:
		return f.argReturned()
	case actDispatch:
		return f.dispatch()
	default:
		return f.finish()
	}
}

// useRefinements records the refinements named at the call site, in the
// order they were named.
func (f *Frame) useRefinements(refines []*symbols.Symbol) *Error {
	pl := f.original.paramlist
	for n, r := range refines {
		i := pl.Find(r)
		if i == 0 || pl.Params[i].Class != ParamRefinement {
			return newError(ErrBadRefine, "%s has no refinement /%s", f.Label(), r)
		}
		if f.original.specialized(i) {
			return newError(ErrBadRefine, "refinement /%s of %s is already specialized", r, f.Label())
		}
		for _, prev := range refines[:n] {
			if symbols.SameCanon(prev, r) {
				return newError(ErrBadRefine, "refinement /%s used twice", r)
			}
		}
		f.refines = append(f.refines, r)
		if pl.Params[i].TakesArg() {
			f.argRefine = append(f.argRefine, i)
		}
	}
	return nil
}

func (f *Frame) usesRefinement(sym *symbols.Symbol) bool {
	for _, r := range f.refines {
		if symbols.SameCanon(r, sym) {
			return true
		}
	}
	return false
}

// fulfill walks the parameters in order. Refinement arguments named out
// of order at the call site are skipped and picked up afterwards, in call
// order.
func (f *Frame) fulfill() Bounce {
	params := f.original.paramlist.Params
	for f.param < len(params) {
		if b, pending := f.fulfillParam(f.param); pending {
			return b
		}
		f.param++
	}
	pickups := f.argRefine[f.nextRef:]
	for f.pickupAt < len(pickups) {
		if b, pending := f.gatherArg(pickups[f.pickupAt]); pending {
			return b
		}
		f.pickupAt++
	}
	f.argState = actDispatch
	f.state = 0
	return f.dispatch()
}

func (f *Frame) fulfillParam(i int) (Bounce, bool) {
	act := f.original
	p := &act.paramlist.Params[i]
	arg := &f.varlist.vars[i]

	if act.specialized(i) {
		*arg = act.exemplar.vars[i].Plain()
		return 0, false
	}
	switch p.Class {
	case ParamLocal, ParamReturn:
		*arg = voidValue
		return 0, false
	case ParamOutput:
		*arg = nullValue
		return 0, false
	}
	if f.flags&FlagArgsPreset != 0 {
		return f.checkPreset(i)
	}

	if p.Class == ParamRefinement {
		switch {
		case !f.usesRefinement(p.Symbol):
			*arg = nullValue
		case !p.TakesArg():
			*arg = Logic(true)
		case f.nextRef < len(f.argRefine) && f.argRefine[f.nextRef] == i:
			f.nextRef++
			return f.gatherArg(i)
		default:
			*arg = voidValue
		}
		return 0, false
	}

	if f.flags&FlagEnfix != 0 && !f.leftTaken {
		f.leftTaken = true
		*arg = f.left
		return f.typecheckArg(i)
	}
	return f.gatherArg(i)
}

// checkPreset validates an argument that was put in the frame before the
// call. Unset refinements are unused; unset arguments are missing.
func (f *Frame) checkPreset(i int) (Bounce, bool) {
	p := &f.original.paramlist.Params[i]
	arg := &f.varlist.vars[i]
	if arg.IsVoid() {
		switch {
		case p.Class == ParamRefinement:
			*arg = nullValue
		case p.Types.AllowsEnd():
			*arg = nullValue
		default:
			return f.Fail(newError(ErrMissingArg, "%s is missing its %s argument", f.Label(), p.Symbol)), true
		}
		return 0, false
	}
	if p.Class == ParamRefinement {
		if !p.TakesArg() {
			if arg.IsTruthy() {
				*arg = Logic(true)
			} else {
				*arg = nullValue
			}
			return 0, false
		}
		if arg.IsNull() {
			return 0, false
		}
	}
	return f.typecheckArg(i)
}

// gatherArg takes argument i from the feed. Quoting parameters take the
// unit as-is; others evaluate one expression in a child frame.
func (f *Frame) gatherArg(i int) (Bounce, bool) {
	p := &f.original.paramlist.Params[i]
	arg := &f.varlist.vars[i]
	f.argIndex = i
	feed := f.feed
	if feed.AtEnd() {
		*arg = endValue
		return f.typecheckArg(i)
	}
	v := feed.Current()
	spec := feed.specifier

	class := p.Class
	if class == ParamRefinement {
		class = ParamNormal
	}
	switch class {
	case ParamHardQuote:
		return f.takeLiteral(i, v)
	case ParamSoftQuote:
		if v.Quotes != 0 || (v.Kind != KindGroup && v.Kind != KindGetWord && v.Kind != KindGetPath) {
			return f.takeLiteral(i, v)
		}
	case ParamModal:
		if !v.Is(KindSymWord) {
			return f.takeLiteral(i, v)
		}
		slot, err := lookupVar(v, spec)
		if err != nil {
			return f.Fail(err), true
		}
		if slot.IsVoid() {
			return f.Fail(newValueError(ErrNoValue, v, "%s has no value", v.Symbol)), true
		}
		*arg = slot.Plain()
		feed.Next()
		return f.typecheckArg(i)
	}

	flags := FlagFulfillingArg
	if f.flags&FlagEnfix != 0 || class != ParamNormal {
		flags |= FlagNoLookahead
	}
	*arg = voidValue
	f.argState = actArgReturned
	f.tramp.pushEvaluator(arg, feed, flags)
	return BounceContinue, true
}

func (f *Frame) takeLiteral(i int, v *Value) (Bounce, bool) {
	arg := &f.varlist.vars[i]
	*arg = derelativize(v, f.feed.specifier)
	arg.Flags |= FlagUnevaluated
	f.feed.Next()
	return f.typecheckArg(i)
}

func (f *Frame) argReturned() Bounce {
	arg := &f.varlist.vars[f.argIndex]
	if arg.IsStale() {
		*arg = endValue
	}
	if b, failed := f.typecheckArg(f.argIndex); failed {
		return b
	}
	if f.param < len(f.original.paramlist.Params) {
		f.param++
	} else {
		f.pickupAt++
	}
	f.argState = actFulfill
	return f.fulfill()
}

// typecheckArg checks argument i against its parameter. An end of input is
// turned into null for parameters that accept it.
func (f *Frame) typecheckArg(i int) (Bounce, bool) {
	p := &f.original.paramlist.Params[i]
	arg := &f.varlist.vars[i]
	if arg.IsEnd() {
		if !p.Types.AllowsEnd() {
			return f.Fail(newError(ErrNeedNonEnd, "%s is missing its %s argument", f.Label(), p.Symbol)), true
		}
		*arg = nullValue
		return 0, false
	}
	if !p.Types.Check(arg) {
		return f.Fail(newValueError(ErrArgType, arg, "%s does not allow %s for its %s argument", f.Label(), describeType(arg), p.Symbol)), true
	}
	return 0, false
}

// typecheckPhase checks every call-site argument against the parameters
// of the phase about to run, after an earlier phase could have changed
// them.
func (f *Frame) typecheckPhase() (Bounce, bool) {
	params := f.phase.paramlist.Params
	for i := 1; i < len(params); i++ {
		p := &params[i]
		if !p.FromCallSite() {
			continue
		}
		arg := &f.varlist.vars[i]
		if p.Class == ParamRefinement {
			if arg.IsNull() {
				continue
			}
			if !p.TakesArg() {
				if arg.Is(KindLogic) {
					continue
				}
				return f.Fail(newValueError(ErrArgType, arg, "refinement /%s of %s must be logic or null", p.Symbol, f.Label())), true
			}
		}
		if !p.Types.Check(arg) {
			return f.Fail(newValueError(ErrArgType, arg, "%s does not allow %s for its %s argument", f.Label(), describeType(arg), p.Symbol)), true
		}
	}
	return 0, false
}

func describeType(v *Value) string {
	if v.Quotes > 0 {
		return "quoted " + v.Kind.String() + "!"
	}
	return v.Kind.String() + "!"
}

// dispatch runs the phase's dispatcher and interprets what it asks for.
func (f *Frame) dispatch() Bounce {
	for {
		b := f.phase.impl.Dispatcher.Dispatch(f)
		switch b {
		case BounceOut:
			return f.finish()
		case BounceInvisible:
			return BounceOut
		case BounceDelegate:
			f.argState = actDelegated
			return BounceContinue
		case BounceRedoChecked:
			if b, failed := f.typecheckPhase(); failed {
				return b
			}
			fallthrough
		case BounceRedoUnchecked:
			f.state = 0
			f.flags &^= FlagDispatcherCatches | FlagTrap
			f.nativeState = nil
			continue
		default:
			return b
		}
	}
}

// finish settles the output. An action that produced nothing returns void.
func (f *Frame) finish() Bounce {
	if f.out.IsStale() {
		*f.out = voidValue
	}
	return BounceOut
}

// catchDefinitional ends a RETURN or UNWIND aimed at this frame. RETURN
// from a function declared to return nothing obeys the declaration.
func (f *Frame) catchDefinitional() Bounce {
	t := f.tramp
	isReturn := t.labelIs(t.interp.returnAction)
	v := t.CatchThrown()
	if isReturn {
		if d, ok := f.phase.impl.Dispatcher.(*Interpreted); ok {
			switch d.variant {
			case bodyVoider:
				*f.out = voidValue
				return BounceOut
			case bodyElider:
				return BounceOut
			}
		}
	}
	*f.out = v
	return BounceOut
}
