package evaluator

import (
	"github.com/hostilefork/rebol-sub000/internal/symbols"
)

// Evaluator frame states.
const (
	stStart uint8 = iota
	stNewExpression
	stLookahead
	stAfterAction
	stAfterGroup
	stAfterSetRHS
	stAfterSetGroupTarget
	stAfterSetBlock
	stAfterInvisible
)

// evaluatorExecutor evaluates one expression from the feed, or all of them
// with FlagToEnd. The output cell is marked stale at the start of each
// step; a step that ends with it still stale produced nothing, and the
// caller sees the previous value (or void) instead.
func evaluatorExecutor(f *Frame) Bounce {
	if f.tramp.throwing {
		return BounceThrown
	}
	for {
		var b Bounce
		switch f.state {
		case stStart:
			f.out.MarkStale()
			f.flags &^= FlagRanAction
			f.state = stNewExpression
			b = bounceAgain
		case stNewExpression:
			b = f.newExpression()
		case stLookahead:
			b = f.lookahead()
		case stAfterAction:
			b = f.afterAction()
		case stAfterGroup:
			b = f.afterUnit()
		case stAfterSetRHS:
			b = f.afterSetRHS()
		case stAfterSetGroupTarget:
			b = f.afterSetGroupTarget()
		case stAfterSetBlock:
			b = f.afterSetBlock()
		case stAfterInvisible:
			if f.out.IsStale() {
				f.out.ClearStale()
			}
			f.state = stLookahead
			b = bounceAgain
		default:
			panic("evaluator: bad evaluator state")
		}
		if b != bounceAgain {
			return b
		}
	}
}

// stepDone ends the current step. A stale output means the unit was
// invisible, so the same step goes on with the next unit.
func (f *Frame) stepDone() Bounce {
	if !f.out.IsStale() && f.flags&FlagToEnd != 0 {
		f.produced = true
	}
	if f.feed.AtEnd() {
		return f.endOfFeed()
	}
	if f.out.IsStale() {
		f.state = stNewExpression
		return bounceAgain
	}
	if f.flags&FlagToEnd != 0 {
		f.state = stStart
		return bounceAgain
	}
	return BounceOut
}

// endOfFeed finishes the frame. Trailing invisible units leave the value
// of the last visible step in place.
func (f *Frame) endOfFeed() Bounce {
	if f.out.IsStale() && f.produced {
		f.out.ClearStale()
	}
	return BounceOut
}

// afterUnit decides whether a finished unit can take an enfix operator.
func (f *Frame) afterUnit() Bounce {
	if f.out.IsStale() {
		return f.stepDone()
	}
	f.state = stLookahead
	return bounceAgain
}

func (f *Frame) afterAction() Bounce {
	if f.out.IsStale() && f.enfixed {
		f.out.ClearStale()
	}
	f.enfixed = false
	return f.afterUnit()
}

// peekAction resolves a word in the feed without failing: an unresolvable
// word is simply not an operator and will fail when it is evaluated.
func (f *Frame) peekAction(v *Value) (*Value, bool) {
	if v == nil || !v.Is(KindWord) {
		return nil, false
	}
	slot, err := lookupVar(v, f.specifier())
	if err != nil || !slot.Is(KindAction) {
		return nil, false
	}
	return slot, true
}

func (f *Frame) newExpression() Bounce {
	t := f.tramp
	if f.feed.AtEnd() {
		return f.endOfFeed()
	}
	if b, ok := t.checkInterrupt(); !ok {
		return b
	}

	v := f.feed.Current()
	f.current = *v

	// An enfix operator that quotes its left side takes the current unit
	// before it is evaluated. With nothing after the operator there is no
	// call to make, so the unit evaluates normally.
	if slot, ok := f.peekAction(f.feed.Peek(1)); ok && slot.Flags&FlagEnfixed != 0 &&
		slot.Action.Has(ActionQuotesFirst) && f.feed.Peek(2) != nil {
		left := derelativize(v, f.specifier())
		left.Flags |= FlagUnevaluated
		label := f.feed.Peek(1).Symbol
		f.feed.Next()
		f.feed.Next()
		return f.beginAction(slot.Action, slot.Binding.Context, label, &left)
	}

	f.feed.Next()
	return f.workhorse()
}

// workhorse evaluates the unit in f.current.
func (f *Frame) workhorse() Bounce {
	t := f.tramp
	v := &f.current
	spec := f.specifier()

	if v.Quotes > 0 {
		*f.out = derelativize(v, spec).Unquoted()
		f.state = stLookahead
		return bounceAgain
	}

	switch v.Kind {
	case KindVoid, KindNull, KindEnd:
		return f.Fail(newValueError(ErrEvalLiteral, v, "%s cannot be evaluated", v.Kind))

	case KindWord:
		slot, err := lookupVar(v, spec)
		if err != nil {
			return f.Fail(err)
		}
		if slot.Is(KindAction) {
			if slot.Flags&FlagEnfixed != 0 {
				left := endValue
				return f.beginAction(slot.Action, slot.Binding.Context, v.Symbol, &left)
			}
			return f.beginAction(slot.Action, slot.Binding.Context, v.Symbol, nil)
		}
		if slot.IsVoid() {
			return f.Fail(newValueError(ErrNoValue, v, "%s has no value", v.Symbol))
		}
		*f.out = slot.Plain()

	case KindGetWord:
		slot, err := lookupVar(v, spec)
		if err != nil {
			return f.Fail(err)
		}
		if slot.IsVoid() {
			return f.Fail(newValueError(ErrNoValue, v, "%s has no value", v.Symbol))
		}
		*f.out = slot.Plain()

	case KindSetWord, KindSetPath:
		if v.Flags&FlagLetDecl != 0 {
			seedLet(v, spec)
		}
		f.target = derelativize(v, spec)
		return f.pushAssignment()

	case KindSetGroup:
		f.spare = voidValue
		f.state = stAfterSetGroupTarget
		t.pushGroup(&f.spare, newFeed(v.Array, v.Index, specifierOf(v, spec)))
		return BounceContinue

	case KindSetBlock:
		return f.setBlock()

	case KindGroup:
		f.state = stAfterGroup
		t.pushGroup(f.out, newFeed(v.Array, v.Index, specifierOf(v, spec)))
		return BounceContinue

	case KindPath:
		pv := derelativize(v, spec)
		if !pathHeadEvaluates(&pv) {
			*f.out = pv
			break
		}
		res, err := walkPath(&pv)
		if err != nil {
			return f.Fail(err)
		}
		if res.action != nil {
			if res.enfixed {
				return f.Fail(newValueError(ErrEnfixPath, &pv, "enfix action %s cannot be run through a path", Mold(&pv)))
			}
			return f.beginPathAction(res)
		}
		if res.value.IsVoid() {
			return f.Fail(newValueError(ErrNoValue, &pv, "%s has no value", Mold(&pv)))
		}
		*f.out = res.value

	case KindGetPath:
		pv := derelativize(v, spec)
		res, err := walkPath(&pv)
		if err != nil {
			return f.Fail(err)
		}
		if res.action != nil {
			act := res.action
			if len(res.refines) > 0 {
				if act, err = specializeRefinements(act, res.refines); err != nil {
					return f.Fail(err)
				}
			}
			*f.out = ActionValue(act, res.binding)
			break
		}
		if res.value.IsVoid() {
			return f.Fail(newValueError(ErrNoValue, &pv, "%s has no value", Mold(&pv)))
		}
		*f.out = res.value

	case KindAction:
		return f.beginAction(v.Action, v.Binding.Context, nil, nil)

	default:
		*f.out = derelativize(v, spec)
	}

	f.state = stLookahead
	return bounceAgain
}

// specifierOf is the context relative contents of an array value resolve
// against.
func specifierOf(v *Value, spec *Context) *Context {
	if v.Binding.Context != nil {
		return v.Binding.Context
	}
	return spec
}

// beginAction pushes an invocation reading from this frame's feed. With a
// left value the action runs enfix.
func (f *Frame) beginAction(act *Action, binding *Context, label *symbols.Symbol, left *Value) Bounce {
	af := f.tramp.pushAction(f.out, f.feed, act, binding, label)
	if left != nil {
		af.flags |= FlagEnfix
		af.left = *left
		f.enfixed = true
		f.out.MarkStale()
	} else {
		f.flags |= FlagRanAction
	}
	f.state = stAfterAction
	return BounceContinue
}

func (f *Frame) beginPathAction(res pathResult) Bounce {
	b := f.beginAction(res.action, res.binding, res.label, nil)
	if err := f.tramp.top.useRefinements(res.refines); err != nil {
		return f.tramp.top.Fail(err)
	}
	return b
}

// lookahead checks the unit after a finished value for an enfix operator.
func (f *Frame) lookahead() Bounce {
	if f.feed.AtEnd() {
		return f.stepDone()
	}
	next := f.feed.Current()
	slot, ok := f.peekAction(next)
	if !ok {
		return f.stepDone()
	}
	act := slot.Action

	if slot.Flags&FlagEnfixed == 0 {
		// Invisible actions between a value and the end of its step run
		// without disturbing the value.
		if act.Has(ActionInvisible) && f.flags&FlagNoLookahead == 0 {
			f.feed.Next()
			f.out.MarkStale()
			f.tramp.pushAction(f.out, f.feed, act, slot.Binding.Context, next.Symbol)
			f.state = stAfterInvisible
			return BounceContinue
		}
		return f.stepDone()
	}

	if f.flags&FlagNoLookahead != 0 && !act.Has(ActionInvisible) {
		return f.stepDone()
	}
	if act.Has(ActionDefersLookback) && f.flags&FlagFulfillingArg != 0 && f.flags&FlagRanAction == 0 {
		return f.stepDone()
	}
	if act.Has(ActionQuotesFirst) {
		return f.Fail(newValueError(ErrNoLeftQuote, next, "%s quotes its left side, which was already evaluated", next.Symbol))
	}

	f.feed.Next()
	left := f.out.Plain()
	return f.beginAction(act, slot.Binding.Context, next.Symbol, &left)
}

// pushAssignment evaluates the right side of the assignment in f.target.
func (f *Frame) pushAssignment() Bounce {
	if f.feed.AtEnd() {
		return f.Fail(newValueError(ErrNeedNonEnd, &f.target, "%s needs a value", Mold(&f.target)))
	}
	f.state = stAfterSetRHS
	f.tramp.pushEvaluator(f.out, f.feed, f.flags&(FlagFulfillingArg|FlagNoLookahead))
	return BounceContinue
}

func (f *Frame) afterSetRHS() Bounce {
	if f.out.IsStale() {
		return f.Fail(newValueError(ErrNeedNonEnd, &f.target, "%s needs a value", Mold(&f.target)))
	}
	var err *Error
	switch f.target.Kind {
	case KindSetWord:
		if f.out.Is(KindAction) && f.out.Action.name == "" {
			f.out.Action.name = f.target.Symbol.String()
		}
		err = assignVar(&f.target, nil, *f.out)
	case KindSetPath:
		err = setPath(&f.target, *f.out)
	}
	if err != nil {
		return f.Fail(err)
	}
	f.state = stLookahead
	return bounceAgain
}

// afterSetGroupTarget turns the group's product into an assignment target.
func (f *Frame) afterSetGroupTarget() Bounce {
	target := f.spare.Plain()
	switch {
	case target.Is(KindWord), target.Is(KindSetWord), target.Is(KindGetWord):
		target.Kind = KindSetWord
	case target.Is(KindPath), target.Is(KindSetPath), target.Is(KindGetPath):
		target.Kind = KindSetPath
	default:
		return f.Fail(newValueError(ErrSetTargets, &f.current, "%s must produce a word or path, not %s", Mold(&f.current), target.Kind))
	}
	f.target = target
	return f.pushAssignment()
}

// setBlock assigns several results at once. The first target gets the
// main result; the rest go to the output parameters of the action on the
// right, in order.
func (f *Frame) setBlock() Bounce {
	v := &f.current
	spec := f.specifier()
	cells := v.Cells()
	if len(cells) == 0 {
		return f.Fail(newValueError(ErrSetTargets, v, "empty set-block"))
	}
	f.targets = f.targets[:0]
	inner := specifierOf(v, spec)
	for i := range cells {
		c := derelativize(&cells[i], inner)
		switch {
		case c.Is(KindBlank):
		case c.IsWord():
			c.Kind = KindWord
		default:
			return f.Fail(newValueError(ErrSetTargets, &c, "set-block target must be a word or blank, not %s", c.Kind))
		}
		f.targets = append(f.targets, c)
	}
	if f.feed.AtEnd() {
		return f.Fail(newValueError(ErrNeedNonEnd, v, "%s needs a value", Mold(v)))
	}

	next := f.feed.Current()
	var res pathResult
	switch {
	case next.Is(KindWord):
		if slot, ok := f.peekAction(next); ok && slot.Flags&FlagEnfixed == 0 {
			res = pathResult{action: slot.Action, binding: slot.Binding.Context, label: next.Symbol}
		}
	case next.Is(KindPath):
		pv := derelativize(next, spec)
		if pathHeadEvaluates(&pv) {
			if r, err := walkPath(&pv); err == nil && r.action != nil && !r.enfixed {
				res = r
			}
		}
	}

	if res.action == nil {
		if len(f.targets) > 1 {
			return f.Fail(newValueError(ErrSetTargets, v, "%d targets need an action on the right", len(f.targets)))
		}
		f.state = stAfterSetBlock
		f.tramp.pushEvaluator(f.out, f.feed, f.flags&(FlagFulfillingArg|FlagNoLookahead))
		return BounceContinue
	}

	act, err := specializeOutputs(res.action, f.targets[1:])
	if err != nil {
		return f.Fail(newValueError(ErrSetTargets, v, "%s", err.Message))
	}
	f.feed.Next()
	af := f.tramp.pushAction(f.out, f.feed, act, res.binding, res.label)
	f.flags |= FlagRanAction
	f.state = stAfterSetBlock
	if err := af.useRefinements(res.refines); err != nil {
		return af.Fail(err)
	}
	return BounceContinue
}

func (f *Frame) afterSetBlock() Bounce {
	if f.out.IsStale() {
		return f.Fail(newValueError(ErrNeedNonEnd, &f.current, "%s needs a value", Mold(&f.current)))
	}
	if first := &f.targets[0]; first.Is(KindWord) {
		if err := assignVar(first, nil, *f.out); err != nil {
			return f.Fail(err)
		}
	}
	f.state = stLookahead
	return bounceAgain
}
