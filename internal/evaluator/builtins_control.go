package evaluator

import (
	"github.com/hostilefork/rebol-sub000/internal/symbols"
)

func controlNatives() []NativeDef {
	return []NativeDef{
		{Name: "func", Spec: `spec [block!] body [block!]`, Fn: nativeFunc},
		{Name: "->", Spec: `:words [word! block!] body [block!]`, Fn: nativeLambda, Enfix: true},
		{Name: "return", Spec: `value [<end> <opt> any-value!]`, Fn: nativeReturn},
		{Name: "unwind", Spec: `level [action! frame! integer!] value [<end> <opt> any-value!]`, Fn: nativeUnwind},
		{Name: "catch", Spec: `block [block!] /name [word!]`, Fn: nativeCatch},
		{Name: "throw", Spec: `value [<opt> any-value!] /name [word!]`, Fn: nativeThrow},
		{Name: "trap", Spec: `block [block!]`, Fn: nativeTrap},
		{Name: "fail", Spec: `reason [text! error!]`, Fn: nativeFail},
		{Name: "do", Spec: `source [<opt> block! group! action! frame!]`, Fn: nativeDo},
		{Name: "if", Spec: `condition [<opt> any-value!] branch [block! action! quoted! group!]`, Fn: nativeIf},
		{Name: "either", Spec: `condition [<opt> any-value!] true-branch [block! action! quoted! group!] false-branch [block! action! quoted! group!]`, Fn: nativeEither},
		{Name: "then", Spec: `optional [<opt> any-value!] branch [block! action! quoted! group!]`, Fn: nativeThen, Flags: ActionDefersLookback, Enfix: true},
		{Name: "else", Spec: `optional [<opt> any-value!] branch [block! action! quoted! group!]`, Fn: nativeElse, Flags: ActionDefersLookback, Enfix: true},
		{Name: "all", Spec: `block [block!]`, Fn: nativeAll},
		{Name: "any", Spec: `block [block!]`, Fn: nativeAny},
		{Name: "while", Spec: `condition [block!] body [block!]`, Fn: nativeWhile},
		{Name: "for-each", Spec: `:vars [word! block! quoted!] data [<opt> block! group!] body [block!]`, Fn: nativeForEach},
		{Name: "break", Spec: ``, Fn: nativeBreak},
		{Name: "continue", Spec: ``, Fn: nativeContinue},
		{Name: "halt", Spec: ``, Fn: nativeHalt},
		{Name: "default", Spec: `:target [set-word! set-path!] branch [block! action! quoted! group!]`, Fn: nativeDefault, Enfix: true},
	}
}

func nativeFunc(f *Frame) Bounce {
	act, err := makeFunc(f.Interpreter().table, f.Arg(1), f.Arg(2), true)
	if err != nil {
		return f.Fail(err)
	}
	return f.Return(ActionValue(act, nil))
}

// nativeLambda builds an action from x -> [...] or [x y] -> [...]. The
// body has no RETURN and no LET gathering.
func nativeLambda(f *Frame) Bounce {
	words := f.Arg(1)
	spec := *words
	if spec.Is(KindWord) {
		spec = BlockOf(KindBlock, NewArray([]Value{words.Plain()}))
	}
	act, err := makeFunc(f.Interpreter().table, &spec, f.Arg(2), false)
	if err != nil {
		return f.Fail(err)
	}
	return f.Return(ActionValue(act, nil))
}

// nativeReturn throws to the function whose frame this RETURN is bound to.
// The value is checked against that function's return types here, so the
// failure points at the RETURN. A RETURN with no running function behind
// it still throws, and nothing catches it.
func nativeReturn(f *Frame) Bounce {
	in := f.Interpreter()
	ctx := f.binding
	if ctx == nil || ctx.owner != OwnerLiveFrame || ctx.frame == nil {
		return f.tramp.InitThrownWithLabel(*f.Arg(1), ActionValue(in.returnAction, ctx))
	}
	v := *f.Arg(1)
	if d, ok := ctx.frame.phase.impl.Dispatcher.(*Interpreted); ok && d.variant == bodyReturner {
		if types := ctx.frame.phase.returnTypes(); !types.Check(&v) {
			return f.Fail(newValueError(ErrReturnType, &v, "%s cannot return %s", ctx.frame.Label(), describeType(&v)))
		}
	}
	return f.tramp.InitThrownWithLabel(v, ActionValue(in.returnAction, ctx))
}

func nativeUnwind(f *Frame) Bounce {
	target, err := f.tramp.findUnwindTarget(f, f.Arg(1))
	if err != nil {
		return f.Fail(err)
	}
	return f.tramp.InitThrownWithLabel(*f.Arg(2), ActionValue(f.Interpreter().unwindAction, target))
}

// nativeCatch evaluates its block and catches throws whose label matches
// /name, or unnamed throws when /name is not used.
func nativeCatch(f *Frame) Bounce {
	t := f.tramp
	switch f.state {
	case 0:
		f.flags |= FlagDispatcherCatches
		f.state = 1
		t.pushEvaluator(f.out, feedFor(f.Arg(1)), FlagToEnd)
		return BounceContinue
	}
	if !t.throwing {
		return BounceOut
	}
	name := f.Arg(2)
	label := t.ThrownLabel()
	var match bool
	if name.IsNull() {
		match = label.Is(KindBlank)
	} else {
		match = label.Is(KindWord) && symbols.SameCanon(label.Symbol, name.Symbol)
	}
	if !match {
		return BounceThrown
	}
	return f.Return(t.CatchThrown())
}

func nativeThrow(f *Frame) Bounce {
	label := blankValue
	if name := f.Arg(2); !name.IsNull() {
		label = Word(KindWord, name.Symbol)
	}
	return f.tramp.InitThrownWithLabel(*f.Arg(1), label)
}

// nativeTrap evaluates its block and returns the ERROR! of a failure raised
// inside it, or null when there was none.
func nativeTrap(f *Frame) Bounce {
	t := f.tramp
	switch f.state {
	case 0:
		f.flags |= FlagTrap
		f.state = 1
		f.spare = voidValue
		t.pushEvaluator(&f.spare, feedFor(f.Arg(1)), FlagToEnd)
		return BounceContinue
	}
	f.flags &^= FlagTrap
	if err := t.failure; err != nil {
		t.failure = nil
		return f.Return(ErrorValue(err))
	}
	return f.Return(nullValue)
}

func nativeFail(f *Frame) Bounce {
	reason := f.Arg(1)
	if reason.Is(KindError) {
		e := *reason.Error
		e.StackTrace = nil
		return f.Fail(&e)
	}
	return f.Fail(newError(ErrUser, "%s", reason.Text))
}

// nativeDo runs a block or group to its end, a FRAME! as an invocation of
// its action, or an action with no arguments.
func nativeDo(f *Frame) Bounce {
	t := f.tramp
	src := f.Arg(1)
	switch src.Kind {
	case KindNull:
		return f.Return(nullValue)
	case KindBlock, KindGroup:
		t.pushEvaluator(f.out, feedFor(src), FlagToEnd)
	case KindFrame:
		if _, err := t.pushActionFrame(f.out, src.Context, src.Binding.Context, nil); err != nil {
			return f.Fail(err)
		}
	case KindAction:
		t.pushActionArgs(f.out, src.Action, src.Binding.Context, nil, nil)
	}
	return BounceDelegate
}

func nativeIf(f *Frame) Bounce {
	cond := f.Arg(1)
	if !cond.IsTruthy() {
		return f.Return(nullValue)
	}
	f.tramp.pushBranch(f.out, *f.Arg(2), cond)
	return BounceDelegate
}

func nativeEither(f *Frame) Bounce {
	cond := f.Arg(1)
	branch := f.Arg(3)
	if cond.IsTruthy() {
		branch = f.Arg(2)
	}
	f.tramp.pushBranch(f.out, *branch, cond)
	return BounceDelegate
}

func nativeThen(f *Frame) Bounce {
	opt := f.Arg(1)
	if opt.IsNull() {
		return f.Return(nullValue)
	}
	f.tramp.pushBranch(f.out, *f.Arg(2), opt)
	return BounceDelegate
}

func nativeElse(f *Frame) Bounce {
	opt := f.Arg(1)
	if !opt.IsNull() {
		return f.Return(*opt)
	}
	f.tramp.pushBranch(f.out, *f.Arg(2), nil)
	return BounceDelegate
}

// nativeAll returns the last value if every expression is truthy, else
// null. Invisible expressions are not counted.
func nativeAll(f *Frame) Bounce {
	return conditionalWalk(f, true)
}

// nativeAny returns the first truthy value, or null.
func nativeAny(f *Frame) Bounce {
	return conditionalWalk(f, false)
}

func conditionalWalk(f *Frame, all bool) Bounce {
	switch f.state {
	case 0:
		f.nativeState = &stepper{feed: feedFor(f.Arg(1))}
		*f.out = voidValue
		if !all {
			*f.out = nullValue
		}
		f.state = 1
	default:
		if !f.spare.IsStale() {
			if f.spare.IsVoid() {
				return f.Fail(newError(ErrVoidCond, "%s found a void expression", f.Label()))
			}
			truthy := f.spare.IsTruthy()
			switch {
			case all && !truthy:
				return f.Return(nullValue)
			case all:
				*f.out = f.spare.Plain()
			case truthy:
				return f.Return(f.spare)
			}
		}
	}
	if !f.stepNext(f.nativeState.(*stepper)) {
		return BounceOut
	}
	f.spare.MarkStale()
	return BounceContinue
}

// loopThrow handles a throw arriving at a loop. BREAK ends the loop with
// null and CONTINUE resumes it; anything else keeps unwinding.
func (f *Frame) loopThrow() (Bounce, bool) {
	t := f.tramp
	in := t.interp
	switch {
	case t.labelIs(in.breakAction):
		t.CatchThrown()
		return f.Return(nullValue), false
	case t.labelIs(in.continueAction):
		t.CatchThrown()
		return 0, true
	}
	return BounceThrown, false
}

const (
	whileCondition uint8 = iota + 1
	whileBody
)

func nativeWhile(f *Frame) Bounce {
	t := f.tramp
	switch f.state {
	case 0:
		f.flags |= FlagDispatcherCatches
		*f.out = nullValue

	case whileCondition:
		if t.throwing {
			if b, resume := f.loopThrow(); !resume {
				return b
			}
			break
		}
		if f.spare.IsStale() || f.spare.IsVoid() {
			return f.Fail(newError(ErrVoidCond, "while condition produced no value"))
		}
		if !f.spare.IsTruthy() {
			return BounceOut
		}
		f.state = whileBody
		t.pushEvaluator(f.out, feedFor(f.Arg(2)), FlagToEnd)
		return BounceContinue

	case whileBody:
		if t.throwing {
			if b, resume := f.loopThrow(); !resume {
				return b
			}
		}
		if f.out.IsStale() {
			*f.out = voidValue
		}
	}

	f.state = whileCondition
	f.spare = voidValue
	t.pushEvaluator(&f.spare, feedFor(f.Arg(1)), FlagToEnd)
	return BounceContinue
}

type forEachState struct {
	vars     *Context
	body     Value
	data     []Value
	dataSpec *Context
	pos      int
}

// nativeForEach runs body once per group of items in data, with the loop
// variables bound to a fresh context. Quoted variable words write through
// their existing binding instead.
func nativeForEach(f *Frame) Bounce {
	t := f.tramp
	switch f.state {
	case 0:
		data := f.Arg(2)
		if data.IsNull() {
			return f.Return(nullValue)
		}
		body := f.Arg(3)
		vars, copied, err := VirtualBindNewContext(f.Interpreter().table, body.Array, body.Index, body.Binding.Context, *f.Arg(1))
		if err != nil {
			return f.Fail(err)
		}
		st := &forEachState{vars: vars, data: data.Cells(), dataSpec: data.Binding.Context}
		if copied == body.Array {
			st.body = *body
		} else {
			st.body = BlockOf(KindBlock, copied)
		}
		f.nativeState = st
		f.flags |= FlagDispatcherCatches
		*f.out = nullValue

	default:
		if t.throwing {
			if b, resume := f.loopThrow(); !resume {
				return b
			}
		}
		if f.out.IsStale() {
			*f.out = voidValue
		}
	}

	st := f.nativeState.(*forEachState)
	if st.pos >= len(st.data) {
		return BounceOut
	}
	for i := 1; i < len(st.vars.keys); i++ {
		v := nullValue
		if st.pos < len(st.data) {
			v = derelativize(&st.data[st.pos], st.dataSpec)
		}
		st.pos++
		if st.vars.keys[i].Hidden {
			word := st.vars.vars[i]
			if err := assignVar(&word, nil, v); err != nil {
				return f.Fail(err)
			}
			continue
		}
		st.vars.vars[i] = v.Plain()
	}
	f.state = 1
	t.pushEvaluator(f.out, feedFor(&st.body), FlagToEnd)
	return BounceContinue
}

func nativeBreak(f *Frame) Bounce {
	return f.tramp.InitThrownWithLabel(nullValue, ActionValue(f.Interpreter().breakAction, nil))
}

func nativeContinue(f *Frame) Bounce {
	return f.tramp.InitThrownWithLabel(nullValue, ActionValue(f.Interpreter().continueAction, nil))
}

func nativeHalt(f *Frame) Bounce {
	return f.tramp.haltThrow()
}

// nativeDefault assigns the branch's result to its left side when the
// variable there holds null, blank or void. x: default [10]
func nativeDefault(f *Frame) Bounce {
	target := f.Arg(1)
	switch f.state {
	case 0:
		var cur Value
		switch target.Kind {
		case KindSetWord:
			slot, err := lookupVar(target, nil)
			if err != nil {
				return f.Fail(err)
			}
			cur = *slot
		default:
			get := *target
			get.Kind = KindPath
			res, err := walkPath(&get)
			if err != nil {
				return f.Fail(err)
			}
			cur = res.value
			if res.action != nil {
				cur = ActionValue(res.action, res.binding)
			}
		}
		if !cur.IsVoid() && !cur.IsNull() && !cur.Is(KindBlank) {
			return f.Return(cur)
		}
		f.state = 1
		f.tramp.pushBranch(f.out, *f.Arg(2), nil)
		return BounceContinue
	}

	var err *Error
	if target.Kind == KindSetWord {
		err = assignVar(target, nil, *f.out)
	} else {
		err = setPath(target, *f.out)
	}
	if err != nil {
		return f.Fail(err)
	}
	return BounceOut
}
