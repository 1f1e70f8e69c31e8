package evaluator

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

func stdNatives() []NativeDef {
	return []NativeDef{
		{Name: "quote", Spec: `value [<opt> any-value!] /depth [integer!]`, Fn: nativeQuote},
		{Name: "the", Spec: `:value [any-value!]`, Fn: nativeThe},
		{Name: "get", Spec: `source [any-word! any-path!] /any`, Fn: nativeGet},
		{Name: "set", Spec: `target [any-word! any-path! block!] value [<opt> any-value!]`, Fn: nativeSet},
		{Name: "reduce", Spec: `block [block! group!]`, Fn: nativeReduce},
		{Name: "print", Spec: `line [<opt> any-value!]`, Fn: nativePrint},
		{Name: "probe", Spec: `value [<opt> any-value!]`, Fn: nativeProbe},
		{Name: "mold", Spec: `value [<opt> any-value!]`, Fn: nativeMold},
		{Name: "form", Spec: `value [<opt> any-value!]`, Fn: nativeForm},
		{Name: "comment", Spec: `:discarded [any-value!]`, Fn: nativeVanish, Flags: ActionInvisible},
		{Name: "elide", Spec: `discarded [<opt> any-value!]`, Fn: nativeVanish, Flags: ActionInvisible},

		{Name: "add", Spec: `value1 [integer!] value2 [integer!]`, Fn: nativeAdd, Infix: []string{"+"}},
		{Name: "subtract", Spec: `value1 [integer!] value2 [integer!]`, Fn: nativeSubtract, Infix: []string{"-"}},
		{Name: "multiply", Spec: `value1 [integer!] value2 [integer!]`, Fn: nativeMultiply, Infix: []string{"*"}},
		{Name: "divide", Spec: `value1 [integer!] value2 [integer!] <output> remainder`, Fn: nativeDivide},
		{Name: "equal?", Spec: `value1 [<opt> any-value!] value2 [<opt> any-value!]`, Fn: nativeEqual, Infix: []string{"="}},
		{Name: "lesser?", Spec: `value1 [integer! text!] value2 [integer! text!]`, Fn: nativeLesser, Infix: []string{"<"}},
		{Name: "greater?", Spec: `value1 [integer! text!] value2 [integer! text!]`, Fn: nativeGreater, Infix: []string{">"}},
		{Name: "not", Spec: `value [<opt> any-value!]`, Fn: nativeNot},
		{Name: "integer?", Spec: `value [<opt> any-value!]`, Fn: nativeIntegerQ},
		{Name: "type-of", Spec: `value [<opt> any-value!]`, Fn: nativeTypeOf},

		{Name: "copy", Spec: `value [any-value!] /deep`, Fn: nativeCopy},
		{Name: "make", Spec: `type [datatype! object!] def [<opt> any-value!]`, Fn: nativeMake},
		{Name: "append", Spec: `series [block! group!] value [<opt> any-value!] /only`, Fn: nativeAppend},
		{Name: "length-of", Spec: `series [<opt> any-series!]`, Fn: nativeLengthOf},
		{Name: "bind", Spec: `value [block! any-word!] target [any-context! any-word!]`, Fn: nativeBind},
		{Name: "unbind", Spec: `value [block! any-word!] /deep /from [any-context!]`, Fn: nativeUnbind},
		{Name: "let", Spec: `:word [word! set-word! block!]`, Fn: nativeLet},

		{Name: "adapt", Spec: `adaptee [action!] prelude [block!]`, Fn: nativeAdapt},
		{Name: "enclose", Spec: `inner [action!] outer [action!]`, Fn: nativeEnclose},
		{Name: "specialize", Spec: `specializee [action!] def [block!]`, Fn: nativeSpecialize},
		{Name: "hijack", Spec: `victim [action!] hijacker [action!]`, Fn: nativeHijack},
	}
}

func nativeQuote(f *Frame) Bounce {
	n := int64(1)
	if depth := f.Arg(2); !depth.IsNull() {
		n = depth.Int
	}
	if n < 0 {
		return f.Fail(newValueError(ErrArgType, f.Arg(2), "quote depth cannot be negative"))
	}
	return f.Return(f.Arg(1).Quoted(int(n)))
}

func nativeThe(f *Frame) Bounce { return f.Return(*f.Arg(1)) }

func nativeGet(f *Frame) Bounce {
	src := f.Arg(1)
	if AnyPath.Has(src.Kind) {
		pv := *src
		pv.Kind = KindPath
		res, err := walkPath(&pv)
		if err != nil {
			return f.Fail(err)
		}
		if res.action != nil {
			return f.Return(ActionValue(res.action, res.binding))
		}
		return f.Return(res.value)
	}
	slot, err := lookupVar(src, nil)
	if err != nil {
		return f.Fail(err)
	}
	if slot.IsVoid() && f.Arg(2).IsNull() {
		return f.Fail(newValueError(ErrNoValue, src, "%s has no value", src.Symbol))
	}
	return f.Return(*slot)
}

func nativeSet(f *Frame) Bounce {
	target := f.Arg(1)
	v := *f.Arg(2)
	switch {
	case target.Is(KindBlock):
		cells := target.Cells()
		for i := range cells {
			item := v
			if v.Is(KindBlock) {
				item = nullValue
				if src := v.Cells(); i < len(src) {
					item = derelativize(&src[i], v.Binding.Context)
				}
			}
			w := derelativize(&cells[i], target.Binding.Context)
			if !w.IsWord() {
				return f.Fail(newValueError(ErrSetTargets, &w, "cannot set %s", w.Kind))
			}
			if err := assignVar(&w, nil, item); err != nil {
				return f.Fail(err)
			}
		}
	case AnyPath.Has(target.Kind):
		if err := setPath(target, v); err != nil {
			return f.Fail(err)
		}
	default:
		if err := assignVar(target, nil, v); err != nil {
			return f.Fail(err)
		}
	}
	return f.Return(v)
}

// reduceStep collects the spare cell from the last step and starts the
// next one. It reports true once the block is exhausted.
func reduceStep(f *Frame) (Bounce, bool) {
	st := f.nativeState.(*stepper)
	if f.state != 0 && !f.spare.IsStale() {
		switch {
		case f.spare.IsNull():
			return f.Fail(newError(ErrNoValue, "reduce cannot include null")), false
		case !f.spare.IsVoid():
			st.items = append(st.items, f.spare.Plain())
		}
	}
	f.state = 1
	if !f.stepNext(st) {
		return 0, true
	}
	f.spare.MarkStale()
	return BounceContinue, false
}

func nativeReduce(f *Frame) Bounce {
	if f.state == 0 {
		f.nativeState = &stepper{feed: feedFor(f.Arg(1))}
	}
	b, done := reduceStep(f)
	if !done {
		return b
	}
	st := f.nativeState.(*stepper)
	return f.Return(BlockOf(KindBlock, NewArray(st.items)))
}

// nativePrint writes a line to the interpreter's output. A block is
// reduced first and its values are spaced.
func nativePrint(f *Frame) Bounce {
	line := f.Arg(1)
	var text string
	switch {
	case line.IsNull():
		return f.Return(voidValue)
	case line.Is(KindBlock):
		if f.state == 0 {
			f.nativeState = &stepper{feed: feedFor(line)}
		}
		b, done := reduceStep(f)
		if !done {
			return b
		}
		items := f.nativeState.(*stepper).items
		parts := make([]string, len(items))
		for i := range items {
			parts[i] = Form(&items[i])
		}
		text = strings.Join(parts, " ")
	default:
		text = Form(line)
	}
	if _, err := fmt.Fprintln(f.Interpreter().out, text); err != nil {
		return f.Fail(newError(ErrUser, "print: %v", err))
	}
	return f.Return(voidValue)
}

func nativeProbe(f *Frame) Bounce {
	v := f.Arg(1)
	if _, err := fmt.Fprintln(f.Interpreter().out, Mold(v)); err != nil {
		return f.Fail(newError(ErrUser, "probe: %v", err))
	}
	return f.Return(*v)
}

func nativeMold(f *Frame) Bounce { return f.Return(Text(Mold(f.Arg(1)))) }

func nativeForm(f *Frame) Bounce { return f.Return(Text(Form(f.Arg(1)))) }

func nativeVanish(f *Frame) Bounce { return BounceInvisible }

func integerArgs(f *Frame) (int64, int64) { return f.Arg(1).Int, f.Arg(2).Int }

func nativeAdd(f *Frame) Bounce {
	a, b := integerArgs(f)
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return f.Fail(newError(ErrOverflow, "%d + %d overflows", a, b))
	}
	return f.Return(Integer(a + b))
}

func nativeSubtract(f *Frame) Bounce {
	a, b := integerArgs(f)
	if (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b) {
		return f.Fail(newError(ErrOverflow, "%d - %d overflows", a, b))
	}
	return f.Return(Integer(a - b))
}

func nativeMultiply(f *Frame) Bounce {
	a, b := integerArgs(f)
	c := a * b
	if a != 0 && (c/a != b || (a == -1 && b == math.MinInt64)) {
		return f.Fail(newError(ErrOverflow, "%d * %d overflows", a, b))
	}
	return f.Return(Integer(c))
}

// nativeDivide truncates toward zero. The remainder goes to the output
// parameter when a SET-BLOCK names a target for it.
func nativeDivide(f *Frame) Bounce {
	a, b := integerArgs(f)
	if b == 0 {
		return f.Fail(newError(ErrZeroDivide, "attempt to divide %d by zero", a))
	}
	if a == math.MinInt64 && b == -1 {
		return f.Fail(newError(ErrOverflow, "%d / %d overflows", a, b))
	}
	if err := f.setOutput(3, Integer(a%b)); err != nil {
		return f.Fail(err)
	}
	return f.Return(Integer(a / b))
}

// setOutput writes v through output parameter i when it names a variable.
func (f *Frame) setOutput(i int, v Value) *Error {
	target := f.Arg(i)
	if !target.IsWord() {
		return nil
	}
	return assignVar(target, nil, v)
}

func nativeEqual(f *Frame) Bounce {
	return f.Return(Logic(ValuesEqual(f.Arg(1), f.Arg(2))))
}

func compareArgs(f *Frame) (int, *Error) {
	a, b := f.Arg(1), f.Arg(2)
	if a.Kind != b.Kind {
		return 0, newValueError(ErrArgType, b, "cannot compare %s with %s", describeType(a), describeType(b))
	}
	if a.Kind == KindText {
		return strings.Compare(foldText(a.Text), foldText(b.Text)), nil
	}
	switch {
	case a.Int < b.Int:
		return -1, nil
	case a.Int > b.Int:
		return 1, nil
	}
	return 0, nil
}

func nativeLesser(f *Frame) Bounce {
	c, err := compareArgs(f)
	if err != nil {
		return f.Fail(err)
	}
	return f.Return(Logic(c < 0))
}

func nativeGreater(f *Frame) Bounce {
	c, err := compareArgs(f)
	if err != nil {
		return f.Fail(err)
	}
	return f.Return(Logic(c > 0))
}

func nativeNot(f *Frame) Bounce { return f.Return(Logic(!f.Arg(1).IsTruthy())) }

func nativeIntegerQ(f *Frame) Bounce { return f.Return(Logic(f.Arg(1).Is(KindInteger))) }

func nativeTypeOf(f *Frame) Bounce {
	v := f.Arg(1)
	if v.IsNull() {
		return f.Return(nullValue)
	}
	return f.Return(Datatype(v.Type()))
}

// nativeCopy copies series and contexts. Copying a FRAME! is how a frame
// that already ran, or is running, can be run again.
func nativeCopy(f *Frame) Bounce {
	v := *f.Arg(1)
	deep := !f.Arg(2).IsNull()
	switch {
	case v.Quotes > 0:
	case AnyArray.Has(v.Kind):
		if deep {
			v.Array = copyArrayDeep(v.Array, v.Index, v.Binding.Context)
		} else {
			v.Array = copyArrayShallow(v.Array, v.Index, v.Binding.Context)
		}
		v.Index = 0
		v.Binding = Binding{}
	case AnyContext.Has(v.Kind):
		if v.Kind == KindFrame && v.Context.owner == OwnerExpired {
			return f.Fail(newValueError(ErrExpiredContext, &v, "cannot copy a frame whose storage is gone"))
		}
		cp, err := copyContext(v.Context)
		if err != nil {
			return f.Fail(err)
		}
		v.Context = cp
	case v.Kind == KindAction:
		v.Action = copyAction(v.Action)
	}
	return f.Return(v)
}

// nativeMake builds objects from a spec block, derived objects from a
// parent object and a block, and FRAME!s from an action.
func nativeMake(f *Frame) Bounce {
	if f.state == 1 {
		return f.Return(ContextValue(f.nativeState.(*Context)))
	}

	typ := f.Arg(1)
	def := f.Arg(2)
	switch {
	case typ.Is(KindDatatype) && Kind(typ.Int) == KindFrame && def.Is(KindAction):
		return f.Return(ContextValue(newExemplar(def.Action)))

	case typ.Is(KindDatatype) && Kind(typ.Int) == KindObject && def.Is(KindBlock):
		return f.pushObjectBody(NewContext(KindObject, 8), def)

	case typ.Is(KindObject) && def.Is(KindBlock):
		ctx, err := copyContext(typ.Context)
		if err != nil {
			return f.Fail(err)
		}
		return f.pushObjectBody(ctx, def)
	}
	return f.Fail(newValueError(ErrBadMake, def, "cannot make %s from %s", Mold(typ), describeType(def)))
}

// pushObjectBody adds a field to ctx for every top-level SET-WORD of def,
// binds a copy of def to ctx, and evaluates it.
func (f *Frame) pushObjectBody(ctx *Context, def *Value) Bounce {
	body := copyArrayDeep(def.Array, def.Index, def.Binding.Context)
	for i := range body.Cells {
		if c := &body.Cells[i]; c.Is(KindSetWord) && ctx.Find(c.Symbol) == 0 {
			ctx.Append(c.Symbol)
		}
	}
	Bind(f.Interpreter().table, body.Cells, ctx, AnyWord, 0, true)
	f.nativeState = ctx
	f.state = 1
	f.spare = voidValue
	f.tramp.pushEvaluator(&f.spare, newFeed(body, 0, nil), FlagToEnd)
	return BounceContinue
}

func nativeAppend(f *Frame) Bounce {
	series := f.Arg(1)
	v := f.Arg(2)
	if v.IsNull() {
		return f.Return(*series)
	}
	a := series.Array
	if v.Is(KindBlock) && f.Arg(3).IsNull() {
		for _, c := range v.Cells() {
			a.Cells = append(a.Cells, derelativize(&c, v.Binding.Context))
		}
	} else {
		a.Cells = append(a.Cells, v.Plain())
	}
	return f.Return(*series)
}

func nativeLengthOf(f *Frame) Bounce {
	v := f.Arg(1)
	switch {
	case v.IsNull():
		return f.Return(nullValue)
	case v.IsArray():
		return f.Return(Integer(int64(len(v.Cells()))))
	}
	return f.Return(Integer(int64(utf8.RuneCountInString(v.Text))))
}

func nativeBind(f *Frame) Bounce {
	v := *f.Arg(1)
	target := f.Arg(2)
	ctx := target.Context
	if target.IsWord() {
		ctx = target.Binding.Context
		if ctx == nil {
			return f.Fail(newValueError(ErrNotBound, target, "%s is not bound to a context", target.Symbol))
		}
	}
	if v.IsWord() {
		i := ctx.Find(v.Symbol)
		if i == 0 {
			return f.Fail(newValueError(ErrNotBound, &v, "%s is not in the target context", v.Symbol))
		}
		v.Binding = Binding{Context: ctx, Index: i}
		return f.Return(v)
	}
	Bind(f.Interpreter().table, v.Cells(), ctx, AnyWord, 0, true)
	return f.Return(v)
}

// nativeUnbind clears bindings, or with /from only those into one context.
func nativeUnbind(f *Frame) Bounce {
	v := *f.Arg(1)
	var ctx *Context
	if from := f.Arg(3); !from.IsNull() {
		ctx = from.Context
	}
	if v.IsWord() {
		if ctx == nil || v.Binding.Context == ctx {
			v.Binding = Binding{}
		}
		return f.Return(v)
	}
	Unbind(v.Cells(), ctx, !f.Arg(2).IsNull())
	return f.Return(v)
}

// nativeLet only runs when LET was not gathered as a local of an
// enclosing FUNC body.
func nativeLet(f *Frame) Bounce {
	return f.Fail(newValueError(ErrLetOutside, f.Arg(1), "let is only available in the body of a func"))
}

func nativeAdapt(f *Frame) Bounce {
	return f.Return(ActionValue(Adapt(f.Interpreter().table, f.Arg(1).Action, f.Arg(2)), nil))
}

func nativeEnclose(f *Frame) Bounce {
	return f.Return(ActionValue(Enclose(f.Arg(1).Action, f.Arg(2).Action), nil))
}

// nativeSpecialize evaluates def with its words bound into a new FRAME!
// of the specializee, then fixes whatever def assigned.
func nativeSpecialize(f *Frame) Bounce {
	act := f.Arg(1).Action
	switch f.state {
	case 0:
		ex := newExemplar(act)
		def := f.Arg(2)
		body := copyArrayDeep(def.Array, def.Index, def.Binding.Context)
		Bind(f.Interpreter().table, body.Cells, ex, AnyWord, 0, true)
		f.nativeState = ex
		f.state = 1
		f.spare = voidValue
		f.tramp.pushEvaluator(&f.spare, newFeed(body, 0, nil), FlagToEnd)
		return BounceContinue
	}
	spec, err := Specialize(act, f.nativeState.(*Context))
	if err != nil {
		return f.Fail(err)
	}
	return f.Return(ActionValue(spec, nil))
}

func nativeHijack(f *Frame) Bounce {
	original, err := Hijack(f.Arg(1).Action, f.Arg(2).Action)
	if err != nil {
		return f.Fail(err)
	}
	return f.Return(ActionValue(original, nil))
}
