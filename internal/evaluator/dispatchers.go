package evaluator

import (
	"github.com/hostilefork/rebol-sub000/internal/symbols"
)

// bodyVariant selects how an interpreted body's result becomes the
// action's result.
type bodyVariant uint8

const (
	bodyPlain    bodyVariant = iota // body result as-is
	bodyReturner                    // body result checked against RETURN's types
	bodyVoider                      // always void
	bodyElider                      // leaves the caller's output untouched
)

// Interpreted runs a body block relative to the action's paramlist.
// Details[0] is the body.
type Interpreted struct {
	variant bodyVariant
}

func (d *Interpreted) Dispatch(f *Frame) Bounce {
	switch f.state {
	case 0:
		if i := returnSlot(f.phase); i != 0 {
			f.varlist.vars[i] = ActionValue(f.Interpreter().returnAction, f.varlist)
		}
		body := f.phase.impl.Details[0]
		out := f.out
		if d.variant == bodyElider {
			f.spare = voidValue
			out = &f.spare
		}
		f.state = 1
		f.tramp.pushEvaluator(out, newFeed(body.Array, body.Index, f.varlist), FlagToEnd)
		return BounceContinue
	}

	switch d.variant {
	case bodyElider:
		return BounceInvisible
	case bodyVoider:
		*f.out = voidValue
		return BounceOut
	case bodyReturner:
		if f.out.IsStale() {
			*f.out = voidValue
		}
		if types := f.phase.returnTypes(); !f.out.IsVoid() && !types.Check(f.out) {
			return f.Fail(newValueError(ErrReturnType, f.out, "%s cannot return %s", f.Label(), describeType(f.out)))
		}
	}
	return BounceOut
}

func returnSlot(act *Action) int {
	params := act.paramlist.Params
	for i := 1; i < len(params); i++ {
		if params[i].Class == ParamReturn {
			return i
		}
	}
	return 0
}

// NativeFunc implements an action in Go. It is called again with the
// frame's state byte after every continuation it requests.
type NativeFunc func(f *Frame) Bounce

// Native dispatches to a Go function.
type Native struct {
	Fn NativeFunc
}

func (n *Native) Dispatch(f *Frame) Bounce { return n.Fn(f) }

// parseSpec reads a parameter spec block. Words are normal parameters;
// :word, 'word and @word quote; /word is a refinement, taking an argument
// when a typeset block follows it. <local> and <output> switch the class
// of the plain words after them. return: declares the result types, where
// <void> and <invisible> select the body variants of the same name.
func parseSpec(cells []Value, specifier *Context) ([]Param, bodyVariant, *Error) {
	var params []Param
	variant := bodyPlain
	mode := ParamNormal
	last := -1

	for i := range cells {
		v := derelativize(&cells[i], specifier)
		switch {
		case v.Is(KindText):
			continue

		case v.Is(KindTag):
			switch v.Text {
			case "local":
				mode = ParamLocal
			case "output":
				mode = ParamOutput
			default:
				return nil, 0, newValueError(ErrBadFuncSpec, &v, "unknown spec tag <%s>", v.Text)
			}
			last = -1
			continue

		case v.Is(KindBlock):
			if last < 0 {
				return nil, 0, newValueError(ErrBadFuncSpec, &v, "type block without a parameter")
			}
			p := &params[last]
			ts, vr, err := parseTypes(v.Cells(), p.Class == ParamReturn)
			if err != nil {
				return nil, 0, err
			}
			p.Types = ts
			if p.Class == ParamReturn {
				variant = vr
			}
			last = -1
			continue
		}

		p := Param{Symbol: v.Symbol}
		switch {
		case v.Is(KindWord):
			p.Class = mode
		case v.Kind == KindWord && v.Quotes == 1 && mode == ParamNormal:
			p.Class = ParamSoftQuote
		case v.Is(KindGetWord) && mode == ParamNormal:
			p.Class = ParamHardQuote
		case v.Is(KindSymWord) && mode == ParamNormal:
			p.Class = ParamModal
		case v.Is(KindRefinement) && mode == ParamNormal:
			p.Class = ParamRefinement
		case v.Is(KindSetWord) && v.Symbol.ID() == symbols.SymReturn:
			p.Class = ParamReturn
			variant = bodyReturner
		default:
			return nil, 0, newValueError(ErrBadFuncSpec, &v, "%s is not allowed in a function spec", Mold(&v))
		}

		switch p.Class {
		case ParamNormal:
			p.Types = defaultParamTypes
		case ParamHardQuote, ParamSoftQuote, ParamModal:
			p.Types = anyValue
		case ParamOutput, ParamReturn:
			p.Types = anyValue | TypesetOpt
		}

		for j := range params {
			if symbols.SameCanon(params[j].Symbol, p.Symbol) {
				return nil, 0, newValueError(ErrBadFuncSpec, &v, "duplicate parameter %s", p.Symbol)
			}
		}
		params = append(params, p)
		last = len(params) - 1
		if p.Class == ParamLocal {
			last = -1
		}
	}
	return params, variant, nil
}

// parseTypes reads a typeset block. Datatype words are looked up by
// spelling, so specs work before any binding exists.
func parseTypes(cells []Value, forReturn bool) (Typeset, bodyVariant, *Error) {
	var ts Typeset
	variant := bodyReturner
	for i := range cells {
		v := &cells[i]
		switch {
		case v.Is(KindWord):
			t, ok := typeNames[v.Symbol.String()]
			if !ok {
				return 0, 0, newValueError(ErrBadFuncSpec, v, "unknown type %s", v.Symbol)
			}
			ts |= t
		case v.Is(KindTag):
			switch v.Text {
			case "opt":
				ts |= TypesetOpt
			case "end":
				ts |= TypesetEnd
			case "void":
				if !forReturn {
					return 0, 0, newValueError(ErrBadFuncSpec, v, "<void> is only allowed for return")
				}
				variant = bodyVoider
			case "invisible":
				if !forReturn {
					return 0, 0, newValueError(ErrBadFuncSpec, v, "<invisible> is only allowed for return")
				}
				variant = bodyElider
			default:
				return 0, 0, newValueError(ErrBadFuncSpec, v, "unknown type tag <%s>", v.Text)
			}
		default:
			return 0, 0, newValueError(ErrBadFuncSpec, v, "%s is not a type", Mold(v))
		}
	}
	return ts, variant, nil
}

// makeFunc builds an interpreted action. With definitional set the action
// gets a RETURN parameter if its spec did not declare one, and LET in the
// body declares locals.
func makeFunc(tbl *symbols.Table, spec, body *Value, definitional bool) (*Action, *Error) {
	params, variant, err := parseSpec(spec.Cells(), spec.Binding.Context)
	if err != nil {
		return nil, err
	}
	if definitional && variant == bodyPlain {
		params = append(params, Param{Symbol: tbl.Core(symbols.SymReturn), Class: ParamReturn, Types: anyValue | TypesetOpt})
		variant = bodyReturner
	}
	if !definitional && variant != bodyPlain {
		return nil, newValueError(ErrBadFuncSpec, spec, "return: is only allowed in FUNC specs")
	}
	act := newAction(newParamlist(params, nil), &Interpreted{variant: variant}, nil, nil)
	copied := CopyAndBindRelative(tbl, body.Array, body.Index, body.Binding.Context, act, AnyWord, definitional)
	act.impl.Details = []Value{BlockOf(KindBlock, copied)}
	if variant == bodyElider {
		act.flags |= ActionInvisible
	}
	return act, nil
}
