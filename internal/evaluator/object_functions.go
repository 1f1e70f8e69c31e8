package evaluator

import (
	"github.com/hostilefork/rebol-sub000/internal/symbols"
)

// ParamClass selects how an argument is gathered from the call site.
type ParamClass uint8

const (
	ParamNormal     ParamClass = iota // evaluate one expression
	ParamHardQuote                    // :x takes the next unit as-is
	ParamSoftQuote                    // 'x like hard, but GROUP/GET-WORD/GET-PATH evaluate
	ParamModal                        // @x literal unless the unit is a SYM-WORD
	ParamRefinement                   // /x optional, with or without an argument
	ParamLocal                        // never filled from the call site
	ParamReturn                       // holds the definitional RETURN
	ParamOutput                       // extra result target for SET-BLOCK
)

func (c ParamClass) String() string {
	switch c {
	case ParamNormal:
		return "normal"
	case ParamHardQuote:
		return "hard-quote"
	case ParamSoftQuote:
		return "soft-quote"
	case ParamModal:
		return "modal"
	case ParamRefinement:
		return "refinement"
	case ParamLocal:
		return "local"
	case ParamReturn:
		return "return"
	case ParamOutput:
		return "output"
	}
	return "param?"
}

// Param is one formal parameter.
type Param struct {
	Symbol *symbols.Symbol
	Class  ParamClass
	Types  Typeset

	// Shadows is what a LET local's name referred to before the
	// declaration. Zero when nothing was shadowed.
	Shadows Binding
}

// FromCallSite reports whether the parameter is ever filled by the caller.
func (p *Param) FromCallSite() bool {
	switch p.Class {
	case ParamLocal, ParamReturn, ParamOutput:
		return false
	}
	return true
}

// TakesArg reports whether a refinement consumes an argument when used.
func (p *Param) TakesArg() bool {
	return p.Class != ParamRefinement || !p.Types.Empty()
}

// Paramlist is the parameter shape of an action and the keylist of its
// frames. Slot 0 is unused. Derived actions get their own paramlist with
// the same layout and an Ancestor link to the one they came from.
type Paramlist struct {
	Params   []Param
	Ancestor *Paramlist

	keyCache []Key
}

func newParamlist(params []Param, ancestor *Paramlist) *Paramlist {
	pl := &Paramlist{Params: make([]Param, 1, len(params)+1), Ancestor: ancestor}
	pl.Params = append(pl.Params, params...)
	return pl
}

// derive copies the shape for a derived action.
func (pl *Paramlist) derive() *Paramlist {
	return &Paramlist{Params: append([]Param(nil), pl.Params...), Ancestor: pl}
}

// Len is the number of parameters.
func (pl *Paramlist) Len() int { return len(pl.Params) - 1 }

// Find returns the index of a parameter, or 0.
func (pl *Paramlist) Find(sym *symbols.Symbol) int {
	canon := sym.Canon()
	for i := len(pl.Params) - 1; i >= 1; i-- {
		if pl.Params[i].Symbol.Canon() == canon {
			return i
		}
	}
	return 0
}

func (pl *Paramlist) add(p Param) int {
	pl.Params = append(pl.Params, p)
	pl.keyCache = nil
	return len(pl.Params) - 1
}

func (pl *Paramlist) keys() []Key {
	if len(pl.keyCache) != len(pl.Params) {
		keys := make([]Key, len(pl.Params))
		for i := 1; i < len(pl.Params); i++ {
			keys[i] = Key{Symbol: pl.Params[i].Symbol}
		}
		pl.keyCache = keys
	}
	return pl.keyCache
}

func (pl *Paramlist) root() *Paramlist {
	for pl.Ancestor != nil {
		pl = pl.Ancestor
	}
	return pl
}

// CompatibleFrame reports whether a frame laid out for shape can run the
// phase whose body is relative to phase. Derivations keep the layout of
// what they derive from, so the check is a shared ancestry root.
func CompatibleFrame(shape, phase *Paramlist) bool {
	if shape == phase {
		return true
	}
	return shape.root() == phase.root() && len(shape.Params) == len(phase.Params)
}

// Dispatcher runs an action against a fulfilled frame. It is re-entered
// with the frame's state byte after each continuation it requests.
type Dispatcher interface {
	Dispatch(f *Frame) Bounce
}

// Implementation is what an action identity currently delegates to.
// HIJACK swaps the pointer; COPY clones it so copies are unaffected.
type Implementation struct {
	Dispatcher Dispatcher
	Details    []Value
}

// ActionFlags are cached properties of an action.
type ActionFlags uint8

const (
	ActionQuotesFirst    ActionFlags = 1 << iota // first call-site parameter is quoted
	ActionInvisible                              // leaves the output untouched
	ActionDefersLookback                         // enfix waits for the pending call to finish
)

// Action is a callable identity.
type Action struct {
	paramlist *Paramlist
	impl      *Implementation
	exemplar  *Context
	flags     ActionFlags
	name      string
}

func newAction(pl *Paramlist, d Dispatcher, details []Value, exemplar *Context) *Action {
	act := &Action{
		paramlist: pl,
		impl:      &Implementation{Dispatcher: d, Details: details},
		exemplar:  exemplar,
	}
	act.cacheFlags()
	return act
}

func (a *Action) Paramlist() *Paramlist { return a.paramlist }
func (a *Action) Exemplar() *Context    { return a.exemplar }
func (a *Action) Flags() ActionFlags    { return a.flags }
func (a *Action) Details() []Value      { return a.impl.Details }
func (a *Action) Has(fl ActionFlags) bool {
	return a.flags&fl != 0
}

// Name is the spelling the action was first assigned to, for diagnostics.
func (a *Action) Name() string {
	if a.name == "" {
		return "anonymous"
	}
	return a.name
}

// Underlying is the action whose paramlist sizes frames of a. All
// derivations share the layout, so it is the root of the chain.
func (a *Action) Underlying() *Paramlist { return a.paramlist.root() }

// specialized reports whether slot i is fixed by the exemplar.
func (a *Action) specialized(i int) bool {
	return a.exemplar != nil && !a.exemplar.vars[i].IsVoid()
}

// firstParam is the index of the first parameter a call site fills, or 0.
func (a *Action) firstParam() int {
	for i := 1; i < len(a.paramlist.Params); i++ {
		p := &a.paramlist.Params[i]
		if p.FromCallSite() && p.Class != ParamRefinement && !a.specialized(i) {
			return i
		}
	}
	return 0
}

func (a *Action) cacheFlags() {
	a.flags &^= ActionQuotesFirst
	if i := a.firstParam(); i != 0 {
		switch a.paramlist.Params[i].Class {
		case ParamHardQuote, ParamSoftQuote, ParamModal:
			a.flags |= ActionQuotesFirst
		}
	}
}

// returnTypes are the types the action promises to return, from its
// RETURN parameter; any value when it has none.
func (a *Action) returnTypes() Typeset {
	for i := 1; i < len(a.paramlist.Params); i++ {
		if p := &a.paramlist.Params[i]; p.Class == ParamReturn {
			return p.Types
		}
	}
	return anyValue | TypesetOpt
}

// copyAction makes a new identity with the same shape and a private copy of
// the implementation.
func copyAction(a *Action) *Action {
	impl := *a.impl
	impl.Details = append([]Value(nil), a.impl.Details...)
	return &Action{
		paramlist: a.paramlist,
		impl:      &impl,
		exemplar:  a.exemplar,
		flags:     a.flags,
		name:      a.name,
	}
}
