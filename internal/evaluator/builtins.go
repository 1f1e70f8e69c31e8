package evaluator

import (
	"fmt"
)

// NativeDef describes a native action for the library context.
type NativeDef struct {
	Name string
	// Spec is a parameter spec block written as source, without the
	// enclosing brackets.
	Spec  string
	Fn    NativeFunc
	Flags ActionFlags
	// Enfix installs Name for infix dispatch.
	Enfix bool
	// Infix names are extra enfix words for the same action.
	Infix []string
}

// RegisterNative builds a native from def and sets its words in the
// library context.
func (in *Interpreter) RegisterNative(def NativeDef) (*Action, error) {
	code, err := in.Scan(def.Spec, "native:"+def.Name)
	if err != nil {
		return nil, fmt.Errorf("spec of %s: %w", def.Name, err)
	}
	params, variant, perr := parseSpec(code.Cells, nil)
	if perr != nil {
		return nil, fmt.Errorf("spec of %s: %w", def.Name, perr)
	}
	if variant != bodyPlain {
		return nil, fmt.Errorf("spec of %s: natives cannot declare return", def.Name)
	}
	act := newAction(newParamlist(params, nil), &Native{Fn: def.Fn}, nil, nil)
	act.flags |= def.Flags
	act.name = def.Name

	if err := in.setLib(def.Name, ActionValue(act, nil), def.Enfix); err != nil {
		return nil, err
	}
	for _, name := range def.Infix {
		if err := in.setLib(name, ActionValue(act, nil), true); err != nil {
			return nil, err
		}
	}
	return act, nil
}

func (in *Interpreter) setLib(name string, v Value, enfix bool) error {
	sym, err := in.Intern(name)
	if err != nil {
		return err
	}
	i := in.lib.Find(sym)
	if i == 0 {
		i = in.lib.Append(sym)
	}
	var serr *Error
	if enfix {
		serr = in.lib.SetEnfix(i, v)
	} else {
		serr = in.lib.Set(i, v)
	}
	if serr != nil {
		return serr
	}
	return nil
}

func (in *Interpreter) libAction(name string) *Action {
	v, ok := in.lib.Get(in.table.MustIntern(name))
	if !ok || !v.Is(KindAction) {
		panic("evaluator: library has no action " + name)
	}
	return v.Action
}

func (in *Interpreter) installLib() error {
	defs := append(controlNatives(), stdNatives()...)
	for _, ext := range extNativeModules() {
		defs = append(defs, ext...)
	}
	for _, def := range defs {
		if _, err := in.RegisterNative(def); err != nil {
			return err
		}
	}

	for k := KindVoid; k < numKinds; k++ {
		if k == KindNull {
			continue
		}
		if err := in.setLib(k.String()+"!", Datatype(k), false); err != nil {
			return err
		}
	}
	words := []struct {
		name string
		v    Value
	}{
		{"true", Logic(true)},
		{"false", Logic(false)},
		{"null", nullValue},
		{"blank", blankValue},
	}
	for _, w := range words {
		if err := in.setLib(w.name, w.v, false); err != nil {
			return err
		}
	}

	in.returnAction = in.libAction("return")
	in.unwindAction = in.libAction("unwind")
	in.haltAction = in.libAction("halt")
	in.breakAction = in.libAction("break")
	in.continueAction = in.libAction("continue")
	return nil
}

// series stepping shared by natives that evaluate a block one expression
// at a time.
type stepper struct {
	feed  *Feed
	items []Value
}

// stepNext evaluates the next expression into the spare cell, or reports
// false at the end of the block.
func (f *Frame) stepNext(st *stepper) bool {
	if st.feed.AtEnd() {
		return false
	}
	f.spare = voidValue
	f.tramp.pushEvaluator(&f.spare, st.feed, 0)
	return true
}
