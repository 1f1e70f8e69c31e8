package evaluator

import (
	"github.com/hostilefork/rebol-sub000/internal/symbols"
)

// pathResult is what a path walk found: either a plain value, or an action
// with the refinement names that followed it.
type pathResult struct {
	value   Value
	action  *Action
	binding *Context
	label   *symbols.Symbol
	refines []*symbols.Symbol
	enfixed bool
}

// pathHeadEvaluates reports whether a path starts with a word. Paths with
// any other head are inert.
func pathHeadEvaluates(pv *Value) bool {
	cells := pv.Cells()
	return len(cells) > 0 && cells[0].Is(KindWord)
}

// walkPath evaluates a path value. Only words and integers are allowed as
// elements; an action reached along the way takes the remaining words as
// refinements.
func walkPath(pv *Value) (pathResult, *Error) {
	cells := pv.Cells()
	if len(cells) == 0 || !cells[0].Is(KindWord) {
		return pathResult{}, newValueError(ErrBadPath, pv, "path must start with a word")
	}
	var res pathResult
	w, enfixed, err := walkElements(pv, len(cells))
	if err != nil {
		return res, err
	}
	if !w.value.Is(KindAction) {
		res.value = w.value
		return res, nil
	}
	res.action = w.value.Action
	res.binding = w.value.Binding.Context
	res.label = w.label
	res.refines = w.refines
	res.enfixed = enfixed
	return res, nil
}

type walkState struct {
	value   Value
	label   *symbols.Symbol
	refines []*symbols.Symbol
}

// walkElements evaluates the first upto elements of a path.
func walkElements(pv *Value, upto int) (walkState, bool, *Error) {
	cells := pv.Cells()
	spec := pv.Binding.Context
	head := &cells[0]
	slot, err := lookupVar(head, spec)
	if err != nil {
		return walkState{}, false, err
	}
	w := walkState{value: slot.Plain(), label: head.Symbol}
	enfixed := slot.Flags&FlagEnfixed != 0

	for i := 1; i < upto; i++ {
		el := &cells[i]
		if w.value.Is(KindAction) {
			if !el.Is(KindWord) {
				return w, false, newValueError(ErrBadRefine, el, "%s is not a refinement name", Mold(el))
			}
			w.refines = append(w.refines, el.Symbol)
			continue
		}
		if w.value.IsVoid() {
			return w, false, newValueError(ErrNoValue, pv, "%s has no value in %s", Mold(&cells[i-1]), Mold(pv))
		}
		next, nextEnfix, err := pickElement(&w.value, el)
		if err != nil {
			return w, false, err
		}
		w.value = next
		enfixed = nextEnfix
		if el.Is(KindWord) {
			w.label = el.Symbol
		}
	}
	return w, enfixed, nil
}

// pickElement selects a field of a context, or an item of a block by
// position or by the word before it.
func pickElement(cur *Value, el *Value) (Value, bool, *Error) {
	switch {
	case cur.Quotes == 0 && AnyContext.Has(cur.Kind):
		if !el.Is(KindWord) {
			return nullValue, false, newValueError(ErrBadPath, el, "%s cannot select from %s", Mold(el), cur.Kind)
		}
		ctx := cur.Context
		i := ctx.Find(el.Symbol)
		if i == 0 {
			return nullValue, false, newValueError(ErrBadPath, el, "%s has no field %s", cur.Kind, el.Symbol)
		}
		slot, err := ctx.Var(i)
		if err != nil {
			return nullValue, false, err
		}
		return slot.Plain(), slot.Flags&FlagEnfixed != 0, nil

	case cur.Is(KindBlock), cur.Is(KindGroup):
		items := cur.Cells()
		switch {
		case el.Is(KindInteger):
			n := el.Int
			if n < 1 || n > int64(len(items)) {
				return nullValue, false, nil
			}
			return derelativize(&items[n-1], cur.Binding.Context), false, nil
		case el.Is(KindWord):
			for j := 0; j+1 < len(items); j++ {
				it := &items[j]
				if (it.Is(KindWord) || it.Is(KindSetWord)) && symbols.SameCanon(it.Symbol, el.Symbol) {
					return derelativize(&items[j+1], cur.Binding.Context), false, nil
				}
			}
			return nullValue, false, nil
		}
	}
	return nullValue, false, newValueError(ErrBadPath, el, "cannot pick %s from %s", Mold(el), cur.Type())
}

// setPath assigns through a SET-PATH: a context field or a block position.
func setPath(target *Value, val Value) *Error {
	cells := target.Cells()
	if len(cells) < 2 || !cells[0].Is(KindWord) {
		return newValueError(ErrBadPath, target, "%s is not a settable path", Mold(target))
	}
	w, _, err := walkElements(target, len(cells)-1)
	if err != nil {
		return err
	}
	if len(w.refines) > 0 || w.value.Is(KindAction) {
		return newValueError(ErrBadPath, target, "cannot set through an action in %s", Mold(target))
	}
	last := &cells[len(cells)-1]
	cur := &w.value
	switch {
	case cur.Quotes == 0 && AnyContext.Has(cur.Kind) && last.Is(KindWord):
		i := cur.Context.Find(last.Symbol)
		if i == 0 {
			return newValueError(ErrBadPath, last, "%s has no field %s", cur.Kind, last.Symbol)
		}
		return cur.Context.Set(i, val)
	case (cur.Is(KindBlock) || cur.Is(KindGroup)) && last.Is(KindInteger):
		n := last.Int
		if n < 1 || n > int64(len(cur.Cells())) {
			return newValueError(ErrBadPath, last, "position %d is out of range", n)
		}
		cur.Array.Cells[cur.Index+int(n)-1] = val.Plain()
		return nil
	}
	return newValueError(ErrBadPath, last, "cannot set %s in %s", Mold(last), cur.Type())
}
