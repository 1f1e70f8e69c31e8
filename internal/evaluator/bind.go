package evaluator

import (
	"fmt"

	"github.com/hostilefork/rebol-sub000/internal/symbols"
)

// derelativize resolves a value that may be relative to a function's
// paramlist into a specific one using the frame context specifier. Arrays
// pick up the specifier so the relative words inside them can be found
// later. Either way the frame's storage is now referenced from outside.
func derelativize(v *Value, specifier *Context) Value {
	out := *v
	out.Flags &^= FlagStale | FlagProtected | FlagEnfixed
	if v.Binding.IsRelative() {
		checkSpecifier(v, specifier)
		out.Binding = Binding{Context: specifier, Index: v.Binding.Index}
		specifier.Manage()
		return out
	}
	if specifier != nil && v.Array != nil && AnyArray.Has(v.Kind) && v.Binding.Context == nil {
		out.Binding = Binding{Context: specifier}
		specifier.Manage()
	}
	return out
}

// Derelativize is derelativize for collaborators outside the package.
func Derelativize(v *Value, specifier *Context) Value { return derelativize(v, specifier) }

func checkSpecifier(v *Value, specifier *Context) {
	if specifier == nil || specifier.kind != KindFrame || specifier.phase == nil {
		panic(fmt.Sprintf("relative %s %s used without a frame specifier", v.Kind, v.Symbol))
	}
	if !CompatibleFrame(specifier.phase.paramlist, v.Binding.Relative) {
		panic(fmt.Sprintf("relative %s %s used with an incompatible frame", v.Kind, v.Symbol))
	}
}

// resolveWord finds the context and slot a word refers to.
func resolveWord(v *Value, specifier *Context) (*Context, int, *Error) {
	if v.Binding.IsRelative() {
		checkSpecifier(v, specifier)
		return specifier, v.Binding.Index, nil
	}
	if v.Binding.Context == nil {
		return nil, 0, newValueError(ErrNotBound, v, "%s is not bound to a context", v.Symbol)
	}
	return v.Binding.Context, v.Binding.Index, nil
}

// lookupVar returns the variable storage for a word.
func lookupVar(v *Value, specifier *Context) (*Value, *Error) {
	ctx, index, err := resolveWord(v, specifier)
	if err != nil {
		return nil, err
	}
	slot, err := ctx.Var(index)
	if err != nil {
		err.Value = &Value{Kind: v.Kind, Symbol: v.Symbol}
		err.Message = fmt.Sprintf("%s refers to a context that is no longer accessible", v.Symbol)
		return nil, err
	}
	return slot, nil
}

// assignVar writes through a word's binding.
func assignVar(v *Value, specifier *Context, val Value) *Error {
	ctx, index, err := resolveWord(v, specifier)
	if err != nil {
		return err
	}
	return ctx.Set(index, val)
}

// Bind binds words of the listed kinds in cells to ctx. Words whose kind is
// in addKinds and which are not yet keys of ctx are appended as new keys;
// only words met after such an addition see it.
func Bind(tbl *symbols.Table, cells []Value, ctx *Context, bindKinds, addKinds KindSet, deep bool) {
	b := tbl.NewBinder()
	for i := 1; i < len(ctx.keys); i++ {
		if !ctx.keys[i].Hidden {
			b.Update(ctx.keys[i].Symbol, i)
		}
	}
	bindCells(b, cells, ctx, bindKinds, addKinds, deep)
	for i := 1; i < len(ctx.keys); i++ {
		b.Remove(ctx.keys[i].Symbol)
	}
	mustShutdown(b)
}

func bindCells(b *symbols.Binder, cells []Value, ctx *Context, bindKinds, addKinds KindSet, deep bool) {
	for i := range cells {
		v := &cells[i]
		if v.Symbol != nil && AnyWord.Has(v.Kind) {
			index := b.Get(v.Symbol)
			if index == 0 && addKinds.Has(v.Kind) {
				index = ctx.Append(v.Symbol)
				b.Add(v.Symbol, index)
			}
			if index > 0 && bindKinds.Has(v.Kind) {
				v.Binding = Binding{Context: ctx, Index: index}
			}
			continue
		}
		if deep && v.Array != nil && AnyArray.Has(v.Kind) {
			bindCells(b, v.Array.Cells, ctx, bindKinds, addKinds, deep)
		}
	}
}

// Unbind clears the binding of words bound to ctx, or of all words when
// ctx is nil.
func Unbind(cells []Value, ctx *Context, deep bool) {
	for i := range cells {
		v := &cells[i]
		if v.Symbol != nil && AnyWord.Has(v.Kind) {
			if ctx == nil || v.Binding.Context == ctx {
				v.Binding = Binding{}
			}
			continue
		}
		if deep && v.Array != nil && AnyArray.Has(v.Kind) {
			Unbind(v.Array.Cells, ctx, deep)
		}
	}
}

func mustShutdown(b *symbols.Binder) {
	if err := b.Shutdown(); err != nil {
		panic("evaluator: " + err.Error())
	}
}

// CopyAndBindRelative deep-copies a function body, making words that name
// parameters of act relative to its paramlist. Values that were relative to
// an enclosing body are made specific with specifier on the way.
//
// With gatherLets, a LET followed by a word is removed from the copy and
// the word becomes a new local of act. Declaring the same name twice adds
// a second slot, and words after the second declaration use it. The local
// remembers the binding it shadows, which seeds it when a LET SET-WORD
// runs so that `let y: y + 1` reads the earlier y.
func CopyAndBindRelative(tbl *symbols.Table, body *Array, index int, specifier *Context, act *Action, bindKinds KindSet, gatherLets bool) *Array {
	pl := act.paramlist
	b := tbl.NewBinder()
	for i := 1; i < len(pl.Params); i++ {
		b.Update(pl.Params[i].Symbol, i)
	}
	out := copyRelative(b, body, index, specifier, pl, bindKinds, gatherLets)
	for i := 1; i < len(pl.Params); i++ {
		b.Remove(pl.Params[i].Symbol)
	}
	mustShutdown(b)
	act.cacheFlags()
	return out
}

func copyRelative(b *symbols.Binder, a *Array, index int, specifier *Context, pl *Paramlist, bindKinds KindSet, gatherLets bool) *Array {
	out := &Array{Cells: make([]Value, 0, len(a.Cells)-index), File: a.File}
	declared := false
	for i := index; i < len(a.Cells); i++ {
		v := &a.Cells[i]

		if gatherLets && isLetMarker(v) && i+1 < len(a.Cells) {
			next := &a.Cells[i+1]
			if next.Quotes == 0 && (next.Kind == KindWord || next.Kind == KindSetWord) {
				shadows := next.Binding
				if prev := b.Get(next.Symbol); prev > 0 {
					shadows = Binding{Relative: pl, Index: prev}
				} else if next.Binding.IsRelative() {
					shadows = derelativize(next, specifier).Binding
				}
				slot := pl.add(Param{Symbol: next.Symbol, Class: ParamLocal, Shadows: shadows})
				b.Update(next.Symbol, slot)
				declared = next.Kind == KindSetWord
				continue
			}
		}

		cell := *v
		if v.Binding.IsRelative() {
			cell = derelativize(v, specifier)
		}
		if declared {
			cell.Flags |= FlagLetDecl
			declared = false
		}
		if v.Symbol != nil && bindKinds.Has(v.Kind) {
			if slot := b.Get(v.Symbol); slot > 0 {
				cell.Binding = Binding{Relative: pl, Index: slot}
			}
		}
		if v.Array != nil && AnyArray.Has(v.Kind) {
			inner := specifier
			if v.Binding.Context != nil {
				inner = v.Binding.Context
			}
			cell.Array = copyRelative(b, v.Array, v.Index, inner, pl, bindKinds, gatherLets)
			cell.Index = 0
			cell.Binding = Binding{}
		}
		out.Cells = append(out.Cells, cell)
	}
	return out
}

// seedLet gives the local a LET SET-WORD declares the value of the
// variable it shadows. Without one the local starts with no value.
func seedLet(v *Value, specifier *Context) {
	ctx, index, err := resolveWord(v, specifier)
	if err != nil || ctx.kind != KindFrame || ctx.phase == nil {
		return
	}
	params := ctx.phase.paramlist.Params
	if index >= len(params) || params[index].Class != ParamLocal {
		return
	}
	slot, err := ctx.Var(index)
	if err != nil {
		return
	}
	*slot = voidValue
	shadows := params[index].Shadows
	if shadows.Context == nil && shadows.Relative == nil {
		return
	}
	prev, err := lookupVar(&Value{Kind: KindWord, Symbol: v.Symbol, Binding: shadows}, ctx)
	if err == nil {
		*slot = prev.Plain()
	}
}

func isLetMarker(v *Value) bool {
	return v.Kind == KindWord && v.Quotes == 0 && v.Symbol.ID() == symbols.SymLet
}

// VirtualBindNewContext builds the variable context of a loop. Plain words
// in spec are new variables; quoted words reuse the binding the word
// already has. The body is copied and bound to the new variables unless
// every entry reuses an existing binding, in which case it is returned
// as-is. Naming the same new variable twice is an error; reusing the same
// binding twice is not.
func VirtualBindNewContext(tbl *symbols.Table, body *Array, index int, specifier *Context, spec Value) (*Context, *Array, *Error) {
	var items []Value
	switch {
	case spec.Is(KindBlock):
		items = spec.Cells()
	default:
		items = []Value{spec}
	}
	if len(items) == 0 {
		return nil, nil, newValueError(ErrDupVars, &spec, "loop needs at least one variable")
	}

	ctx := NewContext(KindObject, len(items))
	b := tbl.NewBinder()
	var failure *Error
	allReuse := true

	for i := range items {
		item := derelativize(&items[i], spec.Binding.Context)
		if item.Kind != KindWord || item.Quotes > 1 {
			failure = newValueError(ErrDupVars, &item, "loop variable must be a word or quoted word")
			break
		}
		slot := ctx.Append(item.Symbol)
		if item.Quotes == 1 {
			if item.Binding.Context == nil {
				failure = newValueError(ErrNotBound, &item, "reused loop variable %s is not bound", item.Symbol)
				break
			}
			ctx.keys[slot].Hidden = true
			ctx.vars[slot] = item.Unquoted()
			continue
		}
		allReuse = false
		if !b.Add(item.Symbol, slot) {
			failure = newValueError(ErrDupVars, &item, "duplicate loop variable %s", item.Symbol)
			break
		}
	}

	for i := 1; i < len(ctx.keys); i++ {
		b.Remove(ctx.keys[i].Symbol)
	}
	mustShutdown(b)
	if failure != nil {
		return nil, nil, failure
	}

	if allReuse {
		return ctx, body, nil
	}
	copied := copyArrayDeep(body, index, specifier)
	Bind(tbl, copied.Cells, ctx, AnyWord, 0, true)
	return ctx, copied, nil
}

// InitInterningBinder prepares b for binding freshly loaded code: keys of
// ctx get their positive index, keys only found in lib get the negated lib
// index.
func InitInterningBinder(b *symbols.Binder, ctx, lib *Context) {
	for i := 1; i < len(ctx.keys); i++ {
		b.Update(ctx.keys[i].Symbol, i)
	}
	for i := 1; i < len(lib.keys); i++ {
		b.Add(lib.keys[i].Symbol, -i)
	}
}

// ShutdownInterningBinder clears every index InitInterningBinder or the
// load that followed it set. Library entries may have been imported into
// ctx by then, which is why both keylists are walked.
func ShutdownInterningBinder(b *symbols.Binder, ctx, lib *Context) {
	for i := 1; i < len(ctx.keys); i++ {
		b.Remove(ctx.keys[i].Symbol)
	}
	for i := 1; i < len(lib.keys); i++ {
		b.Remove(lib.keys[i].Symbol)
	}
}
