package evaluator

import (
	"errors"
	"fmt"

	"github.com/hostilefork/rebol-sub000/internal/scan"
	"github.com/hostilefork/rebol-sub000/internal/symbols"
)

var itemKinds = map[scan.Kind]Kind{
	scan.Integer:    KindInteger,
	scan.Text:       KindText,
	scan.Tag:        KindTag,
	scan.Issue:      KindIssue,
	scan.Blank:      KindBlank,
	scan.Void:       KindVoid,
	scan.Word:       KindWord,
	scan.SetWord:    KindSetWord,
	scan.GetWord:    KindGetWord,
	scan.SymWord:    KindSymWord,
	scan.Refinement: KindRefinement,
	scan.Path:       KindPath,
	scan.SetPath:    KindSetPath,
	scan.GetPath:    KindGetPath,
	scan.Block:      KindBlock,
	scan.Group:      KindGroup,
	scan.SetBlock:   KindSetBlock,
	scan.SetGroup:   KindSetGroup,
}

// loadItems converts scanned items into unbound value cells.
func loadItems(tbl *symbols.Table, items []scan.Item, file string) (*Array, error) {
	a := &Array{Cells: make([]Value, 0, len(items)), File: file}
	for i := range items {
		v, err := loadItem(tbl, &items[i], file)
		if err != nil {
			return nil, err
		}
		a.Cells = append(a.Cells, v)
	}
	return a, nil
}

func loadItem(tbl *symbols.Table, it *scan.Item, file string) (Value, error) {
	kind, ok := itemKinds[it.Kind]
	if !ok {
		return Value{}, fmt.Errorf("load: unknown item kind %s", it.Kind)
	}
	v := Value{Kind: kind, Quotes: it.Quotes, Line: it.Line}
	if it.NewlineBefore {
		v.Flags |= FlagNewline
	}
	switch {
	case kind == KindInteger:
		v.Int = it.Int
	case kind == KindText, kind == KindTag, kind == KindIssue:
		v.Text = it.Text
	case AnyWord.Has(kind), kind == KindRefinement:
		sym, err := tbl.InternString(it.Text)
		if err != nil {
			return Value{}, internError(err, it.Text)
		}
		v.Symbol = sym
	case AnyArray.Has(kind):
		inner, err := loadItems(tbl, it.Items, file)
		if err != nil {
			return Value{}, err
		}
		v.Array = inner
	}
	return v, nil
}

func internError(err error, spelling string) error {
	if errors.Is(err, symbols.ErrTableExhausted) {
		return newError(ErrTableExhausted, "cannot intern %q: %v", spelling, err)
	}
	return err
}

// bindLoaded binds freshly loaded code for the user context. Every
// SET-WORD, and every word in a SET-BLOCK, gets a user variable first,
// importing the library's value when the name is a library word, so a
// definition later in the code is seen by uses earlier in it. Other words
// bind to the user context when it has the name, else to the library, else
// stay unbound.
func bindLoaded(tbl *symbols.Table, cells []Value, user, lib *Context) {
	b := tbl.NewBinder()
	InitInterningBinder(b, user, lib)

	define := func(sym *symbols.Symbol) {
		switch index := b.Get(sym); {
		case index < 0:
			ni := user.Append(sym)
			user.vars[ni] = lib.vars[-index]
			user.vars[ni].Flags &^= FlagProtected
			b.Update(sym, ni)
		case index == 0:
			b.Add(sym, user.Append(sym))
		}
	}

	var collect func([]Value)
	collect = func(cells []Value) {
		for i := range cells {
			v := &cells[i]
			if v.Kind == KindSetWord && v.Symbol != nil {
				define(v.Symbol)
			}
			if v.Kind == KindSetBlock && v.Quotes == 0 {
				for j := range v.Array.Cells {
					if t := &v.Array.Cells[j]; t.Kind == KindWord && t.Quotes == 0 {
						define(t.Symbol)
					}
				}
			}
			if v.Array != nil && AnyArray.Has(v.Kind) {
				collect(v.Array.Cells)
			}
		}
	}
	collect(cells)

	var bind func([]Value)
	bind = func(cells []Value) {
		for i := range cells {
			v := &cells[i]
			if v.Symbol != nil && AnyWord.Has(v.Kind) {
				switch index := b.Get(v.Symbol); {
				case index > 0:
					v.Binding = Binding{Context: user, Index: index}
				case index < 0:
					v.Binding = Binding{Context: lib, Index: -index}
				}
				continue
			}
			if v.Array != nil && AnyArray.Has(v.Kind) {
				bind(v.Array.Cells)
			}
		}
	}
	bind(cells)

	ShutdownInterningBinder(b, user, lib)
	mustShutdown(b)
}
