package symbols

import (
	"errors"
	"fmt"
	"testing"
)

func newTestTable(t *testing.T) *Table {
	t.Helper()
	return NewTable(Options{})
}

func TestInternIdentity(t *testing.T) {
	tbl := newTestTable(t)

	a := tbl.MustIntern("append")
	b, err := tbl.Intern([]byte("append"))
	if err != nil {
		t.Fatalf("Intern: %v", err)
	}
	if a != b {
		t.Fatalf("identical spellings interned to different symbols")
	}
	if !a.IsCanon() {
		t.Errorf("lowercase spelling should be canon")
	}
}

func TestInternSynonyms(t *testing.T) {
	tbl := newTestTable(t)

	upper := tbl.MustIntern("Foo")
	lower := tbl.MustIntern("foo")
	if upper == lower {
		t.Fatalf("case variants must be distinct symbols")
	}
	if upper.Canon() != lower {
		t.Fatalf("canon of Foo = %q, want foo", upper.Canon())
	}
	if upper.IsCanon() {
		t.Errorf("Foo should not be canon")
	}
	if !SameCanon(upper, lower) {
		t.Errorf("SameCanon(Foo, foo) = false")
	}

	shout := tbl.MustIntern("FOO")
	syns := shout.Synonyms()
	if len(syns) != 3 || syns[0] != lower {
		t.Fatalf("synonyms = %v, want canon first and 3 members", syns)
	}
	if upper.Ordinal() == shout.Ordinal() {
		t.Errorf("synonyms share ordinal %d", upper.Ordinal())
	}
	if tbl.Len() != int(numCoreIDs)-1+1 {
		t.Errorf("Len = %d, want one group beyond the core set", tbl.Len())
	}
}

func TestWideOrdinals(t *testing.T) {
	tbl := newTestTable(t)
	spellings := []string{"ab", "Ab", "aB", "AB"}
	var last *Symbol
	for _, s := range spellings {
		last = tbl.MustIntern(s)
	}
	if last.IsWide() {
		t.Fatalf("ordinal %d should still be inline", last.Ordinal())
	}

	tbl2 := newTestTable(t)
	for _, s := range []string{"abc", "Abc", "aBc", "abC", "ABc"} {
		last = tbl2.MustIntern(s)
	}
	if !last.IsWide() {
		t.Fatalf("ordinal %d should be wide", last.Ordinal())
	}
}

func TestReleasePromotesCanon(t *testing.T) {
	tbl := newTestTable(t)

	canon := tbl.MustIntern("widget")
	syn := tbl.MustIntern("Widget")

	tbl.Release(canon)
	if !canon.Released() {
		t.Fatalf("released symbol still linked")
	}
	if !syn.IsCanon() {
		t.Fatalf("remaining synonym was not promoted to canon")
	}
	if got := tbl.Lookup("Widget"); got != syn {
		t.Fatalf("Lookup after promotion = %v, want %v", got, syn)
	}

	// A fresh lowercase spelling now joins the promoted group.
	again := tbl.MustIntern("widget")
	if again.Canon() != syn {
		t.Errorf("re-interned spelling attached to %q, want %q", again.Canon(), syn)
	}
}

func TestReleaseLastTombstones(t *testing.T) {
	tbl := newTestTable(t)
	before := tbl.Len()

	sym := tbl.MustIntern("gadget")
	tbl.Release(sym)

	if tbl.Len() != before {
		t.Fatalf("Len = %d, want %d", tbl.Len(), before)
	}
	if tbl.Tombstones() != 1 {
		t.Fatalf("Tombstones = %d, want 1", tbl.Tombstones())
	}
	if tbl.Lookup("gadget") != nil {
		t.Fatalf("released spelling still found")
	}

	// Words hashed past the tombstone must remain reachable.
	for i := 0; i < 10; i++ {
		tbl.MustIntern(fmt.Sprintf("w%d", i))
	}
	for i := 0; i < 10; i++ {
		if tbl.Lookup(fmt.Sprintf("w%d", i)) == nil {
			t.Errorf("w%d lost", i)
		}
	}
}

func TestReleaseCorePanics(t *testing.T) {
	tbl := newTestTable(t)
	defer func() {
		if recover() == nil {
			t.Fatalf("releasing a core symbol did not panic")
		}
	}()
	tbl.Release(tbl.Core(SymReturn))
}

func TestGrowthKeepsSymbols(t *testing.T) {
	tbl := newTestTable(t)
	start := tbl.Size()

	syms := make([]*Symbol, 500)
	for i := range syms {
		syms[i] = tbl.MustIntern(fmt.Sprintf("word-%d", i))
	}
	if tbl.Size() <= start {
		t.Fatalf("table did not grow: size %d", tbl.Size())
	}
	if tbl.Len()*2 > tbl.Size() {
		t.Errorf("load factor above half: %d/%d", tbl.Len(), tbl.Size())
	}
	for i, s := range syms {
		if got := tbl.MustIntern(fmt.Sprintf("word-%d", i)); got != s {
			t.Fatalf("word-%d changed identity across growth", i)
		}
	}
}

func TestTableExhausted(t *testing.T) {
	tbl := NewTable(Options{MaxSize: 61})

	var err error
	for i := 0; i < 100 && err == nil; i++ {
		_, err = tbl.InternString(fmt.Sprintf("x%d", i))
	}
	if !errors.Is(err, ErrTableExhausted) {
		t.Fatalf("err = %v, want ErrTableExhausted", err)
	}
}

func TestCoreIDs(t *testing.T) {
	tbl := newTestTable(t)
	ret := tbl.MustIntern("RETURN")
	if ret.ID() != SymReturn {
		t.Fatalf("ID(RETURN) = %d, want SymReturn", ret.ID())
	}
	if tbl.MustIntern("zebra").ID() != SymNone {
		t.Fatalf("ordinary word has a core ID")
	}
}

func TestBinderCount(t *testing.T) {
	tbl := newTestTable(t)
	a := tbl.MustIntern("a")
	b := tbl.MustIntern("B")

	bind := tbl.NewBinder()
	if !bind.Add(a, 1) {
		t.Fatalf("first Add reported a duplicate")
	}
	if bind.Add(tbl.MustIntern("A"), 2) {
		t.Fatalf("Add through a synonym should see the canon's index")
	}
	bind.Update(b, -3)
	if bind.Get(b.Canon()) != -3 {
		t.Fatalf("Get = %d, want -3", bind.Get(b))
	}
	if bind.Count() != 2 {
		t.Fatalf("Count = %d, want 2", bind.Count())
	}

	bind.Remove(a)
	if err := bind.Shutdown(); !errors.Is(err, ErrBinderLeak) {
		t.Fatalf("Shutdown with a live entry: err = %v", err)
	}

	// The leaked index is still stamped on b; a clean session clears it.
	bind = tbl.NewBinder()
	bind.count = 1
	bind.Remove(b)
	if err := bind.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestBinderExclusive(t *testing.T) {
	tbl := newTestTable(t)
	first := tbl.NewBinder()
	defer first.Shutdown()

	defer func() {
		if recover() == nil {
			t.Fatalf("second binder on the same table did not panic")
		}
	}()
	tbl.NewBinder()
}
