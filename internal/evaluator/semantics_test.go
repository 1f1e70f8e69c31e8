package evaluator

import (
	"context"
	"errors"
	"testing"
)

func TestArgumentOrder(t *testing.T) {
	in, out := newTestInterpreter(t, Options{})
	v := mustDo(t, in, `f: func [a b] [reduce [a b]] f (print "left" 1) (print "right" 2)`)
	if got := out.String(); got != "left\nright\n" {
		t.Errorf("output = %q, want left then right", got)
	}
	if got := Mold(&v); got != "[1 2]" {
		t.Errorf("result = %s, want [1 2]", got)
	}
}

func TestInvisibleGroupKeepsOutput(t *testing.T) {
	in, _ := newTestInterpreter(t, Options{})
	v := mustDo(t, in, `1 + 2 (comment "vaporize")`)
	if v.Int != 3 {
		t.Errorf("result = %s, want 3", Mold(&v))
	}
	v = mustDo(t, in, `(elide 10) 20 (elide 30)`)
	if v.Int != 20 {
		t.Errorf("result = %s, want 20", Mold(&v))
	}
}

func TestReturnSkipsRest(t *testing.T) {
	in, out := newTestInterpreter(t, Options{})
	v := mustDo(t, in, `f: func [return: [integer!]] [return 42 print "unreached"] f`)
	if v.Int != 42 {
		t.Errorf("f = %s, want 42", Mold(&v))
	}
	if out.Len() != 0 {
		t.Errorf("code after return ran: %q", out.String())
	}
}

func TestQuoteLevelsPeelOneAtATime(t *testing.T) {
	in, _ := newTestInterpreter(t, Options{})
	word := Word(KindWord, in.Symbols().MustIntern("x"))
	for _, base := range []Value{Integer(7), word, Text("s")} {
		for n := 0; n <= 4; n++ {
			v := base.Quoted(n)
			for k := 1; k <= n; k++ {
				got, err := in.Do(context.Background(), NewArray([]Value{v}))
				if err != nil {
					t.Fatalf("evaluating %s: %v", Mold(&v), err)
				}
				if got.Quotes != n-k {
					t.Fatalf("after %d of %d evaluations %s has %d quotes", k, n, Mold(&got), got.Quotes)
				}
				v = got
			}
			if v.Quotes != 0 || v.Kind != base.Kind {
				t.Errorf("%d evaluations left %s, want %s", n, Mold(&v), Mold(&base))
			}
		}
	}
}

func TestBinderLeftClean(t *testing.T) {
	in, _ := newTestInterpreter(t, Options{})
	mustDo(t, in, `
		f: func [a b /c] [let d: a + b d]
		f 1 2
		for-each [x y] [1 2 3 4] [x + y]
		blk: copy/deep [a [b c]]
		o: make object! [a: 1 b: 2]
		o2: make o [c: 3]
		add5: specialize :add [value2: 5]
		bind [a b] o
		unbind/deep blk
	`)
	b := in.Symbols().NewBinder()
	for _, name := range []string{"a", "b", "c", "d", "x", "y", "value1", "value2"} {
		if idx := b.Get(in.Symbols().MustIntern(name)); idx != 0 {
			t.Errorf("%s still has binder index %d", name, idx)
		}
	}
	if err := b.Shutdown(); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

func TestReturnOutsideFunctionIsUncaught(t *testing.T) {
	for _, src := range []string{"return 1", "f: func [] [:return] r: f r 1", "catch [return 1]"} {
		in, _ := newTestInterpreter(t, Options{})
		_, err := in.DoString(context.Background(), src, "test")
		var ut *UncaughtThrowError
		if !errors.As(err, &ut) {
			t.Errorf("%s: expected an uncaught throw, got %v", src, err)
			continue
		}
		var e *Error
		if errors.As(err, &e) {
			t.Errorf("%s: uncaught throw also reported as an evaluation error", src)
		}
		if ut.Value.Int != 1 || ut.Label.Action != in.returnAction {
			t.Errorf("%s: threw %s with label %s", src, Mold(&ut.Value), Mold(&ut.Label))
		}
		if d := in.Depth(); d != 0 {
			t.Errorf("%s left %d frames on the stack", src, d)
		}
	}
}

func TestLetDeclarations(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"later declaration wins", "f: func [] [let y: 1 let y: 2 y] f", "2"},
		{"right side sees earlier local", "f: func [] [let y: 1 let y: y + 1 y] f", "2"},
		{"right side sees user variable", "y: 10 f: func [] [let y: y + 1 y] reduce [f y]", "[11 10]"},
		{"right side sees parameter", "f: func [y] [let y: y * 2 y] f 21", "42"},
		{"reseeded on every run", "y: 1 f: func [] [for-each n [1 2 3] [let y: y + n] y] reduce [f y]", "[4 1]"},
		{"recursion keeps locals apart", "f: func [n] [let y: n if n > 0 [f n - 1] y] f 3", "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, _ := newTestInterpreter(t, Options{})
			v := mustDo(t, in, tt.src)
			if got := Mold(&v); got != tt.want {
				t.Errorf("%s = %s, want %s", tt.src, got, tt.want)
			}
		})
	}
}

func TestUnbindFrom(t *testing.T) {
	in, _ := newTestInterpreter(t, Options{})
	v := mustDo(t, in, `x: 5 o: make object! [a: 1] blk: bind [x a [a x]] o unbind/from/deep blk o`)
	cells := v.Cells()
	if ctx := cells[0].Binding.Context; ctx != in.User() {
		t.Errorf("x lost its user binding")
	}
	if cells[1].Binding.Context != nil {
		t.Errorf("a is still bound to the object")
	}
	inner := cells[2].Cells()
	if inner[0].Binding.Context != nil || inner[1].Binding.Context != in.User() {
		t.Errorf("nested block not filtered: %v %v", inner[0].Binding.Context, inner[1].Binding.Context)
	}

	w := mustDo(t, in, `unbind/from the x o`)
	if w.Binding.Context != in.User() {
		t.Errorf("word bound elsewhere was unbound")
	}

	blk := NewArray([]Value{Word(KindWord, in.Symbols().MustIntern("x"))})
	Bind(in.Symbols(), blk.Cells, in.User(), AnyWord, 0, false)
	Unbind(blk.Cells, in.Lib(), false)
	if blk.Cells[0].Binding.Context != in.User() {
		t.Errorf("Unbind with another context cleared the binding")
	}
	Unbind(blk.Cells, in.User(), false)
	if blk.Cells[0].Binding.Context != nil {
		t.Errorf("Unbind with the bound context left the binding")
	}
}
