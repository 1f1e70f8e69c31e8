package evaluator

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func newTestInterpreter(t *testing.T, opts Options) (*Interpreter, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	opts.Output = &out
	in, err := NewInterpreter(opts)
	if err != nil {
		t.Fatalf("NewInterpreter: %v", err)
	}
	return in, &out
}

func mustDo(t *testing.T, in *Interpreter, src string) Value {
	t.Helper()
	v, err := in.DoString(context.Background(), src, "test")
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", src, err)
	}
	return v
}

func errorID(t *testing.T, err error) ErrorID {
	t.Helper()
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected an evaluation error, got %v", err)
	}
	return e.ID
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"enfix left to right", "1 + 2 * 3", "9"},
		{"prefix", "add 1 2", "3"},
		{"comment inside argument", `1 + comment "skip" 2`, "3"},
		{"comment after value", `x: 10 comment "after"`, "10"},
		{"comment after enfix", `1 + 2 comment "x"`, "3"},
		{"quoted word", "''x", "'x"},
		{"quote depth", "quote/depth 10 2", "''10"},
		{"func", "f: func [x] [x * 2] f 21", "42"},
		{"return", "f: func [x] [return x + 1 999] f 10", "11"},
		{"return through loop", "g: func [] [for-each x [1 2 3] [if x = 2 [return x * 10]] 0] g", "20"},
		{"unwind", "f: func [] [unwind :f 5 10] f", "5"},
		{"let", "f: func [] [let x: 10 x + 1] f", "11"},
		{"lambda", "f: x -> [x + 1] f 2", "3"},
		{"invisible func", "f: func [return: [<invisible>]] [10] 1 f", "1"},
		{"catch", "catch [throw 10 20]", "10"},
		{"catch nothing thrown", "catch [10]", "10"},
		{"catch name", "catch/name [throw/name 1 'foo] 'foo", "1"},
		{"trap without failure", "trap [1 + 2]", "null"},
		{"then", "if true [1] then [2]", "2"},
		{"else", "if false [1] else [3]", "3"},
		{"either", `either 1 = 2 ["yes"] ["no"]`, `"no"`},
		{"all", "all [1 2 3]", "3"},
		{"all falsey", "all [1 false 3]", "null"},
		{"any", "any [false 2]", "2"},
		{"while", "n: 0 while [n < 5] [n: n + 1] n", "5"},
		{"break", "n: 0 while [true] [n: n + 1 if n = 3 [break]] n", "3"},
		{"for-each", "s: 0 for-each x [1 2 3] [s: s + x] s", "6"},
		{"for-each pairs", "for-each [a b] [1 2 3 4] [b]", "4"},
		{"for-each reused variable", "y: 0 for-each ['y 'y] [1 2] [y]", "2"},
		{"default unset", "x: default [10] x", "10"},
		{"default set", "x: 5 x: default [10] x", "5"},
		{"set-block", "[q r]: divide 7 2 reduce [q r]", "[3 1]"},
		{"set", "x: 0 set 'x 5 x", "5"},
		{"object", "o: make object! [a: 1 b: a + 1] o/b", "2"},
		{"adapt", "inc: adapt :add [value2: 1] inc 10 99", "11"},
		{"enclose", "e: enclose :add func [f] [f/value1: f/value1 * 10 do f] e 1 2", "12"},
		{"enclose copy", "e: enclose :add func [f] [(do copy f) + (do f)] e 1 2", "6"},
		{"specialize", "add10: specialize :add [value2: 10] add10 5", "15"},
		{"hijack", "foo: func [x] [x + 1] old: hijack :foo func [x] [x * 100] reduce [foo 2 old 2]", "[200 3]"},
		{"adapt runs prelude before typecheck", `n: 0 a: adapt :add [n: n + 1 value1: "x"] e: trap [a 1 2] reduce [n type-of e]`, "[1 error!]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, _ := newTestInterpreter(t, Options{})
			v := mustDo(t, in, tt.src)
			if got := Mold(&v); got != tt.want {
				t.Errorf("%s = %s, want %s", tt.src, got, tt.want)
			}
			if d := in.Depth(); d != 0 {
				t.Errorf("%s left %d frames on the stack", tt.src, d)
			}
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want ErrorID
	}{
		{"unbound word", "foo", ErrNotBound},
		{"unwind without target", "unwind 3 1", ErrInvalidExit},
		{"arg type", `1 + "a"`, ErrArgType},
		{"overflow", "9223372036854775807 + 1", ErrOverflow},
		{"zero divide", "divide 1 0", ErrZeroDivide},
		{"let outside func", "let x: 1", ErrLetOutside},
		{"frame runs once", "e: enclose :add func [f] [do f do f] e 1 2", ErrNotRunnable},
		{"specialize typecheck", `specialize :add [value2: "x"]`, ErrArgType},
		{"duplicate loop variable", "for-each [x x] [1 2] [x]", ErrDupVars},
		{"fail", `fail "boom"`, ErrUser},
		{"missing argument", "add 1", ErrNeedNonEnd},
		{"scan", "[1 2", ErrScan},
		{"return type", `f: func [return: [integer!]] [return "x"] f`, ErrReturnType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, _ := newTestInterpreter(t, Options{})
			_, err := in.DoString(context.Background(), tt.src, "test")
			if err == nil {
				t.Fatalf("%s: expected %s, got no error", tt.src, tt.want)
			}
			if id := errorID(t, err); id != tt.want {
				t.Errorf("%s: error %s, want %s (%v)", tt.src, id, tt.want, err)
			}
			if d := in.Depth(); d != 0 {
				t.Errorf("%s left %d frames on the stack", tt.src, d)
			}
		})
	}
}

func TestTrapReturnsError(t *testing.T) {
	in, _ := newTestInterpreter(t, Options{})
	v := mustDo(t, in, `trap [fail "boom"]`)
	if !v.Is(KindError) {
		t.Fatalf("trap returned %s, want an error", Mold(&v))
	}
	if v.Error.ID != ErrUser || v.Error.Message != "boom" {
		t.Errorf("trapped %s %q, want %s \"boom\"", v.Error.ID, v.Error.Message, ErrUser)
	}
}

func TestUncaughtThrow(t *testing.T) {
	in, _ := newTestInterpreter(t, Options{})
	_, err := in.DoString(context.Background(), "throw 1", "test")
	var ut *UncaughtThrowError
	if !errors.As(err, &ut) {
		t.Fatalf("expected an uncaught throw, got %v", err)
	}
	if ut.Value.Int != 1 {
		t.Errorf("thrown value = %s, want 1", Mold(&ut.Value))
	}
}

func TestPrint(t *testing.T) {
	in, out := newTestInterpreter(t, Options{})
	mustDo(t, in, `print ["a" 1 + 2] print "b"`)
	if got, want := out.String(), "a 3\nb\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestStep(t *testing.T) {
	in, _ := newTestInterpreter(t, Options{})
	code, err := in.Load("1 + 2 3", "step")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	v, next, err := in.Step(context.Background(), code, 0)
	if err != nil {
		t.Fatalf("first step: %v", err)
	}
	if v.Int != 3 || next != 3 {
		t.Errorf("first step = %s at %d, want 3 at 3", Mold(&v), next)
	}
	v, next, err = in.Step(context.Background(), code, next)
	if err != nil {
		t.Fatalf("second step: %v", err)
	}
	if v.Int != 3 || next != 4 {
		t.Errorf("second step = %s at %d, want 3 at 4", Mold(&v), next)
	}
}

func TestCall(t *testing.T) {
	in, _ := newTestInterpreter(t, Options{})
	add, ok := in.Lib().Get(in.Symbols().MustIntern("add"))
	if !ok {
		t.Fatal("add is not in the library")
	}
	v, err := in.Call(context.Background(), add.Action, Integer(40), Integer(2))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if v.Int != 42 {
		t.Errorf("add 40 2 = %s", Mold(&v))
	}
	if _, err := in.Call(context.Background(), add.Action, Integer(1)); errorID(t, err) != ErrMissingArg {
		t.Errorf("Call with one argument: %v", err)
	}
}

func TestStackOverflow(t *testing.T) {
	in, _ := newTestInterpreter(t, Options{MaxDepth: 64})
	_, err := in.DoString(context.Background(), "f: func [] [f] f", "test")
	if id := errorID(t, err); id != ErrStackOverflow {
		t.Fatalf("error %s, want %s", id, ErrStackOverflow)
	}
	if d := in.Depth(); d != 0 {
		t.Errorf("stack has %d frames after overflow", d)
	}
	// The interpreter is still usable.
	if v := mustDo(t, in, "1 + 1"); v.Int != 2 {
		t.Errorf("1 + 1 = %s", Mold(&v))
	}
}

func TestFrameStorageReused(t *testing.T) {
	in, _ := newTestInterpreter(t, Options{})
	mustDo(t, in, "f: func [x] [x] f 1 f 2 f 3")
	hits, misses := in.PoolStats()
	if hits == 0 {
		t.Errorf("no pool hits (misses %d)", misses)
	}
}

func TestHalt(t *testing.T) {
	in, _ := newTestInterpreter(t, Options{InterruptInterval: 1, Halting: true})
	if !in.RequestHalt() {
		t.Fatal("RequestHalt refused with halting enabled")
	}
	_, err := in.DoString(context.Background(), "while [true] [1]", "test")
	if !errors.Is(err, ErrHalted) {
		t.Fatalf("expected halt, got %v", err)
	}

	_, err = in.DoString(context.Background(), "catch [halt]", "test")
	if !errors.Is(err, ErrHalted) {
		t.Errorf("catch stopped a halt: %v", err)
	}
	_, err = in.DoString(context.Background(), "trap [halt]", "test")
	if !errors.Is(err, ErrHalted) {
		t.Errorf("trap stopped a halt: %v", err)
	}
}

func TestHaltOnCancel(t *testing.T) {
	in, _ := newTestInterpreter(t, Options{InterruptInterval: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := in.DoString(ctx, "while [true] [1]", "test")
	if !errors.Is(err, ErrHalted) {
		t.Fatalf("expected halt, got %v", err)
	}
}

func TestHaltingTransitions(t *testing.T) {
	in, _ := newTestInterpreter(t, Options{})
	if in.RequestHalt() {
		t.Error("RequestHalt accepted with halting disabled")
	}
	in.EnableHalting()
	if !in.HaltingEnabled() {
		t.Fatal("halting not enabled")
	}
	defer func() {
		if recover() == nil {
			t.Error("enabling halting twice did not panic")
		}
	}()
	in.EnableHalting()
}

func TestRegisterNative(t *testing.T) {
	in, _ := newTestInterpreter(t, Options{})
	_, err := in.RegisterNative(NativeDef{
		Name: "twice",
		Spec: `n [integer!]`,
		Fn: func(f *Frame) Bounce {
			return f.Return(Integer(f.Arg(1).Int * 2))
		},
	})
	if err != nil {
		t.Fatalf("RegisterNative: %v", err)
	}
	if v := mustDo(t, in, "twice 4"); v.Int != 8 {
		t.Errorf("twice 4 = %s", Mold(&v))
	}
}

func TestExtNatives(t *testing.T) {
	RegisterExtNatives("test-ext", []NativeDef{{
		Name: "answer",
		Fn:   func(f *Frame) Bounce { return f.Return(Integer(42)) },
	}})
	defer RegisterExtNatives("test-ext", nil)

	in, _ := newTestInterpreter(t, Options{})
	if v := mustDo(t, in, "answer"); v.Int != 42 {
		t.Errorf("answer = %s", Mold(&v))
	}
}
