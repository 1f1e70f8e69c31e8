package ren_test

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	ren "github.com/hostilefork/rebol-sub000/pkg/embed"
)

func startup(t *testing.T) (*ren.Engine, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	e, err := ren.Startup(ren.Options{Output: &out})
	if err != nil {
		t.Fatalf("Startup: %v", err)
	}
	return e, &out
}

func TestRunAndUnbox(t *testing.T) {
	e, out := startup(t)

	h, err := e.Run(`print "hi" 20 + 22`)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	n, err := e.UnboxInteger(h)
	if err != nil {
		t.Fatalf("UnboxInteger: %v", err)
	}
	if n != 42 {
		t.Errorf("expected 42, got %d", n)
	}
	if out.String() != "hi\n" {
		t.Errorf("output = %q", out.String())
	}

	if _, err := e.UnboxText(h); !errors.Is(err, ren.ErrKindMismatch) {
		t.Errorf("expected kind mismatch, got %v", err)
	}
	if err := e.Release(h); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := e.Release(h); !errors.Is(err, ren.ErrUnknownHandle) {
		t.Errorf("double release: expected ErrUnknownHandle, got %v", err)
	}
	if err := e.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestNullResult(t *testing.T) {
	e, _ := startup(t)
	defer e.Shutdown()

	h, err := e.Run(`if false [1]`)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !h.IsNull() {
		t.Errorf("expected null handle, got %s", h)
	}
	if err := e.Release(h); err != nil {
		t.Errorf("releasing null: %v", err)
	}
}

func TestRunValues(t *testing.T) {
	e, _ := startup(t)

	add, err := e.Run(`:add`)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	a, b := e.Integer(1000), e.Integer(20)
	sum, err := e.RunValues(add, a, b)
	if err != nil {
		t.Fatalf("RunValues failed: %v", err)
	}
	if n, _ := e.UnboxInteger(sum); n != 1020 {
		t.Errorf("expected 1020, got %d", n)
	}

	not, err := e.Run(`:not`)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	r, err := e.RunValues(not, ren.Handle{})
	if err != nil {
		t.Fatalf("RunValues with null: %v", err)
	}
	if ok, _ := e.UnboxLogic(r); !ok {
		t.Errorf("not null should be true")
	}

	for _, h := range []ren.Handle{add, a, b, sum, not, r} {
		if err := e.Release(h); err != nil {
			t.Fatalf("Release: %v", err)
		}
	}
	if err := e.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestSpellAndText(t *testing.T) {
	e, _ := startup(t)
	defer e.Shutdown()

	h := e.Text("a b")
	s, err := e.Spell(h)
	if err != nil || s != "a b" {
		t.Errorf("Spell = %q, %v", s, err)
	}
	m, err := e.Mold(h)
	if err != nil || m != `"a b"` {
		t.Errorf("Mold = %q, %v", m, err)
	}
	w, err := e.Run(`the foo`)
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := e.Spell(w); s != "foo" {
		t.Errorf("Spell of word = %q", s)
	}
	e.Release(h)
	e.Release(w)
}

func TestErrorsAreDistinct(t *testing.T) {
	e, _ := startup(t)
	defer e.Shutdown()

	_, err := e.Run(`1 + undefined-word`)
	var re *ren.Error
	if !errors.As(err, &re) {
		t.Fatalf("expected *ren.Error, got %T: %v", err, err)
	}
	if re.ID != "binding/not-bound" {
		t.Errorf("ID = %s", re.ID)
	}

	_, err = e.Run(`throw 1`)
	var ut *ren.UncaughtThrowError
	if !errors.As(err, &ut) {
		t.Fatalf("expected *ren.UncaughtThrowError, got %T: %v", err, err)
	}
	if errors.As(err, &re) {
		t.Errorf("uncaught throw also matched *ren.Error")
	}
	if ut.Value != "1" {
		t.Errorf("thrown value = %s", ut.Value)
	}

	_, err = e.Run(`return 2`)
	if !errors.As(err, &ut) {
		t.Fatalf("return outside a function: expected *ren.UncaughtThrowError, got %T: %v", err, err)
	}
	if ut.Value != "2" {
		t.Errorf("returned value = %s", ut.Value)
	}

	_, err = e.Run(`halt`)
	if !errors.Is(err, ren.ErrHalted) {
		t.Errorf("expected ErrHalted, got %v", err)
	}
}

func TestShutdownReportsLeaks(t *testing.T) {
	e, _ := startup(t)
	e.Integer(1)
	e.Text("leaked")
	if e.Outstanding() != 2 {
		t.Errorf("Outstanding = %d, want 2", e.Outstanding())
	}
	err := e.Shutdown()
	if err == nil || !strings.Contains(err.Error(), "2 handles") {
		t.Errorf("expected leak report, got %v", err)
	}
	if _, err := e.Run("1"); !errors.Is(err, ren.ErrShutdown) {
		t.Errorf("Run after Shutdown: %v", err)
	}
}

func TestBind(t *testing.T) {
	e, _ := startup(t)
	defer e.Shutdown()

	if err := e.Bind("double", func(x int) int { return x * 2 }); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if err := e.Bind("join-all", func(parts []string) string { return strings.Join(parts, "-") }); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if err := e.Bind("check", func(n int) (int, error) {
		if n < 0 {
			return 0, fmt.Errorf("negative: %d", n)
		}
		return n, nil
	}); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	h, err := e.Run(`reduce [double 21 join-all ["a" "b" "c"]]`)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	got, err := e.Unbox(h)
	if err != nil {
		t.Fatal(err)
	}
	list, ok := got.([]any)
	if !ok || len(list) != 2 {
		t.Fatalf("expected 2-element list, got %#v", got)
	}
	if list[0] != int64(42) {
		t.Errorf("expected 42, got %#v", list[0])
	}
	if list[1] != "a-b-c" {
		t.Errorf("expected a-b-c, got %#v", list[1])
	}
	e.Release(h)

	_, err = e.Run(`check -1`)
	var re *ren.Error
	if !errors.As(err, &re) || !strings.Contains(re.Message, "negative: -1") {
		t.Errorf("expected host failure, got %v", err)
	}

	h, err = e.Run(`trap [check -5]`)
	if err != nil {
		t.Fatalf("trap of host failure: %v", err)
	}
	if m, _ := e.Mold(h); !strings.Contains(m, "negative") {
		t.Errorf("trapped error = %s", m)
	}
	e.Release(h)

	if err := e.Bind("bad", 3); err == nil {
		t.Error("binding a non-function succeeded")
	}
}

func TestRunFile(t *testing.T) {
	e, out := startup(t)
	defer e.Shutdown()

	path := filepath.Join(t.TempDir(), "script.reb")
	src := "square: func [x] [x * x]\nprint square 9\nsquare 4\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	h, err := e.RunFile(path)
	if err != nil {
		t.Fatalf("RunFile: %v", err)
	}
	defer e.Release(h)
	if n, _ := e.UnboxInteger(h); n != 16 {
		t.Errorf("expected 16, got %d", n)
	}
	if out.String() != "81\n" {
		t.Errorf("output = %q", out.String())
	}

	if _, err := e.RunFile(filepath.Join(t.TempDir(), "missing.reb")); err == nil {
		t.Error("expected error for missing file")
	}
}
