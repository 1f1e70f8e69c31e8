package pipeline

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hostilefork/rebol-sub000/internal/config"
	"github.com/hostilefork/rebol-sub000/internal/evaluator"
)

func newContext(t *testing.T, src string) (*PipelineContext, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	in, err := NewInterpreter(config.Default(), nil, &out)
	if err != nil {
		t.Fatalf("NewInterpreter: %v", err)
	}
	return NewPipelineContext(context.Background(), in, src, "test.reb"), &out
}

func TestDefaultPipeline(t *testing.T) {
	ctx, out := newContext(t, `x: 1 + 2 print ["x is" x] x * 10`)
	ctx = Default().Run(ctx)
	if err := ctx.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := evaluator.Mold(&ctx.Result); got != "30" {
		t.Errorf("result = %s, want 30", got)
	}
	if got := out.String(); got != "x is 3\n" {
		t.Errorf("output = %q", got)
	}
}

func TestScanErrorStopsPipeline(t *testing.T) {
	ctx, out := newContext(t, `print "never" [1 2`)
	ctx = Default().Run(ctx)
	if len(ctx.Errors) != 1 {
		t.Fatalf("expected one error, got %v", ctx.Errors)
	}
	if !errors.Is(ctx.Errors[0], &evaluator.Error{ID: evaluator.ErrScan}) {
		t.Errorf("expected scan error, got %v", ctx.Errors[0])
	}
	if ctx.Code != nil || out.Len() != 0 {
		t.Errorf("later stages ran after a scan error")
	}
}

func TestEvaluatorRequiresBinding(t *testing.T) {
	ctx, _ := newContext(t, `1`)
	ctx = New(&ScanProcessor{}, &EvaluatorProcessor{}).Run(ctx)
	if err := ctx.Err(); err == nil || !strings.Contains(err.Error(), "unbound") {
		t.Fatalf("expected unbound code error, got %v", err)
	}
}

func TestFormatError(t *testing.T) {
	ctx, _ := newContext(t, "\n\nfoo")
	ctx = Default().Run(ctx)
	if len(ctx.Errors) == 0 {
		t.Fatal("expected an error")
	}
	msg := FormatError(ctx.Errors[0])
	if !strings.HasPrefix(msg, "ERROR at test.reb:3:") {
		t.Errorf("FormatError = %q", msg)
	}

	ctx, _ = newContext(t, `throw 1`)
	ctx = Default().Run(ctx)
	var ut *evaluator.UncaughtThrowError
	if !errors.As(ctx.Err(), &ut) {
		t.Fatalf("expected uncaught throw, got %v", ctx.Err())
	}
	if ctx.Halted() {
		t.Errorf("a throw is not a halt")
	}
}

func TestHaltedRun(t *testing.T) {
	ctx, _ := newContext(t, `halt`)
	ctx = Default().Run(ctx)
	if !ctx.Halted() {
		t.Fatalf("expected halt, got %v", ctx.Err())
	}
}
