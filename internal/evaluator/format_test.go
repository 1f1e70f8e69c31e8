package evaluator

import (
	"context"
	"testing"
)

func TestMold(t *testing.T) {
	in, _ := newTestInterpreter(t, Options{})
	tests := []struct {
		src  string
		want string
	}{
		{`the "a^"b"`, `"a^"b"`},
		{"the [1 [2 three] (four)]", "[1 [2 three] (four)]"},
		{"the a/b/1", "a/b/1"},
		{"the x:", "x:"},
		{"the :x", ":x"},
		{"the @x", "@x"},
		{"the /only", "/only"},
		{"the <tag>", "<tag>"},
		{"the #issue", "#issue"},
		{"the '''x", "'''x"},
		{"integer!", "integer!"},
		{"true", "true"},
		{"null", "null"},
		{"_", "_"},
		{"make object! [a: 1 b: [x]]", "make object! [a: 1 b: [x]]"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			v, err := in.DoString(context.Background(), tt.src, "mold")
			if err != nil {
				t.Fatalf("%s: %v", tt.src, err)
			}
			if got := Mold(&v); got != tt.want {
				t.Errorf("Mold(%s) = %s, want %s", tt.src, got, tt.want)
			}
		})
	}
}

func TestMoldCycle(t *testing.T) {
	inner := NewArray(nil)
	b := BlockOf(KindBlock, inner)
	inner.Cells = append(inner.Cells, Integer(1), b)
	if got, want := Mold(&b), "[1 [...]]"; got != want {
		t.Errorf("Mold of a cyclic block = %s, want %s", got, want)
	}
}

func TestForm(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Text("a b"), "a b"},
		{Integer(-3), "-3"},
		{Void(), ""},
		{BlockOf(KindBlock, NewArray([]Value{Text("x"), Integer(1)})), "x 1"},
		{Text("q").Quoted(1), `'"q"`},
	}
	for _, tt := range tests {
		if got := Form(&tt.v); got != tt.want {
			t.Errorf("Form(%s) = %q, want %q", Mold(&tt.v), got, tt.want)
		}
	}
}
