package scan

import (
	"errors"
	"testing"
)

func scanOne(t *testing.T, src string) Item {
	t.Helper()
	items, err := Scan(src, "test.reb")
	if err != nil {
		t.Fatalf("Scan(%q): %v", src, err)
	}
	if len(items) != 1 {
		t.Fatalf("Scan(%q): got %d items, want 1", src, len(items))
	}
	return items[0]
}

func TestScanAtoms(t *testing.T) {
	tests := []struct {
		src  string
		kind Kind
		text string
	}{
		{"foo", Word, "foo"},
		{"foo:", SetWord, "foo"},
		{":foo", GetWord, "foo"},
		{"@foo", SymWord, "foo"},
		{"/only", Refinement, "only"},
		{"+", Word, "+"},
		{"->", Word, "->"},
		{"equal?", Word, "equal?"},
		{"integer!", Word, "integer!"},
		{"<opt>", Tag, "opt"},
		{"<", Word, "<"},
		{"#abc", Issue, "abc"},
		{`"hi"`, Text, "hi"},
		{`"a^"b^/"`, Text, "a\"b\n"},
		{"_", Blank, ""},
		{"~", Void, ""},
	}
	for _, tt := range tests {
		item := scanOne(t, tt.src)
		if item.Kind != tt.kind {
			t.Errorf("%q: kind = %s, want %s", tt.src, item.Kind, tt.kind)
		}
		if item.Text != tt.text {
			t.Errorf("%q: text = %q, want %q", tt.src, item.Text, tt.text)
		}
	}
}

func TestScanIntegers(t *testing.T) {
	for src, want := range map[string]int64{"0": 0, "42": 42, "-7": -7, "+3": 3} {
		item := scanOne(t, src)
		if item.Kind != Integer || item.Int != want {
			t.Errorf("%q: got %s %d, want integer %d", src, item.Kind, item.Int, want)
		}
	}
}

func TestScanNesting(t *testing.T) {
	items, err := Scan("f: func [a b] [reduce [a b]]\n(print 1)", "")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(items) != 5 {
		t.Fatalf("got %d items, want 5", len(items))
	}
	if items[3].Kind != Block || len(items[3].Items) != 2 || items[3].Items[1].Kind != Block {
		t.Errorf("body block scanned as %+v", items[3])
	}
	if items[4].Kind != Group || !items[4].NewlineBefore || items[4].Line != 2 {
		t.Errorf("group = %+v, want newline-before group on line 2", items[4])
	}
}

func TestScanSetForms(t *testing.T) {
	if item := scanOne(t, "[a b]:"); item.Kind != SetBlock || len(item.Items) != 2 {
		t.Errorf("set-block scanned as %+v", item)
	}
	if item := scanOne(t, "(x):"); item.Kind != SetGroup {
		t.Errorf("set-group scanned as %+v", item)
	}
	if item := scanOne(t, "obj/field:"); item.Kind != SetPath || len(item.Items) != 2 {
		t.Errorf("set-path scanned as %+v", item)
	}
	if item := scanOne(t, ":append/only"); item.Kind != GetPath || item.Items[1].Text != "only" {
		t.Errorf("get-path scanned as %+v", item)
	}
	if item := scanOne(t, "blk/2"); item.Kind != Path || item.Items[1].Kind != Integer {
		t.Errorf("path scanned as %+v", item)
	}
}

func TestScanQuotes(t *testing.T) {
	if item := scanOne(t, "''x"); item.Kind != Word || item.Quotes != 2 {
		t.Errorf("''x scanned as %+v", item)
	}
	if item := scanOne(t, "'[1 2]"); item.Kind != Block || item.Quotes != 1 {
		t.Errorf("'[1 2] scanned as %+v", item)
	}
}

func TestScanComments(t *testing.T) {
	items, err := Scan("1 ; one\n2", "")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(items) != 2 || items[1].Int != 2 {
		t.Fatalf("comment not skipped: %+v", items)
	}
}

func TestScanErrors(t *testing.T) {
	for _, src := range []string{"[1 2", "1 2]", `"open`, "(1]", "' ", "a//b", "<tag"} {
		_, err := Scan(src, "bad.reb")
		var se *Error
		if !errors.As(err, &se) {
			t.Errorf("Scan(%q): err = %v, want *scan.Error", src, err)
			continue
		}
		if se.File != "bad.reb" || se.Line != 1 {
			t.Errorf("Scan(%q): position %s:%d", src, se.File, se.Line)
		}
	}
}
