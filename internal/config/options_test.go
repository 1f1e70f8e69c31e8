package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseOptions(t *testing.T) {
	data := []byte(`
interrupt_interval: 10
max_depth: 500
log_level: debug
halting: true
`)
	o, err := ParseOptions(data, "ren.yaml")
	if err != nil {
		t.Fatalf("ParseOptions: %v", err)
	}
	if o.InterruptInterval != 10 || o.MaxDepth != 500 || !o.Halting {
		t.Errorf("unexpected options: %+v", o)
	}
	if o.PoolBuckets != DefaultPoolBuckets || o.SymbolTableSize != DefaultSymbolTableSize {
		t.Errorf("defaults not applied: %+v", o)
	}
	if o.Level() != slog.LevelDebug {
		t.Errorf("Level() = %v, want debug", o.Level())
	}
}

func TestParseOptionsErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"negative", "pool_buckets: -1", "pool_buckets must not be negative"},
		{"tiny depth", "max_depth: 3", "max_depth 3 is too small"},
		{"bad level", "log_level: loud", "log_level"},
		{"bad yaml", "max_depth: [", "parsing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOptions([]byte(tt.data), "ren.yaml")
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
			if !strings.HasPrefix(err.Error(), "ren.yaml") && tt.name != "bad yaml" {
				t.Errorf("error %q is not qualified by path", err)
			}
		})
	}
}

func TestFindOptions(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	path, err := FindOptions(nested)
	if err != nil {
		t.Fatalf("FindOptions: %v", err)
	}
	if path != "" && strings.HasPrefix(path, root) {
		t.Fatalf("found %s before creating one", path)
	}

	want := filepath.Join(root, "ren.yaml")
	if err := os.WriteFile(want, []byte("max_depth: 100\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	path, err = FindOptions(nested)
	if err != nil {
		t.Fatalf("FindOptions: %v", err)
	}
	if path != want {
		t.Errorf("FindOptions = %q, want %q", path, want)
	}

	o, err := LoadOptions(path)
	if err != nil {
		t.Fatalf("LoadOptions: %v", err)
	}
	if o.MaxDepth != 100 {
		t.Errorf("MaxDepth = %d, want 100", o.MaxDepth)
	}
}
