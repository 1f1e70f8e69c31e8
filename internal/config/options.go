// Package config holds interpreter settings: the constants shared by the
// host layers and the options read from ren.yaml.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Options is the content of a ren.yaml file.
type Options struct {
	// InterruptInterval is how many expressions run between checks for a
	// halt request.
	InterruptInterval int `yaml:"interrupt_interval,omitempty"`

	// MaxDepth bounds the number of frames on the evaluation stack.
	MaxDepth int `yaml:"max_depth,omitempty"`

	// PoolBuckets is how many free frame var lists each size class keeps.
	PoolBuckets int `yaml:"pool_buckets,omitempty"`

	// SymbolTableSize is the initial size of the symbol table. It is rounded
	// up to the next supported prime.
	SymbolTableSize int `yaml:"symbol_table_size,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level,omitempty"`

	// Halting enables halt requests (Ctrl-C in the CLI) from startup.
	Halting bool `yaml:"halting,omitempty"`
}

// Default returns the options used when no file is found.
func Default() *Options {
	o := &Options{}
	o.setDefaults()
	return o
}

// LoadOptions reads and parses a ren.yaml file.
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading options %s: %w", path, err)
	}
	return ParseOptions(data, path)
}

// ParseOptions parses ren.yaml content from bytes.
// The path argument is used only for error messages.
func ParseOptions(data []byte, path string) (*Options, error) {
	var o Options
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := o.validate(path); err != nil {
		return nil, err
	}
	o.setDefaults()
	return &o, nil
}

// FindOptions searches for ren.yaml starting from dir and walking up to
// parent directories. It returns an empty path and nil error when there
// is none.
func FindOptions(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range OptionsFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func (o *Options) validate(path string) error {
	checks := []struct {
		name  string
		value int
	}{
		{"interrupt_interval", o.InterruptInterval},
		{"max_depth", o.MaxDepth},
		{"pool_buckets", o.PoolBuckets},
		{"symbol_table_size", o.SymbolTableSize},
	}
	for _, c := range checks {
		if c.value < 0 {
			return fmt.Errorf("%s: %s must not be negative, got %d", path, c.name, c.value)
		}
	}
	if o.MaxDepth != 0 && o.MaxDepth < 16 {
		return fmt.Errorf("%s: max_depth %d is too small to run anything (minimum 16)", path, o.MaxDepth)
	}
	if o.LogLevel != "" {
		if _, err := ParseLogLevel(o.LogLevel); err != nil {
			return fmt.Errorf("%s: log_level: %w", path, err)
		}
	}
	return nil
}

func (o *Options) setDefaults() {
	if o.InterruptInterval == 0 {
		o.InterruptInterval = DefaultInterruptInterval
	}
	if o.MaxDepth == 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.PoolBuckets == 0 {
		o.PoolBuckets = DefaultPoolBuckets
	}
	if o.SymbolTableSize == 0 {
		o.SymbolTableSize = DefaultSymbolTableSize
	}
	if o.LogLevel == "" {
		o.LogLevel = DefaultLogLevel
	}
}

// ParseLogLevel maps a level name to its slog level.
func ParseLogLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown level %q (want debug, info, warn or error)", name)
}

// Level is the parsed LogLevel. Options that passed validation always
// have a valid level.
func (o *Options) Level() slog.Level {
	lvl, err := ParseLogLevel(o.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}
