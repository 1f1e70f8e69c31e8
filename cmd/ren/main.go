package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/mattn/go-isatty"

	"github.com/hostilefork/rebol-sub000/internal/config"
	"github.com/hostilefork/rebol-sub000/internal/pipeline"
)

const (
	colorRed   = "\033[31m"
	colorReset = "\033[0m"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
	exitHalted = 130
)

func main() {
	// Catch panics and show user-friendly error
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(exitFailed)
		}
	}()
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ren", flag.ContinueOnError)
	fs.SetOutput(stderr)
	expr := fs.String("e", "", "evaluate `source` instead of a file")
	configPath := fs.String("config", "", "options `file` (default: ren.yaml searched upward)")
	debug := fs.Bool("debug", false, "log evaluator events to stderr")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: ren [flags] [file%s | -]\n", config.SourceFileExt)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	opts, err := loadOptions(*configPath)
	if err != nil {
		report(stderr, err.Error())
		return exitFailed
	}

	level := opts.Level()
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	source, filePath, err := readSource(fs.Args(), *expr, stdin)
	if err != nil {
		report(stderr, err.Error())
		return exitUsage
	}
	if source == "" {
		return exitOK
	}

	in, err := pipeline.NewInterpreter(opts, logger, stdout)
	if err != nil {
		report(stderr, err.Error())
		return exitFailed
	}
	if !in.HaltingEnabled() {
		in.EnableHalting()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		in.RequestHalt()
	}()

	final := pipeline.Default().Run(pipeline.NewPipelineContext(context.Background(), in, source, filePath))
	if final.Halted() {
		report(stderr, "halted")
		return exitHalted
	}
	if len(final.Errors) > 0 {
		for _, err := range final.Errors {
			report(stderr, pipeline.FormatError(err))
		}
		return exitFailed
	}
	return exitOK
}

// loadOptions reads the -config file, or the nearest ren.yaml, or falls
// back to the defaults.
func loadOptions(path string) (*config.Options, error) {
	if path == "" {
		found, err := config.FindOptions(".")
		if err != nil {
			return nil, err
		}
		if found == "" {
			return config.Default(), nil
		}
		path = found
	}
	return config.LoadOptions(path)
}

func readSource(args []string, expr string, stdin io.Reader) (source, filePath string, err error) {
	if expr != "" {
		if len(args) > 0 {
			return "", "", fmt.Errorf("-e and a file argument are exclusive")
		}
		return expr, "", nil
	}
	if len(args) == 0 || args[0] == "-" {
		if f, ok := stdin.(*os.File); ok && len(args) == 0 {
			if stat, err := f.Stat(); err == nil && stat.Mode()&os.ModeCharDevice != 0 {
				return "", "", fmt.Errorf("usage: ren <file%s> or pipe from stdin", config.SourceFileExt)
			}
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("reading input: %w", err)
		}
		return string(data), "", nil
	}
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("reading input: %w", err)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return string(data), path, nil
}

// report writes a diagnostic, in red when stderr is a terminal.
func report(w io.Writer, msg string) {
	if useColor(w) {
		fmt.Fprintf(w, "%s%s%s\n", colorRed, msg, colorReset)
		return
	}
	fmt.Fprintln(w, msg)
}

func useColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
