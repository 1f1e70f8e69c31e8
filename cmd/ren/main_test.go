package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunExpression(t *testing.T) {
	code, out, errOut := runCLI(t, "", "-e", `print 1 + 2 * 3`)
	if code != exitOK {
		t.Fatalf("exit %d, stderr %q", code, errOut)
	}
	if out != "9\n" {
		t.Errorf("stdout = %q, want 9", out)
	}
}

func TestRunStdin(t *testing.T) {
	code, out, _ := runCLI(t, `x: 5 print x`, "-")
	if code != exitOK || out != "5\n" {
		t.Errorf("exit %d, stdout %q", code, out)
	}
}

func TestRunFileWithError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.reb")
	if err := os.WriteFile(path, []byte("print \"before\"\nnowhere\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	code, out, errOut := runCLI(t, "", path)
	if code != exitFailed {
		t.Errorf("exit %d, want %d", code, exitFailed)
	}
	if out != "before\n" {
		t.Errorf("stdout = %q", out)
	}
	if !strings.Contains(errOut, "bad.reb:2") || !strings.Contains(errOut, "not-bound") {
		t.Errorf("stderr = %q", errOut)
	}
	if strings.Contains(errOut, colorRed) {
		t.Errorf("colored output written to a buffer")
	}
}

func TestRunConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "ren.yaml")
	if err := os.WriteFile(cfg, []byte("max_depth: 20\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	src := `f: func [n] [either n = 0 [0] [f n - 1]] f 1000`
	code, _, errOut := runCLI(t, "", "-config", cfg, "-e", src)
	if code != exitFailed || !strings.Contains(errOut, "stack-overflow") {
		t.Errorf("exit %d, stderr %q", code, errOut)
	}

	if err := os.WriteFile(cfg, []byte("max_depth: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	code, _, errOut = runCLI(t, "", "-config", cfg, "-e", "1")
	if code != exitFailed || !strings.Contains(errOut, "max_depth") {
		t.Errorf("exit %d, stderr %q", code, errOut)
	}
}

func TestRunHalt(t *testing.T) {
	code, _, errOut := runCLI(t, "", "-e", `catch [trap [halt]] print "unreached"`)
	if code != exitHalted || !strings.Contains(errOut, "halted") {
		t.Errorf("exit %d, stderr %q", code, errOut)
	}
}

func TestUsageErrors(t *testing.T) {
	if code, _, _ := runCLI(t, "", "-nope"); code != exitUsage {
		t.Errorf("unknown flag: exit %d", code)
	}
	if code, _, _ := runCLI(t, "", "-e", "1", "file.reb"); code != exitUsage {
		t.Errorf("-e with file: exit %d", code)
	}
}
