package tests

import (
	"bytes"
	"flag"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/hostilefork/rebol-sub000/internal/config"
)

var keepBinary = flag.Bool("keep", false, "keep the test binary after the run")

// TestFunctional runs .reb files through the compiled binary
// and compares output with .want files.
// This tests the actual binary - what users see.
func TestFunctional(t *testing.T) {
	// Get project root (parent of tests/)
	projectRoot, err := filepath.Abs("..")
	if err != nil {
		t.Fatalf("Failed to get project root: %v", err)
	}

	binaryPath := filepath.Join(projectRoot, "ren-test-binary")
	if !*keepBinary {
		defer os.Remove(binaryPath)
	}

	// Always build fresh binary
	t.Log("Building fresh binary...")
	args := []string{"build", "-o", binaryPath, "./cmd/ren"}

	cmd := exec.Command("go", args...)
	cmd.Dir = projectRoot
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build binary: %v\n%s", err, output)
	}

	// Find all source files with .want files
	var testFiles []string
	err = filepath.Walk(".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		// Check if it's a source file
		for _, ext := range config.SourceFileExtensions {
			if strings.HasSuffix(path, ext) {
				// Check if .want file exists
				wantFile := strings.TrimSuffix(path, ext) + ".want"
				if _, err := os.Stat(wantFile); err == nil {
					testFiles = append(testFiles, path)
				}
				break
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to walk directory: %v", err)
	}

	if len(testFiles) == 0 {
		t.Skip("No test files with .want found")
	}

	for _, testFile := range testFiles {
		testFile := testFile
		testName := strings.TrimSuffix(filepath.Base(testFile), filepath.Ext(testFile))

		t.Run(testName, func(t *testing.T) {
			// Get absolute path for the test file
			absPath, err := filepath.Abs(testFile)
			if err != nil {
				t.Fatalf("Failed to get absolute path: %v", err)
			}

			// Read expected output
			ext := filepath.Ext(testFile)
			wantFile := strings.TrimSuffix(testFile, ext) + ".want"
			wantBytes, err := os.ReadFile(wantFile)
			if err != nil {
				t.Fatalf("Failed to read .want file: %v", err)
			}
			want := strings.TrimSpace(string(wantBytes))

			// Run from the test file's directory so ren.yaml next to it is found
			cmd := exec.Command(binaryPath, absPath)
			cmd.Dir = filepath.Dir(absPath)
			cmd.Env = append(os.Environ(), "NO_COLOR=1")
			var stdout, stderr bytes.Buffer
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr

			_ = cmd.Run()

			// Combine stdout and stderr - no normalization, exact output
			var got string
			stdoutStr := strings.TrimSpace(stdout.String())
			stderrStr := strings.TrimSpace(stderr.String())

			// Normalize paths in stderr (errors usually contain full paths now)
			// Replace /abs/path/to/project with nothing or relative path
			if stderrStr != "" {
				// Normalize paths to be relative to project root
				stderrStr = strings.ReplaceAll(stderrStr, projectRoot+"/", "")

				// "ERROR at /abs/dir/name.reb:3:" -> "ERROR at name.reb:3:"
				re := regexp.MustCompile(`(at )\S*/([^/\s]+\.reb:)`)
				stderrStr = re.ReplaceAllString(stderrStr, "$1$2")
			}

			// Combine: stdout first, then stderr
			if stdoutStr != "" && stderrStr != "" {
				got = stdoutStr + "\n" + stderrStr
			} else if stdoutStr != "" {
				got = stdoutStr
			} else {
				got = stderrStr
			}

			// Normalize line endings and trim spaces
			got = strings.TrimSpace(strings.ReplaceAll(got, "\r\n", "\n"))
			want = strings.TrimSpace(strings.ReplaceAll(want, "\r\n", "\n"))

			if got != want {
				t.Errorf("Output mismatch:\n--- want ---\n%s\n--- got ---\n%s", want, got)
			}
		})
	}
}
