package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/caffeineduck/codepit/executor"
	"github.com/caffeineduck/codepit/snippet"
	"github.com/spf13/cobra"
)

// isolate keeps tests away from config and .env files in the working
// directory and from a real Python download.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("CODEPIT_CONFIG", filepath.Join(t.TempDir(), "none.yaml"))
	t.Setenv("CODEPIT_PYTHON_ENABLED", "false")
	t.Setenv("CODEPIT_STORE_DSN", "memory://")
	t.Setenv("CODEPIT_LOG_LEVEL", "error")
}

func executeCommand(root *cobra.Command, stdin string, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestCLIHelp(t *testing.T) {
	isolate(t)
	output, err := executeCommand(newRootCmd(), "", "--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectedPhrases := []string{
		"codepit",
		"WebAssembly",
		"run",
		"repl",
		"serve",
		"export",
		"import",
		"languages",
		"--store",
	}

	for _, phrase := range expectedPhrases {
		if !strings.Contains(output, phrase) {
			t.Errorf("help output should contain %q", phrase)
		}
	}
}

func TestCLISubcommandHelp(t *testing.T) {
	isolate(t)

	tests := []struct {
		cmd     string
		phrases []string
	}{
		{"run", []string{"--code", "--lang", "--timeout"}},
		{"repl", []string{"--lang", "--history", "Command history", "Multi-line", ":lang"}},
		{"serve", []string{"--addr", "--run-rate", "/api/run", "/api/snippets"}},
		{"export", []string{"--out", "--s3"}},
		{"import", []string{"--replace", "--s3"}},
		{"list", []string{"--lang", "--sort"}},
	}
	for _, tt := range tests {
		t.Run(tt.cmd, func(t *testing.T) {
			output, err := executeCommand(newRootCmd(), "", tt.cmd, "--help")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, phrase := range tt.phrases {
				if !strings.Contains(output, phrase) {
					t.Errorf("%s help output should contain %q", tt.cmd, phrase)
				}
			}
		})
	}
}

func TestCLIRunJavaScript(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		args []string
		in   string
		want string
	}{
		{"inline", []string{"run", "--lang", "js", "-c", "console.log(1 + 1)"}, "", "2\n"},
		{"default command", []string{"--lang", "javascript", "-c", "console.log('hi')"}, "", "hi\n"},
		{"typescript", []string{"run", "--lang", "ts", "-c", "console.log([1, 2].length)"}, "", "2\n"},
		{"stdin", []string{"run", "--lang", "js"}, "console.log('piped')", "piped\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := executeCommand(newRootCmd(), tt.in, tt.args...)
			if err != nil {
				t.Fatalf("unexpected error: %v (%s)", err, output)
			}
			if output != tt.want {
				t.Errorf("output = %q, want %q", output, tt.want)
			}
		})
	}
}

func TestCLIRunFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "hello.js")
	if err := os.WriteFile(path, []byte(`console.log("from file")`), 0o644); err != nil {
		t.Fatal(err)
	}

	output, err := executeCommand(newRootCmd(), "", "run", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output != "from file\n" {
		t.Errorf("output = %q", output)
	}
}

func TestCLIRunErrors(t *testing.T) {
	isolate(t)

	tests := []struct {
		name    string
		args    []string
		wantErr error
		phrase  string
	}{
		{"runtime error", []string{"run", "--lang", "js", "-c", "throw new Error('boom')"}, errRunFailed, "Error: boom"},
		{"blocked keyword", []string{"run", "--lang", "js", "-c", "eval('1')"}, errRunFailed, executor.MsgBlocked},
		{"unsupported language", []string{"run", "--lang", "rust", "-c", "fn main() {}"}, errRunFailed, "not supported"},
		{"python disabled", []string{"run", "--lang", "py", "-c", "print(1)"}, errRunFailed, "not supported"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := executeCommand(newRootCmd(), "", tt.args...)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if !strings.Contains(output, tt.phrase) {
				t.Errorf("output %q should contain %q", output, tt.phrase)
			}
		})
	}
}

func TestCLIRunNeedsLanguage(t *testing.T) {
	isolate(t)
	_, err := executeCommand(newRootCmd(), "", "run", "-c", "1")
	if err == nil || !strings.Contains(err.Error(), "language required") {
		t.Errorf("expected language error, got %v", err)
	}
}

func TestCLIRunTimeout(t *testing.T) {
	isolate(t)
	output, err := executeCommand(newRootCmd(), "", "run", "--lang", "js", "--timeout", "200ms", "-c", "while (true) {}")
	if !errors.Is(err, errRunFailed) {
		t.Fatalf("expected run failure, got %v", err)
	}
	if !strings.Contains(output, executor.MsgTimeout) {
		t.Errorf("output %q should mention the timeout", output)
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		flag, file string
		want       executor.Language
		wantErr    bool
	}{
		{"js", "", executor.JavaScript, false},
		{"", "script.py", executor.Python, false},
		{"", "app.TS", executor.TypeScript, false},
		{"python", "script.js", executor.Python, false},
		{"", "notes.txt", "", true},
		{"", "", "", true},
	}
	for _, tt := range tests {
		got, err := detectLanguage(tt.flag, tt.file)
		if (err != nil) != tt.wantErr {
			t.Errorf("detectLanguage(%q, %q) error = %v", tt.flag, tt.file, err)
			continue
		}
		if got != tt.want {
			t.Errorf("detectLanguage(%q, %q) = %q, want %q", tt.flag, tt.file, got, tt.want)
		}
	}
}

func TestCLILanguages(t *testing.T) {
	isolate(t)
	output, err := executeCommand(newRootCmd(), "", "languages")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		switch fields[0] {
		case "javascript", "typescript":
			if fields[1] != "yes" {
				t.Errorf("%s should be executable", fields[0])
			}
		case "python", "rust":
			if fields[1] != "no" {
				t.Errorf("%s should not be executable with python disabled", fields[0])
			}
		}
	}
}

func TestCLIImportAndExport(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	// the memory store lives for one command, so export starts empty
	_, err := executeCommand(newRootCmd(), "", "export", "-o", filepath.Join(dir, "out.json"))
	if !errors.Is(err, snippet.ErrNoSnippets) {
		t.Errorf("expected ErrNoSnippets, got %v", err)
	}

	bundle := `{"version":"1.0.0","snippets":[{"title":"a","code":"1"},{"title":"A","code":"2"},{"title":"b"}]}`
	path := filepath.Join(dir, "bundle.json")
	os.WriteFile(path, []byte(bundle), 0o644)

	output, err := executeCommand(newRootCmd(), "", "import", path)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(output, "Imported 2 snippets, skipped 1") {
		t.Errorf("output = %q", output)
	}

	output, err = executeCommand(newRootCmd(), bundle, "import", "-")
	if err != nil || !strings.Contains(output, "Imported 2") {
		t.Errorf("import from stdin: %v %q", err, output)
	}

	if _, err := executeCommand(newRootCmd(), `{"snippets":[]}`, "import", "-"); !errors.Is(err, snippet.ErrInvalidBundle) {
		t.Errorf("expected ErrInvalidBundle, got %v", err)
	}
}

func TestCLIS3NotConfigured(t *testing.T) {
	isolate(t)
	t.Setenv("CODEPIT_S3_ENDPOINT", "")
	t.Setenv("CODEPIT_S3_BUCKET", "")

	_, err := executeCommand(newRootCmd(), "", "import", "--s3", "codepit-snippets-2024-01-01.json")
	if !errors.Is(err, errNoArchive) {
		t.Errorf("expected errNoArchive, got %v", err)
	}
}

func TestCLIListEmpty(t *testing.T) {
	isolate(t)
	for _, cmd := range []string{"list", "stats"} {
		output, err := executeCommand(newRootCmd(), "", cmd)
		if err != nil {
			t.Fatalf("%s: %v", cmd, err)
		}
		if !strings.Contains(output, "No snippets found") {
			t.Errorf("%s output = %q", cmd, output)
		}
	}
}

func TestCLIBadFlags(t *testing.T) {
	isolate(t)
	if _, err := executeCommand(newRootCmd(), "", "--log-level", "loud", "languages"); err == nil {
		t.Error("expected invalid log level error")
	}
	if _, err := executeCommand(newRootCmd(), "", "--store", "mongodb://x", "list"); err == nil {
		t.Error("expected unsupported store error")
	}
	if _, err := executeCommand(newRootCmd(), "", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "languages"); err == nil {
		t.Error("expected missing config file error")
	}
}
