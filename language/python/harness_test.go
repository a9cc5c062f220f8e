package python

import (
	"strings"
	"testing"
)

func TestHarnessContents(t *testing.T) {
	if len(harness) == 0 {
		t.Fatal("harness not embedded")
	}
	checks := []string{
		"def _codepit_run(source, limit=0):",
		`compile(source, "<snippet>", "exec")`,
		"traceback.format_exc()",
		`"\x00CODEPIT:"`,
	}
	for _, check := range checks {
		if !strings.Contains(harness, check) {
			t.Errorf("harness missing %q", check)
		}
	}
}

func TestScriptQuotesCode(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{`print('x')`, `_codepit_run("print('x')", 100)`},
		{"a = \"q\"\nprint(a)", `_codepit_run("a = \"q\"\nprint(a)", 100)`},
		{`print("\\")`, `_codepit_run("print(\"\\\\\")", 100)`},
		{`""")`, `_codepit_run("\"\"\")", 100)`},
	}
	for _, tt := range tests {
		script := Script(tt.code, 100)
		if !strings.HasPrefix(script, harness) {
			t.Errorf("script for %q does not start with the harness", tt.code)
		}
		if !strings.HasSuffix(script, tt.want+"\n") {
			t.Errorf("script for %q ends with %q, want %q", tt.code, script[len(harness):], tt.want)
		}
	}
}

func TestScriptOutputLimit(t *testing.T) {
	tests := []struct {
		limit int
		want  string
	}{
		{10000, `_codepit_run("pass", 10000)`},
		{0, `_codepit_run("pass", 0)`},
		{-1, `_codepit_run("pass", 0)`},
	}
	for _, tt := range tests {
		if got := Script("pass", tt.limit); !strings.HasSuffix(got, tt.want+"\n") {
			t.Errorf("Script(limit %d) ends with %q, want %q", tt.limit, got[len(harness):], tt.want)
		}
	}
}

func TestArgs(t *testing.T) {
	args := Args("pass", 0)
	if len(args) != 3 || args[0] != "python" || args[1] != "-c" {
		t.Errorf("unexpected args: %q", args[:2])
	}
}
