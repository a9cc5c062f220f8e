package python

import "testing"

func TestCleanTraceback(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "harness frame removed",
			in: "Traceback (most recent call last):\n" +
				"  File \"<string>\", line 31, in _codepit_run\n" +
				"  File \"<snippet>\", line 1, in <module>\n" +
				"ValueError: y\n",
			want: "Traceback (most recent call last):\n" +
				"  File \"<snippet>\", line 1, in <module>\n" +
				"ValueError: y",
		},
		{
			name: "harness source line removed",
			in: "Traceback (most recent call last):\n" +
				"  File \"<string>\", line 31, in _codepit_run\n" +
				"    exec(compiled, scope)\n" +
				"  File \"<snippet>\", line 2, in <module>\n" +
				"ZeroDivisionError: division by zero",
			want: "Traceback (most recent call last):\n" +
				"  File \"<snippet>\", line 2, in <module>\n" +
				"ZeroDivisionError: division by zero",
		},
		{
			name: "syntax error",
			in: "Traceback (most recent call last):\n" +
				"  File \"<string>\", line 28, in _codepit_run\n" +
				"  File \"<snippet>\", line 1\n" +
				"    print(\n" +
				"         ^\n" +
				"SyntaxError: '(' was never closed\n",
			want: "Traceback (most recent call last):\n" +
				"  File \"<snippet>\", line 1\n" +
				"    print(\n" +
				"         ^\n" +
				"SyntaxError: '(' was never closed",
		},
		{
			name: "plain stderr",
			in:   "  some warning\n",
			want: "some warning",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanTraceback(tt.in); got != tt.want {
				t.Errorf("CleanTraceback() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}
