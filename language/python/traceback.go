package python

import "strings"

// harnessFile is the filename CPython reports for the `-c` harness.
const harnessFile = `File "<string>"`

// CleanTraceback removes harness frames from a formatted traceback so only
// frames from the snippet remain. Text that is not a traceback is returned
// trimmed but otherwise unchanged.
func CleanTraceback(tb string) string {
	lines := strings.Split(tb, "\n")
	out := make([]string, 0, len(lines))

	skipSource := false
	for _, line := range lines {
		if skipSource {
			skipSource = false
			// source and caret lines are indented deeper than the frame line
			if strings.HasPrefix(line, "    ") {
				continue
			}
		}
		if strings.Contains(line, harnessFile) {
			skipSource = true
			continue
		}
		out = append(out, line)
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}
