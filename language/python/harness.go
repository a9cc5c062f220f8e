package python

import (
	_ "embed"
	"encoding/json"
	"strconv"
)

//go:embed harness.py
var harness string

// Script returns the program passed to `python -c`: the harness followed
// by a call with the snippet as a JSON string literal, which is also a
// valid Python literal, so quotes and newlines in code cannot escape it.
// The guest keeps at most maxChars+1 characters of output; zero keeps all.
func Script(code string, maxChars int) string {
	quoted, _ := json.Marshal(code)
	return harness + "\n_codepit_run(" + string(quoted) + ", " + strconv.Itoa(max(maxChars, 0)) + ")\n"
}

// Args returns the command-line arguments for the interpreter.
func Args(code string, maxChars int) []string {
	return []string{"python", "-c", Script(code, maxChars)}
}
