package executor

import (
	"strings"
	"sync"
	"unicode/utf8"
)

// Output limits applied to a single run.
const (
	DefaultMaxOutputChars = 10000
	DefaultMaxOutputLines = 1000
)

const truncatedMarker = "... output truncated\n"

// Capture is the in-memory sink a run writes its output into. A fresh
// Capture is created for every run, so nothing leaks between runs and no
// shared print facility has to be patched and restored.
//
// Capture is safe for concurrent use: a runtime may still be writing from
// its own goroutine while the caller reads the partial output after a
// timeout.
type Capture struct {
	mu        sync.Mutex
	buf       strings.Builder
	lines     int
	maxChars  int
	maxLines  int
	truncated bool
}

// NewCapture returns an empty sink with the given limits. Zero or negative
// limits disable the corresponding check.
func NewCapture(maxChars, maxLines int) *Capture {
	return &Capture{maxChars: maxChars, maxLines: maxLines}
}

// Write appends raw stream data. It never fails so that runtimes writing to
// it are not disturbed once the limit is hit.
func (c *Capture) Write(p []byte) (int, error) {
	c.append(string(p))
	return len(p), nil
}

// Line appends s followed by a single "\n".
func (c *Capture) Line(s string) {
	c.append(s + "\n")
}

// PrefixedLine appends a line tagged with prefix, e.g. "Error: ".
func (c *Capture) PrefixedLine(prefix, s string) {
	c.append(prefix + s + "\n")
}

func (c *Capture) append(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.truncated || s == "" {
		return
	}

	if c.maxLines > 0 {
		remaining := c.maxLines - c.lines
		if n := strings.Count(s, "\n"); n > remaining {
			s = cutAfterLines(s, remaining)
			c.truncated = true
		}
	}

	if c.maxChars > 0 && c.buf.Len()+len(s) > c.maxChars {
		s = cutAtRune(s, c.maxChars-c.buf.Len())
		c.truncated = true
	}

	c.buf.WriteString(s)
	c.lines += strings.Count(s, "\n")

	if c.truncated {
		if c.buf.Len() > 0 && !strings.HasSuffix(c.buf.String(), "\n") {
			c.buf.WriteByte('\n')
		}
		c.buf.WriteString(truncatedMarker)
	}
}

// String returns everything captured so far.
func (c *Capture) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

// Truncated reports whether output was dropped because of the limits.
func (c *Capture) Truncated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.truncated
}

// Reset clears the sink so it can be reused for a new run.
func (c *Capture) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.Reset()
	c.lines = 0
	c.truncated = false
}

// cutAfterLines keeps the first n complete lines of s.
func cutAfterLines(s string, n int) string {
	if n <= 0 {
		return ""
	}
	idx := 0
	for i := 0; i < n; i++ {
		next := strings.IndexByte(s[idx:], '\n')
		if next == -1 {
			return s
		}
		idx += next + 1
	}
	return s[:idx]
}

// cutAtRune keeps at most n bytes of s without splitting a rune.
func cutAtRune(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if n >= len(s) {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
