package executor

import (
	"strings"
	"sync"
	"testing"
	"unicode/utf8"
)

func TestCaptureLines(t *testing.T) {
	c := NewCapture(0, 0)
	c.Line("a")
	c.PrefixedLine("Error: ", "b")
	c.Write([]byte("c\n"))

	if got, want := c.String(), "a\nError: b\nc\n"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestCaptureReset(t *testing.T) {
	c := NewCapture(0, 0)
	c.Line("a")
	c.Reset()
	c.Line("b")
	if got := c.String(); got != "b\n" {
		t.Errorf("String() = %q, want %q", got, "b\n")
	}
}

func TestCaptureMaxLines(t *testing.T) {
	c := NewCapture(0, 3)
	for i := 0; i < 10; i++ {
		c.Line("x")
	}
	if !c.Truncated() {
		t.Fatal("expected truncation")
	}
	if got, want := c.String(), "x\nx\nx\n"+truncatedMarker; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestCaptureMaxChars(t *testing.T) {
	c := NewCapture(5, 0)
	c.Line("hello world")
	c.Line("dropped")

	got := c.String()
	if !strings.HasPrefix(got, "hello\n") {
		t.Errorf("expected prefix to be kept, got %q", got)
	}
	if !strings.HasSuffix(got, truncatedMarker) {
		t.Errorf("expected truncation marker, got %q", got)
	}
	if strings.Contains(got, "dropped") {
		t.Errorf("output after the limit must be dropped: %q", got)
	}
}

func TestCaptureMaxCharsKeepsRunes(t *testing.T) {
	tests := []struct {
		limit int
		want  string
	}{
		{2, "h\n"},
		{3, "hé\n"},
		{7, "héllo \n"},
		{8, "héllo \n"},
		{10, "héllo 日\n"},
	}
	for _, tt := range tests {
		c := NewCapture(tt.limit, 0)
		c.Line("héllo 日本")

		got := c.String()
		if !utf8.ValidString(got) {
			t.Errorf("limit %d: invalid UTF-8 %q", tt.limit, got)
		}
		if want := tt.want + truncatedMarker; got != want {
			t.Errorf("limit %d: got %q, want %q", tt.limit, got, want)
		}
	}
}

func TestCaptureConcurrentWrites(t *testing.T) {
	c := NewCapture(0, 0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Line("line")
		}()
	}
	wg.Wait()

	if got := strings.Count(c.String(), "line\n"); got != 50 {
		t.Errorf("expected 50 lines, got %d", got)
	}
}
