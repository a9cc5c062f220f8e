package executor

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   Language
		want Language
	}{
		{JavaScript, JavaScript},
		{TypeScript, JavaScript},
		{"TypeScript", JavaScript},
		{" python ", Python},
		{Rust, Rust},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	tests := map[string]Language{
		"js":         JavaScript,
		"JS":         JavaScript,
		"ts":         TypeScript,
		"py":         Python,
		"javascript": JavaScript,
		"cobol":      "cobol",
	}
	for in, want := range tests {
		if got := Parse(in); got != want {
			t.Errorf("Parse(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFromExtension(t *testing.T) {
	tests := map[string]Language{
		".py":  Python,
		"js":   JavaScript,
		".mjs": JavaScript,
		".ts":  TypeScript,
		".txt": "",
	}
	for in, want := range tests {
		if got := FromExtension(in); got != want {
			t.Errorf("FromExtension(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestKnown(t *testing.T) {
	if !Markdown.Known() {
		t.Error("markdown should be known")
	}
	if Language("cobol").Known() {
		t.Error("cobol should not be known")
	}
	if len(Languages()) != 20 {
		t.Errorf("expected 20 languages, got %d", len(Languages()))
	}
}
