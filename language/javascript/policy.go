package javascript

import (
	"regexp"
	"strings"
)

// DefaultBlockedKeywords are rejected before a snippet reaches the engine.
var DefaultBlockedKeywords = []string{"require", "import", "export", "eval", "Function", "process"}

// Policy is a textual keyword denylist. Keywords match as whole words, so
// "important" passes while "import(" does not.
//
// It is a heuristic only. Computed property access such as
// globalThis["ev"+"al"] is not detected.
type Policy struct {
	keywords []string
	re       *regexp.Regexp
}

// NewPolicy compiles a denylist. An empty list allows everything.
func NewPolicy(keywords []string) *Policy {
	p := &Policy{}
	quoted := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		p.keywords = append(p.keywords, kw)
		quoted = append(quoted, regexp.QuoteMeta(kw))
	}
	if len(quoted) > 0 {
		p.re = regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
	}
	return p
}

// Check returns the first blocked keyword found in code.
func (p *Policy) Check(code string) (string, bool) {
	if p == nil || p.re == nil {
		return "", false
	}
	match := p.re.FindString(code)
	return match, match != ""
}

// Keywords returns the configured denylist.
func (p *Policy) Keywords() []string {
	return append([]string(nil), p.keywords...)
}
