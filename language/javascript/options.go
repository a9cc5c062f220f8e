package javascript

import (
	"time"

	"github.com/caffeineduck/codepit/executor"
)

const defaultMaxCallStack = 10000

type config struct {
	timeout      time.Duration
	blocked      []string
	maxChars     int
	maxLines     int
	maxCallStack int
}

func defaultConfig() config {
	return config{
		timeout:      executor.DefaultTimeout,
		blocked:      DefaultBlockedKeywords,
		maxChars:     executor.DefaultMaxOutputChars,
		maxLines:     executor.DefaultMaxOutputLines,
		maxCallStack: defaultMaxCallStack,
	}
}

// Option configures the JavaScript executor.
type Option func(*config)

// WithTimeout bounds a single run. Zero leaves only the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithBlockedKeywords replaces the keyword denylist.
func WithBlockedKeywords(keywords ...string) Option {
	return func(c *config) {
		c.blocked = keywords
	}
}

// WithOutputLimits caps captured console output. Zero disables a limit.
func WithOutputLimits(maxChars, maxLines int) Option {
	return func(c *config) {
		c.maxChars = maxChars
		c.maxLines = maxLines
	}
}

// WithMaxCallStackSize limits recursion depth.
func WithMaxCallStackSize(n int) Option {
	return func(c *config) {
		c.maxCallStack = n
	}
}
