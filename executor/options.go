package executor

import (
	"log/slog"
	"time"
)

// Option configures a Dispatcher.
type Option func(*dispatcherConfig)

type dispatcherConfig struct {
	timeout time.Duration
	grace   time.Duration
	logger  *slog.Logger
}

func defaultDispatcherConfig() dispatcherConfig {
	return dispatcherConfig{
		timeout: DefaultTimeout,
		grace:   time.Second,
		logger:  slog.Default(),
	}
}

// WithTimeout sets the deadline applied to every run. Zero disables the
// dispatcher deadline and leaves timeouts to the executors.
func WithTimeout(d time.Duration) Option {
	return func(c *dispatcherConfig) {
		c.timeout = d
	}
}

// WithGracePeriod sets how long the dispatcher keeps waiting for an
// executor to return after the deadline before abandoning it.
func WithGracePeriod(d time.Duration) Option {
	return func(c *dispatcherConfig) {
		c.grace = d
	}
}

// WithLogger sets the logger used for per-run diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *dispatcherConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
