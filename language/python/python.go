// Package python provides the Python executor for codepit.
//
// Snippets run on CPython compiled to WASI and hosted by wazero. The
// runtime is fetched and compiled lazily, once per executor; concurrent
// first callers share the same load. A failed load is not remembered, so
// the next call tries again.
//
// Inside the guest a small harness captures stdout and stderr, formats
// tracebacks and reports {output, error} back to the host.
package python

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/caffeineduck/codepit/executor"
	"golang.org/x/sync/singleflight"
)

// Python implements executor.Executor on top of a Loader.
type Python struct {
	loader Loader
	cfg    config

	group  singleflight.Group
	mu     sync.RWMutex
	interp Interpreter
}

// New returns a Python executor. Nothing is loaded until the first Run or
// Initialize.
func New(loader Loader, opts ...Option) *Python {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Python{loader: loader, cfg: cfg}
}

// Initialize loads the runtime. It is idempotent and safe for concurrent
// use; callers arriving during a load wait for that load.
func (p *Python) Initialize(ctx context.Context) error {
	_, err := p.interpreter(ctx)
	return err
}

// IsInitialized reports whether the runtime is loaded.
func (p *Python) IsInitialized() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.interp != nil
}

func (p *Python) interpreter(ctx context.Context) (Interpreter, error) {
	p.mu.RLock()
	interp := p.interp
	p.mu.RUnlock()
	if interp != nil {
		return interp, nil
	}

	ch := p.group.DoChan("load", func() (any, error) {
		p.mu.RLock()
		interp := p.interp
		p.mu.RUnlock()
		if interp != nil {
			return interp, nil
		}

		// the load is shared, so one caller giving up must not cancel it
		interp, err := p.loader.Load(context.WithoutCancel(ctx))
		if err != nil {
			p.cfg.logger.Warn("python runtime load failed", slog.String("error", err.Error()))
			return nil, err
		}

		p.mu.Lock()
		p.interp = interp
		p.mu.Unlock()
		return interp, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Interpreter), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run executes code, loading the runtime first if needed.
func (p *Python) Run(ctx context.Context, code string) executor.Result {
	start := time.Now()

	if strings.TrimSpace(code) == "" {
		return executor.Failure(executor.MsgNoCode)
	}

	// the load is bounded by the loader's fetch timeout and the caller's
	// context; the run timeout starts once the runtime is ready
	interp, err := p.interpreter(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return executor.Result{Error: executor.TimeoutMessage(ctx.Err()), Duration: time.Since(start)}
		}
		return executor.Result{
			Error:    fmt.Sprintf("Failed to load Python runtime: %v", err),
			Duration: time.Since(start),
		}
	}

	if p.cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.timeout)
		defer cancel()
	}

	stream := executor.NewCapture(p.cfg.maxChars, p.cfg.maxLines)
	env, err := interp.Exec(ctx, code, p.cfg.maxChars, stream)

	switch {
	case ctx.Err() != nil:
		return executor.Result{
			Output:   stream.String(),
			Error:    executor.TimeoutMessage(ctx.Err()),
			Duration: time.Since(start),
		}
	case err != nil:
		return executor.Result{
			Output:   stream.String(),
			Error:    err.Error(),
			Duration: time.Since(start),
		}
	}

	out := executor.NewCapture(p.cfg.maxChars, p.cfg.maxLines)
	out.Write([]byte(env.Output))

	result := executor.Result{Output: out.String(), Duration: time.Since(start)}
	if env.Error != "" {
		result.Error = CleanTraceback(env.Error)
	}
	if result.Output == "" && result.Error == "" {
		result.Output = executor.MsgNoOutput
	}
	return result
}

// Close releases the loaded runtime. A later call loads it again.
func (p *Python) Close(ctx context.Context) error {
	p.mu.Lock()
	interp := p.interp
	p.interp = nil
	p.mu.Unlock()

	if interp == nil {
		return nil
	}
	return interp.Close(ctx)
}
