package executor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Dispatcher is the single entry point for running snippets. It validates
// input, resolves the executor through its Registry, enforces the deadline
// and folds every failure into Result.Error.
type Dispatcher struct {
	registry *Registry
	cfg      dispatcherConfig

	mu    sync.Mutex
	slots map[Language]chan struct{}
}

// NewDispatcher returns a Dispatcher backed by registry.
func NewDispatcher(registry *Registry, opts ...Option) *Dispatcher {
	cfg := defaultDispatcherConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if registry == nil {
		registry = NewRegistry()
	}
	return &Dispatcher{
		registry: registry,
		cfg:      cfg,
		slots:    make(map[Language]chan struct{}),
	}
}

// Registry returns the registry the dispatcher resolves executors from.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// IsLanguageSupported reports whether RunCode can execute lang.
func (d *Dispatcher) IsLanguageSupported(lang Language) bool {
	return d.registry.IsLanguageSupported(lang)
}

// RunCode executes code as lang. It always returns a Result and never
// panics; errors of every kind end up in Result.Error.
func (d *Dispatcher) RunCode(ctx context.Context, code string, lang Language) (result Result) {
	start := time.Now()
	defer func() {
		result.Duration = time.Since(start)
		d.cfg.logger.Debug("run finished",
			slog.String("language", string(lang)),
			slog.Duration("duration", result.Duration),
			slog.Bool("failed", result.Failed()),
		)
	}()

	if strings.TrimSpace(code) == "" {
		return Failure(MsgNoCode)
	}

	if !d.registry.IsLanguageSupported(lang) {
		name := strings.TrimSpace(string(lang))
		return Failure(fmt.Sprintf("%s execution is not supported in this environment", name))
	}

	exec, err := d.registry.Executor(lang)
	if err != nil {
		d.cfg.logger.Warn("executor unavailable", slog.String("language", string(lang)), slog.Any("error", err))
		return Failure(err.Error())
	}

	if d.cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.timeout)
		defer cancel()
	}

	slot := d.slot(Normalize(lang))
	select {
	case slot <- struct{}{}:
		defer func() { <-slot }()
	case <-ctx.Done():
		return Failure(TimeoutMessage(ctx.Err()))
	}

	return d.run(ctx, exec, code)
}

// run races the executor against ctx. Executors are expected to stop on
// their own once ctx is done; one that does not is abandoned after the
// grace period.
func (d *Dispatcher) run(ctx context.Context, exec Executor, code string) Result {
	done := make(chan Result, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- Failure(fmt.Sprintf("executor panic: %v", p))
			}
		}()
		done <- exec.Run(ctx, code)
	}()

	select {
	case res := <-done:
		return res
	case <-ctx.Done():
	}

	grace := time.NewTimer(d.cfg.grace)
	defer grace.Stop()

	select {
	case res := <-done:
		return res
	case <-grace.C:
		d.cfg.logger.Warn("executor ignored deadline, abandoning run")
		return Failure(TimeoutMessage(ctx.Err()))
	}
}

// slot returns the single-entry semaphore that keeps one run in flight per
// executor.
func (d *Dispatcher) slot(lang Language) chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.slots[lang]
	if !ok {
		s = make(chan struct{}, 1)
		d.slots[lang] = s
	}
	return s
}
