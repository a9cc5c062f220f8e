package executor

import (
	"context"
	"sync"
	"sync/atomic"
)

// StubExecutor is an Executor test double. RunFunc decides the result of
// each run; when nil, the code is echoed back as output.
type StubExecutor struct {
	RunFunc func(ctx context.Context, code string) Result

	mu    sync.Mutex
	codes []string
	inits atomic.Int32
}

// Run records code and delegates to RunFunc.
func (s *StubExecutor) Run(ctx context.Context, code string) Result {
	s.mu.Lock()
	s.codes = append(s.codes, code)
	s.mu.Unlock()

	if s.RunFunc != nil {
		return s.RunFunc(ctx, code)
	}
	return Result{Output: code}
}

// Initialize counts calls.
func (s *StubExecutor) Initialize(ctx context.Context) error {
	s.inits.Add(1)
	return nil
}

// IsInitialized always reports true.
func (s *StubExecutor) IsInitialized() bool {
	return true
}

// Calls returns the code passed to every Run so far.
func (s *StubExecutor) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.codes))
	copy(out, s.codes)
	return out
}

// StubFactory returns a Factory that always yields exec and counts how many
// times it was invoked.
func StubFactory(exec Executor, built *atomic.Int32) Factory {
	return func() (Executor, error) {
		if built != nil {
			built.Add(1)
		}
		return exec, nil
	}
}
