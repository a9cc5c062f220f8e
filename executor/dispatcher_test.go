package executor

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newStubDispatcher(stub *StubExecutor, opts ...Option) *Dispatcher {
	registry := NewRegistry()
	registry.Register(JavaScript, StubFactory(stub, nil))
	return NewDispatcher(registry, opts...)
}

func TestRunCodeEmpty(t *testing.T) {
	stub := &StubExecutor{}
	d := newStubDispatcher(stub)

	for _, code := range []string{"", "   ", "\n\t"} {
		result := d.RunCode(context.Background(), code, JavaScript)
		if result.Output != "" || result.Error != MsgNoCode {
			t.Errorf("RunCode(%q) = %+v, want no-code error", code, result)
		}
	}
	if len(stub.Calls()) != 0 {
		t.Errorf("executor should not be invoked, got %d calls", len(stub.Calls()))
	}
}

func TestRunCodeUnsupportedLanguage(t *testing.T) {
	d := newStubDispatcher(&StubExecutor{})

	for _, lang := range []Language{Rust, SQL, Python, "cobol"} {
		if d.IsLanguageSupported(lang) {
			t.Errorf("IsLanguageSupported(%s) = true", lang)
		}
		result := d.RunCode(context.Background(), "x", lang)
		if result.Output != "" {
			t.Errorf("%s: expected empty output, got %q", lang, result.Output)
		}
		want := string(lang) + " execution is not supported in this environment"
		if result.Error != want {
			t.Errorf("%s: error = %q, want %q", lang, result.Error, want)
		}
	}
}

func TestRunCodeTypeScriptUsesJavaScriptExecutor(t *testing.T) {
	stub := &StubExecutor{}
	d := newStubDispatcher(stub)

	js := d.RunCode(context.Background(), "let a = 1", JavaScript)
	ts := d.RunCode(context.Background(), "let a = 1", TypeScript)

	if js.Output != ts.Output || js.Error != ts.Error {
		t.Errorf("results differ: js=%+v ts=%+v", js, ts)
	}
	if got := len(stub.Calls()); got != 2 {
		t.Errorf("expected both runs on the same executor, got %d calls", got)
	}
}

func TestRunCodeRecoversPanic(t *testing.T) {
	stub := &StubExecutor{RunFunc: func(ctx context.Context, code string) Result {
		panic("boom")
	}}
	d := newStubDispatcher(stub)

	result := d.RunCode(context.Background(), "x", JavaScript)
	if !strings.Contains(result.Error, "boom") {
		t.Errorf("expected panic message in error, got %q", result.Error)
	}
}

func TestRunCodeFactoryError(t *testing.T) {
	registry := NewRegistry()
	registry.Register(Python, func() (Executor, error) {
		return nil, context.DeadlineExceeded
	})
	d := NewDispatcher(registry)

	result := d.RunCode(context.Background(), "print(1)", Python)
	if !result.Failed() {
		t.Fatal("expected error")
	}
	if !strings.Contains(result.Error, "create python executor") {
		t.Errorf("unexpected error: %q", result.Error)
	}
}

func TestRunCodeAbandonsStuckExecutor(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	stub := &StubExecutor{RunFunc: func(ctx context.Context, code string) Result {
		<-release
		return Result{Output: "late"}
	}}
	d := newStubDispatcher(stub,
		WithTimeout(50*time.Millisecond),
		WithGracePeriod(50*time.Millisecond),
	)

	start := time.Now()
	result := d.RunCode(context.Background(), "x", JavaScript)
	if result.Error != MsgTimeout {
		t.Errorf("error = %q, want %q", result.Error, MsgTimeout)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("dispatcher waited too long: %v", elapsed)
	}
}

func TestRunCodeHonoursExecutorTimeout(t *testing.T) {
	stub := &StubExecutor{RunFunc: func(ctx context.Context, code string) Result {
		<-ctx.Done()
		return Result{Output: "partial\n", Error: TimeoutMessage(ctx.Err())}
	}}
	d := newStubDispatcher(stub, WithTimeout(50*time.Millisecond))

	result := d.RunCode(context.Background(), "x", JavaScript)
	if result.Error != MsgTimeout {
		t.Errorf("error = %q, want %q", result.Error, MsgTimeout)
	}
	if result.Output != "partial\n" {
		t.Errorf("partial output lost: %q", result.Output)
	}
}

func TestRunCodeSerializesPerExecutor(t *testing.T) {
	var inFlight, maxInFlight atomic.Int32
	stub := &StubExecutor{RunFunc: func(ctx context.Context, code string) Result {
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return Result{Output: code}
	}}
	d := newStubDispatcher(stub)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.RunCode(context.Background(), "x", TypeScript)
		}()
	}
	wg.Wait()

	if got := maxInFlight.Load(); got != 1 {
		t.Errorf("expected one run in flight at a time, saw %d", got)
	}
}

func TestRunCodeRecordsDuration(t *testing.T) {
	d := newStubDispatcher(&StubExecutor{})
	result := d.RunCode(context.Background(), "x", JavaScript)
	if result.Duration <= 0 {
		t.Error("expected positive duration")
	}
}
