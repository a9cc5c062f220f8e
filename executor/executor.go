// Package executor provides a language-agnostic code execution dispatcher.
package executor

import (
	"context"
	"errors"
	"time"
)

// Messages surfaced to callers in Result.
const (
	MsgNoCode    = "No code to execute"
	MsgNoOutput  = "Code executed successfully (no output)"
	MsgTimeout   = "Execution timeout"
	MsgCancelled = "Execution cancelled"
	MsgBlocked   = "Code contains blocked keywords for security reasons"
)

// DefaultTimeout bounds a single run when no other timeout is configured.
const DefaultTimeout = 10 * time.Second

var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrTimeout             = errors.New("execution timeout")
)

// Result holds the output and metadata from code execution.
// Error is empty unless the run failed or the runtime wrote to its error
// stream.
type Result struct {
	Output   string
	Error    string
	Duration time.Duration
}

// Failed reports whether the run produced an error.
func (r Result) Failed() bool {
	return r.Error != ""
}

// Executor runs source code for one language.
//
// Implementations must not panic on bad input and must honour ctx:
// when ctx is done, Run returns promptly with whatever output was captured.
type Executor interface {
	// Run executes code and returns its captured output or error.
	Run(ctx context.Context, code string) Result

	// Initialize prepares the underlying runtime. It is idempotent and safe
	// to call concurrently.
	Initialize(ctx context.Context) error

	// IsInitialized reports whether the runtime is ready.
	IsInitialized() bool
}

// Failure builds a Result that carries only an error message.
func Failure(msg string) Result {
	return Result{Error: msg}
}

// TimeoutMessage maps a context error to the message reported to callers.
func TimeoutMessage(err error) string {
	if errors.Is(err, context.Canceled) {
		return MsgCancelled
	}
	return MsgTimeout
}
