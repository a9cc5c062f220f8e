// Package javascript provides the JavaScript/TypeScript executor for codepit.
//
// Code runs in-process on the goja engine. Every run gets a fresh engine and
// event loop, so globals do not survive between runs. This is the weakest
// isolation available in codepit: the keyword denylist is a textual filter,
// not a sandbox, and this executor should only serve a single local user.
package javascript

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/caffeineduck/codepit/executor"
	"github.com/dop251/goja"
	"github.com/dop251/goja/ast"
	"github.com/dop251/goja_nodejs/eventloop"
)

const scriptName = "snippet.js"

// The wrapper opens on the snippet's first line so reported line numbers
// match the snippet.
const (
	wrapperHead = "(async function() {"
	wrapperTail = "\n})()"
)

var errWrapperEscape = errors.New("SyntaxError: unexpected '}' closes the snippet body")

// JavaScript implements executor.Executor for JavaScript and TypeScript.
// TypeScript is executed as-is; there is no type checking or stripping.
type JavaScript struct {
	cfg    config
	policy *Policy
}

// New returns a JavaScript executor.
func New(opts ...Option) *JavaScript {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &JavaScript{
		cfg:    cfg,
		policy: NewPolicy(cfg.blocked),
	}
}

// Initialize is a no-op; the engine is created per run.
func (j *JavaScript) Initialize(ctx context.Context) error {
	return nil
}

// IsInitialized always reports true.
func (j *JavaScript) IsInitialized() bool {
	return true
}

// Run executes code inside an async function so top-level await works.
// Output printed before a failure or timeout is kept in Result.Output.
func (j *JavaScript) Run(ctx context.Context, code string) executor.Result {
	start := time.Now()

	if strings.TrimSpace(code) == "" {
		return executor.Failure(executor.MsgNoCode)
	}

	if _, blocked := j.policy.Check(code); blocked {
		return executor.Result{Error: executor.MsgBlocked, Duration: time.Since(start)}
	}

	if j.cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.cfg.timeout)
		defer cancel()
	}

	capture := executor.NewCapture(j.cfg.maxChars, j.cfg.maxLines)
	run := &run{done: make(chan error, 1)}

	loop := eventloop.NewEventLoop()
	loop.Start()
	loop.RunOnLoop(func(vm *goja.Runtime) {
		if !run.attach(vm) {
			return
		}
		j.evaluate(vm, capture, code, run.settle)
	})

	select {
	case err := <-run.done:
		loop.Stop()
		result := executor.Result{Output: capture.String(), Duration: time.Since(start)}
		var interrupted *goja.InterruptedError
		switch {
		case errors.As(err, &interrupted):
			result.Error = executor.TimeoutMessage(ctx.Err())
		case err != nil:
			result.Error = err.Error()
		case result.Output == "":
			result.Output = executor.MsgNoOutput
		}
		return result

	case <-ctx.Done():
		run.abort(executor.ErrTimeout)
		loop.Stop()
		return executor.Result{
			Output:   capture.String(),
			Error:    executor.TimeoutMessage(ctx.Err()),
			Duration: time.Since(start),
		}
	}
}

// evaluate runs on the event loop goroutine.
func (j *JavaScript) evaluate(vm *goja.Runtime, capture *executor.Capture, code string, settle func(error)) {
	if j.cfg.maxCallStack > 0 {
		vm.SetMaxCallStackSize(j.cfg.maxCallStack)
	}
	vm.GlobalObject().Delete("require")

	if err := installConsole(vm, capture); err != nil {
		settle(err)
		return
	}

	prg, err := compileSnippet(code)
	if err != nil {
		settle(err)
		return
	}

	value, err := vm.RunProgram(prg)
	if err != nil {
		settle(scriptError(vm, err))
		return
	}

	promise, ok := value.Export().(*goja.Promise)
	if !ok {
		settle(nil)
		return
	}

	switch promise.State() {
	case goja.PromiseStateFulfilled:
		settle(nil)
		return
	case goja.PromiseStateRejected:
		settle(rejection(vm, promise.Result()))
		return
	}

	then, ok := goja.AssertFunction(value.ToObject(vm).Get("then"))
	if !ok {
		settle(errors.New("snippet did not produce a promise"))
		return
	}

	onFulfilled := func(goja.FunctionCall) goja.Value {
		settle(nil)
		return goja.Undefined()
	}
	onRejected := func(call goja.FunctionCall) goja.Value {
		settle(rejection(vm, call.Argument(0)))
		return goja.Undefined()
	}
	if _, err := then(value, vm.ToValue(onFulfilled), vm.ToValue(onRejected)); err != nil {
		settle(scriptError(vm, err))
	}
}

// compileSnippet wraps code in an async function so top-level await works.
// Code that closes the wrapper early and continues at the top level is
// rejected.
func compileSnippet(code string) (*goja.Program, error) {
	src := wrapperHead + code + wrapperTail
	prg, err := goja.Parse(scriptName, src)
	if err != nil {
		return nil, err
	}
	if !wrapsWholeSnippet(prg, len(src)) {
		return nil, errWrapperEscape
	}
	return goja.CompileAST(prg, false)
}

// wrapsWholeSnippet reports whether prg is exactly one call of the wrapper
// function and that function's body ends at the wrapper's closing brace.
func wrapsWholeSnippet(prg *ast.Program, srcLen int) bool {
	if len(prg.Body) != 1 {
		return false
	}
	stmt, ok := prg.Body[0].(*ast.ExpressionStatement)
	if !ok {
		return false
	}
	call, ok := stmt.Expression.(*ast.CallExpression)
	if !ok || len(call.ArgumentList) != 0 {
		return false
	}
	fn, ok := call.Callee.(*ast.FunctionLiteral)
	if !ok || !fn.Async || fn.Body == nil {
		return false
	}
	brace := srcLen - len(wrapperTail) + 1
	return int(fn.Body.RightBrace) == brace+1 // file.Idx is 1-based
}

// run tracks the engine of one execution so a timeout can interrupt it,
// even if the timeout fires before the loop picked the job up.
type run struct {
	mu      sync.Mutex
	vm      *goja.Runtime
	aborted bool
	done    chan error
}

func (r *run) attach(vm *goja.Runtime) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.aborted {
		return false
	}
	r.vm = vm
	return true
}

func (r *run) abort(reason error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aborted = true
	if r.vm != nil {
		r.vm.Interrupt(reason)
	}
}

func (r *run) settle(err error) {
	select {
	case r.done <- err:
	default:
	}
}

// scriptError turns an engine error into the message shown to the user.
func scriptError(vm *goja.Runtime, err error) error {
	var exc *goja.Exception
	if errors.As(err, &exc) {
		return rejection(vm, exc.Value())
	}
	return err
}

// rejection extracts the message of a thrown value: error.message when
// present, otherwise the value's string form.
func rejection(vm *goja.Runtime, reason goja.Value) error {
	if reason == nil || goja.IsUndefined(reason) || goja.IsNull(reason) {
		return errors.New("Failed to execute JavaScript code")
	}
	if obj, ok := reason.(*goja.Object); ok {
		if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) {
			return errors.New(msg.String())
		}
	}
	return errors.New(reason.String())
}
