// Package executor runs code snippets through per-language executors and
// returns a normalized Result.
//
// # Overview
//
// A [Dispatcher] is the single entry point. It rejects empty code, resolves
// an [Executor] for the requested [Language] from a [Registry], applies a
// deadline and folds every failure into [Result.Error]. Nothing is thrown
// past RunCode.
//
// # Basic Usage
//
//	registry := executor.NewRegistry()
//	registry.Register(executor.JavaScript, func() (executor.Executor, error) {
//	    return javascript.New(), nil
//	})
//
//	d := executor.NewDispatcher(registry, executor.WithTimeout(5*time.Second))
//	result := d.RunCode(ctx, `console.log("hi")`, executor.TypeScript)
//	fmt.Print(result.Output) // hi
//
// # Output Capture
//
// Executors write into a [Capture] created for each run instead of patching
// a shared print facility, so output cannot leak between runs.
//
// # Isolation
//
// Executors differ widely in isolation strength. The JavaScript executor
// evaluates code in-process and should not be exposed to untrusted users
// beyond a single local user; the Python executor runs inside a WebAssembly
// sandbox. Both are terminated, not just abandoned, when the deadline passes.
//
// # Adding a Language
//
// Implement [Executor] and register a [Factory] for the language.
// See [github.com/caffeineduck/codepit/language/python] for an example.
package executor
