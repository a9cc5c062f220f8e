// Package codepit stores code snippets and runs them in embedded sandboxes.
//
// # Overview
//
// JavaScript and TypeScript run in goja, a pure Go ECMAScript engine with
// no module loader. Python runs as a CPython WASI build inside wazero, with
// no filesystem or network beyond an in-memory standard library mount.
// Runs are bounded by a timeout and their captured output is truncated.
//
// # Running Code
//
//	registry := executor.NewRegistry()
//	registry.Register(executor.JavaScript, func() (executor.Executor, error) {
//	    return javascript.New(), nil
//	})
//	loader := python.NewLoader()
//	registry.Register(executor.Python, func() (executor.Executor, error) {
//	    return python.New(loader), nil
//	})
//	defer registry.Cleanup()
//
//	d := executor.NewDispatcher(registry)
//	result := d.RunCode(ctx, `console.log("hello")`, executor.JavaScript)
//	fmt.Println(result.Output) // hello
//
// Failures come back in Result.Error rather than as Go errors. Languages
// without a registered executor report that they are not supported.
//
// # Snippets
//
//	kv, _ := store.Open(ctx, "redis://localhost:6379/0")
//	svc := snippet.NewService(kv)
//
//	s, _ := svc.Add(ctx, snippet.Draft{Title: "fib", Code: code, Language: executor.Python})
//	list, _ := svc.List(ctx, snippet.Query{Text: "fib", Sort: snippet.SortTitle})
//	bundle, _ := svc.Export(ctx)
//
// Titles are unique ignoring case. Updates record revisions that can be
// listed and restored. Bundles produced by Export can be imported into any
// store, optionally replacing its contents.
//
// # Storage
//
// store.Open accepts memory://, redis:// and postgres:// DSNs. Bundles can
// also be archived to any S3-compatible bucket with the archive package.
//
// # Command Line
//
// The codepit command wraps all of the above: run, repl, serve, list,
// stats, export, import and languages. See codepit --help.
package codepit
