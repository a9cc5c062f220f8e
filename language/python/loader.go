package python

import (
	"context"
	"io"
)

// Loader produces a ready Interpreter. It is called at most once per
// successful initialization of an executor.
type Loader interface {
	Load(ctx context.Context) (Interpreter, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) (Interpreter, error)

// Load calls f(ctx).
func (f LoaderFunc) Load(ctx context.Context) (Interpreter, error) {
	return f(ctx)
}

// Interpreter runs snippets on a loaded runtime.
type Interpreter interface {
	// Exec runs code through the capture harness. Program output is
	// streamed to stream as it is produced; the returned Envelope is the
	// harness's own view of the run. The guest stops buffering output past
	// maxChars characters; zero disables the limit.
	Exec(ctx context.Context, code string, maxChars int, stream io.Writer) (Envelope, error)

	// Close releases the runtime.
	Close(ctx context.Context) error
}
