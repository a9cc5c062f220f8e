// Package bench measures codepit's execution and snippet paths.
//
// Run with: go test -v -run=Test ./bench/
// Benchmarks: go test -bench=. -benchtime=3x ./bench/
//
// Python benchmarks download the runtime on first use and only run when
// CODEPIT_BENCH_PYTHON is set.
package bench

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/caffeineduck/codepit/executor"
	"github.com/caffeineduck/codepit/language/javascript"
	"github.com/caffeineduck/codepit/language/python"
	"github.com/caffeineduck/codepit/snippet"
	"github.com/caffeineduck/codepit/store"
)

func newDispatcher(tb testing.TB) *executor.Dispatcher {
	tb.Helper()
	registry := executor.NewRegistry()
	registry.Register(executor.JavaScript, func() (executor.Executor, error) {
		return javascript.New(), nil
	})
	if os.Getenv("CODEPIT_BENCH_PYTHON") != "" {
		loader := python.NewLoader()
		registry.Register(executor.Python, func() (executor.Executor, error) {
			return python.New(loader), nil
		})
	}
	tb.Cleanup(registry.Cleanup)
	return executor.NewDispatcher(registry)
}

// --- JavaScript: cold start (fresh executor each run) ---

func BenchmarkJS_ColdStart(b *testing.B) {
	ctx := context.Background()
	for i := 0; i < b.N; i++ {
		js := javascript.New()
		js.Run(ctx, "var x = 1")
	}
}

// --- JavaScript: through the dispatcher ---

func BenchmarkJS_Dispatch(b *testing.B) {
	d := newDispatcher(b)
	ctx := context.Background()
	d.RunCode(ctx, "var x = 1", executor.JavaScript)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.RunCode(ctx, "var x = 1", executor.JavaScript)
	}
}

func BenchmarkJS_Dispatch_Print(b *testing.B) {
	d := newDispatcher(b)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.RunCode(ctx, "console.log('hello')", executor.JavaScript)
	}
}

func BenchmarkJS_Dispatch_Computation(b *testing.B) {
	d := newDispatcher(b)
	ctx := context.Background()
	code := "let s = 0; for (let i = 0; i < 1000; i++) s += i; console.log(s)"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.RunCode(ctx, code, executor.JavaScript)
	}
}

func BenchmarkJS_Dispatch_Parallel(b *testing.B) {
	d := newDispatcher(b)
	ctx := context.Background()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			d.RunCode(ctx, "console.log(1)", executor.JavaScript)
		}
	})
}

// --- Python (opt-in) ---

func BenchmarkPython_Warm(b *testing.B) {
	if os.Getenv("CODEPIT_BENCH_PYTHON") == "" {
		b.Skip("set CODEPIT_BENCH_PYTHON to benchmark Python")
	}
	d := newDispatcher(b)
	ctx := context.Background()
	if r := d.RunCode(ctx, "x = 1", executor.Python); r.Error != "" {
		b.Fatalf("warmup failed: %s", r.Error)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.RunCode(ctx, "print('hello')", executor.Python)
	}
}

// --- Native Node.js for reference ---

func BenchmarkNative_Node(b *testing.B) {
	if _, err := exec.LookPath("node"); err != nil {
		b.Skip("node not available")
	}
	for i := 0; i < b.N; i++ {
		exec.Command("node", "-e", "var x = 1").Run()
	}
}

// --- Snippets ---

func seedSnippets(tb testing.TB, n int) (*snippet.Service, []snippet.Snippet) {
	tb.Helper()
	ctx := context.Background()
	svc := snippet.NewService(store.NewMemory(store.MemoryConfig{}))
	langs := []executor.Language{executor.JavaScript, executor.Python, executor.TypeScript, executor.Go}
	for i := 0; i < n; i++ {
		_, err := svc.Add(ctx, snippet.Draft{
			Title:       fmt.Sprintf("snippet %d", i),
			Description: "generated for benchmarking",
			Code:        strings.Repeat("x", i%200),
			Language:    langs[i%len(langs)],
			Tags:        []string{"bench", fmt.Sprintf("tag%d", i%10)},
		})
		if err != nil {
			tb.Fatal(err)
		}
	}
	all, err := svc.List(ctx, snippet.Query{})
	if err != nil {
		tb.Fatal(err)
	}
	return svc, all
}

func BenchmarkSnippet_Search(b *testing.B) {
	_, all := seedSnippets(b, 1000)
	q := snippet.Query{Text: "tag3 bench", Language: executor.Python, Sort: snippet.SortTitle}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		snippet.Search(all, q)
	}
}

func BenchmarkSnippet_Stats(b *testing.B) {
	_, all := seedSnippets(b, 1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		snippet.ComputeStats(all)
	}
}

func BenchmarkSnippet_Add(b *testing.B) {
	ctx := context.Background()
	svc := snippet.NewService(store.NewMemory(store.MemoryConfig{}))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		svc.Add(ctx, snippet.Draft{Title: fmt.Sprintf("t%d", i), Code: "1"})
	}
}

func BenchmarkSnippet_Export(b *testing.B) {
	svc, _ := seedSnippets(b, 500)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		svc.Export(ctx)
	}
}

// --- Store ---

func BenchmarkMemory_SetGet(b *testing.B) {
	ctx := context.Background()
	kv := store.NewMemory(store.DefaultMemoryConfig())
	value := []byte(`{"id":"1","title":"x"}`)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("k%d", i%100)
		kv.Set(ctx, key, value)
		kv.Get(ctx, key)
	}
}

// TestComparison prints a side-by-side of the execution paths.
func TestComparison(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping comparison in short mode")
	}

	const iterations = 20
	ctx := context.Background()
	d := newDispatcher(t)
	d.RunCode(ctx, "1", executor.JavaScript)

	measure := func(fn func()) time.Duration {
		start := time.Now()
		for j := 0; j < iterations; j++ {
			fn()
		}
		return time.Since(start) / iterations
	}

	results := []struct {
		name string
		avg  time.Duration
	}{
		{"js cold", measure(func() { javascript.New().Run(ctx, "console.log(1)") })},
		{"js dispatch", measure(func() { d.RunCode(ctx, "console.log(1)", executor.JavaScript) })},
	}

	if _, err := exec.LookPath("node"); err == nil {
		results = append(results, struct {
			name string
			avg  time.Duration
		}{"node process", measure(func() { exec.Command("node", "-e", "console.log(1)").Run() })})
	}

	if os.Getenv("CODEPIT_BENCH_PYTHON") != "" {
		if r := d.RunCode(ctx, "x = 1", executor.Python); r.Error == "" {
			results = append(results, struct {
				name string
				avg  time.Duration
			}{"python warm", measure(func() { d.RunCode(ctx, "print(1)", executor.Python) })})
		}
	}

	t.Logf("%-14s %s", "PATH", "AVG")
	for _, r := range results {
		t.Logf("%-14s %s", r.name, formatDuration(r.avg))
	}
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Microsecond:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	case d < time.Millisecond:
		return fmt.Sprintf("%.1fµs", float64(d.Nanoseconds())/1000)
	default:
		return fmt.Sprintf("%.2fms", float64(d.Nanoseconds())/1e6)
	}
}
