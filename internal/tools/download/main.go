// Command download fetches, unpacks and compiles the Python runtime into a
// cache directory so that the first Python run does not pay for it, for
// example when building a container image.
//
//	go run ./internal/tools/download [-url URL] <cache-dir>
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caffeineduck/codepit/language/python"
)

func main() {
	url := flag.String("url", python.DefaultDistributionURL, "Python distribution URL or local path")
	timeout := flag.Duration("timeout", python.DefaultFetchTimeout, "Download timeout")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: download [-url URL] <cache-dir>")
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	loader := python.NewLoader(
		python.WithDistributionURL(*url),
		python.WithCacheDir(flag.Arg(0)),
		python.WithFetchTimeout(*timeout),
		python.WithLoaderLogger(logger),
	)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout+time.Minute)
	defer cancel()

	interp, err := loader.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := interp.Close(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
