package python

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
)

// DefaultDistributionURL is the CPython WASI build fetched on first use.
const DefaultDistributionURL = "https://github.com/vmware-labs/webassembly-language-runtimes/releases/download/python%2F3.12.0%2B20231211-040d5a6/python-3.12.0.tar.gz"

const (
	DefaultMaxDownloadSize = 256 << 20 // 256MB
	DefaultFetchTimeout    = 5 * time.Minute
)

// WasmLoader fetches a CPython WASI build and compiles it with wazero.
type WasmLoader struct {
	cfg loaderConfig
}

// NewLoader returns a Loader for the CPython WASI runtime.
func NewLoader(opts ...LoaderOption) *WasmLoader {
	cfg := defaultLoaderConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &WasmLoader{cfg: cfg}
}

// Load fetches, unpacks and compiles the interpreter.
func (l *WasmLoader) Load(ctx context.Context) (Interpreter, error) {
	start := time.Now()
	logger := l.cfg.logger

	cacheDir := l.cfg.cacheDir
	if cacheDir == "" {
		cacheDir = defaultCacheDir()
	}

	client := l.cfg.client
	if client == nil {
		client = &http.Client{Timeout: l.cfg.fetchTimeout}
	}
	f := &fetcher{client: client, maxSize: l.cfg.maxDownloadSize}

	logger.Info("loading python runtime", slog.String("url", l.cfg.url), slog.String("cache_dir", cacheDir))

	file, err := f.fetch(ctx, l.cfg.url, filepath.Join(cacheDir, "dist"))
	if err != nil {
		return nil, fmt.Errorf("fetch python runtime: %w", err)
	}

	dist, err := unpack(file)
	if err != nil {
		return nil, err
	}
	if l.cfg.usrDir != "" {
		dist.usrDir = l.cfg.usrDir
	}

	wasm, err := os.ReadFile(dist.wasm)
	if err != nil {
		return nil, fmt.Errorf("read python module: %w", err)
	}

	var cache wazero.CompilationCache
	if l.cfg.diskCache {
		cache, err = wazero.NewCompilationCacheWithDir(filepath.Join(cacheDir, "compiled"))
		if err != nil {
			return nil, fmt.Errorf("create disk cache: %w", err)
		}
	}

	rtConfig := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cache != nil {
		rtConfig = rtConfig.WithCompilationCache(cache)
	}
	if l.cfg.memoryLimitPages > 0 {
		rtConfig = rtConfig.WithMemoryLimitPages(l.cfg.memoryLimitPages)
	}

	rt := wazero.NewRuntimeWithConfig(ctx, rtConfig)
	r := &Runtime{runtime: rt, cache: cache, usrDir: dist.usrDir}

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		r.Close(ctx)
		return nil, fmt.Errorf("instantiate WASI: %w", err)
	}

	r.compiled, err = rt.CompileModule(ctx, wasm)
	if err != nil {
		r.Close(ctx)
		return nil, fmt.Errorf("compile python: %w", err)
	}

	logger.Info("python runtime ready",
		slog.String("module", filepath.Base(dist.wasm)),
		slog.Duration("duration", time.Since(start)),
	)
	return r, nil
}

// Runtime is a compiled CPython module. Each Exec instantiates a fresh
// module, so no interpreter state survives between runs.
type Runtime struct {
	runtime  wazero.Runtime
	cache    wazero.CompilationCache
	compiled wazero.CompiledModule
	usrDir   string
}

// Exec runs code under the harness. The module is closed when ctx is done.
func (r *Runtime) Exec(ctx context.Context, code string, maxChars int, stream io.Writer) (Envelope, error) {
	stderr := &envelopeWriter{}

	moduleConfig := wazero.NewModuleConfig().
		WithStdout(stream).
		WithStderr(stderr).
		WithArgs(Args(code, maxChars)...).
		WithEnv("PYTHONDONTWRITEBYTECODE", "1").
		WithName("")
	if r.usrDir != "" {
		moduleConfig = moduleConfig.WithFSConfig(
			wazero.NewFSConfig().WithReadOnlyDirMount(r.usrDir, "/usr"),
		)
	}

	mod, err := r.runtime.InstantiateModule(ctx, r.compiled, moduleConfig)
	if mod != nil {
		mod.Close(ctx)
	}

	if err != nil && !cleanExit(err) {
		if ctx.Err() != nil {
			return Envelope{}, ctx.Err()
		}
		return Envelope{}, withStderr(fmt.Errorf("python exited: %w", err), stderr.Stderr())
	}

	env, err := stderr.Envelope()
	if err != nil {
		return Envelope{}, err
	}
	if env == nil {
		return Envelope{}, withStderr(errors.New("python produced no result"), stderr.Stderr())
	}
	return *env, nil
}

// Close releases the runtime and its compilation cache.
func (r *Runtime) Close(ctx context.Context) error {
	var errs []error
	if err := r.runtime.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if r.cache != nil {
		if err := r.cache.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func cleanExit(err error) bool {
	var exitErr *sys.ExitError
	return errors.As(err, &exitErr) && exitErr.ExitCode() == 0
}

func withStderr(err error, stderr string) error {
	if s := strings.TrimSpace(stderr); s != "" {
		return fmt.Errorf("%w: %s", err, s)
	}
	return err
}

func defaultCacheDir() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "codepit")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "codepit")
	}
	return filepath.Join(os.TempDir(), "codepit-cache")
}
