package main

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/caffeineduck/codepit/archive"
	"github.com/caffeineduck/codepit/executor"
	"github.com/caffeineduck/codepit/internal/config"
	"github.com/caffeineduck/codepit/internal/server"
	"github.com/caffeineduck/codepit/language/javascript"
	"github.com/caffeineduck/codepit/language/python"
	"github.com/caffeineduck/codepit/snippet"
	"github.com/caffeineduck/codepit/store"
)

// app holds everything a command needs. Commands build exactly the parts
// they use.
type app struct {
	cfg    config.Config
	logger *slog.Logger

	registry   *executor.Registry
	dispatcher *executor.Dispatcher

	kv       store.KV
	snippets *snippet.Service
	archive  *archive.Client
}

func newLogger(cfg config.Log, w io.Writer) *slog.Logger {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func newApp(cfg config.Config, logger *slog.Logger) *app {
	return &app{cfg: cfg, logger: logger}
}

// withExecutors registers the JavaScript and (when enabled) Python
// executors and builds the dispatcher.
func (a *app) withExecutors() *app {
	cfg := a.cfg
	a.registry = executor.NewRegistry()

	a.registry.Register(executor.JavaScript, func() (executor.Executor, error) {
		return javascript.New(
			javascript.WithTimeout(cfg.JavaScript.Timeout),
			javascript.WithBlockedKeywords(cfg.JavaScript.BlockedKeywords...),
			javascript.WithOutputLimits(cfg.Exec.MaxOutputChars, cfg.Exec.MaxOutputLines),
		), nil
	})

	if cfg.Python.Enabled {
		loaderOpts := []python.LoaderOption{
			python.WithDistributionURL(cfg.Python.DistributionURL),
			python.WithLoaderLogger(a.logger),
		}
		if cfg.Python.CacheDir != "" {
			loaderOpts = append(loaderOpts, python.WithCacheDir(cfg.Python.CacheDir))
		}
		if cfg.Python.MemoryLimitPages > 0 {
			loaderOpts = append(loaderOpts, python.WithMemoryLimitPages(cfg.Python.MemoryLimitPages))
		}
		loader := python.NewLoader(loaderOpts...)

		a.registry.Register(executor.Python, func() (executor.Executor, error) {
			return python.New(loader,
				python.WithTimeout(cfg.Python.Timeout),
				python.WithOutputLimits(cfg.Exec.MaxOutputChars, cfg.Exec.MaxOutputLines),
				python.WithLogger(a.logger),
			), nil
		})
	}

	a.dispatcher = executor.NewDispatcher(a.registry,
		executor.WithTimeout(cfg.Exec.Timeout),
		executor.WithLogger(a.logger),
	)
	return a
}

// withStore opens the configured key/value store and the snippet service.
func (a *app) withStore(ctx context.Context) (*app, error) {
	kv, err := store.Open(ctx, a.cfg.Store.DSN)
	if err != nil {
		return nil, err
	}
	a.kv = kv
	a.snippets = snippet.NewService(kv, snippet.WithLogger(a.logger))
	return a, nil
}

// withArchive connects the S3 archive when one is configured. Missing
// configuration is not an error; a.archive stays nil.
func (a *app) withArchive() (*app, error) {
	c, err := archive.NewClient(a.cfg.S3.Archive(), a.logger)
	if errors.Is(err, archive.ErrNotConfigured) {
		return a, nil
	}
	if err != nil {
		return nil, err
	}
	a.archive = c
	return a, nil
}

// serverArchive avoids handing the server a typed nil.
func (a *app) serverArchive() server.Archiver {
	if a.archive == nil {
		return nil
	}
	return a.archive
}

func (a *app) Close() {
	if a.registry != nil {
		a.registry.Cleanup()
	}
	if a.kv != nil {
		if err := a.kv.Close(); err != nil {
			a.logger.Warn("closing store", slog.Any("error", err))
		}
	}
}
