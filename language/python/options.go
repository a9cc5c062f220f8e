package python

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/caffeineduck/codepit/executor"
)

// DefaultTimeout bounds a single Python run.
const DefaultTimeout = 30 * time.Second

type config struct {
	timeout  time.Duration
	maxChars int
	maxLines int
	logger   *slog.Logger
}

func defaultConfig() config {
	return config{
		timeout:  DefaultTimeout,
		maxChars: executor.DefaultMaxOutputChars,
		maxLines: executor.DefaultMaxOutputLines,
		logger:   slog.Default(),
	}
}

// Option configures the Python executor.
type Option func(*config)

// WithTimeout bounds a single run. Zero leaves only the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithOutputLimits caps captured output. Zero disables a limit.
func WithOutputLimits(maxChars, maxLines int) Option {
	return func(c *config) {
		c.maxChars = maxChars
		c.maxLines = maxLines
	}
}

// WithLogger sets the executor's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

type loaderConfig struct {
	url              string
	cacheDir         string
	usrDir           string
	maxDownloadSize  int64
	fetchTimeout     time.Duration
	diskCache        bool
	memoryLimitPages uint32
	client           *http.Client
	logger           *slog.Logger
}

func defaultLoaderConfig() loaderConfig {
	return loaderConfig{
		url:             DefaultDistributionURL,
		maxDownloadSize: DefaultMaxDownloadSize,
		fetchTimeout:    DefaultFetchTimeout,
		diskCache:       true,
		logger:          slog.Default(),
	}
}

// LoaderOption configures a WasmLoader.
type LoaderOption func(*loaderConfig)

// WithDistributionURL sets where the runtime is fetched from. A .wasm
// module or a .tar.gz containing one is accepted, as is a local path.
func WithDistributionURL(url string) LoaderOption {
	return func(c *loaderConfig) {
		if url != "" {
			c.url = url
		}
	}
}

// WithCacheDir sets the directory for downloads and compiled modules.
func WithCacheDir(dir string) LoaderOption {
	return func(c *loaderConfig) {
		c.cacheDir = dir
	}
}

// WithUsrDir mounts a host directory at /usr in the guest, overriding the
// one shipped in the distribution. Use it for a bare .wasm module.
func WithUsrDir(dir string) LoaderOption {
	return func(c *loaderConfig) {
		c.usrDir = dir
	}
}

// WithMaxDownloadSize caps the distribution download.
func WithMaxDownloadSize(n int64) LoaderOption {
	return func(c *loaderConfig) {
		c.maxDownloadSize = n
	}
}

// WithFetchTimeout bounds the distribution download.
func WithFetchTimeout(d time.Duration) LoaderOption {
	return func(c *loaderConfig) {
		c.fetchTimeout = d
	}
}

// WithDiskCache toggles the on-disk compilation cache.
func WithDiskCache(enabled bool) LoaderOption {
	return func(c *loaderConfig) {
		c.diskCache = enabled
	}
}

// WithMemoryLimitPages limits guest memory in 64KB pages.
func WithMemoryLimitPages(pages uint32) LoaderOption {
	return func(c *loaderConfig) {
		c.memoryLimitPages = pages
	}
}

// WithHTTPClient sets the client used for the download.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(c *loaderConfig) {
		c.client = client
	}
}

// WithLoaderLogger sets the loader's logger.
func WithLoaderLogger(l *slog.Logger) LoaderOption {
	return func(c *loaderConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
