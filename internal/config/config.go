// Package config loads codepit settings. Values are layered: built-in
// defaults, then an optional YAML file, then CODEPIT_* environment
// variables (which may come from .env files). Command-line flags are
// applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/caffeineduck/codepit/archive"
	"github.com/caffeineduck/codepit/executor"
	"github.com/caffeineduck/codepit/language/javascript"
	"github.com/caffeineduck/codepit/language/python"
)

type Config struct {
	Log        Log        `yaml:"log"`
	Exec       Exec       `yaml:"exec"`
	JavaScript JavaScript `yaml:"javascript"`
	Python     Python     `yaml:"python"`
	Store      Store      `yaml:"store"`
	HTTP       HTTP       `yaml:"http"`
	S3         S3         `yaml:"s3"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

type Exec struct {
	// Timeout caps every run on top of the per-language timeouts. Zero
	// leaves deadlines to the executors.
	Timeout        time.Duration `yaml:"timeout"`
	MaxOutputChars int           `yaml:"max_output_chars"`
	MaxOutputLines int           `yaml:"max_output_lines"`
}

type JavaScript struct {
	Timeout         time.Duration `yaml:"timeout"`
	BlockedKeywords []string      `yaml:"blocked_keywords"`
}

type Python struct {
	Enabled          bool          `yaml:"enabled"`
	Timeout          time.Duration `yaml:"timeout"`
	DistributionURL  string        `yaml:"distribution_url"`
	CacheDir         string        `yaml:"cache_dir"`
	MemoryLimitPages uint32        `yaml:"memory_limit_pages"`
}

type Store struct {
	// DSN selects the backend: memory://, redis://host/0?prefix=x:,
	// postgres://user@host/db.
	DSN string `yaml:"dsn"`
}

type HTTP struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	RunRate         float64       `yaml:"run_rate"` // requests per second per client
	RunBurst        int           `yaml:"run_burst"`
}

type S3 struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// Archive converts the S3 section for the archive package.
func (s S3) Archive() archive.Config {
	return archive.Config{
		Endpoint:  s.Endpoint,
		AccessKey: s.AccessKey,
		SecretKey: s.SecretKey,
		Region:    s.Region,
		Bucket:    s.Bucket,
		Prefix:    s.Prefix,
		UseSSL:    s.UseSSL,
	}
}

// Sources names where Load reads from. Missing files are not an error.
type Sources struct {
	File     string
	EnvFiles []string
}

// DefaultSources reads codepit.yaml (or $CODEPIT_CONFIG) and .env files in
// the working directory.
func DefaultSources() Sources {
	return Sources{
		File:     getEnv("CODEPIT_CONFIG", "codepit.yaml"),
		EnvFiles: []string{".env", ".env.local"},
	}
}

func Defaults() Config {
	return Config{
		Log: Log{Level: "info", Format: "text"},
		Exec: Exec{
			MaxOutputChars: executor.DefaultMaxOutputChars,
			MaxOutputLines: executor.DefaultMaxOutputLines,
		},
		JavaScript: JavaScript{
			Timeout:         executor.DefaultTimeout,
			BlockedKeywords: javascript.DefaultBlockedKeywords,
		},
		Python: Python{
			Enabled:         true,
			Timeout:         python.DefaultTimeout,
			DistributionURL: python.DefaultDistributionURL,
		},
		Store: Store{DSN: "memory://"},
		HTTP: HTTP{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			CORSOrigins:     []string{"*"},
			RunRate:         2,
			RunBurst:        5,
		},
	}
}

// Load builds a Config from src.
func Load(src Sources) (Config, error) {
	cfg := Defaults()

	if src.File != "" {
		data, err := os.ReadFile(src.File)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", src.File, err)
			}
		}
	}

	for _, f := range src.EnvFiles {
		// godotenv never overrides variables already set in the process
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Log.Level = getEnv("CODEPIT_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("CODEPIT_LOG_FORMAT", c.Log.Format)

	c.Exec.Timeout = getDuration("CODEPIT_TIMEOUT", c.Exec.Timeout)
	c.Exec.MaxOutputChars = getInt("CODEPIT_MAX_OUTPUT_CHARS", c.Exec.MaxOutputChars)
	c.Exec.MaxOutputLines = getInt("CODEPIT_MAX_OUTPUT_LINES", c.Exec.MaxOutputLines)

	c.JavaScript.Timeout = getDuration("CODEPIT_JS_TIMEOUT", c.JavaScript.Timeout)
	c.JavaScript.BlockedKeywords = getList("CODEPIT_JS_BLOCKED_KEYWORDS", c.JavaScript.BlockedKeywords)

	c.Python.Enabled = getBool("CODEPIT_PYTHON_ENABLED", c.Python.Enabled)
	c.Python.Timeout = getDuration("CODEPIT_PYTHON_TIMEOUT", c.Python.Timeout)
	c.Python.DistributionURL = getEnv("CODEPIT_PYTHON_URL", c.Python.DistributionURL)
	c.Python.CacheDir = getEnv("CODEPIT_PYTHON_CACHE_DIR", c.Python.CacheDir)
	c.Python.MemoryLimitPages = uint32(getInt("CODEPIT_PYTHON_MEMORY_PAGES", int(c.Python.MemoryLimitPages)))

	c.Store.DSN = getEnv("CODEPIT_STORE_DSN", c.Store.DSN)

	c.HTTP.Addr = getEnv("CODEPIT_HTTP_ADDR", c.HTTP.Addr)
	c.HTTP.ReadTimeout = getDuration("CODEPIT_HTTP_READ_TIMEOUT", c.HTTP.ReadTimeout)
	c.HTTP.WriteTimeout = getDuration("CODEPIT_HTTP_WRITE_TIMEOUT", c.HTTP.WriteTimeout)
	c.HTTP.ShutdownTimeout = getDuration("CODEPIT_HTTP_SHUTDOWN_TIMEOUT", c.HTTP.ShutdownTimeout)
	c.HTTP.CORSOrigins = getList("CODEPIT_CORS_ORIGINS", c.HTTP.CORSOrigins)
	c.HTTP.RunRate = getFloat("CODEPIT_RUN_RATE", c.HTTP.RunRate)
	c.HTTP.RunBurst = getInt("CODEPIT_RUN_BURST", c.HTTP.RunBurst)

	c.S3.Endpoint = getEnv("CODEPIT_S3_ENDPOINT", c.S3.Endpoint)
	c.S3.AccessKey = getEnv("CODEPIT_S3_ACCESS_KEY", c.S3.AccessKey)
	c.S3.SecretKey = getEnv("CODEPIT_S3_SECRET_KEY", c.S3.SecretKey)
	c.S3.Region = getEnv("CODEPIT_S3_REGION", c.S3.Region)
	c.S3.Bucket = getEnv("CODEPIT_S3_BUCKET", c.S3.Bucket)
	c.S3.Prefix = getEnv("CODEPIT_S3_PREFIX", c.S3.Prefix)
	c.S3.UseSSL = getBool("CODEPIT_S3_USE_SSL", c.S3.UseSSL)
}

// Validate rejects settings that cannot work.
func (c Config) Validate() error {
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %q", c.Log.Format)
	}
	if c.Exec.Timeout < 0 || c.JavaScript.Timeout < 0 || c.Python.Timeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	if c.Exec.MaxOutputChars < 0 || c.Exec.MaxOutputLines < 0 {
		return errors.New("output limits must not be negative")
	}
	if c.HTTP.RunRate < 0 || c.HTTP.RunBurst < 0 {
		return errors.New("run rate limit must not be negative")
	}
	return nil
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level: %q", s)
	}
	return l, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getBool(key string, fallback bool) bool {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// getList splits a comma-separated variable. A set but blank variable
// yields an empty list.
func getList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
