package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(Sources{File: filepath.Join(t.TempDir(), "missing.yaml")})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Defaults()
	if cfg.Store.DSN != want.Store.DSN || cfg.HTTP.Addr != want.HTTP.Addr || cfg.Exec.Timeout != want.Exec.Timeout {
		t.Errorf("missing file should leave defaults, got %+v", cfg)
	}
	if !cfg.Python.Enabled {
		t.Error("python should be enabled by default")
	}
}

func TestLoadPrecedence(t *testing.T) {
	file := writeFile(t, "codepit.yaml", `
log:
  level: debug
exec:
  timeout: 3s
store:
  dsn: redis://localhost:6379/0
http:
  addr: ":9000"
  cors_origins: ["https://a.example"]
python:
  enabled: false
`)
	env := writeFile(t, ".env", "CODEPIT_HTTP_ADDR=:7000\nCODEPIT_S3_BUCKET=from-dotenv\n")
	t.Cleanup(func() { os.Unsetenv("CODEPIT_HTTP_ADDR") })

	t.Setenv("CODEPIT_STORE_DSN", "postgres://localhost/codepit")
	// already set in the process, so the .env value must not win
	t.Setenv("CODEPIT_S3_BUCKET", "from-env")

	cfg, err := Load(Sources{File: file, EnvFiles: []string{env}})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"file over default", cfg.Log.Level, "debug"},
		{"file duration", cfg.Exec.Timeout, 3 * time.Second},
		{"env over file", cfg.Store.DSN, "postgres://localhost/codepit"},
		{"dotenv over file", cfg.HTTP.Addr, ":7000"},
		{"process env over dotenv", cfg.S3.Bucket, "from-env"},
		{"file list", fmt.Sprint(cfg.HTTP.CORSOrigins), "[https://a.example]"},
		{"file bool", cfg.Python.Enabled, false},
		{"untouched default", cfg.HTTP.RunBurst, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("CODEPIT_X_INT", "42")
	t.Setenv("CODEPIT_X_BADINT", "many")
	t.Setenv("CODEPIT_X_DUR", "250ms")
	t.Setenv("CODEPIT_X_BOOL", "true")
	t.Setenv("CODEPIT_X_LIST", " a, b ,,c ")
	t.Setenv("CODEPIT_X_EMPTYLIST", "")

	if got := getInt("CODEPIT_X_INT", 1); got != 42 {
		t.Errorf("getInt = %d", got)
	}
	if got := getInt("CODEPIT_X_BADINT", 1); got != 1 {
		t.Errorf("getInt with bad value = %d, want fallback", got)
	}
	if got := getDuration("CODEPIT_X_DUR", time.Second); got != 250*time.Millisecond {
		t.Errorf("getDuration = %v", got)
	}
	if got := getBool("CODEPIT_X_BOOL", false); !got {
		t.Error("getBool = false")
	}
	if got := getList("CODEPIT_X_LIST", nil); fmt.Sprint(got) != "[a b c]" {
		t.Errorf("getList = %v", got)
	}
	if got := getList("CODEPIT_X_EMPTYLIST", []string{"x"}); len(got) != 0 {
		t.Errorf("blank list should clear the fallback, got %v", got)
	}
	if got := getList("CODEPIT_X_UNSET", []string{"x"}); fmt.Sprint(got) != "[x]" {
		t.Errorf("unset list = %v", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, false},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, false},
		{"negative timeout", func(c *Config) { c.Python.Timeout = -time.Second }, false},
		{"negative limit", func(c *Config) { c.Exec.MaxOutputLines = -1 }, false},
		{"negative rate", func(c *Config) { c.HTTP.RunRate = -1 }, false},
		{"zero timeout", func(c *Config) { c.Exec.Timeout = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	file := writeFile(t, "codepit.yaml", "log: [unclosed")
	if _, err := Load(Sources{File: file}); err == nil {
		t.Error("expected parse error")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
}

func TestS3Archive(t *testing.T) {
	s := S3{Endpoint: "localhost:9000", Bucket: "b", Prefix: "p", UseSSL: true}
	a := s.Archive()
	if !a.Enabled() || a.Prefix != "p" || !a.UseSSL {
		t.Errorf("Archive = %+v", a)
	}
}
