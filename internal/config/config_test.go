package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(Options{Dir: dir, EnvFile: filepath.Join(dir, "missing.env"), DefaultStorePath: filepath.Join(dir, "session.db")})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.URL != "http://localhost:5000/api" {
		t.Errorf("API.URL = %q", cfg.API.URL)
	}
	if cfg.API.Timeout != 15*time.Second {
		t.Errorf("API.Timeout = %v, want 15s", cfg.API.Timeout)
	}
	if cfg.Matches.Limit != 10 {
		t.Errorf("Matches.Limit = %d, want 10", cfg.Matches.Limit)
	}
	if cfg.Dashboard.UpcomingWindow != 3 {
		t.Errorf("Dashboard.UpcomingWindow = %d, want 3", cfg.Dashboard.UpcomingWindow)
	}
	if cfg.Auth.StrictRefresh {
		t.Error("Auth.StrictRefresh should default to false")
	}
	if cfg.File != "" {
		t.Errorf("File = %q, want empty when no config file exists", cfg.File)
	}
	if cfg.StoreDir() != dir {
		t.Errorf("StoreDir() = %q, want %q", cfg.StoreDir(), dir)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.yaml"), `
api:
  url: https://skills.example.com/api
  timeout: 3s
auth:
  strict_refresh: true
matches:
  limit: 25
log:
  level: debug
`)

	cfg, err := Load(Options{Dir: dir, EnvFile: filepath.Join(dir, ".env"), DefaultStorePath: filepath.Join(dir, "session.db")})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.URL != "https://skills.example.com/api" {
		t.Errorf("API.URL = %q", cfg.API.URL)
	}
	if cfg.API.Timeout != 3*time.Second {
		t.Errorf("API.Timeout = %v", cfg.API.Timeout)
	}
	if !cfg.Auth.StrictRefresh {
		t.Error("Auth.StrictRefresh should be read from the file")
	}
	if cfg.Matches.Limit != 25 {
		t.Errorf("Matches.Limit = %d", cfg.Matches.Limit)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
	if !strings.HasSuffix(cfg.File, "config.yaml") {
		t.Errorf("File = %q", cfg.File)
	}
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.yaml"), "api:\n  url: http://from-file/api\nmatches:\n  limit: 5\n")
	t.Setenv("SKILLSWAP_API_URL", "http://from-env/api")
	t.Setenv("SKILLSWAP_MATCHES_LIMIT", "7")

	cfg, err := Load(Options{Dir: dir, EnvFile: filepath.Join(dir, ".env"), DefaultStorePath: filepath.Join(dir, "session.db")})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.URL != "http://from-env/api" {
		t.Errorf("API.URL = %q, environment should win over the file", cfg.API.URL)
	}
	if cfg.Matches.Limit != 7 {
		t.Errorf("Matches.Limit = %d, want 7", cfg.Matches.Limit)
	}

	cfg, err = Load(Options{
		Dir:              dir,
		EnvFile:          filepath.Join(dir, ".env"),
		DefaultStorePath: filepath.Join(dir, "session.db"),
		Overrides:        map[string]any{"api.url": "http://from-flag/api", "store.path": "/tmp/other.db"},
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.URL != "http://from-flag/api" {
		t.Errorf("API.URL = %q, overrides should win", cfg.API.URL)
	}
	if cfg.Store.Path != "/tmp/other.db" {
		t.Errorf("Store.Path = %q", cfg.Store.Path)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	writeFile(t, envFile, "SKILLSWAP_DASHBOARD_UPCOMING_WINDOW=5\n")
	t.Cleanup(func() { os.Unsetenv("SKILLSWAP_DASHBOARD_UPCOMING_WINDOW") })

	cfg, err := Load(Options{Dir: dir, EnvFile: envFile, DefaultStorePath: filepath.Join(dir, "session.db")})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Dashboard.UpcomingWindow != 5 {
		t.Errorf("Dashboard.UpcomingWindow = %d, want 5 from the env file", cfg.Dashboard.UpcomingWindow)
	}
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(Options{File: filepath.Join(dir, "nope.yaml"), EnvFile: filepath.Join(dir, ".env"), DefaultStorePath: "x.db"})
	if err == nil {
		t.Fatal("Load() should fail when an explicit config file is missing")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			API:       APIConfig{URL: "http://localhost/api", Timeout: time.Second},
			Store:     StoreConfig{Path: "session.db"},
			Matches:   MatchesConfig{Limit: 10},
			Dashboard: DashboardConfig{UpcomingWindow: 3},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"empty url", func(c *Config) { c.API.URL = " " }, "api.url"},
		{"negative timeout", func(c *Config) { c.API.Timeout = -time.Second }, "api.timeout"},
		{"negative rate", func(c *Config) { c.API.Rate = -1 }, "api.rate"},
		{"no store", func(c *Config) { c.Store.Path = "" }, "store.path"},
		{"zero limit", func(c *Config) { c.Matches.Limit = 0 }, "matches.limit"},
		{"zero window", func(c *Config) { c.Dashboard.UpcomingWindow = 0 }, "dashboard.upcoming_window"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}
