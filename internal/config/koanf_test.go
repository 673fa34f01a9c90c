// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Dashboard.Debounce != 500*time.Millisecond {
		t.Errorf("Dashboard.Debounce = %v, want 500ms", cfg.Dashboard.Debounce)
	}
	if cfg.Dashboard.ClickThrottle != 2*time.Second {
		t.Errorf("Dashboard.ClickThrottle = %v, want 2s", cfg.Dashboard.ClickThrottle)
	}
	if cfg.Dashboard.SettleDelay != 500*time.Millisecond {
		t.Errorf("Dashboard.SettleDelay = %v, want 500ms", cfg.Dashboard.SettleDelay)
	}
	if cfg.Dashboard.Optimism != "filterless" {
		t.Errorf("Dashboard.Optimism = %q, want filterless", cfg.Dashboard.Optimism)
	}
	if cfg.Dashboard.FilterInteractionFeature != "Filter Interaction" {
		t.Errorf("Dashboard.FilterInteractionFeature = %q", cfg.Dashboard.FilterInteractionFeature)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadWithKoanfEnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("BACKEND_URL", "https://analytics.example.com")
	t.Setenv("DEBOUNCE_WINDOW", "750ms")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("OPTIMISM_POLICY", "never")

	cfg, err := LoadWithKoanf("")
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Backend.URL != "https://analytics.example.com" {
		t.Errorf("Backend.URL = %q", cfg.Backend.URL)
	}
	if cfg.Dashboard.Debounce != 750*time.Millisecond {
		t.Errorf("Dashboard.Debounce = %v, want 750ms", cfg.Dashboard.Debounce)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "http://b.test" {
		t.Errorf("Server.CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Dashboard.Optimism != "never" {
		t.Errorf("Dashboard.Optimism = %q, want never", cfg.Dashboard.Optimism)
	}
}

func TestLoadWithKoanfFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
backend:
  url: http://backend.internal:8000
dashboard:
  click_throttle: 3s
store:
  in_memory: true
logging:
  level: debug
  format: console
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadWithKoanf(path)
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Backend.URL != "http://backend.internal:8000" {
		t.Errorf("Backend.URL = %q", cfg.Backend.URL)
	}
	if cfg.Dashboard.ClickThrottle != 3*time.Second {
		t.Errorf("Dashboard.ClickThrottle = %v, want 3s", cfg.Dashboard.ClickThrottle)
	}
	if !cfg.Store.InMemory {
		t.Error("Store.InMemory should be true from file")
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("env should win over file: Logging.Level = %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("Logging.Format = %q, want console", cfg.Logging.Format)
	}
	if cfg.Dashboard.Debounce != 500*time.Millisecond {
		t.Errorf("unset file key should keep default, got %v", cfg.Dashboard.Debounce)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"BACKEND_URL":     "backend.url",
		"SETTLE_DELAY":    "dashboard.settle_delay",
		"BREAKER_TIMEOUT": "backend.breaker.timeout",
		"HOME":            "",
		"PATH":            "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing backend", func(c *Config) { c.Backend.URL = "" }, "BACKEND_URL is required"},
		{"bad scheme", func(c *Config) { c.Backend.URL = "ftp://x" }, "scheme must be http or https"},
		{"query in url", func(c *Config) { c.Backend.URL = "http://x/?a=1" }, "query parameters"},
		{"zero debounce", func(c *Config) { c.Dashboard.Debounce = 0 }, "DEBOUNCE_WINDOW"},
		{"zero throttle", func(c *Config) { c.Dashboard.ClickThrottle = 0 }, "CLICK_THROTTLE"},
		{"bad optimism", func(c *Config) { c.Dashboard.Optimism = "sometimes" }, "OPTIMISM_POLICY"},
		{"no store path", func(c *Config) { c.Store.Path = "" }, "STORE_PATH"},
		{"in memory store", func(c *Config) { c.Store.Path = ""; c.Store.InMemory = true }, ""},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "HTTP_PORT"},
		{"bad ratio", func(c *Config) { c.Backend.Breaker.FailureRatio = 1.5 }, "BREAKER_FAILURE_RATIO"},
		{"rate limit without burst", func(c *Config) { c.Backend.RateLimit = 5; c.Backend.RateBurst = 0 }, "BACKEND_RATE_BURST"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestServerAddr(t *testing.T) {
	t.Parallel()

	s := ServerConfig{Host: "127.0.0.1", Port: 3850}
	if got := s.Addr(); got != "127.0.0.1:3850" {
		t.Errorf("Addr() = %q", got)
	}
}
