// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order; the first existing file wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/clickboard/config.yaml",
	"/etc/clickboard/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:           "http://localhost:8000",
			Timeout:       30 * time.Second,
			RateLimit:     0,
			RateBurst:     5,
			CacheTTL:      0,
			CacheCapacity: 128,
			Breaker: BreakerConfig{
				Enabled:      true,
				MaxRequests:  3,
				Interval:     time.Minute,
				Timeout:      30 * time.Second,
				MinRequests:  10,
				FailureRatio: 0.6,
			},
		},
		Dashboard: DashboardConfig{
			Debounce:                 500 * time.Millisecond,
			ClickThrottle:            2 * time.Second,
			SettleDelay:              500 * time.Millisecond,
			Optimism:                 "filterless",
			FilterInteractionFeature: "Filter Interaction",
		},
		Store: StoreConfig{
			Path:     "./data/clickboard",
			InMemory: false,
		},
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            3850,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"http://localhost:5173"},
			RateLimitReqs:   300,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf layers defaults, the optional YAML file and the environment,
// then validates the result.
func LoadWithKoanf(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields splits comma-separated env values for slice settings.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps flat environment variable names to koanf paths.
var envMappings = map[string]string{
	"backend_url":             "backend.url",
	"backend_timeout":         "backend.timeout",
	"backend_rate_limit":      "backend.rate_limit",
	"backend_rate_burst":      "backend.rate_burst",
	"backend_cache_ttl":       "backend.cache_ttl",
	"backend_cache_capacity":  "backend.cache_capacity",
	"breaker_enabled":         "backend.breaker.enabled",
	"breaker_max_requests":    "backend.breaker.max_requests",
	"breaker_interval":        "backend.breaker.interval",
	"breaker_timeout":         "backend.breaker.timeout",
	"breaker_min_requests":    "backend.breaker.min_requests",
	"breaker_failure_ratio":   "backend.breaker.failure_ratio",
	"debounce_window":         "dashboard.debounce",
	"click_throttle":          "dashboard.click_throttle",
	"settle_delay":            "dashboard.settle_delay",
	"optimism_policy":         "dashboard.optimism",
	"filter_interaction_name": "dashboard.filter_interaction_feature",
	"store_path":              "store.path",
	"store_in_memory":         "store.in_memory",
	"http_host":               "server.host",
	"http_port":               "server.port",
	"shutdown_timeout":        "server.shutdown_timeout",
	"cors_origins":            "server.cors_origins",
	"rate_limit_requests":     "server.rate_limit_reqs",
	"rate_limit_window":       "server.rate_limit_window",
	"log_level":               "logging.level",
	"log_format":              "logging.format",
	"log_caller":              "logging.caller",
}

// envTransformFunc maps BACKEND_URL to backend.url and so on. Unknown
// variables return "" so koanf ignores them.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
