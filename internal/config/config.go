// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

// Package config loads Clickboard configuration with Koanf v2.
//
// Sources are layered, highest priority last:
//  1. Built-in defaults (defaultConfig)
//  2. Optional YAML file (CONFIG_PATH, ./config.yaml, /etc/clickboard/config.yaml)
//  3. Environment variables (BACKEND_URL, DEBOUNCE_WINDOW, HTTP_PORT, ...)
//
// Example:
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	client := backend.NewClient(cfg.Backend, tokens)
//
// Config is immutable after Load and safe for concurrent reads.
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Backend   BackendConfig   `koanf:"backend"`
	Dashboard DashboardConfig `koanf:"dashboard"`
	Store     StoreConfig     `koanf:"store"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// BackendConfig describes the remote analytics backend.
type BackendConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`

	// RateLimit is the client-side request budget per second. Zero disables limiting.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`

	// CacheTTL enables caching of identical GET responses. Zero disables the cache.
	// Cache-busted queries always miss.
	CacheTTL      time.Duration `koanf:"cache_ttl"`
	CacheCapacity int           `koanf:"cache_capacity"`

	Breaker BreakerConfig `koanf:"breaker"`
}

// BreakerConfig tunes the circuit breaker wrapped around every backend call.
type BreakerConfig struct {
	Enabled      bool          `koanf:"enabled"`
	MaxRequests  uint32        `koanf:"max_requests"` // probes allowed while half-open
	Interval     time.Duration `koanf:"interval"`     // closed-state counter reset period
	Timeout      time.Duration `koanf:"timeout"`      // open -> half-open delay
	MinRequests  uint32        `koanf:"min_requests"`
	FailureRatio float64       `koanf:"failure_ratio"`
}

// DashboardConfig holds the interaction timing and optimism policy.
type DashboardConfig struct {
	Debounce      time.Duration `koanf:"debounce"`
	ClickThrottle time.Duration `koanf:"click_throttle"`
	SettleDelay   time.Duration `koanf:"settle_delay"`

	// Optimism is one of filterless, never, always.
	Optimism string `koanf:"optimism"`

	// FilterInteractionFeature is the feature name reported when a settled
	// filter change is tracked.
	FilterInteractionFeature string `koanf:"filter_interaction_feature"`
}

// StoreConfig locates the durable key-value slot for filters and the token.
type StoreConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// ServerConfig configures the local dashboard API.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Addr returns the host:port the local API listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads configuration. An empty path searches CONFIG_PATH and DefaultConfigPaths.
func Load(path string) (*Config, error) {
	return LoadWithKoanf(path)
}
