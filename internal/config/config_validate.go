// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

package config

import (
	"fmt"
	"net/url"
)

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

var validLogFormats = map[string]bool{
	"json": true, "console": true,
}

var validOptimism = map[string]bool{
	"filterless": true, "never": true, "always": true,
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validateDashboard(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateBackend() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	if err := validateHTTPURL(c.Backend.URL, "BACKEND_URL"); err != nil {
		return err
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("BACKEND_TIMEOUT must be positive, got %v", c.Backend.Timeout)
	}
	if c.Backend.RateLimit < 0 {
		return fmt.Errorf("BACKEND_RATE_LIMIT must not be negative")
	}
	if c.Backend.RateLimit > 0 && c.Backend.RateBurst < 1 {
		return fmt.Errorf("BACKEND_RATE_BURST must be at least 1 when rate limiting is enabled")
	}
	if c.Backend.CacheTTL > 0 && c.Backend.CacheCapacity < 1 {
		return fmt.Errorf("BACKEND_CACHE_CAPACITY must be at least 1 when caching is enabled")
	}
	b := c.Backend.Breaker
	if b.Enabled && (b.FailureRatio <= 0 || b.FailureRatio > 1) {
		return fmt.Errorf("BREAKER_FAILURE_RATIO must be in (0, 1], got %v", b.FailureRatio)
	}
	return nil
}

func (c *Config) validateDashboard() error {
	d := c.Dashboard
	if d.Debounce <= 0 {
		return fmt.Errorf("DEBOUNCE_WINDOW must be positive, got %v", d.Debounce)
	}
	if d.ClickThrottle <= 0 {
		return fmt.Errorf("CLICK_THROTTLE must be positive, got %v", d.ClickThrottle)
	}
	if d.SettleDelay < 0 {
		return fmt.Errorf("SETTLE_DELAY must not be negative")
	}
	if !validOptimism[d.Optimism] {
		return fmt.Errorf("OPTIMISM_POLICY must be one of: filterless, never, always")
	}
	if d.FilterInteractionFeature == "" {
		return fmt.Errorf("FILTER_INTERACTION_NAME must not be empty")
	}
	return nil
}

func (c *Config) validateStore() error {
	if !c.Store.InMemory && c.Store.Path == "" {
		return fmt.Errorf("STORE_PATH is required unless STORE_IN_MEMORY=true")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimitReqs < 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must not be negative")
	}
	if c.Server.RateLimitReqs > 0 && c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive when rate limiting is enabled")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// validateHTTPURL accepts a base http(s) URL with a host and no query.
func validateHTTPURL(rawURL, fieldName string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	if u.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, u.RawQuery)
	}
	return nil
}
