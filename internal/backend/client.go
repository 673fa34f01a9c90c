// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

// Package backend is the HTTP client for the click analytics backend.
//
// Every call is bounded by a client-side rate limiter and, when enabled, a
// circuit breaker. Identical GET requests may be answered from a short TTL
// cache. The bearer token is read from a TokenSource on each request so a
// login or logout takes effect immediately.
package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/clickboard/internal/cache"
	"github.com/tomtom215/clickboard/internal/config"
	"github.com/tomtom215/clickboard/internal/logging"
	"github.com/tomtom215/clickboard/internal/metrics"
	"github.com/tomtom215/clickboard/internal/models"
)

// Backend routes.
const (
	PathLogin     = "/users/login"
	PathRegister  = "/users/"
	PathAnalytics = "/track/analytics"
	PathTrack     = "/track/"
)

// TokenSource supplies the current bearer token, or "" when logged out.
type TokenSource interface {
	Token() string
}

// Interface is the subset of the backend the dashboard depends on.
type Interface interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Register(ctx context.Context, payload models.RegisterPayload) (*models.UserOut, error)
	Analytics(ctx context.Context, query url.Values) (*models.AnalyticsResponse, error)
	Track(ctx context.Context, feature string) error
}

// Client talks to the backend over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	limiter *rate.Limiter
	cache   *cache.LRU[[]byte]
	breaker *breaker
}

var _ Interface = (*Client)(nil)

// NewClient creates a client for cfg. tokens may be nil for unauthenticated use.
func NewClient(cfg config.BackendConfig, tokens TokenSource) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	if cfg.CacheTTL > 0 {
		c.cache = cache.New[[]byte](cfg.CacheCapacity, cfg.CacheTTL, nil)
	}
	if cfg.Breaker.Enabled {
		c.breaker = newBreaker(cfg.Breaker)
	}
	return c
}

// WithHTTPClient replaces the underlying HTTP client. Used by tests.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

// ClearCache drops every cached GET response. Called when the identity changes.
func (c *Client) ClearCache() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// BreakerState returns the circuit breaker state, or "disabled".
func (c *Client) BreakerState() string {
	if c.breaker == nil {
		return "disabled"
	}
	return stateToString(c.breaker.state())
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	var out models.LoginResponse
	if err := c.do(ctx, http.MethodPost, PathLogin, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates a user account.
func (c *Client) Register(ctx context.Context, payload models.RegisterPayload) (*models.UserOut, error) {
	var out models.UserOut
	if err := c.do(ctx, http.MethodPost, PathRegister, nil, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Analytics fetches bar and line data for query.
func (c *Client) Analytics(ctx context.Context, query url.Values) (*models.AnalyticsResponse, error) {
	var out models.AnalyticsResponse
	if err := c.do(ctx, http.MethodGet, PathAnalytics, query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Track records one click on feature for the current user. The response
// body is not needed and is discarded.
func (c *Client) Track(ctx context.Context, feature string) error {
	return c.do(ctx, http.MethodPost, PathTrack, nil, models.TrackRequest{FeatureName: feature}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	cacheable := method == http.MethodGet && c.cache != nil
	if cacheable {
		if body, ok := c.cache.Get(c.cacheKey(reqURL)); ok {
			metrics.BackendCacheHits.Inc()
			return decodeBody(path, body, out)
		}
	}

	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("failed to encode %s request: %w", path, err)
		}
	}

	call := func() ([]byte, error) {
		return c.roundTrip(ctx, method, path, reqURL, payload)
	}

	var body []byte
	var err error
	if c.breaker != nil {
		body, err = c.breaker.execute(call)
	} else {
		body, err = call()
	}
	if err != nil {
		return err
	}

	if cacheable {
		c.cache.Set(c.cacheKey(reqURL), body)
	}
	return decodeBody(path, body, out)
}

func (c *Client) roundTrip(ctx context.Context, method, path, reqURL string, payload []byte) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait for %s: %w", path, err)
		}
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.BackendRequests.WithLabelValues(path, "error").Inc()
		return nil, fmt.Errorf("failed to make %s request: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.BackendRequests.WithLabelValues(path, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw := readBodyForError(resp.Body)
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Endpoint:   path,
			Detail:     parseDetail(raw),
			Body:       raw,
		}
		logging.Debug().
			Str("endpoint", path).
			Int("status", resp.StatusCode).
			Str("detail", apiErr.Detail).
			Msg("Backend request failed")
		return nil, apiErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", path, err)
	}
	return body, nil
}

// cacheKey scopes cached responses to the caller's identity so a cached
// answer never leaks across a user switch.
func (c *Client) cacheKey(reqURL string) string {
	return c.token() + " " + reqURL
}

func (c *Client) token() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

func decodeBody(path string, body []byte, out interface{}) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
