// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

// Package tracker records dashboard interactions with the backend.
//
// Filter changes are debounced: only the state present when the window
// closes is fetched, and every settled fetch except the first one after
// mount is reported as a filter interaction. Bar clicks always update the
// drill-down selection, but only one click per throttle window reaches the
// backend. An accepted click may patch the bar data optimistically, is
// tracked, and after a settle delay triggers a cache-busted re-fetch that
// reaches today so the new click is in range.
//
// Network failures are logged and dropped. Nothing is retried or rolled back.
package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/clickboard/internal/analytics"
	"github.com/tomtom215/clickboard/internal/clock"
	"github.com/tomtom215/clickboard/internal/config"
	"github.com/tomtom215/clickboard/internal/logging"
	"github.com/tomtom215/clickboard/internal/metrics"
	"github.com/tomtom215/clickboard/internal/models"
)

// DefaultFilterInteraction is the feature name reported for settled filter changes.
const DefaultFilterInteraction = "Filter Interaction"

// Sender posts tracking events.
type Sender interface {
	Track(ctx context.Context, feature string) error
}

// Host owns the state the tracker reads and mutates.
//
// Filters may be called from any goroutine. SelectFeature and PatchSnapshot
// are only called synchronously from BarClicked, on the caller's goroutine.
// ApplyFetch is called from background goroutines.
type Host interface {
	analytics.SnapshotSink
	Filters() models.FilterState
	SelectFeature(feature *string)
	PatchSnapshot(fn func(models.AnalyticsSnapshot) (models.AnalyticsSnapshot, bool))
}

// Config holds the interaction timing.
type Config struct {
	Debounce          time.Duration
	ClickThrottle     time.Duration
	SettleDelay       time.Duration
	Policy            OptimismPolicy
	FilterInteraction string
}

// DefaultConfig returns the standard timings.
func DefaultConfig() Config {
	return Config{
		Debounce:          500 * time.Millisecond,
		ClickThrottle:     2 * time.Second,
		SettleDelay:       500 * time.Millisecond,
		Policy:            FilterlessOptimism{},
		FilterInteraction: DefaultFilterInteraction,
	}
}

// ConfigFrom converts the dashboard configuration section.
func ConfigFrom(cfg config.DashboardConfig) (Config, error) {
	policy, err := ParsePolicy(cfg.Optimism)
	if err != nil {
		return Config{}, err
	}
	out := Config{
		Debounce:          cfg.Debounce,
		ClickThrottle:     cfg.ClickThrottle,
		SettleDelay:       cfg.SettleDelay,
		Policy:            policy,
		FilterInteraction: cfg.FilterInteractionFeature,
	}
	if out.FilterInteraction == "" {
		out.FilterInteraction = DefaultFilterInteraction
	}
	return out, nil
}

// Tracker drives the filter and click flows for one mounted dashboard.
// A fresh Tracker is created per mount so the first-fetch rule restarts.
type Tracker struct {
	cfg     Config
	host    Host
	fetcher *analytics.Fetcher
	sender  Sender
	clock   clock.Clock

	debounce *Debouncer
	throttle *Throttle

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	fetched bool
	closed  bool
}

// New returns a Tracker. Close must be called to release in-flight work.
func New(host Host, fetcher *analytics.Fetcher, sender Sender, clk clock.Clock, cfg Config) *Tracker {
	if cfg.Policy == nil {
		cfg.Policy = FilterlessOptimism{}
	}
	if cfg.FilterInteraction == "" {
		cfg.FilterInteraction = DefaultFilterInteraction
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Tracker{
		cfg:      cfg,
		host:     host,
		fetcher:  fetcher,
		sender:   sender,
		clock:    clk,
		debounce: NewDebouncer(clk, cfg.Debounce),
		throttle: NewThrottle(clk, cfg.ClickThrottle),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Mount arms the initial fetch for the restored filters. That fetch is
// never tracked.
func (t *Tracker) Mount() {
	t.FiltersChanged(t.host.Filters())
}

// FiltersChanged (re)starts the debounce window for filters.
func (t *Tracker) FiltersChanged(filters models.FilterState) {
	t.debounce.Start(func() { t.settled(filters) })
}

// Pending reports whether a debounced fetch is waiting.
func (t *Tracker) Pending() bool {
	return t.debounce.IsActive()
}

func (t *Tracker) settled(filters models.FilterState) {
	t.mu.Lock()
	first := !t.fetched
	t.fetched = true
	t.mu.Unlock()

	t.spawn(func(ctx context.Context) {
		t.fetcher.Refresh(ctx, filters, analytics.Options{}, t.host)
		if first {
			return
		}
		err := t.sender.Track(ctx, t.cfg.FilterInteraction)
		metrics.RecordTrack(metrics.KindFilter, err)
		if err != nil && ctx.Err() == nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to track filter interaction")
		}
	})
}

// BarClicked handles a click on feature's bar. The selection is applied
// before anything else. It reports whether the click passed the throttle.
func (t *Tracker) BarClicked(feature string) bool {
	t.host.SelectFeature(&feature)

	if !t.throttle.TryAcquire() {
		metrics.ClickThrottled.Inc()
		logging.Debug().Str("feature", feature).Msg("Click throttled")
		return false
	}

	if t.cfg.Policy.Allow(t.host.Filters(), feature) {
		t.host.PatchSnapshot(func(s models.AnalyticsSnapshot) (models.AnalyticsSnapshot, bool) {
			next, ok := s.IncrementFeature(feature)
			if ok {
				metrics.OptimisticUpdates.Inc()
			}
			return next, ok
		})
	}

	t.spawn(func(ctx context.Context) {
		if err := t.clickFlow(ctx, feature); err != nil && ctx.Err() == nil {
			logging.Ctx(ctx).Warn().Err(err).Str("feature", feature).Msg("Click flow failed")
		}
	})
	return true
}

// clickFlow tracks, waits for the backend to settle and re-fetches. A
// failed step abandons the rest.
func (t *Tracker) clickFlow(ctx context.Context, feature string) error {
	err := t.sender.Track(ctx, feature)
	metrics.RecordTrack(metrics.KindClick, err)
	if err != nil {
		return fmt.Errorf("track click: %w", err)
	}

	if err := t.clock.Sleep(ctx, t.cfg.SettleDelay); err != nil {
		return fmt.Errorf("settle delay: %w", err)
	}

	res := t.fetcher.Refresh(ctx, t.host.Filters(), analytics.Options{
		BustCache:       true,
		ForceTodayAsEnd: true,
	}, t.host)
	if res.Err != nil {
		return fmt.Errorf("re-fetch after click: %w", res.Err)
	}
	return nil
}

// spawn runs fn in the background with a correlated context. It does
// nothing once the tracker is closed.
func (t *Tracker) spawn(fn func(ctx context.Context)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.wg.Add(1)
	ctx := logging.ContextWithNewCorrelationID(t.ctx)
	go func() {
		defer t.wg.Done()
		fn(ctx)
	}()
}

// Wait blocks until every background flow started so far has finished.
func (t *Tracker) Wait() {
	t.wg.Wait()
}

// Stop cancels the pending debounce and in-flight requests without
// waiting. No new flow starts afterwards.
func (t *Tracker) Stop() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()

	t.debounce.Cancel()
	t.throttle.Cancel()
	t.cancel()
}

// Close stops the tracker and waits for background flows to return.
func (t *Tracker) Close() {
	t.Stop()
	t.wg.Wait()
}
