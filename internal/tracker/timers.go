// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

package tracker

import (
	"sync"
	"time"

	"github.com/tomtom215/clickboard/internal/clock"
)

// Debouncer runs the most recently started callback once input has been
// quiet for the window. Starting again before the window ends supersedes
// the previous callback, which never runs.
type Debouncer struct {
	clock  clock.Clock
	window time.Duration

	mu    sync.Mutex
	gen   uint64
	timer clock.Timer
}

// NewDebouncer returns an idle Debouncer.
func NewDebouncer(clk clock.Clock, window time.Duration) *Debouncer {
	return &Debouncer{clock: clk, window: window}
}

// Start (re)arms the window with fn.
func (d *Debouncer) Start(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.window, func() {
		d.mu.Lock()
		// a timer that already fired cannot be stopped; the generation
		// catches the ones that lost that race
		if gen != d.gen || d.timer == nil {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending callback, if any, and reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	d.gen++
	return true
}

// IsActive reports whether a callback is waiting for the window to close.
func (d *Debouncer) IsActive() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Throttle is a single lock that, once taken, stays held for the window.
// It is global: every caller shares it regardless of what they act on.
type Throttle struct {
	clock  clock.Clock
	window time.Duration

	mu    sync.Mutex
	until time.Time
}

// NewThrottle returns an unlocked Throttle.
func NewThrottle(clk clock.Clock, window time.Duration) *Throttle {
	return &Throttle{clock: clk, window: window}
}

// TryAcquire takes the lock if it is free and reports whether it did.
func (t *Throttle) TryAcquire() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock.Now()
	if now.Before(t.until) {
		return false
	}
	t.until = now.Add(t.window)
	return true
}

// Start takes the lock unconditionally, restarting the window.
func (t *Throttle) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.until = t.clock.Now().Add(t.window)
}

// Cancel releases the lock.
func (t *Throttle) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.until = time.Time{}
}

// IsActive reports whether the lock is held.
func (t *Throttle) IsActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.clock.Now().Before(t.until)
}
