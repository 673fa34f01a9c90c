// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

package clock

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Fake is a manually advanced clock. Callbacks run synchronously inside
// Advance, in deadline order, on the goroutine that called Advance.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	seq     uint64
	timers  []*fakeTimer
	changed chan struct{}
}

type fakeTimer struct {
	clock    *Fake
	id       uint64
	deadline time.Time
	fn       func()
}

// NewFake returns a Fake frozen at now.
func NewFake(now time.Time) *Fake {
	return &Fake{now: now, changed: make(chan struct{})}
}

// Now implements Clock.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// AfterFunc implements Clock. A non-positive d fires on the next Advance.
func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d < 0 {
		d = 0
	}
	f.seq++
	t := &fakeTimer{clock: f, id: f.seq, deadline: f.now.Add(d), fn: fn}
	f.timers = append(f.timers, t)
	f.notifyLocked()
	return t
}

// Sleep implements Clock.
func (f *Fake) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	done := make(chan struct{})
	t := f.AfterFunc(d, func() { close(done) })
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		t.Stop()
		return ctx.Err()
	}
}

// Advance moves time forward by d, firing every timer that comes due.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	for {
		t := f.nextDueLocked(target)
		if t == nil {
			break
		}
		f.now = t.deadline
		f.mu.Unlock()
		t.fn()
		f.mu.Lock()
	}
	f.now = target
	f.mu.Unlock()
}

// Set moves the clock to t. Moving forward fires due timers like Advance;
// moving backward fires nothing.
func (f *Fake) Set(t time.Time) {
	now := f.Now()
	if t.After(now) {
		f.Advance(t.Sub(now))
		return
	}
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}

// Pending reports how many timers (including sleepers) are waiting.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timers)
}

// BlockUntil waits until at least n timers are pending or ctx is done.
func (f *Fake) BlockUntil(ctx context.Context, n int) error {
	for {
		f.mu.Lock()
		if len(f.timers) >= n {
			f.mu.Unlock()
			return nil
		}
		ch := f.changed
		f.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (f *Fake) nextDueLocked(target time.Time) *fakeTimer {
	if len(f.timers) == 0 {
		return nil
	}
	sort.SliceStable(f.timers, func(i, j int) bool {
		if f.timers[i].deadline.Equal(f.timers[j].deadline) {
			return f.timers[i].id < f.timers[j].id
		}
		return f.timers[i].deadline.Before(f.timers[j].deadline)
	})
	t := f.timers[0]
	if t.deadline.After(target) {
		return nil
	}
	f.timers = f.timers[1:]
	return t
}

func (f *Fake) notifyLocked() {
	close(f.changed)
	f.changed = make(chan struct{})
}

func (t *fakeTimer) Stop() bool {
	f := t.clock
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, other := range f.timers {
		if other == t {
			f.timers = append(f.timers[:i], f.timers[i+1:]...)
			f.notifyLocked()
			return true
		}
	}
	return false
}
