// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

// Package dashboard is the dashboard controller: one Session owns the
// filters, the analytics snapshot, the drill-down selection and the
// projected line series, and wires user events to the tracker.
//
// All session state is mutated on a single event-loop goroutine started by
// Run. Public methods hand a closure to the loop and wait for it, so they
// are safe to call from HTTP handlers and the CLI. Background fetches
// re-enter the loop the same way before touching the snapshot.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/clickboard/internal/analytics"
	"github.com/tomtom215/clickboard/internal/clock"
	"github.com/tomtom215/clickboard/internal/logging"
	"github.com/tomtom215/clickboard/internal/models"
	"github.com/tomtom215/clickboard/internal/projector"
	"github.com/tomtom215/clickboard/internal/store"
	"github.com/tomtom215/clickboard/internal/tracker"
)

var (
	// ErrStopped is returned once the event loop has exited.
	ErrStopped = errors.New("dashboard: session stopped")

	// ErrNotMounted is returned for chart interactions while logged out.
	ErrNotMounted = errors.New("dashboard: not mounted")

	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("dashboard: session already running")
)

// Session statuses reported in View.Status.
const (
	StatusIdle      = "idle"
	StatusMounted   = "mounted"
	StatusLoggedOut = "logged_out"
)

// DateKind selects which end of the date range SetDate edits.
type DateKind string

// Date range ends.
const (
	DateStart DateKind = "start"
	DateEnd   DateKind = "end"
)

// Deps are the collaborators a Session needs.
type Deps struct {
	Filters *store.FilterStore
	Tokens  *store.TokenStore
	Fetcher *analytics.Fetcher
	Sender  tracker.Sender
	Clock   clock.Clock
	Config  tracker.Config
}

// Session is one mounted dashboard.
type Session struct {
	deps Deps

	events  chan func()
	stopped chan struct{}
	runOnce sync.Once

	// loop-owned
	mountGen uint64
	tracker  *tracker.Tracker
	status   string
	snapshot models.AnalyticsSnapshot
	selected *string
	memo     projector.Memo
	version  uint64

	viewMu sync.RWMutex
	view   View

	subsMu sync.Mutex
	subs   map[int]chan View
	nextID int
}

// New returns a Session. Call Run to start its event loop.
func New(deps Deps) *Session {
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	s := &Session{
		deps:     deps,
		events:   make(chan func()),
		stopped:  make(chan struct{}),
		status:   StatusIdle,
		snapshot: emptySnapshot(),
		subs:     make(map[int]chan View),
	}
	s.view = s.buildView()
	return s
}

func emptySnapshot() models.AnalyticsSnapshot {
	return models.AnalyticsSnapshot{BarData: []models.BarDataItem{}, LineData: []models.RawLineDataItem{}}
}

// Run processes events until ctx is done. A Session runs at most once.
func (s *Session) Run(ctx context.Context) error {
	started := false
	s.runOnce.Do(func() { started = true })
	if !started {
		return ErrAlreadyRunning
	}

	logging.Info().Msg("Dashboard session started")
	defer func() {
		close(s.stopped)
		s.unmountLocked(StatusIdle)
		s.closeSubscribers()
		logging.Info().Msg("Dashboard session stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-s.events:
			ev()
		}
	}
}

// Done is closed when the event loop exits.
func (s *Session) Done() <-chan struct{} {
	return s.stopped
}

// do runs fn on the loop and waits for it to finish.
func (s *Session) do(ctx context.Context, fn func()) error {
	reply := make(chan struct{})
	select {
	case s.events <- func() { fn(); close(reply) }:
	case <-s.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	// once accepted, fn runs to completion on the loop before it can exit
	<-reply
	return nil
}

// Mount starts the dashboard: the restored filters are fetched after one
// debounce window, and that fetch is not tracked. Mounting twice is a no-op.
func (s *Session) Mount(ctx context.Context) error {
	return s.do(ctx, func() {
		if s.status == StatusMounted {
			return
		}
		s.mountGen++
		host := &mountHost{session: s, gen: s.mountGen}
		s.tracker = tracker.New(host, s.deps.Fetcher, s.deps.Sender, s.deps.Clock, s.deps.Config)
		s.status = StatusMounted
		s.tracker.Mount()
		logging.Info().Uint64("mount", s.mountGen).Msg("Dashboard mounted")
		s.publish()
	})
}

// Logout removes the saved token and unmounts, cancelling pending timers
// and in-flight requests.
func (s *Session) Logout(ctx context.Context) error {
	if s.deps.Tokens != nil {
		if err := s.deps.Tokens.Clear(); err != nil {
			return fmt.Errorf("clear token: %w", err)
		}
	}
	return s.do(ctx, func() {
		s.unmountLocked(StatusLoggedOut)
		s.publish()
	})
}

// unmountLocked must run on the loop, or after it has exited.
func (s *Session) unmountLocked(status string) {
	if s.tracker != nil {
		// flows may be waiting on the loop, so Stop and not Close
		s.tracker.Stop()
		s.tracker = nil
	}
	s.mountGen++
	s.status = status
	s.snapshot = emptySnapshot()
	s.selected = nil
	s.memo.Reset()
}

// SetFilters replaces all filters.
func (s *Session) SetFilters(ctx context.Context, next models.FilterState) (View, error) {
	var v View
	err := s.do(ctx, func() {
		s.applyFilters(next)
		v = s.publish()
	})
	return v, err
}

// SetField replaces a single filter field.
func (s *Session) SetField(ctx context.Context, field models.FilterField, value string) (View, error) {
	var v View
	var ferr error
	err := s.do(ctx, func() {
		next, err := s.deps.Filters.Get().With(field, value)
		if err != nil {
			ferr = err
			return
		}
		s.applyFilters(next)
		v = s.publish()
	})
	if err != nil {
		return View{}, err
	}
	return v, ferr
}

// SetDate edits the start or end date.
func (s *Session) SetDate(ctx context.Context, kind DateKind, value string) (View, error) {
	switch kind {
	case DateStart:
		return s.SetField(ctx, models.FieldStartDate, value)
	case DateEnd:
		return s.SetField(ctx, models.FieldEndDate, value)
	default:
		return View{}, fmt.Errorf("unknown date kind %q", kind)
	}
}

// SetAgeGroup edits the age facet.
func (s *Session) SetAgeGroup(ctx context.Context, g models.AgeGroup) (View, error) {
	return s.SetField(ctx, models.FieldAgeGroup, string(g))
}

// SetGender edits the gender facet.
func (s *Session) SetGender(ctx context.Context, g models.Gender) (View, error) {
	return s.SetField(ctx, models.FieldGender, string(g))
}

func (s *Session) applyFilters(next models.FilterState) {
	s.deps.Filters.Set(next)
	if s.tracker != nil {
		s.tracker.FiltersChanged(next)
	}
}

// ClickBar handles a click on feature's bar. The selection always changes;
// accepted reports whether the click passed the throttle and was sent.
func (s *Session) ClickBar(ctx context.Context, feature string) (v View, accepted bool, err error) {
	var notMounted bool
	err = s.do(ctx, func() {
		if s.tracker == nil {
			notMounted = true
			return
		}
		accepted = s.tracker.BarClicked(feature)
		v = s.publish()
	})
	if err == nil && notMounted {
		err = ErrNotMounted
	}
	return v, accepted, err
}

// SelectFeature sets or, with nil, clears the drill-down selection without
// tracking anything.
func (s *Session) SelectFeature(ctx context.Context, feature *string) (View, error) {
	var v View
	err := s.do(ctx, func() {
		if feature != nil {
			f := *feature
			feature = &f
		}
		s.selected = feature
		v = s.publish()
	})
	return v, err
}

// Wait blocks until the background flows of the current mount, such as
// debounced fetches and click re-fetches, have finished. Pending debounce
// timers are not waited for. If ctx ends first Wait returns ctx.Err(), and
// its helper goroutine stays parked on the tracker until those flows drain.
func (s *Session) Wait(ctx context.Context) error {
	var tr *tracker.Tracker
	if err := s.do(ctx, func() { tr = s.tracker }); err != nil {
		return err
	}
	if tr == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		tr.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending reports whether a debounced fetch is waiting to fire.
func (s *Session) Pending(ctx context.Context) (bool, error) {
	var pending bool
	err := s.do(ctx, func() { pending = s.tracker != nil && s.tracker.Pending() })
	return pending, err
}

// State returns the latest published view.
func (s *Session) State() View {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	return s.view
}

// Filters returns the current filters.
func (s *Session) Filters() models.FilterState {
	return s.deps.Filters.Get()
}

// Subscribe returns a channel that receives the latest view after every
// change. Slow readers only see the most recent view. The returned
// function unsubscribes.
func (s *Session) Subscribe() (<-chan View, func()) {
	ch := make(chan View, 1)
	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			if _, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(ch)
			}
			s.subsMu.Unlock()
		})
	}
}

func (s *Session) closeSubscribers() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
}

// publish rebuilds the view on the loop and fans it out.
func (s *Session) publish() View {
	s.version++
	v := s.buildView()

	s.viewMu.Lock()
	s.view = v
	s.viewMu.Unlock()

	s.subsMu.Lock()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
	s.subsMu.Unlock()
	return v
}

func (s *Session) buildView() View {
	var selected *string
	if s.selected != nil {
		f := *s.selected
		selected = &f
	}
	return View{
		Status:          s.status,
		Filters:         s.deps.Filters.Get(),
		BarData:         s.snapshot.BarData,
		LineSeries:      s.memo.Get(s.snapshot.LineData, s.selected),
		SelectedFeature: selected,
		Version:         s.version,
		UpdatedAt:       s.deps.Clock.Now().UTC().Truncate(time.Millisecond),
	}
}

// mountHost adapts the Session to one tracker. Results from a previous
// mount carry a stale generation and are dropped.
type mountHost struct {
	session *Session
	gen     uint64
	seq     analytics.Sequencer
}

func (h *mountHost) Filters() models.FilterState {
	return h.session.deps.Filters.Get()
}

// SelectFeature runs on the loop, inside ClickBar.
func (h *mountHost) SelectFeature(feature *string) {
	h.session.selected = feature
}

// PatchSnapshot runs on the loop, inside ClickBar.
func (h *mountHost) PatchSnapshot(fn func(models.AnalyticsSnapshot) (models.AnalyticsSnapshot, bool)) {
	if next, ok := fn(h.session.snapshot); ok {
		h.session.snapshot = next
	}
}

// ApplyFetch runs on a background goroutine and re-enters the loop.
func (h *mountHost) ApplyFetch(res analytics.Result) bool {
	s := h.session
	applied := false
	err := s.do(context.Background(), func() {
		if h.gen != s.mountGen {
			return
		}
		if !h.seq.Accept(res.Seq) || !res.OK() {
			return
		}
		s.snapshot = res.Snapshot
		s.publish()
		applied = true
	})
	if err != nil {
		return false
	}
	return applied
}
