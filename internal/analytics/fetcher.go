// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

// Package analytics fetches click analytics from the backend and decides
// which responses may replace the dashboard snapshot.
//
// A fetch never returns an error to its caller. Failures are logged and
// reported in the Result, and the previous snapshot stays in place. Every
// fetch is stamped with a sequence number so that a slow response cannot
// overwrite the result of a newer one.
package analytics

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/clickboard/internal/clock"
	"github.com/tomtom215/clickboard/internal/logging"
	"github.com/tomtom215/clickboard/internal/metrics"
	"github.com/tomtom215/clickboard/internal/models"
)

// Source is the backend call the Fetcher needs.
type Source interface {
	Analytics(ctx context.Context, query url.Values) (*models.AnalyticsResponse, error)
}

// Result is the outcome of one fetch.
type Result struct {
	Seq      uint64
	Query    url.Values
	Snapshot models.AnalyticsSnapshot
	Err      error
	Duration time.Duration
}

// OK reports whether the fetch produced a snapshot.
func (r Result) OK() bool { return r.Err == nil }

// SnapshotSink receives completed fetches. ApplyFetch reports whether the
// result replaced the current snapshot.
type SnapshotSink interface {
	ApplyFetch(Result) bool
}

// Fetcher builds queries and calls the backend.
type Fetcher struct {
	src    Source
	clock  clock.Clock
	buster *CacheBuster
	seq    atomic.Uint64
}

// NewFetcher returns a Fetcher over src.
func NewFetcher(src Source, clk clock.Clock) *Fetcher {
	return &Fetcher{src: src, clock: clk, buster: NewCacheBuster()}
}

// Fetch performs one request. The sequence number is taken when the call
// starts, so it orders requests by issue time.
func (f *Fetcher) Fetch(ctx context.Context, filters models.FilterState, opts Options) Result {
	seq := f.seq.Add(1)

	token := ""
	if opts.BustCache {
		token = f.buster.Next()
	}
	query := BuildQuery(filters, opts, f.clock.Now(), token)

	start := f.clock.Now()
	resp, err := f.src.Analytics(ctx, query)
	res := Result{Seq: seq, Query: query, Err: err, Duration: f.clock.Now().Sub(start)}
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logging.Ctx(ctx).Warn().Err(err).Uint64("seq", seq).Msg("Failed to fetch analytics")
		}
		return res
	}
	res.Snapshot = resp.Snapshot()
	return res
}

// Refresh fetches and hands the result to sink, recording the outcome.
func (f *Fetcher) Refresh(ctx context.Context, filters models.FilterState, opts Options, sink SnapshotSink) Result {
	res := f.Fetch(ctx, filters, opts)
	applied := sink.ApplyFetch(res)

	switch {
	case !res.OK():
		metrics.RecordFetch(metrics.OutcomeFailed, res.Duration)
	case applied:
		metrics.RecordFetch(metrics.OutcomeApplied, res.Duration)
	default:
		metrics.RecordFetch(metrics.OutcomeStale, res.Duration)
		logging.Ctx(ctx).Debug().Uint64("seq", res.Seq).Msg("Discarded out-of-order analytics response")
	}
	return res
}

// Sequencer admits completed fetches in issue order. Once a fetch with
// sequence n has completed, successfully or not, any result numbered n or
// lower is stale.
type Sequencer struct {
	mu     sync.Mutex
	newest uint64
}

// Accept reports whether seq is newer than every completion seen so far
// and, if so, records it.
func (s *Sequencer) Accept(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.newest {
		return false
	}
	s.newest = seq
	return true
}

// Newest returns the highest accepted sequence number.
func (s *Sequencer) Newest() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.newest
}
