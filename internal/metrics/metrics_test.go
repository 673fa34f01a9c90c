// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordFetch(t *testing.T) {
	before := testutil.ToFloat64(FetchTotal.WithLabelValues(OutcomeStale))
	RecordFetch(OutcomeStale, 10*time.Millisecond)
	after := testutil.ToFloat64(FetchTotal.WithLabelValues(OutcomeStale))

	if after-before != 1 {
		t.Errorf("stale fetch counter delta = %v, want 1", after-before)
	}
}

func TestRecordTrack(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		err     error
		outcome string
	}{
		{"click ok", KindClick, nil, "success"},
		{"filter failed", KindFilter, errors.New("timeout"), "failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := TrackTotal.WithLabelValues(tt.kind, tt.outcome)
			before := testutil.ToFloat64(c)
			RecordTrack(tt.kind, tt.err)
			if got := testutil.ToFloat64(c) - before; got != 1 {
				t.Errorf("delta = %v, want 1", got)
			}
		})
	}
}

func TestRecordAPIRequest(t *testing.T) {
	c := APIRequestsTotal.WithLabelValues("GET", "/api/v1/dashboard", "200")
	before := testutil.ToFloat64(c)
	RecordAPIRequest("GET", "/api/v1/dashboard", "200", time.Millisecond)
	if got := testutil.ToFloat64(c) - before; got != 1 {
		t.Errorf("delta = %v, want 1", got)
	}
}

func TestCollectorsRegistered(t *testing.T) {
	if n := testutil.CollectAndCount(CircuitBreakerState); n < 0 {
		t.Errorf("CollectAndCount = %d", n)
	}
	ClickThrottled.Inc()
	if testutil.ToFloat64(ClickThrottled) < 1 {
		t.Error("ClickThrottled not incremented")
	}
}
