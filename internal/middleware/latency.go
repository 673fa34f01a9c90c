// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

// Package middleware keeps a rolling window of local API latencies so the
// dashboard can report how responsive it is without a Prometheus server.
package middleware

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tomtom215/clickboard/internal/logging"
)

// DefaultSlowThreshold marks a local request as slow. Chart interactions
// answer from memory, so anything near this is a stall.
const DefaultSlowThreshold = 250 * time.Millisecond

// Sample is one observed request.
type Sample struct {
	Method   string
	Route    string
	Status   int
	Duration time.Duration
	At       time.Time
}

// RouteStats aggregates the window for one method and route.
type RouteStats struct {
	Route  string  `json:"route"`
	Count  int     `json:"count"`
	Errors int     `json:"errors"`
	MeanMS float64 `json:"mean_ms"`
	P50MS  float64 `json:"p50_ms"`
	P95MS  float64 `json:"p95_ms"`
	P99MS  float64 `json:"p99_ms"`
	MaxMS  float64 `json:"max_ms"`
}

// LatencyMonitor is a fixed-size ring of recent samples.
type LatencyMonitor struct {
	mu      sync.RWMutex
	ring    []Sample
	next    int
	full    bool
	slow    time.Duration
	nowFunc func() time.Time
}

// NewLatencyMonitor keeps the last capacity samples. slow <= 0 uses
// DefaultSlowThreshold.
func NewLatencyMonitor(capacity int, slow time.Duration) *LatencyMonitor {
	if capacity <= 0 {
		capacity = 1024
	}
	if slow <= 0 {
		slow = DefaultSlowThreshold
	}
	return &LatencyMonitor{ring: make([]Sample, capacity), slow: slow, nowFunc: time.Now}
}

// Observe records s, overwriting the oldest sample when full.
func (m *LatencyMonitor) Observe(s Sample) {
	m.mu.Lock()
	m.ring[m.next] = s
	m.next = (m.next + 1) % len(m.ring)
	if m.next == 0 {
		m.full = true
	}
	m.mu.Unlock()

	if s.Duration >= m.slow {
		logging.Warn().
			Str("method", s.Method).
			Str("route", s.Route).
			Dur("duration", s.Duration).
			Msg("Slow request detected")
	}
}

// Len returns the number of samples held.
func (m *LatencyMonitor) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.full {
		return len(m.ring)
	}
	return m.next
}

// Recent returns up to n samples, newest first.
func (m *LatencyMonitor) Recent(n int) []Sample {
	m.mu.RLock()
	defer m.mu.RUnlock()

	held := m.next
	if m.full {
		held = len(m.ring)
	}
	if n > held {
		n = held
	}
	out := make([]Sample, 0, n)
	for i := 1; i <= n; i++ {
		idx := (m.next - i + len(m.ring)) % len(m.ring)
		out = append(out, m.ring[idx])
	}
	return out
}

// Stats aggregates the window per "METHOD route", busiest first.
func (m *LatencyMonitor) Stats() []RouteStats {
	samples := m.Recent(len(m.ring))

	type bucket struct {
		durations []time.Duration
		errors    int
	}
	buckets := make(map[string]*bucket)
	for _, s := range samples {
		key := s.Method + " " + s.Route
		b := buckets[key]
		if b == nil {
			b = &bucket{}
			buckets[key] = b
		}
		b.durations = append(b.durations, s.Duration)
		if s.Status >= http.StatusInternalServerError {
			b.errors++
		}
	}

	stats := make([]RouteStats, 0, len(buckets))
	for key, b := range buckets {
		sort.Slice(b.durations, func(i, j int) bool { return b.durations[i] < b.durations[j] })
		var sum time.Duration
		for _, d := range b.durations {
			sum += d
		}
		n := len(b.durations)
		stats = append(stats, RouteStats{
			Route:  key,
			Count:  n,
			Errors: b.errors,
			MeanMS: ms(sum / time.Duration(n)),
			P50MS:  ms(nearestRank(b.durations, 0.50)),
			P95MS:  ms(nearestRank(b.durations, 0.95)),
			P99MS:  ms(nearestRank(b.durations, 0.99)),
			MaxMS:  ms(b.durations[n-1]),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Route < stats[j].Route
	})
	return stats
}

// Middleware observes every request under its chi route pattern, so
// /filters/gender and /filters/ageGroup share one bucket.
func (m *LatencyMonitor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := m.nowFunc()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		end := m.nowFunc()
		m.Observe(Sample{
			Method:   r.Method,
			Route:    route,
			Status:   status,
			Duration: end.Sub(start),
			At:       end,
		})
	})
}

// nearestRank expects sorted input.
func nearestRank(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[int(float64(len(sorted)-1)*p)]
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
