// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

package analytics

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/clickboard/internal/clock"
	"github.com/tomtom215/clickboard/internal/models"
)

var midMarch = time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)

func TestBuildQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		filters models.FilterState
		opts    Options
		want    url.Values
	}{
		{
			name:    "empty facets omitted",
			filters: models.FilterState{StartDate: "2024-03-01", EndDate: "2024-03-31"},
			want:    url.Values{ParamStartDate: {"2024-03-01"}, ParamEndDate: {"2024-03-31"}},
		},
		{
			name:    "facets sent when set",
			filters: models.FilterState{StartDate: "2024-03-01", EndDate: "2024-03-31", AgeGroup: models.AgeGroup18To40, Gender: models.GenderFemale},
			want: url.Values{
				ParamStartDate: {"2024-03-01"}, ParamEndDate: {"2024-03-31"},
				ParamAgeGroup: {"18-40"}, ParamGender: {"Female"},
			},
		},
		{
			name:    "missing dates use month bounds",
			filters: models.FilterState{},
			want:    url.Values{ParamStartDate: {"2024-03-01"}, ParamEndDate: {"2024-03-31"}},
		},
		{
			name:    "garbage dates and facets fall back",
			filters: models.FilterState{StartDate: "yesterday", EndDate: "2024-13-45", AgeGroup: "ancient", Gender: "robot"},
			want:    url.Values{ParamStartDate: {"2024-03-01"}, ParamEndDate: {"2024-03-31"}},
		},
		{
			name:    "force today widens past end",
			filters: models.FilterState{StartDate: "2024-02-01", EndDate: "2024-02-29"},
			opts:    Options{ForceTodayAsEnd: true},
			want:    url.Values{ParamStartDate: {"2024-02-01"}, ParamEndDate: {"2024-03-14"}},
		},
		{
			name:    "force today keeps future end",
			filters: models.FilterState{StartDate: "2024-03-01", EndDate: "2024-03-31"},
			opts:    Options{ForceTodayAsEnd: true},
			want:    url.Values{ParamStartDate: {"2024-03-01"}, ParamEndDate: {"2024-03-31"}},
		},
		{
			name:    "cache token attached",
			filters: models.FilterState{StartDate: "2024-03-01", EndDate: "2024-03-31"},
			opts:    Options{BustCache: true},
			want:    url.Values{ParamStartDate: {"2024-03-01"}, ParamEndDate: {"2024-03-31"}, ParamCacheToken: {"tok"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := BuildQuery(tt.filters, tt.opts, midMarch, "tok")
			if got.Encode() != tt.want.Encode() {
				t.Errorf("BuildQuery() = %s, want %s", got.Encode(), tt.want.Encode())
			}
		})
	}
}

func TestBuildQueryDoesNotMutateFilters(t *testing.T) {
	t.Parallel()

	f := models.FilterState{StartDate: "2024-01-01", EndDate: "2024-01-02"}
	_ = BuildQuery(f, Options{ForceTodayAsEnd: true}, midMarch, "")
	if f.EndDate != "2024-01-02" {
		t.Errorf("filters mutated: %+v", f)
	}
}

func TestCacheBusterDistinct(t *testing.T) {
	t.Parallel()

	b := NewCacheBuster()
	other := NewCacheBuster()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		for _, tok := range []string{b.Next(), other.Next()} {
			if seen[tok] {
				t.Fatalf("duplicate token %q", tok)
			}
			seen[tok] = true
		}
	}
}

type stubSource struct {
	mu      sync.Mutex
	queries []url.Values
	resp    *models.AnalyticsResponse
	err     error
	during  func()
}

func (s *stubSource) Analytics(_ context.Context, q url.Values) (*models.AnalyticsResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	if s.during != nil {
		s.during()
	}
	return s.resp, s.err
}

type recordingSink struct {
	seq     Sequencer
	applied []Result
}

func (r *recordingSink) ApplyFetch(res Result) bool {
	if !r.seq.Accept(res.Seq) || !res.OK() {
		return false
	}
	r.applied = append(r.applied, res)
	return true
}

func TestFetchSuccess(t *testing.T) {
	t.Parallel()

	src := &stubSource{resp: &models.AnalyticsResponse{
		BarData: []models.BarDataItem{{Feature: "date_filter", Clicks: 4}},
	}}
	f := NewFetcher(src, clock.NewFake(midMarch))
	sink := &recordingSink{}

	res := f.Refresh(context.Background(), models.FilterState{}, Options{BustCache: true}, sink)
	if !res.OK() || res.Seq != 1 {
		t.Fatalf("Refresh() = %+v", res)
	}
	if len(sink.applied) != 1 || sink.applied[0].Snapshot.BarData[0].Clicks != 4 {
		t.Errorf("applied = %+v", sink.applied)
	}
	if res.Snapshot.LineData == nil {
		t.Error("missing line_data should normalize to an empty slice")
	}
	if src.queries[0].Get(ParamCacheToken) == "" {
		t.Error("BustCache should attach a token")
	}
}

func TestFetchDurationUsesClock(t *testing.T) {
	t.Parallel()

	clk := clock.NewFake(midMarch)
	src := &stubSource{
		resp:   &models.AnalyticsResponse{},
		during: func() { clk.Advance(750 * time.Millisecond) },
	}
	res := NewFetcher(src, clk).Fetch(context.Background(), models.FilterState{}, Options{})
	if res.Duration != 750*time.Millisecond {
		t.Errorf("Duration = %v, want 750ms", res.Duration)
	}
}

func TestFetchFailureKeepsSnapshot(t *testing.T) {
	t.Parallel()

	src := &stubSource{err: errors.New("connection refused")}
	f := NewFetcher(src, clock.NewFake(midMarch))
	sink := &recordingSink{}

	res := f.Refresh(context.Background(), models.FilterState{}, Options{}, sink)
	if res.OK() {
		t.Fatal("expected failure")
	}
	if len(sink.applied) != 0 {
		t.Error("a failed fetch must not be applied")
	}
}

func TestSequencerDiscardsOutOfOrder(t *testing.T) {
	t.Parallel()

	var s Sequencer
	steps := []struct {
		seq  uint64
		want bool
	}{
		{2, true},  // newer finished first
		{1, false}, // older arrives late
		{3, true},
		{3, false}, // duplicate
		{5, true},
		{4, false},
	}
	for _, st := range steps {
		if got := s.Accept(st.seq); got != st.want {
			t.Errorf("Accept(%d) = %v, want %v", st.seq, got, st.want)
		}
	}
	if s.Newest() != 5 {
		t.Errorf("Newest() = %d", s.Newest())
	}
}

func TestFetchSequenceMonotonic(t *testing.T) {
	t.Parallel()

	src := &stubSource{resp: &models.AnalyticsResponse{}}
	f := NewFetcher(src, clock.NewFake(midMarch))

	var wg sync.WaitGroup
	seqs := make(chan uint64, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seqs <- f.Fetch(context.Background(), models.FilterState{}, Options{}).Seq
		}()
	}
	wg.Wait()
	close(seqs)

	seen := map[uint64]bool{}
	for s := range seqs {
		if s == 0 || s > 50 || seen[s] {
			t.Fatalf("bad or duplicate seq %d", s)
		}
		seen[s] = true
	}
}
