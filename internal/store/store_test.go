// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

package store

import (
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/clickboard/internal/clock"
	"github.com/tomtom215/clickboard/internal/models"
)

var march = time.Date(2024, 3, 14, 9, 30, 0, 0, time.UTC)

func openBackends(t *testing.T) map[string]KV {
	t.Helper()

	mem, err := OpenBadger("", true)
	if err != nil {
		t.Fatalf("OpenBadger(in-memory): %v", err)
	}
	disk, err := OpenBadger(t.TempDir(), false)
	if err != nil {
		t.Fatalf("OpenBadger(disk): %v", err)
	}
	t.Cleanup(func() {
		_ = mem.Close()
		_ = disk.Close()
	})
	return map[string]KV{
		"memory":        NewMemoryKV(),
		"badger-memory": mem,
		"badger-disk":   disk,
	}
}

func TestKVRoundTrip(t *testing.T) {
	for name, kv := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := kv.Get("missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
			}
			if err := kv.Set("k", []byte("v1")); err != nil {
				t.Fatal(err)
			}
			if err := kv.Set("k", []byte("v2")); err != nil {
				t.Fatal(err)
			}
			got, err := kv.Get("k")
			if err != nil || string(got) != "v2" {
				t.Errorf("Get(k) = %q, %v", got, err)
			}
			if err := kv.Delete("k"); err != nil {
				t.Fatal(err)
			}
			if _, err := kv.Get("k"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get after Delete error = %v", err)
			}
			if err := kv.Delete("never-existed"); err != nil {
				t.Errorf("Delete(missing) = %v", err)
			}
		})
	}
}

func TestSlotKey(t *testing.T) {
	t.Parallel()

	if got := SlotKey("/", FiltersSlot); got != "/:dashboardFilters" {
		t.Errorf("SlotKey = %q", got)
	}
	if got := SlotKey("", TokenSlot); got != "/:token" {
		t.Errorf("SlotKey with empty path = %q", got)
	}
}

func TestFilterStoreDefaults(t *testing.T) {
	t.Parallel()

	s := NewFilterStore(NewMemoryKV(), clock.NewFake(march))
	want := models.FilterState{StartDate: "2024-03-01", EndDate: "2024-03-31"}
	if got := s.Get(); got != want {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
}

func TestFilterStoreRoundTrip(t *testing.T) {
	for name, kv := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			clk := clock.NewFake(march)
			next := models.FilterState{
				StartDate: "2024-02-10",
				EndDate:   "2024-03-05",
				AgeGroup:  models.AgeGroup18To40,
				Gender:    models.GenderFemale,
			}
			NewFilterStore(kv, clk).Set(next)

			// simulated reload
			restored := NewFilterStore(kv, clk).Get()
			if restored != next {
				t.Errorf("restored %+v, want %+v", restored, next)
			}
		})
	}
}

func TestMergeFilters(t *testing.T) {
	t.Parallel()

	defaults := models.DefaultFilters(march)

	tests := []struct {
		name string
		raw  string
		want models.FilterState
	}{
		{
			name: "missing fields use month defaults",
			raw:  `{"ageGroup":">40"}`,
			want: models.FilterState{StartDate: "2024-03-01", EndDate: "2024-03-31", AgeGroup: models.AgeGroupOver40},
		},
		{
			name: "persisted dates win",
			raw:  `{"startDate":"2023-12-01","endDate":"2023-12-31","gender":"Male"}`,
			want: models.FilterState{StartDate: "2023-12-01", EndDate: "2023-12-31", Gender: models.GenderMale},
		},
		{
			name: "empty dates fall back",
			raw:  `{"startDate":"","endDate":""}`,
			want: defaults,
		},
		{
			name: "wrong field type falls back per field",
			raw:  `{"startDate":20240101,"endDate":"2024-03-20","gender":["Male"]}`,
			want: models.FilterState{StartDate: "2024-03-01", EndDate: "2024-03-20"},
		},
		{
			name: "garbage falls back entirely",
			raw:  `{not json`,
			want: defaults,
		},
		{
			name: "non-object falls back",
			raw:  `"2024-01-01"`,
			want: defaults,
		},
		{
			name: "null falls back",
			raw:  `null`,
			want: defaults,
		},
		{
			name: "unknown facet passes through",
			raw:  `{"ageGroup":"ancient"}`,
			want: models.FilterState{StartDate: "2024-03-01", EndDate: "2024-03-31", AgeGroup: "ancient"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := MergeFilters(defaults, []byte(tt.raw)); got != tt.want {
				t.Errorf("MergeFilters(%s) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestFilterStoreMalformedSlot(t *testing.T) {
	t.Parallel()

	kv := NewMemoryKV()
	if err := kv.Set(SlotKey(RootPath, FiltersSlot), []byte("\x00\x01garbage")); err != nil {
		t.Fatal(err)
	}
	s := NewFilterStore(kv, clock.NewFake(march))
	if got := s.Get(); got != models.DefaultFilters(march) {
		t.Errorf("malformed slot should yield defaults, got %+v", got)
	}
}

type failingKV struct{ *MemoryKV }

func (failingKV) Set(string, []byte) error { return errors.New("disk full") }

func TestFilterStoreSetSurvivesWriteFailure(t *testing.T) {
	t.Parallel()

	s := NewFilterStore(failingKV{NewMemoryKV()}, clock.NewFake(march))
	next := models.FilterState{StartDate: "2024-03-02", EndDate: "2024-03-03"}
	s.Set(next)
	if s.Get() != next {
		t.Error("in-memory filters should update even when persistence fails")
	}
}

func TestTokenStore(t *testing.T) {
	t.Parallel()

	ts := NewTokenStore(NewMemoryKV())
	if ts.LoggedIn() || ts.Token() != "" {
		t.Error("new store should be logged out")
	}
	if err := ts.Save("abc.def.ghi"); err != nil {
		t.Fatal(err)
	}
	if tok, err := ts.Load(); err != nil || tok != "abc.def.ghi" {
		t.Errorf("Load() = %q, %v", tok, err)
	}
	if !ts.LoggedIn() {
		t.Error("LoggedIn should be true after Save")
	}
	if err := ts.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, err := ts.Load(); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load after Clear error = %v", err)
	}
	if err := ts.Clear(); err != nil {
		t.Errorf("second Clear = %v", err)
	}
}
