// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

package store

import (
	"errors"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/clickboard/internal/clock"
	"github.com/tomtom215/clickboard/internal/logging"
	"github.com/tomtom215/clickboard/internal/models"
)

// FilterStore holds the current FilterState and mirrors every change into
// the durable filters slot.
//
// No validation happens here. A persisted value that cannot be read, or a
// field with the wrong type, silently yields the month default for that
// field so that bad persisted data never destroys the initial state.
type FilterStore struct {
	kv  KV
	key string

	mu      sync.RWMutex
	current models.FilterState
}

// NewFilterStore loads the persisted filters over the defaults for the
// current calendar month.
func NewFilterStore(kv KV, clk clock.Clock) *FilterStore {
	s := &FilterStore{kv: kv, key: SlotKey(RootPath, FiltersSlot)}
	s.current = s.restore(models.DefaultFilters(clk.Now()))
	return s
}

// Get returns the current filters.
func (s *FilterStore) Get() models.FilterState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set replaces the filters and overwrites the persisted slot. A write
// failure is logged; the in-memory value is updated regardless.
func (s *FilterStore) Set(next models.FilterState) {
	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	data, err := json.Marshal(next)
	if err == nil {
		err = s.kv.Set(s.key, data)
	}
	if err != nil {
		logging.Warn().Err(err).Str("slot", s.key).Msg("Failed to persist dashboard filters")
	}
}

func (s *FilterStore) restore(defaults models.FilterState) models.FilterState {
	raw, err := s.kv.Get(s.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logging.Debug().Err(err).Msg("Persisted filters unreadable, using defaults")
		}
		return defaults
	}
	return MergeFilters(defaults, raw)
}

// MergeFilters overlays persisted JSON on defaults field by field. A field
// wins when it is present, is a string, and (for dates) is non-empty.
func MergeFilters(defaults models.FilterState, raw []byte) models.FilterState {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		logging.Debug().Err(err).Msg("Persisted filters malformed, using defaults")
		return defaults
	}

	out := defaults
	if v, ok := stringField(fields, "startDate"); ok && v != "" {
		out.StartDate = v
	}
	if v, ok := stringField(fields, "endDate"); ok && v != "" {
		out.EndDate = v
	}
	if v, ok := stringField(fields, "ageGroup"); ok {
		out.AgeGroup = models.AgeGroup(v)
	}
	if v, ok := stringField(fields, "gender"); ok {
		out.Gender = models.Gender(v)
	}
	return out
}

func stringField(fields map[string]json.RawMessage, name string) (string, bool) {
	raw, ok := fields[name]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
