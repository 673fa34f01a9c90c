// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

package projector

import (
	"sync"

	"github.com/tomtom215/clickboard/internal/models"
)

// Memo caches the last projection. While the line data slice and the
// selection are unchanged, Get returns the identical series so subscribers
// can compare by reference and skip redundant work.
//
// Line data identity is the slice header: length and backing array. The
// snapshot is replaced wholesale on each fetch and never edited in place,
// so a new fetch always presents a new identity.
type Memo struct {
	mu       sync.Mutex
	valid    bool
	data     *models.RawLineDataItem
	length   int
	selected *string
	result   models.ProjectedSeries
	computes int
}

// Get returns Project(lineData, selected), reusing the cached result when
// neither input has changed.
func (m *Memo) Get(lineData []models.RawLineDataItem, selected *string) models.ProjectedSeries {
	m.mu.Lock()
	defer m.mu.Unlock()

	ptr := firstElem(lineData)
	if m.valid && m.data == ptr && m.length == len(lineData) && sameSelection(m.selected, selected) {
		return m.result
	}

	m.result = Project(lineData, selected)
	m.data = ptr
	m.length = len(lineData)
	m.selected = copySelection(selected)
	m.valid = true
	m.computes++
	return m.result
}

// Computes reports how many times the projection actually ran.
func (m *Memo) Computes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.computes
}

// Reset forgets the cached result.
func (m *Memo) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.valid = false
	m.data = nil
	m.result = nil
}

// SameSeries reports whether a and b share a backing array and length.
func SameSeries(a, b models.ProjectedSeries) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return (a == nil) == (b == nil)
	}
	return &a[0] == &b[0]
}

func firstElem(s []models.RawLineDataItem) *models.RawLineDataItem {
	if len(s) == 0 {
		return nil
	}
	return &s[0]
}

func sameSelection(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copySelection(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
