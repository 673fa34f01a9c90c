// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

package models

// BarDataItem is one bar: total clicks for a feature in the queried window.
type BarDataItem struct {
	Feature string `json:"feature"`
	Clicks  int    `json:"clicks"`
}

// RawLineDataItem is the click count of one feature on one date.
type RawLineDataItem struct {
	Date    string `json:"date"`
	Feature string `json:"feature"`
	Clicks  int    `json:"clicks"`
}

// AnalyticsSnapshot is the last successfully fetched analytics result.
// It is replaced wholesale by each fetch and never merged.
type AnalyticsSnapshot struct {
	BarData  []BarDataItem     `json:"barData"`
	LineData []RawLineDataItem `json:"lineData"`
}

// IncrementFeature returns a copy of s with feature's bar bumped by one.
// LineData is shared with s, so its slice identity is unchanged. A feature
// missing from BarData leaves the bars untouched and reports false.
func (s AnalyticsSnapshot) IncrementFeature(feature string) (AnalyticsSnapshot, bool) {
	bars := make([]BarDataItem, len(s.BarData))
	copy(bars, s.BarData)
	found := false
	for i := range bars {
		if bars[i].Feature == feature {
			bars[i].Clicks++
			found = true
		}
	}
	if !found {
		return s, false
	}
	return AnalyticsSnapshot{BarData: bars, LineData: s.LineData}, true
}

// AnalyticsResponse is the body of GET /track/analytics.
type AnalyticsResponse struct {
	BarData  []BarDataItem     `json:"bar_data"`
	LineData []RawLineDataItem `json:"line_data"`
}

// Snapshot converts the wire response. Nil slices become empty ones.
func (r AnalyticsResponse) Snapshot() AnalyticsSnapshot {
	s := AnalyticsSnapshot{BarData: r.BarData, LineData: r.LineData}
	if s.BarData == nil {
		s.BarData = []BarDataItem{}
	}
	if s.LineData == nil {
		s.LineData = []RawLineDataItem{}
	}
	return s
}

// TrackRequest is the body of POST /track/.
type TrackRequest struct {
	FeatureName string `json:"feature_name"`
}

// SeriesPoint is one point of the line chart.
type SeriesPoint struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// ProjectedSeries is the display-ready line chart.
type ProjectedSeries []SeriesPoint
