// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

// Package projector derives the line chart series from raw per-feature
// click records.
package projector

import (
	"sort"
	"time"

	"github.com/tomtom215/clickboard/internal/models"
)

// Project returns the display series for lineData.
//
// With a selected feature the records for that feature are mapped to points
// in input order. Without one, clicks are summed per date and the points are
// sorted by calendar date. The result is never nil.
func Project(lineData []models.RawLineDataItem, selected *string) models.ProjectedSeries {
	if len(lineData) == 0 {
		return models.ProjectedSeries{}
	}
	if selected != nil {
		return projectFeature(lineData, *selected)
	}
	return projectAggregate(lineData)
}

func projectFeature(lineData []models.RawLineDataItem, feature string) models.ProjectedSeries {
	out := models.ProjectedSeries{}
	for _, item := range lineData {
		if item.Feature == feature {
			out = append(out, models.SeriesPoint{Name: item.Date, Value: item.Clicks})
		}
	}
	return out
}

func projectAggregate(lineData []models.RawLineDataItem) models.ProjectedSeries {
	totals := make(map[string]int, len(lineData))
	order := make([]string, 0, len(lineData))
	for _, item := range lineData {
		if _, seen := totals[item.Date]; !seen {
			order = append(order, item.Date)
		}
		totals[item.Date] += item.Clicks
	}

	out := make(models.ProjectedSeries, len(order))
	for i, date := range order {
		out[i] = models.SeriesPoint{Name: date, Value: totals[date]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return dateLess(out[i].Name, out[j].Name)
	})
	return out
}

// dateLess orders parsable dates chronologically, ahead of unparsable
// ones, which keep lexical order among themselves.
func dateLess(a, b string) bool {
	ta, errA := time.Parse(models.DateLayout, a)
	tb, errB := time.Parse(models.DateLayout, b)
	switch {
	case errA == nil && errB == nil:
		return ta.Before(tb)
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
