// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

package dashboard

import (
	"time"

	"github.com/tomtom215/clickboard/internal/models"
)

// View is what the plotting surface renders. Views are immutable once
// published; LineSeries keeps its identity until the line data or the
// selection changes.
type View struct {
	Status          string                 `json:"status"`
	Filters         models.FilterState     `json:"filters"`
	BarData         []models.BarDataItem   `json:"barData"`
	LineSeries      models.ProjectedSeries `json:"lineSeries"`
	SelectedFeature *string                `json:"selectedFeature"`
	Version         uint64                 `json:"version"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

// Mounted reports whether the view belongs to a live dashboard.
func (v View) Mounted() bool {
	return v.Status == StatusMounted
}
