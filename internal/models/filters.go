// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

// Package models defines the data structures shared across Clickboard:
// dashboard filters, analytics snapshots, projected chart series, the wire
// formats of the analytics backend and the local API response envelope.
package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used by filters and line data.
const DateLayout = "2006-01-02"

// AgeGroup is the age facet understood by the backend. Empty means no filter.
type AgeGroup string

// Age groups accepted by GET /track/analytics.
const (
	AgeGroupAny     AgeGroup = ""
	AgeGroupUnder18 AgeGroup = "<18"
	AgeGroup18To40  AgeGroup = "18-40"
	AgeGroupOver40  AgeGroup = ">40"
)

// Valid reports whether g is a known age group (including the empty facet).
func (g AgeGroup) Valid() bool {
	switch g {
	case AgeGroupAny, AgeGroupUnder18, AgeGroup18To40, AgeGroupOver40:
		return true
	}
	return false
}

// Gender is the gender facet. Empty means no filter.
type Gender string

// Genders selectable on the dashboard.
const (
	GenderAny    Gender = ""
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

// GenderOther is accepted at registration but is not a dashboard facet.
const GenderOther Gender = "Other"

// Valid reports whether g is a dashboard gender facet (including empty).
func (g Gender) Valid() bool {
	switch g {
	case GenderAny, GenderMale, GenderFemale:
		return true
	}
	return false
}

// FilterState is the current analytics query. Dates are YYYY-MM-DD.
// StartDate <= EndDate is expected but not enforced.
type FilterState struct {
	StartDate string   `json:"startDate"`
	EndDate   string   `json:"endDate"`
	AgeGroup  AgeGroup `json:"ageGroup"`
	Gender    Gender   `json:"gender"`
}

// HasDemographicFilter reports whether either facet narrows the query.
// Unrecognised facet values are treated as unset, matching BuildQuery.
func (f FilterState) HasDemographicFilter() bool {
	return (f.AgeGroup != AgeGroupAny && f.AgeGroup.Valid()) ||
		(f.Gender != GenderAny && f.Gender.Valid())
}

// FilterField names one editable field of FilterState.
type FilterField string

// Editable filter fields, named as on the wire.
const (
	FieldStartDate FilterField = "startDate"
	FieldEndDate   FilterField = "endDate"
	FieldAgeGroup  FilterField = "ageGroup"
	FieldGender    FilterField = "gender"
)

// With returns a copy of f with one field replaced.
func (f FilterState) With(field FilterField, value string) (FilterState, error) {
	switch field {
	case FieldStartDate:
		f.StartDate = value
	case FieldEndDate:
		f.EndDate = value
	case FieldAgeGroup:
		f.AgeGroup = AgeGroup(value)
	case FieldGender:
		f.Gender = Gender(value)
	default:
		return f, fmt.Errorf("unknown filter field %q", field)
	}
	return f, nil
}

// MonthBounds returns the first and last calendar day of now's month.
func MonthBounds(now time.Time) (first, last string) {
	y, m, _ := now.Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, -1)
	return start.Format(DateLayout), end.Format(DateLayout)
}

// DefaultFilters is the current calendar month with no facets.
func DefaultFilters(now time.Time) FilterState {
	first, last := MonthBounds(now)
	return FilterState{StartDate: first, EndDate: last}
}
