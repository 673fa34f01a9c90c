// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

package analytics

import (
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/clickboard/internal/models"
)

// Query parameter names sent to GET /track/analytics.
const (
	ParamStartDate  = "startDate"
	ParamEndDate    = "endDate"
	ParamAgeGroup   = "ageGroup"
	ParamGender     = "gender"
	ParamCacheToken = "_cb"
)

// Options modify a single fetch.
type Options struct {
	// BustCache attaches a unique token so no intermediate cache can answer.
	BustCache bool
	// ForceTodayAsEnd widens EndDate to today when it lies in the past.
	ForceTodayAsEnd bool
}

// BuildQuery turns filters into backend query parameters.
//
// Empty or unknown facets are omitted entirely. Missing or unparsable dates
// fall back to the current month bounds. cacheToken is attached only when
// opts.BustCache is set.
func BuildQuery(filters models.FilterState, opts Options, now time.Time, cacheToken string) url.Values {
	first, last := models.MonthBounds(now)

	start := dateOr(filters.StartDate, first)
	end := dateOr(filters.EndDate, last)
	if opts.ForceTodayAsEnd {
		if today := now.Format(models.DateLayout); end < today {
			end = today
		}
	}

	q := url.Values{}
	q.Set(ParamStartDate, start)
	q.Set(ParamEndDate, end)
	if filters.AgeGroup != models.AgeGroupAny && filters.AgeGroup.Valid() {
		q.Set(ParamAgeGroup, string(filters.AgeGroup))
	}
	if filters.Gender != models.GenderAny && filters.Gender.Valid() {
		q.Set(ParamGender, string(filters.Gender))
	}
	if opts.BustCache && cacheToken != "" {
		q.Set(ParamCacheToken, cacheToken)
	}
	return q
}

// dateOr returns v when it is a YYYY-MM-DD date, else fallback. Because the
// layout is fixed width, valid dates compare correctly as strings.
func dateOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	if _, err := time.Parse(models.DateLayout, v); err != nil {
		return fallback
	}
	return v
}

// CacheBuster issues query tokens that are distinct for the life of the
// process and across restarts.
type CacheBuster struct {
	prefix string
	n      atomic.Uint64
}

// NewCacheBuster returns a CacheBuster with a random prefix.
func NewCacheBuster() *CacheBuster {
	return &CacheBuster{prefix: uuid.NewString()[:8]}
}

// Next returns a fresh token.
func (b *CacheBuster) Next() string {
	return fmt.Sprintf("%s-%d", b.prefix, b.n.Add(1))
}
