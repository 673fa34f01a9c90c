// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

package tracker

import (
	"fmt"
	"strings"

	"github.com/tomtom215/clickboard/internal/models"
)

// OptimismPolicy decides whether a bar click may bump the local bar data
// before the backend confirms it.
type OptimismPolicy interface {
	Allow(filters models.FilterState, feature string) bool
	Name() string
}

// Policy names accepted by ParsePolicy.
const (
	PolicyFilterless = "filterless"
	PolicyNever      = "never"
	PolicyAlways     = "always"
)

// FilterlessOptimism allows the optimistic bump only when no demographic
// facet is active. Under a facet the clicking user may not belong to the
// filtered population, so the bump could be wrong.
type FilterlessOptimism struct{}

func (FilterlessOptimism) Allow(filters models.FilterState, _ string) bool {
	return !filters.HasDemographicFilter()
}

func (FilterlessOptimism) Name() string { return PolicyFilterless }

// NeverOptimistic waits for the re-fetch.
type NeverOptimistic struct{}

func (NeverOptimistic) Allow(models.FilterState, string) bool { return false }

func (NeverOptimistic) Name() string { return PolicyNever }

// AlwaysOptimistic bumps regardless of filters.
type AlwaysOptimistic struct{}

func (AlwaysOptimistic) Allow(models.FilterState, string) bool { return true }

func (AlwaysOptimistic) Name() string { return PolicyAlways }

// ParsePolicy maps a configured name to a policy. Empty selects filterless.
func ParsePolicy(name string) (OptimismPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyFilterless:
		return FilterlessOptimism{}, nil
	case PolicyNever:
		return NeverOptimistic{}, nil
	case PolicyAlways:
		return AlwaysOptimistic{}, nil
	default:
		return nil, fmt.Errorf("unknown optimism policy %q (want %s, %s or %s)", name, PolicyFilterless, PolicyNever, PolicyAlways)
	}
}
