// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

// Package store holds the durable client-side slots: the persisted dashboard
// filters and the backend bearer token.
//
// Slots live in a small key-value store (BadgerDB on disk, or in memory for
// tests and ephemeral sessions). Keys are scoped by a path the same way a
// browser cookie is, so the filter slot is "dashboardFilters" at path "/".
package store

import "errors"

// ErrNotFound is returned when a slot has never been written or was deleted.
var ErrNotFound = errors.New("store: key not found")

// Slot names and scope.
const (
	RootPath      = "/"
	FiltersSlot   = "dashboardFilters"
	TokenSlot     = "token"
	slotSeparator = ":"
)

// KV is a durable key-value slot store.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// SlotKey scopes name under path, e.g. SlotKey("/", "dashboardFilters") = "/:dashboardFilters".
func SlotKey(path, name string) string {
	if path == "" {
		path = RootPath
	}
	return path + slotSeparator + name
}
