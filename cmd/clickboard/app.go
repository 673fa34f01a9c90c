// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

package main

import (
	"fmt"

	"github.com/tomtom215/clickboard/internal/analytics"
	"github.com/tomtom215/clickboard/internal/auth"
	"github.com/tomtom215/clickboard/internal/backend"
	"github.com/tomtom215/clickboard/internal/clock"
	"github.com/tomtom215/clickboard/internal/config"
	"github.com/tomtom215/clickboard/internal/logging"
	"github.com/tomtom215/clickboard/internal/store"
)

// app holds the collaborators shared by every command.
type app struct {
	cfg     *config.Config
	kv      store.KV
	closeKV func() error
	clock   clock.Clock
	tokens  *store.TokenStore
	filters *store.FilterStore
	client  *backend.Client
	fetcher *analytics.Fetcher
	auth    *auth.Service
}

// openApp loads configuration, initializes logging and opens the store.
func openApp(path string) (*app, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	kv, err := store.OpenBadger(cfg.Store.Path, cfg.Store.InMemory)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", cfg.Store.Path, err)
	}
	a := newApp(cfg, kv, clock.New())
	a.closeKV = kv.Close
	return a, nil
}

// newApp wires the backend client and stores over kv.
func newApp(cfg *config.Config, kv store.KV, clk clock.Clock) *app {
	tokens := store.NewTokenStore(kv)
	client := backend.NewClient(cfg.Backend, tokens)
	return &app{
		cfg:     cfg,
		kv:      kv,
		clock:   clk,
		tokens:  tokens,
		filters: store.NewFilterStore(kv, clk),
		client:  client,
		fetcher: analytics.NewFetcher(client, clk),
		auth:    auth.NewService(client, tokens),
	}
}

// Close releases the store.
func (a *app) Close() {
	if a.closeKV == nil {
		return
	}
	if err := a.closeKV(); err != nil {
		logging.Error().Err(err).Msg("Error closing store")
	}
}
