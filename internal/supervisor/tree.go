// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

/*
Package supervisor runs Clickboard's long-lived services under suture v4.

The tree has two layers:

	RootSupervisor ("clickboard")
	├── CoreSupervisor ("core-layer")
	│   ├── DashboardService
	│   ├── WebSocketHubService
	│   └── ViewRelayService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A crashing HTTP server is restarted without disturbing the dashboard
session, and the session's timers keep running while the API recovers.
Supervisor events are logged through sutureslog with the zerolog slog
adapter.
*/
package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig holds restart and shutdown tuning shared by every layer.
// Zero fields take the DefaultTreeConfig value.
type TreeConfig struct {
	FailureThreshold float64       // failures before backoff
	FailureDecay     float64       // seconds for the failure count to decay
	FailureBackoff   time.Duration // pause once the threshold is crossed
	ShutdownTimeout  time.Duration // per-service stop deadline
}

// DefaultTreeConfig returns suture's own defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

func (c TreeConfig) withDefaults() TreeConfig {
	d := DefaultTreeConfig()
	if c.FailureThreshold == 0 {
		c.FailureThreshold = d.FailureThreshold
	}
	if c.FailureDecay == 0 {
		c.FailureDecay = d.FailureDecay
	}
	if c.FailureBackoff == 0 {
		c.FailureBackoff = d.FailureBackoff
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	return c
}

func (c TreeConfig) spec(hook suture.EventHook) suture.Spec {
	return suture.Spec{
		EventHook:        hook,
		FailureThreshold: c.FailureThreshold,
		FailureDecay:     c.FailureDecay,
		FailureBackoff:   c.FailureBackoff,
		Timeout:          c.ShutdownTimeout,
	}
}

// Layer names a child supervisor of the root.
type Layer string

const (
	// LayerCore holds the dashboard session, the WebSocket hub and
	// anything feeding it.
	LayerCore Layer = "core-layer"
	// LayerAPI holds the local HTTP server.
	LayerAPI Layer = "api-layer"
)

// SupervisorTree is the root supervisor and its layers.
type SupervisorTree struct {
	root   *suture.Supervisor
	layers map[Layer]*suture.Supervisor
	config TreeConfig
}

// NewSupervisorTree builds the tree with both layers attached to the root.
func NewSupervisorTree(logger *slog.Logger, config TreeConfig) *SupervisorTree {
	config = config.withDefaults()

	// MustHook has a pointer receiver. Only the root gets the hook; suture
	// forwards child events up to it.
	handler := &sutureslog.Handler{Logger: logger}
	t := &SupervisorTree{
		root:   suture.New("clickboard", config.spec(handler.MustHook())),
		layers: make(map[Layer]*suture.Supervisor, 2),
		config: config,
	}
	for _, layer := range []Layer{LayerCore, LayerAPI} {
		sup := suture.New(string(layer), config.spec(nil))
		t.root.Add(sup)
		t.layers[layer] = sup
	}
	return t
}

// Root returns the root supervisor.
func (t *SupervisorTree) Root() *suture.Supervisor {
	return t.root
}

// Add starts svc under layer. It panics on an unknown layer.
func (t *SupervisorTree) Add(layer Layer, svc suture.Service) suture.ServiceToken {
	sup, ok := t.layers[layer]
	if !ok {
		panic("supervisor: unknown layer " + string(layer))
	}
	return sup.Add(svc)
}

// ServeBackground runs the tree in a goroutine. The channel receives
// Serve's result once.
func (t *SupervisorTree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that missed the shutdown timeout.
func (t *SupervisorTree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
