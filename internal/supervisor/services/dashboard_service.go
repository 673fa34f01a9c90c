// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

package services

import (
	"context"
	"errors"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/clickboard/internal/dashboard"
	"github.com/tomtom215/clickboard/internal/logging"
	"github.com/tomtom215/clickboard/internal/websocket"
)

// Session is the part of *dashboard.Session the services drive.
type Session interface {
	Run(ctx context.Context) error
	Mount(ctx context.Context) error
	Subscribe() (<-chan dashboard.View, func())
}

// LoginState reports whether a bearer token is saved.
type LoginState interface {
	LoggedIn() bool
}

// DashboardService runs the session's event loop and mounts the dashboard
// when a token is already saved, the way reopening the page would.
type DashboardService struct {
	session Session
	login   LoginState
}

// NewDashboardService wraps session. login may be nil to never auto-mount.
func NewDashboardService(session Session, login LoginState) *DashboardService {
	return &DashboardService{session: session, login: login}
}

// Serve implements suture.Service. A Session cannot be restarted, so a
// second Serve terminates the tree instead of looping.
func (d *DashboardService) Serve(ctx context.Context) error {
	if d.login != nil && d.login.LoggedIn() {
		go func() {
			// blocks until Run accepts events
			if err := d.session.Mount(ctx); err != nil && ctx.Err() == nil {
				logging.Warn().Err(err).Msg("Failed to mount dashboard on startup")
			}
		}()
	}

	err := d.session.Run(ctx)
	if errors.Is(err, dashboard.ErrAlreadyRunning) {
		logging.Error().Msg("Dashboard session cannot be restarted")
		return suture.ErrTerminateSupervisorTree
	}
	return err
}

func (d *DashboardService) String() string {
	return "dashboard-session"
}

// ContextHub is the lifecycle half of *websocket.Hub.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// WebSocketHubService runs the hub.
type WebSocketHubService struct {
	hub ContextHub
}

// NewWebSocketHubService wraps hub.
func NewWebSocketHubService(hub ContextHub) *WebSocketHubService {
	return &WebSocketHubService{hub: hub}
}

// Serve implements suture.Service.
func (w *WebSocketHubService) Serve(ctx context.Context) error {
	return w.hub.RunWithContext(ctx)
}

func (w *WebSocketHubService) String() string {
	return "websocket-hub"
}

// ViewRelayService forwards every published dashboard view to the hub.
type ViewRelayService struct {
	session Session
	hub     *websocket.Hub
}

// NewViewRelayService relays session's views to hub.
func NewViewRelayService(session Session, hub *websocket.Hub) *ViewRelayService {
	return &ViewRelayService{session: session, hub: hub}
}

// Serve implements suture.Service. It ends for good once the session has
// stopped.
func (r *ViewRelayService) Serve(ctx context.Context) error {
	updates, unsubscribe := r.session.Subscribe()
	defer unsubscribe()

	if err := r.hub.Relay(ctx, updates); err != nil {
		return err
	}
	return suture.ErrDoNotRestart
}

func (r *ViewRelayService) String() string {
	return "view-relay"
}
