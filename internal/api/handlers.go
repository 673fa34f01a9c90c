// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

// Package api is the local dashboard API: the HTTP surface a plotting
// front-end uses to read dashboard state, edit filters, click bars, log in
// and out, and stream live views over a WebSocket.
//
// All responses use the models.APIResponse envelope.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/clickboard/internal/auth"
	"github.com/tomtom215/clickboard/internal/dashboard"
	"github.com/tomtom215/clickboard/internal/middleware"
	"github.com/tomtom215/clickboard/internal/websocket"
)

// BreakerReporter reports the backend circuit breaker state.
type BreakerReporter interface {
	BreakerState() string
}

// Handler serves the API routes.
type Handler struct {
	session     *dashboard.Session
	auth        *auth.Service
	hub         *websocket.Hub
	breaker     BreakerReporter
	corsOrigins []string
	latency     *middleware.LatencyMonitor
	startTime   time.Time
}

// NewHandler returns a Handler. hub and breaker may be nil.
func NewHandler(session *dashboard.Session, authSvc *auth.Service, hub *websocket.Hub, breaker BreakerReporter, corsOrigins []string) *Handler {
	return &Handler{
		session:     session,
		auth:        authSvc,
		hub:         hub,
		breaker:     breaker,
		corsOrigins: corsOrigins,
		latency:     middleware.NewLatencyMonitor(1024, middleware.DefaultSlowThreshold),
		startTime:   time.Now(),
	}
}

// respondSessionError maps session errors to responses.
func respondSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dashboard.ErrStopped):
		respondError(w, http.StatusServiceUnavailable, "SESSION_STOPPED", "Dashboard session is not running", err)
	case errors.Is(err, dashboard.ErrNotMounted):
		respondError(w, http.StatusConflict, "NOT_MOUNTED", "Log in to use the dashboard", nil)
	default:
		respondError(w, http.StatusRequestTimeout, "REQUEST_CANCELED", "Request canceled", err)
	}
}

// checkWebSocketOrigin accepts same-machine tools that send no Origin and
// browsers on a configured CORS origin.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.corsOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
