// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

package api

import (
	"net/http"
	"time"
)

// HealthStatus is the body of GET /api/v1/health.
type HealthStatus struct {
	Status           string  `json:"status"`
	Session          string  `json:"session"`
	LoggedIn         bool    `json:"logged_in"`
	BackendBreaker   string  `json:"backend_breaker"`
	WebSocketClients int     `json:"websocket_clients"`
	Uptime           float64 `json:"uptime_seconds"`
}

// Health reports liveness. An open breaker degrades the status but still
// answers 200: the dashboard keeps serving its last snapshot.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	hs := HealthStatus{
		Status:         "healthy",
		Session:        h.session.State().Status,
		LoggedIn:       h.auth.LoggedIn(),
		BackendBreaker: "disabled",
		Uptime:         time.Since(h.startTime).Seconds(),
	}
	if h.breaker != nil {
		hs.BackendBreaker = h.breaker.BreakerState()
		if hs.BackendBreaker == "open" {
			hs.Status = "degraded"
		}
	}
	if h.hub != nil {
		hs.WebSocketClients = h.hub.GetClientCount()
	}

	select {
	case <-h.session.Done():
		hs.Status = "unhealthy"
		respondData(w, http.StatusServiceUnavailable, hs)
		return
	default:
	}
	respondData(w, http.StatusOK, hs)
}

// Latency reports per-route latency over the recent request window.
func (h *Handler) Latency(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, h.latency.Stats())
}
