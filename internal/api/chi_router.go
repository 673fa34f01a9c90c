// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router wires handlers and middleware.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	return &Router{handler: handler, chiMiddleware: mw}
}

// SetupChi builds the route tree.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight works everywhere

	h := router.handler

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(PrometheusMetrics)
		r.Use(h.latency.Middleware)
		r.Use(chimiddleware.Compress(5, "application/json"))

		r.Get("/health", h.Health)
		r.Get("/health/latency", h.Latency)
		r.Get("/dashboard", h.Dashboard)

		r.Put("/filters", h.PutFilters)
		r.Patch("/filters/{field}", h.PatchFilter)
		r.Post("/clicks", h.PostClick)
		r.Put("/selection", h.PutSelection)

		r.Route("/auth", func(r chi.Router) {
			r.With(router.chiMiddleware.RateLimitLogin()).Post("/login", h.Login)
			r.Post("/register", h.Register)
			r.Post("/logout", h.Logout)
		})
	})

	r.Get("/ws", h.WebSocket)
	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	return r
}
