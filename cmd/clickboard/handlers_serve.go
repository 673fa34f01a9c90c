// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/clickboard/internal/api"
	"github.com/tomtom215/clickboard/internal/dashboard"
	"github.com/tomtom215/clickboard/internal/logging"
	"github.com/tomtom215/clickboard/internal/supervisor"
	"github.com/tomtom215/clickboard/internal/supervisor/services"
	"github.com/tomtom215/clickboard/internal/tracker"
	ws "github.com/tomtom215/clickboard/internal/websocket"
)

func runServe(ctx context.Context, configPath string) error {
	a, err := openApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	logging.Info().
		Str("version", version).
		Str("backend_url", a.cfg.Backend.URL).
		Str("store", a.cfg.Store.Path).
		Bool("logged_in", a.auth.LoggedIn()).
		Msg("Starting Clickboard with supervisor tree")

	trackerCfg, err := tracker.ConfigFrom(a.cfg.Dashboard)
	if err != nil {
		return fmt.Errorf("invalid dashboard configuration: %w", err)
	}

	session := dashboard.New(dashboard.Deps{
		Filters: a.filters,
		Tokens:  a.tokens,
		Fetcher: a.fetcher,
		Sender:  a.client,
		Clock:   a.clock,
		Config:  trackerCfg,
	})
	hub := ws.NewHub()

	handler := api.NewHandler(session, a.auth, hub, a.client, a.cfg.Server.CORSOrigins)
	router := api.NewRouter(handler, api.NewChiMiddleware(api.MiddlewareConfigFrom(a.cfg.Server)))
	server := &http.Server{
		Addr:              a.cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = a.cfg.Server.ShutdownTimeout
	tree := supervisor.NewSupervisorTree(logging.NewSlogLogger(), treeCfg)

	// === ADD SERVICES TO SUPERVISOR TREE ===

	tree.Add(supervisor.LayerCore, services.NewDashboardService(session, a.auth))
	tree.Add(supervisor.LayerCore, services.NewWebSocketHubService(hub))
	tree.Add(supervisor.LayerCore, services.NewViewRelayService(session, hub))
	tree.Add(supervisor.LayerAPI, services.NewHTTPServerService(server, server.Addr, a.cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("Services added to supervisor tree")

	// === START SUPERVISOR TREE ===

	errCh := tree.ServeBackground(ctx)
	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown requested, waiting for supervisor to finish...")
		serveErr = <-errCh
	case serveErr = <-errCh:
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logging.Error().Err(serveErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Clickboard stopped")
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		return serveErr
	}
	return nil
}
