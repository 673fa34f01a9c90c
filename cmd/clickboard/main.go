// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

// Package main is the entry point for Clickboard.
//
// Clickboard is the client side of a feature click analytics dashboard. It
// keeps the dashboard filters and the session token in a local Badger store,
// fetches aggregated click analytics from the remote backend, tracks the
// user's own dashboard interactions back to it, and serves the resulting
// chart state to a plotting front-end over a local HTTP and WebSocket API.
//
// # Commands
//
//	clickboard serve                 # run the dashboard and its local API
//	clickboard login -u ana          # prompts for the password
//	clickboard register -u ana -e ana@example.com --age 30 --gender Female
//	clickboard logout
//	clickboard filters show
//	clickboard filters set gender Male
//	clickboard analytics --feature date_filter
//	clickboard track "Filter Interaction"
//
// The one-shot commands open the same store as serve. Badger allows a
// single process per directory, so stop serve first or use the local API.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables (BACKEND_URL, HTTP_PORT, DEBOUNCE_WINDOW, ...)
//   - Config file (config.yaml or --config)
//   - Built-in defaults
//
// # Signal Handling
//
// serve handles SIGINT and SIGTERM: the supervisor tree stops the HTTP
// server, the WebSocket hub and the dashboard session, which cancels any
// pending debounce timers and in-flight backend requests.
//
// # Port 3850
//
// The local API listens on 127.0.0.1:3850 by default.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := buildRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "clickboard",
		Short:         "Feature click analytics dashboard client",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "Path to YAML configuration file")

	root.AddCommand(
		buildServeCmd(),
		buildLoginCmd(),
		buildRegisterCmd(),
		buildLogoutCmd(),
		buildFiltersCmd(),
		buildAnalyticsCmd(),
		buildTrackCmd(),
	)
	return root
}
