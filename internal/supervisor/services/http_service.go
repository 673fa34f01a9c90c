// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

// Package services adapts Clickboard's long-running components to
// suture.Service.
package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/tomtom215/clickboard/internal/logging"
)

// HTTPServer is the part of *http.Server the service drives.
type HTTPServer interface {
	Serve(l net.Listener) error
	Shutdown(ctx context.Context) error
}

// HTTPServerService binds addr on every start and serves until its context
// is canceled. Binding up front means a port conflict is reported by Serve
// itself and the logged address is the real one when addr ends in :0.
type HTTPServerService struct {
	server          HTTPServer
	addr            string
	shutdownTimeout time.Duration
	listen          func(network, addr string) (net.Listener, error)
}

// NewHTTPServerService wraps server. shutdownTimeout <= 0 means 10s.
func NewHTTPServerService(server HTTPServer, addr string, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPServerService{server: server, addr: addr, shutdownTimeout: shutdownTimeout, listen: net.Listen}
}

// Serve implements suture.Service. Bind and serve failures are returned so
// the supervisor restarts the service; cancellation returns ctx.Err().
func (h *HTTPServerService) Serve(ctx context.Context) error {
	ln, err := h.listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", h.addr, err)
	}
	bound := ln.Addr().String()
	logging.Info().Str("addr", bound).Msg("Local API listening")

	done := make(chan error, 1)
	go func() { done <- h.server.Serve(ln) }()

	select {
	case err := <-done:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", bound, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.shutdownTimeout)
	defer cancel()
	if err := h.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown %s: %w", bound, err)
	}
	<-done
	logging.Info().Str("addr", bound).Msg("Local API stopped")
	return ctx.Err()
}

func (h *HTTPServerService) String() string {
	return "http-server"
}
