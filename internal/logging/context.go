// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// idKey doubles as the log field name of the value it stores.
type idKey string

const (
	correlationIDKey idKey = "correlation_id"
	requestIDKey     idKey = "request_id"
)

// ctxFields are copied onto every logger returned by Ctx, in this order.
var ctxFields = []idKey{correlationIDKey, requestIDKey}

// GenerateCorrelationID returns a short ID tying together the log lines of
// one dashboard flow (a debounced fetch, a click round trip).
func GenerateCorrelationID() string {
	return uuid.NewString()[:8]
}

// GenerateRequestID returns a full UUID for an inbound HTTP request.
func GenerateRequestID() string {
	return uuid.NewString()
}

func withID(ctx context.Context, key idKey, id string) context.Context {
	return context.WithValue(ctx, key, id)
}

func idFrom(ctx context.Context, key idKey) string {
	id, _ := ctx.Value(key).(string)
	return id
}

// ContextWithCorrelationID attaches a correlation ID.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return withID(ctx, correlationIDKey, id)
}

// ContextWithNewCorrelationID attaches a freshly generated correlation ID.
func ContextWithNewCorrelationID(ctx context.Context) context.Context {
	return withID(ctx, correlationIDKey, GenerateCorrelationID())
}

// CorrelationIDFromContext returns the correlation ID or "".
func CorrelationIDFromContext(ctx context.Context) string {
	return idFrom(ctx, correlationIDKey)
}

// ContextWithRequestID attaches an HTTP request ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return withID(ctx, requestIDKey, id)
}

// Ctx returns the global logger carrying whichever IDs ctx holds.
//
//	logging.Ctx(ctx).Info().Msg("Re-fetch after click")
func Ctx(ctx context.Context) *zerolog.Logger {
	l := Logger()
	for _, key := range ctxFields {
		if id := idFrom(ctx, key); id != "" {
			l = l.With().Str(string(key), id).Logger()
		}
	}
	return &l
}

// CtxErr is shorthand for Ctx(ctx).Err(err).
func CtxErr(ctx context.Context, err error) *zerolog.Event {
	return Ctx(ctx).Err(err)
}
