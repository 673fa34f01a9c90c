// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{" debug ", zerolog.DebugLevel},
		{"nonsense", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestInitJSON(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	Info().Str("feature", "export_data").Msg("tracked")

	out := buf.String()
	for _, want := range []string{`"level":"info"`, `"feature":"export_data"`, `"message":"tracked"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}

func TestInitLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Output: &buf})
	defer Init(DefaultConfig())

	Info().Msg("hidden")
	Warn().Msg("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("info entry written at warn level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("warn entry missing")
	}
}

func TestCtxAddsIDs(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Output: &buf})
	defer Init(DefaultConfig())

	ctx := ContextWithCorrelationID(context.Background(), "abcd1234")
	ctx = ContextWithRequestID(ctx, "req-1")
	CtxErr(ctx, errors.New("boom")).Msg("fetch failed")

	out := buf.String()
	for _, want := range []string{`"correlation_id":"abcd1234"`, `"request_id":"req-1"`, `"error":"boom"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}

func TestGenerateIDs(t *testing.T) {
	t.Parallel()

	a, b := GenerateCorrelationID(), GenerateCorrelationID()
	if len(a) != 8 || a == b {
		t.Errorf("correlation IDs %q %q not unique 8-char IDs", a, b)
	}
	if len(GenerateRequestID()) != 36 {
		t.Error("request ID is not a UUID")
	}
	if CorrelationIDFromContext(context.Background()) != "" {
		t.Error("empty context returned a correlation ID")
	}
}

func TestSlogHandler(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Output: &buf})
	defer Init(DefaultConfig())

	logger := NewSlogLogger().With("service", "dashboard").WithGroup("tree")
	logger.Warn("service restarted", slog.Int("attempt", 2))

	out := buf.String()
	for _, want := range []string{`"level":"warn"`, `"service":"dashboard"`, `"tree.attempt":2`, "service restarted"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
	if strings.Contains(out, "tree.service") {
		t.Errorf("attribute added before the group was prefixed: %s", out)
	}
}

func TestNewTestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewTestLogger(&buf)
	l.Info().Msg("captured")
	if !strings.Contains(buf.String(), "captured") {
		t.Errorf("test logger did not capture: %s", buf.String())
	}
}
