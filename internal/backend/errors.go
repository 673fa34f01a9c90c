// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

package backend

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

var (
	// ErrUnauthorized matches any 401 from the backend.
	ErrUnauthorized = errors.New("backend: unauthorized")

	// ErrCircuitOpen is returned without contacting the backend while the
	// circuit breaker is open or saturated in half-open state.
	ErrCircuitOpen = errors.New("backend: circuit open")
)

// maxErrorBodySize caps how much of an error response is kept.
const maxErrorBodySize = 64 * 1024

// APIError is a non-2xx backend response.
type APIError struct {
	StatusCode int
	Endpoint   string
	// Detail is the FastAPI "detail" message, if the body carried one.
	Detail string
	Body   []byte
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s returned %d: %s", e.Endpoint, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s returned %d", e.Endpoint, e.StatusCode)
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// Temporary reports whether the failure is the backend's rather than the request's.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// DetailOf returns the backend detail message carried by err, or "".
func DetailOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}

func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// parseDetail extracts FastAPI's detail field. It is either a string or,
// for request validation failures, a list of {loc, msg, type} objects.
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		return s
	}

	var items []struct {
		Loc []interface{} `json:"loc"`
		Msg string        `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err != nil {
		return ""
	}
	msgs := make([]string, 0, len(items))
	for _, it := range items {
		if it.Msg == "" {
			continue
		}
		if n := len(it.Loc); n > 0 {
			msgs = append(msgs, fmt.Sprintf("%v: %s", it.Loc[n-1], it.Msg))
			continue
		}
		msgs = append(msgs, it.Msg)
	}
	return strings.Join(msgs, "; ")
}
