// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/clickboard/internal/dashboard"
	"github.com/tomtom215/clickboard/internal/models"
	"github.com/tomtom215/clickboard/internal/websocket"
)

// FieldRequest is the body of PATCH /api/v1/filters/{field}.
type FieldRequest struct {
	Value string `json:"value"`
}

// ClickRequest is the body of POST /api/v1/clicks.
type ClickRequest struct {
	Feature string `json:"feature"`
}

// ClickResponse reports the view after a click and whether the click got
// past the throttle.
type ClickResponse struct {
	View     dashboard.View `json:"view"`
	Accepted bool           `json:"accepted"`
}

// SelectionRequest is the body of PUT /api/v1/selection. A null feature
// clears the selection.
type SelectionRequest struct {
	Feature *string `json:"feature"`
}

// Dashboard returns the latest view.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, h.session.State())
}

// PutFilters replaces every filter.
func (h *Handler) PutFilters(w http.ResponseWriter, r *http.Request) {
	var next models.FilterState
	if err := decodeJSON(w, r, &next); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	v, err := h.session.SetFilters(r.Context(), next)
	if err != nil {
		respondSessionError(w, err)
		return
	}
	respondData(w, http.StatusOK, v)
}

// PatchFilter edits one filter field.
func (h *Handler) PatchFilter(w http.ResponseWriter, r *http.Request) {
	field := models.FilterField(chi.URLParam(r, "field"))
	switch field {
	case models.FieldStartDate, models.FieldEndDate, models.FieldAgeGroup, models.FieldGender:
	default:
		respondError(w, http.StatusBadRequest, "INVALID_FIELD",
			"field must be one of startDate, endDate, ageGroup, gender", nil)
		return
	}

	var req FieldRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	v, err := h.session.SetField(r.Context(), field, req.Value)
	if err != nil {
		respondSessionError(w, err)
		return
	}
	respondData(w, http.StatusOK, v)
}

// PostClick clicks a bar.
func (h *Handler) PostClick(w http.ResponseWriter, r *http.Request) {
	var req ClickRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	if strings.TrimSpace(req.Feature) == "" {
		respondErrorDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "feature is required",
			map[string]interface{}{"field": "feature", "tag": "required"}, nil)
		return
	}

	v, accepted, err := h.session.ClickBar(r.Context(), req.Feature)
	if err != nil {
		respondSessionError(w, err)
		return
	}
	status := http.StatusAccepted
	if !accepted {
		status = http.StatusOK
	}
	respondData(w, status, ClickResponse{View: v, Accepted: accepted})
}

// PutSelection sets or clears the drill-down selection.
func (h *Handler) PutSelection(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	v, err := h.session.SelectFeature(r.Context(), req.Feature)
	if err != nil {
		respondSessionError(w, err)
		return
	}
	respondData(w, http.StatusOK, v)
}

// WebSocket upgrades to the live view stream.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "WebSocket service unavailable", nil)
		return
	}
	websocket.Handler(h.hub, h.checkWebSocketOrigin).ServeHTTP(w, r)
}
