// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/clickboard/internal/auth"
	"github.com/tomtom215/clickboard/internal/backend"
	"github.com/tomtom215/clickboard/internal/logging"
	"github.com/tomtom215/clickboard/internal/models"
	"github.com/tomtom215/clickboard/internal/validation"
)

// LoginResult is returned by a successful login. The token itself stays
// in the local store.
type LoginResult struct {
	Username string `json:"username"`
	Mounted  bool   `json:"mounted"`
}

// Login authenticates against the backend and mounts the dashboard.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}

	if _, err := h.auth.Login(r.Context(), req); err != nil {
		var verr *validation.RequestValidationError
		var lerr *auth.LoginError
		switch {
		case errors.As(err, &verr):
			respondValidation(w, verr)
		case errors.As(err, &lerr):
			respondError(w, http.StatusUnauthorized, "LOGIN_FAILED", lerr.Detail, nil)
		default:
			respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", auth.DefaultLoginFailure, err)
		}
		return
	}

	if err := h.session.Mount(r.Context()); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Logged in but could not mount dashboard")
		respondData(w, http.StatusOK, LoginResult{Username: req.Username})
		return
	}
	respondData(w, http.StatusOK, LoginResult{Username: req.Username, Mounted: true})
}

// Register creates an account. It does not log in.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}

	user, err := h.auth.Register(r.Context(), req)
	if err != nil {
		var verr *validation.RequestValidationError
		var apiErr *backend.APIError
		switch {
		case errors.As(err, &verr):
			respondValidation(w, verr)
		case errors.As(err, &apiErr) && apiErr.StatusCode < 500 && apiErr.Detail != "":
			respondError(w, http.StatusBadRequest, "REGISTRATION_FAILED", apiErr.Detail, nil)
		default:
			respondError(w, http.StatusBadGateway, "BACKEND_ERROR", "Registration failed", err)
		}
		return
	}
	respondData(w, http.StatusCreated, user)
}

// Logout clears the token and unmounts the dashboard.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Logout(r.Context()); err != nil {
		respondSessionError(w, err)
		return
	}
	if err := h.auth.Logout(); err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Logout failed", err)
		return
	}
	respondData(w, http.StatusOK, h.session.State())
}
