// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/clickboard/internal/logging"
	"github.com/tomtom215/clickboard/internal/models"
	"github.com/tomtom215/clickboard/internal/validation"
)

// maxBodySize caps request bodies. Every request body here is a small form.
const maxBodySize = 64 * 1024

var errEmptyBody = errors.New("request body is empty")

// sanitizeLogValue escapes control characters so user input cannot forge
// log lines.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// respondJSON writes response. Dashboard state changes constantly, so
// nothing is cacheable.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondData wraps data in a success envelope.
func respondData(w http.ResponseWriter, status int, data any) {
	respondJSON(w, status, models.SuccessResponse(data))
}

// respondError writes an error envelope. err, when set, is logged but not
// sent to the client.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	respondErrorDetails(w, status, code, message, nil, err)
}

func respondErrorDetails(w http.ResponseWriter, status int, code, message string, details map[string]any, err error) {
	if err != nil {
		logging.Warn().
			Str("code", sanitizeLogValue(code)).
			Str("error", sanitizeLogValue(err.Error())).
			Int("status", status).
			Msg("API error")
	}

	respondJSON(w, status, models.ErrorResponse(&models.APIError{Code: code, Message: message, Details: details}))
}

// respondValidation answers 400 with every failed field.
func respondValidation(w http.ResponseWriter, verr *validation.RequestValidationError) {
	apiErr := verr.ToAPIError()
	respondErrorDetails(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details, nil)
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
