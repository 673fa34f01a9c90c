// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

package models

import "time"

// Envelope status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// APIResponse wraps every local API response.
//
//	{"status":"success","data":{...},"metadata":{"timestamp":"..."}}
//	{"status":"error","error":{"code":"NOT_MOUNTED","message":"..."},"metadata":{...}}
type APIResponse struct {
	Status   string    `json:"status"`
	Data     any       `json:"data"`
	Metadata Metadata  `json:"metadata"`
	Error    *APIError `json:"error,omitempty"`
}

// Metadata accompanies every response.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
}

// APIError is the error half of APIResponse. Details carries per-field
// validation messages or the backend's own detail string.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// SuccessResponse stamps data with the current time.
func SuccessResponse(data any) *APIResponse {
	return &APIResponse{Status: StatusSuccess, Data: data, Metadata: Metadata{Timestamp: time.Now().UTC()}}
}

// ErrorResponse stamps apiErr with the current time.
func ErrorResponse(apiErr *APIError) *APIResponse {
	return &APIResponse{Status: StatusError, Error: apiErr, Metadata: Metadata{Timestamp: time.Now().UTC()}}
}
