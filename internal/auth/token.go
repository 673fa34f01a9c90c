// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what the client can read from an access token without the
// backend's signing key.
type TokenInfo struct {
	Subject   string
	ExpiresAt time.Time // zero when the token carries no exp claim
}

// Expired reports whether the token expired before now.
func (i *TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// ParseTokenInfo reads sub and exp from a JWT. The signature is NOT
// verified; the backend remains the authority on validity.
func ParseTokenInfo(token string) (*TokenInfo, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	info := &TokenInfo{}
	sub, err := claims.GetSubject()
	if err != nil {
		return nil, fmt.Errorf("token subject: %w", err)
	}
	info.Subject = sub

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("token expiry: %w", err)
	}
	if exp != nil {
		info.ExpiresAt = exp.Time
	}
	return info, nil
}
