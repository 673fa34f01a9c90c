// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

// Package auth handles login, registration and logout against the
// analytics backend. The access token returned by login is persisted in
// the token store, where the backend client picks it up for /track calls.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/clickboard/internal/backend"
	"github.com/tomtom215/clickboard/internal/logging"
	"github.com/tomtom215/clickboard/internal/models"
	"github.com/tomtom215/clickboard/internal/store"
	"github.com/tomtom215/clickboard/internal/validation"
)

// DefaultLoginFailure is shown when the backend gives no detail.
const DefaultLoginFailure = "Login failed"

// LoginError is a rejected login. Detail is safe to show to the user.
type LoginError struct {
	Detail string
	Err    error
}

func (e *LoginError) Error() string {
	return e.Detail
}

func (e *LoginError) Unwrap() error {
	return e.Err
}

// Backend is the subset of the backend client used here.
type Backend interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Register(ctx context.Context, payload models.RegisterPayload) (*models.UserOut, error)
}

// cacheClearer drops cached backend responses so a new identity never sees
// the previous user's analytics.
type cacheClearer interface {
	ClearCache()
}

// Service performs the account operations.
type Service struct {
	api    Backend
	tokens *store.TokenStore
}

// NewService returns a Service that saves tokens to tokens.
func NewService(api Backend, tokens *store.TokenStore) *Service {
	return &Service{api: api, tokens: tokens}
}

// Login validates req, authenticates and saves the access token.
//
// A form problem returns *validation.RequestValidationError without a
// request being made. A backend rejection returns *LoginError.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if verr := validation.ValidateLogin(&req); verr != nil {
		return nil, verr
	}

	resp, err := s.api.Login(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		detail := backend.DetailOf(err)
		if detail == "" {
			detail = DefaultLoginFailure
		}
		logging.Ctx(ctx).Info().Str("username", req.Username).Str("detail", detail).Msg("Login rejected")
		return nil, &LoginError{Detail: detail, Err: err}
	}
	if strings.TrimSpace(resp.AccessToken) == "" {
		return nil, &LoginError{Detail: DefaultLoginFailure, Err: errors.New("empty access token")}
	}

	if err := s.tokens.Save(resp.AccessToken); err != nil {
		return nil, fmt.Errorf("save token: %w", err)
	}
	s.clearCache()

	logging.Ctx(ctx).Info().Str("username", req.Username).Msg("Logged in")
	return resp, nil
}

// Register validates req and creates the account. The confirmation field
// is never sent.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.UserOut, error) {
	if verr := validation.ValidateRegister(&req); verr != nil {
		return nil, verr
	}

	user, err := s.api.Register(ctx, req.Payload())
	if err != nil {
		return nil, fmt.Errorf("register %q: %w", req.Username, err)
	}

	logging.Ctx(ctx).Info().Str("username", user.Username).Msg("Registered")
	return user, nil
}

// Logout removes the saved token. It succeeds when already logged out.
func (s *Service) Logout() error {
	if err := s.tokens.Clear(); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	s.clearCache()
	return nil
}

// LoggedIn reports whether a token is saved.
func (s *Service) LoggedIn() bool {
	return s.tokens.LoggedIn()
}

// Current describes the saved token, or returns store.ErrNotFound.
func (s *Service) Current() (*TokenInfo, error) {
	tok, err := s.tokens.Load()
	if err != nil {
		return nil, err
	}
	return ParseTokenInfo(tok)
}

func (s *Service) clearCache() {
	if c, ok := s.api.(cacheClearer); ok {
		c.ClearCache()
	}
}
