// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

package store

import "strings"

// TokenStore persists the bearer token returned by login.
type TokenStore struct {
	kv  KV
	key string
}

// NewTokenStore returns a TokenStore over kv.
func NewTokenStore(kv KV) *TokenStore {
	return &TokenStore{kv: kv, key: SlotKey(RootPath, TokenSlot)}
}

// Load returns the saved token or ErrNotFound.
func (t *TokenStore) Load() (string, error) {
	raw, err := t.kv.Get(t.key)
	if err != nil {
		return "", err
	}
	tok := strings.TrimSpace(string(raw))
	if tok == "" {
		return "", ErrNotFound
	}
	return tok, nil
}

// Save stores token, replacing any previous one.
func (t *TokenStore) Save(token string) error {
	return t.kv.Set(t.key, []byte(token))
}

// Clear removes the token. It is safe to call when logged out.
func (t *TokenStore) Clear() error {
	return t.kv.Delete(t.key)
}

// Token returns the saved token or "". It satisfies backend.TokenSource.
func (t *TokenStore) Token() string {
	tok, err := t.Load()
	if err != nil {
		return ""
	}
	return tok
}

// LoggedIn reports whether a token is saved.
func (t *TokenStore) LoggedIn() bool {
	_, err := t.Load()
	return err == nil
}
