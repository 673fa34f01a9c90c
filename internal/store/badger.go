// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

package store

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// BadgerKV stores slots in BadgerDB.
type BadgerKV struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a BadgerDB at path. When inMemory is set the
// path is ignored and nothing touches disk.
func OpenBadger(path string, inMemory bool) (*BadgerKV, error) {
	opts := badger.DefaultOptions(path)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &BadgerKV{db: db}, nil
}

// Get implements KV.
func (s *BadgerKV) Get(key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Set implements KV.
func (s *BadgerKV) Set(key string, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(key), value); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
		return nil
	})
}

// Delete implements KV. Deleting a missing key is not an error.
func (s *BadgerKV) Delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Close implements KV.
func (s *BadgerKV) Close() error {
	return s.db.Close()
}
