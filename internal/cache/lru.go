// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

// Package cache provides the bounded TTL cache that sits in front of
// backend GET requests. Identical analytics queries inside the TTL are
// answered locally; cache-busted queries carry a unique token and always miss.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
	prev      *entry[V]
	next      *entry[V]
}

// Stats is a point-in-time view of cache effectiveness.
type Stats struct {
	Size   int
	Hits   int64
	Misses int64
}

// LRU is a thread-safe least-recently-used cache with lazy TTL expiry.
// The head sentinel's next entry is the most recently used.
type LRU[V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time
	items    map[string]*entry[V]
	head     *entry[V]
	tail     *entry[V]
	hits     int64
	misses   int64
}

// New creates an LRU holding at most capacity entries for ttl each.
// now may be nil, in which case time.Now is used.
func New[V any](capacity int, ttl time.Duration, now func() time.Time) *LRU[V] {
	if capacity <= 0 {
		capacity = 128
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	if now == nil {
		now = time.Now
	}
	c := &LRU[V]{
		capacity: capacity,
		ttl:      ttl,
		now:      now,
		items:    make(map[string]*entry[V], capacity),
		head:     &entry[V]{},
		tail:     &entry[V]{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Get returns the live value for key and marks it most recently used.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.items[key]
	if !ok {
		c.misses++
		return zero, false
	}
	if c.now().After(e.expiresAt) {
		c.remove(e)
		c.misses++
		return zero, false
	}
	c.moveToFront(e)
	c.hits++
	return e.value, true
}

// Set stores value under key, evicting the least recently used entry when full.
func (c *LRU[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(c.ttl)
	if e, ok := c.items[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.moveToFront(e)
		return
	}

	if len(c.items) >= c.capacity {
		c.remove(c.tail.prev)
	}
	e := &entry[V]{key: key, value: value, expiresAt: expiresAt}
	c.items[key] = e
	c.pushFront(e)
}

// Delete removes key if present.
func (c *LRU[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.items[key]; ok {
		c.remove(e)
	}
}

// Clear drops every entry. Counters are kept.
func (c *LRU[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*entry[V], c.capacity)
	c.head.next = c.tail
	c.tail.prev = c.head
}

// Stats returns current counters.
func (c *LRU[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Size: len(c.items), Hits: c.hits, Misses: c.misses}
}

func (c *LRU[V]) pushFront(e *entry[V]) {
	e.prev = c.head
	e.next = c.head.next
	c.head.next.prev = e
	c.head.next = e
}

func (c *LRU[V]) moveToFront(e *entry[V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
	c.pushFront(e)
}

func (c *LRU[V]) remove(e *entry[V]) {
	if e == c.head || e == c.tail {
		return
	}
	e.prev.next = e.next
	e.next.prev = e.prev
	delete(c.items, e.key)
}
