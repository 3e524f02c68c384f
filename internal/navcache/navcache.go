// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package navcache keeps recently viewed documents so navigation between
// pages can show something immediately. Entries go stale after a TTL and
// are refreshed in the background; when a load fails the last document
// that loaded successfully is returned instead of an error.
package navcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// ErrNotFound is returned by loaders for documents that do not exist. It
// is passed through instead of falling back to the previous document.
var ErrNotFound = errors.New("navcache: not found")

// Loader fetches the value for key.
type Loader[V any] func(ctx context.Context, key string) (V, error)

// Result is what a Load call hands back.
type Result[V any] struct {
	// Key is the key the value belongs to. It differs from the requested
	// key when Previous is set.
	Key   string
	Value V
	// Fresh is false when the value came from a stale entry or from the
	// previous document.
	Fresh bool
	// Previous reports that the requested key failed to load and Value is
	// the last document that loaded successfully.
	Previous bool
}

type entry[V any] struct {
	value    V
	loadedAt time.Time
}

// Cache is a bounded, TTL-aware document cache. Safe for concurrent use.
type Cache[V any] struct {
	entries *lru.Cache[string, entry[V]]
	group   singleflight.Group
	ttl     time.Duration
	now     func() time.Time

	mu      sync.Mutex
	lastKey string
	last    *entry[V]

	refreshTimeout time.Duration
}

// New creates a cache holding up to size entries that stay fresh for ttl.
func New[V any](size int, ttl time.Duration) (*Cache[V], error) {
	entries, err := lru.New[string, entry[V]](size)
	if err != nil {
		return nil, fmt.Errorf("navcache: %w", err)
	}
	return &Cache[V]{
		entries:        entries,
		ttl:            ttl,
		now:            time.Now,
		refreshTimeout: 10 * time.Second,
	}, nil
}

// Load returns the value for key, calling loader on a miss. Concurrent
// loads of the same key share one loader call.
func (c *Cache[V]) Load(ctx context.Context, key string, loader Loader[V]) (Result[V], error) {
	if e, ok := c.entries.Get(key); ok {
		if c.now().Sub(e.loadedAt) < c.ttl {
			slog.Debug("navcache hit", "key", key)
			return Result[V]{Key: key, Value: e.value, Fresh: true}, nil
		}
		slog.Debug("navcache stale", "key", key)
		c.refresh(key, loader)
		return Result[V]{Key: key, Value: e.value}, nil
	}

	slog.Debug("navcache miss", "key", key)
	v, err := c.load(ctx, key, loader)
	if err == nil {
		return Result[V]{Key: key, Value: v, Fresh: true}, nil
	}

	c.mu.Lock()
	last, lastKey := c.last, c.lastKey
	c.mu.Unlock()
	if last == nil || errors.Is(err, ErrNotFound) {
		return Result[V]{}, err
	}
	slog.Warn("navcache load failed, serving previous document", "key", key, "previous", lastKey, "error", err)
	return Result[V]{Key: lastKey, Value: last.value, Previous: true}, nil
}

func (c *Cache[V]) load(ctx context.Context, key string, loader Loader[V]) (V, error) {
	res, err, _ := c.group.Do(key, func() (any, error) {
		v, err := loader(ctx, key)
		if err != nil {
			return nil, err
		}
		c.store(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, fmt.Errorf("navcache load %q: %w", key, err)
	}
	return res.(V), nil
}

// refresh reloads a stale entry without blocking the caller. A failed
// refresh keeps the stale entry.
func (c *Cache[V]) refresh(key string, loader Loader[V]) {
	c.group.DoChan(key, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), c.refreshTimeout)
		defer cancel()
		v, err := loader(ctx, key)
		if err != nil {
			slog.Warn("navcache refresh failed", "key", key, "error", err)
			return nil, err
		}
		c.store(key, v)
		return v, nil
	})
}

func (c *Cache[V]) store(key string, v V) {
	e := entry[V]{value: v, loadedAt: c.now()}
	c.entries.Add(key, e)
	c.mu.Lock()
	c.last, c.lastKey = &e, key
	c.mu.Unlock()
}

// Invalidate drops key so the next Load calls the loader.
func (c *Cache[V]) Invalidate(key string) {
	c.entries.Remove(key)
}

// Purge empties the cache and forgets the previous document.
func (c *Cache[V]) Purge() {
	c.entries.Purge()
	c.mu.Lock()
	c.last, c.lastKey = nil, ""
	c.mu.Unlock()
}

// Len reports the number of cached entries.
func (c *Cache[V]) Len() int {
	return c.entries.Len()
}
