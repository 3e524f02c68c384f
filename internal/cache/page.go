// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "page:"
	generationKey = keyPrefix + "gen"

	// DefaultPageTTL is how long a rendered page stays cached.
	DefaultPageTTL = 5 * time.Minute

	// TokenPlaceholder stands in for the visitor's CSRF token inside cached
	// HTML. Personalize swaps it for the real token on the way out.
	TokenPlaceholder = "__markpress_csrf__"
)

// PageCache holds full rendered pages in Valkey. Every path is one hash
// whose fields are the variants a visitor can see (theme and diff view).
// Keys embed a generation number, so InvalidateAll is a single INCR and
// stale hashes simply age out.
//
// A nil *PageCache, or one without a client, never hits.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPageCache creates a page cache on client. A zero ttl uses DefaultPageTTL.
func NewPageCache(client *redis.Client, ttl time.Duration) *PageCache {
	if ttl <= 0 {
		ttl = DefaultPageTTL
	}
	return &PageCache{client: client, ttl: ttl}
}

func (pc *PageCache) enabled() bool {
	return pc != nil && pc.client != nil
}

// Variant names one rendering of a path.
func Variant(theme, diffView string) string {
	return theme + "/" + diffView
}

func (pc *PageCache) generation(ctx context.Context) (int64, error) {
	gen, err := pc.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func pathKey(gen int64, path string) string {
	return keyPrefix + strconv.FormatInt(gen, 10) + ":" + path
}

// Get returns the cached HTML of one variant of path.
func (pc *PageCache) Get(ctx context.Context, path, variant string) ([]byte, bool) {
	if !pc.enabled() {
		return nil, false
	}
	gen, err := pc.generation(ctx)
	if err != nil {
		slog.Warn("page cache generation", "error", err)
		return nil, false
	}
	html, err := pc.client.HGet(ctx, pathKey(gen, path), variant).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		slog.Debug("page cache miss", "path", path, "variant", variant)
		return nil, false
	case err != nil:
		slog.Warn("page cache get", "path", path, "error", err)
		return nil, false
	}
	slog.Debug("page cache hit", "path", path, "variant", variant)
	return html, true
}

// Set stores one variant of path. The TTL restarts for every variant of
// the path.
func (pc *PageCache) Set(ctx context.Context, path, variant string, html []byte) {
	if !pc.enabled() {
		return
	}
	gen, err := pc.generation(ctx)
	if err != nil {
		slog.Warn("page cache generation", "error", err)
		return
	}
	key := pathKey(gen, path)
	_, err = pc.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, variant, html)
		pipe.Expire(ctx, key, pc.ttl)
		return nil
	})
	if err != nil {
		slog.Warn("page cache set", "path", path, "error", err)
	}
}

// InvalidateAll retires every cached page by moving to a new generation.
func (pc *PageCache) InvalidateAll(ctx context.Context) {
	if !pc.enabled() {
		return
	}
	gen, err := pc.client.Incr(ctx, generationKey).Result()
	if err != nil {
		slog.Warn("page cache invalidate all", "error", err)
		return
	}
	slog.Info("page cache generation advanced", "generation", gen)
}

// Personalize replaces the token placeholder in cached HTML with token.
func Personalize(html []byte, token string) []byte {
	return bytes.ReplaceAll(html, []byte(TokenPlaceholder), []byte(token))
}
