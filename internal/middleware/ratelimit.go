// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"markpress/internal/session"
)

// maxTrackedClients bounds limiter memory. The least recently seen client
// is forgotten first.
const maxTrackedClients = 10_000

// RateLimiter allows limit requests per client in any sliding window.
// Clients are visitor sessions when one is loaded, else IP addresses.
// A client's log expires one window after its last counted request.
type RateLimiter struct {
	mu      sync.Mutex
	clients *expirable.LRU[string, []time.Time]
	limit   int
	window  time.Duration
	now     func() time.Time
}

// NewRateLimiter creates a limiter of limit requests per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		clients: expirable.NewLRU[string, []time.Time](maxTrackedClients, nil, window),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// allow counts a request for key. It reports whether the request fits, the
// budget left afterwards, and when refused, how long until a slot frees.
func (rl *RateLimiter) allow(key string) (ok bool, remaining int, retry time.Duration) {
	now := rl.now()
	cutoff := now.Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	log, _ := rl.clients.Get(key)
	kept := log[:0]
	for _, ts := range log {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= rl.limit {
		rl.clients.Add(key, kept)
		return false, 0, kept[0].Add(rl.window).Sub(now)
	}
	kept = append(kept, now)
	rl.clients.Add(key, kept)
	return true, rl.limit - len(kept), 0
}

// Middleware answers requests over the limit with a JSON 429 and a
// Retry-After header. Every response carries the X-RateLimit headers.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, remaining, retry := rl.allow(clientKey(r))
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if ok {
			next.ServeHTTP(w, r)
			return
		}

		secs := int(retry.Round(time.Second).Seconds())
		if secs < 1 {
			secs = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"too many requests"}`))
	})
}

func clientKey(r *http.Request) string {
	if data := session.FromContext(r.Context()); data != nil && data.ID != "" {
		return "s:" + data.ID
	}
	return "ip:" + clientIP(r)
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then
// the connection address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
