// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package session identifies anonymous visitors. Chats and generated
// images are scoped to the visitor ID held in an HttpOnly cookie.
//
// With Valkey each visitor is a hash under "session:<id>" whose TTL slides
// on every request. Without Valkey the ID cookie is trusted as is and the
// diff view preference rides in a second cookie.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// CookieName holds the visitor ID.
	CookieName = "mp_session"

	// DiffViewCookie holds the diff view when no Valkey is configured.
	DiffViewCookie = "mp_diff_view"

	// DefaultTTL is how long an idle visitor is remembered.
	DefaultTTL = 30 * 24 * time.Hour

	keyPrefix = "session:"
	idBytes   = 32

	fieldCreated  = "created_at"
	fieldDiffView = "diff_view"
)

// Data describes one visitor.
type Data struct {
	ID        string
	DiffView  string
	CreatedAt time.Time
}

// Store hands out and remembers visitor sessions. A nil client keeps
// everything in cookies.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	secure bool
}

// NewStore creates a session store. client may be nil.
func NewStore(client *redis.Client, secure bool) *Store {
	return &Store{client: client, ttl: DefaultTTL, secure: secure}
}

// Ensure returns the request's session, starting a new one when the cookie
// is missing, malformed or expired.
func (s *Store) Ensure(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Data, error) {
	data, err := s.Get(ctx, r)
	if err != nil || data != nil {
		return data, err
	}

	id, err := newID()
	if err != nil {
		return nil, fmt.Errorf("session id: %w", err)
	}
	data = &Data{ID: id, CreatedAt: time.Now().UTC()}
	if s.client != nil {
		key := keyPrefix + id
		_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, fieldCreated, data.CreatedAt.Format(time.RFC3339Nano))
			pipe.Expire(ctx, key, s.ttl)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("session create: %w", err)
		}
	}
	s.setCookie(w, CookieName, id, true)
	return data, nil
}

// Get loads the session named by the request cookie and slides its TTL.
// It returns nil, nil when the request has no live session.
func (s *Store) Get(ctx context.Context, r *http.Request) (*Data, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || !validID(c.Value) {
		return nil, nil
	}

	if s.client == nil {
		data := &Data{ID: c.Value}
		if v, err := r.Cookie(DiffViewCookie); err == nil {
			data.DiffView = v.Value
		}
		return data, nil
	}

	key := keyPrefix + c.Value
	var fields *redis.MapStringStringCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		fields = pipe.HGetAll(ctx, key)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}
	m := fields.Val()
	if len(m) == 0 {
		return nil, nil
	}

	data := &Data{ID: c.Value, DiffView: m[fieldDiffView]}
	if ts, err := time.Parse(time.RFC3339Nano, m[fieldCreated]); err == nil {
		data.CreatedAt = ts
	}
	return data, nil
}

// SetDiffView records the visitor's diff layout and updates data.
func (s *Store) SetDiffView(ctx context.Context, w http.ResponseWriter, data *Data, view string) error {
	if data == nil || data.ID == "" {
		return fmt.Errorf("session diff view: no session")
	}
	data.DiffView = view
	if s.client == nil {
		s.setCookie(w, DiffViewCookie, view, false)
		return nil
	}
	if err := s.client.HSet(ctx, keyPrefix+data.ID, fieldDiffView, view).Err(); err != nil {
		return fmt.Errorf("session diff view: %w", err)
	}
	return nil
}

func (s *Store) setCookie(w http.ResponseWriter, name, value string, httpOnly bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: httpOnly,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func newID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func validID(id string) bool {
	if len(id) != idBytes*2 {
		return false
	}
	_, err := hex.DecodeString(id)
	return err == nil
}

type ctxKey struct{}

// WithData returns a context carrying the visitor session.
func WithData(ctx context.Context, data *Data) context.Context {
	return context.WithValue(ctx, ctxKey{}, data)
}

// FromContext returns the session stored by WithData, or nil.
func FromContext(ctx context.Context) *Data {
	data, _ := ctx.Value(ctxKey{}).(*Data)
	return data
}
