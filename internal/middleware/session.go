// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"markpress/internal/session"
	"markpress/internal/theme"
)

// LoadSession makes sure every visitor has an anonymous session and stores
// it in the request context. A session store failure is logged and the
// request continues without a session.
func LoadSession(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, err := store.Ensure(r.Context(), w, r)
			if err != nil {
				slog.Warn("load visitor session", "error", err, "path", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(session.WithData(r.Context(), data)))
		})
	}
}

// SessionID returns the visitor session ID from the context, or "".
func SessionID(ctx context.Context) string {
	if data := session.FromContext(ctx); data != nil {
		return data.ID
	}
	return ""
}

type themeKey struct{}

// ResolveTheme picks the theme of each request from the X-Theme header and
// the theme cookie, falling back to def, and stores it in the context.
func ResolveTheme(def theme.Theme) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t := theme.FromRequest(r, def)
			w.Header().Add("Vary", "Cookie")
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), themeKey{}, t)))
		})
	}
}

// ThemeFromCtx returns the theme chosen by ResolveTheme, or theme.Default.
func ThemeFromCtx(ctx context.Context) theme.Theme {
	if t, ok := ctx.Value(themeKey{}).(theme.Theme); ok {
		return t
	}
	return theme.Default
}
