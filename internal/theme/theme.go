// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package theme defines the four site themes, their toggle order, and the
// rules for deciding which theme a request should be rendered with.
package theme

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Theme is one of the named site themes.
type Theme string

const (
	Dark  Theme = "dark"
	Light Theme = "light"
	Tan   Theme = "tan"
	Cloud Theme = "cloud"
)

// All lists every theme in toggle order.
var All = []Theme{Dark, Light, Tan, Cloud}

// Default is used when nothing else is configured.
const Default = Dark

const (
	// CookieName persists the visitor's choice between requests.
	CookieName = "mp_theme"

	// HeaderName carries the document attribute set by the bootstrap script.
	HeaderName = "X-Theme"

	cookieMaxAge = 365 * 24 * time.Hour
)

// colors maps each theme to the color used for the mobile browser
// theme-color meta tag.
var colors = map[Theme]string{
	Dark:  "#0b0d12",
	Light: "#ffffff",
	Tan:   "#f4ecd8",
	Cloud: "#eef2f7",
}

// chromaStyles maps each theme to the chroma style used for highlighted code.
var chromaStyles = map[Theme]string{
	Dark:  "monokai",
	Light: "github",
	Tan:   "solarized-light",
	Cloud: "friendly",
}

// Parse converts a string into a Theme. Matching is case-insensitive.
func Parse(s string) (Theme, error) {
	t := Theme(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := colors[t]; !ok {
		return "", fmt.Errorf("theme: unknown theme %q", s)
	}
	return t, nil
}

// Valid reports whether t is one of the known themes.
func (t Theme) Valid() bool {
	_, ok := colors[t]
	return ok
}

// Next returns the theme that follows t in toggle order. An unknown theme
// restarts the cycle at the first entry.
func (t Theme) Next() Theme {
	for i, th := range All {
		if th == t {
			return All[(i+1)%len(All)]
		}
	}
	return All[0]
}

// Color returns the theme-color meta value.
func (t Theme) Color() string {
	return colors[t]
}

// ChromaStyle returns the syntax highlighting style name.
func (t Theme) ChromaStyle() string {
	if s, ok := chromaStyles[t]; ok {
		return s
	}
	return chromaStyles[Default]
}

// IsDark reports whether the theme has a dark background. Only Dark does;
// tan and cloud are light palettes.
func (t Theme) IsDark() bool {
	return t == Dark
}

func (t Theme) String() string { return string(t) }

// Resolve picks the theme for a request. The document attribute wins
// because the bootstrap script already applied it before first paint;
// then the persisted value; then the configured default.
func Resolve(attr, stored string, def Theme) Theme {
	if t, err := Parse(attr); err == nil {
		return t
	}
	if t, err := Parse(stored); err == nil {
		return t
	}
	if def.Valid() {
		return def
	}
	return Default
}

// FromRequest resolves the theme from the X-Theme header and the theme cookie.
func FromRequest(r *http.Request, def Theme) Theme {
	var stored string
	if c, err := r.Cookie(CookieName); err == nil {
		stored = c.Value
	}
	return Resolve(r.Header.Get(HeaderName), stored, def)
}

// Persist writes t to the theme cookie. The cookie is readable by scripts
// so the bootstrap snippet can apply it before the stylesheet loads.
func Persist(w http.ResponseWriter, t Theme, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    string(t),
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
