// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the site. Pages
// render inside the shared layout (header, navigation, theme toggle) or,
// for the editor and chat surfaces, as bare documents without the chrome.
// Requests made by the client-side router get only the "content" block.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"markpress/internal/middleware"
	"markpress/internal/theme"
)

//go:embed templates/site/*.html
var siteFS embed.FS

// PartialHeader is set by the client-side router when it only needs the
// page body to swap into the current document.
const PartialHeader = "X-Partial"

// TitleHeader carries the page title on partial responses.
const TitleHeader = "X-Page-Title"

// FadeHeader is "true" on partial responses whose content should fade in.
const FadeHeader = "X-Fade"

// PageData holds all data passed to page templates.
type PageData struct {
	Title       string         // Page title for <title> tag
	Description string         // Meta description
	Section     string         // Active navigation entry ("blog", "docs", "tags")
	SiteTitle   string         // Filled in by the renderer
	Theme       theme.Theme    // Resolved theme; filled from context when empty
	CSRFToken   string         // CSRF token for forms and fetch headers
	Fade        bool           // Fresh content replaced a previously shown page
	Previous    bool           // Content is the last successfully loaded page
	Data        map[string]any // Page-specific data
	Flashes     []Flash        // One-time notification messages
}

// Flash represents a one-time notification message displayed to the user.
type Flash struct {
	Type    string // "success", "error", "warning", "info"
	Message string
}

// Renderer handles template parsing and execution for site pages.
type Renderer struct {
	siteTitle string
	templates map[string]*template.Template
	funcMap   template.FuncMap
}

// bareTemplates render as full HTML documents without the layout chrome.
var bareTemplates = map[string]bool{
	"editor": true,
	"chat":   true,
}

// New creates a Renderer by parsing all page templates from the embedded
// filesystem. Each page template is paired with the layout.
func New(siteTitle string) (*Renderer, error) {
	r := &Renderer{
		siteTitle: siteTitle,
		templates: make(map[string]*template.Template),
		funcMap: template.FuncMap{
			"date": func(t time.Time) string {
				if t.IsZero() {
					return ""
				}
				return t.Format("January 2, 2006")
			},
			"isoDate": func(t time.Time) string {
				return t.Format("2006-01-02")
			},
			"activeClass": func(current, target string) string {
				if current == target {
					return "active"
				}
				return ""
			},
			"themes": func() []theme.Theme { return theme.All },
			"join":   strings.Join,
		},
	}

	entries, err := siteFS.ReadDir("templates/site")
	if err != nil {
		return nil, fmt.Errorf("read embedded templates: %w", err)
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == "layout.html" || !strings.HasSuffix(name, ".html") {
			continue
		}
		tmplName := strings.TrimSuffix(name, ".html")

		var tmpl *template.Template
		var parseErr error
		if bareTemplates[tmplName] {
			tmpl, parseErr = template.New(name).Funcs(r.funcMap).ParseFS(siteFS, "templates/site/"+name)
		} else {
			tmpl, parseErr = template.New("layout.html").Funcs(r.funcMap).ParseFS(
				siteFS, "templates/site/layout.html", "templates/site/"+name,
			)
		}
		if parseErr != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, parseErr)
		}
		r.templates[tmplName] = tmpl
	}

	return r, nil
}

// Has reports whether a page template with the given name exists.
func (rn *Renderer) Has(name string) bool {
	_, ok := rn.templates[name]
	return ok
}

// Page renders a full page or, for client-side navigation, only its
// content block.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	rn.PageStatus(w, r, http.StatusOK, name, data)
}

// PageStatus is Page with an explicit status code.
func (rn *Renderer) PageStatus(w http.ResponseWriter, r *http.Request, status int, name string, data *PageData) {
	if data == nil {
		data = &PageData{}
	}
	var buf bytes.Buffer
	if err := rn.Execute(&buf, r, name, data); err != nil {
		slog.Error("render page failed", "template", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if IsPartial(r) {
		w.Header().Set(TitleHeader, data.Title)
		if data.Fade {
			w.Header().Set(FadeHeader, "true")
		}
	}
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// Execute renders the named page into out, filling request-scoped
// fields (theme, CSRF token, site title) from r.
func (rn *Renderer) Execute(out io.Writer, r *http.Request, name string, data *PageData) error {
	tmpl, ok := rn.templates[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	if data == nil {
		data = &PageData{}
	}

	data.SiteTitle = rn.siteTitle
	if data.CSRFToken == "" {
		data.CSRFToken = middleware.CSRFTokenFromCtx(r.Context())
	}
	if !data.Theme.Valid() {
		data.Theme = middleware.ThemeFromCtx(r.Context())
	}

	execName := "layout.html"
	switch {
	case bareTemplates[name]:
		execName = name + ".html"
	case IsPartial(r):
		execName = "content"
	}
	return tmpl.ExecuteTemplate(out, execName, data)
}

// IsPartial reports whether the client-side router asked for the content
// block only.
func IsPartial(r *http.Request) bool {
	return r.Header.Get(PartialHeader) == "true"
}
