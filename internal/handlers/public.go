// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"markpress/internal/cache"
	"markpress/internal/content"
	"markpress/internal/diffview"
	"markpress/internal/engine"
	"markpress/internal/markdown"
	"markpress/internal/middleware"
	"markpress/internal/navcache"
	"markpress/internal/render"
	"markpress/internal/session"
	"markpress/internal/theme"
)

const (
	homePostCount = 10
	navCacheSize  = 256
	navCacheTTL   = time.Minute
)

// Page is a rendered document as held by the navigation cache.
type Page struct {
	Doc  *content.Document
	Body template.HTML
}

// Public groups handlers for the blog and docs pages. Full pages are
// looked up in the Valkey page cache first; rendered documents go through
// the navigation cache, which falls back to the last good page when a
// load fails.
type Public struct {
	renderer  *render.Renderer
	library   *content.Library
	engine    *engine.Engine
	nav       *navcache.Cache[*Page]
	pageCache *cache.PageCache
	sessions  *session.Store
	secure    bool
}

// NewPublic creates the public handler group. pageCache and sessions may
// be nil.
func NewPublic(renderer *render.Renderer, library *content.Library, eng *engine.Engine, pageCache *cache.PageCache, sessions *session.Store, secure bool) (*Public, error) {
	nav, err := navcache.New[*Page](navCacheSize, navCacheTTL)
	if err != nil {
		return nil, err
	}
	return &Public{
		renderer:  renderer,
		library:   library,
		engine:    eng,
		nav:       nav,
		pageCache: pageCache,
		sessions:  sessions,
		secure:    secure,
	}, nil
}

// Refresh reloads the content library and drops every cached rendering.
// Called after the editor publishes or deletes a draft.
func (p *Public) Refresh(ctx context.Context) error {
	if err := p.library.Reload(ctx); err != nil {
		return err
	}
	p.engine.InvalidateAll()
	p.nav.Purge()
	p.pageCache.InvalidateAll(ctx)
	return nil
}

// Library exposes the content library to other handler groups.
func (p *Public) Library() *content.Library {
	return p.library
}

// Homepage lists the most recent posts.
func (p *Public) Homepage(w http.ResponseWriter, r *http.Request) {
	p.serve(w, r, "home", func(_ context.Context, _ markdown.Options) (*render.PageData, int) {
		return &render.PageData{
			Section: "blog",
			Data:    map[string]any{"Posts": p.library.Recent(homePostCount)},
		}, http.StatusOK
	})
}

// Post renders a blog post.
func (p *Public) Post(w http.ResponseWriter, r *http.Request) {
	p.document(w, r, content.KindPost, "post", chi.URLParam(r, "slug"))
}

// Doc renders a documentation page with the sidebar.
func (p *Public) Doc(w http.ResponseWriter, r *http.Request) {
	p.document(w, r, content.KindDoc, "docs", chi.URLParam(r, "slug"))
}

// DocsIndex renders the docs sidebar without a selected page.
func (p *Public) DocsIndex(w http.ResponseWriter, r *http.Request) {
	p.serve(w, r, "docs", func(_ context.Context, _ markdown.Options) (*render.PageData, int) {
		return &render.PageData{
			Title:   "Documentation",
			Section: "docs",
			Data:    map[string]any{"Sections": p.library.Sections()},
		}, http.StatusOK
	})
}

// Tags lists every tag with its post count.
func (p *Public) Tags(w http.ResponseWriter, r *http.Request) {
	p.serve(w, r, "tags", func(_ context.Context, _ markdown.Options) (*render.PageData, int) {
		return &render.PageData{
			Title:   "Tags",
			Section: "tags",
			Data:    map[string]any{"Tags": p.library.Tags()},
		}, http.StatusOK
	})
}

// Tag lists the posts carrying one tag.
func (p *Public) Tag(w http.ResponseWriter, r *http.Request) {
	tag := strings.ToLower(chi.URLParam(r, "tag"))
	p.serve(w, r, "home", func(_ context.Context, _ markdown.Options) (*render.PageData, int) {
		posts := p.library.Tagged(tag)
		if len(posts) == 0 {
			return notFoundData(), http.StatusNotFound
		}
		return &render.PageData{
			Title:   "#" + tag,
			Section: "tags",
			Data:    map[string]any{"Heading": "Posts tagged #" + tag, "Posts": posts},
		}, http.StatusOK
	})
}

// NotFound renders the 404 page inside the layout.
func (p *Public) NotFound(w http.ResponseWriter, r *http.Request) {
	p.renderer.PageStatus(w, r, http.StatusNotFound, "error", notFoundData())
}

// DocJSON returns a rendered document for client-side navigation and the
// chat page context: GET /api/docs/{slug}?kind=post.
func (p *Public) DocJSON(w http.ResponseWriter, r *http.Request) {
	kind := content.KindDoc
	if r.URL.Query().Get("kind") == string(content.KindPost) {
		kind = content.KindPost
	}

	res, err := p.load(r.Context(), kind, chi.URLParam(r, "slug"), p.options(r))
	if errors.Is(err, navcache.ErrNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		slog.Error("load document failed", "error", err, "slug", chi.URLParam(r, "slug"))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	doc := res.Value.Doc
	writeJSON(w, http.StatusOK, map[string]any{
		"kind":     doc.Kind,
		"slug":     doc.Slug,
		"title":    doc.Title,
		"url":      doc.URL(),
		"markdown": doc.Body,
		"html":     string(res.Value.Body),
		"fresh":    res.Fresh,
		"previous": res.Previous,
	})
}

// ThemeToggle advances the visitor's theme to the next one in the cycle
// and persists it. Fetch callers get JSON; form posts are redirected back.
func (p *Public) ThemeToggle(w http.ResponseWriter, r *http.Request) {
	next := middleware.ThemeFromCtx(r.Context()).Next()
	theme.Persist(w, next, p.secure)

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]string{"theme": string(next), "color": next.Color()})
		return
	}
	http.Redirect(w, r, backTo(r), http.StatusSeeOther)
}

// SetDiffView stores the visitor's preferred diff layout (unified or split)
// in the session so server-rendered diffs open in that view.
func (p *Public) SetDiffView(w http.ResponseWriter, r *http.Request) {
	data := session.FromContext(r.Context())
	if data == nil {
		writeError(w, http.StatusBadRequest, "no session")
		return
	}

	var body struct {
		View string `json:"view"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeDecodeError(w, err)
		return
	}
	view := string(diffview.ParseView(body.View))
	data.DiffView = view
	if p.sessions != nil {
		if err := p.sessions.SetDiffView(r.Context(), w, data, view); err != nil {
			slog.Warn("save diff view failed", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"view": data.DiffView})
}

// document renders one post or doc through the navigation cache.
func (p *Public) document(w http.ResponseWriter, r *http.Request, kind content.Kind, tmpl, slug string) {
	p.serve(w, r, tmpl, func(ctx context.Context, opts markdown.Options) (*render.PageData, int) {
		res, err := p.load(ctx, kind, slug, opts)
		if errors.Is(err, navcache.ErrNotFound) {
			return notFoundData(), http.StatusNotFound
		}
		if err != nil {
			slog.Error("load document failed", "error", err, "kind", kind, "slug", slug)
			return &render.PageData{
				Title: "Something went wrong",
				Data:  map[string]any{"Message": "This page could not be rendered."},
			}, http.StatusInternalServerError
		}

		doc := res.Value.Doc
		data := &render.PageData{
			Title:       doc.Title,
			Description: doc.Excerpt,
			Section:     sectionFor(doc.Kind),
			Fade:        res.Fresh && render.IsPartial(r),
			Previous:    res.Previous,
			Data:        map[string]any{"Doc": doc, "Body": res.Value.Body},
		}
		if tmpl == "docs" {
			data.Data["Sections"] = p.library.Sections()
			if doc.Kind == content.KindDoc {
				prev, next := p.library.Neighbors(doc.Slug)
				data.Data["Prev"], data.Data["Next"] = prev, next
			}
		}
		return data, http.StatusOK
	})
}

// load fetches a rendered document through the navigation cache.
func (p *Public) load(ctx context.Context, kind content.Kind, slug string, opts markdown.Options) (navcache.Result[*Page], error) {
	key := fmt.Sprintf("%s/%s|%s|%s", kind, slug, opts.Theme, opts.DiffView)
	return p.nav.Load(ctx, key, func(ctx context.Context, _ string) (*Page, error) {
		var doc *content.Document
		var ok bool
		if kind == content.KindDoc {
			doc, ok = p.library.Doc(slug)
		} else {
			doc, ok = p.library.Post(slug)
		}
		if !ok {
			return nil, navcache.ErrNotFound
		}
		body, err := p.engine.Render(doc, opts)
		if err != nil {
			return nil, err
		}
		return &Page{Doc: doc, Body: body}, nil
	})
}

// builder produces the data of a page and its status code.
type builder func(ctx context.Context, opts markdown.Options) (*render.PageData, int)

// serve renders a page, answering full-page requests from the page cache
// when possible. Only complete 200 responses are cached; partial
// responses and fallback pages never are.
func (p *Public) serve(w http.ResponseWriter, r *http.Request, tmpl string, build builder) {
	ctx := r.Context()
	opts := p.options(r)
	partial := render.IsPartial(r)
	variant := cache.Variant(string(opts.Theme), string(opts.DiffView))
	token := middleware.CSRFTokenFromCtx(ctx)

	if !partial {
		if cached, ok := p.pageCache.Get(ctx, r.URL.Path, variant); ok {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write(cache.Personalize(cached, token))
			return
		}
	}

	data, status := build(ctx, opts)
	if status != http.StatusOK {
		tmpl = "error"
	}
	data.Theme = opts.Theme
	if !partial {
		data.CSRFToken = cache.TokenPlaceholder
	}

	var buf bytes.Buffer
	if err := p.renderer.Execute(&buf, r, tmpl, data); err != nil {
		slog.Error("render page failed", "error", err, "template", tmpl, "path", r.URL.Path)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if !partial && status == http.StatusOK && !data.Previous {
		p.pageCache.Set(ctx, r.URL.Path, variant, buf.Bytes())
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if partial {
		w.Header().Set(render.TitleHeader, data.Title)
	}
	w.WriteHeader(status)
	if partial {
		w.Write(buf.Bytes())
		return
	}
	w.Write(cache.Personalize(buf.Bytes(), token))
}

// options returns the rendering options of the request: the resolved
// theme and the session's diff view.
func (p *Public) options(r *http.Request) markdown.Options {
	opts := markdown.Options{
		Theme:    middleware.ThemeFromCtx(r.Context()),
		DiffView: diffview.Unified,
	}
	if data := session.FromContext(r.Context()); data != nil {
		opts.DiffView = diffview.ParseView(data.DiffView)
	}
	return opts
}

func sectionFor(k content.Kind) string {
	if k == content.KindDoc {
		return "docs"
	}
	return "blog"
}

func notFoundData() *render.PageData {
	return &render.PageData{
		Title: "Page not found",
		Data:  map[string]any{"Message": "The page you are looking for does not exist."},
	}
}

// wantsJSON reports whether the caller is a script expecting JSON.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// backTo returns the same-origin path of the Referer, or "/".
func backTo(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" || (ref.Host != "" && ref.Host != r.Host) {
		return "/"
	}
	if !strings.HasPrefix(ref.Path, "/") || strings.HasPrefix(ref.Path, "//") {
		return "/"
	}
	if ref.RawQuery != "" {
		return ref.Path + "?" + ref.RawQuery
	}
	return ref.Path
}
