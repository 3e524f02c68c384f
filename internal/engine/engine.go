// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package engine turns site documents into HTML fragments. It renders
// markdown through the theme-aware renderer, keeps compiled fragments in
// an in-memory cache keyed by document, body checksum, theme and diff
// view, and rewrites <img> tags so stored media loads straight from the
// blob store.
package engine

import (
	"fmt"
	"hash/fnv"
	"html/template"
	"regexp"
	"strings"

	"markpress/internal/content"
	"markpress/internal/markdown"
	"markpress/internal/storage"
)

// mediaPrefix is the site path that redirects to stored blobs.
const mediaPrefix = "/media/"

// Media resolves stored object keys to public URLs. *storage.Client
// satisfies it.
type Media interface {
	FileURL(key string) string
}

// Engine renders documents to HTML. Safe for concurrent use.
type Engine struct {
	md    *markdown.Renderer
	cache *fragmentCache

	// Optional; nil when S3 storage is not configured and image
	// rewriting only adds lazy loading.
	media Media
}

// New creates a rendering engine with an empty fragment cache.
func New(md *markdown.Renderer) *Engine {
	if md == nil {
		md = markdown.NewRenderer()
	}
	return &Engine{
		md:    md,
		cache: newFragmentCache(),
	}
}

// SetMedia configures the blob store used to rewrite image sources.
func (e *Engine) SetMedia(m Media) {
	e.media = m
}

// Render returns the HTML body of doc for the given options. Repeat
// renders of an unchanged document are served from the cache.
func (e *Engine) Render(doc *content.Document, opts markdown.Options) (template.HTML, error) {
	if doc == nil {
		return "", fmt.Errorf("engine: nil document")
	}
	key := cacheKey{
		id:       documentID(doc),
		checksum: checksum(doc.Body),
		theme:    opts.Theme,
		view:     opts.DiffView,
	}
	if html, ok := e.cache.get(key); ok {
		return html, nil
	}

	html, err := e.render(doc.Body, opts)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", key.id, err)
	}
	e.cache.put(key, html)
	return html, nil
}

// Preview renders ad-hoc markdown, such as the editor's live preview.
// Previews are never cached.
func (e *Engine) Preview(source string, opts markdown.Options) (template.HTML, error) {
	return e.render(source, opts)
}

// Invalidate drops every cached fragment of doc.
func (e *Engine) Invalidate(doc *content.Document) {
	e.cache.invalidate(documentID(doc))
}

// InvalidateAll clears the fragment cache. Called after the content
// library reloads.
func (e *Engine) InvalidateAll() {
	e.cache.invalidateAll()
}

func (e *Engine) render(source string, opts markdown.Options) (template.HTML, error) {
	out, err := e.md.Render(source, opts)
	if err != nil {
		return "", err
	}
	// The markdown renderer passes raw HTML through on purpose; documents
	// come from the content directory or the editor, both trusted.
	return template.HTML(e.rewriteBodyImages(out)), nil
}

func documentID(doc *content.Document) string {
	return string(doc.Kind) + "/" + doc.Slug
}

func checksum(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

// imgSrcRe matches <img ... src="..." ...> tags and captures the attributes
// before src, the src URL, and the attributes after it. It handles single
// and double quotes.
var imgSrcRe = regexp.MustCompile(`<img\s([^>]*?)src=["']([^"']+)["']([^>]*)>`)

// rewriteBodyImages adds lazy loading to every <img> without a loading
// attribute and points /media/ sources of public objects at the blob
// store directly, skipping the redirect.
func (e *Engine) rewriteBodyImages(html string) string {
	matches := imgSrcRe.FindAllStringSubmatchIndex(html, -1)
	if len(matches) == 0 {
		return html
	}

	var b strings.Builder
	last := 0
	for _, loc := range matches {
		pre := html[loc[2]:loc[3]]
		src := html[loc[4]:loc[5]]
		post := html[loc[6]:loc[7]]
		full := html[loc[0]:loc[1]]

		b.WriteString(html[last:loc[0]])
		last = loc[1]

		newSrc := e.resolveSrc(src)
		lazy := !strings.Contains(full, "loading=")
		if newSrc == src && !lazy {
			b.WriteString(full)
			continue
		}

		b.WriteString(`<img `)
		b.WriteString(pre)
		b.WriteString(`src="`)
		b.WriteString(newSrc)
		b.WriteString(`"`)
		if lazy {
			b.WriteString(` loading="lazy"`)
		}
		b.WriteString(post)
		b.WriteString(`>`)
	}
	b.WriteString(html[last:])
	return b.String()
}

// resolveSrc maps /media/<key> to the public URL of key when the key is
// public. Everything else is returned unchanged.
func (e *Engine) resolveSrc(src string) string {
	if e.media == nil || !strings.HasPrefix(src, mediaPrefix) {
		return src
	}
	key := strings.TrimPrefix(src, mediaPrefix)
	if !storage.IsPublicKey(key) {
		return src
	}
	return e.media.FileURL(key)
}
