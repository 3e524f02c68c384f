// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package content loads the site's markdown documents. Blog posts live
// under posts/ and documentation pages under docs/ of a file system;
// published editor drafts are merged into the posts.
package content

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"markpress/internal/markdown"
	"markpress/internal/models"
	"markpress/internal/slug"
)

const (
	postsGlob = "posts/**/*.md"
	docsGlob  = "docs/**/*.md"

	// DefaultSection groups docs without a section.
	DefaultSection = "General"

	excerptLen = 200
)

// Kind tells posts and doc pages apart.
type Kind string

const (
	KindPost Kind = "post"
	KindDoc  Kind = "doc"
)

// Document is one markdown page with its metadata.
type Document struct {
	Kind    Kind
	Slug    string
	Title   string
	Date    time.Time
	Tags    []string
	Author  string
	Excerpt string
	Section string
	Order   int
	Body    string // markdown without front matter
	Path    string // source file, empty for drafts
	Draft   bool
}

// URL returns the page path of the document.
func (d *Document) URL() string {
	if d.Kind == KindDoc {
		return "/docs/" + d.Slug
	}
	return "/blog/" + d.Slug
}

// Section is a named group of doc pages in display order.
type Section struct {
	Name string
	Docs []*Document
}

// TagCount is a tag with the number of posts carrying it.
type TagCount struct {
	Tag   string
	Count int
}

// DraftSource lists published drafts. *store.DraftStore satisfies it.
type DraftSource interface {
	ListPublished(ctx context.Context) ([]models.Draft, error)
}

// Library is an in-memory index of the site's documents. It is safe for
// concurrent use; Reload swaps the whole index at once.
type Library struct {
	fsys   fs.FS
	drafts DraftSource
	logger *slog.Logger

	mu    sync.RWMutex
	index *index
}

type index struct {
	posts    []*Document
	postSlug map[string]*Document
	docs     []*Document
	docSlug  map[string]*Document
	sections []Section
	tags     map[string][]*Document
}

// New creates a library over fsys. drafts may be nil.
func New(fsys fs.FS, drafts DraftSource, logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.Default()
	}
	return &Library{fsys: fsys, drafts: drafts, logger: logger, index: &index{}}
}

// Reload rescans the file system and the published drafts. On error the
// previous index stays in place.
func (l *Library) Reload(ctx context.Context) error {
	posts, err := l.loadDir(postsGlob, KindPost)
	if err != nil {
		return err
	}
	docs, err := l.loadDir(docsGlob, KindDoc)
	if err != nil {
		return err
	}

	if l.drafts != nil {
		drafts, err := l.drafts.ListPublished(ctx)
		if err != nil {
			return fmt.Errorf("content: load drafts: %w", err)
		}
		for i := range drafts {
			posts = append(posts, fromDraft(&drafts[i]))
		}
	}

	idx := l.build(posts, docs)

	l.mu.Lock()
	l.index = idx
	l.mu.Unlock()

	l.logger.Info("content loaded", "posts", len(idx.posts), "docs", len(idx.docs), "tags", len(idx.tags))
	return nil
}

func (l *Library) loadDir(pattern string, kind Kind) ([]*Document, error) {
	paths, err := doublestar.Glob(l.fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("content: glob %s: %w", pattern, err)
	}
	sort.Strings(paths)

	docs := make([]*Document, 0, len(paths))
	for _, p := range paths {
		raw, err := fs.ReadFile(l.fsys, p)
		if err != nil {
			return nil, fmt.Errorf("content: read %s: %w", p, err)
		}
		doc, err := parseDocument(p, string(raw), kind)
		if err != nil {
			l.logger.Warn("skipping document", "path", p, "error", err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// parseDocument fills missing metadata: the slug comes from the file
// name, the title from the first heading or the file name, and the
// excerpt from the first paragraph.
func parseDocument(p, src string, kind Kind) (*Document, error) {
	fm, body, err := markdown.ParseFrontMatter(src)
	if err != nil {
		return nil, err
	}

	d := &Document{
		Kind:    kind,
		Slug:    slug.Generate(fm.Slug),
		Title:   strings.TrimSpace(fm.Title),
		Date:    fm.Date,
		Tags:    fm.Tags,
		Author:  fm.Author,
		Excerpt: strings.TrimSpace(fm.Excerpt),
		Section: strings.TrimSpace(fm.Section),
		Order:   fm.Order,
		Body:    body,
		Path:    p,
	}
	if d.Slug == "" {
		d.Slug = slug.FromPath(p)
	}
	if d.Slug == "" {
		return nil, fmt.Errorf("cannot derive a slug")
	}
	if d.Title == "" {
		d.Title = firstHeading(body)
	}
	if d.Title == "" {
		d.Title = strings.ReplaceAll(d.Slug, "-", " ")
	}
	if d.Excerpt == "" {
		d.Excerpt = Excerpt(body, excerptLen)
	}
	if kind == KindDoc && d.Section == "" {
		d.Section = DefaultSection
	}
	return d, nil
}

func fromDraft(dr *models.Draft) *Document {
	d := &Document{
		Kind:  KindPost,
		Slug:  dr.Slug,
		Title: dr.Title,
		Date:  dr.UpdatedAt,
		Tags:  lowerTags(dr.Tags),
		Body:  dr.Body,
		Draft: true,
	}
	if dr.PublishedAt != nil {
		d.Date = *dr.PublishedAt
	}
	if dr.Excerpt != nil && *dr.Excerpt != "" {
		d.Excerpt = *dr.Excerpt
	} else {
		d.Excerpt = Excerpt(dr.Body, excerptLen)
	}
	return d
}

func lowerTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (l *Library) build(posts, docs []*Document) *index {
	idx := &index{
		postSlug: make(map[string]*Document, len(posts)),
		docSlug:  make(map[string]*Document, len(docs)),
		tags:     make(map[string][]*Document),
	}

	// Files come first, so a draft never shadows a file with the same slug.
	for _, p := range posts {
		if _, dup := idx.postSlug[p.Slug]; dup {
			l.logger.Warn("duplicate post slug", "slug", p.Slug, "path", p.Path, "draft", p.Draft)
			continue
		}
		idx.postSlug[p.Slug] = p
		idx.posts = append(idx.posts, p)
	}
	sort.SliceStable(idx.posts, func(i, j int) bool {
		if !idx.posts[i].Date.Equal(idx.posts[j].Date) {
			return idx.posts[i].Date.After(idx.posts[j].Date)
		}
		return idx.posts[i].Title < idx.posts[j].Title
	})
	for _, p := range idx.posts {
		for _, t := range p.Tags {
			idx.tags[t] = append(idx.tags[t], p)
		}
	}

	for _, d := range docs {
		if _, dup := idx.docSlug[d.Slug]; dup {
			l.logger.Warn("duplicate doc slug", "slug", d.Slug, "path", d.Path)
			continue
		}
		idx.docSlug[d.Slug] = d
		idx.docs = append(idx.docs, d)
	}
	idx.sections = groupSections(idx.docs)

	// Flat doc order follows the sidebar.
	idx.docs = idx.docs[:0]
	for _, s := range idx.sections {
		idx.docs = append(idx.docs, s.Docs...)
	}
	return idx
}

// groupSections orders docs by order then title within each section, and
// sections by their lowest order then name.
func groupSections(docs []*Document) []Section {
	bySection := make(map[string][]*Document)
	var names []string
	for _, d := range docs {
		if _, ok := bySection[d.Section]; !ok {
			names = append(names, d.Section)
		}
		bySection[d.Section] = append(bySection[d.Section], d)
	}

	sections := make([]Section, 0, len(names))
	for _, name := range names {
		list := bySection[name]
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].Order != list[j].Order {
				return list[i].Order < list[j].Order
			}
			return list[i].Title < list[j].Title
		})
		sections = append(sections, Section{Name: name, Docs: list})
	}
	sort.SliceStable(sections, func(i, j int) bool {
		oi, oj := sections[i].Docs[0].Order, sections[j].Docs[0].Order
		if oi != oj {
			return oi < oj
		}
		return sections[i].Name < sections[j].Name
	})
	return sections
}

func (l *Library) current() *index {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.index
}

// Posts returns every post, newest first.
func (l *Library) Posts() []*Document {
	return l.current().posts
}

// Recent returns at most n posts, newest first.
func (l *Library) Recent(n int) []*Document {
	posts := l.current().posts
	if n >= 0 && len(posts) > n {
		return posts[:n]
	}
	return posts
}

// Post looks up a post by slug.
func (l *Library) Post(s string) (*Document, bool) {
	d, ok := l.current().postSlug[s]
	return d, ok
}

// Doc looks up a doc page by slug.
func (l *Library) Doc(s string) (*Document, bool) {
	d, ok := l.current().docSlug[s]
	return d, ok
}

// Sections returns the docs sidebar.
func (l *Library) Sections() []Section {
	return l.current().sections
}

// Neighbors returns the doc pages before and after s in sidebar order.
func (l *Library) Neighbors(s string) (prev, next *Document) {
	docs := l.current().docs
	for i, d := range docs {
		if d.Slug != s {
			continue
		}
		if i > 0 {
			prev = docs[i-1]
		}
		if i+1 < len(docs) {
			next = docs[i+1]
		}
		return prev, next
	}
	return nil, nil
}

// Tagged returns the posts carrying tag, newest first.
func (l *Library) Tagged(tag string) []*Document {
	return l.current().tags[strings.ToLower(strings.TrimSpace(tag))]
}

// Tags returns every tag with its post count, most used first.
func (l *Library) Tags() []TagCount {
	tags := l.current().tags
	out := make([]TagCount, 0, len(tags))
	for t, docs := range tags {
		out = append(out, TagCount{Tag: t, Count: len(docs)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}
