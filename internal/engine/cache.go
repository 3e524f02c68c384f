package engine

import (
	"html/template"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"markpress/internal/diffview"
	"markpress/internal/theme"
)

// maxFragments bounds the rendered fragments kept in memory. Each
// document has at most one per theme and diff view.
const maxFragments = 2048

// cacheKey names one rendering of a document. The body checksum makes an
// edited document miss without explicit invalidation.
type cacheKey struct {
	id       string // kind/slug
	checksum uint64
	theme    theme.Theme
	view     diffview.View
}

// fragmentCache keeps the most recently used renderings.
type fragmentCache struct {
	lru *lru.Cache[cacheKey, template.HTML]
}

func newFragmentCache() *fragmentCache {
	c, err := lru.New[cacheKey, template.HTML](maxFragments)
	if err != nil {
		panic(err) // only for a non-positive size
	}
	return &fragmentCache{lru: c}
}

func (c *fragmentCache) get(k cacheKey) (template.HTML, bool) {
	return c.lru.Get(k)
}

func (c *fragmentCache) put(k cacheKey, html template.HTML) {
	if evicted := c.lru.Add(k, html); evicted {
		slog.Debug("fragment cache full, evicted oldest", "size", maxFragments)
	}
}

// invalidate drops every rendering of one document.
func (c *fragmentCache) invalidate(id string) {
	n := 0
	for _, k := range c.lru.Keys() {
		if k.id == id && c.lru.Remove(k) {
			n++
		}
	}
	slog.Debug("fragment cache invalidated", "id", id, "removed", n)
}

func (c *fragmentCache) invalidateAll() {
	c.lru.Purge()
}

func (c *fragmentCache) len() int {
	return c.lru.Len()
}
