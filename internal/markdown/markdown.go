// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package markdown converts Markdown source text into HTML using goldmark.
// Fenced code is split four ways: highlighted with chroma, rendered as a
// diff table, wrapped plain text, or inline code. Raw HTML is passed
// through so hand-written posts can embed markup.
package markdown

import (
	"bytes"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"markpress/internal/diffview"
	"markpress/internal/theme"
)

// Options select the theme-dependent parts of the output.
type Options struct {
	Theme    theme.Theme
	DiffView diffview.View
}

// Renderer holds one goldmark instance per theme, since the chroma style
// and diff palette are baked into each. Safe for concurrent use.
type Renderer struct {
	engines map[theme.Theme]goldmark.Markdown
}

// NewRenderer builds the goldmark instances for every theme.
func NewRenderer() *Renderer {
	r := &Renderer{engines: make(map[theme.Theme]goldmark.Markdown, len(theme.All))}
	for _, t := range theme.All {
		r.engines[t] = newEngine(t)
	}
	return r
}

func newEngine(t theme.Theme) goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,         // tables, strikethrough, autolinks, task lists
			extension.Typographer, // smart quotes and dashes
			highlighting.NewHighlighting(
				highlighting.WithStyle(t.ChromaStyle()),
				highlighting.WithFormatOptions(
					chromahtml.TabWidth(4),
				),
				highlighting.WithWrapperRenderer(wrapHighlighted),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(util.Prioritized(codeBlockTransformer{}, 100)),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
			renderer.WithNodeRenderers(util.Prioritized(&codeBlockRenderer{palette: diffview.PaletteFor(t)}, 100)),
		),
	)
}

// Render converts source to HTML for the given theme. An unknown theme
// falls back to the default.
func (r *Renderer) Render(source string, opts Options) (string, error) {
	md, ok := r.engines[opts.Theme]
	if !ok {
		md = r.engines[theme.Default]
	}
	view := opts.DiffView
	if view == "" {
		view = diffview.Unified
	}

	pc := parser.NewContext()
	pc.Set(diffViewKey, view)

	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf, parser.WithContext(pc)); err != nil {
		return "", fmt.Errorf("markdown render: %w", err)
	}
	return buf.String(), nil
}

var defaultRenderer = NewRenderer()

// ToHTML renders source with the default theme and unified diffs.
func ToHTML(source string) (string, error) {
	return defaultRenderer.Render(source, Options{Theme: theme.Default})
}
