// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package markdown

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"markpress/internal/diffview"
)

// BlockKind is how a fenced or indented code block is presented.
type BlockKind int

const (
	KindHighlight BlockKind = iota
	KindDiff
	KindPlain
	KindInline
)

func (k BlockKind) String() string {
	switch k {
	case KindDiff:
		return "diff"
	case KindPlain:
		return "plain"
	case KindInline:
		return "inline"
	default:
		return "highlight"
	}
}

// InlineMaxLen is the character count below which a single-line block without a
// language is shown as inline code.
const InlineMaxLen = 80

// CopyAckWindow is how long the copy button shows its acknowledgement.
const CopyAckWindow = 2 * time.Second

// Classify decides how a code block is rendered. A diff or patch language
// always wins, whatever the content looks like.
func Classify(lang, code string) BlockKind {
	lang = strings.ToLower(strings.TrimSpace(lang))
	switch {
	case lang == "diff" || lang == "patch":
		return KindDiff
	case lang != "":
		return KindHighlight
	}
	trimmed := strings.TrimRight(code, "\n")
	if !strings.Contains(trimmed, "\n") && utf8.RuneCountInString(trimmed) < InlineMaxLen {
		return KindInline
	}
	return KindPlain
}

// KindCodeBlock is the AST kind of code blocks that bypass the highlighter.
var KindCodeBlock = ast.NewNodeKind("MarkpressCodeBlock")

// CodeBlock replaces a fenced or indented block classified as diff, plain,
// or inline.
type CodeBlock struct {
	ast.BaseBlock
	Block BlockKind
	Lang  string
	Code  string
	View  diffview.View
}

func (n *CodeBlock) Kind() ast.NodeKind { return KindCodeBlock }

func (n *CodeBlock) IsRaw() bool { return true }

func (n *CodeBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Block": n.Block.String(),
		"Lang":  n.Lang,
	}, nil)
}

var diffViewKey = parser.NewContextKey()

// codeBlockTransformer swaps code blocks that are not highlighted for
// CodeBlock nodes. Highlighted blocks stay fenced for goldmark-highlighting.
type codeBlockTransformer struct{}

func (codeBlockTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	view := diffview.Unified
	if v, ok := pc.Get(diffViewKey).(diffview.View); ok {
		view = v
	}

	var blocks []ast.Node
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindFencedCodeBlock, ast.KindCodeBlock:
			blocks = append(blocks, n)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	for _, n := range blocks {
		var lang string
		if f, ok := n.(*ast.FencedCodeBlock); ok {
			lang = string(f.Language(source))
		}
		code := blockText(n, source)
		kind := Classify(lang, code)
		if kind == KindHighlight {
			continue
		}
		repl := &CodeBlock{Block: kind, Lang: lang, Code: code, View: view}
		n.Parent().ReplaceChild(n.Parent(), n, repl)
	}
}

func blockText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}

// codeBlockRenderer renders CodeBlock nodes for one diff palette.
type codeBlockRenderer struct {
	palette diffview.Palette
}

func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindCodeBlock, r.render)
}

func (r *codeBlockRenderer) render(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*CodeBlock)
	switch n.Block {
	case KindInline:
		fmt.Fprintf(w, "<p><code class=\"code-inline\">%s</code></p>\n", html.EscapeString(strings.TrimRight(n.Code, "\n")))
	case KindDiff:
		r.renderDiff(w, n)
	default:
		fmt.Fprintf(w, "<figure class=\"code-block code-plain\"><figcaption>%s</figcaption>", copyButton())
		fmt.Fprintf(w, "<pre class=\"code-wrap\" style=\"white-space: pre-wrap\"><code>%s</code></pre></figure>\n", html.EscapeString(n.Code))
	}
	return ast.WalkSkipChildren, nil
}

func (r *codeBlockRenderer) renderDiff(w util.BufWriter, n *CodeBlock) {
	d := diffview.Parse(n.Code)
	added, deleted := d.Stats()
	label := strings.ToLower(n.Lang)

	fmt.Fprintf(w, "<figure class=\"code-block code-diff\" data-view=\"%s\" data-palette=\"%s\">", n.View, r.palette)
	fmt.Fprintf(w, "<figcaption><span class=\"code-lang\">%s</span><span class=\"diff-stats\">+%d -%d</span>", html.EscapeString(label), added, deleted)
	w.WriteString("<button type=\"button\" class=\"diff-toggle\" data-diff-toggle>Toggle view</button>")
	w.WriteString(copyButton())
	w.WriteString("</figcaption>")
	for _, v := range []diffview.View{diffview.Unified, diffview.Split} {
		fmt.Fprintf(w, "<div class=\"diff-pane\" data-pane=\"%s\">", v)
		w.WriteString(diffview.Render(d, diffview.Options{View: v, Palette: r.palette}))
		w.WriteString("</div>")
	}
	fmt.Fprintf(w, "<pre hidden data-copy-source>%s</pre></figure>\n", html.EscapeString(n.Code))
}

func copyButton() string {
	return fmt.Sprintf("<button type=\"button\" class=\"copy-btn\" data-copy data-copied-ms=\"%d\">Copy</button>",
		CopyAckWindow.Milliseconds())
}

// wrapHighlighted adds the language label and copy button around blocks
// rendered by goldmark-highlighting.
func wrapHighlighted(w util.BufWriter, ctx highlighting.CodeBlockContext, entering bool) {
	if !entering {
		w.WriteString("</figure>\n")
		return
	}
	lang, _ := ctx.Language()
	l := html.EscapeString(string(lang))
	fmt.Fprintf(w, "<figure class=\"code-block code-highlight\" data-lang=\"%s\"><figcaption><span class=\"code-lang\">%s</span>%s</figcaption>", l, l, copyButton())
}
