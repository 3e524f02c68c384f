package engine

import (
	"strings"
	"sync"
	"testing"

	"markpress/internal/content"
	"markpress/internal/diffview"
	"markpress/internal/markdown"
	"markpress/internal/theme"
)

func testDoc(body string) *content.Document {
	return &content.Document{Kind: content.KindDoc, Slug: "intro", Title: "Intro", Body: body}
}

func TestRenderProducesHTML(t *testing.T) {
	eng := New(nil)

	html, err := eng.Render(testDoc("# Hello\n\nSome *text*."), markdown.Options{Theme: theme.Dark})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(string(html), "<em>text</em>") {
		t.Errorf("unexpected output: %s", html)
	}
}

func TestRenderNilDocument(t *testing.T) {
	if _, err := New(nil).Render(nil, markdown.Options{}); err == nil {
		t.Error("expected error for nil document")
	}
}

func TestRenderCachesPerThemeAndView(t *testing.T) {
	eng := New(nil)
	doc := testDoc("```diff\n-a\n+b\n```\n")

	opts := []markdown.Options{
		{Theme: theme.Dark, DiffView: diffview.Unified},
		{Theme: theme.Dark, DiffView: diffview.Split},
		{Theme: theme.Tan, DiffView: diffview.Unified},
	}
	for _, o := range opts {
		if _, err := eng.Render(doc, o); err != nil {
			t.Fatalf("Render(%+v): %v", o, err)
		}
	}
	if got := eng.cache.len(); got != 3 {
		t.Fatalf("cache size = %d, want 3", got)
	}

	// Same options hit the cache.
	if _, err := eng.Render(doc, opts[0]); err != nil {
		t.Fatal(err)
	}
	if got := eng.cache.len(); got != 3 {
		t.Errorf("cache size after repeat = %d, want 3", got)
	}
}

func TestRenderEditedBodyMisses(t *testing.T) {
	eng := New(nil)
	opts := markdown.Options{Theme: theme.Light}

	first, _ := eng.Render(testDoc("old text"), opts)
	second, _ := eng.Render(testDoc("new text"), opts)

	if first == second {
		t.Error("edited body must not be served from the cache")
	}
	if !strings.Contains(string(second), "new text") {
		t.Errorf("got %s", second)
	}
}

func TestInvalidate(t *testing.T) {
	eng := New(nil)
	opts := markdown.Options{Theme: theme.Cloud}

	intro := testDoc("intro")
	other := &content.Document{Kind: content.KindPost, Slug: "other", Body: "other"}
	eng.Render(intro, opts)
	eng.Render(other, opts)

	eng.Invalidate(intro)
	if got := eng.cache.len(); got != 1 {
		t.Errorf("after Invalidate: size = %d, want 1", got)
	}

	eng.InvalidateAll()
	if got := eng.cache.len(); got != 0 {
		t.Errorf("after InvalidateAll: size = %d, want 0", got)
	}
}

func TestPreviewIsNotCached(t *testing.T) {
	eng := New(nil)

	html, err := eng.Preview("**bold**", markdown.Options{Theme: theme.Dark})
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if !strings.Contains(string(html), "<strong>bold</strong>") {
		t.Errorf("got %s", html)
	}
	if eng.cache.len() != 0 {
		t.Error("preview must not populate the cache")
	}
}

func TestRenderConcurrent(t *testing.T) {
	eng := New(nil)
	doc := testDoc("```go\nfunc main() {}\n```\n")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			th := theme.All[i%len(theme.All)]
			if _, err := eng.Render(doc, markdown.Options{Theme: th}); err != nil {
				t.Errorf("Render: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if got := eng.cache.len(); got != len(theme.All) {
		t.Errorf("cache size = %d, want %d", got, len(theme.All))
	}
}
