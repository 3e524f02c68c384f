// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package content

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/uuid"

	"markpress/internal/models"
)

type fakeDrafts struct {
	drafts []models.Draft
	err    error
}

func (f *fakeDrafts) ListPublished(ctx context.Context) ([]models.Draft, error) {
	return f.drafts, f.err
}

func sampleFS() fstest.MapFS {
	return fstest.MapFS{
		"posts/2026/hello.md":    {Data: []byte("---\ntitle: Hello World\ndate: 2026-02-01\ntags: [Go, intro]\n---\nFirst post body.\n")},
		"posts/older.md":         {Data: []byte("---\ntitle: Older\ndate: 2025-12-24\ntags: [go]\nslug: the-older-one\n---\nAn older post.\n")},
		"posts/Untitled Post.md": {Data: []byte("# From Heading\n\nSome **bold** text with a [link](https://x.test).\n")},
		"posts/readme.txt":       {Data: []byte("ignored")},
		"docs/install.md":        {Data: []byte("---\ntitle: Install\nsection: Getting Started\norder: 1\n---\nInstall it.\n")},
		"docs/configure.md":      {Data: []byte("---\ntitle: Configure\nsection: Getting Started\norder: 2\n---\nConfigure it.\n")},
		"docs/api/chat.md":       {Data: []byte("---\ntitle: Chat API\nsection: Reference\norder: 10\n---\nPOST it.\n")},
		"docs/api/images.md":     {Data: []byte("---\ntitle: Images API\nsection: Reference\norder: 10\n---\nPOST it.\n")},
		"docs/faq.md":            {Data: []byte("# FAQ\n\nQuestions.\n")},
	}
}

func TestReloadPosts(t *testing.T) {
	lib := New(sampleFS(), nil, nil)
	if err := lib.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	posts := lib.Posts()
	if len(posts) != 3 {
		t.Fatalf("posts = %d, want 3", len(posts))
	}
	if posts[0].Slug != "hello" || posts[1].Slug != "the-older-one" {
		t.Errorf("order = %s, %s, %s", posts[0].Slug, posts[1].Slug, posts[2].Slug)
	}

	p, ok := lib.Post("untitled-post")
	if !ok {
		t.Fatal("slug should be derived from the file name")
	}
	if p.Title != "From Heading" {
		t.Errorf("title = %q", p.Title)
	}
	if p.Excerpt != "Some bold text with a link." {
		t.Errorf("excerpt = %q", p.Excerpt)
	}
	if p.URL() != "/blog/untitled-post" {
		t.Errorf("url = %q", p.URL())
	}

	if got := lib.Recent(1); len(got) != 1 || got[0].Slug != "hello" {
		t.Errorf("Recent(1) = %v", got)
	}
}

func TestTags(t *testing.T) {
	lib := New(sampleFS(), nil, nil)
	lib.Reload(context.Background())

	goPosts := lib.Tagged("Go")
	if len(goPosts) != 2 || goPosts[0].Slug != "hello" {
		t.Errorf("Tagged(go) = %v", goPosts)
	}
	tags := lib.Tags()
	if len(tags) != 2 || tags[0].Tag != "go" || tags[0].Count != 2 {
		t.Errorf("Tags = %+v", tags)
	}
}

func TestDocsSections(t *testing.T) {
	lib := New(sampleFS(), nil, nil)
	lib.Reload(context.Background())

	sections := lib.Sections()
	if len(sections) != 3 {
		t.Fatalf("sections = %d, want 3", len(sections))
	}
	// General holds faq (order 0), so it sorts first.
	wantNames := []string{DefaultSection, "Getting Started", "Reference"}
	for i, name := range wantNames {
		if sections[i].Name != name {
			t.Errorf("section %d = %q, want %q", i, sections[i].Name, name)
		}
	}
	gs := sections[1].Docs
	if gs[0].Slug != "install" || gs[1].Slug != "configure" {
		t.Errorf("getting started order = %s, %s", gs[0].Slug, gs[1].Slug)
	}
	ref := sections[2].Docs
	if ref[0].Title != "Chat API" || ref[1].Title != "Images API" {
		t.Errorf("equal order should sort by title: %s, %s", ref[0].Title, ref[1].Title)
	}

	prev, next := lib.Neighbors("configure")
	if prev == nil || prev.Slug != "install" || next == nil || next.Slug != "chat" {
		t.Errorf("neighbors = %v, %v", prev, next)
	}
	if d, ok := lib.Doc("faq"); !ok || d.URL() != "/docs/faq" {
		t.Errorf("Doc(faq) = %v, %v", d, ok)
	}
}

func TestReloadMergesPublishedDrafts(t *testing.T) {
	published := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	drafts := &fakeDrafts{drafts: []models.Draft{
		{ID: uuid.New(), Title: "From Editor", Slug: "from-editor", Body: "Written online.", Tags: []string{"Editor"}, Status: models.DraftStatusPublished, PublishedAt: &published},
		{ID: uuid.New(), Title: "Shadow", Slug: "hello", Body: "dup", Status: models.DraftStatusPublished, PublishedAt: &published},
	}}
	lib := New(sampleFS(), drafts, nil)
	if err := lib.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	posts := lib.Posts()
	if len(posts) != 4 {
		t.Fatalf("posts = %d, want 4 (duplicate draft skipped)", len(posts))
	}
	if posts[0].Slug != "from-editor" || !posts[0].Draft {
		t.Errorf("newest post = %+v", posts[0])
	}
	if hello, _ := lib.Post("hello"); hello.Draft {
		t.Error("file post should win over a draft with the same slug")
	}
	if len(lib.Tagged("editor")) != 1 {
		t.Error("draft tags should be indexed lowercased")
	}
}

func TestReloadKeepsIndexOnError(t *testing.T) {
	drafts := &fakeDrafts{}
	lib := New(sampleFS(), drafts, nil)
	if err := lib.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	drafts.err = errors.New("db down")
	if err := lib.Reload(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if len(lib.Posts()) != 3 {
		t.Error("previous index should survive a failed reload")
	}
}

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name string
		body string
		n    int
		want string
	}{
		{"skips headings and code", "# Title\n\n```go\ncode\n```\n\nFirst para\ncontinues.\n\nSecond.", 200, "First para continues."},
		{"cuts on word boundary", "alpha beta gamma delta", 12, "alpha beta…"},
		{"empty", "", 10, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Excerpt(tt.body, tt.n); got != tt.want {
				t.Errorf("Excerpt = %q, want %q", got, tt.want)
			}
		})
	}
}
