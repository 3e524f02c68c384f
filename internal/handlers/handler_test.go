// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// Site and editor tests run against in-memory content; chat tests that
// need PostgreSQL are skipped when it is unavailable.
package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"testing/fstest"

	"github.com/go-chi/chi/v5"

	"markpress/internal/content"
	"markpress/internal/database"
	"markpress/internal/engine"
	"markpress/internal/middleware"
	"markpress/internal/render"
	"markpress/internal/session"
	"markpress/internal/theme"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB connects to the test PostgreSQL and migrates it.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("MARKPRESS_TEST_DSN")
	if dsn == "" {
		dsn = "postgres://" + envOr("POSTGRES_USER", "markpress") + ":" + envOr("POSTGRES_PASSWORD", "changeme") +
			"@" + envOr("POSTGRES_HOST", "localhost") + ":" + envOr("POSTGRES_PORT", "5432") +
			"/" + envOr("POSTGRES_DB", "markpress") + "?sslmode=disable"
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, dsn)
	if err != nil {
		t.Skipf("skipping: DB not reachable: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// testContent is a small site: two posts and three docs in two sections.
var testContent = fstest.MapFS{
	"posts/hello.md": {Data: []byte("---\ntitle: Hello World\ndate: 2026-03-01\ntags: [go, web]\n---\nFirst *post*.\n")},
	"posts/diffs.md": {Data: []byte("---\ntitle: Reading Diffs\ndate: 2026-02-01\ntags: [go]\n---\n```diff\n-old\n+new\n```\n")},
	"docs/install.md": {Data: []byte("---\ntitle: Install\nsection: Getting Started\norder: 1\n---\nRun the binary.\n")},
	"docs/config.md":  {Data: []byte("---\ntitle: Configure\nsection: Getting Started\norder: 2\n---\nEdit markpress.yml.\n")},
	"docs/api.md":     {Data: []byte("---\ntitle: API\nsection: Reference\norder: 1\n---\nJSON endpoints.\n")},
}

// testEnv holds the dependencies of the site handlers.
type testEnv struct {
	Renderer *render.Renderer
	Library  *content.Library
	Engine   *engine.Engine
	Public   *Public
}

// newTestEnv builds the site handlers over testContent without a page
// cache or database.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	renderer, err := render.New("Test Site")
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	lib := content.New(testContent, nil, nil)
	if err := lib.Reload(context.Background()); err != nil {
		t.Fatalf("library reload: %v", err)
	}

	eng := engine.New(nil)
	public, err := NewPublic(renderer, lib, eng, nil, session.NewStore(nil, false), false)
	if err != nil {
		t.Fatalf("NewPublic: %v", err)
	}

	return &testEnv{Renderer: renderer, Library: lib, Engine: eng, Public: public}
}

// withTheme runs r through the theme middleware and returns the request
// the handler would see.
func withTheme(r *http.Request, def theme.Theme) *http.Request {
	var out *http.Request
	middleware.ResolveTheme(def)(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		out = req
	})).ServeHTTP(httptest.NewRecorder(), r)
	return out
}

// withSession attaches a visitor session to the request context.
func withSession(r *http.Request, id string) *http.Request {
	return r.WithContext(session.WithData(r.Context(), &session.Data{ID: id}))
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
