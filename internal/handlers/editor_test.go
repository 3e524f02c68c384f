package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"markpress/internal/models"
	"markpress/internal/store"
	"markpress/internal/theme"
)

// memDrafts is an in-memory DraftStore.
type memDrafts struct {
	mu     sync.Mutex
	drafts map[uuid.UUID]*models.Draft
}

func newMemDrafts() *memDrafts {
	return &memDrafts{drafts: make(map[uuid.UUID]*models.Draft)}
}

func (m *memDrafts) List(ctx context.Context) ([]models.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Draft
	for _, d := range m.drafts {
		out = append(out, *d)
	}
	return out, nil
}

func (m *memDrafts) ListPublished(ctx context.Context) ([]models.Draft, error) {
	all, _ := m.List(ctx)
	var out []models.Draft
	for _, d := range all {
		if d.IsPublished() {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memDrafts) FindByID(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (m *memDrafts) SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, d := range m.drafts {
		if d.Slug == slug && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memDrafts) Create(ctx context.Context, d *models.Draft) (*models.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	cp.ID = uuid.New()
	if cp.Status == "" {
		cp.Status = models.DraftStatusDraft
	}
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.drafts[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memDrafts) Update(ctx context.Context, d *models.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drafts[d.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *d
	m.drafts[d.ID] = &cp
	return nil
}

func (m *memDrafts) Publish(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[id]
	if !ok {
		return nil, nil
	}
	d.Status = models.DraftStatusPublished
	if d.PublishedAt == nil {
		now := time.Now()
		d.PublishedAt = &now
	}
	cp := *d
	return &cp, nil
}

func (m *memDrafts) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, id)
	return nil
}

// countingRefresher records Refresh calls.
type countingRefresher struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingRefresher) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.err
}

func newTestEditor(t *testing.T) (*Editor, *memDrafts, *countingRefresher) {
	t.Helper()
	env := newTestEnv(t)
	drafts := newMemDrafts()
	ref := &countingRefresher{}
	return NewEditor(env.Renderer, env.Engine, drafts, ref), drafts, ref
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func createDraft(t *testing.T, ed *Editor, body string) models.Draft {
	t.Helper()
	rec := httptest.NewRecorder()
	ed.Create(rec, jsonRequest(http.MethodPost, "/editor/drafts", body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d: %s", rec.Code, rec.Body.String())
	}
	var d models.Draft
	if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
		t.Fatalf("decode draft: %v", err)
	}
	return d
}

func TestEditorCreateDerivesUniqueSlug(t *testing.T) {
	ed, _, _ := newTestEditor(t)

	first := createDraft(t, ed, `{"title":"Hello, World!","body":"x","tags":[" Go ","go",""]}`)
	if first.Slug != "hello-world" {
		t.Errorf("slug = %q, want hello-world", first.Slug)
	}
	if len(first.Tags) != 1 || first.Tags[0] != "go" {
		t.Errorf("tags = %v, want [go]", first.Tags)
	}

	second := createDraft(t, ed, `{"title":"Hello World","body":"y"}`)
	if second.Slug != "hello-world-2" {
		t.Errorf("second slug = %q, want hello-world-2", second.Slug)
	}
}

func TestEditorCreateValidation(t *testing.T) {
	ed, _, _ := newTestEditor(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing title", `{"body":"x"}`},
		{"bad json", `{"title":`},
		{"unknown field", `{"title":"a","status":"published"}`},
		{"excerpt too long", `{"title":"a","excerpt":"` + strings.Repeat("e", 1001) + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			ed.Create(rec, jsonRequest(http.MethodPost, "/editor/drafts", tt.body))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("got %d, want 400", rec.Code)
			}
		})
	}
}

func TestEditorPublishRefreshesContent(t *testing.T) {
	ed, _, ref := newTestEditor(t)
	d := createDraft(t, ed, `{"title":"Launch","body":"We shipped."}`)

	req := withChiURLParam(jsonRequest(http.MethodPost, "/editor/drafts/"+d.ID.String()+"/publish", ""), "id", d.ID.String())
	rec := httptest.NewRecorder()
	ed.Publish(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("publish: got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"url":"/blog/launch"`) {
		t.Errorf("publish response: %s", rec.Body.String())
	}
	if ref.calls != 1 {
		t.Errorf("refresh calls = %d, want 1", ref.calls)
	}
}

func TestEditorPublishUnknownDraft(t *testing.T) {
	ed, _, ref := newTestEditor(t)
	id := uuid.New().String()

	rec := httptest.NewRecorder()
	ed.Publish(rec, withChiURLParam(httptest.NewRequest(http.MethodPost, "/", nil), "id", id))
	if rec.Code != http.StatusNotFound {
		t.Errorf("got %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	ed.Publish(rec, withChiURLParam(httptest.NewRequest(http.MethodPost, "/", nil), "id", "not-a-uuid"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: got %d, want 400", rec.Code)
	}
	if ref.calls != 0 {
		t.Error("failed publishes must not refresh content")
	}
}

func TestEditorUpdateAndDelete(t *testing.T) {
	ed, drafts, ref := newTestEditor(t)
	d := createDraft(t, ed, `{"title":"Draft","body":"v1"}`)
	id := d.ID.String()

	req := withChiURLParam(jsonRequest(http.MethodPut, "/editor/drafts/"+id, `{"title":"Draft","slug":"draft","body":"v2","excerpt":"short"}`), "id", id)
	rec := httptest.NewRecorder()
	ed.Update(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: got %d: %s", rec.Code, rec.Body.String())
	}
	stored, _ := drafts.FindByID(context.Background(), d.ID)
	if stored.Body != "v2" || stored.Excerpt == nil || *stored.Excerpt != "short" {
		t.Errorf("stored draft = %+v", stored)
	}
	if ref.calls != 0 {
		t.Error("updating an unpublished draft must not refresh content")
	}

	rec = httptest.NewRecorder()
	ed.Delete(rec, withChiURLParam(httptest.NewRequest(http.MethodDelete, "/editor/drafts/"+id, nil), "id", id))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: got %d", rec.Code)
	}
	if got, _ := drafts.FindByID(context.Background(), d.ID); got != nil {
		t.Error("draft should be gone")
	}

	rec = httptest.NewRecorder()
	ed.Delete(rec, withChiURLParam(httptest.NewRequest(http.MethodDelete, "/editor/drafts/"+id, nil), "id", id))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: got %d, want 404", rec.Code)
	}
}

func TestEditorRefreshFailureIsNotFatal(t *testing.T) {
	ed, _, ref := newTestEditor(t)
	ref.err = errors.New("reload failed")
	d := createDraft(t, ed, `{"title":"Post","body":"x"}`)

	rec := httptest.NewRecorder()
	ed.Publish(rec, withChiURLParam(httptest.NewRequest(http.MethodPost, "/", nil), "id", d.ID.String()))
	if rec.Code != http.StatusOK {
		t.Errorf("publish should succeed even when the refresh fails, got %d", rec.Code)
	}
}

func TestEditorPreview(t *testing.T) {
	ed, _, _ := newTestEditor(t)

	req := withTheme(jsonRequest(http.MethodPost, "/editor/preview", "{\"body\":\"# Title\\n\\n`inline`\"}"), theme.Dark)
	rec := httptest.NewRecorder()
	ed.Preview(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("preview: got %d: %s", rec.Code, rec.Body.String())
	}
	var got map[string]string
	json.Unmarshal(rec.Body.Bytes(), &got)
	if !strings.Contains(got["html"], "<code>inline</code>") {
		t.Errorf("preview html = %q", got["html"])
	}
}

func TestEditorPageRendersDrafts(t *testing.T) {
	ed, _, _ := newTestEditor(t)
	d := createDraft(t, ed, `{"title":"Work in progress","body":"x"}`)

	req := withTheme(httptest.NewRequest(http.MethodGet, "/editor?draft="+d.ID.String(), nil), theme.Light)
	rec := httptest.NewRecorder()
	ed.Page(rec, req)

	body := rec.Body.String()
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if !strings.Contains(body, "Work in progress") {
		t.Error("editor should list the draft")
	}
	if strings.Contains(body, `class="site-header"`) {
		t.Error("editor renders without the layout chrome")
	}
}

// TestEditorPublishWithDatabase runs the publish flow against PostgreSQL
// and checks the post appears in a library backed by the same store.
func TestEditorPublishWithDatabase(t *testing.T) {
	db := testDB(t)
	drafts := store.NewDraftStore(db)
	t.Cleanup(func() { db.Exec("DELETE FROM drafts WHERE slug = $1", "handler-publish-test") })

	env := newTestEnv(t)
	ed := NewEditor(env.Renderer, env.Engine, drafts, env.Public)

	d := createDraft(t, ed, `{"title":"Handler publish test","slug":"handler-publish-test","body":"from the db"}`)

	rec := httptest.NewRecorder()
	ed.Publish(rec, withChiURLParam(httptest.NewRequest(http.MethodPost, "/", nil), "id", d.ID.String()))
	if rec.Code != http.StatusOK {
		t.Fatalf("publish: got %d: %s", rec.Code, rec.Body.String())
	}

	published, err := drafts.ListPublished(context.Background())
	if err != nil {
		t.Fatalf("ListPublished: %v", err)
	}
	found := false
	for _, p := range published {
		if p.Slug == "handler-publish-test" {
			found = true
		}
	}
	if !found {
		t.Error("published draft should be listed")
	}
}
