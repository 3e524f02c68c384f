// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"markpress/internal/diffview"
	"markpress/internal/engine"
	"markpress/internal/markdown"
	"markpress/internal/middleware"
	"markpress/internal/models"
	"markpress/internal/render"
	"markpress/internal/slug"
)

// maxSlugAttempts bounds the numeric suffixes tried for a free slug.
const maxSlugAttempts = 50

// DraftStore persists editor drafts. *store.DraftStore satisfies it.
type DraftStore interface {
	List(ctx context.Context) ([]models.Draft, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Draft, error)
	SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)
	Create(ctx context.Context, d *models.Draft) (*models.Draft, error)
	Update(ctx context.Context, d *models.Draft) error
	Publish(ctx context.Context, id uuid.UUID) (*models.Draft, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Refresher reloads published content after the editor changes it.
// *Public satisfies it.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Editor groups the writing surface handlers: the bare editor page, live
// preview, and draft CRUD with publishing.
type Editor struct {
	renderer *render.Renderer
	engine   *engine.Engine
	drafts   DraftStore
	content  Refresher
}

// NewEditor creates the editor handler group.
func NewEditor(renderer *render.Renderer, eng *engine.Engine, drafts DraftStore, content Refresher) *Editor {
	return &Editor{renderer: renderer, engine: eng, drafts: drafts, content: content}
}

// draftInput is the JSON body of create and update calls.
type draftInput struct {
	Title   string   `json:"title"`
	Slug    string   `json:"slug"`
	Body    string   `json:"body"`
	Excerpt string   `json:"excerpt"`
	Tags    []string `json:"tags"`
}

// Page renders the editor without layout chrome. ?draft=<id> opens a draft.
func (e *Editor) Page(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	drafts, err := e.drafts.List(ctx)
	if err != nil {
		slog.Error("list drafts failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := map[string]any{"Drafts": drafts}
	if id, err := uuid.Parse(r.URL.Query().Get("draft")); err == nil {
		d, err := e.drafts.FindByID(ctx, id)
		if err != nil {
			slog.Error("find draft failed", "error", err, "id", id)
		}
		if d != nil {
			data["Draft"] = d
		}
	}

	e.renderer.Page(w, r, "editor", &render.PageData{Title: "Editor", Data: data})
}

// Preview renders markdown for the live preview pane with the visitor's
// theme. Nothing is stored.
func (e *Editor) Preview(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Body     string `json:"body"`
		DiffView string `json:"diff_view"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeDecodeError(w, err)
		return
	}
	if len(in.Body) > maxBodyLen*4 {
		writeError(w, http.StatusBadRequest, "Body is too long.")
		return
	}

	html, err := e.engine.Preview(in.Body, markdown.Options{
		Theme:    middleware.ThemeFromCtx(r.Context()),
		DiffView: diffview.ParseView(in.DiffView),
	})
	if err != nil {
		slog.Warn("preview render failed", "error", err)
		writeError(w, http.StatusUnprocessableEntity, "The markdown could not be rendered.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"html": string(html)})
}

// Create stores a new draft.
func (e *Editor) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in draftInput
	if err := decodeJSON(r, &in); err != nil {
		writeDecodeError(w, err)
		return
	}
	if msg := validateInput(&in); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	s, err := e.freeSlug(ctx, in.Slug, in.Title, uuid.Nil)
	if err != nil {
		slog.Error("pick draft slug failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	d := &models.Draft{
		Title: strings.TrimSpace(in.Title),
		Slug:  s,
		Body:  in.Body,
		Tags:  in.Tags,
	}
	if ex := strings.TrimSpace(in.Excerpt); ex != "" {
		d.Excerpt = &ex
	}

	created, err := e.drafts.Create(ctx, d)
	if err != nil {
		slog.Error("create draft failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Update edits a draft. Editing a published draft refreshes the site.
func (e *Editor) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	existing, ok := e.findDraft(w, r)
	if !ok {
		return
	}

	var in draftInput
	if err := decodeJSON(r, &in); err != nil {
		writeDecodeError(w, err)
		return
	}
	if msg := validateInput(&in); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	s, err := e.freeSlug(ctx, in.Slug, in.Title, existing.ID)
	if err != nil {
		slog.Error("pick draft slug failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	existing.Title = strings.TrimSpace(in.Title)
	existing.Slug = s
	existing.Body = in.Body
	existing.Tags = in.Tags
	existing.Excerpt = nil
	if ex := strings.TrimSpace(in.Excerpt); ex != "" {
		existing.Excerpt = &ex
	}

	if err := e.drafts.Update(ctx, existing); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "draft not found")
			return
		}
		slog.Error("update draft failed", "error", err, "id", existing.ID)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if existing.IsPublished() {
		e.refresh(ctx, "update", existing.ID)
	}
	writeJSON(w, http.StatusOK, existing)
}

// Publish marks a draft as published and reloads the site content so the
// post shows up in the blog.
func (e *Editor) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid draft id")
		return
	}

	d, err := e.drafts.Publish(ctx, id)
	if err != nil {
		slog.Error("publish draft failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if d == nil {
		writeError(w, http.StatusNotFound, "draft not found")
		return
	}

	e.refresh(ctx, "publish", d.ID)
	writeJSON(w, http.StatusOK, map[string]any{"draft": d, "url": "/blog/" + d.Slug})
}

// Delete removes a draft. Deleting a published draft refreshes the site.
func (e *Editor) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	existing, ok := e.findDraft(w, r)
	if !ok {
		return
	}
	if err := e.drafts.Delete(ctx, existing.ID); err != nil {
		slog.Error("delete draft failed", "error", err, "id", existing.ID)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if existing.IsPublished() {
		e.refresh(ctx, "delete", existing.ID)
	}
	w.WriteHeader(http.StatusNoContent)
}

// findDraft loads the draft named by the {id} URL parameter, writing the
// error response itself when it cannot.
func (e *Editor) findDraft(w http.ResponseWriter, r *http.Request) (*models.Draft, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid draft id")
		return nil, false
	}
	d, err := e.drafts.FindByID(r.Context(), id)
	if err != nil {
		slog.Error("find draft failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return nil, false
	}
	if d == nil {
		writeError(w, http.StatusNotFound, "draft not found")
		return nil, false
	}
	return d, true
}

// freeSlug derives a slug from the requested one (or the title) and
// appends -2, -3, ... until no other draft uses it.
func (e *Editor) freeSlug(ctx context.Context, requested, title string, self uuid.UUID) (string, error) {
	base := slug.Generate(requested)
	if base == "" {
		base = slug.Generate(title)
	}
	if base == "" {
		base = "untitled"
	}

	candidate := base
	for i := 2; i <= maxSlugAttempts+1; i++ {
		taken, err := e.drafts.SlugExists(ctx, candidate, self)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", fmt.Errorf("no free slug for %q", base)
}

// refresh reloads published content. Failures are logged; the draft
// change itself already succeeded.
func (e *Editor) refresh(ctx context.Context, action string, id uuid.UUID) {
	if e.content == nil {
		return
	}
	if err := e.content.Refresh(ctx); err != nil {
		slog.Error("content refresh failed", "error", err, "action", action, "draft", id)
		return
	}
	slog.Info("content refreshed", "action", action, "draft", id)
}

// validateInput checks a draft body and normalizes its tags in place.
func validateInput(in *draftInput) string {
	in.Tags = cleanTags(in.Tags)
	if msg := validateDraft(in.Title, in.Slug, in.Body); msg != "" {
		return msg
	}
	return validateMetadata(in.Excerpt, in.Tags)
}
