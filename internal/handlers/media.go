// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"markpress/internal/middleware"
	"markpress/internal/models"
	"markpress/internal/storage"
)

// URLResolver turns a storage ID into a fetchable URL. *storage.Client
// satisfies it.
type URLResolver interface {
	URL(ctx context.Context, storageID string) (string, error)
}

// UploadFinder looks up a visitor upload by storage key.
// *store.UploadStore satisfies it.
type UploadFinder interface {
	FindByKey(ctx context.Context, key string) (*models.Upload, error)
}

// Media serves stored blobs by redirecting to the blob store.
type Media struct {
	urls    URLResolver
	uploads UploadFinder
}

// NewMedia creates the media handler. urls may be nil when storage is not
// configured; every lookup then answers 404. Without uploads only
// generated images are served.
func NewMedia(urls URLResolver, uploads UploadFinder) *Media {
	return &Media{urls: urls, uploads: uploads}
}

// Serve redirects GET /media/<storage id> to the object. Generated images
// get their public URL. An upload is only served to the session that
// uploaded it, through a time-limited presigned URL. Every other key is
// answered with 404.
func (m *Media) Serve(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if m.urls == nil || key == "" || strings.Contains(key, "..") {
		http.NotFound(w, r)
		return
	}

	switch {
	case storage.IsPublicKey(key):
	case storage.IsUploadKey(key):
		owned, err := m.ownsUpload(r.Context(), key)
		if err != nil {
			slog.Error("media upload lookup failed", "error", err, "key", key)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if !owned {
			http.NotFound(w, r)
			return
		}
	default:
		http.NotFound(w, r)
		return
	}

	target, err := m.urls.URL(r.Context(), key)
	if err != nil {
		slog.Error("resolve media url failed", "error", err, "key", key)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// ownsUpload reports whether the caller's session uploaded key. The key
// must sit under the session's prefix and be backed by a record.
func (m *Media) ownsUpload(ctx context.Context, key string) (bool, error) {
	sessionID := middleware.SessionID(ctx)
	if m.uploads == nil || !storage.UploadedBy(key, sessionID) {
		return false, nil
	}
	u, err := m.uploads.FindByKey(ctx, key)
	if err != nil {
		return false, err
	}
	return u != nil && u.OwnedBy(sessionID), nil
}
