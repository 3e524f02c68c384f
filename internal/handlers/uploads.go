// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"time"

	"markpress/internal/imaging"
	"markpress/internal/models"
	"markpress/internal/storage"
)

// maxUploadSize caps a single chat image upload.
const maxUploadSize = 10 << 20

// allowedUploadTypes are the sniffed content types accepted as chat images.
var allowedUploadTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// UploadBlobs writes private objects. *storage.Client satisfies it.
type UploadBlobs interface {
	PutPrivate(ctx context.Context, key, contentType string, data []byte) error
}

// UploadRecords persists uploads and looks them up by key.
// *store.UploadStore satisfies it.
type UploadRecords interface {
	Create(ctx context.Context, u *models.Upload) (*models.Upload, error)
	FindByKey(ctx context.Context, key string) (*models.Upload, error)
}

// Uploads accepts images visitors attach to chat messages.
type Uploads struct {
	blobs   UploadBlobs
	records UploadRecords
	now     func() time.Time
}

// NewUploads creates the upload handler. Either dependency may be nil when
// storage or the database is unavailable; uploads then answer 503.
func NewUploads(blobs UploadBlobs, records UploadRecords) *Uploads {
	return &Uploads{blobs: blobs, records: records, now: time.Now}
}

// uploadView is a stored upload with the site path that serves it.
type uploadView struct {
	*models.Upload
	URL string `json:"url"`
}

// Create stores one multipart "file" field in the private bucket under the
// visitor's upload prefix and records it. The returned storage_id can be
// sent as an image attachment.
func (u *Uploads) Create(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := visitorSession(w, r)
	if !ok {
		return
	}
	if u.blobs == nil || u.records == nil {
		writeError(w, http.StatusServiceUnavailable, "Object storage is not configured.")
		return
	}
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mt != "multipart/form-data" {
		writeError(w, http.StatusUnsupportedMediaType, "request body must be multipart/form-data")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large. Maximum size is 10 MB.")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided.")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read file.")
		return
	}
	if len(data) > maxUploadSize {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large. Maximum size is 10 MB.")
		return
	}

	contentType := http.DetectContentType(data)
	if !allowedUploadTypes[contentType] {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("File type %q is not allowed.", contentType))
		return
	}
	info, err := imaging.Inspect(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "The file is not a readable image.")
		return
	}

	ctx := r.Context()
	key := storage.UploadKey(sessionID, u.now().UTC(), storage.ExtForMIME(contentType))
	if err := u.blobs.PutPrivate(ctx, key, contentType, data); err != nil {
		slog.Error("upload to storage failed", "error", err, "key", key)
		writeError(w, http.StatusInternalServerError, "Failed to upload file.")
		return
	}

	created, err := u.records.Create(ctx, &models.Upload{
		SessionID:    sessionID,
		StorageKey:   key,
		OriginalName: path.Base(header.Filename),
		MimeType:     contentType,
		SizeBytes:    int64(len(data)),
		Width:        info.Width,
		Height:       info.Height,
	})
	if err != nil {
		slog.Error("record upload failed", "error", err, "key", key)
		writeError(w, http.StatusInternalServerError, "Failed to upload file.")
		return
	}
	writeJSON(w, http.StatusCreated, uploadView{Upload: created, URL: "/media/" + key})
}
