// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"markpress/internal/images"
	"markpress/internal/models"
)

// Images groups the image generation API.
type Images struct {
	generator *images.Generator
}

// NewImages creates the image handler group.
func NewImages(generator *images.Generator) *Images {
	return &Images{generator: generator}
}

// imageView is a stored image with the site paths that serve it.
type imageView struct {
	models.GeneratedImage
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// Generate creates an image from a prompt. Failures are reported in the
// result body with a human-readable message, never as a server error.
func (h *Images) Generate(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Prompt      string `json:"prompt"`
		Model       string `json:"model"`
		AspectRatio string `json:"aspect_ratio"`
	}
	sessionID, ok := visitorSession(w, r)
	if !ok {
		return
	}
	if err := decodeJSON(r, &in); err != nil {
		writeDecodeError(w, err)
		return
	}

	res := h.generator.Generate(r.Context(), images.Request{
		SessionID:   sessionID,
		Prompt:      in.Prompt,
		Model:       in.Model,
		AspectRatio: in.AspectRatio,
	})
	writeJSON(w, http.StatusOK, res)
}

// List returns the visitor's recent images. ?limit=n is optional.
func (h *Images) List(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := visitorSession(w, r)
	if !ok {
		return
	}
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be a number")
			return
		}
		limit = n
	}

	items, err := h.generator.List(r.Context(), sessionID, limit)
	if err != nil {
		slog.Error("list images failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	out := make([]imageView, 0, len(items))
	for _, it := range items {
		v := imageView{GeneratedImage: it, URL: "/media/" + it.StorageKey}
		if it.ThumbnailKey != nil {
			v.ThumbnailURL = "/media/" + *it.ThumbnailKey
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, out)
}
