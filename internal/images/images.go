// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package images turns prompts into stored images. Generate never returns
// an error: every outcome is a Result with a message fit for display.
package images

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"markpress/internal/ai"
	"markpress/internal/imaging"
	"markpress/internal/models"
	"markpress/internal/storage"
)

const (
	// DefaultListLimit is used when List is called without a limit.
	DefaultListLimit = 20
	// MaxListLimit caps List.
	MaxListLimit = 100

	maxPromptLen = 2000
)

// Messages shown to the visitor.
const (
	MsgNotConfigured     = "Image generation is not configured. Set GEMINI_API_KEY on the server to enable it."
	MsgStorageMissing    = "Image storage is not configured."
	MsgRateLimited       = "The image service is busy or your quota is used up. Please wait a minute and try again."
	MsgSafetyBlocked     = "The prompt was blocked by a safety filter. Try describing the image differently."
	MsgGenerationFailed  = "The image could not be generated. Please try again."
	MsgEmptyPrompt       = "Describe the image you want."
	msgPromptTooLong     = "The prompt is too long."
	msgUnsupportedOption = "Unsupported model or aspect ratio."
)

// Models generates images and moderates prompts. *ai.Registry satisfies it.
type Models interface {
	Images() (*ai.ImageClient, error)
	CheckPrompt(ctx context.Context, text string) (*ai.ModerationResult, error)
}

// Blobs stores public files. *storage.Client satisfies it.
type Blobs interface {
	PutPublic(ctx context.Context, key, contentType string, data []byte) (string, error)
	DeletePublic(ctx context.Context, keys ...string) error
}

// Store persists generated image records.
type Store interface {
	Create(ctx context.Context, g *models.GeneratedImage) (*models.GeneratedImage, error)
	ListRecent(ctx context.Context, sessionID string, limit int) ([]models.GeneratedImage, error)
}

// Request is one generation call.
type Request struct {
	SessionID   string
	Prompt      string
	Model       string
	AspectRatio string
}

// Result is the outcome of Generate. Error is set when Success is false.
type Result struct {
	Success      bool                   `json:"success"`
	Image        *models.GeneratedImage `json:"image,omitempty"`
	URL          string                 `json:"url,omitempty"`
	ThumbnailURL string                 `json:"thumbnail_url,omitempty"`
	Error        string                 `json:"error,omitempty"`
}

func failure(msg string) Result {
	return Result{Error: msg}
}

// Generator runs image generation.
type Generator struct {
	models Models
	blobs  Blobs
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// New creates a generator. blobs may be nil when storage is not configured.
func New(m Models, blobs Blobs, store Store, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{models: m, blobs: blobs, store: store, logger: logger, now: time.Now}
}

// Generate validates the request, creates the image, uploads it with an
// optional thumbnail, and records it.
func (g *Generator) Generate(ctx context.Context, req Request) Result {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return failure(MsgEmptyPrompt)
	}
	if utf8.RuneCountInString(prompt) > maxPromptLen {
		return failure(msgPromptTooLong)
	}
	model, err := ai.ParseImageModel(req.Model)
	if err != nil {
		return failure(msgUnsupportedOption)
	}
	ratio, err := ai.ParseAspectRatio(req.AspectRatio)
	if err != nil {
		return failure(msgUnsupportedOption)
	}

	client, err := g.models.Images()
	if err != nil {
		return failure(MsgNotConfigured)
	}
	if g.blobs == nil {
		return failure(MsgStorageMissing)
	}

	mod, err := g.models.CheckPrompt(ctx, prompt)
	switch {
	case err != nil:
		g.logger.Warn("image prompt moderation failed", "error", err)
	case !mod.Safe:
		g.logger.Info("image prompt flagged", "session_id", req.SessionID, "categories", mod.Categories)
		msg := MsgSafetyBlocked
		if len(mod.Categories) > 0 {
			msg += " Flagged: " + strings.Join(mod.Categories, ", ") + "."
		}
		return failure(msg)
	}

	out, err := client.Generate(ctx, ai.ImageRequest{Model: model, Prompt: prompt, AspectRatio: ratio})
	if err != nil {
		return failure(g.friendly(model, err))
	}

	return g.save(ctx, req.SessionID, prompt, model, ratio, out)
}

func (g *Generator) friendly(model ai.ImageModel, err error) string {
	switch {
	case errors.Is(err, ai.ErrRateLimited):
		g.logger.Warn("image generation rate limited", "model", model, "error", err)
		return MsgRateLimited
	case errors.Is(err, ai.ErrSafetyBlocked):
		g.logger.Info("image generation blocked", "model", model, "error", err)
		return MsgSafetyBlocked
	default:
		g.logger.Error("image generation failed", "model", model, "error", err)
		return MsgGenerationFailed
	}
}

func (g *Generator) save(ctx context.Context, sessionID, prompt string, model ai.ImageModel, ratio string, out *ai.ImageResult) Result {
	record := &models.GeneratedImage{
		SessionID:   sessionID,
		Prompt:      prompt,
		Model:       string(model),
		AspectRatio: ratio,
		MimeType:    out.MimeType,
		SizeBytes:   int64(len(out.Data)),
	}
	if info, err := imaging.Inspect(out.Data); err == nil {
		record.Width, record.Height = info.Width, info.Height
	} else {
		g.logger.Warn("inspect generated image", "error", err)
	}

	key := storage.GeneratedKey(g.now().UTC(), storage.ExtForMIME(out.MimeType))
	url, err := g.blobs.PutPublic(ctx, key, out.MimeType, out.Data)
	if err != nil {
		g.logger.Error("upload generated image", "key", key, "error", err)
		return failure(MsgGenerationFailed)
	}
	record.StorageKey = key

	res := Result{Success: true, URL: url}
	if record.Width > imaging.ThumbWidth {
		if thumbURL, thumbKey, ok := g.thumbnail(ctx, key, out.Data); ok {
			record.ThumbnailKey = &thumbKey
			res.ThumbnailURL = thumbURL
		}
	}

	saved, err := g.store.Create(ctx, record)
	if err != nil {
		g.logger.Error("record generated image", "key", key, "error", err)
		orphans := []string{key}
		if record.ThumbnailKey != nil {
			orphans = append(orphans, *record.ThumbnailKey)
		}
		if err := g.blobs.DeletePublic(ctx, orphans...); err != nil {
			g.logger.Warn("remove unrecorded image", "keys", orphans, "error", err)
		}
		return failure(MsgGenerationFailed)
	}
	res.Image = saved
	g.logger.Info("image generated", "session_id", sessionID, "model", model, "key", key, "bytes", record.SizeBytes)
	return res
}

// thumbnail uploads a scaled copy. Failures are logged and skipped.
func (g *Generator) thumbnail(ctx context.Context, key string, data []byte) (url, thumbKey string, ok bool) {
	thumb, err := imaging.MakeThumbnail(data, imaging.ThumbWidth)
	if err != nil || thumb == nil {
		if err != nil {
			g.logger.Warn("make thumbnail", "key", key, "error", err)
		}
		return "", "", false
	}
	thumbKey = storage.ThumbnailKey(key)
	url, err = g.blobs.PutPublic(ctx, thumbKey, imaging.ContentType, thumb.Data)
	if err != nil {
		g.logger.Warn("upload thumbnail", "key", thumbKey, "error", err)
		return "", "", false
	}
	return url, thumbKey, true
}

// List returns a session's most recent images. limit <= 0 selects
// DefaultListLimit; larger values are capped at MaxListLimit.
func (g *Generator) List(ctx context.Context, sessionID string, limit int) ([]models.GeneratedImage, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	items, err := g.store.ListRecent(ctx, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	return items, nil
}
