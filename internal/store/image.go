// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"markpress/internal/models"
)

// ImageStore records generated images. Records are append-only.
type ImageStore struct {
	db *sql.DB
}

// NewImageStore creates a new ImageStore with the given database connection.
func NewImageStore(db *sql.DB) *ImageStore {
	return &ImageStore{db: db}
}

// imageColumns lists the columns selected in generated image queries.
const imageColumns = `id, session_id, prompt, model, aspect_ratio, storage_key,
	thumbnail_key, mime_type, size_bytes, width, height, created_at`

func scanImage(scanner interface{ Scan(...any) error }) (*models.GeneratedImage, error) {
	var g models.GeneratedImage
	err := scanner.Scan(
		&g.ID, &g.SessionID, &g.Prompt, &g.Model, &g.AspectRatio, &g.StorageKey,
		&g.ThumbnailKey, &g.MimeType, &g.SizeBytes, &g.Width, &g.Height, &g.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Create inserts a generated image record and returns it with its ID.
func (s *ImageStore) Create(ctx context.Context, g *models.GeneratedImage) (*models.GeneratedImage, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO generated_images (session_id, prompt, model, aspect_ratio, storage_key,
			thumbnail_key, mime_type, size_bytes, width, height)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+imageColumns,
		g.SessionID, g.Prompt, g.Model, g.AspectRatio, g.StorageKey,
		g.ThumbnailKey, g.MimeType, g.SizeBytes, g.Width, g.Height,
	)
	created, err := scanImage(row)
	if err != nil {
		return nil, fmt.Errorf("create generated image: %w", err)
	}
	return created, nil
}

// ListRecent returns a session's images, newest first.
func (s *ImageStore) ListRecent(ctx context.Context, sessionID string, limit int) ([]models.GeneratedImage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+imageColumns+`
		FROM generated_images
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list generated images: %w", err)
	}
	defer rows.Close()

	var items []models.GeneratedImage
	for rows.Next() {
		g, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan generated image: %w", err)
		}
		items = append(items, *g)
	}
	return items, rows.Err()
}
