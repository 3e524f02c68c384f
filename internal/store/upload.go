// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"markpress/internal/models"
)

// UploadStore records visitor uploads kept in the private bucket.
type UploadStore struct {
	db *sql.DB
}

// NewUploadStore creates a new UploadStore with the given database connection.
func NewUploadStore(db *sql.DB) *UploadStore {
	return &UploadStore{db: db}
}

const uploadColumns = `id, session_id, storage_key, original_name, mime_type,
	size_bytes, width, height, created_at`

func scanUpload(scanner interface{ Scan(...any) error }) (*models.Upload, error) {
	var u models.Upload
	err := scanner.Scan(
		&u.ID, &u.SessionID, &u.StorageKey, &u.OriginalName, &u.MimeType,
		&u.SizeBytes, &u.Width, &u.Height, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts an upload record and returns it with its ID.
func (s *UploadStore) Create(ctx context.Context, u *models.Upload) (*models.Upload, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO uploads (session_id, storage_key, original_name, mime_type, size_bytes, width, height)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+uploadColumns,
		u.SessionID, u.StorageKey, u.OriginalName, u.MimeType, u.SizeBytes, u.Width, u.Height,
	)
	created, err := scanUpload(row)
	if err != nil {
		return nil, fmt.Errorf("create upload: %w", err)
	}
	return created, nil
}

// FindByKey returns the upload stored under key, or nil, nil when there is
// none.
func (s *UploadStore) FindByKey(ctx context.Context, key string) (*models.Upload, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+uploadColumns+` FROM uploads WHERE storage_key = $1`, key)
	u, err := scanUpload(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find upload by key: %w", err)
	}
	return u, nil
}
