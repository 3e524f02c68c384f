// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"markpress/internal/models"
)

// DraftStore handles editor drafts.
type DraftStore struct {
	db   *sql.DB
	tmap *pgtype.Map
}

// NewDraftStore creates a new DraftStore with the given database connection.
func NewDraftStore(db *sql.DB) *DraftStore {
	return &DraftStore{db: db, tmap: pgtype.NewMap()}
}

const draftColumns = `id, title, slug, body, excerpt, tags, status, published_at, created_at, updated_at`

func (s *DraftStore) scan(scanner interface{ Scan(...any) error }) (*models.Draft, error) {
	var d models.Draft
	err := scanner.Scan(
		&d.ID, &d.Title, &d.Slug, &d.Body, &d.Excerpt, s.tmap.SQLScanner(&d.Tags),
		&d.Status, &d.PublishedAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *DraftStore) list(ctx context.Context, query string, args ...any) ([]models.Draft, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.Draft
	for rows.Next() {
		d, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan draft: %w", err)
		}
		items = append(items, *d)
	}
	return items, rows.Err()
}

// List returns all drafts, most recently edited first.
func (s *DraftStore) List(ctx context.Context) ([]models.Draft, error) {
	items, err := s.list(ctx, `SELECT `+draftColumns+` FROM drafts ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	return items, nil
}

// ListPublished returns published drafts, newest publication first.
func (s *DraftStore) ListPublished(ctx context.Context) ([]models.Draft, error) {
	items, err := s.list(ctx, `
		SELECT `+draftColumns+`
		FROM drafts
		WHERE status = 'published'
		ORDER BY published_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list published drafts: %w", err)
	}
	return items, nil
}

// FindByID retrieves a draft by its UUID. Returns nil if not found.
func (s *DraftStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	d, err := s.scan(s.db.QueryRowContext(ctx, `SELECT `+draftColumns+` FROM drafts WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find draft by id: %w", err)
	}
	return d, nil
}

// SlugExists reports whether another draft already uses slug.
func (s *DraftStore) SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM drafts WHERE slug = $1 AND id <> $2)`, slug, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check draft slug: %w", err)
	}
	return exists, nil
}

// Create inserts a new draft and returns it with the generated ID.
func (s *DraftStore) Create(ctx context.Context, d *models.Draft) (*models.Draft, error) {
	if d.Status == "" {
		d.Status = models.DraftStatusDraft
	}
	if d.Status == models.DraftStatusPublished && d.PublishedAt == nil {
		now := time.Now()
		d.PublishedAt = &now
	}
	created, err := s.scan(s.db.QueryRowContext(ctx, `
		INSERT INTO drafts (title, slug, body, excerpt, tags, status, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+draftColumns,
		d.Title, d.Slug, d.Body, d.Excerpt, tagsOrEmpty(d.Tags), d.Status, d.PublishedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("create draft: %w", err)
	}
	return created, nil
}

// Update modifies an existing draft's editable fields.
func (s *DraftStore) Update(ctx context.Context, d *models.Draft) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE drafts SET
			title = $1, slug = $2, body = $3, excerpt = $4, tags = $5,
			updated_at = NOW()
		WHERE id = $6
	`, d.Title, d.Slug, d.Body, d.Excerpt, tagsOrEmpty(d.Tags), d.ID)
	if err != nil {
		return fmt.Errorf("update draft: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update draft: %w", sql.ErrNoRows)
	}
	return nil
}

// Publish marks a draft as published. Publishing twice keeps the first
// publication time.
func (s *DraftStore) Publish(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	d, err := s.scan(s.db.QueryRowContext(ctx, `
		UPDATE drafts SET
			status = 'published',
			published_at = COALESCE(published_at, NOW()),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+draftColumns, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("publish draft: %w", err)
	}
	return d, nil
}

// Delete removes a draft by ID.
func (s *DraftStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
