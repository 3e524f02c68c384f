// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// DraftStatus represents the publishing state of a draft.
type DraftStatus string

const (
	DraftStatusDraft     DraftStatus = "draft"
	DraftStatusPublished DraftStatus = "published"
)

// Draft is a markdown document written in the editor. Published drafts
// are listed on the blog next to the posts loaded from disk.
type Draft struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	Slug        string      `json:"slug"`
	Body        string      `json:"body"`
	Excerpt     *string     `json:"excerpt,omitempty"`
	Tags        []string    `json:"tags"`
	Status      DraftStatus `json:"status"`
	PublishedAt *time.Time  `json:"published_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// IsPublished returns true if the draft is in published status.
func (d *Draft) IsPublished() bool {
	return d.Status == DraftStatusPublished
}
