// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Upload is an image a visitor attached to a chat. The file lives in the
// private bucket under StorageKey and is only served back to SessionID.
type Upload struct {
	ID           uuid.UUID `json:"id"`
	SessionID    string    `json:"-"`
	StorageKey   string    `json:"storage_id"`
	OriginalName string    `json:"original_name"`
	MimeType     string    `json:"mime_type"`
	SizeBytes    int64     `json:"size_bytes"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	CreatedAt    time.Time `json:"created_at"`
}

// OwnedBy reports whether sessionID uploaded u.
func (u *Upload) OwnedBy(sessionID string) bool {
	return sessionID != "" && u.SessionID == sessionID
}
