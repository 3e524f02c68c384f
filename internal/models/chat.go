// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role identifies who wrote a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Chat is one conversation with the assistant. PageContext holds the
// document the visitor was reading when the chat was opened.
type Chat struct {
	ID          uuid.UUID `json:"id"`
	SessionID   string    `json:"session_id"`
	Title       string    `json:"title"`
	PageContext *string   `json:"page_context,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ChatMessage is a single turn. Messages are never edited once written;
// Sequence orders them within a chat.
type ChatMessage struct {
	ID          uuid.UUID   `json:"id"`
	ChatID      uuid.UUID   `json:"chat_id"`
	Sequence    int         `json:"sequence"`
	Role        Role        `json:"role"`
	Content     string      `json:"content"`
	Model       string      `json:"model,omitempty"`
	Attachments Attachments `json:"attachments,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// AttachmentType discriminates Attachment variants.
type AttachmentType string

const (
	AttachmentImage AttachmentType = "image"
	AttachmentLink  AttachmentType = "link"
)

// Attachment is either an uploaded image (StorageID) or a link whose page
// text may have been scraped.
type Attachment struct {
	Type AttachmentType `json:"type"`

	// image
	StorageID string `json:"storage_id,omitempty"`
	MimeType  string `json:"mime_type,omitempty"`

	// link
	URL         string `json:"url,omitempty"`
	Title       string `json:"title,omitempty"`
	ScrapedText string `json:"scraped_text,omitempty"`
	Scraped     bool   `json:"scraped,omitempty"`
}

// Validate checks that the fields required by the variant are present.
func (a Attachment) Validate() error {
	switch a.Type {
	case AttachmentImage:
		if a.StorageID == "" {
			return fmt.Errorf("image attachment requires storage_id")
		}
	case AttachmentLink:
		if a.URL == "" {
			return fmt.Errorf("link attachment requires url")
		}
	default:
		return fmt.Errorf("unknown attachment type %q", a.Type)
	}
	return nil
}

// Attachments is stored as a JSONB array.
type Attachments []Attachment

// Value implements driver.Valuer.
func (a Attachments) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal attachments: %w", err)
	}
	return b, nil
}

// Scan implements sql.Scanner.
func (a *Attachments) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*a = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan attachments: unsupported type %T", src)
	}
	var out Attachments
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("scan attachments: %w", err)
	}
	if len(out) == 0 {
		out = nil
	}
	*a = out
	return nil
}
