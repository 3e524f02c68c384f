package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GeneratedImage is the record of one image produced by the image
// generator. The file itself lives in object storage under StorageKey.
type GeneratedImage struct {
	ID           uuid.UUID `json:"id"`
	SessionID    string    `json:"session_id"`
	Prompt       string    `json:"prompt"`
	Model        string    `json:"model"`
	AspectRatio  string    `json:"aspect_ratio"`
	StorageKey   string    `json:"storage_key"`
	ThumbnailKey *string   `json:"thumbnail_key,omitempty"`
	MimeType     string    `json:"mime_type"`
	SizeBytes    int64     `json:"size_bytes"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	CreatedAt    time.Time `json:"created_at"`
}

// HumanSize returns a human-readable file size string.
func (g *GeneratedImage) HumanSize() string {
	const (
		kb = 1024
		mb = 1024 * kb
	)
	switch {
	case g.SizeBytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(g.SizeBytes)/float64(mb))
	case g.SizeBytes >= kb:
		return fmt.Sprintf("%.0f KB", float64(g.SizeBytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", g.SizeBytes)
	}
}
