// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import "strings"

// Role of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockType discriminates Block variants.
type BlockType string

const (
	BlockText     BlockType = "text"
	BlockImageURL BlockType = "image_url"
)

// Block is one ordered piece of a message.
type Block struct {
	Type BlockType
	Text string
	URL  string
}

// Message is the vendor-neutral form of a turn. Text is used when Blocks
// is empty.
type Message struct {
	Role   Role
	Text   string
	Blocks []Block
}

// TextMessage builds a plain text turn.
func TextMessage(role Role, text string) Message {
	return Message{Role: role, Text: text}
}

// ContentBlocks returns the message as blocks, wrapping Text when there
// are none.
func (m Message) ContentBlocks() []Block {
	if len(m.Blocks) > 0 {
		return m.Blocks
	}
	if m.Text == "" {
		return nil
	}
	return []Block{{Type: BlockText, Text: m.Text}}
}

// PlainText joins the text blocks, skipping images.
func (m Message) PlainText() string {
	var parts []string
	for _, b := range m.ContentBlocks() {
		if b.Type == BlockText && b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// HasImages reports whether any block is an image.
func (m Message) HasImages() bool {
	for _, b := range m.Blocks {
		if b.Type == BlockImageURL {
			return true
		}
	}
	return false
}
