// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"markpress/internal/models"
)

// ChatStore handles chats and their messages.
type ChatStore struct {
	db *sql.DB
}

// NewChatStore creates a new ChatStore with the given database connection.
func NewChatStore(db *sql.DB) *ChatStore {
	return &ChatStore{db: db}
}

const chatColumns = `id, session_id, title, page_context, created_at, updated_at`

const messageColumns = `id, chat_id, sequence, role, content, model, attachments, created_at`

func scanChat(scanner interface{ Scan(...any) error }) (*models.Chat, error) {
	var c models.Chat
	if err := scanner.Scan(&c.ID, &c.SessionID, &c.Title, &c.PageContext, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanMessage(scanner interface{ Scan(...any) error }) (*models.ChatMessage, error) {
	var m models.ChatMessage
	if err := scanner.Scan(
		&m.ID, &m.ChatID, &m.Sequence, &m.Role, &m.Content, &m.Model, &m.Attachments, &m.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a new chat and returns it with the generated ID.
func (s *ChatStore) Create(ctx context.Context, c *models.Chat) (*models.Chat, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO chats (session_id, title, page_context)
		VALUES ($1, $2, $3)
		RETURNING `+chatColumns,
		c.SessionID, c.Title, c.PageContext,
	)
	created, err := scanChat(row)
	if err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}
	return created, nil
}

// FindByID retrieves a chat by its UUID. Returns nil if not found.
func (s *ChatStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Chat, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+chatColumns+` FROM chats WHERE id = $1`, id)
	c, err := scanChat(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find chat by id: %w", err)
	}
	return c, nil
}

// ListBySession returns a visitor's chats, most recently active first.
func (s *ChatStore) ListBySession(ctx context.Context, sessionID string, limit int) ([]models.Chat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+chatColumns+`
		FROM chats
		WHERE session_id = $1
		ORDER BY updated_at DESC
		LIMIT $2
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	var chats []models.Chat
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		chats = append(chats, *c)
	}
	return chats, rows.Err()
}

// SetTitle replaces the chat title.
func (s *ChatStore) SetTitle(ctx context.Context, id uuid.UUID, title string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE chats SET title = $1, updated_at = NOW() WHERE id = $2`, title, id); err != nil {
		return fmt.Errorf("set chat title: %w", err)
	}
	return nil
}

// AppendMessage stores m as the next message of its chat. The sequence
// number is computed inside the INSERT; two racing appends to one chat
// fail on the (chat_id, sequence) unique constraint instead of sharing it.
func (s *ChatStore) AppendMessage(ctx context.Context, m *models.ChatMessage) (*models.ChatMessage, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("append message begin: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		INSERT INTO chat_messages (chat_id, sequence, role, content, model, attachments)
		SELECT $1, COALESCE(MAX(sequence), 0) + 1, $2, $3, $4, $5
		FROM chat_messages WHERE chat_id = $1
		RETURNING `+messageColumns,
		m.ChatID, m.Role, m.Content, m.Model, m.Attachments,
	)
	saved, err := scanMessage(row)
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE chats SET updated_at = NOW() WHERE id = $1`, m.ChatID); err != nil {
		return nil, fmt.Errorf("append message touch chat: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("append message commit: %w", err)
	}
	return saved, nil
}

// Messages returns every message of a chat in sequence order.
func (s *ChatStore) Messages(ctx context.Context, chatID uuid.UUID) ([]models.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+messageColumns+`
		FROM chat_messages
		WHERE chat_id = $1
		ORDER BY sequence
	`, chatID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()
	return collectMessages(rows)
}

// RecentMessages returns up to limit messages with a sequence below
// beforeSeq, oldest first.
func (s *ChatStore) RecentMessages(ctx context.Context, chatID uuid.UUID, beforeSeq, limit int) ([]models.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+messageColumns+` FROM (
			SELECT `+messageColumns+`
			FROM chat_messages
			WHERE chat_id = $1 AND sequence < $2
			ORDER BY sequence DESC
			LIMIT $3
		) recent
		ORDER BY sequence
	`, chatID, beforeSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}
	defer rows.Close()
	return collectMessages(rows)
}

func collectMessages(rows *sql.Rows) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, *m)
	}
	return msgs, rows.Err()
}
