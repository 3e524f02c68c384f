// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package chat runs one assistant turn: it persists the visitor's message,
// enriches link attachments, assembles recent history for the selected
// vendor, and stores the reply. Vendor failures become visible assistant
// messages; only storage failures and bad input are returned as errors.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"markpress/internal/ai"
	"markpress/internal/models"
	"markpress/internal/scrape"
	"markpress/internal/storage"
)

const (
	// HistoryLimit is the number of earlier messages sent with a new turn.
	HistoryLimit = 20

	// scrapeConcurrency bounds the link fan-out within one turn.
	scrapeConcurrency = 4

	// listLimit caps ListChats.
	listLimit = 50

	// MaxPageContextLen is the number of characters of page context kept
	// with a chat.
	MaxPageContextLen = 20_000

	maxContentLen  = 32_000
	maxAttachments = 8
)

var (
	// ErrChatNotFound is returned when the chat does not exist or belongs
	// to another session.
	ErrChatNotFound = errors.New("chat: not found")

	// ErrNoSession is returned when the caller has no visitor session.
	// Chats are only reachable through the session that created them.
	ErrNoSession = errors.New("chat: no visitor session")

	// ErrInvalidRequest wraps validation failures of a new turn.
	ErrInvalidRequest = errors.New("chat: invalid request")
)

// Store persists chats and their messages.
type Store interface {
	Create(ctx context.Context, c *models.Chat) (*models.Chat, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Chat, error)
	ListBySession(ctx context.Context, sessionID string, limit int) ([]models.Chat, error)
	SetTitle(ctx context.Context, id uuid.UUID, title string) error
	AppendMessage(ctx context.Context, m *models.ChatMessage) (*models.ChatMessage, error)
	Messages(ctx context.Context, chatID uuid.UUID) ([]models.ChatMessage, error)
	RecentMessages(ctx context.Context, chatID uuid.UUID, beforeSeq, limit int) ([]models.ChatMessage, error)
}

// Clients hands out vendor chat clients. *ai.Registry satisfies it.
type Clients interface {
	Client(p ai.Provider) (ai.ChatClient, error)
}

// Scraper fetches link attachments. *scrape.Client satisfies it.
type Scraper interface {
	Enabled() bool
	Scrape(ctx context.Context, url string) (*scrape.Page, error)
}

// URLResolver turns a storage ID into a URL a vendor can fetch.
// *storage.Client satisfies it.
type URLResolver interface {
	URL(ctx context.Context, storageID string) (string, error)
}

// Config wires a Service. Scraper and URLs are optional.
type Config struct {
	Store   Store
	Clients Clients
	Scraper Scraper
	URLs    URLResolver
	Prompt  Prompt
	Logger  *slog.Logger
}

// Service orchestrates chat turns.
type Service struct {
	store   Store
	clients Clients
	scraper Scraper
	urls    URLResolver
	prompt  Prompt
	logger  *slog.Logger
}

// NewService creates a chat service.
func NewService(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   cfg.Store,
		clients: cfg.Clients,
		scraper: cfg.Scraper,
		urls:    cfg.URLs,
		prompt:  cfg.Prompt,
		logger:  logger,
	}
}

// Request is one new user turn.
type Request struct {
	SessionID   string
	ChatID      uuid.UUID
	Model       string
	Content     string
	Attachments models.Attachments
}

// CreateChat starts an empty chat for a visitor session.
func (s *Service) CreateChat(ctx context.Context, sessionID, pageContext string) (*models.Chat, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}
	c := &models.Chat{SessionID: sessionID}
	if pc := strings.TrimSpace(pageContext); pc != "" {
		pc = scrape.Truncate(pc, MaxPageContextLen)
		c.PageContext = &pc
	}
	created, err := s.store.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}
	return created, nil
}

// Chat returns a chat with all its messages.
func (s *Service) Chat(ctx context.Context, sessionID string, id uuid.UUID) (*models.Chat, []models.ChatMessage, error) {
	c, err := s.load(ctx, sessionID, id)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := s.store.Messages(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("chat messages: %w", err)
	}
	return c, msgs, nil
}

// ListChats returns a session's chats, most recently active first.
func (s *Service) ListChats(ctx context.Context, sessionID string) ([]models.Chat, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}
	chats, err := s.store.ListBySession(ctx, sessionID, listLimit)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return chats, nil
}

func (s *Service) load(ctx context.Context, sessionID string, id uuid.UUID) (*models.Chat, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}
	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load chat: %w", err)
	}
	if c == nil || c.SessionID != sessionID {
		return nil, ErrChatNotFound
	}
	return c, nil
}

// GenerateResponse stores the user's turn, asks the model, and stores and
// returns the assistant reply. A missing API key yields a fixed setup
// message; a vendor failure yields an error-prefixed reply. Neither is
// returned as an error.
func (s *Service) GenerateResponse(ctx context.Context, req Request) (*models.ChatMessage, error) {
	c, err := s.load(ctx, req.SessionID, req.ChatID)
	if err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	model, err := ai.ParseModel(req.Model)
	if err != nil {
		return nil, err
	}
	provider := model.Provider()

	client, err := s.clients.Client(provider)
	if errors.Is(err, ai.ErrNotConfigured) {
		if _, err := s.appendUser(ctx, c, req.Content, req.Attachments); err != nil {
			return nil, err
		}
		s.logger.Info("chat provider not configured", "chat_id", c.ID, "provider", provider)
		return s.appendAssistant(ctx, c.ID, model, NotConfiguredMessage(provider))
	}
	if err != nil {
		return nil, fmt.Errorf("chat client: %w", err)
	}

	attachments := s.resolveLinks(ctx, req.Attachments)
	userMsg, err := s.appendUser(ctx, c, req.Content, attachments)
	if err != nil {
		return nil, err
	}

	history, err := s.store.RecentMessages(ctx, c.ID, userMsg.Sequence, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("chat history: %w", err)
	}

	var pageContext string
	if c.PageContext != nil {
		pageContext = *c.PageContext
	}

	messages := make([]ai.Message, 0, len(history)+1)
	for _, m := range history {
		if msg, ok := s.toMessage(ctx, provider, m); ok {
			messages = append(messages, msg)
		}
	}
	if msg, ok := s.toMessage(ctx, provider, *userMsg); ok {
		messages = append(messages, msg)
	}

	reply, err := client.Chat(ctx, ai.ChatRequest{
		Model:    model,
		System:   BuildSystemPrompt(s.prompt, pageContext),
		Messages: messages,
	})
	if err != nil {
		s.logger.Warn("chat provider call failed", "chat_id", c.ID, "model", model, "error", err)
		reply = ErrorMessage(provider, err)
	}

	return s.appendAssistant(context.WithoutCancel(ctx), c.ID, model, reply)
}

func validate(req Request) error {
	if strings.TrimSpace(req.Content) == "" && len(req.Attachments) == 0 {
		return fmt.Errorf("%w: message is empty", ErrInvalidRequest)
	}
	if utf8.RuneCountInString(req.Content) > maxContentLen {
		return fmt.Errorf("%w: message exceeds %d characters", ErrInvalidRequest, maxContentLen)
	}
	if len(req.Attachments) > maxAttachments {
		return fmt.Errorf("%w: at most %d attachments", ErrInvalidRequest, maxAttachments)
	}
	for i, a := range req.Attachments {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("%w: attachment %d: %v", ErrInvalidRequest, i, err)
		}
		if a.Type == models.AttachmentImage && !attachable(a.StorageID, req.SessionID) {
			return fmt.Errorf("%w: attachment %d: unknown image", ErrInvalidRequest, i)
		}
	}
	return nil
}

// attachable reports whether an image may be attached by sessionID:
// generated images, or the session's own uploads.
func attachable(storageID, sessionID string) bool {
	return storage.IsPublicKey(storageID) || storage.UploadedBy(storageID, sessionID)
}

func (s *Service) appendUser(ctx context.Context, c *models.Chat, content string, attachments models.Attachments) (*models.ChatMessage, error) {
	saved, err := s.store.AppendMessage(ctx, &models.ChatMessage{
		ChatID:      c.ID,
		Role:        models.RoleUser,
		Content:     content,
		Attachments: attachments,
	})
	if err != nil {
		return nil, fmt.Errorf("save user message: %w", err)
	}

	if c.Title == "" {
		title := TitleFrom(content)
		if title == "" {
			title = "New chat"
		}
		if err := s.store.SetTitle(ctx, c.ID, title); err != nil {
			s.logger.Warn("set chat title", "chat_id", c.ID, "error", err)
		} else {
			c.Title = title
		}
	}
	return saved, nil
}

func (s *Service) appendAssistant(ctx context.Context, chatID uuid.UUID, model ai.Model, content string) (*models.ChatMessage, error) {
	saved, err := s.store.AppendMessage(ctx, &models.ChatMessage{
		ChatID:  chatID,
		Role:    models.RoleAssistant,
		Content: content,
		Model:   string(model),
	})
	if err != nil {
		return nil, fmt.Errorf("save assistant message: %w", err)
	}
	return saved, nil
}

// resolveLinks scrapes every unscraped link attachment concurrently.
// Failures leave the link as it was.
func (s *Service) resolveLinks(ctx context.Context, in models.Attachments) models.Attachments {
	if len(in) == 0 {
		return in
	}
	out := make(models.Attachments, len(in))
	copy(out, in)

	if s.scraper == nil || !s.scraper.Enabled() {
		return out
	}

	var g errgroup.Group
	g.SetLimit(scrapeConcurrency)
	for i := range out {
		a := &out[i]
		if a.Type != models.AttachmentLink || a.Scraped {
			continue
		}
		g.Go(func() error {
			page, err := s.scraper.Scrape(ctx, a.URL)
			if err != nil {
				s.logger.Debug("scrape link", "url", a.URL, "error", err)
				return nil
			}
			a.ScrapedText = page.Markdown
			if a.Title == "" {
				a.Title = page.Title
			}
			a.Scraped = true
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// toMessage converts a stored message into the vendor-neutral form. Link
// text is appended as extra text blocks; images become URL blocks when the
// provider accepts them and the URL resolves.
func (s *Service) toMessage(ctx context.Context, p ai.Provider, m models.ChatMessage) (ai.Message, bool) {
	role := ai.RoleUser
	if m.Role == models.RoleAssistant {
		role = ai.RoleAssistant
	}

	var blocks []ai.Block
	if strings.TrimSpace(m.Content) != "" {
		blocks = append(blocks, ai.Block{Type: ai.BlockText, Text: m.Content})
	}

	for _, a := range m.Attachments {
		switch a.Type {
		case models.AttachmentLink:
			blocks = append(blocks, ai.Block{Type: ai.BlockText, Text: linkText(a)})
		case models.AttachmentImage:
			if !p.SupportsImages() || s.urls == nil {
				continue
			}
			u, err := s.urls.URL(ctx, a.StorageID)
			if err != nil || u == "" {
				s.logger.Debug("resolve image attachment", "storage_id", a.StorageID, "error", err)
				continue
			}
			blocks = append(blocks, ai.Block{Type: ai.BlockImageURL, URL: u})
		}
	}

	if len(blocks) == 0 {
		return ai.Message{}, false
	}
	return ai.Message{Role: role, Blocks: blocks}, true
}

func linkText(a models.Attachment) string {
	var b strings.Builder
	b.WriteString("Linked page: ")
	b.WriteString(a.URL)
	if a.Title != "" {
		b.WriteString(" (" + a.Title + ")")
	}
	if a.Scraped && a.ScrapedText != "" {
		b.WriteString("\n\n")
		b.WriteString(a.ScrapedText)
	}
	return b.String()
}
