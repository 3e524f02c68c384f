// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"markpress/internal/ai"
	"markpress/internal/chat"
	"markpress/internal/content"
	"markpress/internal/middleware"
	"markpress/internal/models"
	"markpress/internal/render"
)

// ProviderStatus reports whether a vendor has credentials. *ai.Registry
// satisfies it.
type ProviderStatus interface {
	Configured(p ai.Provider) bool
}

// Chat groups the chat page and the chat JSON API.
type Chat struct {
	renderer *render.Renderer
	service  *chat.Service
	status   ProviderStatus
	library  *content.Library
}

// NewChat creates the chat handler group. library may be nil, in which
// case page references in new chats are ignored.
func NewChat(renderer *render.Renderer, service *chat.Service, status ProviderStatus, library *content.Library) *Chat {
	return &Chat{renderer: renderer, service: service, status: status, library: library}
}

// modelView is one entry of GET /api/models.
type modelView struct {
	ID             ai.Model    `json:"id"`
	Provider       ai.Provider `json:"provider"`
	ProviderLabel  string      `json:"provider_label"`
	Label          string      `json:"label"`
	Configured     bool        `json:"configured"`
	SupportsImages bool        `json:"supports_images"`
}

func (c *Chat) models() []modelView {
	infos := ai.Models()
	out := make([]modelView, 0, len(infos))
	for _, m := range infos {
		out = append(out, modelView{
			ID:             m.ID,
			Provider:       m.Provider,
			ProviderLabel:  m.Provider.Label(),
			Label:          m.Label,
			Configured:     c.status != nil && c.status.Configured(m.Provider),
			SupportsImages: m.Provider.SupportsImages(),
		})
	}
	return out
}

// Page renders the chat surface without layout chrome. ?page=/docs/intro
// attaches that document as context to the next new chat.
func (c *Chat) Page(w http.ResponseWriter, r *http.Request) {
	c.renderer.Page(w, r, "chat", &render.PageData{
		Title: "Chat",
		Data: map[string]any{
			"Models":       c.models(),
			"DefaultModel": ai.DefaultModel,
			"ImageModels":  ai.ImageModels,
			"AspectRatios": ai.AspectRatios,
			"PageContext":  r.URL.Query().Get("page"),
		},
	})
}

// Models lists the selectable chat models and whether each vendor has
// credentials.
func (c *Chat) Models(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"default": ai.DefaultModel,
		"models":  c.models(),
	})
}

// Create starts a new chat. The body may carry page_context text or a
// page path whose markdown becomes the context.
func (c *Chat) Create(w http.ResponseWriter, r *http.Request) {
	var in struct {
		PageContext string `json:"page_context"`
		Page        string `json:"page"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeDecodeError(w, err)
		return
	}

	if msg := validatePageContext(in.PageContext); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	// A referenced document may be longer than the limit; CreateChat keeps
	// its first MaxPageContextLen characters.
	pc := in.PageContext
	if pc == "" && in.Page != "" {
		pc = c.pageContext(in.Page)
	}

	created, err := c.service.CreateChat(r.Context(), middleware.SessionID(r.Context()), pc)
	if err != nil {
		writeServiceError(w, r, "create chat", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// List returns the visitor's chats.
func (c *Chat) List(w http.ResponseWriter, r *http.Request) {
	chats, err := c.service.ListChats(r.Context(), middleware.SessionID(r.Context()))
	if err != nil {
		writeServiceError(w, r, "list chats", err)
		return
	}
	if chats == nil {
		chats = []models.Chat{}
	}
	writeJSON(w, http.StatusOK, chats)
}

// Get returns one chat with its full message history.
func (c *Chat) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid chat id")
		return
	}

	ch, msgs, err := c.service.Chat(r.Context(), middleware.SessionID(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, "get chat", err)
		return
	}
	if msgs == nil {
		msgs = []models.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"chat": ch, "messages": msgs})
}

// Send adds a user turn and returns the assistant reply. Vendor failures
// and missing credentials come back as ordinary assistant messages.
func (c *Chat) Send(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid chat id")
		return
	}

	var in struct {
		Model       string             `json:"model"`
		Content     string             `json:"content"`
		Attachments models.Attachments `json:"attachments"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeDecodeError(w, err)
		return
	}

	reply, err := c.service.GenerateResponse(r.Context(), chat.Request{
		SessionID:   middleware.SessionID(r.Context()),
		ChatID:      id,
		Model:       in.Model,
		Content:     in.Content,
		Attachments: in.Attachments,
	})
	if err != nil {
		writeServiceError(w, r, "chat response", err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// pageContext resolves a site path such as /docs/intro or /blog/hello to
// the document's markdown. Unknown paths give "".
func (c *Chat) pageContext(path string) string {
	if c.library == nil {
		return ""
	}
	var doc *content.Document
	var ok bool
	switch {
	case strings.HasPrefix(path, "/docs/"):
		doc, ok = c.library.Doc(strings.TrimPrefix(path, "/docs/"))
	case strings.HasPrefix(path, "/blog/"):
		doc, ok = c.library.Post(strings.TrimPrefix(path, "/blog/"))
	}
	if !ok {
		return ""
	}
	return "# " + doc.Title + "\n\n" + doc.Body
}
