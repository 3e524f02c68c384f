// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"markpress/internal/ai"
	"markpress/internal/chat"
	"markpress/internal/models"
	"markpress/internal/store"
	"markpress/internal/theme"
)

// noKeys is a key source with no credentials at all.
func noKeys(string) string { return "" }

// onlyKey returns a key source that knows a single variable.
func onlyKey(name string) ai.KeySource {
	return func(env string) string {
		if env == name {
			return "test-key"
		}
		return ""
	}
}

func TestChatModelsReportsConfiguredProviders(t *testing.T) {
	env := newTestEnv(t)
	registry := ai.NewRegistry(ai.Options{Keys: onlyKey(ai.Anthropic.EnvVar())})
	h := NewChat(env.Renderer, nil, registry, env.Library)

	rec := httptest.NewRecorder()
	h.Models(rec, httptest.NewRequest(http.MethodGet, "/api/models", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var got struct {
		Default string      `json:"default"`
		Models  []modelView `json:"models"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Default != string(ai.DefaultModel) {
		t.Errorf("default = %q, want %q", got.Default, ai.DefaultModel)
	}
	if len(got.Models) != len(ai.Models()) {
		t.Fatalf("got %d models, want %d", len(got.Models), len(ai.Models()))
	}
	for _, m := range got.Models {
		want := m.Provider == ai.Anthropic
		if m.Configured != want {
			t.Errorf("%s configured = %v, want %v", m.ID, m.Configured, want)
		}
		if m.ProviderLabel == "" {
			t.Errorf("%s has no provider label", m.ID)
		}
	}
}

func TestChatRejectsInvalidIDs(t *testing.T) {
	env := newTestEnv(t)
	h := NewChat(env.Renderer, nil, nil, env.Library)

	rec := httptest.NewRecorder()
	h.Get(rec, withChiURLParam(httptest.NewRequest(http.MethodGet, "/api/chats/x", nil), "id", "x"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Get: got %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Send(rec, withChiURLParam(jsonRequest(http.MethodPost, "/api/chats/x/messages", `{"content":"hi"}`), "id", "x"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Send: got %d, want 400", rec.Code)
	}
}

func TestChatRequiresVisitorSession(t *testing.T) {
	env := newTestEnv(t)
	h := NewChat(env.Renderer, chat.NewService(chat.Config{}), nil, env.Library)
	id := uuid.NewString()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		req     *http.Request
	}{
		{"create", h.Create, jsonRequest(http.MethodPost, "/api/chats", `{}`)},
		{"list", h.List, httptest.NewRequest(http.MethodGet, "/api/chats", nil)},
		{"get", h.Get, withChiURLParam(httptest.NewRequest(http.MethodGet, "/api/chats/"+id, nil), "id", id)},
		{"send", h.Send, withChiURLParam(jsonRequest(http.MethodPost, "/api/chats/"+id+"/messages", `{"content":"hi"}`), "id", id)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler(rec, tt.req)
			if rec.Code != http.StatusServiceUnavailable {
				t.Errorf("got %d, want 503: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestChatCreateRejectsOversizedContext(t *testing.T) {
	env := newTestEnv(t)
	h := NewChat(env.Renderer, nil, nil, env.Library)

	body, _ := json.Marshal(map[string]string{"page_context": strings.Repeat("a", chat.MaxPageContextLen+1)})
	rec := httptest.NewRecorder()
	h.Create(rec, jsonRequest(http.MethodPost, "/api/chats", string(body)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("got %d, want 400", rec.Code)
	}
}

func TestChatPageContextFromPath(t *testing.T) {
	env := newTestEnv(t)
	h := NewChat(env.Renderer, nil, nil, env.Library)

	tests := []struct {
		path string
		want string
	}{
		{"/docs/install", "# Install\n\nRun the binary."},
		{"/blog/hello", "# Hello World\n\nFirst *post*."},
		{"/docs/missing", ""},
		{"/elsewhere", ""},
	}
	for _, tt := range tests {
		got := strings.TrimSpace(h.pageContext(tt.path))
		if got != tt.want {
			t.Errorf("pageContext(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}

	if got := NewChat(env.Renderer, nil, nil, nil).pageContext("/docs/install"); got != "" {
		t.Errorf("without a library: got %q", got)
	}
}

func TestChatPageRendersModelPicker(t *testing.T) {
	env := newTestEnv(t)
	h := NewChat(env.Renderer, nil, ai.NewRegistry(ai.Options{Keys: noKeys}), env.Library)

	rec := httptest.NewRecorder()
	h.Page(rec, withTheme(httptest.NewRequest(http.MethodGet, "/chat?page=/docs/install", nil), theme.Dark))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, string(ai.DefaultModel)) {
		t.Error("chat page should list the default model")
	}
	if !strings.Contains(body, `data-page-context="/docs/install"`) {
		t.Error("chat page should carry the page reference")
	}
}

// newDBChat wires the chat handlers to PostgreSQL with no vendor keys.
func newDBChat(t *testing.T) *Chat {
	t.Helper()
	db := testDB(t)
	t.Cleanup(func() { db.Exec("DELETE FROM chats WHERE session_id LIKE 'handler-test-%'") })

	env := newTestEnv(t)
	registry := ai.NewRegistry(ai.Options{Keys: noKeys})
	svc := chat.NewService(chat.Config{Store: store.NewChatStore(db), Clients: registry})
	return NewChat(env.Renderer, svc, registry, env.Library)
}

func TestChatConversationWithoutKeys(t *testing.T) {
	h := newDBChat(t)
	sid := "handler-test-" + uuid.NewString()

	rec := httptest.NewRecorder()
	h.Create(rec, withSession(jsonRequest(http.MethodPost, "/api/chats", `{"page":"/docs/install"}`), sid))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d: %s", rec.Code, rec.Body.String())
	}
	var created models.Chat
	json.Unmarshal(rec.Body.Bytes(), &created)
	if created.PageContext == nil || !strings.Contains(*created.PageContext, "Run the binary.") {
		t.Errorf("page context = %v", created.PageContext)
	}
	id := created.ID.String()

	rec = httptest.NewRecorder()
	req := withSession(jsonRequest(http.MethodPost, "/api/chats/"+id+"/messages", `{"model":"gpt-4o","content":"hello"}`), sid)
	h.Send(rec, withChiURLParam(req, "id", id))
	if rec.Code != http.StatusOK {
		t.Fatalf("send: got %d: %s", rec.Code, rec.Body.String())
	}
	var reply models.ChatMessage
	json.Unmarshal(rec.Body.Bytes(), &reply)
	if reply.Role != models.RoleAssistant || !strings.Contains(reply.Content, ai.OpenAI.EnvVar()) {
		t.Errorf("reply = %+v, want a setup message naming %s", reply, ai.OpenAI.EnvVar())
	}

	rec = httptest.NewRecorder()
	h.Get(rec, withChiURLParam(withSession(httptest.NewRequest(http.MethodGet, "/api/chats/"+id, nil), sid), "id", id))
	if rec.Code != http.StatusOK {
		t.Fatalf("get: got %d", rec.Code)
	}
	var got struct {
		Messages []models.ChatMessage `json:"messages"`
	}
	json.Unmarshal(rec.Body.Bytes(), &got)
	if len(got.Messages) != 2 {
		t.Errorf("got %d messages, want user and assistant", len(got.Messages))
	}

	rec = httptest.NewRecorder()
	h.List(rec, withSession(httptest.NewRequest(http.MethodGet, "/api/chats", nil), sid))
	if !strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "[{") {
		t.Errorf("list = %s", rec.Body.String())
	}
}

func TestChatErrorsMapToStatus(t *testing.T) {
	h := newDBChat(t)
	sid := "handler-test-" + uuid.NewString()

	rec := httptest.NewRecorder()
	h.Create(rec, withSession(jsonRequest(http.MethodPost, "/api/chats", `{}`), sid))
	var created models.Chat
	json.Unmarshal(rec.Body.Bytes(), &created)
	id := created.ID.String()

	tests := []struct {
		name    string
		session string
		body    string
		want    int
	}{
		{"unknown model", sid, `{"model":"gpt-2","content":"hi"}`, http.StatusBadRequest},
		{"empty message", sid, `{"content":"  "}`, http.StatusBadRequest},
		{"other session", "handler-test-other", `{"content":"hi"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withSession(jsonRequest(http.MethodPost, "/api/chats/"+id+"/messages", tt.body), tt.session)
			rec := httptest.NewRecorder()
			h.Send(rec, withChiURLParam(req, "id", id))
			if rec.Code != tt.want {
				t.Errorf("got %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	rec = httptest.NewRecorder()
	h.List(rec, withSession(httptest.NewRequest(http.MethodGet, "/api/chats", nil), "handler-test-empty"))
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty list = %s, want []", rec.Body.String())
	}
}
