// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package ai talks to the three chat vendors (Anthropic, OpenAI, Google
// Gemini) and to Google's image models. Models are a closed set; each maps
// to exactly one provider. API keys are read from the environment when a
// client is requested, so keys added to a running process take effect on
// the next call.
package ai

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

// Provider identifies a model vendor.
type Provider string

const (
	Anthropic Provider = "anthropic"
	OpenAI    Provider = "openai"
	Google    Provider = "google"
)

// Providers lists every supported vendor.
var Providers = []Provider{Anthropic, OpenAI, Google}

// Label is the human-readable vendor name used in chat replies.
func (p Provider) Label() string {
	switch p {
	case Anthropic:
		return "Anthropic"
	case OpenAI:
		return "OpenAI"
	case Google:
		return "Google Gemini"
	}
	return string(p)
}

// EnvVar names the environment variable holding the provider's API key.
func (p Provider) EnvVar() string {
	switch p {
	case Anthropic:
		return "ANTHROPIC_API_KEY"
	case OpenAI:
		return "OPENAI_API_KEY"
	case Google:
		return "GEMINI_API_KEY"
	}
	return ""
}

// SupportsImages reports whether chat messages sent to the provider can
// carry images. Gemini chat requests are text-only here; image blocks
// are dropped when translating.
func (p Provider) SupportsImages() bool {
	return p == Anthropic || p == OpenAI
}

// Model is a supported chat model identifier.
type Model string

const (
	ClaudeSonnet45 Model = "claude-sonnet-4-5"
	ClaudeOpus41   Model = "claude-opus-4-1"
	ClaudeHaiku45  Model = "claude-haiku-4-5"
	GPT4o          Model = "gpt-4o"
	GPT4oMini      Model = "gpt-4o-mini"
	GPT41          Model = "gpt-4.1"
	Gemini25Pro    Model = "gemini-2.5-pro"
	Gemini25Flash  Model = "gemini-2.5-flash"
)

// DefaultModel is used when a request names no model.
const DefaultModel = ClaudeSonnet45

// ModelInfo describes one selectable model.
type ModelInfo struct {
	ID       Model    `json:"id"`
	Provider Provider `json:"provider"`
	Label    string   `json:"label"`
}

var modelTable = []ModelInfo{
	{ClaudeSonnet45, Anthropic, "Claude Sonnet 4.5"},
	{ClaudeOpus41, Anthropic, "Claude Opus 4.1"},
	{ClaudeHaiku45, Anthropic, "Claude Haiku 4.5"},
	{GPT4o, OpenAI, "GPT-4o"},
	{GPT4oMini, OpenAI, "GPT-4o mini"},
	{GPT41, OpenAI, "GPT-4.1"},
	{Gemini25Pro, Google, "Gemini 2.5 Pro"},
	{Gemini25Flash, Google, "Gemini 2.5 Flash"},
}

var modelProviders = func() map[Model]Provider {
	m := make(map[Model]Provider, len(modelTable))
	for _, info := range modelTable {
		m[info.ID] = info.Provider
	}
	return m
}()

// Models returns the supported models in display order.
func Models() []ModelInfo {
	out := make([]ModelInfo, len(modelTable))
	copy(out, modelTable)
	return out
}

// ParseModel validates a model name. An empty name selects DefaultModel;
// anything not in the supported list is rejected with ErrUnknownModel.
func ParseModel(s string) (Model, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultModel, nil
	}
	m := Model(s)
	if _, ok := modelProviders[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownModel, s)
	}
	return m, nil
}

// Provider returns the vendor serving m. Unknown models return "".
func (m Model) Provider() Provider {
	return modelProviders[m]
}

// ChatRequest is one provider call: a system prompt plus the ordered
// conversation, ending with the new user turn.
type ChatRequest struct {
	Model    Model
	System   string
	Messages []Message
}

// ChatClient sends a conversation to one vendor and returns the reply text.
type ChatClient interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
}

// KeySource looks up an API key by environment variable name.
type KeySource func(envVar string) string

// Options configure a Registry. Empty base URLs use the vendors' public
// endpoints; a nil Keys reads the process environment.
type Options struct {
	AnthropicBaseURL string
	OpenAIBaseURL    string
	GeminiBaseURL    string
	Keys             KeySource
}

const (
	defaultAnthropicURL = "https://api.anthropic.com"
	defaultOpenAIURL    = "https://api.openai.com/v1"
	defaultGeminiURL    = "https://generativelanguage.googleapis.com"

	chatTimeout  = 60 * time.Second
	imageTimeout = 120 * time.Second
)

// Registry hands out vendor clients. All methods are safe for concurrent use.
type Registry struct {
	opts       Options
	chatHTTP   *http.Client
	imageHTTP  *http.Client
	modHTTP    *http.Client
	mu         sync.RWMutex
	overrides  map[Provider]ChatClient
	moderation Moderator
}

// NewRegistry creates a registry.
func NewRegistry(opts Options) *Registry {
	if opts.Keys == nil {
		opts.Keys = os.Getenv
	}
	if opts.AnthropicBaseURL == "" {
		opts.AnthropicBaseURL = defaultAnthropicURL
	}
	if opts.OpenAIBaseURL == "" {
		opts.OpenAIBaseURL = defaultOpenAIURL
	}
	if opts.GeminiBaseURL == "" {
		opts.GeminiBaseURL = defaultGeminiURL
	}
	return &Registry{
		opts:      opts,
		chatHTTP:  &http.Client{Timeout: chatTimeout},
		imageHTTP: &http.Client{Timeout: imageTimeout},
		modHTTP:   &http.Client{Timeout: 15 * time.Second},
		overrides: make(map[Provider]ChatClient),
	}
}

// Key returns the provider's API key as currently set in the environment.
func (r *Registry) Key(p Provider) string {
	return strings.TrimSpace(r.opts.Keys(p.EnvVar()))
}

// Configured reports whether p has an API key.
func (r *Registry) Configured(p Provider) bool {
	return r.Key(p) != ""
}

// Client returns a chat client for p. Returns ErrNotConfigured when the
// provider has no key.
func (r *Registry) Client(p Provider) (ChatClient, error) {
	key := r.Key(p)
	if key == "" {
		return nil, fmt.Errorf("%w: %s (set %s)", ErrNotConfigured, p, p.EnvVar())
	}

	r.mu.RLock()
	override, ok := r.overrides[p]
	r.mu.RUnlock()
	if ok {
		return override, nil
	}

	switch p {
	case Anthropic:
		return newAnthropic(key, r.opts.AnthropicBaseURL, r.chatHTTP), nil
	case OpenAI:
		return newOpenAI(key, r.opts.OpenAIBaseURL, r.chatHTTP), nil
	case Google:
		return newGemini(key, r.opts.GeminiBaseURL, r.chatHTTP), nil
	}
	return nil, fmt.Errorf("ai: unsupported provider %q", p)
}

// Register replaces the client used for p. The key check in Client still
// applies.
func (r *Registry) Register(p Provider, c ChatClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[p] = c
}

// Images returns the Google image client. Returns ErrNotConfigured when
// GEMINI_API_KEY is not set.
func (r *Registry) Images() (*ImageClient, error) {
	key := r.Key(Google)
	if key == "" {
		return nil, fmt.Errorf("%w: %s (set %s)", ErrNotConfigured, Google, Google.EnvVar())
	}
	return newImageClient(key, r.opts.GeminiBaseURL, r.imageHTTP), nil
}

// SetModerator installs a fixed moderator, replacing the OpenAI one.
func (r *Registry) SetModerator(m Moderator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.moderation = m
}

// CheckPrompt runs text through the moderation API. With no moderator
// (no OpenAI key) every prompt passes; the image models still apply their
// own safety filters.
func (r *Registry) CheckPrompt(ctx context.Context, text string) (*ModerationResult, error) {
	r.mu.RLock()
	m := r.moderation
	r.mu.RUnlock()

	if m == nil {
		key := r.Key(OpenAI)
		if key == "" {
			return &ModerationResult{Safe: true}, nil
		}
		m = newOpenAIModerator(key, r.opts.OpenAIBaseURL, r.modHTTP)
	}
	return m.CheckSafety(ctx, text)
}
