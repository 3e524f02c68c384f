// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const anthropicMaxTokens = 4096

// anthropicClient calls the Anthropic Messages API (POST /v1/messages).
type anthropicClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func newAnthropic(apiKey, baseURL string, client *http.Client) *anthropicClient {
	return &anthropicClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (p *anthropicClient) Chat(ctx context.Context, req ChatRequest) (string, error) {
	body := anthropicRequest{
		Model:     string(req.Model),
		MaxTokens: anthropicMaxTokens,
		System:    req.System,
		Messages:  toAnthropic(req.Messages),
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("anthropic marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("anthropic request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("anthropic http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("anthropic read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Provider: Anthropic, Status: resp.StatusCode, Body: string(respBody)}
	}

	var result anthropicResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("anthropic unmarshal: %w", err)
	}

	var texts []string
	for _, block := range result.Content {
		if block.Type == "text" && block.Text != "" {
			texts = append(texts, block.Text)
		}
	}
	if len(texts) == 0 {
		return "", fmt.Errorf("anthropic: no text content in response: %w", ErrEmptyResponse)
	}
	return strings.Join(texts, "\n\n"), nil
}

// toAnthropic converts turns into Messages API content blocks. Images are
// sent as URL sources.
func toAnthropic(msgs []Message) []anthropicMessage {
	out := make([]anthropicMessage, 0, len(msgs))
	for _, m := range msgs {
		var blocks []anthropicBlock
		for _, b := range m.ContentBlocks() {
			switch b.Type {
			case BlockText:
				if b.Text != "" {
					blocks = append(blocks, anthropicBlock{Type: "text", Text: b.Text})
				}
			case BlockImageURL:
				if b.URL != "" {
					blocks = append(blocks, anthropicBlock{
						Type:   "image",
						Source: &anthropicSource{Type: "url", URL: b.URL},
					})
				}
			}
		}
		if len(blocks) == 0 {
			continue
		}
		out = append(out, anthropicMessage{Role: string(m.Role), Content: blocks})
	}
	return out
}

// --- Anthropic Messages API types ---

type anthropicSource struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type anthropicBlock struct {
	Type   string           `json:"type"`
	Text   string           `json:"text,omitempty"`
	Source *anthropicSource `json:"source,omitempty"`
}

type anthropicMessage struct {
	Role    string           `json:"role"`
	Content []anthropicBlock `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []anthropicBlock `json:"content"`
}
