// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const openAIMaxTokens = 4096

// openAIClient calls the chat completions API through go-openai.
type openAIClient struct {
	client *openai.Client
}

func newOpenAI(apiKey, baseURL string, httpClient *http.Client) *openAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	cfg.HTTPClient = httpClient
	return &openAIClient{client: openai.NewClientWithConfig(cfg)}
}

func (p *openAIClient) Chat(ctx context.Context, req ChatRequest) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     string(req.Model),
		Messages:  toOpenAI(req.System, req.Messages),
		MaxTokens: openAIMaxTokens,
	})
	if err != nil {
		return "", openAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices returned: %w", ErrEmptyResponse)
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("openai: no text in response: %w", ErrEmptyResponse)
	}
	return content, nil
}

// toOpenAI converts turns into chat completion messages. Text-only turns
// use Content; turns with images use MultiContent parts.
func toOpenAI(system string, msgs []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs)+1)
	if system != "" {
		out = append(out, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}

	for _, m := range msgs {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}

		if !m.HasImages() {
			text := m.PlainText()
			if text == "" {
				continue
			}
			out = append(out, openai.ChatCompletionMessage{Role: role, Content: text})
			continue
		}

		var parts []openai.ChatMessagePart
		for _, b := range m.Blocks {
			switch b.Type {
			case BlockText:
				if b.Text != "" {
					parts = append(parts, openai.ChatMessagePart{
						Type: openai.ChatMessagePartTypeText,
						Text: b.Text,
					})
				}
			case BlockImageURL:
				if b.URL != "" {
					parts = append(parts, openai.ChatMessagePart{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    b.URL,
							Detail: openai.ImageURLDetailAuto,
						},
					})
				}
			}
		}
		if len(parts) == 0 {
			continue
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, MultiContent: parts})
	}
	return out
}

// openAIError maps go-openai failures onto APIError so callers can match
// rate limits the same way for every vendor.
func openAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{Provider: OpenAI, Status: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &APIError{Provider: OpenAI, Status: reqErr.HTTPStatusCode, Body: reqErr.Error()}
	}
	return fmt.Errorf("openai: %w", err)
}
