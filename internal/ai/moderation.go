// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ModerationResult is the verdict on an image prompt.
type ModerationResult struct {
	Safe       bool
	Categories []string // flagged categories in display form, sorted
}

// Moderator checks prompts before they reach a generation endpoint.
type Moderator interface {
	CheckSafety(ctx context.Context, text string) (*ModerationResult, error)
}

// openAIModerator asks the OpenAI moderation endpoint through go-openai,
// sharing the chat client's configuration.
type openAIModerator struct {
	client *openai.Client
}

func newOpenAIModerator(apiKey, baseURL string, httpClient *http.Client) *openAIModerator {
	return &openAIModerator{client: newOpenAI(apiKey, baseURL, httpClient).client}
}

func (m *openAIModerator) CheckSafety(ctx context.Context, text string) (*ModerationResult, error) {
	resp, err := m.client.Moderations(ctx, openai.ModerationRequest{Input: text})
	if err != nil {
		return nil, openAIError(err)
	}

	var flagged []string
	for _, res := range resp.Results {
		if !res.Flagged {
			continue
		}
		cats, err := flaggedCategories(res.Categories)
		if err != nil {
			return nil, err
		}
		flagged = append(flagged, cats...)
	}
	if len(flagged) == 0 {
		return &ModerationResult{Safe: true}, nil
	}
	sort.Strings(flagged)
	return &ModerationResult{Safe: false, Categories: flagged}, nil
}

// flaggedCategories lists the true fields of cats by their wire names,
// which go-openai keeps in the struct tags.
func flaggedCategories(cats openai.ResultCategories) ([]string, error) {
	raw, err := json.Marshal(cats)
	if err != nil {
		return nil, fmt.Errorf("moderation categories: %w", err)
	}
	var byName map[string]bool
	if err := json.Unmarshal(raw, &byName); err != nil {
		return nil, fmt.Errorf("moderation categories: %w", err)
	}
	var out []string
	for name, hit := range byName {
		if hit {
			out = append(out, displayCategory(name))
		}
	}
	return out, nil
}

// displayCategory renders "hate/threatening" as "hate (threatening)" and
// "self-harm" as "self harm".
func displayCategory(cat string) string {
	if base, sub, ok := strings.Cut(cat, "/"); ok {
		cat = base + " (" + sub + ")"
	}
	return strings.NewReplacer("_", " ", "-", " ").Replace(cat)
}
