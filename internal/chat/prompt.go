// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package chat

import (
	"fmt"
	"strings"

	"markpress/internal/ai"
)

// DefaultSystemPrompt is used when no prompt is configured.
const DefaultSystemPrompt = `You are the writing assistant of a markdown blog and documentation site.
Answer clearly and concisely. Format answers as Markdown and use fenced code
blocks with a language tag for code. Use a diff block when proposing changes
to existing text or code.`

// Prompt holds the configured system prompt. Non-empty Parts take
// precedence over Whole.
type Prompt struct {
	Whole string
	Parts []string
}

// BuildSystemPrompt returns the system prompt for one turn: the configured
// parts joined in order if any part is set, else the whole prompt, else the
// default. A non-empty page context is appended.
func BuildSystemPrompt(p Prompt, pageContext string) string {
	var parts []string
	for _, part := range p.Parts {
		if s := strings.TrimSpace(part); s != "" {
			parts = append(parts, s)
		}
	}

	var prompt string
	switch {
	case len(parts) > 0:
		prompt = strings.Join(parts, "\n\n")
	case strings.TrimSpace(p.Whole) != "":
		prompt = strings.TrimSpace(p.Whole)
	default:
		prompt = DefaultSystemPrompt
	}

	if pc := strings.TrimSpace(pageContext); pc != "" {
		prompt += "\n\nThe user is reading the following page. Use it as context:\n\n" + pc
	}
	return prompt
}

// NotConfiguredMessage is the assistant reply stored when the selected
// provider has no API key.
func NotConfiguredMessage(p ai.Provider) string {
	return fmt.Sprintf("**%s is not configured.** To chat with %s models, set the `%s` environment variable on the server. The key is read on the next message, no restart needed.",
		p.Label(), p.Label(), p.EnvVar())
}

// ErrorMessage is the assistant reply stored when a provider call fails.
func ErrorMessage(p ai.Provider, err error) string {
	return fmt.Sprintf("**Error from %s:** %s", p.Label(), err.Error())
}

const maxTitleLen = 60

// TitleFrom derives a chat title from the first user message.
func TitleFrom(content string) string {
	line := strings.TrimSpace(content)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	line = strings.TrimLeft(line, "# ")
	runes := []rune(line)
	if len(runes) <= maxTitleLen {
		return line
	}
	cut := string(runes[:maxTitleLen])
	if i := strings.LastIndexByte(cut, ' '); i > maxTitleLen/2 {
		cut = cut[:i]
	}
	return cut + "…"
}
