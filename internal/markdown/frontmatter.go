// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package markdown

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FrontMatter is the YAML header of a post or doc page.
type FrontMatter struct {
	Title   string
	Date    time.Time
	Slug    string
	Tags    []string
	Author  string
	Excerpt string
	Section string
	Order   int
}

// rawFrontMatter keeps the date as text so both "2026-01-02" and
// RFC 3339 timestamps are accepted whether quoted or not.
type rawFrontMatter struct {
	Title   string   `yaml:"title"`
	Date    string   `yaml:"date"`
	Slug    string   `yaml:"slug"`
	Tags    []string `yaml:"tags"`
	Author  string   `yaml:"author"`
	Excerpt string   `yaml:"excerpt"`
	Section string   `yaml:"section"`
	Order   int      `yaml:"order"`
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

const fmDelim = "---"

// ParseFrontMatter splits a leading "---" YAML block from the markdown
// body. Source without a front matter block is returned unchanged with a
// zero FrontMatter.
func ParseFrontMatter(src string) (FrontMatter, string, error) {
	src = strings.TrimPrefix(src, "\ufeff")
	normalized := strings.ReplaceAll(src, "\r\n", "\n")
	if !strings.HasPrefix(normalized, fmDelim+"\n") {
		return FrontMatter{}, src, nil
	}

	rest := normalized[len(fmDelim)+1:]
	var header, body string
	switch {
	case strings.HasPrefix(rest, fmDelim+"\n"), rest == fmDelim:
		body = strings.TrimPrefix(strings.TrimPrefix(rest, fmDelim), "\n")
	default:
		end := strings.Index(rest, "\n"+fmDelim+"\n")
		if end < 0 {
			if !strings.HasSuffix(rest, "\n"+fmDelim) {
				return FrontMatter{}, src, nil
			}
			end = len(rest) - len(fmDelim) - 1
			header, body = rest[:end], ""
		} else {
			header, body = rest[:end], rest[end+len(fmDelim)+2:]
		}
	}

	var raw rawFrontMatter
	if err := yaml.Unmarshal([]byte(header), &raw); err != nil {
		return FrontMatter{}, src, fmt.Errorf("front matter: %w", err)
	}

	fm := FrontMatter{
		Title:   strings.TrimSpace(raw.Title),
		Slug:    strings.TrimSpace(raw.Slug),
		Tags:    cleanTags(raw.Tags),
		Author:  strings.TrimSpace(raw.Author),
		Excerpt: strings.TrimSpace(raw.Excerpt),
		Section: strings.TrimSpace(raw.Section),
		Order:   raw.Order,
	}
	if d := strings.TrimSpace(raw.Date); d != "" {
		t, err := parseDate(d)
		if err != nil {
			return FrontMatter{}, src, fmt.Errorf("front matter: %w", err)
		}
		fm.Date = t
	}
	return fm, strings.TrimLeft(body, "\n"), nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// cleanTags lower-cases, trims and de-duplicates tags, keeping order.
func cleanTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
