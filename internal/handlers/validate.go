package handlers

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"markpress/internal/chat"
)

const (
	maxTitleLen   = 300
	maxSlugLen    = 300
	maxBodyLen    = 100_000
	maxExcerptLen = 1_000
	maxTags       = 20
	maxTagLen     = 50
)

// tooLong reports the first field whose value exceeds its rune limit.
func tooLong(fields ...lengthRule) string {
	for _, f := range fields {
		if utf8.RuneCountInString(f.value) > f.max {
			return fmt.Sprintf("%s is too long (max %d characters).", f.name, f.max)
		}
	}
	return ""
}

type lengthRule struct {
	name  string
	value string
	max   int
}

// validateDraft checks the required title and the draft text limits.
func validateDraft(title, slug, body string) string {
	if strings.TrimSpace(title) == "" {
		return "Title is required."
	}
	return tooLong(
		lengthRule{"Title", strings.TrimSpace(title), maxTitleLen},
		lengthRule{"Slug", slug, maxSlugLen},
		lengthRule{"Body", body, maxBodyLen},
	)
}

// validateMetadata checks the optional excerpt and tags.
func validateMetadata(excerpt string, tags []string) string {
	if len(tags) > maxTags {
		return fmt.Sprintf("Too many tags (max %d).", maxTags)
	}
	rules := []lengthRule{{"Excerpt", excerpt, maxExcerptLen}}
	for _, t := range tags {
		rules = append(rules, lengthRule{fmt.Sprintf("Tag %q", truncateRunes(t, 20)), t, maxTagLen})
	}
	return tooLong(rules...)
}

// validatePageContext bounds the text attached to a new chat.
func validatePageContext(pc string) string {
	return tooLong(lengthRule{"Page context", pc, chat.MaxPageContextLen})
}

// cleanTags lowercases and trims tags, dropping blanks and repeats.
func cleanTags(tags []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if _, dup := seen[t]; t == "" || dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}
