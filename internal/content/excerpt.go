package content

import (
	"strings"
)

// firstHeading returns the text of the first ATX level-1 heading.
func firstHeading(body string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	return ""
}

// Excerpt returns the first prose paragraph of body, skipping headings,
// code fences and list markers, cut to at most n runes on a word boundary.
func Excerpt(body string, n int) string {
	var para []string
	inFence := false
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		if trimmed == "" {
			if len(para) > 0 {
				break
			}
			continue
		}
		if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ">") ||
			strings.HasPrefix(trimmed, "|") || strings.HasPrefix(trimmed, "<") {
			if len(para) > 0 {
				break
			}
			continue
		}
		para = append(para, trimmed)
	}

	text := stripInline(strings.Join(para, " "))
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	cut := string(runes[:n])
	if i := strings.LastIndexByte(cut, ' '); i > n/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, ",.;:") + "…"
}

var inlineReplacer = strings.NewReplacer("**", "", "__", "", "`", "", "*", "")

// stripInline removes emphasis markers and turns [text](url) into text.
func stripInline(s string) string {
	var b strings.Builder
	for {
		open := strings.IndexByte(s, '[')
		if open < 0 {
			b.WriteString(s)
			break
		}
		mid := strings.Index(s[open:], "](")
		if mid < 0 {
			b.WriteString(s)
			break
		}
		end := strings.IndexByte(s[open+mid:], ')')
		if end < 0 {
			b.WriteString(s)
			break
		}
		b.WriteString(s[:open])
		b.WriteString(s[open+1 : open+mid])
		s = s[open+mid+end+1:]
	}
	return strings.Join(strings.Fields(inlineReplacer.Replace(b.String())), " ")
}
