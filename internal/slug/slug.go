// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug turns titles, prompts, and file names into URL path segments.
package slug

import (
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLen caps generated slugs. Longer input is cut at the last hyphen
// before the limit so words are not split.
const MaxLen = 80

// Generate creates a URL-friendly slug. Accented letters are folded to
// their base letter ("Café" -> "cafe"); anything else that is not a letter
// or digit becomes a separator.
// Example: "Hello, World! 2026" -> "hello-world-2026"
func Generate(s string) string {
	folded, _, err := transform.String(foldAccents(), s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_':
			pendingHyphen = true
		}
		// Other punctuation is dropped without introducing a separator,
		// so "How's" becomes "hows".
	}
	return truncate(b.String(), MaxLen)
}

// FromPath derives a slug from a file path: "docs/Getting Started.md" ->
// "getting-started".
func FromPath(p string) string {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	return Generate(strings.TrimSuffix(base, path.Ext(base)))
}

func foldAccents() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	if i := strings.LastIndex(s, "-"); i > n/4 {
		s = s[:i]
	}
	return strings.Trim(s, "-")
}
