package slug

import (
	"strings"
	"testing"
)

// TestGenerate exercises the slug generator with typical titles, special
// characters, accented letters, and edge cases.
func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		// --- Normal titles ---
		{name: "simple two words", input: "Hello World", want: "hello-world"},
		{name: "title with year", input: "Hello World 2026", want: "hello-world-2026"},
		{name: "single word", input: "GoLang", want: "golang"},

		// --- Special characters ---
		{name: "punctuation marks", input: "Hello, World! How's it going?", want: "hello-world-hows-it-going"},
		{name: "ampersand and at sign", input: "Rock & Roll @ the Arena", want: "rock-roll-the-arena"},
		{name: "parentheses and brackets", input: "Version (2.0) [Beta]", want: "version-20-beta"},
		{name: "underscores become hyphens", input: "snake_case_title", want: "snake-case-title"},

		// --- Accents ---
		{name: "french accents folded", input: "Café Crème Brûlée", want: "cafe-creme-brulee"},
		{name: "german umlauts folded", input: "Über Größe", want: "uber-groe"},

		// --- Edge cases ---
		{name: "empty string", input: "", want: ""},
		{name: "only punctuation", input: "!!!???", want: ""},
		{name: "leading and trailing spaces", input: "   padded title   ", want: "padded-title"},
		{name: "repeated separators", input: "a -- b  __  c", want: "a-b-c"},
		{name: "non latin dropped", input: "日本語 docs", want: "docs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Generate(tt.input); got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGenerateTruncatesAtWordBoundary(t *testing.T) {
	long := strings.Repeat("word ", 40)
	got := Generate(long)
	if len(got) > MaxLen {
		t.Fatalf("len = %d, want <= %d", len(got), MaxLen)
	}
	if strings.HasSuffix(got, "-") || strings.HasSuffix(got, "wor") {
		t.Errorf("slug cut mid-word or ends with hyphen: %q", got)
	}
}

func TestFromPath(t *testing.T) {
	tests := map[string]string{
		"docs/Getting Started.md":     "getting-started",
		"posts/2026-01-02-hello.md":   "2026-01-02-hello",
		`content\docs\Diff Blocks.md`: "diff-blocks",
	}
	for in, want := range tests {
		if got := FromPath(in); got != want {
			t.Errorf("FromPath(%q) = %q, want %q", in, got, want)
		}
	}
}
