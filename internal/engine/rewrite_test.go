// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package engine

import (
	"strings"
	"testing"
)

func TestRewriteBodyImages(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"no images", `<p>text</p>`, `<p>text</p>`},
		{"adds lazy loading", `<img src="a.png" alt="x">`, `<img src="a.png" loading="lazy" alt="x">`},
		{"single quotes", `<img src='a.png'>`, `<img src="a.png" loading="lazy">`},
		{"attributes before src", `<img class="wide" src="a.png" />`, `<img class="wide" src="a.png" loading="lazy" />`},
		{"explicit loading kept", `<img src="a.png" loading="eager">`, `<img src="a.png" loading="eager">`},
		{"every image", `<img src="1.png"><img src="2.png">`, `<img src="1.png" loading="lazy"><img src="2.png" loading="lazy">`},
	}
	eng := New(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := eng.rewriteBodyImages(tt.in); got != tt.want {
				t.Errorf("got  %s\nwant %s", got, tt.want)
			}
		})
	}
}

// fakeMedia maps keys under a fixed public base URL.
type fakeMedia struct{ base string }

func (m fakeMedia) FileURL(key string) string { return m.base + "/" + key }

func TestRewriteBodyImagesResolvesPublicMedia(t *testing.T) {
	eng := New(nil)
	eng.SetMedia(fakeMedia{base: "https://cdn.example.com"})

	input := `<img src="/media/generated/2026/01/x.png" alt="gen"><img src="/media/uploads/private.png">`
	got := eng.rewriteBodyImages(input)

	if !strings.Contains(got, `src="https://cdn.example.com/generated/2026/01/x.png"`) {
		t.Errorf("public media not resolved: %s", got)
	}
	if !strings.Contains(got, `src="/media/uploads/private.png"`) {
		t.Errorf("private media must keep the redirect path: %s", got)
	}
	if strings.Count(got, `loading="lazy"`) != 2 {
		t.Errorf("expected lazy loading on both images: %s", got)
	}
}
