package diffview

import (
	"strings"
	"testing"

	"markpress/internal/theme"
)

const gitPatch = `diff --git a/main.go b/main.go
index 3b18e51..a9c7d2f 100644
--- a/main.go
+++ b/main.go
@@ -1,3 +1,3 @@
 package main
-var x = 1
+var x = 2
 func main() {}
`

func TestParseGitPatch(t *testing.T) {
	d := Parse(gitPatch)
	if len(d.Files) != 1 {
		t.Fatalf("files = %d, want 1", len(d.Files))
	}
	f := d.Files[0]
	if f.NewName != "main.go" {
		t.Errorf("NewName = %q, want main.go", f.NewName)
	}
	if f.Lines[0].Kind != Hunk {
		t.Errorf("first line kind = %v, want Hunk", f.Lines[0].Kind)
	}

	var del, add *Line
	for i := range f.Lines {
		switch f.Lines[i].Kind {
		case Deleted:
			del = &f.Lines[i]
		case Added:
			add = &f.Lines[i]
		}
	}
	if del == nil || del.Text != "var x = 1" || del.OldNum != 2 {
		t.Errorf("deleted line = %+v", del)
	}
	if add == nil || add.Text != "var x = 2" || add.NewNum != 2 {
		t.Errorf("added line = %+v", add)
	}

	added, deleted := d.Stats()
	if added != 1 || deleted != 1 {
		t.Errorf("Stats = %d/%d, want 1/1", added, deleted)
	}
}

func TestParseFallsBackToPrefixes(t *testing.T) {
	d := Parse("@@ -10,2 +10,2 @@\n keep\n-old\n+new\n")
	lines := d.Files[0].Lines
	want := []LineKind{Hunk, Context, Deleted, Added}
	if len(lines) != len(want) {
		t.Fatalf("lines = %d, want %d", len(lines), len(want))
	}
	for i, k := range want {
		if lines[i].Kind != k {
			t.Errorf("line %d kind = %v, want %v", i, lines[i].Kind, k)
		}
	}
	if lines[1].OldNum != 10 || lines[2].OldNum != 11 || lines[3].NewNum != 11 {
		t.Errorf("line numbers not tracked from hunk header: %+v", lines)
	}
}

func TestParseNonDiffContentStillClassifies(t *testing.T) {
	d := Parse("just some text\nwith two lines")
	for _, l := range d.Files[0].Lines {
		if l.Kind != Context {
			t.Errorf("kind = %v, want Context", l.Kind)
		}
		if l.OldNum != 0 {
			t.Errorf("unnumbered snippet got line number %d", l.OldNum)
		}
	}
}

func TestPaletteFor(t *testing.T) {
	tests := map[theme.Theme]Palette{
		theme.Dark:  PaletteDark,
		theme.Light: PaletteLight,
		theme.Tan:   PaletteLight,
		theme.Cloud: PaletteLight,
	}
	for th, want := range tests {
		if got := PaletteFor(th); got != want {
			t.Errorf("PaletteFor(%s) = %s, want %s", th, got, want)
		}
	}
}

func TestRenderUnified(t *testing.T) {
	out := Render(Parse("-a <b>\n+c"), Options{View: Unified, Palette: PaletteDark})
	for _, want := range []string{
		`class="diff diff-unified diff-palette-dark"`,
		`<tr class="diff-del">`,
		`<tr class="diff-add">`,
		`a &lt;b&gt;`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("unified output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderSplitPairsChanges(t *testing.T) {
	out := Render(Parse("-one\n-two\n+uno"), Options{View: Split})
	if !strings.Contains(out, "diff-split diff-palette-light") {
		t.Errorf("missing split class and default palette:\n%s", out)
	}
	if n := strings.Count(out, `<tr class="diff-change">`); n != 2 {
		t.Errorf("change rows = %d, want 2", n)
	}
	if !strings.Contains(out, "diff-empty") {
		t.Error("unmatched deletion should produce an empty right cell")
	}
}

func TestParseView(t *testing.T) {
	if ParseView("SPLIT") != Split || ParseView("") != Unified || ParseView("side") != Unified {
		t.Error("ParseView mapping wrong")
	}
}
