// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package diffview turns unified-diff text into HTML tables. Patches with
// file headers are parsed with go-gitdiff; bare hunks and hand-written
// snippets are classified line by line from their prefix.
package diffview

import (
	"strconv"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"

	"markpress/internal/theme"
)

// LineKind classifies one row of a diff.
type LineKind int

const (
	Context LineKind = iota
	Added
	Deleted
	Hunk // "@@ -a,b +c,d @@" header
	Meta // file headers and anything else that is not code
)

// Line is a single diff row. OldNum and NewNum are zero when the line
// does not exist on that side.
type Line struct {
	Kind   LineKind
	Text   string
	OldNum int
	NewNum int
}

// File groups the lines belonging to one file of a patch. Names are empty
// for snippets that carry no file header.
type File struct {
	OldName string
	NewName string
	Lines   []Line
}

// Diff is a parsed diff ready for rendering.
type Diff struct {
	Files []File
}

// Stats returns the number of added and deleted lines across all files.
func (d *Diff) Stats() (added, deleted int) {
	for _, f := range d.Files {
		for _, l := range f.Lines {
			switch l.Kind {
			case Added:
				added++
			case Deleted:
				deleted++
			}
		}
	}
	return added, deleted
}

// Palette selects the diff color scheme.
type Palette string

const (
	PaletteLight Palette = "light"
	PaletteDark  Palette = "dark"
)

// PaletteFor maps a site theme to a diff palette. Only the dark theme uses
// the dark palette; tan and cloud are light backgrounds.
func PaletteFor(t theme.Theme) Palette {
	if t.IsDark() {
		return PaletteDark
	}
	return PaletteLight
}

// Parse parses diff text. It never fails: input that go-gitdiff rejects
// (or that has no file headers) falls back to prefix classification.
func Parse(text string) *Diff {
	text = strings.TrimRight(text, "\n")
	if hasFileHeader(text) {
		if d, ok := parseGit(text); ok {
			return d
		}
	}
	return &Diff{Files: []File{{Lines: parseLines(strings.Split(text, "\n"))}}}
}

func hasFileHeader(text string) bool {
	return strings.HasPrefix(text, "diff --git ") ||
		strings.HasPrefix(text, "--- ") ||
		strings.Contains(text, "\n--- ") ||
		strings.Contains(text, "\ndiff --git ")
}

func parseGit(text string) (*Diff, bool) {
	files, _, err := gitdiff.Parse(strings.NewReader(text + "\n"))
	if err != nil || len(files) == 0 {
		return nil, false
	}

	d := &Diff{}
	for _, f := range files {
		out := File{OldName: f.OldName, NewName: f.NewName}
		for _, frag := range f.TextFragments {
			out.Lines = append(out.Lines, Line{Kind: Hunk, Text: strings.TrimSpace(frag.Header())})
			oldNum, newNum := int(frag.OldPosition), int(frag.NewPosition)
			for _, l := range frag.Lines {
				line := Line{Text: strings.TrimRight(l.Line, "\n")}
				switch l.Op {
				case gitdiff.OpAdd:
					line.Kind = Added
					line.NewNum = newNum
					newNum++
				case gitdiff.OpDelete:
					line.Kind = Deleted
					line.OldNum = oldNum
					oldNum++
				default:
					line.Kind = Context
					line.OldNum, line.NewNum = oldNum, newNum
					oldNum++
					newNum++
				}
				out.Lines = append(out.Lines, line)
			}
		}
		d.Files = append(d.Files, out)
	}
	return d, true
}

// parseLines classifies raw lines by their first character. Line numbers
// are tracked once a hunk header has been seen.
func parseLines(lines []string) []Line {
	out := make([]Line, 0, len(lines))
	oldNum, newNum := 0, 0
	numbered := false
	for _, raw := range lines {
		switch {
		case strings.HasPrefix(raw, "@@"):
			if o, n, ok := parseHunkHeader(raw); ok {
				oldNum, newNum, numbered = o, n, true
			}
			out = append(out, Line{Kind: Hunk, Text: raw})
		case strings.HasPrefix(raw, "+++ "), strings.HasPrefix(raw, "--- "):
			out = append(out, Line{Kind: Meta, Text: raw})
		case strings.HasPrefix(raw, "+"):
			l := Line{Kind: Added, Text: raw[1:]}
			if numbered {
				l.NewNum = newNum
				newNum++
			}
			out = append(out, l)
		case strings.HasPrefix(raw, "-"):
			l := Line{Kind: Deleted, Text: raw[1:]}
			if numbered {
				l.OldNum = oldNum
				oldNum++
			}
			out = append(out, l)
		case strings.HasPrefix(raw, `\`):
			out = append(out, Line{Kind: Meta, Text: raw})
		default:
			l := Line{Kind: Context, Text: strings.TrimPrefix(raw, " ")}
			if numbered {
				l.OldNum, l.NewNum = oldNum, newNum
				oldNum++
				newNum++
			}
			out = append(out, l)
		}
	}
	return out
}

// parseHunkHeader reads the start lines from "@@ -12,5 +12,7 @@".
func parseHunkHeader(h string) (oldStart, newStart int, ok bool) {
	fields := strings.Fields(h)
	if len(fields) < 3 {
		return 0, 0, false
	}
	o, okOld := rangeStart(fields[1], '-')
	n, okNew := rangeStart(fields[2], '+')
	return o, n, okOld && okNew
}

func rangeStart(f string, sign byte) (int, bool) {
	if len(f) < 2 || f[0] != sign {
		return 0, false
	}
	start, _, _ := strings.Cut(f[1:], ",")
	v, err := strconv.Atoi(start)
	if err != nil {
		return 0, false
	}
	return v, true
}
