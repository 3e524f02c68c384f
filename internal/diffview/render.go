// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package diffview

import (
	"fmt"
	"html"
	"strings"
)

// View selects the table layout.
type View string

const (
	Unified View = "unified"
	Split   View = "split"
)

// ParseView returns Unified for anything that is not "split".
func ParseView(s string) View {
	if strings.EqualFold(strings.TrimSpace(s), string(Split)) {
		return Split
	}
	return Unified
}

// Options control a single Render call.
type Options struct {
	View    View
	Palette Palette
}

// Render writes the diff as an HTML table in the requested view.
func Render(d *Diff, opts Options) string {
	if opts.Palette == "" {
		opts.Palette = PaletteLight
	}
	var b strings.Builder
	fmt.Fprintf(&b, `<table class="diff diff-%s diff-palette-%s">`, viewOrDefault(opts.View), opts.Palette)
	for _, f := range d.Files {
		if name := fileLabel(f); name != "" {
			cols := 4
			if opts.View == Split {
				cols = 6
			}
			fmt.Fprintf(&b, `<tr class="diff-file"><th colspan="%d">%s</th></tr>`, cols, html.EscapeString(name))
		}
		if opts.View == Split {
			renderSplit(&b, f.Lines)
		} else {
			renderUnified(&b, f.Lines)
		}
	}
	b.WriteString("</table>")
	return b.String()
}

func viewOrDefault(v View) View {
	if v == Split {
		return Split
	}
	return Unified
}

func fileLabel(f File) string {
	switch {
	case f.OldName == "" && f.NewName == "":
		return ""
	case f.OldName == f.NewName || f.OldName == "":
		return f.NewName
	case f.NewName == "":
		return f.OldName
	default:
		return f.OldName + " → " + f.NewName
	}
}

func renderUnified(b *strings.Builder, lines []Line) {
	for _, l := range lines {
		switch l.Kind {
		case Hunk, Meta:
			fmt.Fprintf(b, `<tr class="%s"><td colspan="4">%s</td></tr>`, kindClass(l.Kind), html.EscapeString(l.Text))
		default:
			fmt.Fprintf(b, `<tr class="%s"><td class="ln">%s</td><td class="ln">%s</td><td class="sign">%s</td><td class="code">%s</td></tr>`,
				kindClass(l.Kind), num(l.OldNum), num(l.NewNum), sign(l.Kind), html.EscapeString(l.Text))
		}
	}
}

// renderSplit pairs each run of deletions with the run of additions that
// follows it; unmatched rows get an empty cell on the other side.
func renderSplit(b *strings.Builder, lines []Line) {
	for i := 0; i < len(lines); {
		l := lines[i]
		switch l.Kind {
		case Hunk, Meta:
			fmt.Fprintf(b, `<tr class="%s"><td colspan="6">%s</td></tr>`, kindClass(l.Kind), html.EscapeString(l.Text))
			i++
		case Context:
			b.WriteString(`<tr class="diff-context">`)
			splitCell(b, &l, l.OldNum)
			splitCell(b, &l, l.NewNum)
			b.WriteString("</tr>")
			i++
		default:
			var dels, adds []Line
			for i < len(lines) && lines[i].Kind == Deleted {
				dels = append(dels, lines[i])
				i++
			}
			for i < len(lines) && lines[i].Kind == Added {
				adds = append(adds, lines[i])
				i++
			}
			for j := 0; j < max(len(dels), len(adds)); j++ {
				b.WriteString(`<tr class="diff-change">`)
				if j < len(dels) {
					splitCell(b, &dels[j], dels[j].OldNum)
				} else {
					splitCell(b, nil, 0)
				}
				if j < len(adds) {
					splitCell(b, &adds[j], adds[j].NewNum)
				} else {
					splitCell(b, nil, 0)
				}
				b.WriteString("</tr>")
			}
		}
	}
}

func splitCell(b *strings.Builder, l *Line, n int) {
	if l == nil {
		b.WriteString(`<td class="ln diff-empty"></td><td class="sign diff-empty"></td><td class="code diff-empty"></td>`)
		return
	}
	cls := kindClass(l.Kind)
	fmt.Fprintf(b, `<td class="ln %s">%s</td><td class="sign %s">%s</td><td class="code %s">%s</td>`,
		cls, num(n), cls, sign(l.Kind), cls, html.EscapeString(l.Text))
}

func kindClass(k LineKind) string {
	switch k {
	case Added:
		return "diff-add"
	case Deleted:
		return "diff-del"
	case Hunk:
		return "diff-hunk"
	case Meta:
		return "diff-meta"
	default:
		return "diff-context"
	}
}

func sign(k LineKind) string {
	switch k {
	case Added:
		return "+"
	case Deleted:
		return "-"
	default:
		return " "
	}
}

func num(n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprint(n)
}
