package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"quill/internal/diag"
	"quill/internal/source"
)

const tabWidth = 4

type palette struct {
	sev    map[diag.Severity]*color.Color
	gutter *color.Color
	caret  *color.Color
	note   *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		sev: map[diag.Severity]*color.Color{
			diag.SevError:   color.New(color.FgRed, color.Bold),
			diag.SevWarning: color.New(color.FgYellow, color.Bold),
			diag.SevInfo:    color.New(color.FgCyan, color.Bold),
		},
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgRed, color.Bold),
		note:   color.New(color.FgGreen),
	}
	all := []*color.Color{p.gutter, p.caret, p.note}
	for _, c := range p.sev {
		all = append(all, c)
	}
	for _, c := range all {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Pretty renders the bag as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the source line with the span underlined ^~~~ and, when
// enabled, the notes in the same layout. Items are printed in bag order;
// call bag.Sort() first.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		sev := p.sev[d.Severity]
		if sev == nil {
			sev = p.sev[diag.SevError]
		}
		fmt.Fprintf(w, "%s%s %s: %s\n", location(fs, d.Primary, opts), sev.Sprint(d.Severity.String()), d.Code.ID(), d.Message)
		snippet(w, fs, d.Primary, opts.Context, p)
		if !opts.ShowNotes && d.Code != diag.ObsTimings {
			continue
		}
		for _, n := range d.Notes {
			fmt.Fprintf(w, "  %s %s%s\n", p.note.Sprint("note:"), location(fs, n.Span, opts), n.Msg)
			if n.Span != d.Primary {
				snippet(w, fs, n.Span, 0, p)
			}
		}
	}
}

// location is "path:line:col: " or empty for spans outside any file.
func location(fs *source.FileSet, sp source.Span, opts PrettyOpts) string {
	f := fs.Get(sp.File)
	if f == nil || isZero(sp) {
		return ""
	}
	start, _ := fs.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d: ", formatPath(f, opts.PathMode, opts.BaseDir), start.Line, start.Col)
}

// isZero reports the span diagnostics carry when they have no location.
func isZero(sp source.Span) bool { return sp == source.Span{} }

func snippet(w io.Writer, fs *source.FileSet, sp source.Span, context int, p palette) {
	f := fs.Get(sp.File)
	if f == nil || isZero(sp) {
		return
	}
	start, end := fs.Resolve(sp)
	last := uint32(f.Lines()) //nolint:gosec // bounded by file size
	from := start.Line
	for i := 0; i < context && from > 1; i++ {
		from--
	}
	to := start.Line
	for i := 0; i < context && to < last; i++ {
		to++
	}
	width := len(fmt.Sprint(to))
	for line := from; line <= to; line++ {
		text := f.Line(line)
		fmt.Fprintf(w, " %s %s\n", p.gutter.Sprintf("%*d |", width, line), expandTabs(text))
		if line != start.Line {
			continue
		}
		col := int(start.Col) - 1
		col = min(max(col, 0), len(text))
		stop := len(text)
		if end.Line == start.Line {
			stop = min(max(int(end.Col)-1, col), len(text))
		}
		pad := displayWidth(text[:col])
		n := max(displayWidth(text[col:stop]), 1)
		marks := "^" + strings.Repeat("~", n-1)
		fmt.Fprintf(w, " %s %s%s\n", p.gutter.Sprintf("%*s |", width, ""), strings.Repeat(" ", pad), p.caret.Sprint(marks))
	}
}

func expandTabs(s string) string { return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth)) }

func displayWidth(s string) int { return runewidth.StringWidth(expandTabs(s)) }
