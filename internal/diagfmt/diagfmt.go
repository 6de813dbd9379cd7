// Package diagfmt prints translation errors with the offending source line.
package diagfmt

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/encoding/charmap"

	"github.com/soypat/fort2go/ir"
)

// Printer writes diagnostics:
//
//	m.f90:4: parse error in subroutine s in module m: assumed or deferred shape array: "dimension(:)" (unsupported by design)
//	   4 |     real, dimension(:) :: x
//	     |           ^~~~~~~~~~~~
type Printer struct {
	w        io.Writer
	pos      *color.Color
	kind     *color.Color
	note     *color.Color
	caret    *color.Color
	ReadFile func(name string) ([]byte, error)
	lines    map[string][]string
}

// NewPrinter returns a Printer writing to w, colorized when useColor is set.
func NewPrinter(w io.Writer, useColor bool) *Printer {
	p := &Printer{
		w:        w,
		pos:      color.New(color.Bold),
		kind:     color.New(color.FgRed, color.Bold),
		note:     color.New(color.FgYellow),
		caret:    color.New(color.FgGreen, color.Bold),
		ReadFile: os.ReadFile,
		lines:    make(map[string][]string),
	}
	for _, c := range []*color.Color{p.pos, p.kind, p.note, p.caret} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Print writes every translation error found in err and returns how many
// were written. Other errors are written as a single plain line.
func (p *Printer) Print(err error) int {
	if err == nil {
		return 0
	}
	var list ir.ErrorList
	if errors.As(err, &list) {
		for _, e := range list {
			p.printError(e)
		}
		return len(list)
	}
	var e *ir.Error
	if errors.As(err, &e) {
		p.printError(e)
		return 1
	}
	fmt.Fprintf(p.w, "%s %v\n", p.kind.Sprint("error:"), err)
	return 1
}

func (p *Printer) printError(e *ir.Error) {
	var b strings.Builder
	if e.Pos.Source != "" || e.Pos.Line > 0 {
		b.WriteString(p.pos.Sprint(e.Pos.String() + ":"))
		b.WriteByte(' ')
	}
	b.WriteString(p.kind.Sprint(e.Kind.String()))
	if e.Scope != "" {
		b.WriteString(" in " + e.Scope)
	}
	b.WriteString(": " + e.Reason)
	if e.Construct != "" {
		fmt.Fprintf(&b, ": %q", e.Construct)
	}
	if e.Unsupported {
		b.WriteString(" " + p.note.Sprint("("+ir.ErrUnsupported.Error()+")"))
	}
	fmt.Fprintln(p.w, b.String())

	line, ok := p.sourceLine(e.Pos)
	if !ok {
		return
	}
	gutter := fmt.Sprintf("%4d | ", e.Pos.Line)
	fmt.Fprintf(p.w, "%s%s\n", gutter, line)
	col, width := underline(line, e.Construct)
	if width == 0 {
		return
	}
	pad := strings.Repeat(" ", len(gutter)-2)
	fmt.Fprintf(p.w, "%s| %s%s\n", pad, strings.Repeat(" ", col), p.caret.Sprint("^"+strings.Repeat("~", width-1)))
}

// underline returns the display column and width of construct within line.
// Width is zero when the construct does not appear on the line.
func underline(line, construct string) (col, width int) {
	if construct == "" {
		return 0, 0
	}
	i := strings.Index(strings.ToLower(line), strings.ToLower(construct))
	if i < 0 {
		return 0, 0
	}
	return runewidth.StringWidth(line[:i]), max(1, runewidth.StringWidth(line[i:i+len(construct)]))
}

func (p *Printer) sourceLine(pos ir.Pos) (string, bool) {
	if pos.Source == "" || pos.Line <= 0 {
		return "", false
	}
	lines, ok := p.lines[pos.Source]
	if !ok {
		data, err := p.ReadFile(pos.Source)
		if err == nil && !utf8.Valid(data) {
			data, err = charmap.ISO8859_1.NewDecoder().Bytes(data)
		}
		if err == nil {
			data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
			lines = strings.Split(string(data), "\n")
		}
		p.lines[pos.Source] = lines
	}
	if pos.Line > len(lines) {
		return "", false
	}
	return strings.ReplaceAll(strings.TrimRight(lines[pos.Line-1], " \r"), "\t", " "), true
}
