package asm

import (
	"fmt"
	"io"
	"strings"
)

// Style controls how a sequence is rendered as text.
type Style struct {
	Comment string // line comment prefix, e.g. "#" or "//"
	Indent  string
}

// DefaultStyle renders with "#" comments and a tab indent.
var DefaultStyle = Style{Comment: "#", Indent: "\t"}

// Writer wraps an io.Writer and keeps the first write error.
type Writer struct {
	w     io.Writer
	err   error
	style Style
}

// NewWriter creates a Writer using style.
func NewWriter(w io.Writer, style Style) *Writer {
	if style.Comment == "" {
		style.Comment = DefaultStyle.Comment
	}
	return &Writer{w: w, style: style}
}

// Err returns the first write error, if any.
func (w *Writer) Err() error {
	return w.err
}

// Line writes a formatted line with no indentation.
func (w *Writer) Line(format string, args ...any) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.w, format+"\n", args...)
}

// Blank writes an empty line.
func (w *Writer) Blank() {
	if w.err != nil {
		return
	}
	_, w.err = io.WriteString(w.w, "\n")
}

// Comment writes a comment line.
func (w *Writer) Comment(text string) {
	w.Line("%s %s", w.style.Comment, text)
}

// Seq writes every entry of s. Labels are flush left, everything else is indented.
func (w *Writer) Seq(s Seq) {
	for _, in := range s {
		switch in.Kind {
		case KindLabel:
			w.Line("%s", in.String())
		case KindComment:
			w.Line("%s%s %s", w.style.Indent, w.style.Comment, in.Op)
		default:
			w.Line("%s%s", w.style.Indent, in.String())
		}
	}
}

// Text renders s using style.
func (s Seq) Text(style Style) string {
	var b strings.Builder
	w := NewWriter(&b, style)
	w.Seq(s)
	return b.String()
}

// String renders s using DefaultStyle.
func (s Seq) String() string {
	return s.Text(DefaultStyle)
}
