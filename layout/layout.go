package layout

import (
	"math"

	"github.com/wippyai/objgen/asm"
	"github.com/wippyai/objgen/errors"
)

// Layout is the running, then finished, layout of one class.
// It is mutable until Finish and read-only afterwards.
type Layout struct {
	parent   *Layout
	index    map[string]int // own field name -> position in own
	class    string
	own      []Field
	width    int
	base     int
	size     int
	padding  int
	finished bool
}

func newLayout(class string, width, base int, parent *Layout) *Layout {
	return &Layout{
		class:  class,
		width:  width,
		base:   base,
		size:   base,
		parent: parent,
		index:  make(map[string]int),
	}
}

// AddField appends a field at the current size and returns its offset.
func (l *Layout) AddField(name string, size int) (int, error) {
	if l.finished {
		return 0, errors.Sealed(errors.PhaseLayout, l.class)
	}
	if !asm.ValidSymbol(name) {
		return 0, errors.New(errors.PhaseLayout, errors.KindInvalidName).
			Class(l.class).
			Path(l.class, name).
			Detail("invalid field name %q", name).
			Build()
	}
	if size <= 0 {
		return 0, errors.InvalidFieldSize(l.class, name, size)
	}
	if _, dup := l.index[name]; dup {
		return 0, errors.DuplicateMember(errors.PhaseLayout, l.class, name)
	}
	if limit := MaxSize(l.width); size > limit-l.size || l.size+size+Pad(l.size+size, l.width) > limit {
		return 0, errors.New(errors.PhaseLayout, errors.KindInvalidFieldSize).
			Class(l.class).
			Path(l.class, name).
			Value(size).
			Detail("field of %d bytes at offset %d exceeds the %d byte object limit", size, l.size, limit).
			Build()
	}

	off := l.size
	l.index[name] = len(l.own)
	l.own = append(l.own, Field{Name: name, Class: l.class, Offset: off, Size: size})
	l.size += size
	return off, nil
}

// MaxSize is the largest padded object size addressable with pointers of
// the given width.
func MaxSize(width int) int {
	if width <= 4 {
		return 1<<31 - 1
	}
	return math.MaxInt - width
}

// Finish pads the size to a multiple of the pointer width and seals the
// layout. Finishing twice is a no-op.
func (l *Layout) Finish() int {
	if l.finished {
		return l.padding
	}
	l.padding = Pad(l.size, l.width)
	l.size += l.padding
	l.finished = true
	return l.padding
}

// Class returns the class name.
func (l *Layout) Class() string { return l.class }

// Parent returns the parent layout, or nil for a root class.
func (l *Layout) Parent() *Layout { return l.parent }

// Width returns the pointer width.
func (l *Layout) Width() int { return l.width }

// Base returns the size before the class's own fields: the pointer width
// for a root class, the parent's finished size otherwise.
func (l *Layout) Base() int { return l.base }

// Size returns the running size, or the padded size once finished.
func (l *Layout) Size() int { return l.size }

// Padding returns the trailing padding added by Finish.
func (l *Layout) Padding() int { return l.padding }

// Finished reports whether Finish has been called.
func (l *Layout) Finished() bool { return l.finished }

// Own returns the fields declared by this class, in declaration order.
func (l *Layout) Own() []Field {
	out := make([]Field, len(l.own))
	copy(out, l.own)
	return out
}

// Fields returns every field, ancestors first, in offset order.
func (l *Layout) Fields() []Field {
	var out []Field
	if l.parent != nil {
		out = l.parent.Fields()
	}
	return append(out, l.own...)
}

// Field resolves name against this class, then its ancestors. A field
// declared by the class shadows an inherited one of the same name.
func (l *Layout) Field(name string) (Field, bool) {
	for c := l; c != nil; c = c.parent {
		if i, ok := c.index[name]; ok {
			return c.own[i], true
		}
	}
	return Field{}, false
}
