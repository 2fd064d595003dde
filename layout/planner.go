package layout

import (
	"github.com/wippyai/objgen/arch"
	"github.com/wippyai/objgen/asm"
	"github.com/wippyai/objgen/errors"
)

// Field is one laid-out data member.
type Field struct {
	Name   string
	Class  string // declaring class
	Offset int
	Size   int
}

// End returns the first byte past the field.
func (f Field) End() int {
	return f.Offset + f.Size
}

// Planner creates layouts for a single pointer width.
type Planner struct {
	width int
}

// NewPlanner returns a planner for the backend's pointer width.
// A missing backend or unsupported width is a configuration error.
func NewPlanner(b arch.Backend) (*Planner, error) {
	if err := arch.Validate(b); err != nil {
		return nil, err
	}
	return &Planner{width: b.PointerWidth()}, nil
}

// Width returns the pointer width used for the dispatch slot and padding.
func (p *Planner) Width() int {
	return p.width
}

// Begin starts the layout of a root class. The size starts at the pointer
// width, reserving the dispatch-pointer slot.
func (p *Planner) Begin(class string) (*Layout, error) {
	if !asm.ValidSymbol(class) {
		return nil, errors.InvalidName(errors.PhaseLayout, "class", class)
	}
	return newLayout(class, p.width, p.width, nil), nil
}

// Extend starts the layout of class derived from parent. The running size
// starts at the parent's finished size; an unfinished parent is rejected.
func (p *Planner) Extend(parent *Layout, class string) (*Layout, error) {
	if parent == nil {
		return nil, errors.NotFound(errors.PhaseInherit, "parent layout for class", class)
	}
	if !asm.ValidSymbol(class) {
		return nil, errors.InvalidName(errors.PhaseInherit, "class", class)
	}
	if !parent.finished {
		return nil, errors.UnfinishedParent(parent.class, class)
	}
	if parent.width != p.width {
		return nil, errors.New(errors.PhaseInherit, errors.KindConfiguration).
			Class(class).
			Detail("parent %q laid out for pointer width %d, planner uses %d", parent.class, parent.width, p.width).
			Build()
	}
	return newLayout(class, p.width, parent.size, parent), nil
}

// Pad returns the bytes needed to round size up to a multiple of width.
func Pad(size, width int) int {
	return (width - size%width) % width
}
