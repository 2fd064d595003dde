package class

import (
	"github.com/wippyai/objgen/errors"
	"github.com/wippyai/objgen/layout"
	"github.com/wippyai/objgen/vtable"
)

// Descriptor is the immutable, fully resolved description of one class.
type Descriptor struct {
	Parent   *Descriptor
	VTable   *vtable.VTable
	TypeInfo *vtable.TypeInfo
	layout   *layout.Layout
	Name     string
	Arch     string
	Fields   []layout.Field
	Size     int
	Width    int
	Padding  int
	RTTI     vtable.RTTIMode
}

// Field resolves a field by name, searching ancestors.
func (d *Descriptor) Field(name string) (layout.Field, error) {
	f, ok := d.layout.Field(name)
	if !ok {
		return layout.Field{}, errors.New(errors.PhaseLayout, errors.KindNotFound).
			Class(d.Name).
			Path(d.Name, name).
			Detail("field %q not found", name).
			Build()
	}
	return f, nil
}

// Own returns the fields declared by the class itself.
func (d *Descriptor) Own() []layout.Field {
	return d.layout.Own()
}

// Base returns the size before the class's own fields.
func (d *Descriptor) Base() int {
	return d.layout.Base()
}

// Method resolves a method's slot by name.
func (d *Descriptor) Method(name string) (vtable.Slot, error) {
	s, ok := d.VTable.Lookup(name)
	if !ok {
		return vtable.Slot{}, errors.New(errors.PhaseVTable, errors.KindNotFound).
			Class(d.Name).
			Path(d.Name, name).
			Detail("method %q not found", name).
			Build()
	}
	return s, nil
}

// Dispatches reports whether objects carry a vtable pointer at offset 0.
func (d *Descriptor) Dispatches() bool {
	return d.RTTI != vtable.RTTIIdentity
}

// DispatchSymbol is the symbol whose address constructors store at offset 0:
// the vtable, or the TypeInfo record in identity mode.
func (d *Descriptor) DispatchSymbol() string {
	if d.RTTI == vtable.RTTIIdentity {
		return d.TypeInfo.Symbol()
	}
	return d.VTable.Symbol()
}

// IsA reports whether d is other or a descendant of it.
func (d *Descriptor) IsA(other *Descriptor) bool {
	for c := d; c != nil; c = c.Parent {
		if c == other {
			return true
		}
	}
	return false
}

// Chain returns the class and its ancestors, most derived first.
func (d *Descriptor) Chain() []*Descriptor {
	var out []*Descriptor
	for c := d; c != nil; c = c.Parent {
		out = append(out, c)
	}
	return out
}
