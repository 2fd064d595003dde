package class

import (
	"go.uber.org/zap"

	"github.com/wippyai/objgen/errors"
	"github.com/wippyai/objgen/layout"
	"github.com/wippyai/objgen/vtable"
)

// Builder accumulates one class declaration. It is threaded through every
// declaration call and discarded by Finish.
type Builder struct {
	reg    *Registry
	parent *Descriptor
	layout *layout.Layout
	vt     *vtable.Builder
	name   string
	modes  []vtable.RTTIMode
	done   bool
}

// Name returns the class being built.
func (b *Builder) Name() string { return b.name }

// Field appends a data member and returns its offset.
func (b *Builder) Field(name string, size int) (int, error) {
	if b.done {
		return 0, errors.Sealed(errors.PhaseLayout, b.name)
	}
	off, err := b.layout.AddField(name, size)
	if err != nil {
		return 0, err
	}
	b.reg.offsets[Member{b.name, name}] = off
	return off, nil
}

// Method declares or overrides a virtual method and returns its slot.
// An empty entry declares a null slot.
func (b *Builder) Method(name, entry string) (int, error) {
	if b.done {
		return 0, errors.Sealed(errors.PhaseVTable, b.name)
	}
	slot, overridden, err := b.vt.Declare(name, entry)
	if err != nil {
		return 0, err
	}
	if overridden {
		Logger().Debug("override keeps slot",
			zap.String("class", b.name),
			zap.String("method", name),
			zap.Int("slot", slot),
			zap.String("entry", entry))
	}
	b.reg.slots[Member{b.name, name}] = slot
	return slot, nil
}

// RTTI requests type identity modes for the class. Requests accumulate;
// asking for both offset-0 schemes fails immediately.
func (b *Builder) RTTI(modes ...vtable.RTTIMode) error {
	if b.done {
		return errors.Sealed(errors.PhaseRTTI, b.name)
	}
	all := append(append([]vtable.RTTIMode(nil), b.modes...), modes...)
	if _, err := vtable.ResolveRTTI(b.name, all...); err != nil {
		return err
	}
	b.modes = all
	return nil
}

// Finish pads the layout, freezes the vtable, attaches type info and
// registers the descriptor.
func (b *Builder) Finish() (*Descriptor, error) {
	if b.done {
		return nil, errors.Sealed(errors.PhaseLayout, b.name)
	}
	mode, err := vtable.ResolveRTTI(b.name, b.modes...)
	if err != nil {
		return nil, err
	}

	pad := b.layout.Finish()
	vt := b.vt.Build()

	d := &Descriptor{
		Name:    b.name,
		Arch:    b.reg.backend.Name(),
		Width:   b.layout.Width(),
		Size:    b.layout.Size(),
		Padding: pad,
		Fields:  b.layout.Fields(),
		Parent:  b.parent,
		VTable:  vt,
		RTTI:    mode,
		layout:  b.layout,
	}

	if mode != vtable.RTTINone {
		// Nearest ancestor that carries a record.
		var parentInfo *vtable.TypeInfo
		if b.parent != nil {
			for _, a := range b.parent.Chain() {
				if a.TypeInfo != nil {
					parentInfo = a.TypeInfo
					break
				}
			}
		}
		ti, err := vtable.AttachTypeInfo(vt, mode, parentInfo)
		if err != nil {
			return nil, err
		}
		d.TypeInfo = ti
	}

	b.done = true
	b.reg.add(d)

	Logger().Debug("class finished",
		zap.String("class", d.Name),
		zap.String("arch", d.Arch),
		zap.Int("size", d.Size),
		zap.Int("padding", pad),
		zap.Int("slots", vt.Len()),
		zap.Stringer("rtti", mode))
	return d, nil
}
