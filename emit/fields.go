package emit

import (
	"github.com/wippyai/objgen/arch"
	"github.com/wippyai/objgen/asm"
	"github.com/wippyai/objgen/class"
	"github.com/wippyai/objgen/errors"
	"github.com/wippyai/objgen/layout"
)

// LoadField emits a load of field from the object in h into dst.
// Only pointer-sized fields can be moved through a register.
func (e *Emitter) LoadField(d *class.Descriptor, h arch.Reg, field string, dst arch.Reg) (asm.Seq, error) {
	f, err := e.wordField(d, field)
	if err != nil {
		return nil, err
	}
	return e.backend.EmitLoad(dst, h, f.Offset), nil
}

// StoreField emits a store of src into field of the object in h.
func (e *Emitter) StoreField(d *class.Descriptor, h arch.Reg, field string, src arch.Reg) (asm.Seq, error) {
	f, err := e.wordField(d, field)
	if err != nil {
		return nil, err
	}
	return e.backend.EmitStore(src, h, f.Offset), nil
}

func (e *Emitter) wordField(d *class.Descriptor, name string) (layout.Field, error) {
	if err := e.check(d); err != nil {
		return layout.Field{}, err
	}
	f, err := d.Field(name)
	if err != nil {
		return layout.Field{}, err
	}
	if f.Size != e.backend.PointerWidth() {
		return layout.Field{}, errors.New(errors.PhaseEmit, errors.KindUnsupported).
			Class(d.Name).
			Arch(e.backend.Name()).
			Path(d.Name, name).
			Detail("field is %d bytes, register access needs %d", f.Size, e.backend.PointerWidth()).
			Build()
	}
	return f, nil
}
