package emit

import (
	"github.com/wippyai/objgen/arch"
	"github.com/wippyai/objgen/asm"
	"github.com/wippyai/objgen/class"
	"github.com/wippyai/objgen/errors"
	"github.com/wippyai/objgen/vtable"
)

// Construct emits an allocation of d.Size bytes into dst followed by the
// store of the dispatch pointer at offset 0. The store is skipped when the
// allocator returns null, so dst then holds null exactly as returned.
func (e *Emitter) Construct(d *class.Descriptor, dst arch.Reg) (asm.Seq, error) {
	if err := e.check(d); err != nil {
		return nil, err
	}
	if err := e.reserve(d, "construct", dst, 1); err != nil {
		return nil, err
	}

	b := e.backend
	s0 := e.scratch(0)
	install := asm.Join(
		b.EmitAddress(s0, d.DispatchSymbol()),
		b.EmitStore(s0, dst, 0),
	)
	return asm.Join(
		b.EmitAllocate(d.Size, dst),
		b.EmitIfNonZero(dst, e.label(d.Name, "new_null"), install),
	), nil
}

// Destruct emits the delete sequence for the object in h:
//
//	if h != 0 {
//	    dtor := (*h)[0]
//	    if dtor != 0 { dtor(h) }
//	    free(h)
//	}
//
// Classes in slot-0-identity mode have no vtable pointer; their objects are
// only freed. A dispatching class needs at least the destructor slot.
func (e *Emitter) Destruct(d *class.Descriptor, h arch.Reg) (asm.Seq, error) {
	if err := e.check(d); err != nil {
		return nil, err
	}
	if err := e.reserve(d, "destruct", h, 2); err != nil {
		return nil, err
	}

	b := e.backend
	if !d.Dispatches() {
		return b.EmitIfNonZero(h, e.label(d.Name, "delete_null"), b.EmitFree(h)), nil
	}
	if err := d.VTable.Check(vtable.DestructorSlot); err != nil {
		return nil, errors.SlotOutOfRange(errors.PhaseEmit, d.Name, vtable.DestructorSlot, d.VTable.Len())
	}

	s0, s1 := e.scratch(0), e.scratch(1)
	w := b.PointerWidth()
	nullLabel := e.label(d.Name, "delete_null")
	dtorLabel := e.label(d.Name, "delete_nodtor")

	call := asm.Join(
		b.EmitMove(b.Receiver(), h),
		b.EmitIndirectCall(s1),
	)
	body := asm.Join(
		b.EmitSave(h),
		b.EmitLoad(s0, h, 0),
		b.EmitLoad(s1, s0, vtable.DestructorSlot*w),
		b.EmitIfNonZero(s1, dtorLabel, call),
		b.EmitRestore(h),
		b.EmitFree(h),
	)
	return b.EmitIfNonZero(h, nullLabel, body), nil
}

// Retype overwrites offset 0 of the object in h with d's dispatch target:
// its vtable, or its TypeInfo record in slot-0-identity mode.
func (e *Emitter) Retype(d *class.Descriptor, h arch.Reg) (asm.Seq, error) {
	if err := e.check(d); err != nil {
		return nil, err
	}
	if err := e.reserve(d, "retype", h, 1); err != nil {
		return nil, err
	}
	b := e.backend
	s0 := e.scratch(0)
	return asm.Join(
		b.EmitAddress(s0, d.DispatchSymbol()),
		b.EmitStore(s0, h, 0),
	), nil
}

func (e *Emitter) check(d *class.Descriptor) error {
	if d == nil {
		return errors.InvalidInput(errors.PhaseEmit, "nil class descriptor")
	}
	if d.Width != e.backend.PointerWidth() {
		return errors.New(errors.PhaseEmit, errors.KindConfiguration).
			Class(d.Name).
			Arch(e.backend.Name()).
			Detail("descriptor laid out for %s (width %d)", d.Arch, d.Width).
			Build()
	}
	return nil
}

// reserve rejects a handle register that the sequence overwrites: the
// first n scratch registers.
func (e *Emitter) reserve(d *class.Descriptor, op string, r arch.Reg, n int) error {
	for i := 0; i < n; i++ {
		if r == e.scratch(i) {
			return errors.New(errors.PhaseEmit, errors.KindInvalidInput).
				Class(d.Name).
				Arch(e.backend.Name()).
				Detail("%s: register %s is clobbered by the sequence", op, r).
				Build()
		}
	}
	return nil
}
