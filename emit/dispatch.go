package emit

import (
	"github.com/wippyai/objgen/arch"
	"github.com/wippyai/objgen/asm"
	"github.com/wippyai/objgen/class"
	"github.com/wippyai/objgen/errors"
)

// VirtualCall emits a call through slot of the object's vtable:
//
//	vptr   := *(h + 0)
//	target := *(vptr + slot*width)
//	receiver = h
//	call target
//
// The slot is validated against d's vtable here; the emitted sequence
// performs no bounds check. The call result is left in the backend's
// result register.
func (e *Emitter) VirtualCall(d *class.Descriptor, h arch.Reg, slot int) (asm.Seq, error) {
	if err := e.check(d); err != nil {
		return nil, err
	}
	if !d.Dispatches() {
		return nil, errors.ConflictingRTTI(errors.PhaseEmit, d.Name,
			"slot-0-identity objects hold a type record at offset 0, not a vtable pointer")
	}
	if err := d.VTable.Check(slot); err != nil {
		return nil, errors.SlotOutOfRange(errors.PhaseEmit, d.Name, slot, d.VTable.Len())
	}
	if err := e.reserve(d, "virtual call", h, 2); err != nil {
		return nil, err
	}

	b := e.backend
	s0, s1 := e.scratch(0), e.scratch(1)
	return asm.Join(
		b.EmitLoad(s0, h, 0),
		b.EmitLoad(s1, s0, slot*b.PointerWidth()),
		b.EmitMove(b.Receiver(), h),
		b.EmitIndirectCall(s1),
	), nil
}

// CallMethod resolves method to its slot and emits VirtualCall.
func (e *Emitter) CallMethod(d *class.Descriptor, h arch.Reg, method string) (asm.Seq, error) {
	if d == nil {
		return nil, errors.InvalidInput(errors.PhaseEmit, "nil class descriptor")
	}
	s, err := d.Method(method)
	if err != nil {
		return nil, err
	}
	return e.VirtualCall(d, h, s.Index)
}
